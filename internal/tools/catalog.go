// ABOUTME: Tool catalog loaded from tools.yaml describing the tools a channel may call
// ABOUTME: Validates handler definitions and checks engine-emitted arguments against schemas

package tools

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/AltairaLabs/omnia-runtime/internal/engine"
)

// HandlerTypeHTTP is the only executor type the platform currently ships.
const HandlerTypeHTTP = "http"

// ToolDef is the tool surface advertised to the reasoning engine.
type ToolDef struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	InputSchema map[string]any `yaml:"inputSchema"`
}

// HTTPOptions configure how an http handler is invoked by the executor.
type HTTPOptions struct {
	Method      string            `yaml:"method"`
	ContentType string            `yaml:"contentType"`
	Headers     map[string]string `yaml:"headers"`
}

// Handler binds a tool definition to the endpoint that executes it.
type Handler struct {
	Name     string       `yaml:"name"`
	Type     string       `yaml:"type"`
	Endpoint string       `yaml:"endpoint"`
	Timeout  string       `yaml:"timeout"` // parsed into TimeoutDuration
	Retries  int          `yaml:"retries"`
	Tool     ToolDef      `yaml:"tool"`
	HTTP     *HTTPOptions `yaml:"http"`

	TimeoutDuration time.Duration `yaml:"-"`
}

// catalogFile is the on-disk shape of tools.yaml.
type catalogFile struct {
	Handlers []Handler `yaml:"handlers"`
}

// entry pairs a handler with its compiled argument schema.
type entry struct {
	handler Handler
	schema  *gojsonschema.Schema
}

// Catalog is the validated set of tools a conversation may call. It is safe
// for concurrent use; Reload swaps the whole set atomically.
type Catalog struct {
	mu      sync.RWMutex
	path    string
	entries map[string]*entry
	order   []string // tool names in file order
}

// Load reads and validates a tools.yaml catalog. Values may reference
// environment variables with ${VAR_NAME} syntax.
func Load(path string) (*Catalog, error) {
	c := &Catalog{path: path}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Empty returns a catalog with no tools, for deployments that run without one.
func Empty() *Catalog {
	return &Catalog{entries: make(map[string]*entry)}
}

// Reload re-reads the catalog file and swaps the tool set atomically.
// On failure the previous tool set stays in effect.
func (c *Catalog) Reload() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("reading tools config: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), &file); err != nil {
		return fmt.Errorf("parsing tools config: %w", err)
	}

	entries := make(map[string]*entry, len(file.Handlers))
	order := make([]string, 0, len(file.Handlers))
	for i := range file.Handlers {
		h := file.Handlers[i]
		if err := validateHandler(&h); err != nil {
			return fmt.Errorf("handler %q: %w", h.Name, err)
		}
		if _, dup := entries[h.Tool.Name]; dup {
			return fmt.Errorf("handler %q: duplicate tool name %q", h.Name, h.Tool.Name)
		}

		var schema *gojsonschema.Schema
		if h.Tool.InputSchema != nil {
			schema, err = gojsonschema.NewSchema(gojsonschema.NewGoLoader(h.Tool.InputSchema))
			if err != nil {
				return fmt.Errorf("handler %q: compiling input schema: %w", h.Name, err)
			}
		}

		entries[h.Tool.Name] = &entry{handler: h, schema: schema}
		order = append(order, h.Tool.Name)
	}

	c.mu.Lock()
	c.entries = entries
	c.order = order
	c.mu.Unlock()
	return nil
}

// validateHandler checks one handler definition and parses its timeout.
func validateHandler(h *Handler) error {
	if h.Name == "" {
		return fmt.Errorf("handler name is required")
	}
	if h.Type != HandlerTypeHTTP {
		return fmt.Errorf("unknown handler type %q", h.Type)
	}
	if h.Endpoint == "" {
		return fmt.Errorf("http handler requires an endpoint")
	}
	if h.Tool.Name == "" {
		return fmt.Errorf("tool name is required")
	}

	if h.Timeout != "" {
		d, err := time.ParseDuration(h.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", h.Timeout, err)
		}
		h.TimeoutDuration = d
	}
	return nil
}

// Specs returns the tool surface to advertise to the reasoning engine,
// in file order.
func (c *Catalog) Specs() []engine.ToolSpec {
	c.mu.RLock()
	defer c.mu.RUnlock()

	specs := make([]engine.ToolSpec, 0, len(c.order))
	for _, name := range c.order {
		def := c.entries[name].handler.Tool
		specs = append(specs, engine.ToolSpec{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		})
	}
	return specs
}

// Names returns the tool names in file order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, len(c.order))
	copy(names, c.order)
	return names
}

// Len reports the number of tools in the catalog.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Handler returns the handler owning a tool name.
func (c *Catalog) Handler(toolName string) (Handler, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[toolName]
	if !ok {
		return Handler{}, false
	}
	return e.handler, true
}

// Timeout returns the per-call budget for a tool, zero when the tool does
// not override the channel default.
func (c *Catalog) Timeout(toolName string) time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[toolName]; ok {
		return e.handler.TimeoutDuration
	}
	return 0
}

// ValidateArguments checks a JSON-encoded argument object against the
// tool's input schema. Unknown tools and schema violations return an error
// describing the problem; tools without a schema accept anything.
func (c *Catalog) ValidateArguments(toolName, argumentsJSON string) error {
	c.mu.RLock()
	e, ok := c.entries[toolName]
	c.mu.RUnlock()

	if !ok {
		return fmt.Errorf("tool %q is not in the catalog", toolName)
	}
	if e.schema == nil {
		return nil
	}

	if argumentsJSON == "" {
		argumentsJSON = "{}"
	}
	result, err := e.schema.Validate(gojsonschema.NewStringLoader(argumentsJSON))
	if err != nil {
		return fmt.Errorf("validating arguments for %q: %w", toolName, err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			problems = append(problems, re.String())
		}
		return fmt.Errorf("arguments for %q rejected: %s", toolName, strings.Join(problems, "; "))
	}
	return nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
