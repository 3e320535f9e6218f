// ABOUTME: Configuration loading and parsing for omnia-runtime
// ABOUTME: YAML file with env expansion, OMNIA_* overlay, defaults, validation

package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete omnia-runtime configuration
type Config struct {
	Agent   AgentConfig   `yaml:"agent"`
	Engine  EngineConfig  `yaml:"engine"`
	Session SessionConfig `yaml:"session"`
	Tools   ToolsConfig   `yaml:"tools"`
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
}

// AgentConfig identifies this runtime deployment
type AgentConfig struct {
	Name         string `yaml:"name"`
	Namespace    string `yaml:"namespace"`
	SystemPrompt string `yaml:"system_prompt"`
}

// EngineConfig selects and tunes the reasoning engine provider
type EngineConfig struct {
	Provider          string  `yaml:"provider"`
	Model             string  `yaml:"model"`
	AnthropicAPIKey   string  `yaml:"anthropic_api_key"`
	OpenAIAPIKey      string  `yaml:"openai_api_key"`
	MockConfig        string  `yaml:"mock_config"`
	ContextWindow     int     `yaml:"context_window"`
	Truncation        string  `yaml:"truncation"`
	InputCostPerMTok  float64 `yaml:"input_cost_per_mtok"`
	OutputCostPerMTok float64 `yaml:"output_cost_per_mtok"`
	MaxToolRounds     int     `yaml:"max_tool_rounds"`
}

// SessionConfig selects the session store backend
type SessionConfig struct {
	Backend       string        `yaml:"backend"`
	RedisURL      string        `yaml:"redis_url"`
	SQLitePath    string        `yaml:"sqlite_path"`
	MaxSessions   int           `yaml:"max_sessions"`
	TTL           time.Duration `yaml:"-"`
	SweepInterval time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	TTLRaw           string `yaml:"ttl"`
	SweepIntervalRaw string `yaml:"sweep_interval"`
}

// ToolsConfig locates the tool catalog
type ToolsConfig struct {
	Path        string        `yaml:"path"`
	CallTimeout time.Duration `yaml:"-"`

	CallTimeoutRaw string `yaml:"call_timeout"`
}

// ServerConfig holds listener and per-turn timing configuration
type ServerConfig struct {
	GRPCPort          int             `yaml:"grpc_port"`
	HealthPort        int             `yaml:"health_port"`
	GenerationTimeout time.Duration   `yaml:"-"`
	Tailscale         TailscaleConfig `yaml:"tailscale"`

	GenerationTimeoutRaw string `yaml:"generation_timeout"`
}

// TailscaleConfig holds the optional tsnet listener configuration
type TailscaleConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Hostname  string `yaml:"hostname"`
	AuthKey   string `yaml:"auth_key"`
	StateDir  string `yaml:"state_dir"`
	Ephemeral bool   `yaml:"ephemeral"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	TokenSecret string `yaml:"token_secret"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads configuration from the given path (empty means no file) and
// returns a parsed Config. Environment variables in the format ${VAR_NAME}
// are expanded inside file values, then OMNIA_* variables overlay the file,
// then defaults fill anything still unset.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		expandedData := expandEnvVars(string(data))

		if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := overlayEnv(&cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	applyDefaults(&cfg)

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// ResolvePath picks the config file location: the explicit flag value,
// then $OMNIA_CONFIG, then ./config.yaml when present, else none.
func ResolvePath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if env := os.Getenv("OMNIA_CONFIG"); env != "" {
		return env
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}
	return ""
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// overlayEnv applies OMNIA_* environment variables on top of file values.
// A set variable always wins over the file.
func overlayEnv(cfg *Config) error {
	envStr("OMNIA_AGENT_NAME", &cfg.Agent.Name)
	envStr("OMNIA_AGENT_NAMESPACE", &cfg.Agent.Namespace)
	envStr("OMNIA_SYSTEM_PROMPT", &cfg.Agent.SystemPrompt)

	envStr("OMNIA_PROVIDER", &cfg.Engine.Provider)
	envStr("OMNIA_MODEL", &cfg.Engine.Model)
	envStr("OMNIA_ANTHROPIC_API_KEY", &cfg.Engine.AnthropicAPIKey)
	envStr("OMNIA_OPENAI_API_KEY", &cfg.Engine.OpenAIAPIKey)
	envStr("OMNIA_MOCK_CONFIG", &cfg.Engine.MockConfig)
	envStr("OMNIA_TRUNCATION_STRATEGY", &cfg.Engine.Truncation)
	if err := envInt("OMNIA_CONTEXT_WINDOW", &cfg.Engine.ContextWindow); err != nil {
		return err
	}
	if err := envInt("OMNIA_MAX_TOOL_ROUNDS", &cfg.Engine.MaxToolRounds); err != nil {
		return err
	}
	if err := envFloat("OMNIA_INPUT_COST_PER_MTOK", &cfg.Engine.InputCostPerMTok); err != nil {
		return err
	}
	if err := envFloat("OMNIA_OUTPUT_COST_PER_MTOK", &cfg.Engine.OutputCostPerMTok); err != nil {
		return err
	}

	envStr("OMNIA_SESSION_BACKEND", &cfg.Session.Backend)
	envStr("OMNIA_REDIS_URL", &cfg.Session.RedisURL)
	envStr("OMNIA_SQLITE_PATH", &cfg.Session.SQLitePath)
	envStr("OMNIA_SESSION_TTL", &cfg.Session.TTLRaw)
	envStr("OMNIA_SESSION_SWEEP", &cfg.Session.SweepIntervalRaw)
	if err := envInt("OMNIA_SESSION_MAX", &cfg.Session.MaxSessions); err != nil {
		return err
	}

	envStr("OMNIA_TOOLS_CONFIG", &cfg.Tools.Path)
	envStr("OMNIA_TOOL_TIMEOUT", &cfg.Tools.CallTimeoutRaw)

	envStr("OMNIA_GENERATION_TIMEOUT", &cfg.Server.GenerationTimeoutRaw)
	if err := envInt("OMNIA_GRPC_PORT", &cfg.Server.GRPCPort); err != nil {
		return err
	}
	if err := envInt("OMNIA_HEALTH_PORT", &cfg.Server.HealthPort); err != nil {
		return err
	}

	envStr("OMNIA_AUTH_SECRET", &cfg.Auth.TokenSecret)

	envStr("OMNIA_LOG_LEVEL", &cfg.Logging.Level)
	envStr("OMNIA_LOG_FORMAT", &cfg.Logging.Format)

	return nil
}

func envStr(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func envFloat(key string, dst *float64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

// applyDefaults fills any field that neither the file nor the environment set.
func applyDefaults(cfg *Config) {
	if cfg.Agent.Namespace == "" {
		cfg.Agent.Namespace = "default"
	}
	if cfg.Engine.Provider == "" {
		cfg.Engine.Provider = "mock"
	}
	if cfg.Engine.Truncation == "" {
		cfg.Engine.Truncation = "sliding-window"
	}
	if cfg.Engine.MaxToolRounds == 0 {
		cfg.Engine.MaxToolRounds = 5
	}
	if cfg.Session.Backend == "" {
		cfg.Session.Backend = "memory"
	}
	if cfg.Session.TTLRaw == "" {
		cfg.Session.TTLRaw = "24h"
	}
	if cfg.Session.MaxSessions == 0 {
		cfg.Session.MaxSessions = 10000
	}
	if cfg.Session.SweepIntervalRaw == "" {
		cfg.Session.SweepIntervalRaw = "5m"
	}
	if cfg.Tools.CallTimeoutRaw == "" {
		cfg.Tools.CallTimeoutRaw = "30s"
	}
	if cfg.Server.GenerationTimeoutRaw == "" {
		cfg.Server.GenerationTimeoutRaw = "120s"
	}
	if cfg.Server.GRPCPort == 0 {
		cfg.Server.GRPCPort = 9000
	}
	if cfg.Server.HealthPort == 0 {
		cfg.Server.HealthPort = 9001
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Agent.Name == "" {
		return fmt.Errorf("agent.name is required")
	}

	switch c.Engine.Provider {
	case "anthropic":
		if c.Engine.AnthropicAPIKey == "" {
			return fmt.Errorf("engine.anthropic_api_key is required for the anthropic provider")
		}
	case "openai":
		if c.Engine.OpenAIAPIKey == "" {
			return fmt.Errorf("engine.openai_api_key is required for the openai provider")
		}
	case "mock":
	default:
		return fmt.Errorf("engine.provider must be anthropic, openai, or mock, got %q", c.Engine.Provider)
	}

	if c.Engine.Truncation != "sliding-window" && c.Engine.Truncation != "none" {
		return fmt.Errorf("engine.truncation must be sliding-window or none, got %q", c.Engine.Truncation)
	}
	if c.Engine.MaxToolRounds < 1 {
		return fmt.Errorf("engine.max_tool_rounds must be at least 1")
	}

	switch c.Session.Backend {
	case "memory":
	case "redis":
		if c.Session.RedisURL == "" {
			return fmt.Errorf("session.redis_url is required for the redis backend")
		}
	case "sqlite":
		if c.Session.SQLitePath == "" {
			return fmt.Errorf("session.sqlite_path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("session.backend must be memory, redis, or sqlite, got %q", c.Session.Backend)
	}

	if c.Server.GRPCPort < 1 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("server.grpc_port must be between 1 and 65535")
	}
	if c.Server.HealthPort < 1 || c.Server.HealthPort > 65535 {
		return fmt.Errorf("server.health_port must be between 1 and 65535")
	}
	if c.Server.GRPCPort == c.Server.HealthPort {
		return fmt.Errorf("server.grpc_port and server.health_port must differ")
	}

	if c.Server.Tailscale.Enabled && c.Server.Tailscale.Hostname == "" {
		return fmt.Errorf("server.tailscale.hostname is required when tailscale is enabled")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Session.TTLRaw != "" {
		cfg.Session.TTL, err = time.ParseDuration(cfg.Session.TTLRaw)
		if err != nil {
			return fmt.Errorf("parsing session.ttl %q: %w", cfg.Session.TTLRaw, err)
		}
	}

	if cfg.Session.SweepIntervalRaw != "" {
		cfg.Session.SweepInterval, err = time.ParseDuration(cfg.Session.SweepIntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing session.sweep_interval %q: %w", cfg.Session.SweepIntervalRaw, err)
		}
	}

	if cfg.Tools.CallTimeoutRaw != "" {
		cfg.Tools.CallTimeout, err = time.ParseDuration(cfg.Tools.CallTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing tools.call_timeout %q: %w", cfg.Tools.CallTimeoutRaw, err)
		}
	}

	if cfg.Server.GenerationTimeoutRaw != "" {
		cfg.Server.GenerationTimeout, err = time.ParseDuration(cfg.Server.GenerationTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing server.generation_timeout %q: %w", cfg.Server.GenerationTimeoutRaw, err)
		}
	}

	return nil
}
