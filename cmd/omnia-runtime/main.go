// ABOUTME: Entry point for the omnia-runtime conversation server
// ABOUTME: Subcommands: serve, init, health, token, version

package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/base64"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/AltairaLabs/omnia-runtime/internal/auth"
	"github.com/AltairaLabs/omnia-runtime/internal/config"
	"github.com/AltairaLabs/omnia-runtime/internal/server"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
                       _
  ___  _ __ ___  _ __ (_) __ _
 / _ \| '_ ' _ \| '_ \| |/ _' |
| (_) | | | | | | | | | | (_| |
 \___/|_| |_| |_|_| |_|_|\__,_|
`

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd = args[0]
		args = args[1:]
	}

	var err error
	switch cmd {
	case "serve":
		err = runServe(ctx, args)
	case "init":
		err = runInit(args)
	case "health":
		err = runHealth(ctx, args)
	case "token":
		err = runToken(args)
	case "version":
		fmt.Printf("omnia-runtime %s\n", version)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: omnia-runtime [command] [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve    Start the runtime server (default)")
	fmt.Println("  init     Create a config file interactively")
	fmt.Println("  health   Check runtime readiness")
	fmt.Println("  token    Mint a client token from the configured secret")
	fmt.Println("  version  Print the version")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  --config PATH  Config file (default: $OMNIA_CONFIG, then ./config.yaml)")
}

// configPathFromArgs resolves the config file location from a --config flag,
// falling back to $OMNIA_CONFIG and then ./config.yaml.
func configPathFromArgs(name string, args []string) (string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	flagPath := fs.String("config", "", "path to config file")
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	return config.ResolvePath(*flagPath), nil
}

func runServe(ctx context.Context, args []string) error {
	configPath, err := configPathFromArgs("serve", args)
	if err != nil {
		return err
	}

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	// Version info
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)

	// Startup info
	green := color.New(color.FgGreen)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", displayPath(configPath))
	green.Print("    ▶ ")
	fmt.Printf("Engine:    %s\n", engineLabel(cfg.Engine))
	green.Print("    ▶ ")
	fmt.Printf("Sessions:  %s\n", cfg.Session.Backend)
	green.Print("    ▶ ")
	fmt.Printf("gRPC:      :%d\n", cfg.Server.GRPCPort)
	green.Print("    ▶ ")
	fmt.Printf("Health:    :%d\n", cfg.Server.HealthPort)

	// Tailscale status
	if cfg.Server.Tailscale.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Tailscale: ")
		cyan.Print(cfg.Server.Tailscale.Hostname)
		if cfg.Server.Tailscale.Ephemeral {
			gray.Print(" (ephemeral)")
		}
		fmt.Println()
	}

	fmt.Println()

	logger.Info("starting omnia-runtime",
		"version", version,
		"grpc_port", cfg.Server.GRPCPort,
		"health_port", cfg.Server.HealthPort,
		"provider", cfg.Engine.Provider,
		"backend", cfg.Session.Backend,
	)

	// Create and run the runtime server
	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return srv.Run(ctx)
}

func displayPath(path string) string {
	if path == "" {
		return "(built-in defaults)"
	}
	return path
}

func engineLabel(cfg config.EngineConfig) string {
	if cfg.Model == "" {
		return cfg.Provider
	}
	return fmt.Sprintf("%s (%s)", cfg.Provider, cfg.Model)
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	// Format timestamp
	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	// Colorize level
	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	// Print message
	buf.WriteString(r.Message)

	// Print handler-level attrs first (from WithAttrs)
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	// Print record attrs
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}

func runHealth(ctx context.Context, args []string) error {
	configPath, err := configPathFromArgs("health", args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Probe the readiness endpoint with context
	url := fmt.Sprintf("http://127.0.0.1:%d/readyz", cfg.Server.HealthPort)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

// runToken mints a client JWT signed with the configured secret so operators
// can hand credentials to probes without another tool.
func runToken(args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	flagPath := fs.String("config", "", "path to config file")
	subject := fs.String("subject", "probe", "token subject")
	ttl := fs.Duration("ttl", 30*24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(config.ResolvePath(*flagPath))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.Auth.TokenSecret == "" {
		return fmt.Errorf("auth.token_secret not configured (run init or set OMNIA_AUTH_SECRET)")
	}

	token, err := auth.NewJWTVerifier([]byte(cfg.Auth.TokenSecret)).Generate(*subject, *ttl)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}

	fmt.Println(token)
	return nil
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	flagPath := fs.String("config", "", "path to config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("omnia-runtime configuration setup")
	fmt.Println("=================================")
	fmt.Println()

	defaultPath := *flagPath
	if defaultPath == "" {
		defaultPath = "config.yaml"
	}

	outputFile := prompt(reader, "Config file path", defaultPath)

	// Check if file exists
	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if !isYes(overwrite) {
			fmt.Println("Aborted.")
			return nil
		}
	}

	fmt.Println("\n--- Agent ---")
	agentName := prompt(reader, "Agent name", "omnia")
	systemPrompt := prompt(reader, "System prompt (optional)", "")

	fmt.Println("\n--- Engine ---")
	provider := prompt(reader, "Provider (anthropic/openai/mock)", "mock")
	var model string
	if provider == "anthropic" || provider == "openai" {
		model = prompt(reader, "Model (empty for provider default)", "")
	}

	fmt.Println("\n--- Sessions ---")
	backend := prompt(reader, "Session backend (memory/redis/sqlite)", "memory")
	var redisURL, sqlitePath string
	switch backend {
	case "redis":
		redisURL = prompt(reader, "Redis URL", "redis://localhost:6379/0")
	case "sqlite":
		sqlitePath = prompt(reader, "SQLite database path", "omnia.db")
	}

	fmt.Println("\n--- Server ---")
	grpcPortStr := prompt(reader, "gRPC port", "9000")
	grpcPort, err := strconv.Atoi(grpcPortStr)
	if err != nil {
		return fmt.Errorf("invalid gRPC port: %s", grpcPortStr)
	}
	healthPortStr := prompt(reader, "Health port", "9001")
	healthPort, err := strconv.Atoi(healthPortStr)
	if err != nil {
		return fmt.Errorf("invalid health port: %s", healthPortStr)
	}

	fmt.Println("\n--- Auth ---")
	genSecret := prompt(reader, "Generate a token secret?", "yes")

	fmt.Println("\n--- Logging ---")
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", "info")
	logFormat := prompt(reader, "Log format (text/json)", "text")

	// Generate config
	var cfg strings.Builder
	cfg.WriteString("# omnia-runtime configuration\n")
	cfg.WriteString("# Generated by omnia-runtime init\n\n")

	cfg.WriteString("agent:\n")
	cfg.WriteString(fmt.Sprintf("  name: \"%s\"\n", agentName))
	if systemPrompt != "" {
		cfg.WriteString(fmt.Sprintf("  system_prompt: \"%s\"\n", systemPrompt))
	}
	cfg.WriteString("\n")

	cfg.WriteString("engine:\n")
	cfg.WriteString(fmt.Sprintf("  provider: \"%s\"\n", provider))
	if model != "" {
		cfg.WriteString(fmt.Sprintf("  model: \"%s\"\n", model))
	}
	switch provider {
	case "anthropic":
		cfg.WriteString("  anthropic_api_key: \"${ANTHROPIC_API_KEY}\"\n")
	case "openai":
		cfg.WriteString("  openai_api_key: \"${OPENAI_API_KEY}\"\n")
	}
	cfg.WriteString("\n")

	cfg.WriteString("session:\n")
	cfg.WriteString(fmt.Sprintf("  backend: \"%s\"\n", backend))
	if redisURL != "" {
		cfg.WriteString(fmt.Sprintf("  redis_url: \"%s\"\n", redisURL))
	}
	if sqlitePath != "" {
		cfg.WriteString(fmt.Sprintf("  sqlite_path: \"%s\"\n", sqlitePath))
	}
	cfg.WriteString("  ttl: \"24h\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("server:\n")
	cfg.WriteString(fmt.Sprintf("  grpc_port: %d\n", grpcPort))
	cfg.WriteString(fmt.Sprintf("  health_port: %d\n", healthPort))
	cfg.WriteString("\n")

	if isYes(genSecret) {
		secretBytes := make([]byte, 32)
		if _, err := rand.Read(secretBytes); err != nil {
			return fmt.Errorf("generating token secret: %w", err)
		}
		cfg.WriteString("auth:\n")
		cfg.WriteString(fmt.Sprintf("  token_secret: \"%s\"\n", base64.StdEncoding.EncodeToString(secretBytes)))
		cfg.WriteString("\n")
	}

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: \"%s\"\n", logLevel))
	cfg.WriteString(fmt.Sprintf("  format: \"%s\"\n", logFormat))

	// Ensure config directory exists
	configDir := filepath.Dir(outputFile)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	// Token secrets live in this file, keep it private
	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Println("\nTo start the runtime:")
	fmt.Printf("  omnia-runtime serve --config %s\n", outputFile)

	return nil
}

func isYes(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "yes" || s == "y"
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
