// ABOUTME: Entry point for omnia-probe, the interactive runtime test client
// ABOUTME: Drives a Converse stream from stdin and executes tool calls over HTTP

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
)

const banner = `
    ╭─────────────────────────────────────╮
    │                                     │
    │   ┏━┓┏┳┓┏┓╻╻┏━┓   ┏━┓┏━┓┏━┓┏┓ ┏━╸  │
    │   ┃ ┃┃┃┃┃┗┫┃┣━┫   ┣━┛┣┳┛┃ ┃┣┻┓┣━╸  │
    │   ┗━┛╹ ╹╹ ╹╹╹ ╹   ╹  ╹┗╸┗━┛┗━┛┗━╸  │
    │                                     │
    │         conversation probe          │
    │                                     │
    ╰─────────────────────────────────────╯
`

// getConfigPath returns the path to the probe config file.
// Priority: OMNIA_PROBE_CONFIG env var > XDG_CONFIG_HOME/omnia/probe.toml > ~/.config/omnia/probe.toml
func getConfigPath() string {
	if envPath := os.Getenv("OMNIA_PROBE_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "probe.toml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "omnia", "probe.toml")
}

func main() {
	configPath := flag.String("config", getConfigPath(), "path to probe config (TOML)")
	serverAddr := flag.String("server", "", "runtime address, overrides config")
	sessionID := flag.String("session", "", "session id, overrides config")
	flag.Parse()

	if err := run(*configPath, *serverAddr, *sessionID); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, serverAddr, sessionID string) error {
	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	// Load config; -server alone is enough to run without a file
	var cfg *Config
	if _, err := os.Stat(configPath); err == nil {
		cfg, err = Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	} else if serverAddr != "" {
		cfg = &Config{}
		configPath = "(flags only)"
	} else {
		return fmt.Errorf("no config at %s (pass -config or -server)", configPath)
	}

	if serverAddr != "" {
		cfg.Server.Address = serverAddr
	}
	if sessionID != "" {
		cfg.Session.ID = sessionID
	}
	if cfg.Server.Address == "" {
		return fmt.Errorf("server.address is required")
	}

	// Setup logger
	logger := setupLogger(cfg.Logging.Level)

	// Create probe
	probe, err := NewProbe(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating probe: %w", err)
	}

	// Print startup info
	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Runtime:  %s\n", cfg.Server.Address)
	green.Print("    ▶ ")
	fmt.Printf("Session:  %s\n", probe.sessionID)
	green.Print("    ▶ ")
	if cfg.Tools.Path != "" {
		fmt.Printf("Tools:    %s (%d loaded)\n", cfg.Tools.Path, probe.catalog.Len())
	} else {
		fmt.Printf("Tools:    (none)\n")
	}
	green.Print("    ▶ ")
	if cfg.Server.AuthToken != "" {
		fmt.Printf("Auth:     bearer token configured\n")
	} else {
		fmt.Printf("Auth:     none\n")
	}
	fmt.Println()

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return probe.Run(ctx)
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		// Keep the REPL quiet unless asked otherwise
		logLevel = slog.LevelWarn
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
