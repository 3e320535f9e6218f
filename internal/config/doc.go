// Package config handles configuration loading for omnia-runtime.
//
// # Overview
//
// Configuration comes from a YAML file overlaid by OMNIA_* environment
// variables (the environment always wins), followed by defaults and
// validation. Startup fails on the first invalid field.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from the --config flag
//  2. Path from OMNIA_CONFIG environment variable
//  3. ./config.yaml (current directory)
//
// Running with no file at all is fine when the environment carries the
// required fields.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	engine:
//	  anthropic_api_key: "${ANTHROPIC_API_KEY}"
//
// Syntax: ${VAR_NAME}
//
// # Environment Overlay
//
// Every field also has a flat OMNIA_* variable that overrides the file,
// e.g. OMNIA_PROVIDER, OMNIA_SESSION_BACKEND, OMNIA_GRPC_PORT,
// OMNIA_AUTH_SECRET. See the field table in the README.
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	session:
//	  ttl: "24h"
//	  sweep_interval: "5m"
//	tools:
//	  call_timeout: "30s"
//	server:
//	  generation_timeout: "120s"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Agent identity:
//
//	agent:
//	  name: "support-agent"      # required
//	  namespace: "default"
//	  system_prompt: "You are a support agent."
//
// Engine:
//
//	engine:
//	  provider: "anthropic"      # anthropic, openai, mock
//	  model: "claude-sonnet-4-5"
//	  anthropic_api_key: "${ANTHROPIC_API_KEY}"
//	  context_window: 0          # tokens, 0 disables truncation
//	  truncation: "sliding-window"
//	  max_tool_rounds: 5
//
// Session store:
//
//	session:
//	  backend: "memory"          # memory, redis, sqlite
//	  redis_url: "localhost:6379"
//	  sqlite_path: "/var/lib/omnia/sessions.db"
//	  ttl: "24h"
//	  max_sessions: 10000
//	  sweep_interval: "5m"
//
// Tools:
//
//	tools:
//	  path: "tools.yaml"
//	  call_timeout: "30s"
//
// Server:
//
//	server:
//	  grpc_port: 9000
//	  health_port: 9001
//	  generation_timeout: "120s"
//	  tailscale:
//	    enabled: false
//	    hostname: "omnia-runtime"
//	    auth_key: "${TS_AUTHKEY}"
//
// Authentication:
//
//	auth:
//	  token_secret: "${OMNIA_AUTH_SECRET}"  # empty disables auth
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Usage
//
// Resolve the file location and load:
//
//	cfg, err := config.Load(config.ResolvePath(*flagConfig))
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
