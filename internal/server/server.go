// ABOUTME: Runtime assembly and lifecycle: store, engine, catalog, listeners
// ABOUTME: Runs gRPC and liveness HTTP servers with bounded graceful shutdown

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"
	"tailscale.com/tsnet"

	"github.com/AltairaLabs/omnia-runtime/internal/auth"
	"github.com/AltairaLabs/omnia-runtime/internal/config"
	"github.com/AltairaLabs/omnia-runtime/internal/engine"
	"github.com/AltairaLabs/omnia-runtime/internal/metrics"
	"github.com/AltairaLabs/omnia-runtime/internal/orchestrator"
	"github.com/AltairaLabs/omnia-runtime/internal/session"
	"github.com/AltairaLabs/omnia-runtime/internal/tools"
	"github.com/AltairaLabs/omnia-runtime/proto/omnia"
)

// maxMessageBytes bounds gRPC messages in both directions. Media parts carry
// inline bytes, so the ceiling is well above typical chat payloads.
const maxMessageBytes = 50 * 1024 * 1024

// shutdownTimeout is the graceful-shutdown window before in-flight streams
// are cut off.
const shutdownTimeout = 5 * time.Second

// Server wires the session store, engine, and tool catalog into the gRPC
// Runtime service and manages every listener's lifecycle.
type Server struct {
	config  *config.Config
	logger  *slog.Logger
	store   session.Store
	engine  engine.Adapter
	catalog *tools.Catalog
	watcher *tools.Watcher
	metrics *metrics.Metrics
	orch    *orchestrator.Orchestrator

	grpcServer  *grpc.Server
	httpServer  *http.Server
	tsnetServer *tsnet.Server
	sweeper     *cron.Cron

	ready    atomic.Bool
	draining atomic.Bool
}

// New assembles a Server from configuration. Construction fails fast: an
// unreachable store, a bad engine configuration, or a broken tool catalog is
// a startup error.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	s := &Server{
		config: cfg,
		logger: logger.With("component", "server"),
	}

	store, err := initStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing session store: %w", err)
	}
	s.store = store

	eng, err := engine.New(engine.Options{
		Provider:          cfg.Engine.Provider,
		Model:             cfg.Engine.Model,
		AnthropicAPIKey:   cfg.Engine.AnthropicAPIKey,
		OpenAIAPIKey:      cfg.Engine.OpenAIAPIKey,
		MockConfigPath:    cfg.Engine.MockConfig,
		ContextWindow:     cfg.Engine.ContextWindow,
		Truncation:        cfg.Engine.Truncation,
		InputCostPerMTok:  cfg.Engine.InputCostPerMTok,
		OutputCostPerMTok: cfg.Engine.OutputCostPerMTok,
		Logger:            logger,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("initializing engine: %w", err)
	}
	s.engine = eng

	catalog, watcher, err := initCatalog(cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	s.catalog = catalog
	s.watcher = watcher

	s.metrics = metrics.New()

	s.orch = orchestrator.New(orchestrator.Options{
		Store:             s.store,
		Engine:            s.engine,
		Catalog:           s.catalog,
		Metrics:           s.metrics,
		Logger:            logger,
		SystemPrompt:      cfg.Agent.SystemPrompt,
		MaxToolRounds:     cfg.Engine.MaxToolRounds,
		GenerationTimeout: cfg.Server.GenerationTimeout,
		ToolTimeout:       cfg.Tools.CallTimeout,
		Backend:           cfg.Session.Backend,
	})

	s.grpcServer = createGRPCServer(cfg, logger)
	omnia.RegisterRuntimeServer(s.grpcServer, &runtimeService{
		server: s,
		logger: logger.With("component", "grpc"),
	})

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HealthPort),
		Handler:           s.healthMux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := s.scheduleSweep(); err != nil {
		_ = s.closeComponents()
		return nil, err
	}

	return s, nil
}

// initStore creates the configured session store backend.
func initStore(cfg *config.Config) (session.Store, error) {
	switch cfg.Session.Backend {
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return session.NewRedisStoreURL(ctx, cfg.Session.RedisURL, cfg.Session.TTL)
	case "sqlite":
		return session.NewSQLiteStore(cfg.Session.SQLitePath)
	default:
		return session.NewMemoryStore(cfg.Session.TTL, cfg.Session.MaxSessions, cfg.Session.SweepInterval), nil
	}
}

// initCatalog loads the tool catalog and starts watching it for edits. An
// unset path means the runtime serves without tools.
func initCatalog(cfg *config.Config, logger *slog.Logger) (*tools.Catalog, *tools.Watcher, error) {
	if cfg.Tools.Path == "" {
		return tools.Empty(), nil, nil
	}

	catalog, err := tools.Load(cfg.Tools.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading tool catalog: %w", err)
	}

	watcher, err := tools.NewWatcher(catalog, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("watching tool catalog: %w", err)
	}

	logger.Info("tool catalog loaded", "path", cfg.Tools.Path, "tools", catalog.Len())
	return catalog, watcher, nil
}

// createGRPCServer builds the gRPC server with keepalive settings and, when
// a token secret is configured, auth interceptors on every method except
// Health.
func createGRPCServer(cfg *config.Config, logger *slog.Logger) *grpc.Server {
	opts := []grpc.ServerOption{
		grpc.MaxRecvMsgSize(maxMessageBytes),
		grpc.MaxSendMsgSize(maxMessageBytes),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    15 * time.Second,
			Timeout: 5 * time.Second,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
	}

	if cfg.Auth.TokenSecret != "" {
		verifier := auth.NewJWTVerifier([]byte(cfg.Auth.TokenSecret))
		opts = append(opts,
			grpc.ChainUnaryInterceptor(auth.UnaryInterceptor(verifier, logger)),
			grpc.ChainStreamInterceptor(auth.StreamInterceptor(verifier, logger)),
		)
		logger.Info("auth interceptors enabled")
	} else {
		logger.Warn("auth disabled - no token_secret configured")
	}

	return grpc.NewServer(opts...)
}

// scheduleSweep registers a periodic expiry sweep for the sqlite backend.
// The memory and redis stores expire sessions on their own.
func (s *Server) scheduleSweep() error {
	sqlStore, ok := s.store.(*session.SQLiteStore)
	if !ok || s.config.Session.SweepInterval <= 0 {
		return nil
	}

	ttl := s.config.Session.TTL
	s.sweeper = cron.New()
	_, err := s.sweeper.AddFunc(fmt.Sprintf("@every %s", s.config.Session.SweepInterval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := sqlStore.SweepExpired(ctx, ttl); err != nil {
			s.logger.Error("session sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling session sweep: %w", err)
	}
	return nil
}

// Run starts the servers and blocks until the context is canceled or a
// listener fails. Returns nil on graceful shutdown, the first server error
// otherwise.
func (s *Server) Run(ctx context.Context) error {
	grpcListeners, httpLn, err := s.setupListeners(ctx)
	if err != nil {
		return err
	}

	if s.sweeper != nil {
		s.sweeper.Start()
	}

	errCh := s.startServers(grpcListeners, httpLn)
	s.ready.Store(true)

	serverErr := s.waitForShutdownSignal(ctx, errCh)

	shutdownErr := s.gracefulShutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// setupListeners opens the TCP listeners and, when configured, a tailnet
// listener serving the same gRPC server.
func (s *Server) setupListeners(ctx context.Context) (grpcListeners []net.Listener, httpLn net.Listener, err error) {
	grpcLn, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Server.GRPCPort))
	if err != nil {
		return nil, nil, fmt.Errorf("listening on gRPC port: %w", err)
	}
	grpcListeners = append(grpcListeners, grpcLn)

	httpLn, err = net.Listen("tcp", fmt.Sprintf(":%d", s.config.Server.HealthPort))
	if err != nil {
		_ = grpcLn.Close()
		return nil, nil, fmt.Errorf("listening on health port: %w", err)
	}

	if s.config.Server.Tailscale.Enabled {
		tsLn, err := s.setupTailscaleListener(ctx)
		if err != nil {
			_ = grpcLn.Close()
			_ = httpLn.Close()
			return nil, nil, err
		}
		grpcListeners = append(grpcListeners, tsLn)
	}

	return grpcListeners, httpLn, nil
}

// resolveTailscaleStateDir returns the state directory, using default if not configured.
func resolveTailscaleStateDir(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory for tailscale state (set tailscale.state_dir explicitly): %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "omnia-runtime", "tailscale"), nil
}

// resolveTailscaleAuthKey returns the auth key from config or environment.
func resolveTailscaleAuthKey(configured string) (string, error) {
	authKey := configured
	if authKey == "" {
		authKey = os.Getenv("TS_AUTHKEY")
	}
	if authKey == "" {
		return "", errors.New("tailscale auth key required: set auth_key in config or TS_AUTHKEY environment variable")
	}
	return authKey, nil
}

// setupTailscaleListener joins the tailnet and listens on the gRPC port
// there, alongside the plain TCP listener.
func (s *Server) setupTailscaleListener(ctx context.Context) (net.Listener, error) {
	tsCfg := s.config.Server.Tailscale

	stateDir, err := resolveTailscaleStateDir(tsCfg.StateDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(stateDir, 0700); err != nil {
		return nil, fmt.Errorf("creating tailscale state dir: %w", err)
	}

	authKey, err := resolveTailscaleAuthKey(tsCfg.AuthKey)
	if err != nil {
		return nil, err
	}

	s.tsnetServer = &tsnet.Server{
		Hostname:  tsCfg.Hostname,
		Dir:       stateDir,
		Ephemeral: tsCfg.Ephemeral,
		AuthKey:   authKey,
	}

	s.logger.Info("starting tailscale node", "hostname", tsCfg.Hostname, "state_dir", stateDir, "ephemeral", tsCfg.Ephemeral)
	status, err := s.tsnetServer.Up(ctx)
	if err != nil {
		_ = s.tsnetServer.Close()
		s.tsnetServer = nil
		return nil, fmt.Errorf("starting tailscale: %w", err)
	}
	if status.Self != nil {
		s.logger.Info("tailscale node ready", "hostname", tsCfg.Hostname, "dns_name", status.Self.DNSName)
	}

	ln, err := s.tsnetServer.Listen("tcp", fmt.Sprintf(":%d", s.config.Server.GRPCPort))
	if err != nil {
		_ = s.tsnetServer.Close()
		s.tsnetServer = nil
		return nil, fmt.Errorf("listening on tailscale gRPC port: %w", err)
	}
	return ln, nil
}

// startServers starts the gRPC server on every listener and the HTTP server,
// returning the shared error channel.
func (s *Server) startServers(grpcListeners []net.Listener, httpLn net.Listener) chan error {
	errCh := make(chan error, len(grpcListeners)+1)

	for _, ln := range grpcListeners {
		go func() {
			s.logger.Info("gRPC server listening", "addr", ln.Addr().String())
			if err := s.grpcServer.Serve(ln); err != nil {
				errCh <- fmt.Errorf("gRPC server: %w", err)
			}
		}()
	}

	go func() {
		s.logger.Info("HTTP server listening", "addr", httpLn.Addr().String())
		if err := s.httpServer.Serve(httpLn); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	return errCh
}

// waitForShutdownSignal waits for context cancellation or server error.
func (s *Server) waitForShutdownSignal(ctx context.Context, errCh chan error) error {
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
		return nil
	case err := <-errCh:
		s.logger.Error("server error", "error", err)
		s.drainErrors(errCh)
		return err
	}
}

// drainErrors drains any remaining errors from the channel.
func (s *Server) drainErrors(errCh chan error) {
	select {
	case additionalErr := <-errCh:
		s.logger.Error("additional server error", "error", additionalErr)
	default:
	}
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is already canceled.
func (s *Server) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(ctx)
}

// shutdownGRPCServer gracefully stops the gRPC server or force-stops on context cancel.
func (s *Server) shutdownGRPCServer(ctx context.Context) {
	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-ctx.Done():
		s.grpcServer.Stop()
	}
}

// appendCloseError appends an error with label if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}

// Shutdown stops every server and releases resources. Health and readiness
// report draining from the first moment so probes stop routing here.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down runtime")
	s.ready.Store(false)
	s.draining.Store(true)

	var errs []error
	errs = appendCloseError(errs, "HTTP shutdown", s.httpServer.Shutdown(ctx))

	s.shutdownGRPCServer(ctx)

	if s.tsnetServer != nil {
		errs = appendCloseError(errs, "tailscale shutdown", s.tsnetServer.Close())
	}
	errs = appendCloseError(errs, "close", s.closeComponents())

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

// closeComponents releases everything that is not a listener.
func (s *Server) closeComponents() error {
	if s.sweeper != nil {
		s.sweeper.Stop()
	}

	var errs []error
	if s.watcher != nil {
		errs = appendCloseError(errs, "catalog watcher close", s.watcher.Close())
	}
	errs = appendCloseError(errs, "store close", s.store.Close())

	if len(errs) > 0 {
		return fmt.Errorf("%v", errs)
	}
	return nil
}
