// ABOUTME: Tests for Server assembly, lifecycle, and the Runtime gRPC service
// ABOUTME: Uses real gRPC streaming against listeners on loopback ports

package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/AltairaLabs/omnia-runtime/internal/auth"
	"github.com/AltairaLabs/omnia-runtime/internal/config"
	"github.com/AltairaLabs/omnia-runtime/proto/omnia"
)

// testConfig creates a minimal config with available loopback ports and the
// echo mock engine.
func testConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		Agent:  config.AgentConfig{Name: "test-runtime"},
		Engine: config.EngineConfig{Provider: "mock", MaxToolRounds: 5},
		Session: config.SessionConfig{
			Backend:       "memory",
			TTL:           time.Hour,
			MaxSessions:   100,
			SweepInterval: time.Hour,
		},
		Tools: config.ToolsConfig{CallTimeout: 2 * time.Second},
		Server: config.ServerConfig{
			GRPCPort:          freePort(t),
			HealthPort:        freePort(t),
			GenerationTimeout: 10 * time.Second,
		},
	}
}

// freePort reserves a loopback port and releases it for the server to take.
func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find available port: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

// testLogger creates a silent logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startTestServer runs the server in the background and waits until it
// reports ready. Shutdown happens in cleanup via context cancel.
func startTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()

	s, err := New(cfg, testLogger())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run() returned unexpected error: %v", err)
			}
		case <-time.After(10 * time.Second):
			t.Error("server did not shut down in time")
		}
	})

	waitForReady(t, cfg)
	return s
}

// waitForReady polls /readyz until the server accepts traffic.
func waitForReady(t *testing.T, cfg *config.Config) {
	t.Helper()

	url := fmt.Sprintf("http://127.0.0.1:%d/readyz", cfg.Server.HealthPort)
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("server did not become ready in time")
}

// dialRuntime connects a Runtime client to the test server.
func dialRuntime(t *testing.T, cfg *config.Config) omnia.RuntimeClient {
	t.Helper()

	conn, err := grpc.NewClient(
		fmt.Sprintf("127.0.0.1:%d", cfg.Server.GRPCPort),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return omnia.NewRuntimeClient(conn)
}

// sendTurn sends one UserTurn frame on the stream.
func sendTurn(t *testing.T, stream omnia.Runtime_ConverseClient, sessionID, content string) {
	t.Helper()

	err := stream.Send(&omnia.ClientMessage{
		Msg: &omnia.ClientMessage_Turn{
			Turn: &omnia.UserTurn{SessionId: sessionID, Content: content},
		},
	})
	if err != nil {
		t.Fatalf("Send() turn failed: %v", err)
	}
}

// collectTurnFrames receives frames until the turn's terminal Done or Error.
func collectTurnFrames(t *testing.T, stream omnia.Runtime_ConverseClient) []*omnia.ServerMessage {
	t.Helper()

	var frames []*omnia.ServerMessage
	for {
		msg, err := stream.Recv()
		if err != nil {
			t.Fatalf("Recv() failed: %v", err)
		}
		frames = append(frames, msg)
		if msg.GetDone() != nil || msg.GetError() != nil {
			return frames
		}
	}
}

func TestServerNew(t *testing.T) {
	cfg := testConfig(t)

	s, err := New(cfg, testLogger())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer s.closeComponents()

	if s.store == nil {
		t.Error("store should not be nil")
	}
	if s.engine == nil {
		t.Error("engine should not be nil")
	}
	if s.engine != nil && s.engine.Provider() != "mock" {
		t.Errorf("provider = %q, want mock", s.engine.Provider())
	}
	if s.orch == nil {
		t.Error("orchestrator should not be nil")
	}
	if s.grpcServer == nil {
		t.Error("grpcServer should not be nil")
	}
	if s.sweeper != nil {
		t.Error("memory backend should not schedule a sqlite sweep")
	}
}

func TestServerNew_SQLiteSweeper(t *testing.T) {
	cfg := testConfig(t)
	cfg.Session.Backend = "sqlite"
	cfg.Session.SQLitePath = filepath.Join(t.TempDir(), "sessions.db")

	s, err := New(cfg, testLogger())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer s.closeComponents()

	if s.sweeper == nil {
		t.Error("sqlite backend should schedule a sweep")
	}
}

func TestServerRunAndShutdown(t *testing.T) {
	cfg := testConfig(t)

	s, err := New(cfg, testLogger())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Run(ctx)
	}()

	waitForReady(t, cfg)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run() returned unexpected error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Error("server did not shut down in time")
	}
}

func TestHealthzEndpoint(t *testing.T) {
	cfg := testConfig(t)
	startTestServer(t, cfg)

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/healthz", cfg.Server.HealthPort))
	if err != nil {
		t.Fatalf("healthz request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	cfg := testConfig(t)
	startTestServer(t, cfg)

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/metrics", cfg.Server.HealthPort))
	if err != nil {
		t.Fatalf("metrics request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("metrics status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading metrics body failed: %v", err)
	}
	if !strings.Contains(string(body), "active_streams") {
		t.Error("metrics body should expose the active_streams gauge")
	}
}

func TestHealthRPC(t *testing.T) {
	cfg := testConfig(t)
	startTestServer(t, cfg)
	client := dialRuntime(t, cfg)

	resp, err := client.Health(t.Context(), &omnia.HealthRequest{})
	if err != nil {
		t.Fatalf("Health() failed: %v", err)
	}
	if !resp.GetHealthy() {
		t.Error("running server should report healthy")
	}
	if resp.GetStatus() != "serving" {
		t.Errorf("status = %q, want serving", resp.GetStatus())
	}
}

func TestHealthRPC_BeforeRun(t *testing.T) {
	cfg := testConfig(t)

	s, err := New(cfg, testLogger())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer s.closeComponents()

	svc := &runtimeService{server: s, logger: testLogger()}
	resp, err := svc.Health(context.Background(), &omnia.HealthRequest{})
	if err != nil {
		t.Fatalf("Health() failed: %v", err)
	}
	if resp.GetHealthy() {
		t.Error("server should not report healthy before Run")
	}
	if resp.GetStatus() != "initializing" {
		t.Errorf("status = %q, want initializing", resp.GetStatus())
	}

	s.draining.Store(true)
	resp, err = svc.Health(context.Background(), &omnia.HealthRequest{})
	if err != nil {
		t.Fatalf("Health() failed: %v", err)
	}
	if resp.GetStatus() != "draining" {
		t.Errorf("status = %q, want draining", resp.GetStatus())
	}
}

func TestConverseRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	s := startTestServer(t, cfg)
	client := dialRuntime(t, cfg)

	stream, err := client.Converse(t.Context())
	if err != nil {
		t.Fatalf("Converse() failed: %v", err)
	}

	sendTurn(t, stream, "s1", "hello")
	frames := collectTurnFrames(t, stream)

	var text strings.Builder
	for _, f := range frames[:len(frames)-1] {
		chunk := f.GetChunk()
		if chunk == nil {
			t.Fatalf("expected Chunk frame, got %+v", f)
		}
		text.WriteString(chunk.GetContent())
	}

	done := frames[len(frames)-1].GetDone()
	if done == nil {
		t.Fatalf("expected Done frame, got %+v", frames[len(frames)-1])
	}
	if done.GetFinalContent() != "You said: hello" {
		t.Errorf("final content = %q, want %q", done.GetFinalContent(), "You said: hello")
	}
	if text.String() != done.GetFinalContent() {
		t.Errorf("chunks %q do not assemble into final content %q", text.String(), done.GetFinalContent())
	}
	if done.GetUsage().GetOutputTokens() == 0 {
		t.Error("usage should carry output tokens")
	}

	// A second turn reuses the same stream and session.
	sendTurn(t, stream, "s1", "again")
	frames = collectTurnFrames(t, stream)
	done = frames[len(frames)-1].GetDone()
	if done == nil {
		t.Fatal("expected Done frame for second turn")
	}
	if done.GetFinalContent() != "You said: again" {
		t.Errorf("final content = %q, want %q", done.GetFinalContent(), "You said: again")
	}

	// Both exchanges persisted in order.
	turns, err := s.store.Get(context.Background(), "s1")
	if err != nil {
		t.Fatalf("store Get failed: %v", err)
	}
	if len(turns) != 4 {
		t.Fatalf("persisted turns = %d, want 4", len(turns))
	}
	if turns[0].Content != "hello" || turns[3].Content != "You said: again" {
		t.Errorf("unexpected persisted order: %q ... %q", turns[0].Content, turns[3].Content)
	}

	if err := stream.CloseSend(); err != nil {
		t.Fatalf("CloseSend() failed: %v", err)
	}
	if _, err := stream.Recv(); err != io.EOF {
		t.Errorf("expected clean EOF after half-close, got %v", err)
	}
}

func TestConverseValidationError(t *testing.T) {
	cfg := testConfig(t)
	startTestServer(t, cfg)
	client := dialRuntime(t, cfg)

	stream, err := client.Converse(t.Context())
	if err != nil {
		t.Fatalf("Converse() failed: %v", err)
	}

	sendTurn(t, stream, "", "no session")
	frames := collectTurnFrames(t, stream)

	if len(frames) != 1 {
		t.Fatalf("expected a lone Error frame, got %d frames", len(frames))
	}
	errFrame := frames[0].GetError()
	if errFrame == nil {
		t.Fatalf("expected Error frame, got %+v", frames[0])
	}
	if errFrame.GetCode() != "VALIDATION_ERROR" {
		t.Errorf("code = %q, want VALIDATION_ERROR", errFrame.GetCode())
	}

	// The stream survives a validation failure.
	sendTurn(t, stream, "s1", "still here")
	frames = collectTurnFrames(t, stream)
	if frames[len(frames)-1].GetDone() == nil {
		t.Error("expected Done frame after recovering from validation error")
	}
}

const toolMockScript = `rules:
  - match: forecast
    content: "Checking the forecast. "
    tool_calls:
      - name: get_forecast
        arguments: '{"location": "Lisbon"}'
    final_content: Sunny with light wind.
    usage:
      input_tokens: 40
      output_tokens: 12
`

const toolCatalog = `handlers:
  - name: forecaster
    type: http
    endpoint: http://127.0.0.1:9/forecast
    timeout: 5s
    tool:
      name: get_forecast
      description: Weather forecast for a location
      inputSchema:
        type: object
        properties:
          location:
            type: string
        required: [location]
`

func TestConverseToolRoundTrip(t *testing.T) {
	dir := t.TempDir()
	mockPath := filepath.Join(dir, "mock.yaml")
	catalogPath := filepath.Join(dir, "tools.yaml")
	if err := os.WriteFile(mockPath, []byte(toolMockScript), 0o644); err != nil {
		t.Fatalf("writing mock script failed: %v", err)
	}
	if err := os.WriteFile(catalogPath, []byte(toolCatalog), 0o644); err != nil {
		t.Fatalf("writing catalog failed: %v", err)
	}

	cfg := testConfig(t)
	cfg.Engine.MockConfig = mockPath
	cfg.Tools.Path = catalogPath

	startTestServer(t, cfg)
	client := dialRuntime(t, cfg)

	stream, err := client.Converse(t.Context())
	if err != nil {
		t.Fatalf("Converse() failed: %v", err)
	}
	sendTurn(t, stream, "s-tools", "what is the forecast?")

	// First round streams text, then requests the tool.
	msg, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv() failed: %v", err)
	}
	if msg.GetChunk().GetContent() != "Checking the forecast. " {
		t.Fatalf("expected leading chunk, got %+v", msg)
	}

	msg, err = stream.Recv()
	if err != nil {
		t.Fatalf("Recv() failed: %v", err)
	}
	call := msg.GetToolCall()
	if call == nil {
		t.Fatalf("expected ToolCall frame, got %+v", msg)
	}
	if call.GetName() != "get_forecast" {
		t.Errorf("tool name = %q, want get_forecast", call.GetName())
	}
	if !strings.Contains(call.GetArguments(), "Lisbon") {
		t.Errorf("arguments = %q, want location Lisbon", call.GetArguments())
	}

	// The client executes the tool and reports back.
	err = stream.Send(&omnia.ClientMessage{
		Msg: &omnia.ClientMessage_ToolResult{
			ToolResult: &omnia.ToolResult{Id: call.GetId(), Result: "18C and clear"},
		},
	})
	if err != nil {
		t.Fatalf("Send() tool result failed: %v", err)
	}

	frames := collectTurnFrames(t, stream)
	done := frames[len(frames)-1].GetDone()
	if done == nil {
		t.Fatalf("expected Done frame, got %+v", frames[len(frames)-1])
	}
	if done.GetFinalContent() != "Sunny with light wind." {
		t.Errorf("final content = %q, want %q", done.GetFinalContent(), "Sunny with light wind.")
	}

	// Usage spans both rounds of the turn.
	if done.GetUsage().GetInputTokens() != 80 || done.GetUsage().GetOutputTokens() != 24 {
		t.Errorf("usage = %d/%d, want 80/24",
			done.GetUsage().GetInputTokens(), done.GetUsage().GetOutputTokens())
	}
}

func TestConverseAuth(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.TokenSecret = "0123456789abcdef0123456789abcdef"

	startTestServer(t, cfg)
	client := dialRuntime(t, cfg)

	// Health stays open without credentials.
	resp, err := client.Health(t.Context(), &omnia.HealthRequest{})
	if err != nil {
		t.Fatalf("Health() without token failed: %v", err)
	}
	if !resp.GetHealthy() {
		t.Error("Health should succeed without credentials")
	}

	// Converse without a token is rejected before any turn runs.
	stream, err := client.Converse(t.Context())
	if err != nil {
		t.Fatalf("Converse() failed: %v", err)
	}
	_, err = stream.Recv()
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("expected Unauthenticated, got %v", err)
	}

	// A minted token opens the stream.
	token, err := auth.NewJWTVerifier([]byte(cfg.Auth.TokenSecret)).Generate("probe", time.Hour)
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	ctx := metadata.AppendToOutgoingContext(t.Context(), "authorization", "Bearer "+token)
	stream, err = client.Converse(ctx)
	if err != nil {
		t.Fatalf("Converse() with token failed: %v", err)
	}
	sendTurn(t, stream, "s1", "hello")
	frames := collectTurnFrames(t, stream)
	if frames[len(frames)-1].GetDone() == nil {
		t.Error("expected Done frame on authenticated stream")
	}
}
