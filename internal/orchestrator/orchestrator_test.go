// ABOUTME: Tests for the conversation state machine using a scripted engine
// ABOUTME: and an in-memory channel covering turns, tools, timeouts, failures

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AltairaLabs/omnia-runtime/internal/engine"
	"github.com/AltairaLabs/omnia-runtime/internal/session"
	"github.com/AltairaLabs/omnia-runtime/internal/tools"
	"github.com/AltairaLabs/omnia-runtime/proto/omnia"
)

// fakeRound scripts one engine round trip.
type fakeRound struct {
	invokeErr error // returned from Invoke/Resume itself
	failure   error // round emits EventFailure
	stall     bool  // round emits nothing until the context ends
	deltas    []string
	calls     []engine.ToolCall
	final     *engine.Final
}

// fakeEngine plays scripted rounds in order and records what it was given.
type fakeEngine struct {
	mu      sync.Mutex
	rounds  []fakeRound
	reqs    []engine.Request
	resumes [][]engine.ToolOutcome
}

func (e *fakeEngine) Provider() string { return "fake" }

func (e *fakeEngine) Invoke(ctx context.Context, req engine.Request) (*engine.Stream, error) {
	e.mu.Lock()
	e.reqs = append(e.reqs, req)
	round := e.next()
	e.mu.Unlock()
	return e.play(ctx, round)
}

func (e *fakeEngine) Resume(ctx context.Context, _ *engine.Continuation, outcomes []engine.ToolOutcome) (*engine.Stream, error) {
	e.mu.Lock()
	e.resumes = append(e.resumes, outcomes)
	round := e.next()
	e.mu.Unlock()
	return e.play(ctx, round)
}

func (e *fakeEngine) next() fakeRound {
	if len(e.rounds) == 0 {
		return fakeRound{final: &engine.Final{Content: "out of script"}}
	}
	round := e.rounds[0]
	e.rounds = e.rounds[1:]
	return round
}

func (e *fakeEngine) play(ctx context.Context, round fakeRound) (*engine.Stream, error) {
	if round.invokeErr != nil {
		return nil, round.invokeErr
	}

	s := engine.NewStream()
	go func() {
		defer s.Close()
		if round.stall {
			<-ctx.Done()
			return
		}
		if round.failure != nil {
			s.Emit(ctx, engine.Event{Kind: engine.EventFailure, Err: round.failure})
			return
		}
		for _, delta := range round.deltas {
			if !s.Emit(ctx, engine.Event{Kind: engine.EventDelta, Delta: delta}) {
				return
			}
		}
		if len(round.calls) > 0 {
			s.Emit(ctx, engine.Event{
				Kind:         engine.EventToolCalls,
				Calls:        round.calls,
				Continuation: &engine.Continuation{},
			})
			return
		}
		final := round.final
		if final == nil {
			final = &engine.Final{Content: strings.Join(round.deltas, "")}
		}
		s.Emit(ctx, engine.Event{Kind: engine.EventFinal, Final: final})
	}()
	return s, nil
}

func (e *fakeEngine) requests() []engine.Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]engine.Request, len(e.reqs))
	copy(out, e.reqs)
	return out
}

func (e *fakeEngine) resumedWith() [][]engine.ToolOutcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]engine.ToolOutcome, len(e.resumes))
	copy(out, e.resumes)
	return out
}

// fakeChannel is an in-memory duplex frame transport.
type fakeChannel struct {
	in        chan *omnia.ClientMessage
	toolCalls chan *omnia.ToolCall

	mu      sync.Mutex
	sent    []*omnia.ServerMessage
	sendErr error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		in:        make(chan *omnia.ClientMessage, 64),
		toolCalls: make(chan *omnia.ToolCall, 64),
	}
}

func (c *fakeChannel) Recv() (*omnia.ClientMessage, error) {
	msg, ok := <-c.in
	if !ok {
		return nil, io.EOF
	}
	return msg, nil
}

func (c *fakeChannel) Send(msg *omnia.ServerMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, msg)
	if tc := msg.GetToolCall(); tc != nil {
		c.toolCalls <- tc
	}
	return nil
}

func (c *fakeChannel) frames() []*omnia.ServerMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*omnia.ServerMessage, len(c.sent))
	copy(out, c.sent)
	return out
}

func (c *fakeChannel) turn(sessionID, content string) {
	c.in <- &omnia.ClientMessage{Msg: &omnia.ClientMessage_Turn{Turn: &omnia.UserTurn{
		SessionId: sessionID,
		Content:   content,
	}}}
}

func (c *fakeChannel) result(id, result string, isError bool) {
	c.in <- &omnia.ClientMessage{Msg: &omnia.ClientMessage_ToolResult{ToolResult: &omnia.ToolResult{
		Id:      id,
		Result:  result,
		IsError: isError,
	}}}
}

func (c *fakeChannel) failSends(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendErr = err
}

func (c *fakeChannel) close() { close(c.in) }

func newTestOrchestrator(t *testing.T, opts Options) *Orchestrator {
	t.Helper()
	if opts.Store == nil {
		opts.Store = session.NewMemoryStore(time.Hour, 100, time.Hour)
	}
	t.Cleanup(func() { opts.Store.Close() })
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.GenerationTimeout == 0 {
		opts.GenerationTimeout = 5 * time.Second
	}
	if opts.ToolTimeout == 0 {
		opts.ToolTimeout = time.Second
	}
	return New(opts)
}

func startStream(t *testing.T, o *Orchestrator) (*fakeChannel, <-chan error) {
	t.Helper()
	ch := newFakeChannel()
	errc := make(chan error, 1)
	go func() { errc <- o.Run(context.Background(), ch) }()
	return ch, errc
}

func waitClosed(t *testing.T, errc <-chan error) error {
	t.Helper()
	select {
	case err := <-errc:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not close in time")
		return nil
	}
}

func awaitFrames(t *testing.T, ch *fakeChannel, n int) []*omnia.ServerMessage {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		frames := ch.frames()
		if len(frames) >= n {
			return frames
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d frames, have %d", n, len(ch.frames()))
	return nil
}

func awaitToolCall(t *testing.T, ch *fakeChannel) *omnia.ToolCall {
	t.Helper()
	select {
	case tc := <-ch.toolCalls:
		return tc
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a tool call frame")
		return nil
	}
}

const testCatalog = `handlers:
  - name: weather
    type: http
    endpoint: http://127.0.0.1:9/weather
    timeout: 1s
    tool:
      name: get_weather
      description: Current weather for a location
      inputSchema:
        type: object
        properties:
          location:
            type: string
        required: [location]
  - name: clock
    type: http
    endpoint: http://127.0.0.1:9/clock
    tool:
      name: get_time
      description: Current time
`

func loadTestCatalog(t *testing.T) *tools.Catalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tools.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0o644))
	catalog, err := tools.Load(path)
	require.NoError(t, err)
	return catalog
}

func TestRunStreamsTurnToDone(t *testing.T) {
	store := session.NewMemoryStore(time.Hour, 100, time.Hour)
	eng := &fakeEngine{rounds: []fakeRound{{
		deltas: []string{"Hel", "lo"},
		final:  &engine.Final{Content: "Hello", Usage: engine.Usage{InputTokens: 12, OutputTokens: 4, CostUSD: 0.001}},
	}}}
	o := newTestOrchestrator(t, Options{Engine: eng, Store: store})

	ch, errc := startStream(t, o)
	ch.turn("s1", "hi")

	frames := awaitFrames(t, ch, 3)
	ch.close()
	require.NoError(t, waitClosed(t, errc))

	assert.Equal(t, "Hel", frames[0].GetChunk().GetContent())
	assert.Equal(t, "lo", frames[1].GetChunk().GetContent())

	done := frames[2].GetDone()
	require.NotNil(t, done)
	assert.Equal(t, "Hello", done.GetFinalContent())
	assert.Equal(t, int64(12), done.GetUsage().GetInputTokens())
	assert.Equal(t, int64(4), done.GetUsage().GetOutputTokens())
	assert.InDelta(t, 0.001, done.GetUsage().GetCostUsd(), 1e-9)

	history, err := store.Get(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, session.RoleUser, history[0].Role)
	assert.Equal(t, "hi", history[0].Content)
	assert.Equal(t, session.RoleAssistant, history[1].Role)
	assert.Equal(t, "Hello", history[1].Content)
	require.NotNil(t, history[1].Usage)
	assert.Equal(t, int64(12), history[1].Usage.InputTokens)
	assert.Equal(t, int64(4), history[1].Usage.OutputTokens)
}

func TestRunToolRoundTrip(t *testing.T) {
	eng := &fakeEngine{rounds: []fakeRound{
		{
			deltas: []string{"Let me check."},
			calls:  []engine.ToolCall{{ID: "call-1", Name: "get_weather", Arguments: `{"location":"Berlin"}`}},
		},
		{
			deltas: []string{"It is sunny."},
			final:  &engine.Final{Content: "It is sunny.", Usage: engine.Usage{InputTokens: 30, OutputTokens: 12}},
		},
	}}
	o := newTestOrchestrator(t, Options{Engine: eng, Catalog: loadTestCatalog(t)})

	ch, errc := startStream(t, o)
	ch.turn("s1", "weather in berlin?")

	tc := awaitToolCall(t, ch)
	assert.Equal(t, "get_weather", tc.GetName())
	assert.JSONEq(t, `{"location":"Berlin"}`, tc.GetArguments())
	require.NotEmpty(t, tc.GetId())

	ch.result(tc.GetId(), `{"temp":"21C"}`, false)

	frames := awaitFrames(t, ch, 4)
	ch.close()
	require.NoError(t, waitClosed(t, errc))

	require.NotNil(t, frames[0].GetChunk())
	require.NotNil(t, frames[1].GetToolCall())
	require.NotNil(t, frames[2].GetChunk())
	require.NotNil(t, frames[3].GetDone())
	assert.Equal(t, "It is sunny.", frames[3].GetDone().GetFinalContent())

	resumes := eng.resumedWith()
	require.Len(t, resumes, 1)
	require.Len(t, resumes[0], 1)
	assert.Equal(t, "call-1", resumes[0][0].CallID)
	assert.Equal(t, `{"temp":"21C"}`, resumes[0][0].Result)
	assert.False(t, resumes[0][0].IsError)
}

func TestRunValidationKeepsChannelUsable(t *testing.T) {
	eng := &fakeEngine{rounds: []fakeRound{{deltas: []string{"ok"}, final: &engine.Final{Content: "ok"}}}}
	o := newTestOrchestrator(t, Options{Engine: eng})

	ch, errc := startStream(t, o)
	ch.turn("", "hi")
	ch.turn("s1", "")
	ch.turn("s1", "hi")

	frames := awaitFrames(t, ch, 4)
	ch.close()
	require.NoError(t, waitClosed(t, errc))

	for _, f := range frames[:2] {
		require.NotNil(t, f.GetError())
		assert.Equal(t, CodeValidationError, f.GetError().GetCode())
	}
	require.NotNil(t, frames[3].GetDone())

	// invalid turns never reach the engine
	assert.Len(t, eng.requests(), 1)
}

func TestRunUnknownToolResult(t *testing.T) {
	eng := &fakeEngine{rounds: []fakeRound{{final: &engine.Final{Content: "fine"}}}}
	o := newTestOrchestrator(t, Options{Engine: eng})

	ch, errc := startStream(t, o)
	ch.result("ghost", "{}", false)

	frames := awaitFrames(t, ch, 1)
	require.NotNil(t, frames[0].GetError())
	assert.Equal(t, CodeCorrelationError, frames[0].GetError().GetCode())

	// the channel stays usable
	ch.turn("s1", "hi")
	frames = awaitFrames(t, ch, 2)
	require.NotNil(t, frames[1].GetDone())

	ch.close()
	require.NoError(t, waitClosed(t, errc))
}

func TestRunRepeatedViolationsCloseChannel(t *testing.T) {
	o := newTestOrchestrator(t, Options{Engine: &fakeEngine{}})

	ch, errc := startStream(t, o)
	for i := 0; i < violationLimit; i++ {
		ch.result(fmt.Sprintf("ghost-%d", i), "{}", false)
	}

	require.Error(t, waitClosed(t, errc))

	frames := ch.frames()
	require.Len(t, frames, violationLimit)
	for _, f := range frames[:violationLimit-1] {
		assert.Equal(t, CodeCorrelationError, f.GetError().GetCode())
	}
	assert.Equal(t, CodeProtocolError, frames[violationLimit-1].GetError().GetCode())
}

// failingStore wraps a real store and fails writes on demand.
type failingStore struct {
	session.Store

	mu        sync.Mutex
	appendErr error
}

func (s *failingStore) Append(ctx context.Context, sessionID string, turns ...session.Turn) error {
	s.mu.Lock()
	err := s.appendErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.Store.Append(ctx, sessionID, turns...)
}

func (s *failingStore) heal() {
	s.mu.Lock()
	s.appendErr = nil
	s.mu.Unlock()
}

func TestRunStoreFailureAfterFinal(t *testing.T) {
	mem := session.NewMemoryStore(time.Hour, 100, time.Hour)
	eng := &fakeEngine{rounds: []fakeRound{
		{deltas: []string{"oops"}, final: &engine.Final{Content: "oops"}},
		{deltas: []string{"oops"}, final: &engine.Final{Content: "oops"}},
	}}
	store := &failingStore{Store: mem, appendErr: errors.New("disk full")}
	o := newTestOrchestrator(t, Options{Engine: eng, Store: store})

	ch, errc := startStream(t, o)
	ch.turn("s1", "hi")

	frames := awaitFrames(t, ch, 2)
	require.NotNil(t, frames[0].GetChunk())
	require.NotNil(t, frames[1].GetError())
	assert.Equal(t, CodeSessionStoreError, frames[1].GetError().GetCode())
	for _, f := range frames {
		assert.Nil(t, f.GetDone())
	}

	history, err := mem.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, history)

	// the client retries the same turn once the backend recovers; exactly
	// one turn pair lands
	store.heal()
	ch.turn("s1", "hi")

	frames = awaitFrames(t, ch, 4)
	ch.close()
	require.NoError(t, waitClosed(t, errc))
	require.NotNil(t, frames[3].GetDone())

	history, err = mem.Get(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "hi", history[0].Content)
	assert.Equal(t, "oops", history[1].Content)
}

func TestRunGenerationTimeout(t *testing.T) {
	store := session.NewMemoryStore(time.Hour, 100, time.Hour)
	eng := &fakeEngine{rounds: []fakeRound{{stall: true}}}
	o := newTestOrchestrator(t, Options{
		Engine:            eng,
		Store:             store,
		GenerationTimeout: 50 * time.Millisecond,
	})

	ch, errc := startStream(t, o)
	ch.turn("s1", "hi")

	frames := awaitFrames(t, ch, 1)
	require.NotNil(t, frames[0].GetError())
	assert.Equal(t, CodeGenerationTimeout, frames[0].GetError().GetCode())

	history, err := store.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, history)

	ch.close()
	require.NoError(t, waitClosed(t, errc))
}

func TestRunGenerationTimeoutDuringToolWait(t *testing.T) {
	eng := &fakeEngine{rounds: []fakeRound{{
		calls: []engine.ToolCall{{ID: "c1", Name: "get_time", Arguments: "{}"}},
	}}}
	o := newTestOrchestrator(t, Options{
		Engine:            eng,
		Catalog:           loadTestCatalog(t),
		GenerationTimeout: 80 * time.Millisecond,
		ToolTimeout:       5 * time.Second,
	})

	ch, errc := startStream(t, o)
	ch.turn("s1", "time?")

	awaitToolCall(t, ch)
	frames := awaitFrames(t, ch, 2)
	require.NotNil(t, frames[1].GetError())
	assert.Equal(t, CodeGenerationTimeout, frames[1].GetError().GetCode())

	ch.close()
	require.NoError(t, waitClosed(t, errc))
}

func TestRunToolTimeoutFeedsEngineAnError(t *testing.T) {
	eng := &fakeEngine{rounds: []fakeRound{
		{calls: []engine.ToolCall{{ID: "c1", Name: "get_time", Arguments: "{}"}}},
		{final: &engine.Final{Content: "no clock today"}},
	}}
	o := newTestOrchestrator(t, Options{
		Engine:      eng,
		Catalog:     loadTestCatalog(t),
		ToolTimeout: 50 * time.Millisecond,
	})

	ch, errc := startStream(t, o)
	ch.turn("s1", "time?")

	frames := awaitFrames(t, ch, 2)
	require.NotNil(t, frames[0].GetToolCall())
	require.NotNil(t, frames[1].GetDone())

	resumes := eng.resumedWith()
	require.Len(t, resumes, 1)
	require.Len(t, resumes[0], 1)
	assert.Equal(t, "c1", resumes[0][0].CallID)
	assert.True(t, resumes[0][0].IsError)
	assert.Contains(t, resumes[0][0].Result, "timed out")

	ch.close()
	require.NoError(t, waitClosed(t, errc))
}

func TestRunEngineFailure(t *testing.T) {
	store := session.NewMemoryStore(time.Hour, 100, time.Hour)
	eng := &fakeEngine{rounds: []fakeRound{{failure: errors.New("upstream exploded")}}}
	o := newTestOrchestrator(t, Options{Engine: eng, Store: store})

	ch, errc := startStream(t, o)
	ch.turn("s1", "hi")

	frames := awaitFrames(t, ch, 1)
	require.NotNil(t, frames[0].GetError())
	assert.Equal(t, CodeEngineFailure, frames[0].GetError().GetCode())
	assert.Contains(t, frames[0].GetError().GetMessage(), "upstream exploded")

	history, err := store.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, history)

	ch.close()
	require.NoError(t, waitClosed(t, errc))
}

func TestRunInvokeError(t *testing.T) {
	eng := &fakeEngine{rounds: []fakeRound{{invokeErr: errors.New("bad credentials")}}}
	o := newTestOrchestrator(t, Options{Engine: eng})

	ch, errc := startStream(t, o)
	ch.turn("s1", "hi")

	frames := awaitFrames(t, ch, 1)
	require.NotNil(t, frames[0].GetError())
	assert.Equal(t, CodeEngineFailure, frames[0].GetError().GetCode())

	ch.close()
	require.NoError(t, waitClosed(t, errc))
}

func TestRunToolRoundLimit(t *testing.T) {
	call := engine.ToolCall{ID: "c", Name: "get_time", Arguments: "{}"}
	eng := &fakeEngine{rounds: []fakeRound{
		{calls: []engine.ToolCall{call}},
		{calls: []engine.ToolCall{call}},
		{calls: []engine.ToolCall{call}},
	}}
	o := newTestOrchestrator(t, Options{
		Engine:        eng,
		Catalog:       loadTestCatalog(t),
		MaxToolRounds: 2,
	})

	ch, errc := startStream(t, o)
	ch.turn("s1", "loop forever")

	for i := 0; i < 2; i++ {
		tc := awaitToolCall(t, ch)
		ch.result(tc.GetId(), "12:00", false)
	}

	frames := awaitFrames(t, ch, 3)
	ch.close()
	require.NoError(t, waitClosed(t, errc))

	last := frames[len(frames)-1].GetError()
	require.NotNil(t, last)
	assert.Equal(t, CodeEngineFailure, last.GetCode())
	assert.Contains(t, last.GetMessage(), "tool rounds")
}

func TestRunRejectedArgumentsNeverDispatch(t *testing.T) {
	eng := &fakeEngine{rounds: []fakeRound{
		{calls: []engine.ToolCall{{ID: "c1", Name: "get_weather", Arguments: `{"wrong":"shape"}`}}},
		{final: &engine.Final{Content: "cannot check"}},
	}}
	o := newTestOrchestrator(t, Options{Engine: eng, Catalog: loadTestCatalog(t)})

	ch, errc := startStream(t, o)
	ch.turn("s1", "weather?")

	frames := awaitFrames(t, ch, 1)
	ch.close()
	require.NoError(t, waitClosed(t, errc))

	require.NotNil(t, frames[0].GetDone())
	for _, f := range ch.frames() {
		assert.Nil(t, f.GetToolCall())
	}

	resumes := eng.resumedWith()
	require.Len(t, resumes, 1)
	require.Len(t, resumes[0], 1)
	assert.Equal(t, "c1", resumes[0][0].CallID)
	assert.True(t, resumes[0][0].IsError)
	assert.Contains(t, resumes[0][0].Result, "rejected")
}

func TestRunUnknownToolName(t *testing.T) {
	eng := &fakeEngine{rounds: []fakeRound{
		{calls: []engine.ToolCall{{ID: "c1", Name: "launch_rockets", Arguments: "{}"}}},
		{final: &engine.Final{Content: "no such tool"}},
	}}
	o := newTestOrchestrator(t, Options{Engine: eng, Catalog: loadTestCatalog(t)})

	ch, errc := startStream(t, o)
	ch.turn("s1", "do it")

	frames := awaitFrames(t, ch, 1)
	ch.close()
	require.NoError(t, waitClosed(t, errc))

	require.NotNil(t, frames[0].GetDone())

	resumes := eng.resumedWith()
	require.Len(t, resumes, 1)
	assert.True(t, resumes[0][0].IsError)
	assert.Contains(t, resumes[0][0].Result, "not in the catalog")
}

func TestRunMultipleCallsResolvedOutOfOrder(t *testing.T) {
	eng := &fakeEngine{rounds: []fakeRound{
		{calls: []engine.ToolCall{
			{ID: "c-weather", Name: "get_weather", Arguments: `{"location":"Oslo"}`},
			{ID: "c-time", Name: "get_time", Arguments: "{}"},
		}},
		{final: &engine.Final{Content: "both done"}},
	}}
	o := newTestOrchestrator(t, Options{Engine: eng, Catalog: loadTestCatalog(t)})

	ch, errc := startStream(t, o)
	ch.turn("s1", "weather and time")

	first := awaitToolCall(t, ch)
	second := awaitToolCall(t, ch)
	assert.Equal(t, "get_weather", first.GetName())
	assert.Equal(t, "get_time", second.GetName())

	// resolve in reverse order; outcomes still follow request order
	ch.result(second.GetId(), "14:00", false)
	ch.result(first.GetId(), "rainy", false)

	frames := awaitFrames(t, ch, 3)
	ch.close()
	require.NoError(t, waitClosed(t, errc))
	require.NotNil(t, frames[2].GetDone())

	resumes := eng.resumedWith()
	require.Len(t, resumes, 1)
	require.Len(t, resumes[0], 2)
	assert.Equal(t, "c-weather", resumes[0][0].CallID)
	assert.Equal(t, "rainy", resumes[0][0].Result)
	assert.Equal(t, "c-time", resumes[0][1].CallID)
	assert.Equal(t, "14:00", resumes[0][1].Result)
}

func TestRunClientCancelStaysSilent(t *testing.T) {
	store := session.NewMemoryStore(time.Hour, 100, time.Hour)
	eng := &fakeEngine{rounds: []fakeRound{{stall: true}}}
	o := newTestOrchestrator(t, Options{Engine: eng, Store: store})

	ctx, cancel := context.WithCancel(context.Background())
	ch := newFakeChannel()
	errc := make(chan error, 1)
	go func() { errc <- o.Run(ctx, ch) }()

	ch.turn("s1", "hi")
	require.Eventually(t, func() bool { return len(eng.requests()) == 1 }, 5*time.Second, 2*time.Millisecond)
	cancel()

	err := waitClosed(t, errc)
	require.ErrorIs(t, err, context.Canceled)

	assert.Empty(t, ch.frames())
	history, getErr := store.Get(context.Background(), "s1")
	require.NoError(t, getErr)
	assert.Empty(t, history)

	ch.close()
}

func TestRunBrokenTransportAbortsTurnQuietly(t *testing.T) {
	store := session.NewMemoryStore(time.Hour, 100, time.Hour)
	eng := &fakeEngine{rounds: []fakeRound{{deltas: []string{"x"}, final: &engine.Final{Content: "x"}}}}
	o := newTestOrchestrator(t, Options{Engine: eng, Store: store})

	ch, errc := startStream(t, o)
	ch.failSends(errors.New("wire broke"))
	ch.turn("s1", "hi")

	require.Eventually(t, func() bool { return len(eng.requests()) == 1 }, 5*time.Second, 2*time.Millisecond)
	ch.close()
	require.NoError(t, waitClosed(t, errc))

	assert.Empty(t, ch.frames())
	history, err := store.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRunHalfCloseProcessesQueuedTurn(t *testing.T) {
	eng := &fakeEngine{rounds: []fakeRound{{final: &engine.Final{Content: "bye"}}}}
	o := newTestOrchestrator(t, Options{Engine: eng})

	ch := newFakeChannel()
	ch.turn("s1", "hi")
	ch.close()

	errc := make(chan error, 1)
	go func() { errc <- o.Run(context.Background(), ch) }()
	require.NoError(t, waitClosed(t, errc))

	frames := ch.frames()
	require.NotEmpty(t, frames)
	assert.Equal(t, "bye", frames[len(frames)-1].GetDone().GetFinalContent())
}

func TestRunQueuedTurnsProcessInOrder(t *testing.T) {
	eng := &fakeEngine{rounds: []fakeRound{
		{final: &engine.Final{Content: "one"}},
		{final: &engine.Final{Content: "two"}},
	}}
	store := session.NewMemoryStore(time.Hour, 100, time.Hour)
	o := newTestOrchestrator(t, Options{Engine: eng, Store: store})

	ch, errc := startStream(t, o)
	ch.turn("s1", "first")
	ch.turn("s1", "second")

	frames := awaitFrames(t, ch, 2)
	ch.close()
	require.NoError(t, waitClosed(t, errc))

	assert.Equal(t, "one", frames[0].GetDone().GetFinalContent())
	assert.Equal(t, "two", frames[1].GetDone().GetFinalContent())

	history, err := store.Get(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, "first", history[0].Content)
	assert.Equal(t, "one", history[1].Content)
	assert.Equal(t, "second", history[2].Content)
	assert.Equal(t, "two", history[3].Content)
}

func TestRunSendsHistoryAndSystemPrompt(t *testing.T) {
	store := session.NewMemoryStore(time.Hour, 100, time.Hour)
	seed := []session.Turn{
		{ID: "t1", Role: session.RoleUser, Content: "earlier question", CreatedAt: time.Now().UTC()},
		{ID: "t2", Role: session.RoleAssistant, Content: "earlier answer", CreatedAt: time.Now().UTC()},
	}
	require.NoError(t, store.Append(context.Background(), "s1", seed...))

	eng := &fakeEngine{rounds: []fakeRound{{final: &engine.Final{Content: "now"}}}}
	o := newTestOrchestrator(t, Options{Engine: eng, Store: store, SystemPrompt: "be kind"})

	ch, errc := startStream(t, o)
	ch.turn("s1", "again")

	awaitFrames(t, ch, 1)
	ch.close()
	require.NoError(t, waitClosed(t, errc))

	reqs := eng.requests()
	require.Len(t, reqs, 1)
	require.Len(t, reqs[0].History, 2)
	assert.Equal(t, "user", reqs[0].History[0].Role)
	assert.Equal(t, "earlier question", reqs[0].History[0].Content)
	assert.Equal(t, "assistant", reqs[0].History[1].Role)
	assert.Equal(t, "earlier answer", reqs[0].History[1].Content)
	assert.Equal(t, "again", reqs[0].Turn.Content)
	assert.Equal(t, "be kind", reqs[0].SystemPrompt)
}

func TestRunPersistsPartsAndMetadata(t *testing.T) {
	store := session.NewMemoryStore(time.Hour, 100, time.Hour)
	eng := &fakeEngine{rounds: []fakeRound{{final: &engine.Final{Content: "noted"}}}}
	o := newTestOrchestrator(t, Options{Engine: eng, Store: store})

	ch, errc := startStream(t, o)
	ch.in <- &omnia.ClientMessage{Msg: &omnia.ClientMessage_Turn{Turn: &omnia.UserTurn{
		SessionId: "s1",
		Content:   "look at this",
		Metadata:  map[string]string{"client": "probe"},
		Parts: []*omnia.ContentPart{
			{Part: &omnia.ContentPart_Text{Text: "look at this"}},
			{Part: &omnia.ContentPart_Media{Media: &omnia.Media{
				MimeType: "image/png",
				Url:      "https://example.com/x.png",
			}}},
		},
	}}}

	awaitFrames(t, ch, 1)
	ch.close()
	require.NoError(t, waitClosed(t, errc))

	history, err := store.Get(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "probe", history[0].Metadata["client"])
	require.Len(t, history[0].Parts, 2)
	assert.Equal(t, "look at this", history[0].Parts[0].Text)
	require.NotNil(t, history[0].Parts[1].Media)
	assert.Equal(t, "image/png", history[0].Parts[1].Media.MIMEType)
	assert.Equal(t, "https://example.com/x.png", history[0].Parts[1].Media.URL)
}
