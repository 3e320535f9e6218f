// ABOUTME: Per-stream conversation state machine pairing user turns with terminal frames
// ABOUTME: Relays engine deltas, brokers tool calls, and persists completed exchanges

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/AltairaLabs/omnia-runtime/internal/dispatch"
	"github.com/AltairaLabs/omnia-runtime/internal/engine"
	"github.com/AltairaLabs/omnia-runtime/internal/metrics"
	"github.com/AltairaLabs/omnia-runtime/internal/session"
	"github.com/AltairaLabs/omnia-runtime/internal/tools"
	"github.com/AltairaLabs/omnia-runtime/proto/omnia"
)

// Error frame codes. Every failed turn closes with exactly one of these.
const (
	CodeValidationError   = "VALIDATION_ERROR"
	CodeEngineFailure     = "ENGINE_FAILURE"
	CodeGenerationTimeout = "GENERATION_TIMEOUT"
	CodeCorrelationError  = "CORRELATION_ERROR"
	CodeSessionStoreError = "SESSION_STORE_ERROR"
	CodeProtocolError     = "PROTOCOL_ERROR"
	CodeInternalError     = "INTERNAL_ERROR"
)

// Metrics-only outcome labels for turns that end without an error frame.
const (
	outcomeOK       = "ok"
	outcomeCanceled = "canceled"
)

const (
	// turnQueueSize bounds user turns buffered while one is in flight.
	turnQueueSize = 16
	// violationLimit is the number of unmatched tool results a channel
	// survives before it is closed for protocol abuse.
	violationLimit = 10
	// storeWriteTimeout bounds the post-generation history append.
	storeWriteTimeout = 5 * time.Second
)

var (
	errSendFailed   = errors.New("send failed")
	errStreamClosed = errors.New("engine stream closed without a terminal event")
)

// Channel is the duplex frame transport for one conversation. The generated
// Converse stream satisfies it directly; tests use in-memory fakes.
type Channel interface {
	Recv() (*omnia.ClientMessage, error)
	Send(*omnia.ServerMessage) error
}

// Options configure an Orchestrator. Zero values get serving defaults.
type Options struct {
	Store   session.Store
	Engine  engine.Adapter
	Catalog *tools.Catalog
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	SystemPrompt      string
	MaxToolRounds     int
	GenerationTimeout time.Duration
	ToolTimeout       time.Duration
	Backend           string // session backend name, used as a metrics label
}

// Orchestrator drives conversation streams against one engine and one
// session store. It is safe for concurrent use; each Run call serves one
// channel.
type Orchestrator struct {
	store   session.Store
	engine  engine.Adapter
	catalog *tools.Catalog
	metrics *metrics.Metrics
	logger  *slog.Logger

	systemPrompt      string
	maxToolRounds     int
	generationTimeout time.Duration
	toolTimeout       time.Duration
	backend           string
}

// New builds an orchestrator from options.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = tools.Empty()
	}
	maxRounds := opts.MaxToolRounds
	if maxRounds <= 0 {
		maxRounds = 5
	}
	genTimeout := opts.GenerationTimeout
	if genTimeout <= 0 {
		genTimeout = 2 * time.Minute
	}
	toolTimeout := opts.ToolTimeout
	if toolTimeout <= 0 {
		toolTimeout = 30 * time.Second
	}
	backend := opts.Backend
	if backend == "" {
		backend = "memory"
	}

	return &Orchestrator{
		store:             opts.Store,
		engine:            opts.Engine,
		catalog:           catalog,
		metrics:           m,
		logger:            logger.With("component", "orchestrator"),
		systemPrompt:      opts.SystemPrompt,
		maxToolRounds:     maxRounds,
		generationTimeout: genTimeout,
		toolTimeout:       toolTimeout,
		backend:           backend,
	}
}

// Run serves one conversation channel until the client closes it, ctx ends,
// or the client commits a fatal protocol violation. A clean client close
// returns nil.
func (o *Orchestrator) Run(ctx context.Context, ch Channel) error {
	s := &stream{
		o:          o,
		ch:         ch,
		correlator: dispatch.New(o.toolTimeout, o.logger),
		logger:     o.logger.With("stream_id", uuid.NewString()),
	}

	o.metrics.ActiveStreams.Inc()
	defer o.metrics.ActiveStreams.Dec()

	s.logger.Debug("stream opened")
	err := s.run(ctx)
	if err != nil {
		s.logger.Debug("stream closed", "error", err)
	} else {
		s.logger.Debug("stream closed")
	}
	return err
}

// stream is the state for one conversation channel.
type stream struct {
	o          *Orchestrator
	ch         Channel
	correlator *dispatch.Correlator
	logger     *slog.Logger

	sendMu     sync.Mutex
	violations int // unmatched tool results; pump goroutine only
}

func (s *stream) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.correlator.CancelAll()

	turns := make(chan *omnia.UserTurn, turnQueueSize)
	recvDone := make(chan error, 1)
	go func() { recvDone <- s.receive(turns) }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-recvDone:
			if err != nil {
				return err
			}
			// Half-close: finish turns the client sent before closing.
			for {
				select {
				case turn := <-turns:
					s.runTurn(ctx, turn)
				default:
					return nil
				}
			}

		case turn := <-turns:
			s.runTurn(ctx, turn)
		}
	}
}

// receive demultiplexes inbound frames. User turns queue for the turn loop;
// tool results go straight to the correlator so they can unblock a turn in
// flight.
func (s *stream) receive(turns chan<- *omnia.UserTurn) error {
	for {
		msg, err := s.ch.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if status.Code(err) == codes.Canceled || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("receiving frame: %w", err)
		}

		switch frame := msg.GetMsg().(type) {
		case *omnia.ClientMessage_Turn:
			select {
			case turns <- frame.Turn:
			default:
				s.sendError(CodeProtocolError, "turn queue overflow")
				return errors.New("turn queue overflow")
			}

		case *omnia.ClientMessage_ToolResult:
			if err := s.deliverResult(frame.ToolResult); err != nil {
				return err
			}

		default:
			s.logger.Warn("ignoring empty client frame")
		}
	}
}

// deliverResult routes a tool result to its pending call. Unmatched ids get
// a CORRELATION_ERROR frame and the channel stays usable, up to a limit.
func (s *stream) deliverResult(res *omnia.ToolResult) error {
	err := s.correlator.Resolve(res.GetId(), res.GetResult(), res.GetIsError())
	if err == nil {
		return nil
	}

	s.o.metrics.CorrelationErrorsTotal.Inc()
	s.violations++
	if s.violations >= violationLimit {
		s.logger.Warn("closing stream after repeated unmatched tool results", "count", s.violations)
		s.sendError(CodeProtocolError, "too many unmatched tool results")
		return errors.New("unmatched tool result limit reached")
	}

	s.sendError(CodeCorrelationError, fmt.Sprintf("no pending tool call with id %q", res.GetId()))
	return nil
}

// send serializes frame writes; the pump and the turn loop both emit.
func (s *stream) send(msg *omnia.ServerMessage) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return s.ch.Send(msg)
}

func (s *stream) sendError(code, message string) {
	err := s.send(&omnia.ServerMessage{Msg: &omnia.ServerMessage_Error{Error: &omnia.Error{
		Code:    code,
		Message: message,
	}}})
	if err != nil {
		s.logger.Debug("error frame not delivered", "code", code, "error", err)
	}
}

// runTurn drives one user turn to its terminal frame and records the outcome.
func (s *stream) runTurn(ctx context.Context, turn *omnia.UserTurn) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("turn panicked", "panic", r)
			s.correlator.CancelAll()
			s.sendError(CodeInternalError, "internal error")
			s.o.metrics.TurnsTotal.WithLabelValues(CodeInternalError).Inc()
		}
	}()

	if turn.GetSessionId() == "" || turn.GetContent() == "" {
		s.sendError(CodeValidationError, "session_id and content are required")
		s.o.metrics.TurnsTotal.WithLabelValues(CodeValidationError).Inc()
		return
	}

	turnCtx, cancel := context.WithTimeout(ctx, s.o.generationTimeout)
	defer cancel()

	outcome := s.generate(turnCtx, ctx, turn)
	s.o.metrics.TurnsTotal.WithLabelValues(outcome).Inc()
}

// generate runs the engine loop for one turn: invoke, relay deltas, broker
// tool rounds, persist, emit the terminal frame. It returns the outcome
// label for metrics; any error frame has already been sent.
func (s *stream) generate(ctx, parent context.Context, turn *omnia.UserTurn) string {
	sessionID := turn.GetSessionId()
	logger := s.logger.With("session_id", sessionID)

	history, err := s.o.store.Get(ctx, sessionID)
	s.recordSessionOp("get", err)
	if err != nil {
		logger.Error("loading session history failed", "error", err)
		s.sendError(CodeSessionStoreError, "loading session history failed")
		return CodeSessionStoreError
	}

	req := engine.Request{
		History:      toEngineHistory(history),
		Turn:         engine.Message{Role: "user", Content: turn.GetContent()},
		Tools:        s.o.catalog.Specs(),
		SystemPrompt: s.o.systemPrompt,
	}

	logger.Info("turn started", "history_turns", len(history), "tools", len(req.Tools))

	roundStart := time.Now()
	es, err := s.o.engine.Invoke(ctx, req)
	if err != nil {
		logger.Error("engine invocation failed", "error", err)
		s.sendError(CodeEngineFailure, err.Error())
		return CodeEngineFailure
	}

	var assembled strings.Builder
	rounds := 0

	for {
		ev, relayErr := s.relay(ctx, es, &assembled)
		if relayErr != nil {
			return s.interrupted(ctx, parent, relayErr)
		}
		s.o.metrics.EngineLatency.WithLabelValues(s.o.engine.Provider()).Observe(time.Since(roundStart).Seconds())

		switch ev.Kind {
		case engine.EventFailure:
			logger.Error("engine failure", "error", ev.Err)
			s.sendError(CodeEngineFailure, ev.Err.Error())
			return CodeEngineFailure

		case engine.EventToolCalls:
			rounds++
			if rounds > s.o.maxToolRounds {
				logger.Warn("tool round limit reached", "rounds", rounds)
				s.correlator.CancelAll()
				s.sendError(CodeEngineFailure, fmt.Sprintf("engine exceeded %d tool rounds", s.o.maxToolRounds))
				return CodeEngineFailure
			}

			outcomes, dispatchErr := s.dispatchCalls(ctx, ev.Calls)
			if dispatchErr != nil {
				return s.interrupted(ctx, parent, dispatchErr)
			}

			roundStart = time.Now()
			es, err = s.o.engine.Resume(ctx, ev.Continuation, outcomes)
			if err != nil {
				logger.Error("engine resume failed", "error", err)
				s.sendError(CodeEngineFailure, err.Error())
				return CodeEngineFailure
			}

		case engine.EventFinal:
			return s.finish(parent, logger, turn, ev.Final, assembled.String())

		default:
			logger.Error("unexpected engine event", "kind", int(ev.Kind))
			s.sendError(CodeInternalError, "unexpected engine event")
			return CodeInternalError
		}
	}
}

// relay forwards content deltas as Chunk frames until the engine emits a
// non-delta event, which it returns.
func (s *stream) relay(ctx context.Context, es *engine.Stream, assembled *strings.Builder) (engine.Event, error) {
	for {
		select {
		case <-ctx.Done():
			return engine.Event{}, ctx.Err()

		case ev, ok := <-es.Events():
			if !ok {
				return engine.Event{}, errStreamClosed
			}
			if ev.Kind != engine.EventDelta {
				return ev, nil
			}
			assembled.WriteString(ev.Delta)
			err := s.send(&omnia.ServerMessage{Msg: &omnia.ServerMessage_Chunk{Chunk: &omnia.Chunk{
				Content: ev.Delta,
			}}})
			if err != nil {
				return engine.Event{}, fmt.Errorf("%w: %v", errSendFailed, err)
			}
			s.o.metrics.ChunksTotal.Inc()
		}
	}
}

// dispatchCalls emits ToolCall frames in the order the engine requested
// them, waits for every result, and returns outcomes in that same order.
// Calls the catalog rejects never reach the wire; the engine sees the
// validation failure as an error result instead.
func (s *stream) dispatchCalls(ctx context.Context, calls []engine.ToolCall) ([]engine.ToolOutcome, error) {
	outcomes := make([]engine.ToolOutcome, len(calls))
	ids := make([]string, 0, len(calls))
	slots := make([]int, 0, len(calls))

	for i, call := range calls {
		if err := s.o.catalog.ValidateArguments(call.Name, call.Arguments); err != nil {
			s.logger.Warn("rejected tool call", "tool", call.Name, "error", err)
			outcomes[i] = engine.ToolOutcome{CallID: call.ID, Result: err.Error(), IsError: true}
			continue
		}

		id, err := s.correlator.Register(dispatch.Call{
			EngineID: call.ID,
			Name:     call.Name,
			Timeout:  s.o.catalog.Timeout(call.Name),
		})
		if err != nil {
			return nil, err
		}

		frame := &omnia.ServerMessage{Msg: &omnia.ServerMessage_ToolCall{ToolCall: &omnia.ToolCall{
			Id:        id,
			Name:      call.Name,
			Arguments: call.Arguments,
		}}}
		if err := s.send(frame); err != nil {
			return nil, fmt.Errorf("%w: %v", errSendFailed, err)
		}
		s.o.metrics.ToolCallsTotal.WithLabelValues(call.Name).Inc()

		ids = append(ids, id)
		slots = append(slots, i)
	}

	collected, err := s.correlator.Collect(ctx, ids)
	if err != nil {
		return nil, err
	}

	for j, out := range collected {
		s.o.metrics.ToolResultLatency.WithLabelValues(out.Name).Observe(out.Elapsed.Seconds())
		outcomes[slots[j]] = engine.ToolOutcome{CallID: out.EngineID, Result: out.Result, IsError: out.IsError}
	}
	return outcomes, nil
}

// finish persists the completed exchange and emits Done. The append comes
// first: a turn the client saw complete is always on record.
func (s *stream) finish(parent context.Context, logger *slog.Logger, turn *omnia.UserTurn, final *engine.Final, assembled string) string {
	if parent.Err() != nil {
		s.correlator.CancelAll()
		return outcomeCanceled
	}

	content := final.Content
	if content == "" {
		content = assembled
	}

	now := time.Now().UTC()
	userTurn := session.Turn{
		ID:        uuid.NewString(),
		Role:      session.RoleUser,
		Content:   turn.GetContent(),
		Parts:     partsFromProto(turn.GetParts()),
		Metadata:  turn.GetMetadata(),
		CreatedAt: now,
	}
	assistantTurn := session.Turn{
		ID:      uuid.NewString(),
		Role:    session.RoleAssistant,
		Content: content,
		Usage: &session.Usage{
			InputTokens:  final.Usage.InputTokens,
			OutputTokens: final.Usage.OutputTokens,
			CostUSD:      final.Usage.CostUSD,
		},
		CreatedAt: now,
	}

	// The write runs on its own budget; the generation deadline does not
	// bound persistence.
	storeCtx, cancel := context.WithTimeout(context.Background(), storeWriteTimeout)
	defer cancel()

	err := s.o.store.Append(storeCtx, turn.GetSessionId(), userTurn, assistantTurn)
	s.recordSessionOp("append", err)
	if err != nil {
		logger.Error("persisting turn failed", "error", err)
		s.sendError(CodeSessionStoreError, "persisting turn failed")
		return CodeSessionStoreError
	}

	done := &omnia.ServerMessage{Msg: &omnia.ServerMessage_Done{Done: &omnia.Done{
		FinalContent: content,
		Usage: &omnia.Usage{
			InputTokens:  final.Usage.InputTokens,
			OutputTokens: final.Usage.OutputTokens,
			CostUsd:      final.Usage.CostUSD,
		},
	}}}
	if err := s.send(done); err != nil {
		logger.Warn("done frame not delivered", "error", err)
		return outcomeCanceled
	}

	logger.Info("turn completed",
		"input_tokens", final.Usage.InputTokens,
		"output_tokens", final.Usage.OutputTokens,
		"cost_usd", final.Usage.CostUSD,
	)
	return outcomeOK
}

// interrupted classifies a turn cut short. A gone client gets silence, an
// expired generation budget gets a GENERATION_TIMEOUT frame, anything else
// is internal. Pending tool calls are discarded either way.
func (s *stream) interrupted(ctx, parent context.Context, cause error) string {
	s.correlator.CancelAll()

	if parent.Err() != nil {
		return outcomeCanceled
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		s.sendError(CodeGenerationTimeout, fmt.Sprintf("generation exceeded %s", s.o.generationTimeout))
		return CodeGenerationTimeout
	}
	if errors.Is(cause, errSendFailed) {
		return outcomeCanceled
	}

	s.logger.Error("turn interrupted", "error", cause)
	s.sendError(CodeInternalError, "engine stream ended unexpectedly")
	return CodeInternalError
}

func (s *stream) recordSessionOp(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.o.metrics.SessionOpsTotal.WithLabelValues(op, s.o.backend, result).Inc()
}

// toEngineHistory maps persisted turns to the engine's message shape.
func toEngineHistory(turns []session.Turn) []engine.Message {
	if len(turns) == 0 {
		return nil
	}
	messages := make([]engine.Message, 0, len(turns))
	for _, t := range turns {
		role := "user"
		if t.Role == session.RoleAssistant {
			role = "assistant"
		}
		messages = append(messages, engine.Message{Role: role, Content: t.Content})
	}
	return messages
}

// partsFromProto converts wire content parts for persistence.
func partsFromProto(parts []*omnia.ContentPart) []session.Part {
	if len(parts) == 0 {
		return nil
	}
	converted := make([]session.Part, 0, len(parts))
	for _, p := range parts {
		switch v := p.GetPart().(type) {
		case *omnia.ContentPart_Text:
			converted = append(converted, session.Part{Text: v.Text})
		case *omnia.ContentPart_Media:
			converted = append(converted, session.Part{Media: &session.Media{
				MIMEType: v.Media.GetMimeType(),
				URL:      v.Media.GetUrl(),
				Data:     v.Media.GetData(),
			}})
		}
	}
	return converted
}
