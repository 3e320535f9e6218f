// ABOUTME: Reasoning engine adapter interface and the event stream it produces
// ABOUTME: Providers turn conversation state into deltas, tool calls, and finals

package engine

import (
	"context"
	"fmt"
	"log/slog"
)

// ToolSpec describes one callable tool advertised to the engine.
type ToolSpec struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// ToolCall is the engine asking for one tool invocation. The ID is
// engine-assigned and must be echoed in the outcome that answers it.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // JSON-encoded object
}

// ToolOutcome feeds a completed tool call back into a paused generation.
type ToolOutcome struct {
	CallID  string
	Result  string
	IsError bool
}

// Message is one entry of the provider-shaped transcript.
type Message struct {
	Role       string // "user", "assistant", "tool"
	Content    string
	ToolCalls  []ToolCall // assistant messages that requested tools
	ToolCallID string     // tool messages: the call being answered
	IsError    bool       // tool messages: the call failed
}

// Usage counts tokens across all rounds of one turn.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	CostUSD      float64
}

// Request is everything one generation turn starts from.
type Request struct {
	History      []Message // persisted turns, oldest first
	Turn         Message   // the new user turn
	Tools        []ToolSpec
	SystemPrompt string
}

// Final carries the closing state of a finished generation. Content repeats
// the last round's text; the deltas already streamed it.
type Final struct {
	Content string
	Usage   Usage
}

// EventKind discriminates engine events.
type EventKind int

const (
	// EventDelta carries a piece of assistant text in emission order.
	EventDelta EventKind = iota
	// EventToolCalls pauses the generation until the calls are answered.
	EventToolCalls
	// EventFinal ends the generation successfully.
	EventFinal
	// EventFailure ends the generation with a provider error.
	EventFailure
)

// Event is one element of a generation's event sequence. A sequence is zero
// or more EventDelta followed by exactly one of EventToolCalls, EventFinal,
// or EventFailure.
type Event struct {
	Kind         EventKind
	Delta        string
	Calls        []ToolCall
	Continuation *Continuation
	Final        *Final
	Err          error
}

// Continuation is the engine-owned token that resumes a generation paused
// on tool calls. It is opaque to callers.
type Continuation struct {
	messages []Message
	calls    []ToolCall
	usage    Usage
	tools    []ToolSpec
	system   string
}

// Stream is a lazy, finite sequence of events produced by one Invoke or
// Resume. The channel closes when the sequence ends or the context is
// canceled; the producer never blocks on an abandoned consumer.
type Stream struct {
	events chan Event
}

// NewStream returns an empty stream for an adapter to produce into.
func NewStream() *Stream {
	return &Stream{events: make(chan Event)}
}

// Events returns the receive side of the stream.
func (s *Stream) Events() <-chan Event {
	return s.events
}

// Emit delivers one event unless the consumer is gone. Producers must stop
// once it returns false.
func (s *Stream) Emit(ctx context.Context, ev Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// Close ends the event sequence. Emit must not be called afterwards.
func (s *Stream) Close() {
	close(s.events)
}

// Adapter is the reasoning engine seen by the orchestrator.
type Adapter interface {
	// Invoke starts a generation from history plus one new user turn.
	Invoke(ctx context.Context, req Request) (*Stream, error)
	// Resume continues a generation paused on tool calls, feeding it the
	// outcomes in the same order the calls were requested.
	Resume(ctx context.Context, cont *Continuation, outcomes []ToolOutcome) (*Stream, error)
	// Provider names the backing implementation.
	Provider() string
}

// Options select and configure a provider.
type Options struct {
	Provider          string
	Model             string
	AnthropicAPIKey   string
	OpenAIAPIKey      string
	MockConfigPath    string
	MaxTokens         int
	ContextWindow     int
	Truncation        string
	InputCostPerMTok  float64
	OutputCostPerMTok float64
	Logger            *slog.Logger
}

// New constructs the configured provider. Construction fails fast: an
// unknown provider, a missing API key, or an unreadable mock script is a
// startup error, not a per-turn one.
func New(opts Options) (Adapter, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "engine")

	pricing := Pricing{InputPerMTok: opts.InputCostPerMTok, OutputPerMTok: opts.OutputCostPerMTok}
	truncator := NewTruncator(opts.ContextWindow, opts.Truncation, opts.Model, logger)

	var completer completer
	switch opts.Provider {
	case "anthropic":
		if opts.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an API key")
		}
		completer = newAnthropicCompleter(opts.AnthropicAPIKey, opts.Model, opts.MaxTokens)
	case "openai":
		if opts.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		completer = newOpenAICompleter(opts.OpenAIAPIKey, opts.Model, opts.MaxTokens)
	case "mock", "":
		mock, err := newMockCompleter(opts.MockConfigPath)
		if err != nil {
			return nil, fmt.Errorf("loading mock script: %w", err)
		}
		completer = mock
	default:
		return nil, fmt.Errorf("unknown provider %q", opts.Provider)
	}

	logger.Info("engine initialized", "provider", completer.Provider(), "model", opts.Model)
	return &providerAdapter{
		completer: completer,
		pricing:   pricing,
		truncator: truncator,
		logger:    logger,
	}, nil
}
