// ABOUTME: Shared adapter that drives any completer and shapes its output
// ABOUTME: into the delta / tool-call / final event sequence

package engine

import (
	"context"
	"log/slog"
)

// completion is one provider round-trip, already normalized.
type completion struct {
	Content string
	Calls   []ToolCall
	Usage   Usage
	// ChunkSize splits Content into deltas of at most this many runes.
	// Zero means one delta carrying the whole text.
	ChunkSize int
}

// completer is the minimal provider surface: one blocking round-trip.
type completer interface {
	complete(ctx context.Context, messages []Message, tools []ToolSpec, system string) (*completion, error)
	Provider() string
}

type providerAdapter struct {
	completer completer
	pricing   Pricing
	truncator *Truncator
	logger    *slog.Logger
}

var _ Adapter = (*providerAdapter)(nil)

func (a *providerAdapter) Provider() string {
	return a.completer.Provider()
}

func (a *providerAdapter) Invoke(ctx context.Context, req Request) (*Stream, error) {
	messages := a.truncator.Fit(append(append([]Message{}, req.History...), req.Turn))
	return a.run(ctx, messages, req.Tools, req.SystemPrompt, Usage{}), nil
}

func (a *providerAdapter) Resume(ctx context.Context, cont *Continuation, outcomes []ToolOutcome) (*Stream, error) {
	messages := append([]Message{}, cont.messages...)
	for _, out := range outcomes {
		messages = append(messages, Message{
			Role:       "tool",
			Content:    out.Result,
			ToolCallID: out.CallID,
			IsError:    out.IsError,
		})
	}
	return a.run(ctx, messages, cont.tools, cont.system, cont.usage), nil
}

// run performs one provider round-trip and emits its events. Usage carried
// in from earlier rounds accumulates so the final total spans the turn.
func (a *providerAdapter) run(ctx context.Context, messages []Message, tools []ToolSpec, system string, carried Usage) *Stream {
	stream := NewStream()

	go func() {
		defer stream.Close()

		result, err := a.completer.complete(ctx, messages, tools, system)
		if err != nil {
			a.logger.Error("completion failed", "provider", a.completer.Provider(), "error", err)
			stream.Emit(ctx, Event{Kind: EventFailure, Err: err})
			return
		}

		usage := Usage{
			InputTokens:  carried.InputTokens + result.Usage.InputTokens,
			OutputTokens: carried.OutputTokens + result.Usage.OutputTokens,
		}

		for _, delta := range splitDeltas(result.Content, result.ChunkSize) {
			if !stream.Emit(ctx, Event{Kind: EventDelta, Delta: delta}) {
				return
			}
		}

		if len(result.Calls) > 0 {
			assistant := Message{Role: "assistant", Content: result.Content, ToolCalls: result.Calls}
			cont := &Continuation{
				messages: append(append([]Message{}, messages...), assistant),
				calls:    result.Calls,
				usage:    usage,
				tools:    tools,
				system:   system,
			}
			stream.Emit(ctx, Event{Kind: EventToolCalls, Calls: result.Calls, Continuation: cont})
			return
		}

		usage.CostUSD = a.pricing.Cost(usage)
		stream.Emit(ctx, Event{Kind: EventFinal, Final: &Final{Content: result.Content, Usage: usage}})
	}()

	return stream
}

// splitDeltas cuts text into rune-bounded pieces. size <= 0 yields the
// whole text as a single delta; empty text yields none.
func splitDeltas(text string, size int) []string {
	if text == "" {
		return nil
	}
	if size <= 0 {
		return []string{text}
	}
	runes := []rune(text)
	deltas := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		deltas = append(deltas, string(runes[start:end]))
	}
	return deltas
}
