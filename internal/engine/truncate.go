// ABOUTME: Token-window history truncation applied before a generation starts
// ABOUTME: Counts with tiktoken and drops whole messages from the front

package engine

import (
	"log/slog"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter measures text in model tokens.
type TokenCounter interface {
	Count(text string) int
}

type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

func (c *tiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// heuristicCounter approximates four bytes per token when no encoding is
// available for the model.
type heuristicCounter struct{}

func (heuristicCounter) Count(text string) int {
	return (len(text) + 3) / 4
}

func newTokenCounter(model string, logger *slog.Logger) TokenCounter {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
	}
	if err != nil {
		logger.Warn("tokenizer unavailable, using byte heuristic", "model", model, "error", err)
		return heuristicCounter{}
	}
	return &tiktokenCounter{enc: enc}
}

// Truncator fits a transcript into a token window by dropping the oldest
// messages. A zero window disables it.
type Truncator struct {
	window  int
	counter TokenCounter
	logger  *slog.Logger
}

func NewTruncator(window int, strategy, model string, logger *slog.Logger) *Truncator {
	if window <= 0 || strategy == "none" {
		return &Truncator{}
	}
	return &Truncator{
		window:  window,
		counter: newTokenCounter(model, logger),
		logger:  logger,
	}
}

// Fit drops whole messages from the front until the transcript fits the
// window. The newest message always survives, over budget or not.
func (t *Truncator) Fit(messages []Message) []Message {
	if t.window <= 0 || len(messages) <= 1 {
		return messages
	}

	costs := make([]int, len(messages))
	total := 0
	for i := range messages {
		costs[i] = t.cost(messages[i])
		total += costs[i]
	}

	start := 0
	for total > t.window && start < len(messages)-1 {
		total -= costs[start]
		start++
	}
	// Resync to a user turn so the transcript never opens with an
	// orphaned assistant reply or tool result.
	for start > 0 && start < len(messages)-1 && messages[start].Role != "user" {
		start++
	}
	if start > 0 {
		t.logger.Debug("history truncated", "dropped", start, "kept", len(messages)-start, "window", t.window)
	}
	return messages[start:]
}

func (t *Truncator) cost(m Message) int {
	n := t.counter.Count(m.Content)
	for _, tc := range m.ToolCalls {
		n += t.counter.Count(tc.Name) + t.counter.Count(tc.Arguments)
	}
	return n
}
