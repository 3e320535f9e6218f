// ABOUTME: Store interface and data types for conversation history persistence
// ABOUTME: Defines Turn, Part, Usage structs and the Store interface backends implement

package session

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnavailable is returned when the backing store cannot be reached.
// Callers may retry the same operation; no partial turn is ever persisted.
var ErrUnavailable = errors.New("session store unavailable")

// unavailable marks err as a store availability failure so callers can
// match it with errors.Is(err, ErrUnavailable).
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

// Role identifies the author of a turn.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one entry in a session's conversation history.
type Turn struct {
	ID        string            `json:"id"`
	Role      string            `json:"role"`
	Content   string            `json:"content"`
	Parts     []Part            `json:"parts,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Usage     *Usage            `json:"usage,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Part is a single piece of turn content. Exactly one field is set.
type Part struct {
	Text  string `json:"text,omitempty"`
	Media *Media `json:"media,omitempty"`
}

// Media is a non-text content part, referenced by URL or carried inline.
type Media struct {
	MIMEType string `json:"mime_type"`
	URL      string `json:"url,omitempty"`
	Data     []byte `json:"data,omitempty"`
}

// Usage records token counts and estimated cost for an assistant turn.
type Usage struct {
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
}

// Store defines the interface for session history persistence.
//
// Get returns the empty history for an unknown session ID; absence is not
// an error. Append persists all given turns atomically, in order, so a
// failed append leaves no partial record behind. Concurrent appends to the
// same session serialize rather than interleave.
type Store interface {
	Get(ctx context.Context, sessionID string) ([]Turn, error)
	Append(ctx context.Context, sessionID string, turns ...Turn) error
	Clear(ctx context.Context, sessionID string) error

	// Close releases any resources held by the store
	Close() error
}
