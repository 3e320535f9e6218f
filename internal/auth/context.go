// ABOUTME: Caller identity for tracking who opened a stream through handlers
// ABOUTME: Provides WithCaller/CallerFromContext for propagation via context

package auth

import (
	"context"
)

// Caller holds the authenticated identity extracted from a request. It is
// populated by the auth interceptor and retrieved from context in handlers.
type Caller struct {
	Subject string // sub claim of the presented token
}

// callerKey is the key type for storing a Caller in context.Context.
type callerKey struct{}

// WithCaller returns a new context with the Caller attached.
func WithCaller(ctx context.Context, caller *Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFromContext retrieves the Caller from the context, returning nil if
// not present (auth disabled or Health).
func CallerFromContext(ctx context.Context) *Caller {
	val := ctx.Value(callerKey{})
	if val == nil {
		return nil
	}
	caller, ok := val.(*Caller)
	if !ok {
		return nil
	}
	return caller
}
