// ABOUTME: Tracks in-flight tool calls and matches results back by request ID.
// ABOUTME: Enforces per-call deadlines and synthesizes error results on expiry.

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ErrNotFound is returned when a result arrives for an id that is not
// pending: never issued, already resolved, expired, or canceled.
var ErrNotFound = errors.New("no pending call")

// ErrCanceled is returned by Collect when the pending calls were discarded
// while it was waiting.
var ErrCanceled = errors.New("pending calls canceled")

// Call describes one tool invocation to track.
type Call struct {
	EngineID string        // id the engine assigned when requesting the call
	Name     string        // tool name
	Timeout  time.Duration // per-call budget; zero means the correlator default
}

// Outcome is the terminal result of a tracked call. Timed-out calls carry a
// synthetic error result so the engine learns about the failure. Elapsed
// measures from registration to resolution or expiry.
type Outcome struct {
	ID       string
	EngineID string
	Name     string
	Result   string
	IsError  bool
	Elapsed  time.Duration
}

// pendingCall holds the channel and deadline for one in-flight call.
type pendingCall struct {
	engineID   string
	name       string
	registered time.Time
	deadline   time.Time
	ch         chan Outcome
	resolved   bool
}

// Correlator matches tool results to the calls that requested them.
// One Correlator serves one conversation channel; ids are unique within it.
type Correlator struct {
	mu             sync.RWMutex
	pending        map[string]*pendingCall
	defaultTimeout time.Duration
	logger         *slog.Logger
}

// New creates a correlator whose calls expire after defaultTimeout unless
// the call carries its own budget.
func New(defaultTimeout time.Duration, logger *slog.Logger) *Correlator {
	return &Correlator{
		pending:        make(map[string]*pendingCall),
		defaultTimeout: defaultTimeout,
		logger:         logger.With("component", "dispatch"),
	}
}

// Register records a pending call and returns the id the client must echo
// in its result. The call's deadline starts now.
func (c *Correlator) Register(call Call) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generating call id: %w", err)
	}

	timeout := call.Timeout
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	c.pending[id] = &pendingCall{
		engineID:   call.EngineID,
		name:       call.Name,
		registered: now,
		deadline:   now.Add(timeout),
		ch:         make(chan Outcome, 1),
	}

	c.logger.Debug("registered tool call", "id", id, "tool", call.Name, "timeout", timeout)
	return id, nil
}

// Resolve delivers a result for a pending call. It returns ErrNotFound for
// ids that are unknown, already resolved, expired, or canceled.
func (c *Correlator) Resolve(id, result string, isError bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	pc, ok := c.pending[id]
	if !ok || pc.resolved {
		c.logger.Warn("result for unknown tool call", "id", id)
		return ErrNotFound
	}

	pc.resolved = true
	// Buffered channel and the resolved flag guarantee this is the only send
	pc.ch <- Outcome{
		ID:       id,
		EngineID: pc.engineID,
		Name:     pc.name,
		Result:   result,
		IsError:  isError,
		Elapsed:  time.Since(pc.registered),
	}

	c.logger.Debug("resolved tool call", "id", id, "tool", pc.name, "is_error", isError)
	return nil
}

// Collect waits for the outcome of each id, in the given order. Every call
// is held to its own absolute deadline, so waiting on an earlier call never
// extends a later call's budget. Expired calls yield a synthetic error
// outcome and their id stops being pending.
func (c *Correlator) Collect(ctx context.Context, ids []string) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(ids))

	for _, id := range ids {
		c.mu.RLock()
		pc, ok := c.pending[id]
		c.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("collecting call %s: %w", id, ErrNotFound)
		}

		out, err := c.await(ctx, id, pc)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, out)
	}

	return outcomes, nil
}

// await blocks until one call resolves, expires, or the context ends.
func (c *Correlator) await(ctx context.Context, id string, pc *pendingCall) (Outcome, error) {
	// A result may already be buffered from while we waited on earlier calls
	select {
	case out, ok := <-pc.ch:
		if !ok {
			return Outcome{}, ErrCanceled
		}
		c.remove(id)
		return out, nil
	default:
	}

	timer := time.NewTimer(time.Until(pc.deadline))
	defer timer.Stop()

	select {
	case out, ok := <-pc.ch:
		if !ok {
			return Outcome{}, ErrCanceled
		}
		c.remove(id)
		return out, nil

	case <-timer.C:
		// The resolution may have raced the timer; prefer the real result
		select {
		case out, ok := <-pc.ch:
			if !ok {
				return Outcome{}, ErrCanceled
			}
			c.remove(id)
			return out, nil
		default:
		}

		c.remove(id)
		c.logger.Warn("tool call timed out", "id", id, "tool", pc.name)
		return Outcome{
			ID:       id,
			EngineID: pc.engineID,
			Name:     pc.name,
			Result:   fmt.Sprintf("tool call %s timed out", pc.name),
			IsError:  true,
			Elapsed:  time.Since(pc.registered),
		}, nil

	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// remove forgets a call so later results for its id get ErrNotFound.
func (c *Correlator) remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, id)
}

// CancelAll discards every pending call. Results arriving afterwards get
// ErrNotFound, and blocked Collect calls return ErrCanceled.
func (c *Correlator) CancelAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := len(c.pending)
	for id, pc := range c.pending {
		if !pc.resolved {
			close(pc.ch)
		}
		delete(c.pending, id)
	}

	if count > 0 {
		c.logger.Debug("canceled pending tool calls", "count", count)
	}
}

// Pending reports the number of in-flight calls.
func (c *Correlator) Pending() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pending)
}
