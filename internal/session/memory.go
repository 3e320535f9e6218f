// ABOUTME: In-process session store with TTL expiry and LRU eviction
// ABOUTME: Default backend for single-node deployments and tests

package session

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// memoryEntry stores one session's turns plus bookkeeping for expiry/eviction.
type memoryEntry struct {
	turns      []Turn
	lastAccess time.Time
	element    *list.Element
}

// MemoryStore is a thread-safe, TTL-based, size-limited session store.
// Sessions idle longer than the TTL are dropped by a background sweeper,
// and the least recently used session is evicted when the store is full.
// Uses a doubly-linked list to maintain access order for O(1) eviction.
type MemoryStore struct {
	mu          sync.RWMutex
	sessions    map[string]*memoryEntry
	order       *list.List // session IDs in access order (oldest at front)
	ttl         time.Duration
	maxSessions int
	done        chan struct{}
	closed      bool
}

// NewMemoryStore creates an in-memory store with the given TTL and session cap.
// A background goroutine sweeps expired sessions at the given interval.
func NewMemoryStore(ttl time.Duration, maxSessions int, sweepInterval time.Duration) *MemoryStore {
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	s := &MemoryStore{
		sessions:    make(map[string]*memoryEntry),
		order:       list.New(),
		ttl:         ttl,
		maxSessions: maxSessions,
		done:        make(chan struct{}),
	}
	go s.sweep(sweepInterval)
	return s
}

// Get returns a copy of the session's history, oldest turn first.
// Unknown or expired sessions yield an empty history.
func (s *MemoryStore) Get(ctx context.Context, sessionID string) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	if time.Since(entry.lastAccess) > s.ttl {
		s.order.Remove(entry.element)
		delete(s.sessions, sessionID)
		return nil, nil
	}

	s.touchLocked(sessionID, entry)

	// Copy so callers cannot mutate stored history
	turns := make([]Turn, len(entry.turns))
	copy(turns, entry.turns)
	return turns, nil
}

// Append adds turns to the session's history, creating the session if needed.
// All turns land together; the store mutex serializes concurrent appends.
func (s *MemoryStore) Append(ctx context.Context, sessionID string, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		if len(s.sessions) >= s.maxSessions {
			s.evictOldest()
		}
		entry = &memoryEntry{element: s.order.PushBack(sessionID)}
		s.sessions[sessionID] = entry
	}

	entry.turns = append(entry.turns, turns...)
	s.touchLocked(sessionID, entry)
	return nil
}

// Clear removes the session's history. Clearing an unknown session is a no-op.
func (s *MemoryStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	s.order.Remove(entry.element)
	delete(s.sessions, sessionID)
	return nil
}

// Len reports the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// touchLocked refreshes a session's access time. Must be called with mu held.
func (s *MemoryStore) touchLocked(sessionID string, entry *memoryEntry) {
	entry.lastAccess = time.Now()
	s.order.MoveToBack(entry.element)
}

// evictOldest removes the least recently used session.
// Must be called with mu held. O(1) operation using linked list.
func (s *MemoryStore) evictOldest() {
	front := s.order.Front()
	if front == nil {
		return
	}

	id, _ := front.Value.(string)
	s.order.Remove(front)
	delete(s.sessions, id)
}

// sweep runs in a background goroutine, periodically removing expired sessions.
func (s *MemoryStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runSweep()
		case <-s.done:
			return
		}
	}
}

// runSweep removes all expired sessions from the store.
func (s *MemoryStore) runSweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, entry := range s.sessions {
		if now.Sub(entry.lastAccess) > s.ttl {
			s.order.Remove(entry.element)
			delete(s.sessions, id)
		}
	}
}

// Close stops the background sweeper. It is safe to call multiple times.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		close(s.done)
		s.closed = true
	}
	return nil
}

// Ensure MemoryStore implements Store interface
var _ Store = (*MemoryStore)(nil)
