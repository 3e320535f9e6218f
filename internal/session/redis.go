// ABOUTME: Redis implementation of the session Store using go-redis
// ABOUTME: Shares history across runtime instances with TTL-based expiry

package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces session lists so a shared Redis can host other data.
const keyPrefix = "omnia:session:"

// RedisStore implements the Store interface on a Redis list per session.
// Each turn is one JSON-encoded list element; RPUSH preserves order and
// appends all turns of a call atomically.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisStore connects to Redis at addr and verifies the connection.
// Sessions idle longer than ttl expire server-side.
func NewRedisStore(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisStore, error) {
	logger := slog.Default().With("component", "session")

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, unavailable("pinging redis", err)
	}

	logger.Info("redis session store initialized", "addr", addr, "db", db)
	return &RedisStore{
		client: client,
		ttl:    ttl,
		logger: logger,
	}, nil
}

// NewRedisStoreURL connects using a redis:// URL, the form configuration
// carries.
func NewRedisStoreURL(ctx context.Context, rawURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return NewRedisStore(ctx, opts.Addr, opts.Password, opts.DB, ttl)
}

// Get returns the session's history, oldest turn first.
// Unknown or expired sessions yield an empty history.
func (s *RedisStore) Get(ctx context.Context, sessionID string) ([]Turn, error) {
	raw, err := s.client.LRange(ctx, keyPrefix+sessionID, 0, -1).Result()
	if err != nil {
		return nil, unavailable("reading session", err)
	}

	turns := make([]Turn, 0, len(raw))
	for _, item := range raw {
		var turn Turn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			return nil, fmt.Errorf("decoding stored turn: %w", err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// Append pushes turns onto the session list and refreshes its TTL.
// The push and expiry run in one MULTI/EXEC transaction, so either all
// turns land or none do.
func (s *RedisStore) Append(ctx context.Context, sessionID string, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}

	payloads := make([]any, 0, len(turns))
	for _, turn := range turns {
		data, err := json.Marshal(turn)
		if err != nil {
			return fmt.Errorf("encoding turn: %w", err)
		}
		payloads = append(payloads, data)
	}

	key := keyPrefix + sessionID
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, payloads...)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return unavailable("appending session turns", err)
	}

	s.logger.Debug("appended turns", "session_id", sessionID, "count", len(turns))
	return nil
}

// Clear removes the session's history. Clearing an unknown session is a no-op.
func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, keyPrefix+sessionID).Err(); err != nil {
		return unavailable("clearing session", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ensure RedisStore implements Store interface
var _ Store = (*RedisStore)(nil)
