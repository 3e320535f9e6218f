// ABOUTME: SQLite implementation of the session Store using modernc.org/sqlite
// ABOUTME: Persists turns across restarts with automatic schema creation

package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "session")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("sqlite session store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS turns (
			id            TEXT PRIMARY KEY,
			session_id    TEXT NOT NULL,
			seq           INTEGER NOT NULL,
			role          TEXT NOT NULL,
			content       TEXT NOT NULL,
			parts_json    TEXT,
			metadata_json TEXT,
			usage_json    TEXT,
			created_at    TEXT NOT NULL,

			UNIQUE(session_id, seq),
			FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE,
			CHECK (role IN ('user', 'assistant'))
		);

		CREATE INDEX IF NOT EXISTS idx_turns_session_seq
			ON turns(session_id, seq);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Get returns the session's history, oldest turn first.
// Unknown sessions yield an empty history.
func (s *SQLiteStore) Get(ctx context.Context, sessionID string) ([]Turn, error) {
	query := `
		SELECT id, role, content, parts_json, metadata_json, usage_json, created_at
		FROM turns
		WHERE session_id = ?
		ORDER BY seq ASC
	`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, unavailable("querying turns", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var turn Turn
		var partsJSON, metadataJSON, usageJSON sql.NullString
		var createdAtStr string

		if err := rows.Scan(&turn.ID, &turn.Role, &turn.Content, &partsJSON, &metadataJSON, &usageJSON, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning turn row: %w", err)
		}

		turn.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing turn created_at: %w", err)
		}

		if partsJSON.Valid {
			if err := json.Unmarshal([]byte(partsJSON.String), &turn.Parts); err != nil {
				return nil, fmt.Errorf("decoding turn parts: %w", err)
			}
		}
		if metadataJSON.Valid {
			if err := json.Unmarshal([]byte(metadataJSON.String), &turn.Metadata); err != nil {
				return nil, fmt.Errorf("decoding turn metadata: %w", err)
			}
		}
		if usageJSON.Valid {
			if err := json.Unmarshal([]byte(usageJSON.String), &turn.Usage); err != nil {
				return nil, fmt.Errorf("decoding turn usage: %w", err)
			}
		}

		turns = append(turns, turn)
	}

	if err := rows.Err(); err != nil {
		return nil, unavailable("iterating turn rows", err)
	}

	return turns, nil
}

// Append inserts all turns in a single transaction so a failure leaves no
// partial record. SQLite's write lock serializes concurrent appends.
func (s *SQLiteStore) Append(ctx context.Context, sessionID string, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("beginning transaction", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (id, created_at, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at
	`, sessionID, now, now); err != nil {
		return unavailable("upserting session", err)
	}

	var next int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), -1) + 1 FROM turns WHERE session_id = ?`, sessionID,
	).Scan(&next); err != nil {
		return unavailable("reading turn sequence", err)
	}

	insert := `
		INSERT INTO turns (id, session_id, seq, role, content, parts_json, metadata_json, usage_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i, turn := range turns {
		partsJSON, err := nullJSON(turn.Parts)
		if err != nil {
			return fmt.Errorf("encoding turn parts: %w", err)
		}
		metadataJSON, err := nullJSON(turn.Metadata)
		if err != nil {
			return fmt.Errorf("encoding turn metadata: %w", err)
		}
		usageJSON, err := nullJSON(turn.Usage)
		if err != nil {
			return fmt.Errorf("encoding turn usage: %w", err)
		}

		if _, err := tx.ExecContext(ctx, insert,
			turn.ID,
			sessionID,
			next+i,
			turn.Role,
			turn.Content,
			partsJSON,
			metadataJSON,
			usageJSON,
			turn.CreatedAt.UTC().Format(time.RFC3339),
		); err != nil {
			return unavailable("inserting turn", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return unavailable("committing turns", err)
	}

	s.logger.Debug("appended turns", "session_id", sessionID, "count", len(turns))
	return nil
}

// nullJSON marshals v, returning nil for empty values so the column stays NULL.
func nullJSON(v any) (any, error) {
	switch val := v.(type) {
	case []Part:
		if len(val) == 0 {
			return nil, nil
		}
	case map[string]string:
		if len(val) == 0 {
			return nil, nil
		}
	case *Usage:
		if val == nil {
			return nil, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// SweepExpired deletes sessions idle longer than maxIdle; their turns go with
// them. It returns the number of sessions removed.
func (s *SQLiteStore) SweepExpired(ctx context.Context, maxIdle time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxIdle).Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, unavailable("sweeping sessions", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, unavailable("counting swept sessions", err)
	}
	if removed > 0 {
		s.logger.Info("swept expired sessions", "count", removed, "max_idle", maxIdle)
	}
	return removed, nil
}

// Clear removes the session and its turns. Clearing an unknown session is a no-op.
func (s *SQLiteStore) Clear(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return unavailable("deleting session", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing sqlite session store")
	return s.db.Close()
}

// Ensure SQLiteStore implements Store interface
var _ Store = (*SQLiteStore)(nil)
