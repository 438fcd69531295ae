// Package store persists per-user provider selection and credentials in
// SQLite. Uses modernc.org/sqlite — a pure-Go SQLite driver (no CGO required).
package store

import (
	"context"
	"database/sql"
	"fmt"

	// Register the modernc sqlite driver under the name "sqlite"
	_ "modernc.org/sqlite"
)

// UserRecord is the durable state kept for one user: which provider answers
// their free-text messages and the API keys they have stored.
// An empty key string means the credential has never been set.
type UserRecord struct {
	UserID          int64
	DefaultProvider string
	GeminiKey       string
	GPTKey          string
	ClaudeKey       string
}

// Credential returns the stored secret for the given provider ID, or the
// empty string when none is set (or the provider keeps no credential).
func (r *UserRecord) Credential(providerID string) string {
	switch providerID {
	case "gemini":
		return r.GeminiKey
	case "gpt":
		return r.GPTKey
	case "claude":
		return r.ClaudeKey
	}
	return ""
}

// Patch describes a partial update to a UserRecord. Nil fields are left
// untouched; only explicitly supplied fields are written. This replaces the
// usual hand-assembled UPDATE string with one fixed statement.
type Patch struct {
	DefaultProvider *string
	GeminiKey       *string
	GPTKey          *string
	ClaudeKey       *string
}

// IsEmpty reports whether the patch carries no field updates at all.
func (p Patch) IsEmpty() bool {
	return p.DefaultProvider == nil && p.GeminiKey == nil && p.GPTKey == nil && p.ClaudeKey == nil
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	user_id          INTEGER PRIMARY KEY,
	default_provider TEXT NOT NULL DEFAULT 'google',
	gemini_key       TEXT,
	gpt_key          TEXT,
	claude_key       TEXT
)`

// NewDB opens (or creates) a SQLite database at path and configures it for
// production use:
//   - WAL journal mode (allows concurrent reads during writes)
//   - 5-second busy timeout (prevents SQLITE_BUSY errors under burst writes)
//   - Synchronous=NORMAL (safe + faster than FULL for WAL mode)
//
// Use ":memory:" as path for in-memory databases in tests.
func NewDB(path string) (*sql.DB, error) {
	// DSN with PRAGMAs applied at connection time via query parameters.
	// modernc.org/sqlite supports _pragma=... params in the DSN.
	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store.NewDB: open %q: %w", path, err)
	}

	// WAL allows concurrent readers but serializes writers.
	// MaxOpenConns > 1 is safe for reads; writers are serialized by SQLite itself.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store.NewDB: ping %q: %w", path, err)
	}

	return db, nil
}

// UserStore reads and writes UserRecords. Safe for concurrent use; writes
// for different users never contend beyond SQLite's own writer serialization.
type UserStore struct {
	db *sql.DB
}

// NewUserStore wraps an opened database and ensures the users table exists.
func NewUserStore(db *sql.DB) (*UserStore, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("store: create users table: %w", err)
	}
	return &UserStore{db: db}, nil
}

// Get fetches the record for userID. Returns (nil, nil) when the user has
// never been seen.
func (s *UserStore) Get(ctx context.Context, userID int64) (*UserRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, default_provider,
		        COALESCE(gemini_key, ''), COALESCE(gpt_key, ''), COALESCE(claude_key, '')
		 FROM users WHERE user_id = ?`, userID)

	var rec UserRecord
	err := row.Scan(&rec.UserID, &rec.DefaultProvider, &rec.GeminiKey, &rec.GPTKey, &rec.ClaudeKey)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get user %d: %w", userID, err)
	}
	return &rec, nil
}

// Upsert creates the record with defaults on first contact, then applies the
// supplied patch. On an existing record only the patch's non-nil fields are
// written; an empty patch issues no UPDATE at all.
//
// The UPDATE is a single fixed statement using COALESCE(?, column) per field,
// so omitted fields can never be nulled out and no SQL is ever assembled
// from string fragments.
func (s *UserStore) Upsert(ctx context.Context, userID int64, p Patch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin upsert for user %d: %w", userID, err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE user_id = ?`, userID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("store: check user %d: %w", userID, err)
	}

	if exists == 0 {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO users (user_id, default_provider, gemini_key, gpt_key, claude_key)
			 VALUES (?, COALESCE(?, 'google'), ?, ?, ?)`,
			userID, p.DefaultProvider, p.GeminiKey, p.GPTKey, p.ClaudeKey)
		if err != nil {
			return fmt.Errorf("store: insert user %d: %w", userID, err)
		}
	} else if !p.IsEmpty() {
		_, err = tx.ExecContext(ctx,
			`UPDATE users SET
				default_provider = COALESCE(?, default_provider),
				gemini_key       = COALESCE(?, gemini_key),
				gpt_key          = COALESCE(?, gpt_key),
				claude_key       = COALESCE(?, claude_key)
			 WHERE user_id = ?`,
			p.DefaultProvider, p.GeminiKey, p.GPTKey, p.ClaudeKey, userID)
		if err != nil {
			return fmt.Errorf("store: update user %d: %w", userID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit upsert for user %d: %w", userID, err)
	}
	return nil
}

// StringPtr is a small helper for building Patch literals.
func StringPtr(s string) *string {
	return &s
}
