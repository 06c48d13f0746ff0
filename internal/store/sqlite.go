// ABOUTME: SQLite-backed store using modernc.org/sqlite
// ABOUTME: Opens the database, creates the schema, hands out units of work

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore owns the connection pool. All entity access goes through
// a UnitOfWork acquired from Begin; the pool is the only shared
// mutable resource between requests.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) the database at the given path.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	// Pragmas go in the DSN so every pooled connection gets them.
	// foreign_keys is connection-scoped: the cascade and FK-violation
	// behavior the repositories rely on holds only if it is on for
	// every connection database/sql opens, not just the first.
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist.
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id              TEXT PRIMARY KEY,
			email           TEXT NOT NULL UNIQUE,
			hashed_password TEXT NOT NULL,
			is_active       INTEGER NOT NULL DEFAULT 1,
			is_superuser    INTEGER NOT NULL DEFAULT 0,
			is_verified     INTEGER NOT NULL DEFAULT 0,
			name            TEXT,
			phone           TEXT,
			created_at      TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS stacks (
			id               TEXT PRIMARY KEY,
			user_id          TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name             TEXT,
			description      TEXT,
			special_offer    TEXT,
			initial_question TEXT,
			widget_delay     INTEGER NOT NULL DEFAULT 3,
			color            TEXT NOT NULL DEFAULT '#000000',
			last_modified_at TEXT NOT NULL,
			created_at       TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_stacks_user_id ON stacks(user_id);

		CREATE TABLE IF NOT EXISTS conversations (
			id         TEXT PRIMARY KEY,
			stack_id   TEXT NOT NULL REFERENCES stacks(id) ON DELETE CASCADE,
			password   TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_conversations_stack_id ON conversations(stack_id);

		-- conversation_id carries no ON DELETE action: the repositories
		-- delete a conversation's messages inside the same unit of work.
		-- parent_id clears on parent deletion instead of cascading.
		CREATE TABLE IF NOT EXISTS messages (
			id              TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL REFERENCES conversations(id),
			parent_id       TEXT REFERENCES messages(id) ON DELETE SET NULL,
			who             TEXT NOT NULL DEFAULT 'user' CHECK (who IN ('user', 'bot')),
			text            TEXT NOT NULL,
			created_at      TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_messages_conversation_created
			ON messages(conversation_id, created_at);

		CREATE INDEX IF NOT EXISTS idx_messages_parent_id ON messages(parent_id);

		CREATE TABLE IF NOT EXISTS cards (
			id         TEXT PRIMARY KEY,
			stack_id   TEXT NOT NULL REFERENCES stacks(id) ON DELETE CASCADE,
			question   TEXT NOT NULL DEFAULT '',
			answer     TEXT NOT NULL DEFAULT '',
			learned    INTEGER NOT NULL DEFAULT 0,
			es_doc_id  TEXT,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_cards_stack_id ON cards(stack_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
