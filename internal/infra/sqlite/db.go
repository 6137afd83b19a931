// Package sqlite persists achievement definitions, progress records, user
// scores, unlock notifications, the event vocabulary, and extension versions.
// Uses modernc.org/sqlite (pure Go, no CGO) via database/sql.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the sqlite handle and exposes typed operations.
type DB struct {
	db *sql.DB
}

// Open creates/opens the database under dir and applies migrations.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	path := filepath.Join(dir, "laurels.db")
	handle, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single writer; sqlite serializes writes anyway and this avoids
	// SQLITE_BUSY under concurrent request handling.
	handle.SetMaxOpenConns(1)

	db := &DB{db: handle}
	if err := db.migrate(); err != nil {
		handle.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the underlying handle.
func (db *DB) Close() error {
	return db.db.Close()
}

// migrate applies all schema statements. Every statement is idempotent
// (CREATE ... IF NOT EXISTS), so this is safe on every start.
func (db *DB) migrate() error {
	for _, stmt := range Migrations() {
		if _, err := db.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// ─── Schema ─────────────────────────────────────────────────────────────────

// Migrations returns the schema migration statements.
// Each string is a single SQL statement (SQLite executes one at a time).
func Migrations() []string {
	return []string{
		// Achievement definitions
		`CREATE TABLE IF NOT EXISTS achievements (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			event_name  TEXT NOT NULL,
			target      INTEGER NOT NULL DEFAULT 0,
			points      INTEGER NOT NULL DEFAULT 0,
			status      TEXT NOT NULL DEFAULT 'draft',
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_achievements_event ON achievements(event_name)`,
		`CREATE INDEX IF NOT EXISTS idx_achievements_status ON achievements(status)`,

		// Per-(user, achievement) progress. The UNIQUE pair is the invariant:
		// at most one record per key, enforced by the storage layer.
		`CREATE TABLE IF NOT EXISTS progress (
			id             TEXT PRIMARY KEY,
			user_id        INTEGER NOT NULL,
			achievement_id TEXT NOT NULL,
			counter        INTEGER NOT NULL DEFAULT 0,
			status         TEXT NOT NULL DEFAULT 'in_progress',
			updated_at     TEXT NOT NULL,
			UNIQUE(user_id, achievement_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_progress_user ON progress(user_id)`,

		// Running score totals
		`CREATE TABLE IF NOT EXISTS scores (
			user_id INTEGER PRIMARY KEY,
			total   INTEGER NOT NULL DEFAULT 0
		)`,

		// Unlock notifications
		`CREATE TABLE IF NOT EXISTS notifications (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id        INTEGER NOT NULL,
			achievement_id TEXT NOT NULL,
			created_at     TEXT NOT NULL,
			seen           INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, seen)`,

		// Event vocabulary (names the host can raise, contributed by
		// extensions or achievement authoring)
		`CREATE TABLE IF NOT EXISTS events (
			name        TEXT PRIMARY KEY,
			description TEXT NOT NULL DEFAULT '',
			source      TEXT NOT NULL DEFAULT 'manual'
		)`,

		// Extension version records
		`CREATE TABLE IF NOT EXISTS extension_versions (
			extension_id TEXT PRIMARY KEY,
			version      TEXT NOT NULL,
			updated_at   TEXT NOT NULL
		)`,
	}
}

// ─── Time Helpers ───────────────────────────────────────────────────────────

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
