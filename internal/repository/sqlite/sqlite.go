// Package sqlite implements the repository interfaces on SQLite.
//
// SQLite keeps the deployment a single binary plus a single file — no
// database server to run. We use modernc.org/sqlite, a pure Go
// translation of the SQLite sources, so there is no CGo and
// cross-compilation stays painless. Tests open ":memory:" databases.
package sqlite

import (
	"database/sql"
	"fmt"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps the sql.DB pool and carries the repository methods (user.go,
// memory.go). It owns the connection lifecycle: New opens and migrates,
// Close flushes the WAL and releases the file lock.
type DB struct {
	conn *sql.DB
}

// New opens the database at path (":memory:" for an in-memory instance),
// applies the pragmas a web server needs, and runs migrations.
func New(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Force a real connection now — a bad path should fail at startup,
	// not on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write is in flight; the default
	// rollback journal locks the whole file per write.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Off by default in SQLite; memories.owner_id references users.id.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Callers of New should defer this.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it
// idempotent, which is all a two-table schema needs.
//
// users.github_id is UNIQUE — this constraint is what resolves two
// concurrent first-time registrations for the same GitHub account: one
// INSERT wins, the other surfaces a conflict the auth flow turns into a
// re-read.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			github_id  INTEGER NOT NULL UNIQUE,
			name       TEXT NOT NULL,
			login      TEXT NOT NULL,
			avatar_url TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS memories (
			id         TEXT PRIMARY KEY,
			content    TEXT NOT NULL DEFAULT '',
			cover_url  TEXT NOT NULL DEFAULT '',
			is_public  INTEGER NOT NULL DEFAULT 0,
			owner_id   TEXT NOT NULL REFERENCES users(id),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_memories_created_at ON memories(created_at);
		CREATE INDEX IF NOT EXISTS idx_memories_owner_id ON memories(owner_id);
	`)
	if err != nil {
		return fmt.Errorf("creating memories table: %w", err)
	}

	return nil
}
