// Package sqlite implements the repository interfaces on SQLite.
//
// modernc.org/sqlite is a pure-Go translation of SQLite, no CGo, so the
// binary cross-compiles anywhere Go runs. Tests open ":memory:" databases.
//
// The original system sat on a document store with per-collection unique
// `id` fields and atomic single-document operations ($addToSet, upsert).
// Those semantics map here onto INSERT OR IGNORE into the enrollments table
// and INSERT ... ON CONFLICT DO UPDATE for progress. Single statements, so
// no application-level locking is needed.
package sqlite

import (
	"database/sql"
	"fmt"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements the repository interfaces.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" for an ephemeral database in tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in flight, required for
	// a request-per-goroutine web server sharing one pool.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

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

// Close closes the connection pool. Call it once, after the HTTP server has
// drained.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id            TEXT PRIMARY KEY,
				email         TEXT NOT NULL UNIQUE,
				name          TEXT NOT NULL,
				picture       TEXT NOT NULL DEFAULT '',
				password_hash TEXT NOT NULL DEFAULT '',
				badges        TEXT NOT NULL DEFAULT '[]',
				streak_count  INTEGER NOT NULL DEFAULT 0,
				created_at    DATETIME NOT NULL,
				last_login    DATETIME NOT NULL
			);
		`},
		{"enrollments", `
			CREATE TABLE IF NOT EXISTS enrollments (
				user_id   TEXT NOT NULL REFERENCES users(id),
				course_id TEXT NOT NULL,
				PRIMARY KEY (user_id, course_id)
			);
		`},
		{"sessions", `
			CREATE TABLE IF NOT EXISTS sessions (
				id         TEXT PRIMARY KEY,
				user_id    TEXT NOT NULL REFERENCES users(id),
				token      TEXT NOT NULL UNIQUE,
				expires_at DATETIME NOT NULL,
				created_at DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id);
		`},
		{"courses", `
			CREATE TABLE IF NOT EXISTS courses (
				id         TEXT PRIMARY KEY,
				user_id    TEXT NOT NULL REFERENCES users(id),
				topic      TEXT NOT NULL,
				language   TEXT NOT NULL,
				mode       TEXT NOT NULL,
				created_at DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_courses_user_id ON courses(user_id);
		`},
		{"lessons", `
			CREATE TABLE IF NOT EXISTS lessons (
				id        TEXT PRIMARY KEY,
				course_id TEXT NOT NULL REFERENCES courses(id),
				title     TEXT NOT NULL,
				content   TEXT NOT NULL,
				video_id  TEXT NOT NULL DEFAULT '',
				ord       INTEGER NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_lessons_course_id ON lessons(course_id);
		`},
		{"course_videos", `
			CREATE TABLE IF NOT EXISTS course_videos (
				course_id        TEXT NOT NULL REFERENCES courses(id),
				position         INTEGER NOT NULL,
				video_id         TEXT NOT NULL,
				title            TEXT NOT NULL,
				duration         TEXT NOT NULL,
				view_count       INTEGER NOT NULL,
				channel_name     TEXT NOT NULL,
				thumbnail_url    TEXT NOT NULL,
				engagement_score REAL NOT NULL,
				PRIMARY KEY (course_id, position)
			);
		`},
		{"progress", `
			CREATE TABLE IF NOT EXISTS progress (
				id                TEXT PRIMARY KEY,
				user_id           TEXT NOT NULL REFERENCES users(id),
				course_id         TEXT NOT NULL,
				topic             TEXT NOT NULL,
				language          TEXT NOT NULL,
				mode              TEXT NOT NULL,
				lessons_completed TEXT NOT NULL DEFAULT '[]',
				quiz_scores       TEXT NOT NULL DEFAULT '{}',
				notes             TEXT NOT NULL DEFAULT '{}',
				created_at        DATETIME NOT NULL,
				updated_at        DATETIME NOT NULL,
				UNIQUE (user_id, course_id)
			);
		`},
	}

	for _, s := range stmts {
		if _, err := db.conn.Exec(s.sql); err != nil {
			return fmt.Errorf("creating %s table: %w", s.name, err)
		}
	}
	return nil
}
