package database

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id              TEXT PRIMARY KEY,
		username        TEXT NOT NULL UNIQUE,
		hashed_password TEXT NOT NULL,
		role            TEXT NOT NULL DEFAULT 'user',
		created_at      TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS tracked_handles (
		handle     TEXT PRIMARY KEY,
		added_by   TEXT REFERENCES users(id) ON DELETE SET NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS snapshots (
		id           TEXT PRIMARY KEY,
		handle       TEXT NOT NULL,
		rating       INTEGER NOT NULL DEFAULT 0,
		max_rating   INTEGER NOT NULL DEFAULT 0,
		rank         TEXT NOT NULL DEFAULT '',
		total_solved INTEGER NOT NULL DEFAULT 0,
		payload      JSONB NOT NULL,
		fetched_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS snapshots_handle_fetched_at_idx ON snapshots (handle, fetched_at DESC)`,
	`CREATE TABLE IF NOT EXISTS refresh_jobs (
		id          TEXT PRIMARY KEY,
		handle      TEXT NOT NULL,
		reason      TEXT NOT NULL,
		status      TEXT NOT NULL,
		attempts    INTEGER NOT NULL DEFAULT 0,
		last_error  TEXT,
		snapshot_id TEXT,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

// EnsureSchema creates missing tables. Handles are stored lower-cased.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("database.EnsureSchema: %w", err)
		}
	}
	return nil
}
