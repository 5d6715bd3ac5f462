package store

import (
	"context"
	"database/sql"
)

// sqliteSchema contains the DDL for all modelrun tables on SQLite.
// Each statement uses IF NOT EXISTS for idempotency.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS models (
		model_id    TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		seq         INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS runs (
		id          TEXT PRIMARY KEY,
		model_id    TEXT NOT NULL,
		owner_id    TEXT NOT NULL,
		status      TEXT NOT NULL DEFAULT 'queued',
		params      TEXT NOT NULL DEFAULT '{}',
		created_at  TEXT NOT NULL,
		finished_at TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS run_results (
		run_id     TEXT PRIMARY KEY REFERENCES runs(id),
		summary    TEXT NOT NULL DEFAULT '{}',
		table_rows TEXT NOT NULL DEFAULT '[]'
	)`,

	`CREATE INDEX IF NOT EXISTS idx_runs_owner_id ON runs(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_model_id ON runs(model_id)`,
}

// postgresSchema mirrors the SQLite DDL with native JSON and timestamp types.
var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS models (
		model_id    TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		seq         INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS runs (
		id          TEXT PRIMARY KEY,
		model_id    TEXT NOT NULL,
		owner_id    TEXT NOT NULL,
		status      TEXT NOT NULL DEFAULT 'queued',
		params      JSONB NOT NULL DEFAULT '{}',
		created_at  TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ
	)`,

	`CREATE TABLE IF NOT EXISTS run_results (
		run_id     TEXT PRIMARY KEY REFERENCES runs(id),
		summary    JSONB NOT NULL DEFAULT '{}',
		table_rows JSONB NOT NULL DEFAULT '[]'
	)`,

	`CREATE INDEX IF NOT EXISTS idx_runs_owner_id ON runs(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_model_id ON runs(model_id)`,
}

// migrate executes the given schema DDL statements in order.
func migrate(ctx context.Context, db *sql.DB, schema []string) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
