package recorder

import (
	"context"
	"database/sql"
	"fmt"
)

// schema contains the DDL for all recorder tables.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id           TEXT PRIMARY KEY,
		level        TEXT NOT NULL,
		seed         INTEGER NOT NULL,
		started_at   TEXT NOT NULL,
		ended_at     TEXT,
		elapsed      INTEGER NOT NULL DEFAULT 0,
		finished     INTEGER NOT NULL DEFAULT 0,
		missed       INTEGER NOT NULL DEFAULT 0,
		success      INTEGER NOT NULL DEFAULT 0,
		summary      TEXT NOT NULL DEFAULT '{}'
	)`,

	`CREATE TABLE IF NOT EXISTS ticks (
		run_id     TEXT NOT NULL,
		tick       INTEGER NOT NULL,
		phase      TEXT NOT NULL,
		ready_len  INTEGER NOT NULL,
		io_len     INTEGER NOT NULL,
		busy_cpus  INTEGER NOT NULL,
		cpus       INTEGER NOT NULL,
		finished   INTEGER NOT NULL,
		missed     INTEGER NOT NULL,
		in_system  INTEGER NOT NULL,
		PRIMARY KEY (run_id, tick)
	)`,

	`CREATE TABLE IF NOT EXISTS commands (
		run_id     TEXT NOT NULL,
		seq        INTEGER NOT NULL,
		tick       INTEGER NOT NULL,
		command    TEXT NOT NULL,
		process_id INTEGER NOT NULL,
		cpu_id     INTEGER NOT NULL,
		accepted   INTEGER NOT NULL,
		reason     TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (run_id, seq)
	)`,

	`CREATE TABLE IF NOT EXISTS lifecycle (
		run_id      TEXT NOT NULL,
		seq         INTEGER NOT NULL,
		tick        INTEGER NOT NULL,
		process_id  INTEGER NOT NULL,
		name        TEXT NOT NULL,
		event       TEXT NOT NULL,
		waiting     INTEGER NOT NULL DEFAULT 0,
		turnaround  INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (run_id, seq)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_runs_level ON runs(level)`,
	`CREATE INDEX IF NOT EXISTS idx_lifecycle_event ON lifecycle(run_id, event)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
