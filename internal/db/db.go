// Package db records lint run outcomes in Postgres.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps the Postgres connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// Open connects to the database at url and verifies the connection.
func Open(ctx context.Context, url string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &DB{pool: pool}, nil
}

// Close closes the pool.
func (d *DB) Close() {
	d.pool.Close()
}

const schemaV1 = `
CREATE TABLE IF NOT EXISTS lintpipe_schema_version (
    version    INTEGER PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS lint_runs (
    id          BIGSERIAL PRIMARY KEY,
    root        TEXT NOT NULL,
    mode        TEXT NOT NULL CHECK (mode IN ('check', 'autofix')),
    runtime     TEXT,
    success     BOOLEAN NOT NULL,
    aborted     BOOLEAN NOT NULL DEFAULT FALSE,
    exit_code   INTEGER NOT NULL,
    duration_ms BIGINT NOT NULL DEFAULT 0,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_lint_runs_root ON lint_runs(root, created_at DESC);

CREATE TABLE IF NOT EXISTS lint_stage_results (
    run_id      BIGINT NOT NULL REFERENCES lint_runs(id) ON DELETE CASCADE,
    position    INTEGER NOT NULL,
    stage       TEXT NOT NULL,
    role        TEXT NOT NULL,
    status      INTEGER NOT NULL,
    skipped     BOOLEAN NOT NULL DEFAULT FALSE,
    fallback    BOOLEAN NOT NULL DEFAULT FALSE,
    detail      TEXT,
    findings    JSONB,
    duration_ms BIGINT NOT NULL DEFAULT 0,
    PRIMARY KEY (run_id, position)
);
`

// Migrate applies the database schema.
func (d *DB) Migrate(ctx context.Context) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, schemaV1); err != nil {
		return fmt.Errorf("apply schema v1: %w", err)
	}
	if _, err := tx.Exec(ctx, "INSERT INTO lintpipe_schema_version (version) VALUES (1) ON CONFLICT DO NOTHING"); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit(ctx)
}
