package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lucasnoah/lintpipe/internal/analytics"
	"github.com/lucasnoah/lintpipe/internal/pipeline"
)

// Run represents a row in the lint_runs table.
type Run struct {
	ID         int64
	Root       string
	Mode       string
	Runtime    string
	Success    bool
	Aborted    bool
	ExitCode   int
	DurationMs int64
	CreatedAt  time.Time
}

// StageRow represents a row in the lint_stage_results table.
type StageRow struct {
	Stage      string
	Role       string
	Status     int
	Skipped    bool
	Fallback   bool
	Detail     string
	Findings   map[string]int
	DurationMs int64
}

// LogRun stores an outcome and its stage results in one transaction and
// returns the new run ID.
func (d *DB) LogRun(ctx context.Context, root string, o *pipeline.Outcome, elapsed time.Duration) (int64, error) {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO lint_runs (root, mode, runtime, success, aborted, exit_code, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		root, string(o.Mode), o.Runtime, o.Success, o.Aborted, o.ExitCode, elapsed.Milliseconds(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	batch := &pgx.Batch{}
	for i, r := range o.Results {
		batch.Queue(
			`INSERT INTO lint_stage_results (run_id, position, stage, role, status, skipped, fallback, detail, findings, duration_ms)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			id, i, r.Stage, r.Role, r.Status, r.Skipped, r.Fallback, r.Detail, r.Findings, r.Duration.Milliseconds(),
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("insert stage results: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit run: %w", err)
	}
	return id, nil
}

// RecentRuns returns up to limit runs, newest first. An empty root lists runs
// for every project.
func (d *DB) RecentRuns(ctx context.Context, root string, limit int) ([]Run, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT id, root, mode, COALESCE(runtime, ''), success, aborted, exit_code, duration_ms, created_at
		 FROM lint_runs
		 WHERE $1 = '' OR root = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		root, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	runs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Run, error) {
		var r Run
		err := row.Scan(&r.ID, &r.Root, &r.Mode, &r.Runtime, &r.Success, &r.Aborted, &r.ExitCode, &r.DurationMs, &r.CreatedAt)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan runs: %w", err)
	}
	return runs, nil
}

// StageResults returns the stage rows of a run in pipeline order.
func (d *DB) StageResults(ctx context.Context, runID int64) ([]StageRow, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT stage, role, status, skipped, fallback, COALESCE(detail, ''), findings, duration_ms
		 FROM lint_stage_results WHERE run_id = $1 ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query stage results: %w", err)
	}

	stages, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (StageRow, error) {
		var s StageRow
		err := row.Scan(&s.Stage, &s.Role, &s.Status, &s.Skipped, &s.Fallback, &s.Detail, &s.Findings, &s.DurationMs)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan stage results: %w", err)
	}
	return stages, nil
}

// StageSamples returns every recorded stage result for root (all projects when
// root is empty) from runs created at or after since. Aborted runs have no
// stage rows and so contribute nothing.
func (d *DB) StageSamples(ctx context.Context, root string, since time.Time) ([]analytics.Sample, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT s.stage, s.status, s.skipped, s.fallback, s.findings, s.duration_ms
		 FROM lint_stage_results s
		 JOIN lint_runs r ON r.id = s.run_id
		 WHERE ($1 = '' OR r.root = $1) AND r.created_at >= $2
		 ORDER BY s.run_id, s.position`,
		root, since,
	)
	if err != nil {
		return nil, fmt.Errorf("query stage samples: %w", err)
	}

	samples, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (analytics.Sample, error) {
		var s analytics.Sample
		err := row.Scan(&s.Stage, &s.Status, &s.Skipped, &s.Fallback, &s.Findings, &s.DurationMs)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan stage samples: %w", err)
	}
	return samples, nil
}
