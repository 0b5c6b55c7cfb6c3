// Package history keeps a SQLite record of benchmark runs and their results.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	// import the sqlite driver - "sqlite"
	_ "modernc.org/sqlite"

	"github.com/prime3679/bishop-bench/internal/result"
	"github.com/prime3679/bishop-bench/internal/runner"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL,
    artifact TEXT NOT NULL,
    completed INTEGER NOT NULL,
    failed INTEGER NOT NULL,
    cost_usd REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
    id INTEGER PRIMARY KEY,
    run_id TEXT NOT NULL REFERENCES runs (id),
    task_name TEXT NOT NULL,
    model_id TEXT NOT NULL,
    run_index INTEGER NOT NULL,
    completed INTEGER NOT NULL,
    latency_ms INTEGER NOT NULL,
    total_tokens INTEGER NOT NULL,
    cost_usd REAL NOT NULL,
    entity TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_results_run
ON results (run_id);
`

// timeLayout is fixed width so that text order of stored times is time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// RunRecord summarizes one stored run.
type RunRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Artifact   string
	Completed  int
	Failed     int
	CostUSD    float64
}

type Store struct {
	pool   *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path and ensures the schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	pool, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}
	pool.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging history db: %w", err)
	}
	if _, err := pool.ExecContext(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	logger.Debug("History store ready", "path", path)
	return &Store{pool: pool, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.pool.Close()
}

// RecordRun stores the run summary and every result in one transaction.
// artifactPath is the eval file the run was saved to.
func (s *Store) RecordRun(ctx context.Context, run *runner.Run, artifactPath string) error {
	completed, failed, cost := run.Summary()
	rec := RunRecord{
		ID:         run.ID,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Artifact:   artifactPath,
		Completed:  completed,
		Failed:     failed,
		CostUSD:    cost,
	}
	results := run.Results

	tx, err := s.pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, artifact, completed, failed, cost_usd) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.StartedAt.UTC().Format(timeLayout), rec.FinishedAt.UTC().Format(timeLayout),
		rec.Artifact, rec.Completed, rec.Failed, rec.CostUSD)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", rec.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO results (run_id, task_name, model_id, run_index, completed, latency_ms, total_tokens, cost_usd, entity) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing result insert: %w", err)
	}
	defer stmt.Close()
	for _, r := range results {
		entity, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshaling result: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, rec.ID, r.TaskName, r.ModelID, r.RunIndex, r.Completed,
			r.LatencyMs, r.TotalTokens, r.CostUSD, string(entity)); err != nil {
			return fmt.Errorf("inserting result: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run %s: %w", rec.ID, err)
	}
	s.logger.Info("Recorded run in history", "run_id", rec.ID, "results", len(results))
	return nil
}

// ListRuns returns up to limit runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.QueryContext(ctx,
		`SELECT id, started_at, finished_at, artifact, completed, failed, cost_usd FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var rec RunRecord
		var started, finished string
		if err := rows.Scan(&rec.ID, &started, &finished, &rec.Artifact, &rec.Completed, &rec.Failed, &rec.CostUSD); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		rec.StartedAt, _ = time.Parse(timeLayout, started)
		rec.FinishedAt, _ = time.Parse(timeLayout, finished)
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}

// Results returns the stored results of a run in insertion order.
func (s *Store) Results(ctx context.Context, runID string) ([]*result.Result, error) {
	rows, err := s.pool.QueryContext(ctx, `SELECT entity FROM results WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	var results []*result.Result
	for rows.Next() {
		var entity string
		if err := rows.Scan(&entity); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		var r result.Result
		if err := json.Unmarshal([]byte(entity), &r); err != nil {
			return nil, fmt.Errorf("decoding result: %w", err)
		}
		results = append(results, &r)
	}
	return results, rows.Err()
}
