package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RunRecord is one row of the runs table.
type RunRecord struct {
	ID        string
	Level     string
	Seed      int64
	StartedAt time.Time
	Ended     bool
	Elapsed   int64
	Finished  int
	Missed    int
	Success   bool
}

// ListRuns returns the most recent runs, newest first. limit <= 0 means all.
func (r *Recorder) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	q := `SELECT id, level, seed, started_at, ended_at, elapsed, finished, missed, success
	      FROM runs ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		var started string
		var ended sql.NullString
		var success int
		if err := rows.Scan(&rec.ID, &rec.Level, &rec.Seed, &started, &ended,
			&rec.Elapsed, &rec.Finished, &rec.Missed, &success); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		rec.Ended = ended.Valid
		rec.Success = success != 0
		out = append(out, rec)
	}
	return out, rows.Err()
}

// TickCount returns the number of tick rows stored for runID.
func (r *Recorder) TickCount(ctx context.Context, runID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ticks WHERE run_id = ?`, runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count ticks: %w", err)
	}
	return n, nil
}

// EventCounts returns lifecycle event counts (spawned, finished, missed) for runID.
func (r *Recorder) EventCounts(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT event, COUNT(*) FROM lifecycle WHERE run_id = ? GROUP BY event`, runID)
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var event string
		var n int
		if err := rows.Scan(&event, &n); err != nil {
			return nil, fmt.Errorf("scan event count: %w", err)
		}
		out[event] = n
	}
	return out, rows.Err()
}

// CommandCount returns the number of command rows stored for runID.
func (r *Recorder) CommandCount(ctx context.Context, runID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM commands WHERE run_id = ?`, runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count commands: %w", err)
	}
	return n, nil
}
