// Package recorder persists level runs to SQLite: one row per run, one row
// per processed tick, and the command and lifecycle trace. It implements
// sim.TelemetrySink so a controller can stream into it directly.
package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
	"github.com/tebeka/atexit"

	"github.com/procsched/schedsim/sim"
	"github.com/procsched/schedsim/sim/trace"

	_ "modernc.org/sqlite"
)

// DefaultBatchSize is the number of buffered tick rows that triggers a flush.
const DefaultBatchSize = 1000

type tickRow struct {
	tick     int64
	phase    string
	readyLen int
	ioLen    int
	busyCPUs int
	cpus     int
	finished int
	missed   int
	inSystem int
}

// Recorder writes level telemetry into a SQLite database. Tick rows are
// buffered and written in one transaction per batch.
//
// Thread-safety: safe for concurrent use; the exit handler may flush from
// another goroutine.
type Recorder struct {
	mu        sync.Mutex
	db        *sql.DB
	runID     string
	batchSize int
	pending   []tickRow
	closed    bool
	err       error // first error seen by a sink callback
}

// Open opens (or creates) a SQLite database at path and migrates it.
// Use ":memory:" for an in-memory database (useful in tests).
// Buffered rows are flushed on process exit via atexit.
func Open(ctx context.Context, path string) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	r := &Recorder{db: db, batchSize: DefaultBatchSize}
	atexit.Register(func() {
		if err := r.Flush(); err != nil {
			logrus.Warnf("recorder: flush on exit: %v", err)
		}
	})
	return r, nil
}

// SetBatchSize changes the flush threshold. Values below 1 mean 1.
func (r *Recorder) SetBatchSize(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batchSize = max(n, 1)
}

// StartRun registers a new run and makes it the target of subsequent
// callbacks. Any rows buffered for the previous run are flushed first.
func (r *Recorder) StartRun(ctx context.Context, level string, seed int64) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.flushLocked(ctx); err != nil {
		return "", err
	}
	id := xid.New().String()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO runs (id, level, seed, started_at) VALUES (?, ?, ?, ?)`,
		id, level, seed, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	r.runID = id
	logrus.Debugf("recorder: started run %s for level %q", id, level)
	return id, nil
}

// RunID returns the current run id ("" before StartRun).
func (r *Recorder) RunID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runID
}

// OnTick buffers one tick row.
func (r *Recorder) OnTick(snap *sim.LevelSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.runID == "" || r.closed {
		return
	}
	busy := 0
	for _, c := range snap.CPUs {
		if c.State == sim.CPURunning {
			busy++
		}
	}
	r.pending = append(r.pending, tickRow{
		tick:     snap.Tick,
		phase:    string(snap.Phase),
		readyLen: len(snap.ReadyQueue),
		ioLen:    len(snap.IOQueue),
		busyCPUs: busy,
		cpus:     len(snap.CPUs),
		finished: snap.Finished,
		missed:   snap.Missed,
		inSystem: snap.InSystem,
	})
	if len(r.pending) >= r.batchSize {
		r.noteErr(r.flushLocked(context.Background()))
	}
}

// OnLevelOver flushes buffered ticks and stores the final summary on the run row.
func (r *Recorder) OnLevelOver(summary sim.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.runID == "" || r.closed {
		return
	}
	ctx := context.Background()
	if err := r.flushLocked(ctx); err != nil {
		r.noteErr(err)
		return
	}
	blob, err := json.Marshal(summary)
	if err != nil {
		r.noteErr(fmt.Errorf("marshal summary: %w", err))
		return
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE runs SET ended_at = ?, elapsed = ?, finished = ?, missed = ?, success = ?, summary = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), summary.ElapsedTicks, summary.FinishedProcesses,
		summary.MissedProcesses, boolInt(summary.Success), string(blob), r.runID)
	r.noteErr(err)
}

// RecordTrace stores every command and lifecycle record of st under the current run.
func (r *Recorder) RecordTrace(ctx context.Context, st *trace.SimulationTrace) error {
	if st == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.runID == "" {
		return fmt.Errorf("record trace: no run started")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for i, c := range st.Commands {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO commands (run_id, seq, tick, command, process_id, cpu_id, accepted, reason) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.runID, i, c.Tick, c.Command, c.ProcessID, c.CPUID, boolInt(c.Accepted), c.Reason); err != nil {
			return fmt.Errorf("insert command: %w", err)
		}
	}
	for i, lr := range st.Lifecycle {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO lifecycle (run_id, seq, tick, process_id, name, event, waiting, turnaround) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.runID, i, lr.Tick, lr.ProcessID, lr.Name, lr.Event, lr.WaitingTime, lr.TurnaroundTime); err != nil {
			return fmt.Errorf("insert lifecycle: %w", err)
		}
	}
	return tx.Commit()
}

// Flush writes all buffered tick rows.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushLocked(context.Background())
}

func (r *Recorder) flushLocked(ctx context.Context) error {
	if len(r.pending) == 0 || r.closed {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO ticks (run_id, tick, phase, ready_len, io_len, busy_cpus, cpus, finished, missed, in_system)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, row := range r.pending {
		if _, err := stmt.ExecContext(ctx, r.runID, row.tick, row.phase, row.readyLen, row.ioLen,
			row.busyCPUs, row.cpus, row.finished, row.missed, row.inSystem); err != nil {
			return fmt.Errorf("insert tick %d: %w", row.tick, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	logrus.Debugf("recorder: flushed %d ticks for run %s", len(r.pending), r.runID)
	r.pending = r.pending[:0]
	return nil
}

// Err returns the first error a sink callback ran into, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Recorder) noteErr(err error) {
	if err == nil {
		return
	}
	logrus.Warnf("recorder: %v", err)
	if r.err == nil {
		r.err = err
	}
}

// Close flushes buffered rows and closes the database.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	flushErr := r.flushLocked(context.Background())
	r.closed = true
	if err := r.db.Close(); err != nil {
		return err
	}
	return flushErr
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
