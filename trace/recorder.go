// Package trace records garbage collection cycles into a SQLite database
// so runs can be compared offline.
package trace

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/chazu/tagheap/heap"
)

// ErrRunNotFound indicates the requested run has no recorded cycles.
var ErrRunNotFound = errors.New("run not found")

const schema = `CREATE TABLE IF NOT EXISTS cycles (
	run             TEXT    NOT NULL,
	cycle           INTEGER NOT NULL,
	requested_bytes INTEGER NOT NULL,
	used_bytes      INTEGER NOT NULL,
	live_bytes      INTEGER NOT NULL,
	live_objects    INTEGER NOT NULL,
	reclaimed_bytes INTEGER NOT NULL,
	space_words     INTEGER NOT NULL,
	new_space_words INTEGER NOT NULL,
	grew            INTEGER NOT NULL,
	static_roots    INTEGER NOT NULL,
	stack_roots     INTEGER NOT NULL,
	extra_roots     INTEGER NOT NULL,
	duration_ns     INTEGER NOT NULL,
	recorded_at     TEXT    NOT NULL,
	PRIMARY KEY (run, cycle)
)`

// Recorder persists heap.CycleStats rows. It implements heap.Observer; the
// first write error is kept and reported by Err and Close.
type Recorder struct {
	db     *sql.DB
	dbPath string
	run    string
	insert *sql.Stmt

	mu  sync.Mutex
	err error
}

// Open creates or opens the trace database at dbPath and starts a new run.
func Open(dbPath string) (*Recorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	insert, err := db.Prepare(`INSERT INTO cycles (
		run, cycle, requested_bytes, used_bytes, live_bytes, live_objects,
		reclaimed_bytes, space_words, new_space_words, grew,
		static_roots, stack_roots, extra_roots, duration_ns, recorded_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("preparing insert: %w", err)
	}

	return &Recorder{
		db:     db,
		dbPath: dbPath,
		run:    uuid.NewString(),
		insert: insert,
	}, nil
}

// Run returns the identifier of the run being recorded.
func (r *Recorder) Run() string {
	return r.run
}

// Path returns the database path.
func (r *Recorder) Path() string {
	return r.dbPath
}

// CycleDone records one cycle.
func (r *Recorder) CycleDone(s heap.CycleStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return
	}
	_, err := r.insert.Exec(
		r.run, s.Cycle, s.RequestedBytes, s.UsedBytes, s.LiveBytes, s.LiveObjects,
		s.ReclaimedBytes, s.SpaceWords, s.NewSpaceWords, s.Grew,
		s.StaticRoots, s.StackRoots, s.ExtraRoots, s.Duration.Nanoseconds(),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		r.err = fmt.Errorf("recording cycle %d: %w", s.Cycle, err)
	}
}

// Err returns the first error encountered while recording.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Cycles loads the recorded cycles of run in order.
func (r *Recorder) Cycles(run string) ([]heap.CycleStats, error) {
	rows, err := r.db.Query(`SELECT
		cycle, requested_bytes, used_bytes, live_bytes, live_objects,
		reclaimed_bytes, space_words, new_space_words, grew,
		static_roots, stack_roots, extra_roots, duration_ns
		FROM cycles WHERE run = ? ORDER BY cycle`, run)
	if err != nil {
		return nil, fmt.Errorf("querying cycles: %w", err)
	}
	defer rows.Close()

	var out []heap.CycleStats
	for rows.Next() {
		var s heap.CycleStats
		var ns int64
		if err := rows.Scan(
			&s.Cycle, &s.RequestedBytes, &s.UsedBytes, &s.LiveBytes, &s.LiveObjects,
			&s.ReclaimedBytes, &s.SpaceWords, &s.NewSpaceWords, &s.Grew,
			&s.StaticRoots, &s.StackRoots, &s.ExtraRoots, &ns,
		); err != nil {
			return nil, fmt.Errorf("scanning cycle: %w", err)
		}
		s.Duration = time.Duration(ns)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading cycles: %w", err)
	}
	if len(out) == 0 {
		return nil, ErrRunNotFound
	}
	return out, nil
}

// Summary aggregates one run.
type Summary struct {
	Run            string
	Cycles         int
	Growths        int
	ReclaimedBytes uint64
	MaxLiveBytes   uint64
	Total          time.Duration
}

// Summarize aggregates the cycles of run.
func (r *Recorder) Summarize(run string) (*Summary, error) {
	row := r.db.QueryRow(`SELECT
		COUNT(*), COALESCE(SUM(grew), 0), COALESCE(SUM(reclaimed_bytes), 0),
		COALESCE(MAX(live_bytes), 0), COALESCE(SUM(duration_ns), 0)
		FROM cycles WHERE run = ?`, run)

	s := &Summary{Run: run}
	var ns int64
	if err := row.Scan(&s.Cycles, &s.Growths, &s.ReclaimedBytes, &s.MaxLiveBytes, &ns); err != nil {
		return nil, fmt.Errorf("summarizing run: %w", err)
	}
	if s.Cycles == 0 {
		return nil, ErrRunNotFound
	}
	s.Total = time.Duration(ns)
	return s, nil
}

// Runs lists the recorded run identifiers, oldest first.
func (r *Recorder) Runs() ([]string, error) {
	rows, err := r.db.Query(`SELECT run FROM cycles GROUP BY run ORDER BY MIN(recorded_at)`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []string
	for rows.Next() {
		var run string
		if err := rows.Scan(&run); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Close closes the database connection.
func (r *Recorder) Close() error {
	err := r.Err()
	if r.insert != nil {
		r.insert.Close()
	}
	if r.db != nil {
		if cerr := r.db.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
