package production

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/comalice/simkernel/internal/core"
	"github.com/comalice/simkernel/internal/primitives"
)

const traceSchema = `
CREATE TABLE IF NOT EXISTS lifecycle (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    sim_id TEXT NOT NULL,
    process_id INTEGER NOT NULL,
    process TEXT NOT NULL,
    kind TEXT NOT NULL,
    transition TEXT NOT NULL,
    delta INTEGER NOT NULL,
    recorded_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_lifecycle_process ON lifecycle(sim_id, process);
`

// SQLiteTraceStore is a LifecyclePublisher that appends every record to a
// SQLite table so a run can be inspected afterwards.
type SQLiteTraceStore struct {
	mu     sync.Mutex
	db     *sql.DB
	closed bool
}

// NewSQLiteTraceStore opens (or creates) the trace database at path.
// ":memory:" is accepted for tests.
func NewSQLiteTraceStore(ctx context.Context, path string) (*SQLiteTraceStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create trace directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, traceSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize trace schema: %w", err)
	}
	return &SQLiteTraceStore{db: db}, nil
}

// Publish inserts rec.
func (s *SQLiteTraceStore) Publish(ctx context.Context, rec core.LifecycleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return sql.ErrConnDone
	}
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lifecycle (sim_id, process_id, process, kind, transition, delta, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.SimID, int64(rec.ProcessID), rec.Process, rec.Kind.String(), rec.Transition,
		int64(rec.Delta), ts.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert lifecycle record: %w", err)
	}
	return nil
}

// Records returns the stored records in insertion order. An empty process
// returns every record.
func (s *SQLiteTraceStore) Records(ctx context.Context, process string) ([]core.LifecycleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, sql.ErrConnDone
	}

	query := `SELECT sim_id, process_id, process, kind, transition, delta, recorded_at FROM lifecycle`
	var args []any
	if process != "" {
		query += ` WHERE process = ?`
		args = append(args, process)
	}
	query += ` ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query lifecycle: %w", err)
	}
	defer rows.Close()

	var out []core.LifecycleRecord
	for rows.Next() {
		var (
			rec        core.LifecycleRecord
			pid, delta int64
			kind, ts   string
		)
		if err := rows.Scan(&rec.SimID, &pid, &rec.Process, &kind, &rec.Transition, &delta, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan lifecycle row: %w", err)
		}
		rec.ProcessID = primitives.ProcessID(pid)
		rec.Delta = uint64(delta)
		if rec.Kind, err = primitives.ParseKind(kind); err != nil {
			return nil, err
		}
		if rec.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("failed to parse timestamp %q: %w", ts, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the database. Subsequent calls are no-ops.
func (s *SQLiteTraceStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
