// Package store keeps the history of simulation runs in sqlite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Run is one finished simulation as recorded in the runs table.
type Run struct {
	ID            string
	StartedAt     time.Time
	Mode          string
	Capacity      int
	Items         uint64
	Delivered     uint64
	OrderErrors   uint64
	EnqueueFull   uint64
	DequeueEmpty  uint64
	ProducerSteps uint64
	ConsumerSteps uint64
	Duration      time.Duration
	Digest        string
	Result        string
}

// Store wraps the run history database.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY,
	started_at     INTEGER NOT NULL,
	mode           TEXT NOT NULL,
	capacity       INTEGER NOT NULL,
	items          INTEGER NOT NULL,
	delivered      INTEGER NOT NULL,
	order_errors   INTEGER NOT NULL,
	enqueue_full   INTEGER NOT NULL,
	dequeue_empty  INTEGER NOT NULL,
	producer_steps INTEGER NOT NULL,
	consumer_steps INTEGER NOT NULL,
	duration_ns    INTEGER NOT NULL,
	digest         TEXT NOT NULL,
	result         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_started_at ON runs(started_at);
`

// Open opens (creating if needed) the database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("store path is empty")
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open run database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to run database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts r.  IDs are unique; recording the same run twice fails.
func (s *Store) Record(ctx context.Context, r Run) error {
	if r.ID == "" {
		return errors.New("run has no ID")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (
			id, started_at, mode, capacity, items, delivered, order_errors,
			enqueue_full, dequeue_empty, producer_steps, consumer_steps,
			duration_ns, digest, result
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt.UnixNano(), r.Mode, r.Capacity,
		int64(r.Items), int64(r.Delivered), int64(r.OrderErrors),
		int64(r.EnqueueFull), int64(r.DequeueEmpty),
		int64(r.ProducerSteps), int64(r.ConsumerSteps),
		r.Duration.Nanoseconds(), r.Digest, r.Result,
	)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", r.ID, err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, mode, capacity, items, delivered, order_errors,
		       enqueue_full, dequeue_empty, producer_steps, consumer_steps,
		       duration_ns, digest, result
		FROM runs
		ORDER BY started_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r                                 Run
			started, duration                 int64
			items, delivered, orderErrs       int64
			full, empty, prodSteps, consSteps int64
		)
		if err := rows.Scan(
			&r.ID, &started, &r.Mode, &r.Capacity, &items, &delivered, &orderErrs,
			&full, &empty, &prodSteps, &consSteps, &duration, &r.Digest, &r.Result,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = time.Unix(0, started)
		r.Duration = time.Duration(duration)
		r.Items, r.Delivered, r.OrderErrors = uint64(items), uint64(delivered), uint64(orderErrs)
		r.EnqueueFull, r.DequeueEmpty = uint64(full), uint64(empty)
		r.ProducerSteps, r.ConsumerSteps = uint64(prodSteps), uint64(consSteps)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}
	return out, nil
}
