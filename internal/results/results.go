// Package results persists batch-analysis outcomes in a SQLite database so
// long runs over contract directories can be compared afterwards without
// re-parsing the CSV summary.
package results

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/pilati06/recall/internal/export"
)

// Row is one analyzed contract file's outcome.
type Row struct {
	Run     uuid.UUID
	File    string
	Metrics export.Metrics
	Obs     string
	At      time.Time
}

// Store wraps the results database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the results database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening results db: %w", err)
	}

	st := &Store{db: db}
	if err := st.init(); err != nil {
		db.Close()
		return nil, err
	}
	return st, nil
}

func (s *Store) init() error {
	stmt := `CREATE TABLE IF NOT EXISTS batch_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run TEXT NOT NULL,
		file TEXT NOT NULL,
		time_ms INTEGER NOT NULL,
		states INTEGER NOT NULL,
		transitions INTEGER NOT NULL,
		individuals INTEGER NOT NULL,
		actions INTEGER NOT NULL,
		conflicting INTEGER NOT NULL,
		conflict_count INTEGER NOT NULL,
		automaton_size_mb REAL NOT NULL,
		max_memory_mb REAL NOT NULL,
		obs TEXT NOT NULL,
		recorded_at INTEGER NOT NULL
	);`

	if _, err := s.db.Exec(stmt); err != nil {
		return fmt.Errorf("creating batch_results table: %w", err)
	}
	return nil
}

// Record inserts one row.
func (s *Store) Record(ctx context.Context, r Row) error {
	conflicting := 0
	if r.Metrics.ConflictFound {
		conflicting = 1
	}

	at := r.At
	if at.IsZero() {
		at = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO batch_results
		(run, file, time_ms, states, transitions, individuals, actions,
		 conflicting, conflict_count, automaton_size_mb, max_memory_mb, obs, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Run.String(), r.File, r.Metrics.TimeMS, r.Metrics.States,
		r.Metrics.Transitions, r.Metrics.Individuals, r.Metrics.Actions,
		conflicting, r.Metrics.ConflictCount, r.Metrics.SizeMB,
		r.Metrics.PeakMemMB, r.Obs, at.Unix(),
	)
	if err != nil {
		return fmt.Errorf("recording result for %s: %w", r.File, err)
	}
	return nil
}

// ForRun returns the rows recorded under one run id, in insertion order.
func (s *Store) ForRun(ctx context.Context, run uuid.UUID) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT file, time_ms, states, transitions,
		individuals, actions, conflicting, conflict_count, automaton_size_mb,
		max_memory_mb, obs, recorded_at
		FROM batch_results WHERE run = ? ORDER BY id`, run.String())
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		r := Row{Run: run}
		var conflicting int
		var at int64

		err := rows.Scan(&r.File, &r.Metrics.TimeMS, &r.Metrics.States,
			&r.Metrics.Transitions, &r.Metrics.Individuals, &r.Metrics.Actions,
			&conflicting, &r.Metrics.ConflictCount, &r.Metrics.SizeMB,
			&r.Metrics.PeakMemMB, &r.Obs, &at)
		if err != nil {
			return nil, fmt.Errorf("scanning result row: %w", err)
		}

		r.Metrics.ConflictFound = conflicting != 0
		r.At = time.Unix(at, 0)
		out = append(out, r)
	}

	return out, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
