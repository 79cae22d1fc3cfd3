// Package runstore keeps a SQLite history of fit runs.
package runstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Run describes one completed fit
type Run struct {
	ID              uuid.UUID
	Dataset         string
	Algorithm       string
	Model           string
	Rows            int
	Cols            int
	TargetDimension int
	Iterations      int
	LearningRate    float64
	Depth           int
	RandomState     uint64
	Duration        time.Duration
	CacheHit        bool
	CreatedAt       time.Time
}

// migrations are applied in order; the index of the last applied one is kept in user_version.
var migrations = []string{
	`CREATE TABLE runs (
		id TEXT PRIMARY KEY,
		dataset TEXT NOT NULL,
		algorithm TEXT NOT NULL,
		model TEXT NOT NULL,
		num_rows INTEGER NOT NULL,
		num_cols INTEGER NOT NULL,
		target_dimension INTEGER NOT NULL,
		iterations INTEGER NOT NULL,
		learning_rate REAL NOT NULL,
		depth INTEGER NOT NULL,
		random_state TEXT NOT NULL,
		duration_ns INTEGER NOT NULL,
		created_at_ns INTEGER NOT NULL
	)`,
	`CREATE INDEX runs_created_at ON runs (created_at_ns DESC)`,
	`ALTER TABLE runs ADD COLUMN cache_hit INTEGER NOT NULL DEFAULT 0`,
}

// Store persists runs in a SQLite database
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies pending migrations.
// ":memory:" gives a private in-memory store.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run store: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for i := version; i < len(migrations); i++ {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", i+1, err)
		}
		if _, err := tx.ExecContext(ctx, migrations[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to apply migration %d: %w", i+1, err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, i+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", i+1, err)
		}
		log.Debug().Int("version", i+1).Msg("Applied run store migration")
	}
	return nil
}

// Record stores run, assigning an ID and creation time when they are unset.
func (s *Store) Record(ctx context.Context, run *Run) error {
	if run == nil || run.Algorithm == "" || run.Dataset == "" {
		return fmt.Errorf("%w: dataset and algorithm are required", ErrInvalidRun)
	}
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO runs (
		id, dataset, algorithm, model, num_rows, num_cols, target_dimension, iterations,
		learning_rate, depth, random_state, duration_ns, created_at_ns, cache_hit
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.Dataset, run.Algorithm, run.Model, run.Rows, run.Cols,
		run.TargetDimension, run.Iterations, run.LearningRate, run.Depth,
		fmt.Sprint(run.RandomState), int64(run.Duration), run.CreatedAt.UnixNano(), run.CacheHit,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	log.Debug().Str("run_id", run.ID.String()).Str("algorithm", run.Algorithm).Msg("Recorded run")
	return nil
}

const selectRuns = `SELECT id, dataset, algorithm, model, num_rows, num_cols, target_dimension,
	iterations, learning_rate, depth, random_state, duration_ns, created_at_ns, cache_hit
	FROM runs`

// Get returns the run with the given ID
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Run, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+` WHERE id = ?`, id.String())
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// List returns up to limit runs, newest first. A non-positive limit returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, selectRuns+` ORDER BY created_at_ns DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run         Run
		id          string
		randomState string
		durationNs  int64
		createdAtNs int64
	)
	err := row.Scan(
		&id, &run.Dataset, &run.Algorithm, &run.Model, &run.Rows, &run.Cols,
		&run.TargetDimension, &run.Iterations, &run.LearningRate, &run.Depth,
		&randomState, &durationNs, &createdAtNs, &run.CacheHit,
	)
	if err != nil {
		return nil, err
	}

	if run.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", id, err)
	}
	if _, err := fmt.Sscan(randomState, &run.RandomState); err != nil {
		return nil, fmt.Errorf("invalid random state %q: %w", randomState, err)
	}
	run.Duration = time.Duration(durationNs)
	run.CreatedAt = time.Unix(0, createdAtNs).UTC()
	return &run, nil
}
