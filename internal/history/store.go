// Package history keeps a SQLite log of evaluation runs and their
// per-threshold metrics, so results can be compared across runs.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jamesainslie/go-stdesc/evaluation"
	"github.com/jamesainslie/go-stdesc/report"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id         TEXT PRIMARY KEY,
	sequence_id    TEXT NOT NULL,
	generated_at   TEXT NOT NULL,
	first_scan     INTEGER NOT NULL,
	last_scan      INTEGER NOT NULL,
	dir            TEXT NOT NULL,
	predictions    INTEGER NOT NULL,
	best_threshold REAL,
	best_f1        REAL
);

CREATE INDEX IF NOT EXISTS runs_by_sequence ON runs (sequence_id, generated_at);

CREATE TABLE IF NOT EXISTS metrics (
	run_id          TEXT NOT NULL,
	threshold       REAL NOT NULL,
	true_positives  INTEGER NOT NULL,
	false_positives INTEGER NOT NULL,
	false_negatives INTEGER NOT NULL,
	precision       REAL NOT NULL,
	recall          REAL NOT NULL,
	f1              REAL NOT NULL,
	PRIMARY KEY (run_id, threshold),
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
`

// timeLayout is fixed width so generated_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one recorded evaluation run.
type Run struct {
	ID          string
	SequenceID  string
	GeneratedAt time.Time
	First, Last int
	Dir         string
	Predictions int

	// Evaluated is false for runs without ground truth; the Best fields
	// are then zero.
	Evaluated     bool
	BestThreshold float64
	BestF1        float64
}

// Store manages the run history database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and runs migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a persisted run and, when evaluated, its metrics.
func (s *Store) Record(ctx context.Context, run report.RunInfo, dir string, res *evaluation.Results) error {
	metrics := res.Metrics()
	var bestThreshold, bestF1 sql.NullFloat64
	if best, ok := evaluation.Best(metrics); ok {
		bestThreshold = sql.NullFloat64{Float64: best.Threshold, Valid: true}
		bestF1 = sql.NullFloat64{Float64: best.F1, Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, sequence_id, generated_at, first_scan, last_scan, dir, predictions, best_threshold, best_f1)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, res.SequenceID(), run.GeneratedAt.UTC().Format(timeLayout),
		run.First, run.Last, dir, len(res.Predictions()), bestThreshold, bestF1,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, m := range metrics {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO metrics (run_id, threshold, true_positives, false_positives, false_negatives, precision, recall, f1)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, m.Threshold, m.TruePositives, m.FalsePositives, m.FalseNegatives, m.Precision, m.Recall, m.F1,
		)
		if err != nil {
			return fmt.Errorf("insert metrics %v: %w", m.Threshold, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Runs lists recorded runs, newest first. An empty sequenceID lists every
// sequence; limit <= 0 means no limit.
func (s *Store) Runs(ctx context.Context, sequenceID string, limit int) ([]Run, error) {
	query := `SELECT run_id, sequence_id, generated_at, first_scan, last_scan, dir, predictions, best_threshold, best_f1
		FROM runs WHERE (? = '' OR sequence_id = ?) ORDER BY generated_at DESC, run_id`
	args := []any{sequenceID, sequenceID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var (
			r             Run
			generatedAt   string
			bestThreshold sql.NullFloat64
			bestF1        sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &r.SequenceID, &generatedAt, &r.First, &r.Last, &r.Dir,
			&r.Predictions, &bestThreshold, &bestF1); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.GeneratedAt, err = time.Parse(timeLayout, generatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse generated_at: %w", err)
		}
		r.Evaluated = bestThreshold.Valid
		r.BestThreshold = bestThreshold.Float64
		r.BestF1 = bestF1.Float64
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Metrics returns the per-threshold metrics of a run in ascending threshold
// order. Runs without ground truth have none.
func (s *Store) Metrics(ctx context.Context, runID string) ([]evaluation.Metrics, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT threshold, true_positives, false_positives, false_negatives, precision, recall, f1
		 FROM metrics WHERE run_id = ? ORDER BY threshold`, runID)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []evaluation.Metrics
	for rows.Next() {
		var m evaluation.Metrics
		if err := rows.Scan(&m.Threshold, &m.TruePositives, &m.FalsePositives, &m.FalseNegatives,
			&m.Precision, &m.Recall, &m.F1); err != nil {
			return nil, fmt.Errorf("scan metrics: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Persister is the part of a results writer the history wraps.
type Persister interface {
	Persist(res *evaluation.Results, run report.RunInfo) (string, error)
}

// RecordingPersister persists through Next, then records the run.
type RecordingPersister struct {
	Next  Persister
	Store *Store
}

// Persist implements the pipeline's Persister.
func (p RecordingPersister) Persist(res *evaluation.Results, run report.RunInfo) (string, error) {
	dir, err := p.Next.Persist(res, run)
	if err != nil {
		return "", err
	}
	// The files are already on disk, so the history row is written even if
	// the caller has given up on the run.
	if err := p.Store.Record(context.Background(), run, dir, res); err != nil {
		return "", fmt.Errorf("recording history: %w", err)
	}
	return dir, nil
}
