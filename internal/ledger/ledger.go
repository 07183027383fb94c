// Package ledger records training runs in a local SQLite database.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY,
	created_at     TEXT NOT NULL,
	dataset_path   TEXT NOT NULL,
	row_count      INTEGER NOT NULL,
	seed           INTEGER NOT NULL,
	winner         TEXT NOT NULL,
	baseline_cv    REAL NOT NULL,
	forest_cv      REAL NOT NULL,
	test_accuracy  REAL NOT NULL,
	best_params    TEXT NOT NULL DEFAULT '',
	artifact_path  TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

// timeLayout sorts lexicographically in time order for UTC values.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one training run.
type Run struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	DatasetPath  string    `json:"dataset_path"`
	Rows         int       `json:"rows"`
	Seed         int64     `json:"seed"`
	Winner       string    `json:"winner"`
	BaselineCV   float64   `json:"baseline_cv"`
	ForestCV     float64   `json:"forest_cv"`
	TestAccuracy float64   `json:"test_accuracy"`
	BestParams   string    `json:"best_params,omitempty"` // JSON
	ArtifactPath string    `json:"artifact_path,omitempty"`
}

// Ledger is an open run database.
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the ledger at path.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ledger ping failed: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create ledger schema: %w", err)
	}
	return &Ledger{db: db, now: time.Now}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record inserts r, assigning an ID and creation time when they are unset.
// The stored run is returned.
func (l *Ledger) Record(ctx context.Context, r Run) (Run, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = l.now()
	}
	r.CreatedAt = r.CreatedAt.UTC()
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, dataset_path, row_count, seed, winner, baseline_cv, forest_cv, test_accuracy, best_params, artifact_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CreatedAt.Format(timeLayout), r.DatasetPath, r.Rows, r.Seed, r.Winner,
		r.BaselineCV, r.ForestCV, r.TestAccuracy, r.BestParams, r.ArtifactPath)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}
	return r, nil
}

// List returns up to limit runs, newest first. limit <= 0 returns all.
func (l *Ledger) List(ctx context.Context, limit int) ([]Run, error) {
	q := `SELECT id, created_at, dataset_path, row_count, seed, winner, baseline_cv, forest_cv, test_accuracy, best_params, artifact_path
		FROM runs ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Run
	for rows.Next() {
		var r Run
		var created string
		if err := rows.Scan(&r.ID, &created, &r.DatasetPath, &r.Rows, &r.Seed, &r.Winner,
			&r.BaselineCV, &r.ForestCV, &r.TestAccuracy, &r.BestParams, &r.ArtifactPath); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if r.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("run %s: bad created_at %q: %w", r.ID, created, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Get returns the run with the given ID, or sql.ErrNoRows.
func (l *Ledger) Get(ctx context.Context, id string) (Run, error) {
	var r Run
	var created string
	err := l.db.QueryRowContext(ctx, `
		SELECT id, created_at, dataset_path, row_count, seed, winner, baseline_cv, forest_cv, test_accuracy, best_params, artifact_path
		FROM runs WHERE id = ?`, id).Scan(&r.ID, &created, &r.DatasetPath, &r.Rows, &r.Seed, &r.Winner,
		&r.BaselineCV, &r.ForestCV, &r.TestAccuracy, &r.BestParams, &r.ArtifactPath)
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	if r.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return Run{}, fmt.Errorf("run %s: bad created_at %q: %w", id, created, err)
	}
	return r, nil
}
