// Package ledger records pipeline runs in a SQLite database so repeated
// batches can be compared over time.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // driver

	"github.com/okian/waitcast/internal/domain/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	data_path TEXT NOT NULL,
	status TEXT NOT NULL,
	scoring_metric TEXT,
	best_params TEXT,
	cv_score REAL,
	test_mae REAL,
	test_rmse REAL,
	test_mape REAL,
	test_r2 REAL,
	report TEXT,
	error_message TEXT,
	started_at DATETIME NOT NULL,
	finished_at DATETIME
);
CREATE TABLE IF NOT EXISTS run_candidates (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL REFERENCES runs(id),
	params TEXT NOT NULL,
	score REAL,
	error_message TEXT
);
`

// Run statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Run is one row of the runs table.
type Run struct {
	ID            string
	DataPath      string
	Status        string
	ScoringMetric string
	BestParams    string
	CVScore       *float64
	TestMAE       *float64
	Error         string
	StartedAt     time.Time
	FinishedAt    *time.Time
}

// Ledger is a SQLite-backed run history.
type Ledger struct {
	db     *sql.DB
	mu     sync.Mutex
	closed bool
}

// Open opens or creates the ledger at path.
func Open(ctx context.Context, path string) (*Ledger, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	// SQLite serializes writers; one connection avoids busy errors.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	return &Ledger{db: db}, nil
}

// Start inserts a running row and returns its id. An empty id is replaced
// by a fresh UUID.
func (l *Ledger) Start(ctx context.Context, id, dataPath string) (string, error) {
	if err := l.check(); err != nil {
		return "", err
	}
	if id == "" {
		id = uuid.NewString()
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, data_path, status, started_at) VALUES (?, ?, ?, ?)`,
		id, dataPath, StatusRunning, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return id, nil
}

// Finish stores a successful run's report and its candidates.
func (l *Ledger) Finish(ctx context.Context, rep *types.Report) error {
	if err := l.check(); err != nil {
		return err
	}
	params, err := json.Marshal(rep.BestParams)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	body, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `UPDATE runs SET status = ?, scoring_metric = ?, best_params = ?, cv_score = ?,
		test_mae = ?, test_rmse = ?, test_mape = ?, test_r2 = ?, report = ?, finished_at = ? WHERE id = ?`,
		StatusSucceeded, rep.ScoringMetric, string(params), nullable(rep.CVScore),
		rep.Test.MAE, rep.Test.RMSE, rep.Test.MAPE, rep.Test.R2, string(body), time.Now().UTC(), rep.RunID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	for _, c := range rep.Candidates {
		p, err := json.Marshal(c.Params)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrWrite, err)
		}
		var score any
		if c.Score != nil {
			score = *c.Score
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_candidates (run_id, params, score, error_message) VALUES (?, ?, ?, ?)`,
			rep.RunID, string(p), score, c.Error); err != nil {
			return fmt.Errorf("%w: %w", ErrWrite, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// Fail marks a run as failed with cause.
func (l *Ledger) Fail(ctx context.Context, id string, cause error) error {
	if err := l.check(); err != nil {
		return err
	}
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	_, err := l.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		StatusFailed, msg, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// Runs lists runs, newest first.
func (l *Ledger) Runs(ctx context.Context) ([]Run, error) {
	if err := l.check(); err != nil {
		return nil, err
	}
	rows, err := l.db.QueryContext(ctx, `SELECT id, data_path, status, COALESCE(scoring_metric, ''),
		COALESCE(best_params, ''), cv_score, test_mae, COALESCE(error_message, ''), started_at, finished_at
		FROM runs ORDER BY started_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer func() { _ = rows.Close() }()

	var out []Run
	for rows.Next() {
		var (
			r        Run
			cv, mae  sql.NullFloat64
			finished sql.NullTime
		)
		if err := rows.Scan(&r.ID, &r.DataPath, &r.Status, &r.ScoringMetric, &r.BestParams,
			&cv, &mae, &r.Error, &r.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRead, err)
		}
		if cv.Valid {
			r.CVScore = &cv.Float64
		}
		if mae.Valid {
			r.TestMAE = &mae.Float64
		}
		if finished.Valid {
			r.FinishedAt = &finished.Time
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return out, nil
}

// CandidateCount returns how many grid points were stored for a run.
func (l *Ledger) CandidateCount(ctx context.Context, runID string) (int, error) {
	if err := l.check(); err != nil {
		return 0, err
	}
	var n int
	if err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM run_candidates WHERE run_id = ?`, runID).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return n, nil
}

// Close releases the database handle.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.db.Close()
}

func (l *Ledger) check() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	return nil
}

func nullable(v float64) any {
	if p := types.FiniteOrNil(v); p != nil {
		return *p
	}
	return nil
}
