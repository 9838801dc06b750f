package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"
)

// ErrRunNotFound is returned when a run id matches no run
var ErrRunNotFound = errors.New("run not found")

const runColumns = `id, site_dir, model, dry_run, force, target_titles, status, total, succeeded, failed, skipped, started_at, finished_at`

const attemptColumns = `id, run_id, source, title, attempt, outcome, error_kind, detail, duration_ms, created_at`

// CreateRun inserts a run in the running state
func CreateRun(ctx context.Context, db Execer, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if run.Status == "" {
		run.Status = RunRunning
	}
	if run.TargetTitles == nil {
		run.TargetTitles = JSONStringArray{}
	}

	query := `INSERT INTO runs (` + runColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		run.ID,
		run.SiteDir,
		run.Model,
		run.DryRun,
		run.Force,
		run.TargetTitles,
		run.Status,
		run.Total,
		run.Succeeded,
		run.Failed,
		run.Skipped,
		run.StartedAt,
		run.FinishedAt,
	)
	return err
}

// FinishRun stores the final counts and status of a run
func FinishRun(ctx context.Context, db Execer, runID, status string, counts RunCounts) error {
	query := `UPDATE runs SET status = ?, total = ?, succeeded = ?, failed = ?, skipped = ?, finished_at = ? WHERE id = ?`
	res, err := db.ExecContext(ctx, query, status, counts.Total, counts.Succeeded, counts.Failed, counts.Skipped, time.Now().UTC(), runID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// RecordAttempt inserts one attempt of a run
func RecordAttempt(ctx context.Context, db Execer, attempt *Attempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.New().String()
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO attempts (` + attemptColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		attempt.ID,
		attempt.RunID,
		attempt.Source,
		attempt.Title,
		attempt.Attempt,
		attempt.Outcome,
		attempt.ErrorKind,
		attempt.Detail,
		attempt.DurationMs,
		attempt.CreatedAt,
	)
	return err
}

// GetRun retrieves a run by id, or by a unique id prefix
func GetRun(ctx context.Context, db sqlscan.Querier, runID string) (*Run, error) {
	if runID == "" {
		return nil, fmt.Errorf("%w: empty id", ErrRunNotFound)
	}
	var runs []Run
	query := `SELECT ` + runColumns + ` FROM runs WHERE substr(id, 1, ?) = ? ORDER BY id LIMIT 2`
	if err := sqlscan.Select(ctx, db, &runs, query, utf8.RuneCountInString(runID), runID); err != nil {
		return nil, err
	}
	switch {
	case len(runs) == 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	case len(runs) > 1 && runs[0].ID != runID:
		return nil, fmt.Errorf("run id prefix %q is ambiguous", runID)
	}
	return &runs[0], nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all runs.
func ListRuns(ctx context.Context, db sqlscan.Querier, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`
	var runs []Run
	if err := sqlscan.Select(ctx, db, &runs, query, limit); err != nil {
		return nil, err
	}
	return runs, nil
}

// ListAttempts returns the attempts of a run in the order they were recorded
func ListAttempts(ctx context.Context, db sqlscan.Querier, runID string) ([]Attempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM attempts WHERE run_id = ? ORDER BY created_at, rowid`
	var attempts []Attempt
	err := sqlscan.Select(ctx, db, &attempts, query, runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return attempts, nil
}

// Ledger binds the ledger operations to an open database
type Ledger struct {
	db *DB
}

// NewLedger wraps db
func NewLedger(db *DB) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) CreateRun(ctx context.Context, run *Run) error {
	return CreateRun(ctx, l.db.DB(), run)
}

func (l *Ledger) FinishRun(ctx context.Context, runID, status string, counts RunCounts) error {
	return FinishRun(ctx, l.db.DB(), runID, status, counts)
}

func (l *Ledger) RecordAttempt(ctx context.Context, attempt *Attempt) error {
	return RecordAttempt(ctx, l.db.DB(), attempt)
}

func (l *Ledger) GetRun(ctx context.Context, runID string) (*Run, error) {
	return GetRun(ctx, l.db.DB(), runID)
}

func (l *Ledger) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	return ListRuns(ctx, l.db.DB(), limit)
}

func (l *Ledger) ListAttempts(ctx context.Context, runID string) ([]Attempt, error) {
	return ListAttempts(ctx, l.db.DB(), runID)
}

// Path returns the database file the ledger is stored in
func (l *Ledger) Path() string {
	return l.db.Path()
}

// Close closes the underlying database
func (l *Ledger) Close() error {
	return l.db.Close()
}
