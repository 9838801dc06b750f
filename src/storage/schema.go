package storage

import "time"

// Run statuses
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunCancelled = "cancelled"
)

// Attempt outcomes
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

// Run is one invocation of the pipeline over a site
type Run struct {
	ID           string          `json:"id" db:"id"`
	SiteDir      string          `json:"site_dir" db:"site_dir"`
	Model        string          `json:"model" db:"model"`
	DryRun       bool            `json:"dry_run" db:"dry_run"`
	Force        bool            `json:"force" db:"force"`
	TargetTitles JSONStringArray `json:"target_titles" db:"target_titles"`
	Status       string          `json:"status" db:"status"`
	Total        int             `json:"total" db:"total"`
	Succeeded    int             `json:"succeeded" db:"succeeded"`
	Failed       int             `json:"failed" db:"failed"`
	Skipped      int             `json:"skipped" db:"skipped"`
	StartedAt    time.Time       `json:"started_at" db:"started_at"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty" db:"finished_at"`
}

// Attempt records the outcome of processing one post. Every generation call
// is its own attempt; skipped posts are recorded with attempt 0.
type Attempt struct {
	ID         string    `json:"id" db:"id"`
	RunID      string    `json:"run_id" db:"run_id"`
	Source     string    `json:"source" db:"source"`
	Title      string    `json:"title" db:"title"`
	Attempt    int       `json:"attempt" db:"attempt"`
	Outcome    string    `json:"outcome" db:"outcome"`
	ErrorKind  string    `json:"error_kind" db:"error_kind"`
	Detail     string    `json:"detail" db:"detail"`
	DurationMs int64     `json:"duration_ms" db:"duration_ms"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// RunCounts are the totals stored when a run finishes
type RunCounts struct {
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
}
