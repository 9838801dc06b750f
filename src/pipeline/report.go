package pipeline

import (
	"time"

	"github.com/elee1766/aisummary/src/storage"
)

// Outcome is the final state of one post in a run.
type Outcome int

const (
	OutcomeSkipped Outcome = iota
	OutcomeSucceeded
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return storage.OutcomeSucceeded
	case OutcomeFailed:
		return storage.OutcomeFailed
	default:
		return storage.OutcomeSkipped
	}
}

// Skip reasons.
const (
	ReasonLayout          = "layout is not post"
	ReasonEmptyContent    = "empty content"
	ReasonMissingAIField  = "front matter has no ai field"
	ReasonNotTargeted     = "title not in target_titles"
	ReasonExistingSummary = "summary already present"
)

// Result describes what happened to one post.
type Result struct {
	Source  string
	Title   string
	Outcome Outcome
	// Reason explains a skip or a failure.
	Reason   string
	Err      error
	Summary  []string
	Diff     string
	Attempts int
	Duration time.Duration
}

// Report is the outcome of a run, with results in discovery order.
type Report struct {
	RunID     string
	DryRun    bool
	Disabled  bool
	Cancelled bool
	Results   []Result
	Duration  time.Duration
}

// Count returns the number of results with outcome o.
func (r *Report) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// Counts returns the totals stored in the ledger.
func (r *Report) Counts() storage.RunCounts {
	return storage.RunCounts{
		Total:     len(r.Results),
		Succeeded: r.Count(OutcomeSucceeded),
		Failed:    r.Count(OutcomeFailed),
		Skipped:   r.Count(OutcomeSkipped),
	}
}
