// Package pipeline walks a site's posts and fills in missing summaries,
// applying the same filters a Hexo before_post_render hook would.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/elee1766/aisummary/src/genclient"
	"github.com/elee1766/aisummary/src/posts"
	"github.com/elee1766/aisummary/src/storage"
	"github.com/elee1766/aisummary/src/summary"
)

// Summarizer produces a validated summary list for a post body.
type Summarizer interface {
	Summarize(ctx context.Context, raw string) ([]string, error)
}

// Store reads posts and writes summaries back.
type Store interface {
	Discover(ctx context.Context) ([]string, error)
	Load(source string) (*posts.Post, error)
	WriteSummary(post *posts.Post, summary []string, dryRun bool) (string, error)
}

// Recorder persists runs and attempts.
type Recorder interface {
	CreateRun(ctx context.Context, run *storage.Run) error
	FinishRun(ctx context.Context, runID, status string, counts storage.RunCounts) error
	RecordAttempt(ctx context.Context, attempt *storage.Attempt) error
}

// Options configures a Runner.
type Options struct {
	// Enable false makes Run a no-op.
	Enable               bool
	RequireFrontMatterAI bool
	TargetTitles         []string
	// Force regenerates summaries that already exist.
	Force      bool
	DryRun     bool
	MaxRetries int

	// Workers bounds the posts processed at once. Outbound calls are bounded
	// separately by the summarizer's gate.
	Workers int

	// SiteDir and Model are stored with the run.
	SiteDir string
	Model   string

	Recorder Recorder
	Logger   *slog.Logger

	// Sleep waits between retries; nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Runner processes every post of a site.
type Runner struct {
	store      Store
	summarizer Summarizer
	opts       Options
	logger     *slog.Logger
	errors     *genclient.ErrorHandler
}

// NewRunner creates a Runner.
func NewRunner(store Store, summarizer Summarizer, opts Options) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "pipeline")

	return &Runner{
		store:      store,
		summarizer: summarizer,
		opts:       opts,
		logger:     logger,
		errors:     genclient.NewErrorHandler(logger),
	}
}

// Run processes all discovered posts. A failing post never stops the others;
// only cancellation of ctx ends the run early, in which case the partial
// report is returned with ctx's error.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{DryRun: r.opts.DryRun}

	if !r.opts.Enable {
		r.logger.Info("summary generation disabled")
		report.Disabled = true
		return report, nil
	}

	sources, err := r.store.Discover(ctx)
	if err != nil {
		return nil, err
	}
	r.logger.Info("starting run", "posts", len(sources), "dry_run", r.opts.DryRun)

	report.RunID = r.createRun(ctx)
	report.Results = make([]Result, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, source := range sources {
		if gctx.Err() != nil {
			report.Results[i] = Result{Source: source, Outcome: OutcomeFailed, Reason: "run cancelled", Err: gctx.Err()}
			continue
		}
		i, source := i, source
		g.Go(func() error {
			report.Results[i] = r.process(gctx, report.RunID, source)
			return nil
		})
	}
	_ = g.Wait()

	report.Duration = time.Since(start)
	report.Cancelled = ctx.Err() != nil

	status := storage.RunCompleted
	if report.Cancelled {
		status = storage.RunCancelled
	}
	r.finishRun(report.RunID, status, report.Counts())

	counts := report.Counts()
	r.logger.Info("run finished",
		"succeeded", counts.Succeeded,
		"failed", counts.Failed,
		"skipped", counts.Skipped,
		"duration", report.Duration)

	if report.Cancelled {
		return report, ctx.Err()
	}
	return report, nil
}

func (r *Runner) process(ctx context.Context, runID, source string) Result {
	start := time.Now()
	logger := r.logger.With("source", source)
	res := Result{Source: source, Title: source}

	finish := func(outcome Outcome, reason string, err error) Result {
		res.Outcome = outcome
		res.Reason = reason
		res.Err = err
		res.Duration = time.Since(start)
		return res
	}

	post, err := r.store.Load(source)
	if err != nil {
		r.errors.Handle(err, "load", "source", source)
		r.record(runID, &storage.Attempt{Source: source, Outcome: storage.OutcomeFailed, ErrorKind: errorKind(err), Detail: err.Error()})
		return finish(OutcomeFailed, "could not load post", err)
	}
	res.Title = post.Title

	if reason := r.skipReason(post); reason != "" {
		logger.Debug("skipping post", "reason", reason)
		r.record(runID, &storage.Attempt{Source: source, Title: post.Title, Outcome: storage.OutcomeSkipped, Detail: reason})
		return finish(OutcomeSkipped, reason, nil)
	}

	var items []string
	var callTime time.Duration
	for attempt := 1; ; attempt++ {
		res.Attempts = attempt
		callStart := time.Now()
		items, err = r.summarizer.Summarize(ctx, post.Content)
		callTime = time.Since(callStart)
		if err == nil {
			break
		}

		r.errors.Handle(err, "summarize", "source", source, "attempt", attempt)
		r.record(runID, &storage.Attempt{
			Source: source, Title: post.Title, Attempt: attempt,
			Outcome: storage.OutcomeFailed, ErrorKind: errorKind(err), Detail: err.Error(),
			DurationMs: callTime.Milliseconds(),
		})

		if ctx.Err() != nil {
			return finish(OutcomeFailed, "run cancelled", err)
		}
		if attempt > r.opts.MaxRetries || !genclient.IsRetryable(err) {
			return finish(OutcomeFailed, "summary generation failed", err)
		}

		delay := genclient.RetryDelay(err, attempt)
		logger.Info("retrying", "attempt", attempt+1, "delay", delay)
		if err := r.opts.Sleep(ctx, delay); err != nil {
			return finish(OutcomeFailed, "run cancelled", err)
		}
	}

	diff, err := r.store.WriteSummary(post, items, r.opts.DryRun)
	if err != nil {
		r.errors.Handle(err, "write", "source", source)
		r.record(runID, &storage.Attempt{
			Source: source, Title: post.Title, Attempt: res.Attempts,
			Outcome: storage.OutcomeFailed, ErrorKind: errorKind(err), Detail: err.Error(),
			DurationMs: callTime.Milliseconds(),
		})
		return finish(OutcomeFailed, "could not write summary", err)
	}

	res.Summary = items
	res.Diff = diff
	r.record(runID, &storage.Attempt{
		Source: source, Title: post.Title, Attempt: res.Attempts,
		Outcome: storage.OutcomeSucceeded, DurationMs: callTime.Milliseconds(),
	})
	logger.Info("summary generated", "title", post.Title, "attempts", res.Attempts, "dry_run", r.opts.DryRun)
	return finish(OutcomeSucceeded, "", nil)
}

// skipReason applies the post filters in order and returns why the post is
// skipped, or "" when it should be summarized.
func (r *Runner) skipReason(post *posts.Post) string {
	switch {
	case post.Layout != "post":
		return ReasonLayout
	case post.Content == "":
		return ReasonEmptyContent
	case r.opts.RequireFrontMatterAI && !post.HasAIField:
		return ReasonMissingAIField
	case len(r.opts.TargetTitles) > 0 && !slices.Contains(r.opts.TargetTitles, post.Title):
		return ReasonNotTargeted
	case post.HasExistingSummary() && !r.opts.Force:
		return ReasonExistingSummary
	}
	return ""
}

func (r *Runner) createRun(ctx context.Context) string {
	if r.opts.Recorder == nil {
		return ""
	}
	run := &storage.Run{
		SiteDir:      r.opts.SiteDir,
		Model:        r.opts.Model,
		DryRun:       r.opts.DryRun,
		Force:        r.opts.Force,
		TargetTitles: storage.JSONStringArray(r.opts.TargetTitles),
	}
	if err := r.opts.Recorder.CreateRun(ctx, run); err != nil {
		r.logger.Warn("failed to record run", "error", err)
		return ""
	}
	return run.ID
}

// record stores an attempt. The ledger is best effort and writes outlive a
// cancelled run.
func (r *Runner) record(runID string, attempt *storage.Attempt) {
	if r.opts.Recorder == nil || runID == "" {
		return
	}
	attempt.RunID = runID
	if err := r.opts.Recorder.RecordAttempt(context.Background(), attempt); err != nil {
		r.logger.Warn("failed to record attempt", "source", attempt.Source, "error", err)
	}
}

func (r *Runner) finishRun(runID, status string, counts storage.RunCounts) {
	if r.opts.Recorder == nil || runID == "" {
		return
	}
	if err := r.opts.Recorder.FinishRun(context.Background(), runID, status, counts); err != nil {
		r.logger.Warn("failed to finish run", "run_id", runID, "error", err)
	}
}

// errorKind names the failure class stored in the ledger.
func errorKind(err error) string {
	var fmErr *posts.FrontMatterError
	switch {
	case errors.As(err, &fmErr):
		return "front_matter"
	case errors.Is(err, summary.ErrMalformedSummary):
		return "malformed_summary"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return genclient.KindOf(err).String()
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting to retry: %w", ctx.Err())
	}
}
