package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"

	"github.com/elee1766/aisummary/src/storage"
)

// HistoryCmd inspects the run ledger
type HistoryCmd struct {
	List HistoryListCmd `cmd:"" default:"withargs" help:"List recent runs"`
	Show HistoryShowCmd `cmd:"" help:"Show the attempts of a run"`
}

// HistoryListCmd lists runs, newest first
type HistoryListCmd struct {
	Limit int `short:"n" default:"20" help:"Number of runs to show, 0 for all"`
}

// Run executes the history list command
func (c *HistoryListCmd) Run(ctx context.Context, kctx *kong.Context, cli *CLI) error {
	ledger, err := openLedger(cli)
	if err != nil {
		return err
	}
	defer ledger.Close() //nolint:errcheck

	runs, err := ledger.ListRuns(ctx, c.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintf(kctx.Stdout, "No runs recorded in %s\n", ledger.Path())
		return nil
	}
	return printRunsTable(kctx.Stdout, runs)
}

// HistoryShowCmd shows one run and its attempts
type HistoryShowCmd struct {
	RunID string `arg:"" help:"Run ID or unique prefix"`
}

// Run executes the history show command
func (c *HistoryShowCmd) Run(ctx context.Context, kctx *kong.Context, cli *CLI) error {
	ledger, err := openLedger(cli)
	if err != nil {
		return err
	}
	defer ledger.Close() //nolint:errcheck

	run, err := ledger.GetRun(ctx, c.RunID)
	if err != nil {
		return err
	}
	attempts, err := ledger.ListAttempts(ctx, run.ID)
	if err != nil {
		return err
	}
	return printRunDetail(kctx.Stdout, run, attempts)
}

func openLedger(cli *CLI) (*storage.Ledger, error) {
	cfg, err := loadConfig(cli)
	if err != nil {
		return nil, err
	}
	db, err := storage.Open(cfg.LedgerPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	return storage.NewLedger(db), nil
}

func printRunsTable(w io.Writer, runs []storage.Run) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tSTATUS\tMODEL\tSUCCEEDED\tFAILED\tSKIPPED\tFLAGS")
	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			shortID(run.ID),
			run.StartedAt.Local().Format(time.DateTime),
			run.Status,
			run.Model,
			run.Succeeded, run.Failed, run.Skipped,
			runFlags(run))
	}
	return tw.Flush()
}

func printRunDetail(w io.Writer, run *storage.Run, attempts []storage.Attempt) error {
	fmt.Fprintf(w, "Run:      %s\n", run.ID)
	fmt.Fprintf(w, "Site:     %s\n", run.SiteDir)
	fmt.Fprintf(w, "Model:    %s\n", run.Model)
	fmt.Fprintf(w, "Status:   %s\n", run.Status)
	fmt.Fprintf(w, "Started:  %s\n", run.StartedAt.Local().Format(time.DateTime))
	if run.FinishedAt != nil {
		fmt.Fprintf(w, "Finished: %s (%s)\n", run.FinishedAt.Local().Format(time.DateTime), run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}
	if flags := runFlags(*run); flags != "" {
		fmt.Fprintf(w, "Flags:    %s\n", flags)
	}
	if len(run.TargetTitles) > 0 {
		fmt.Fprintf(w, "Titles:   %s\n", strings.Join(run.TargetTitles, ", "))
	}
	fmt.Fprintf(w, "Posts:    %d total, %d succeeded, %d failed, %d skipped\n\n", run.Total, run.Succeeded, run.Failed, run.Skipped)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tATTEMPT\tOUTCOME\tKIND\tDURATION\tDETAIL")
	for _, a := range attempts {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n",
			a.Source, a.Attempt, a.Outcome, dash(a.ErrorKind),
			(time.Duration(a.DurationMs) * time.Millisecond).String(), dash(a.Detail))
	}
	return tw.Flush()
}

func runFlags(run storage.Run) string {
	var flags []string
	if run.DryRun {
		flags = append(flags, "dry-run")
	}
	if run.Force {
		flags = append(flags, "force")
	}
	return strings.Join(flags, ",")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
