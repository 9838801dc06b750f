package main

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/elee1766/aisummary/src/app"
	"github.com/elee1766/aisummary/src/pipeline"
)

// RunCmd generates summaries for every eligible post
type RunCmd struct {
	DryRun   bool     `help:"Show what would change without writing files"`
	Force    bool     `help:"Regenerate summaries that already exist"`
	Title    []string `sep:"none" help:"Only summarize posts with this title (repeatable, replaces target_titles)"`
	Workers  int      `help:"Posts processed in parallel (defaults to the number of CPUs)"`
	NoLedger bool     `help:"Do not record this run in the ledger"`
	Diff     bool     `help:"Print the front matter diff of every changed post"`
	Strict   bool     `help:"Exit with a non-zero status when any post failed"`
}

// Run executes the run command
func (c *RunCmd) Run(ctx context.Context, kctx *kong.Context, cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	logger := commandLogger(cfg)

	application, err := app.New(app.AppConfig{
		Config:     cfg,
		SiteDir:    cli.SiteDir,
		Logger:     logger,
		WithLedger: !c.NoLedger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn("failed to close ledger", "error", err)
		}
	}()

	runner := application.Runner(app.RunOptions{
		DryRun:  c.DryRun,
		Force:   c.Force,
		Titles:  c.Title,
		Workers: c.Workers,
	})

	report, runErr := runner.Run(ctx)
	gate := application.Service.Gate()
	logger.Debug("request gate usage", "max_concurrent", gate.Max(), "peak", gate.Peak())
	if report != nil {
		printer := newReportPrinter(kctx.Stdout, useColor(cli.Color, kctx.Stdout))
		printer.PrintReport(report, c.Diff || c.DryRun)
	}
	if runErr != nil {
		return runErr
	}

	if failed := report.Count(pipeline.OutcomeFailed); c.Strict && failed > 0 {
		return fmt.Errorf("%w: %d of %d", errPartialFailure, failed, len(report.Results))
	}
	return nil
}
