package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/elee1766/aisummary/src/pipeline"
	"github.com/elee1766/aisummary/src/theme"
)

const titleWidth = 48

// reportPrinter renders pipeline reports for the terminal
type reportPrinter struct {
	w      io.Writer
	styles theme.Styles
}

func newReportPrinter(w io.Writer, color bool) *reportPrinter {
	return &reportPrinter{w: w, styles: theme.NewStyles(w, color)}
}

// PrintReport writes one line per post followed by a summary box. Diffs are
// printed below their post when withDiff is set.
func (p *reportPrinter) PrintReport(report *pipeline.Report, withDiff bool) {
	s := p.styles
	if report.Disabled {
		fmt.Fprintln(p.w, s.Muted.Render("summary generation is disabled (enable: false)"))
		return
	}

	for _, res := range report.Results {
		fmt.Fprintln(p.w, p.resultLine(res))
		if withDiff && res.Diff != "" {
			p.printDiff(res.Diff)
		}
	}

	fmt.Fprintln(p.w, p.summaryBox(report))
}

func (p *reportPrinter) resultLine(res pipeline.Result) string {
	s := p.styles
	title := ansi.Truncate(res.Title, titleWidth, "…")

	var status, detail string
	switch res.Outcome {
	case pipeline.OutcomeSucceeded:
		status = s.Succeeded.Render("✓ " + res.Outcome.String())
		if len(res.Summary) > 0 {
			detail = ansi.Truncate(res.Summary[0], 2*titleWidth, "…")
		}
	case pipeline.OutcomeFailed:
		status = s.Failed.Render("✗ " + res.Outcome.String())
		if res.Err != nil {
			detail = res.Err.Error()
		}
	default:
		status = s.Skipped.Render("- " + res.Outcome.String())
		detail = res.Reason
	}

	line := fmt.Sprintf("%s  %s  %s", status, s.Label.Render(title), s.Muted.Render(res.Source))
	if detail != "" {
		line += "\n    " + s.Muted.Render(detail)
	}
	return line
}

func (p *reportPrinter) printDiff(diff string) {
	s := p.styles
	for _, line := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			fmt.Fprintln(p.w, s.Title.Render(line))
		case strings.HasPrefix(line, "+"):
			fmt.Fprintln(p.w, s.Added.Render(line))
		case strings.HasPrefix(line, "-"):
			fmt.Fprintln(p.w, s.Removed.Render(line))
		case strings.HasPrefix(line, "@@"):
			fmt.Fprintln(p.w, s.Muted.Render(line))
		default:
			fmt.Fprintln(p.w, line)
		}
	}
}

func (p *reportPrinter) summaryBox(report *pipeline.Report) string {
	s := p.styles
	var b strings.Builder

	heading := "Run complete"
	switch {
	case report.Cancelled:
		heading = "Run cancelled"
	case report.DryRun:
		heading = "Dry run complete"
	}
	b.WriteString(s.Title.Render(heading))
	if report.RunID != "" {
		b.WriteString(" " + s.Muted.Render(shortID(report.RunID)))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "%s %d  %s %d  %s %d  %s %s",
		s.Succeeded.Render("succeeded"), report.Count(pipeline.OutcomeSucceeded),
		s.Failed.Render("failed"), report.Count(pipeline.OutcomeFailed),
		s.Skipped.Render("skipped"), report.Count(pipeline.OutcomeSkipped),
		s.Muted.Render("in"), report.Duration.Round(time.Millisecond))

	return s.Box.Render(b.String())
}

// shortID returns the first segment of a run ID
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
