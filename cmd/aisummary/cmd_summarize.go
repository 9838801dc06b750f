package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"

	"github.com/elee1766/aisummary/src/app"
)

// SummarizeCmd summarizes arbitrary text without touching any post
type SummarizeCmd struct {
	File string `arg:"" optional:"" default:"-" help:"File to summarize, - for stdin"`
	Raw  bool   `help:"Print the model output without normalization"`
}

// Run executes the summarize command
func (c *SummarizeCmd) Run(ctx context.Context, kctx *kong.Context, cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}

	content, err := c.readInput(os.Stdin)
	if err != nil {
		return err
	}

	application, err := app.New(app.AppConfig{
		Config:  cfg,
		SiteDir: cli.SiteDir,
		Logger:  commandLogger(cfg),
	})
	if err != nil {
		return err
	}
	defer application.Close() //nolint:errcheck

	if c.Raw {
		out, err := application.Service.GenerateSummary(ctx, content)
		if err != nil {
			return err
		}
		fmt.Fprintln(kctx.Stdout, out)
		return nil
	}

	items, err := application.Service.Summarize(ctx, content)
	if err != nil {
		return err
	}
	return writeSummaryYAML(kctx.Stdout, items)
}

func (c *SummarizeCmd) readInput(stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if c.File == "-" || c.File == "" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(c.File)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), nil
}

// writeSummaryYAML prints items the way they appear under the ai key
func writeSummaryYAML(w io.Writer, items []string) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(map[string][]string{"ai": items}); err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return enc.Close()
}
