package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/elee1766/aisummary/src/config"
)

// loadConfig loads the configuration for the site and applies CLI overrides.
// The result is validated again after the overrides.
func loadConfig(cli *CLI) (*config.Config, error) {
	loader := config.NewLoader(
		config.GetConfigPaths(cli.SiteDir),
		config.WithExplicitConfig(cli.ConfigFile),
	)
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	if overrideConfigFromCLI(cfg, cli) {
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// overrideConfigFromCLI overrides configuration values with CLI flags and
// reports whether anything changed
func overrideConfigFromCLI(cfg *config.Config, cli *CLI) bool {
	changed := false
	if cli.APIKey != "" {
		cfg.AIService.APIKey = cli.APIKey
		changed = true
	}
	if cli.Endpoint != "" {
		cfg.AIService.Endpoint = cli.Endpoint
		changed = true
	}
	if cli.Model != "" {
		cfg.AIService.Params.Model = cli.Model
		changed = true
	}
	if cli.LogLevel != "" {
		cfg.Logging.Level = cli.LogLevel
		changed = true
	}
	return changed
}

// commandLogger builds the logger for a command from the loaded configuration
func commandLogger(cfg *config.Config) *slog.Logger {
	return createCLILogger(cfg.Logging.Level, cfg.Logging.Format)
}

// useColor resolves the --color flag against the output writer
func useColor(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
