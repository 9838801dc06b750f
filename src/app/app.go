// Package app wires the configured components of aisummary together.
package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/elee1766/aisummary/src/config"
	"github.com/elee1766/aisummary/src/genclient"
	"github.com/elee1766/aisummary/src/pipeline"
	"github.com/elee1766/aisummary/src/posts"
	"github.com/elee1766/aisummary/src/storage"
	"github.com/elee1766/aisummary/src/summary"
	"github.com/elee1766/aisummary/src/throttle"
)

// App represents the main application with all services
type App struct {
	Config  *config.Config
	SiteDir string
	Logger  *slog.Logger

	Client  *genclient.Client
	Service *summary.Service
	Posts   *posts.Store

	// Ledger is nil when run history is disabled
	Ledger *storage.Ledger
}

// AppConfig holds configuration for creating a new App instance
type AppConfig struct {
	Config  *config.Config
	SiteDir string
	Logger  *slog.Logger

	// Fs is the filesystem the site is read from; nil uses the OS
	Fs afero.Fs

	// HTTPClient overrides the client used for generation calls
	HTTPClient *http.Client

	// WithLedger opens the run ledger when the configuration enables it
	WithLedger bool
}

// New creates a new App instance with all services initialized
func New(cfg AppConfig) (*App, error) {
	if cfg.Config == nil {
		return nil, fmt.Errorf("app: configuration is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	siteDir := cfg.SiteDir
	if siteDir == "" {
		siteDir, _ = os.Getwd()
	}
	siteDir, err := filepath.Abs(siteDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve site directory: %w", err)
	}

	fsys := cfg.Fs
	if fsys == nil {
		fsys = afero.NewBasePathFs(afero.NewOsFs(), siteDir)
	}

	clientConfig := cfg.Config.GenClientConfig(logger)
	clientConfig.HTTPClient = cfg.HTTPClient
	client := genclient.NewClient(clientConfig)

	service := summary.NewService(
		client,
		throttle.NewGate(cfg.Config.MaxConcurrent),
		throttle.NewRateLimiter(cfg.Config.RequestDelayDuration()),
		summary.Options{Logger: logger},
	)

	a := &App{
		Config:  cfg.Config,
		SiteDir: siteDir,
		Logger:  logger,
		Client:  client,
		Service: service,
		Posts:   posts.NewStore(fsys, cfg.Config.SourceDir, logger),
	}

	if cfg.WithLedger && cfg.Config.Ledger.Enabled {
		db, err := storage.Open(cfg.Config.LedgerPath())
		if err != nil {
			return nil, fmt.Errorf("failed to open ledger: %w", err)
		}
		a.Ledger = storage.NewLedger(db)
	}

	return a, nil
}

// RunOptions are the per-invocation settings of a pipeline run
type RunOptions struct {
	DryRun  bool
	Force   bool
	Titles  []string
	Workers int
}

// Runner builds a pipeline runner from the configuration and opts. Flags
// extend the configured behavior: Force adds to debug_force and Titles
// replace target_titles when given.
func (a *App) Runner(opts RunOptions) *pipeline.Runner {
	titles := a.Config.TargetTitles
	if len(opts.Titles) > 0 {
		titles = opts.Titles
	}

	var recorder pipeline.Recorder
	if a.Ledger != nil {
		recorder = a.Ledger
	}

	return pipeline.NewRunner(a.Posts, a.Service, pipeline.Options{
		Enable:               a.Config.Enable,
		RequireFrontMatterAI: a.Config.RequireFrontMatterAI,
		TargetTitles:         titles,
		Force:                a.Config.DebugForce || opts.Force,
		DryRun:               opts.DryRun,
		MaxRetries:           a.Config.MaxRetries,
		Workers:              opts.Workers,
		SiteDir:              a.SiteDir,
		Model:                a.Client.Model(),
		Recorder:             recorder,
		Logger:               a.Logger,
	})
}

// Close releases resources held by the app
func (a *App) Close() error {
	if a.Ledger != nil {
		return a.Ledger.Close()
	}
	return nil
}
