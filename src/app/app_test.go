package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elee1766/aisummary/src/aisdk"
	"github.com/elee1766/aisummary/src/config"
	"github.com/elee1766/aisummary/src/pipeline"
)

func newCompletionServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(aisdk.ChatCompletionResponse{ //nolint:errcheck
			Choices: []aisdk.Choice{{Message: aisdk.Message{Role: aisdk.RoleAssistant, Content: "- Generated summary.\n"}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T, fsys afero.Fs, endpoint string) *App {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.AIService.Endpoint = endpoint
	cfg.RequestDelay = 0
	cfg.Ledger.Enabled = false

	a, err := New(AppConfig{Config: cfg, SiteDir: t.TempDir(), Fs: fsys})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() }) //nolint:errcheck
	return a
}

func TestRunEndToEnd(t *testing.T) {
	var calls atomic.Int32
	srv := newCompletionServer(t, &calls)

	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "source/_posts/new.md", []byte("---\ntitle: New\n---\nSome content.\n"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "source/_posts/done.md", []byte("---\ntitle: Done\nai:\n  - Existing.\n---\nBody.\n"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "source/_posts/page.md", []byte("---\ntitle: About\nlayout: page\n---\nBody.\n"), 0o644))

	a := newTestApp(t, fsys, srv.URL)
	report, err := a.Runner(RunOptions{}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Count(pipeline.OutcomeSucceeded))
	assert.Equal(t, 2, report.Count(pipeline.OutcomeSkipped))
	assert.EqualValues(t, 1, calls.Load())

	data, err := afero.ReadFile(fsys, "source/_posts/new.md")
	require.NoError(t, err)
	assert.Equal(t, "---\ntitle: New\nai:\n  - Generated summary.\n---\nSome content.\n", string(data))
}

func TestRunnerOptions(t *testing.T) {
	var calls atomic.Int32
	srv := newCompletionServer(t, &calls)

	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "source/_posts/a.md", []byte("---\ntitle: A\nai:\n  - Old.\n---\nBody A.\n"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "source/_posts/b.md", []byte("---\ntitle: B\n---\nBody B.\n"), 0o644))

	a := newTestApp(t, fsys, srv.URL)
	report, err := a.Runner(RunOptions{Force: true, DryRun: true, Titles: []string{"A"}}).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.Equal(t, 1, report.Count(pipeline.OutcomeSucceeded))
	assert.Equal(t, 1, report.Count(pipeline.OutcomeSkipped))

	data, err := afero.ReadFile(fsys, "source/_posts/a.md")
	require.NoError(t, err)
	assert.Contains(t, string(data), "Old.", "dry run leaves files untouched")
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(AppConfig{})
	require.Error(t, err)
}

func TestNewOpensLedger(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Ledger.Path = t.TempDir() + "/ledger.db"

	a, err := New(AppConfig{Config: cfg, SiteDir: t.TempDir(), Fs: afero.NewMemMapFs(), WithLedger: true})
	require.NoError(t, err)
	require.NotNil(t, a.Ledger)
	assert.NoError(t, a.Close())

	a, err = New(AppConfig{Config: cfg, SiteDir: t.TempDir(), Fs: afero.NewMemMapFs()})
	require.NoError(t, err)
	assert.Nil(t, a.Ledger)
}
