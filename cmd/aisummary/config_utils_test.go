package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elee1766/aisummary/src/config"
)

func TestOverrideConfigFromCLI(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.False(t, overrideConfigFromCLI(cfg, &CLI{}))

	changed := overrideConfigFromCLI(cfg, &CLI{
		APIKey:   "sk-cli",
		Endpoint: "http://localhost:8080/v1/chat/completions",
		Model:    "local-model",
		LogLevel: "debug",
	})
	assert.True(t, changed)
	assert.Equal(t, "sk-cli", cfg.AIService.APIKey)
	assert.Equal(t, "http://localhost:8080/v1/chat/completions", cfg.AIService.Endpoint)
	assert.Equal(t, "local-model", cfg.AIService.Params.Model)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfigExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_concurrent: 3\nai_service:\n  params:\n    model: from-file\n"), 0o644))

	cfg, err := loadConfig(&CLI{SiteDir: dir, ConfigFile: path, Model: "from-flag"})
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxConcurrent)
	assert.Equal(t, "from-flag", cfg.AIService.Params.Model)
}

func TestLoadConfigRejectsInvalidOverride(t *testing.T) {
	dir := t.TempDir()
	_, err := loadConfig(&CLI{SiteDir: dir, Endpoint: "not a url"})
	require.Error(t, err)
	var ve config.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestUseColor(t *testing.T) {
	assert.True(t, useColor("always", nil))
	assert.False(t, useColor("never", os.Stdout))
	assert.False(t, useColor("auto", &nopWriter{}))
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestWriteSummaryYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSummaryYAML(&buf, []string{"一段摘要。"}))
	assert.Equal(t, "ai:\n  - 一段摘要。\n", buf.String())
}
