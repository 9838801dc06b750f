package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elee1766/aisummary/src/config"
)

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	var cli CLI
	var out bytes.Buffer
	parser, err := kong.New(&cli, kong.Name("aisummary"), kong.Writers(&out, &out))
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)
	require.NoError(t, kctx.Run(&cli))
	return out.String()
}

func TestConfigPathShowsConfiguredLedger(t *testing.T) {
	dir := t.TempDir()
	ledger := filepath.Join(dir, "state", "custom.db")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "aisummary.yaml"),
		[]byte("source_dir: src\nledger:\n  path: "+ledger+"\n"), 0o644))

	out := runCLI(t, "--site-dir", dir, "config", "path")
	assert.Contains(t, out, "Ledger:         "+ledger+"\n")
	assert.Contains(t, out, "Posts:          "+filepath.Join(dir, "src", "_posts")+"\n")
	assert.NotContains(t, out, config.GetDefaultLedgerPath())
}

func TestWriteDefaultConfig(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, writeDefaultConfig(fsys, "/site/aisummary.yaml", false))

	loaded, err := config.NewLoader(config.ConfigPrecedence{ProjectConfig: "/site/aisummary.yaml"},
		config.WithFs(fsys),
		config.WithEnv(func(string) (string, bool) { return "", false })).Load()
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), loaded)

	err = writeDefaultConfig(fsys, "/site/aisummary.yaml", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	assert.NoError(t, writeDefaultConfig(fsys, "/site/aisummary.yaml", true))
}
