package main

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/alecthomas/kong"
	"github.com/spf13/afero"

	"github.com/elee1766/aisummary/src/config"
	"github.com/elee1766/aisummary/src/posts"
)

// ConfigCmd manages configuration
type ConfigCmd struct {
	Show     ConfigShowCmd     `cmd:"" help:"Show the effective configuration"`
	Validate ConfigValidateCmd `cmd:"" help:"Validate configuration"`
	Schema   ConfigSchemaCmd   `cmd:"" help:"Print the configuration JSON schema"`
	Path     ConfigPathCmd     `cmd:"" help:"Show configuration file locations"`
	Init     ConfigInitCmd     `cmd:"" help:"Write a default aisummary.yaml"`
}

// ConfigShowCmd shows the merged configuration
type ConfigShowCmd struct {
	ShowSecrets bool `help:"Print API keys and secret headers unmasked"`
}

// Run executes the config show command
func (c *ConfigShowCmd) Run(kctx *kong.Context, cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	if !c.ShowSecrets {
		cfg = cfg.Redacted()
	}

	data, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	return printHighlighted(kctx, cli, data, "yaml")
}

// ConfigValidateCmd validates the configuration
type ConfigValidateCmd struct{}

// Run executes the config validate command
func (c *ConfigValidateCmd) Run(kctx *kong.Context, cli *CLI) error {
	if _, err := loadConfig(cli); err != nil {
		return err
	}
	fmt.Fprintln(kctx.Stdout, "Configuration is valid")
	return nil
}

// ConfigSchemaCmd prints the JSON schema of the configuration file
type ConfigSchemaCmd struct{}

// Run executes the config schema command
func (c *ConfigSchemaCmd) Run(kctx *kong.Context, cli *CLI) error {
	data, err := config.SchemaJSON()
	if err != nil {
		return err
	}
	return printHighlighted(kctx, cli, data, "json")
}

// ConfigPathCmd shows the configuration file paths
type ConfigPathCmd struct{}

// Run executes the config path command
func (c *ConfigPathCmd) Run(kctx *kong.Context, cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}

	paths := config.GetConfigPaths(cli.SiteDir)
	if cli.ConfigFile != "" {
		paths.ProjectConfig = cli.ConfigFile
	}
	fmt.Fprintf(kctx.Stdout, "User config:    %s\n", paths.UserConfig)
	fmt.Fprintf(kctx.Stdout, "Site config:    %s\n", paths.SiteConfig)
	fmt.Fprintf(kctx.Stdout, "Project config: %s\n", paths.ProjectConfig)
	fmt.Fprintf(kctx.Stdout, "Environment:    %s_* (fallback %s)\n", paths.EnvironmentPrefix, paths.DotEnv)
	fmt.Fprintf(kctx.Stdout, "Posts:          %s\n", postsDir(cli.SiteDir, cfg))
	fmt.Fprintf(kctx.Stdout, "Ledger:         %s\n", cfg.LedgerPath())
	return nil
}

// ConfigInitCmd writes a project configuration file with the defaults
type ConfigInitCmd struct {
	Force bool `help:"Overwrite an existing file"`
}

// Run executes the config init command
func (c *ConfigInitCmd) Run(kctx *kong.Context, cli *CLI) error {
	path := cli.ConfigFile
	if path == "" {
		path = config.GetConfigPaths(cli.SiteDir).ProjectConfig
	}
	if err := writeDefaultConfig(afero.NewOsFs(), path, c.Force); err != nil {
		return err
	}
	fmt.Fprintf(kctx.Stdout, "Wrote %s\n", path)
	return nil
}

// writeDefaultConfig saves the default configuration to path, refusing to
// replace an existing file unless force is set
func writeDefaultConfig(fsys afero.Fs, path string, force bool) error {
	if !force {
		exists, err := afero.Exists(fsys, path)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		}
	}
	loader := config.NewLoader(config.ConfigPrecedence{ProjectConfig: path}, config.WithFs(fsys))
	return loader.SaveFile(config.DefaultConfig(), path)
}

// postsDir returns the directory posts are discovered in
func postsDir(siteDir string, cfg *config.Config) string {
	return filepath.Join(siteDir, cfg.SourceDir, posts.PostsDir)
}

// printHighlighted writes data, syntax highlighted when color is enabled
func printHighlighted(kctx *kong.Context, cli *CLI, data []byte, lexer string) error {
	if !useColor(cli.Color, kctx.Stdout) {
		_, err := kctx.Stdout.Write(data)
		return err
	}

	var buf bytes.Buffer
	if err := quick.Highlight(&buf, string(data), lexer, "terminal256", "monokai"); err != nil {
		_, err := kctx.Stdout.Write(data)
		return err
	}
	_, err := buf.WriteTo(kctx.Stdout)
	return err
}
