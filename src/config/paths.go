package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

const appName = "aisummary"

// GetConfigPaths returns the configuration file paths to check for a site
// rooted at siteDir.
func GetConfigPaths(siteDir string) ConfigPrecedence {
	return ConfigPrecedence{
		UserConfig:        filepath.Join(xdg.ConfigHome, appName, "config.yaml"),
		SiteConfig:        filepath.Join(siteDir, "_config.yml"),
		ProjectConfig:     filepath.Join(siteDir, "aisummary.yaml"),
		DotEnv:            filepath.Join(siteDir, ".env"),
		EnvironmentPrefix: "AISUMMARY",
	}
}

// GetDefaultLedgerPath returns the default run ledger path under XDG_STATE_HOME
func GetDefaultLedgerPath() string {
	return filepath.Join(xdg.StateHome, appName, "ledger.db")
}

// LedgerPath returns the configured ledger path or the default one
func (c *Config) LedgerPath() string {
	if c.Ledger.Path != "" {
		return c.Ledger.Path
	}
	return GetDefaultLedgerPath()
}
