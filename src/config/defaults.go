package config

import (
	"github.com/elee1766/aisummary/src/aisdk"
)

const (
	DefaultEndpoint      = "https://api.deepseek.com/v1/chat/completions"
	DefaultModel         = "deepseek-chat"
	DefaultSystemMessage = "请用中文生成一篇不超过200字的专业摘要"
)

// DefaultConfig returns a default configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Enable:           true,
		ContentMaxLength: 0,
		HardCap:          0,
		RequestDelay:     1000,
		RequestTimeout:   30000,
		MaxConcurrent:    1,
		MaxRetries:       0,
		TargetTitles:     []string{},
		SourceDir:        "source",

		AIService: AIServiceConfig{
			Endpoint: DefaultEndpoint,
			Params: ParamsConfig{
				Model:       DefaultModel,
				Temperature: 0.7,
				MaxTokens:   200,
				Messages: []aisdk.Message{
					{Role: aisdk.RoleSystem, Content: DefaultSystemMessage},
				},
			},
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},

		Ledger: LedgerConfig{
			Enabled: true,
		},
	}
}
