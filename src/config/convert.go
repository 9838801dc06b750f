package config

import (
	"log/slog"
	"maps"
	"net/http"
	"slices"

	"github.com/elee1766/aisummary/src/genclient"
)

// GenClientConfig builds the generation client configuration
func (c *Config) GenClientConfig(logger *slog.Logger) genclient.Config {
	temperature := c.AIService.Params.Temperature
	maxTokens := c.AIService.Params.MaxTokens

	return genclient.Config{
		Endpoint:     c.AIService.Endpoint,
		Headers:      maps.Clone(c.AIService.Headers),
		APIKey:       c.AIService.APIKey,
		Model:        c.AIService.Params.Model,
		Temperature:  &temperature,
		MaxTokens:    &maxTokens,
		SeedMessages: slices.Clone(c.AIService.Params.Messages),
		Shaping: genclient.ShapePolicy{
			MaxLength: c.ContentMaxLength,
			HardCap:   c.HardCap,
		},
		Timeout: c.RequestTimeoutDuration(),
		Logger:  logger,
	}
}

// Redacted returns a copy of c with secrets masked for display
func (c *Config) Redacted() *Config {
	out := *c
	out.AIService.APIKey = MaskSecret(c.AIService.APIKey)
	if len(c.AIService.Headers) > 0 {
		out.AIService.Headers = make(map[string]string, len(c.AIService.Headers))
		for k, v := range c.AIService.Headers {
			if isSecretHeader(k) {
				v = MaskSecret(v)
			}
			out.AIService.Headers[k] = v
		}
	}
	return &out
}

// MaskSecret keeps the first and last four characters of long secrets
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 12 {
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}

func isSecretHeader(name string) bool {
	switch http.CanonicalHeaderKey(name) {
	case "Authorization", "Api-Key", "X-Api-Key":
		return true
	}
	return false
}
