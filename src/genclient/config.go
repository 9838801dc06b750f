package genclient

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/elee1766/aisummary/src/aisdk"
)

// Config holds configuration for the generation client
type Config struct {
	Endpoint     string            // Full chat completions URL
	Headers      map[string]string // Sent on every request, typically Authorization
	APIKey       string            // Used as a bearer token when Headers has no Authorization
	Model        string
	Temperature  *float64
	MaxTokens    *int
	SeedMessages []aisdk.Message // Prepended to the user message, e.g. a system instruction
	Shaping      ShapePolicy
	Timeout      time.Duration // Per-call time budget
	Logger       *slog.Logger
	HTTPClient   *http.Client
}
