package config

import (
	"time"

	"github.com/elee1766/aisummary/src/aisdk"
)

// Config represents the complete configuration for aisummary. Keys mirror the
// ai_summary block of a Hexo site's _config.yml.
type Config struct {
	// Enable turns summary generation on or off
	Enable bool `json:"enable" yaml:"enable" description:"Generate summaries at all"`

	// ContentMaxLength caps the post content sent to the service, 0 means unlimited
	ContentMaxLength int `json:"content_max_length" yaml:"content_max_length" validate:"min=0" description:"Maximum characters of post content sent, 0 for unlimited"`

	// HardCap is an absolute ceiling on transmitted content, 0 disables it
	HardCap int `json:"hard_cap" yaml:"hard_cap" validate:"min=0" description:"Absolute ceiling on transmitted characters, 0 to disable"`

	// RequestDelay is the minimum spacing between request grants, in milliseconds
	RequestDelay int `json:"request_delay" yaml:"request_delay" validate:"min=0" description:"Milliseconds between consecutive request grants"`

	// RequestTimeout bounds a single outbound call, in milliseconds
	RequestTimeout int `json:"request_timeout" yaml:"request_timeout" validate:"min=0" description:"Milliseconds before an outbound call times out"`

	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent" validate:"min=1" description:"Maximum requests in flight at once"`
	MaxRetries    int `json:"max_retries" yaml:"max_retries" validate:"min=0,max=10" description:"Retries of retryable failures per post"`

	RequireFrontMatterAI bool     `json:"require_front_matter_ai" yaml:"require_front_matter_ai" description:"Only summarize posts whose front matter has an ai key"`
	TargetTitles         []string `json:"target_titles" yaml:"target_titles" description:"Only summarize posts with these titles"`
	DebugForce           bool     `json:"debug_force" yaml:"debug_force" description:"Regenerate summaries that already exist"`

	// SourceDir is the site source directory holding _posts, relative to the site root
	SourceDir string `json:"source_dir" yaml:"source_dir" validate:"required" description:"Site source directory"`

	AIService AIServiceConfig `json:"ai_service" yaml:"ai_service"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
	Ledger    LedgerConfig    `json:"ledger" yaml:"ledger"`
}

// AIServiceConfig holds the generation endpoint settings
type AIServiceConfig struct {
	Endpoint string            `json:"endpoint" yaml:"endpoint" validate:"required,url" description:"Chat completions URL"`
	Headers  map[string]string `json:"headers,omitempty" yaml:"headers,omitempty" description:"Headers sent with every request"`

	// APIKey is sent as a bearer token when Headers has no Authorization entry
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" description:"API key used when no Authorization header is set"`

	Params ParamsConfig `json:"params" yaml:"params"`
}

// ParamsConfig holds the request body parameters
type ParamsConfig struct {
	Model       string          `json:"model" yaml:"model" validate:"required" description:"Model name"`
	Temperature float64         `json:"temperature" yaml:"temperature" validate:"min=0,max=2" description:"Sampling temperature"`
	MaxTokens   int             `json:"max_tokens" yaml:"max_tokens" validate:"min=1" description:"Maximum tokens generated"`
	Messages    []aisdk.Message `json:"messages" yaml:"messages" validate:"dive" description:"Messages sent before the post content"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level string `json:"level" yaml:"level" validate:"log_level" enum:"debug,info,warn,error"`

	// Format is the output format (text, json)
	Format string `json:"format" yaml:"format" validate:"log_format" enum:"text,json"`
}

// LedgerConfig defines where run history is recorded
type LedgerConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" description:"Record runs and attempts"`

	// Path to the SQLite database, empty means the XDG state directory
	Path string `json:"path" yaml:"path" description:"Ledger database path"`
}

// RequestDelayDuration returns RequestDelay as a duration
func (c *Config) RequestDelayDuration() time.Duration {
	return time.Duration(c.RequestDelay) * time.Millisecond
}

// RequestTimeoutDuration returns RequestTimeout as a duration
func (c *Config) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Millisecond
}

// ConfigPrecedence lists the configuration files consulted, lowest priority first
type ConfigPrecedence struct {
	// UserConfig path
	UserConfig string

	// SiteConfig is a Hexo _config.yml whose ai_summary block is read
	SiteConfig string

	// ProjectConfig path
	ProjectConfig string

	// DotEnv is a .env file whose variables fill in for unset environment variables
	DotEnv string

	// EnvironmentPrefix for env var overrides
	EnvironmentPrefix string
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e ValidationError) Error() string {
	return e.Message
}

// ConfigSource indicates where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceUser        ConfigSource = "user"
	SourceSite        ConfigSource = "site"
	SourceProject     ConfigSource = "project"
	SourceEnvironment ConfigSource = "environment"
	SourceCLI         ConfigSource = "cli"
)
