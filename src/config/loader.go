package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// siteBlockKey is the key of the aisummary block inside a Hexo _config.yml
const siteBlockKey = "ai_summary"

// Loader handles loading and merging configurations from multiple sources
type Loader struct {
	precedence ConfigPrecedence
	validator  *Validator
	fs         afero.Fs
	lookupEnv  func(string) (string, bool)

	// explicit marks ProjectConfig as user supplied, so a missing file is an error
	explicit bool
}

// LoaderOption configures a Loader
type LoaderOption func(*Loader)

// WithFs reads configuration files from fsys instead of the OS filesystem
func WithFs(fsys afero.Fs) LoaderOption {
	return func(l *Loader) { l.fs = fsys }
}

// WithEnv replaces the environment lookup
func WithEnv(lookup func(string) (string, bool)) LoaderOption {
	return func(l *Loader) { l.lookupEnv = lookup }
}

// WithExplicitConfig replaces the project config path with a file that must exist
func WithExplicitConfig(path string) LoaderOption {
	return func(l *Loader) {
		if path == "" {
			return
		}
		l.precedence.ProjectConfig = path
		l.explicit = true
	}
}

// NewLoader creates a new configuration loader
func NewLoader(precedence ConfigPrecedence, opts ...LoaderOption) *Loader {
	l := &Loader{
		precedence: precedence,
		validator:  NewValidator(),
		fs:         afero.NewOsFs(),
		lookupEnv:  os.LookupEnv,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load loads configuration from all sources and merges them. Later sources
// override individual keys of earlier ones.
func (l *Loader) Load() (*Config, error) {
	config := DefaultConfig()

	sources := []struct {
		path   string
		source ConfigSource
		block  string
	}{
		{l.precedence.UserConfig, SourceUser, ""},
		{l.precedence.SiteConfig, SourceSite, siteBlockKey},
		{l.precedence.ProjectConfig, SourceProject, ""},
	}

	for _, src := range sources {
		if src.path == "" {
			continue
		}
		err := l.mergeFile(config, src.path, src.block)
		if err == nil {
			continue
		}
		if errors.Is(err, fs.ErrNotExist) && !(src.source == SourceProject && l.explicit) {
			continue
		}
		return nil, fmt.Errorf("failed to load %s config from %s: %w", src.source, src.path, err)
	}

	if l.precedence.EnvironmentPrefix != "" {
		lookup, err := l.envLookup()
		if err != nil {
			return nil, err
		}
		if err := l.applyEnvironmentOverrides(config, lookup); err != nil {
			return nil, err
		}
	}

	if err := l.validator.Validate(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// mergeFile decodes the YAML file at path onto config. Keys absent from the
// file keep their current values. When block is set only that top-level key
// is decoded.
func (l *Loader) mergeFile(config *Config, path, block string) error {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	node := &doc
	if block != "" {
		node = findBlock(&doc, block)
		if node == nil {
			return nil
		}
	}
	if err := node.Decode(config); err != nil {
		return fmt.Errorf("failed to decode YAML: %w", err)
	}
	return nil
}

// findBlock returns the value node of a top-level mapping key
func findBlock(doc *yaml.Node, key string) *yaml.Node {
	root := doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == key {
			return root.Content[i+1]
		}
	}
	return nil
}

// SaveFile saves configuration to a file
func (l *Loader) SaveFile(config *Config, path string) error {
	if err := l.validator.Validate(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	data, err := Marshal(config)
	if err != nil {
		return err
	}

	if err := afero.WriteFile(l.fs, path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// Marshal renders config as YAML
func Marshal(config *Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(config); err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return buf.Bytes(), nil
}

// envLookup layers the variables of the DotEnv file under the environment
// lookup. Variables already set in the environment win.
func (l *Loader) envLookup() (func(string) (string, bool), error) {
	if l.precedence.DotEnv == "" {
		return l.lookupEnv, nil
	}
	data, err := afero.ReadFile(l.fs, l.precedence.DotEnv)
	if errors.Is(err, fs.ErrNotExist) {
		return l.lookupEnv, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", l.precedence.DotEnv, err)
	}
	vars, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", l.precedence.DotEnv, err)
	}

	return func(key string) (string, bool) {
		if v, ok := l.lookupEnv(key); ok {
			return v, true
		}
		v, ok := vars[key]
		return v, ok
	}, nil
}

// applyEnvironmentOverrides applies environment variable overrides to config
func (l *Loader) applyEnvironmentOverrides(config *Config, lookup func(string) (string, bool)) error {
	prefix := l.precedence.EnvironmentPrefix
	get := func(name string) (string, bool) {
		v, ok := lookup(prefix + "_" + name)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if apiKey, ok := get("API_KEY"); ok {
		config.AIService.APIKey = apiKey
	}
	if endpoint, ok := get("ENDPOINT"); ok {
		config.AIService.Endpoint = endpoint
	}
	if model, ok := get("MODEL"); ok {
		config.AIService.Params.Model = model
	}
	if v, ok := get("MAX_CONCURRENT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return ValidationError{Field: prefix + "_MAX_CONCURRENT", Message: fmt.Sprintf("%s_MAX_CONCURRENT must be an integer, got %q", prefix, v), Value: v}
		}
		config.MaxConcurrent = n
	}
	if v, ok := get("REQUEST_DELAY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return ValidationError{Field: prefix + "_REQUEST_DELAY", Message: fmt.Sprintf("%s_REQUEST_DELAY must be an integer, got %q", prefix, v), Value: v}
		}
		config.RequestDelay = n
	}
	return nil
}

// Validate checks config with the default validator
func Validate(config *Config) error {
	return NewValidator().Validate(config)
}
