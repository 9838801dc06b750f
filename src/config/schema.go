package config

import (
	"encoding/json"
	"fmt"

	jsonschema "github.com/swaggest/jsonschema-go"
)

// Schema returns the JSON Schema describing the configuration file
func Schema() (*jsonschema.Schema, error) {
	r := jsonschema.Reflector{}
	s, err := r.Reflect(DefaultConfig(), jsonschema.InlineRefs)
	if err != nil {
		return nil, fmt.Errorf("failed to reflect config schema: %w", err)
	}

	title := "aisummary configuration"
	s.Title = &title
	s.WithSchema("http://json-schema.org/draft-07/schema#")

	return &s, nil
}

// SchemaJSON returns the indented JSON encoding of Schema
func SchemaJSON() ([]byte, error) {
	s, err := Schema()
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(s, "", "  ")
}
