package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.yaml.in/yaml/v3"
)

const schemaURL = "etics.v1.schema.json"

//go:embed defaults/manifest.yaml
var defaultManifest []byte

//go:embed schema/etics.v1.schema.json
var manifestSchema string

// Default returns the built-in manifest.
func Default() (*Config, error) {
	return Parse(defaultManifest)
}

// LoadAndValidate loads and validates the manifest at path.
// An empty path yields the built-in manifest.
func LoadAndValidate(path string) (*Config, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read manifest: %w", err)
	}

	return Parse(data)
}

// Parse validates data against the manifest schema and decodes it.
func Parse(data []byte) (*Config, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	schema, err := compileSchema()
	if err != nil {
		return nil, fmt.Errorf("config: failed to compile schema: %w", err)
	}

	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("config: %w: %w", ErrInvalid, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal into Config struct: %w", err)
	}

	return &config, nil
}

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, strings.NewReader(manifestSchema)); err != nil {
		return nil, err
	}
	return compiler.Compile(schemaURL)
}
