// Package config loads and validates .eshc.json project configuration
// against an embedded JSON Schema via santhosh-tekuri/jsonschema/v5.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/mod/semver"
)

// CompilerVersion is this build's own version, compared against a project's
// minCompilerVersion requirement.
const CompilerVersion = "v0.1.0"

// OutputFormat names an output kind (bin, asm or template). Load decodes and
// validates it; cmd/eshc does not read it, and its outputs are chosen by
// positional arguments and flags alone.
type OutputFormat string

const (
	FormatBin      OutputFormat = "bin"
	FormatAsm      OutputFormat = "asm"
	FormatTemplate OutputFormat = "template"
)

// Config is the decoded shape of .eshc.json.
type Config struct {
	MaxCodeblocksPerLine *int         `json:"maxCodeblocksPerLine,omitempty"`
	RemoveEndReturns     bool         `json:"removeEndReturns"`
	OutputFormat         OutputFormat `json:"outputFormat,omitempty"`
	CodeClientAddr       string       `json:"codeClientAddr,omitempty"`
	MinCompilerVersion   string       `json:"minCompilerVersion,omitempty"`
}

const schemaDoc = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"additionalProperties": false,
	"properties": {
		"maxCodeblocksPerLine": { "type": "integer", "minimum": 1 },
		"removeEndReturns": { "type": "boolean" },
		"outputFormat": { "type": "string", "enum": ["bin", "asm", "template"] },
		"codeClientAddr": { "type": "string", "minLength": 1 },
		"minCompilerVersion": { "type": "string", "minLength": 1 }
	}
}`

const schemaResourceName = "eshc-config.schema.json"

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaResourceName, strings.NewReader(schemaDoc)); err != nil {
		return nil, fmt.Errorf("config: compiling embedded schema: %w", err)
	}
	return compiler.Compile(schemaResourceName)
}

// Validate checks raw JSON bytes against the config schema without
// decoding into a Config.
func Validate(data []byte) error {
	schema, err := compileSchema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("config: invalid JSON: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("config: schema validation failed: %w", err)
	}
	return nil
}

// Load reads, validates, and decodes path, applying defaults for fields the
// file omits.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := Validate(data); err != nil {
		return nil, err
	}
	cfg := &Config{OutputFormat: FormatBin}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: decoding %s: %w", path, err)
	}
	if err := cfg.checkMinCompilerVersion(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// checkMinCompilerVersion rejects a project whose minCompilerVersion is
// either malformed or newer than this build, following the "semver"
// validator pattern from the teacher's schema validation (accepting the
// version with or without its leading "v").
func (c *Config) checkMinCompilerVersion() error {
	if c.MinCompilerVersion == "" {
		return nil
	}
	want := c.MinCompilerVersion
	if !strings.HasPrefix(want, "v") {
		want = "v" + want
	}
	if !semver.IsValid(want) {
		return fmt.Errorf("config: minCompilerVersion %q is not a valid semver", c.MinCompilerVersion)
	}
	if semver.Compare(CompilerVersion, want) < 0 {
		return fmt.Errorf("config: this build (%s) is older than the project's minCompilerVersion %s", CompilerVersion, want)
	}
	return nil
}
