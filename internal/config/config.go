// Package config builds the immutable runtime configuration for a
// gsksync invocation: global flags parsed once by the command layer,
// merged with optional defaults from gsksync.yaml.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	gskerrors "github.com/systmms/gsksync/internal/errors"
	"github.com/systmms/gsksync/internal/logging"
)

// DefaultTimeout bounds every external CLI invocation. A hung gcloud or
// kubectl process fails with a deadline error instead of hanging the tool.
const DefaultTimeout = 30 * time.Second

// Config holds the runtime configuration. It is constructed once from
// parsed command-line input and never mutated afterwards.
type Config struct {
	Path           string
	Logger         *logging.Logger
	NonInteractive bool

	// Flag values; empty/zero means "fall back to file defaults".
	Project     string
	Namespace   string
	KubeContext string
	ArtifactDir string
	Timeout     time.Duration

	file fileDefaults
}

// fileDefaults is the gsksync.yaml structure.
type fileDefaults struct {
	Project     string `yaml:"project,omitempty"`
	Namespace   string `yaml:"namespace,omitempty"`
	KubeContext string `yaml:"context,omitempty"`
	ArtifactDir string `yaml:"artifact_dir,omitempty"`
	TimeoutMs   int    `yaml:"timeout_ms,omitempty"`
}

// schemaJSON validates gsksync.yaml. Keeping it embedded means a stray
// key or mistyped field fails loudly instead of being silently ignored.
const schemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "project":      {"type": "string", "minLength": 1},
    "namespace":    {"type": "string", "minLength": 1},
    "context":      {"type": "string", "minLength": 1},
    "artifact_dir": {"type": "string", "minLength": 1},
    "timeout_ms":   {"type": "integer", "minimum": 1}
  }
}`

// Load reads and validates the config file. A missing file at the
// default path is not an error; an explicitly requested file must exist.
func (c *Config) Load() error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return gskerrors.ConfigError{
			Field:      "config",
			Value:      c.Path,
			Message:    "cannot read config file",
			Suggestion: "Check the path passed to --config",
		}
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return gskerrors.ConfigError{
			Field:      "config",
			Value:      c.Path,
			Message:    fmt.Sprintf("invalid YAML: %v", err),
			Suggestion: "Check for indentation errors and missing quotes",
		}
	}
	if raw == nil {
		return nil
	}

	if err := validateWithSchema(raw); err != nil {
		return gskerrors.ConfigError{
			Field:   "config",
			Value:   c.Path,
			Message: err.Error(),
		}
	}

	if err := yaml.Unmarshal(data, &c.file); err != nil {
		return gskerrors.ConfigError{
			Field:   "config",
			Value:   c.Path,
			Message: fmt.Sprintf("invalid structure: %v", err),
		}
	}
	return nil
}

// validateWithSchema checks the decoded document against the embedded
// JSON schema.
func validateWithSchema(data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal config for validation: %w", err)
	}

	schemaLoader := gojsonschema.NewStringLoader(schemaJSON)
	documentLoader := gojsonschema.NewBytesLoader(jsonData)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		var errorMessages []string
		for _, desc := range result.Errors() {
			errorMessages = append(errorMessages, desc.String())
		}
		return fmt.Errorf("schema validation failed:\n  - %s", strings.Join(errorMessages, "\n  - "))
	}
	return nil
}

// EffectiveProject resolves the GCP project: flag over file over the
// active gcloud configuration (empty string).
func (c *Config) EffectiveProject() string {
	if c.Project != "" {
		return c.Project
	}
	return c.file.Project
}

// EffectiveNamespace resolves the cluster namespace.
func (c *Config) EffectiveNamespace() string {
	if c.Namespace != "" {
		return c.Namespace
	}
	return c.file.Namespace
}

// EffectiveKubeContext resolves the kubectl context.
func (c *Config) EffectiveKubeContext() string {
	if c.KubeContext != "" {
		return c.KubeContext
	}
	return c.file.KubeContext
}

// EffectiveArtifactDir resolves the debug artifact directory; empty
// means artifacts are disabled.
func (c *Config) EffectiveArtifactDir() string {
	if c.ArtifactDir != "" {
		return c.ArtifactDir
	}
	return c.file.ArtifactDir
}

// EffectiveTimeout resolves the per-command timeout.
func (c *Config) EffectiveTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	if c.file.TimeoutMs > 0 {
		return time.Duration(c.file.TimeoutMs) * time.Millisecond
	}
	return DefaultTimeout
}
