package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/gsksync/internal/logging"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gsksync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingDefaultFileIsFine(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Path:   filepath.Join(t.TempDir(), "gsksync.yaml"),
		Logger: logging.New(false, true),
	}
	require.NoError(t, cfg.Load())
	assert.Equal(t, DefaultTimeout, cfg.EffectiveTimeout())
	assert.Empty(t, cfg.EffectiveProject())
}

func TestLoadFileDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
project: my-project
namespace: staging
context: gke-test
artifact_dir: /tmp/gsksync-debug
timeout_ms: 5000
`)

	cfg := &Config{Path: path, Logger: logging.New(false, true)}
	require.NoError(t, cfg.Load())

	assert.Equal(t, "my-project", cfg.EffectiveProject())
	assert.Equal(t, "staging", cfg.EffectiveNamespace())
	assert.Equal(t, "gke-test", cfg.EffectiveKubeContext())
	assert.Equal(t, "/tmp/gsksync-debug", cfg.EffectiveArtifactDir())
	assert.Equal(t, 5*time.Second, cfg.EffectiveTimeout())
}

func TestFlagsOverrideFileDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "project: file-project\nnamespace: file-ns\n")

	cfg := &Config{
		Path:      path,
		Logger:    logging.New(false, true),
		Project:   "flag-project",
		Namespace: "flag-ns",
		Timeout:   2 * time.Minute,
	}
	require.NoError(t, cfg.Load())

	assert.Equal(t, "flag-project", cfg.EffectiveProject())
	assert.Equal(t, "flag-ns", cfg.EffectiveNamespace())
	assert.Equal(t, 2*time.Minute, cfg.EffectiveTimeout())
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "projcet: typo-here\n")

	cfg := &Config{Path: path, Logger: logging.New(false, true)}
	err := cfg.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation failed")
}

func TestLoadRejectsWrongTypes(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "timeout_ms: soon\n")

	cfg := &Config{Path: path, Logger: logging.New(false, true)}
	err := cfg.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout_ms")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "project: [unclosed\n")

	cfg := &Config{Path: path, Logger: logging.New(false, true)}
	err := cfg.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid YAML")
}

func TestLoadEmptyFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "")

	cfg := &Config{Path: path, Logger: logging.New(false, true)}
	require.NoError(t, cfg.Load())
	assert.Equal(t, DefaultTimeout, cfg.EffectiveTimeout())
}
