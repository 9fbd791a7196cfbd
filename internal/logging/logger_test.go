package logging

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithWriter(false, true, &buf)

	logger.Info("created secret %s", "db-creds")
	logger.Warn("stale artifact")
	logger.Error("sync failed")
	logger.Debug("should be suppressed")

	out := buf.String()
	assert.Contains(t, out, "✓ created secret db-creds")
	assert.Contains(t, out, "⚠ stale artifact")
	assert.Contains(t, out, "✗ sync failed")
	assert.NotContains(t, out, "suppressed")
}

func TestLoggerDebugEnabled(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithWriter(true, true, &buf)

	logger.Debug("reading %s", "k8s secret")
	assert.Contains(t, buf.String(), "[DEBUG] reading k8s secret")
}

func TestSecretRedaction(t *testing.T) {
	t.Parallel()

	s := Secret("hunter2-hunter2")
	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%#v", s))
}

func TestRedact(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		secrets []string
		want    string
	}{
		{
			name:    "single secret",
			input:   "password=supersecret",
			secrets: []string{"supersecret"},
			want:    "password=[REDACTED]",
		},
		{
			name:    "short values untouched",
			input:   "pin=123",
			secrets: []string{"123"},
			want:    "pin=123",
		},
		{
			name:    "multiple occurrences",
			input:   "tok tok",
			secrets: []string{"tok tok"},
			want:    "[REDACTED]",
		},
		{
			name:    "empty secret list",
			input:   "nothing to hide",
			secrets: nil,
			want:    "nothing to hide",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Redact(tt.input, tt.secrets))
		})
	}
}
