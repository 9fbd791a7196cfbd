package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Underscore spellings predate the dashed flags and must keep parsing.
func TestUnderscoreFlagSpellingsNormalize(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{
		"create",
		"--secret_id", "my-secret",
		"--file", missing,
		"--non_interactive",
	})

	err := cmd.Execute()

	// Both underscore flags parsed; the failure is the missing file,
	// not an unknown flag.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cannot read secret file")
	assert.NotContains(t, err.Error(), "unknown flag")
}

func TestRootCommandListsAllActions(t *testing.T) {
	cmd := newRootCommand()

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}

	for _, want := range []string{"create", "get", "update", "delete", "sync", "doctor", "completion"} {
		assert.True(t, names[want], "missing command %q", want)
	}
}
