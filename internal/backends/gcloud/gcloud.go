// Package gcloud drives Google Secret Manager through the gcloud CLI.
// The CLI is the contract: this package never talks to the API directly,
// it builds argv for `gcloud secrets ...`, captures both output streams,
// and turns non-zero exits into typed errors.
package gcloud

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	gskerrors "github.com/systmms/gsksync/internal/errors"
	"github.com/systmms/gsksync/internal/logging"
	"github.com/systmms/gsksync/internal/secrets"
	pkgexec "github.com/systmms/gsksync/pkg/exec"
)

// Backend is the artifact prefix for this adapter.
const Backend = "gcloud"

// VersionLatest is the only version label the sync pipeline ever reads.
const VersionLatest = "latest"

// Client wraps the gcloud CLI for one project.
type Client struct {
	project   string
	executor  pkgexec.CommandExecutor
	logger    *logging.Logger
	artifacts *secrets.ArtifactWriter
}

// New creates a gcloud client using the production executor.
// An empty project defers to the active gcloud configuration.
func New(project string, logger *logging.Logger, artifacts *secrets.ArtifactWriter) *Client {
	return NewWithExecutor(project, logger, artifacts, pkgexec.DefaultExecutor())
}

// NewWithExecutor creates a gcloud client with a custom executor.
// This is primarily for testing, allowing command execution to be mocked.
func NewWithExecutor(project string, logger *logging.Logger, artifacts *secrets.ArtifactWriter, executor pkgexec.CommandExecutor) *Client {
	return &Client{
		project:   project,
		executor:  executor,
		logger:    logger,
		artifacts: artifacts,
	}
}

// Create provisions a new secret container with no initial value,
// using the automatic replication policy.
func (c *Client) Create(ctx context.Context, secretID string) error {
	args := c.withProject("secrets", "create", secretID, "--replication-policy=automatic", "--quiet")
	_, stderr, err := c.executor.Execute(ctx, "gcloud", args...)
	if err != nil {
		return c.classify("create secret", secretID, stderr, err)
	}
	c.logger.Info("created Secret Manager secret %s", secretID)
	return nil
}

// AddVersion uploads a document as a new version of the secret. The
// payload passes through a private temp file because `gcloud secrets
// versions add` only reads from a file; the file is removed as soon as
// the command returns.
func (c *Client) AddVersion(ctx context.Context, secretID string, doc secrets.Document) error {
	payload, err := secrets.EncodeYAML(doc)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp("", "gsksync-*.yaml")
	if err != nil {
		return fmt.Errorf("creating payload file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("writing payload file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing payload file: %w", err)
	}

	args := c.withProject("secrets", "versions", "add", secretID, "--data-file", tmp.Name(), "--quiet")
	_, stderr, err := c.executor.Execute(ctx, "gcloud", args...)
	if err != nil {
		return c.classify("add secret version", secretID, stderr, err)
	}
	c.logger.Info("added version to Secret Manager secret %s", secretID)
	return nil
}

// Delete removes the secret container entirely.
func (c *Client) Delete(ctx context.Context, secretID string) error {
	args := c.withProject("secrets", "delete", secretID, "--quiet")
	_, stderr, err := c.executor.Execute(ctx, "gcloud", args...)
	if err != nil {
		return c.classify("delete secret", secretID, stderr, err)
	}
	c.logger.Info("deleted Secret Manager secret %s", secretID)
	return nil
}

// AccessVersion fetches the named version's content and parses it as a
// key-value document. The raw payload is recorded as a debug artifact
// when artifact output is enabled.
func (c *Client) AccessVersion(ctx context.Context, secretID, version string) (secrets.Document, error) {
	args := c.withProject("secrets", "versions", "access", version, "--secret", secretID)
	stdout, stderr, err := c.executor.Execute(ctx, "gcloud", args...)
	if err != nil {
		return nil, c.classify("access secret version", secretID, stderr, err)
	}

	c.artifacts.WriteRaw(Backend, secretID, stdout)

	doc, err := secrets.ParseYAML(stdout)
	if err != nil {
		return nil, gskerrors.UserError{
			Message:    fmt.Sprintf("Secret Manager secret '%s' version '%s' is not a key-value document", secretID, version),
			Suggestion: "gsksync can only sync secrets whose payload is flat YAML key: value pairs",
			Err:        err,
		}
	}
	c.logger.Debug("read %d entries from Secret Manager secret %s", len(doc), secretID)
	return doc, nil
}

// withProject appends the --project flag when one is configured.
func (c *Client) withProject(args ...string) []string {
	if c.project == "" {
		return args
	}
	return append(args, "--project", c.project)
}

// classify turns an executor error into a typed, user-facing error.
func (c *Client) classify(operation, secretID string, stderr []byte, err error) error {
	if strings.Contains(err.Error(), "executable file not found") {
		return gskerrors.WrapCommandNotFound("gcloud", err)
	}

	stderrStr := string(stderr)
	suggestion := gskerrors.BackendSuggestion("gcloud", stderrStr+"\n"+err.Error())
	switch {
	case strings.Contains(stderrStr, "ALREADY_EXISTS") || strings.Contains(stderrStr, "already exists"):
		return gskerrors.UserError{
			Message:    fmt.Sprintf("Secret '%s' already exists in Secret Manager", secretID),
			Suggestion: suggestion,
			Err:        err,
		}
	case strings.Contains(stderrStr, "NOT_FOUND") || strings.Contains(stderrStr, "not found"):
		return gskerrors.UserError{
			Message:    fmt.Sprintf("Secret '%s' not found in Secret Manager", secretID),
			Suggestion: suggestion,
			Err:        errors.Join(gskerrors.ErrNotFound, err),
		}
	case strings.Contains(stderrStr, "PERMISSION_DENIED") || strings.Contains(stderrStr, "UNAUTHENTICATED"):
		return gskerrors.UserError{
			Message:    fmt.Sprintf("Not authorized to %s '%s'", operation, secretID),
			Suggestion: suggestion,
			Err:        err,
		}
	}

	return gskerrors.CommandError{
		Command:    "gcloud " + operation,
		ExitCode:   pkgexec.ExitCode(err),
		Message:    fmt.Sprintf("operation on secret '%s' failed", secretID),
		Stderr:     excerpt(stderrStr),
		Suggestion: suggestion,
		Err:        err,
	}
}

// excerpt bounds stderr passthrough so one gcloud traceback does not
// flood the terminal.
func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 400 {
		return s[:400] + "…"
	}
	return s
}
