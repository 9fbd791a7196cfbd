// Package kube drives the cluster secret store through the kubectl CLI.
// Key-value pairs are flattened into discrete --from-literal argv
// elements, so secret content never passes through a shell and needs no
// escaping. Updates compose `kubectl create --dry-run=client -o yaml`
// with `kubectl apply -f -`, feeding the generated manifest over stdin.
package kube

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	gskerrors "github.com/systmms/gsksync/internal/errors"
	"github.com/systmms/gsksync/internal/logging"
	"github.com/systmms/gsksync/internal/secrets"
	pkgexec "github.com/systmms/gsksync/pkg/exec"
)

// Backend is the artifact prefix for this adapter.
const Backend = "k8s"

// Client wraps the kubectl CLI for one namespace and context.
type Client struct {
	namespace   string
	kubeContext string
	executor    pkgexec.CommandExecutor
	logger      *logging.Logger
	artifacts   *secrets.ArtifactWriter
}

// New creates a kubectl client using the production executor. Empty
// namespace and context defer to the active kubeconfig.
func New(namespace, kubeContext string, logger *logging.Logger, artifacts *secrets.ArtifactWriter) *Client {
	return NewWithExecutor(namespace, kubeContext, logger, artifacts, pkgexec.DefaultExecutor())
}

// NewWithExecutor creates a kubectl client with a custom executor.
// This is primarily for testing, allowing command execution to be mocked.
func NewWithExecutor(namespace, kubeContext string, logger *logging.Logger, artifacts *secrets.ArtifactWriter, executor pkgexec.CommandExecutor) *Client {
	return &Client{
		namespace:   namespace,
		kubeContext: kubeContext,
		executor:    executor,
		logger:      logger,
		artifacts:   artifacts,
	}
}

// Create makes a new generic secret from the document. Fails if the
// secret already exists; Update is the create-or-replace form.
func (c *Client) Create(ctx context.Context, secretID string, doc secrets.Document) error {
	args := c.scoped(c.createArgs(secretID, doc))
	c.logDebugArgs(args, doc)
	_, stderr, err := c.executor.Execute(ctx, "kubectl", args...)
	if err != nil {
		return c.classify("create secret", secretID, stderr, err)
	}
	c.logger.Info("created cluster secret %s", secretID)
	return nil
}

// Update is idempotent create-or-replace: generate the manifest
// client-side, then apply it. The manifest travels over stdin, never
// through a shell pipe.
func (c *Client) Update(ctx context.Context, secretID string, doc secrets.Document) error {
	genArgs := c.scoped(append(c.createArgs(secretID, doc), "--dry-run=client", "-o", "yaml"))
	c.logDebugArgs(genArgs, doc)
	manifest, stderr, err := c.executor.Execute(ctx, "kubectl", genArgs...)
	if err != nil {
		return c.classify("generate secret manifest", secretID, stderr, err)
	}

	applyArgs := c.scoped([]string{"apply", "-f", "-"})
	_, stderr, err = c.executor.ExecuteInput(ctx, manifest, "kubectl", applyArgs...)
	if err != nil {
		return c.classify("apply secret manifest", secretID, stderr, err)
	}
	c.logger.Info("applied cluster secret %s", secretID)
	return nil
}

// Delete removes the secret object.
func (c *Client) Delete(ctx context.Context, secretID string) error {
	args := c.scoped([]string{"delete", "secret", secretID})
	_, stderr, err := c.executor.Execute(ctx, "kubectl", args...)
	if err != nil {
		return c.classify("delete secret", secretID, stderr, err)
	}
	c.logger.Info("deleted cluster secret %s", secretID)
	return nil
}

// secretObject is the slice of the Secret resource we care about.
type secretObject struct {
	Data map[string]string `yaml:"data"`
}

// Access fetches the secret object and base64-decodes its data map into
// a document. The raw object is recorded as a debug artifact when
// artifact output is enabled.
func (c *Client) Access(ctx context.Context, secretID string) (secrets.Document, error) {
	args := c.scoped([]string{"get", "secret", secretID, "-o", "yaml"})
	stdout, stderr, err := c.executor.Execute(ctx, "kubectl", args...)
	if err != nil {
		return nil, c.classify("read secret", secretID, stderr, err)
	}

	c.artifacts.WriteRaw(Backend, secretID, stdout)

	var obj secretObject
	if err := yaml.Unmarshal(stdout, &obj); err != nil {
		return nil, gskerrors.UserError{
			Message:    fmt.Sprintf("Cannot parse cluster secret '%s'", secretID),
			Suggestion: "Inspect the object with 'kubectl get secret -o yaml'",
			Err:        err,
		}
	}

	doc, err := secrets.DecodeBase64Map(obj.Data)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("read %d entries from cluster secret %s", len(doc), secretID)
	return doc, nil
}

// createArgs builds the shared `create secret generic` argv. Keys are
// flattened in sorted order so repeated invocations are identical.
func (c *Client) createArgs(secretID string, doc secrets.Document) []string {
	args := []string{"create", "secret", "generic", secretID}
	for _, k := range doc.Keys() {
		args = append(args, "--from-literal="+k+"="+doc[k])
	}
	return args
}

// logDebugArgs traces the kubectl invocation with secret values masked.
func (c *Client) logDebugArgs(args []string, doc secrets.Document) {
	values := make([]string, 0, len(doc))
	for _, k := range doc.Keys() {
		values = append(values, doc[k])
	}
	c.logger.Debug("kubectl %s", logging.Redact(strings.Join(args, " "), values))
}

// scoped appends namespace and context flags when configured.
func (c *Client) scoped(args []string) []string {
	if c.namespace != "" {
		args = append(args, "--namespace", c.namespace)
	}
	if c.kubeContext != "" {
		args = append(args, "--context", c.kubeContext)
	}
	return args
}

// classify turns an executor error into a typed, user-facing error.
func (c *Client) classify(operation, secretID string, stderr []byte, err error) error {
	if strings.Contains(err.Error(), "executable file not found") {
		return gskerrors.WrapCommandNotFound("kubectl", err)
	}

	stderrStr := string(stderr)
	suggestion := gskerrors.BackendSuggestion("kubectl", stderrStr+"\n"+err.Error())
	switch {
	case strings.Contains(stderrStr, "AlreadyExists") || strings.Contains(stderrStr, "already exists"):
		return gskerrors.UserError{
			Message:    fmt.Sprintf("Secret '%s' already exists in the cluster", secretID),
			Suggestion: suggestion,
			Err:        err,
		}
	case strings.Contains(stderrStr, "NotFound") || strings.Contains(stderrStr, "not found"):
		return gskerrors.UserError{
			Message:    fmt.Sprintf("Secret '%s' not found in the cluster", secretID),
			Suggestion: suggestion,
			Err:        errors.Join(gskerrors.ErrNotFound, err),
		}
	case strings.Contains(stderrStr, "Forbidden"):
		return gskerrors.UserError{
			Message:    fmt.Sprintf("Not authorized to %s '%s'", operation, secretID),
			Suggestion: suggestion,
			Err:        err,
		}
	case strings.Contains(stderrStr, "Unable to connect to the server"):
		return gskerrors.UserError{
			Message:    "Cannot reach the cluster",
			Suggestion: suggestion,
			Err:        err,
		}
	}

	return gskerrors.CommandError{
		Command:    "kubectl " + operation,
		ExitCode:   pkgexec.ExitCode(err),
		Message:    fmt.Sprintf("operation on secret '%s' failed", secretID),
		Stderr:     excerpt(stderrStr),
		Suggestion: suggestion,
		Err:        err,
	}
}

func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 400 {
		return s[:400] + "…"
	}
	return s
}
