// Package errors defines user-facing error types for gsksync.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound marks the absence of a secret in a backend. Adapters join
// it into their not-found errors so the sync loop can distinguish
// "destination missing, write it" from a real failure.
var ErrNotFound = errors.New("secret not found")

// IsNotFound reports whether err represents a missing secret.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// UserError represents an error that should be shown to the user with helpful context.
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context.
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// CommandError represents an external CLI invocation that exited non-zero
// or could not run at all.
type CommandError struct {
	Command    string
	ExitCode   int
	Message    string
	Stderr     string
	Suggestion string
	Err        error
}

func (e CommandError) Error() string {
	msg := fmt.Sprintf("Command '%s' failed", e.Command)
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit code: %d)", e.ExitCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Stderr != "" {
		msg += "\n  stderr: " + strings.TrimSpace(e.Stderr)
	}
	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

func (e CommandError) Unwrap() error {
	return e.Err
}

// BackendSuggestion maps a backend CLI's error text to a remediation
// hint. Both adapters delegate suggestion selection here so the stderr
// patterns live in one place.
func BackendSuggestion(backend, errStr string) string {
	switch backend {
	case "gcloud":
		if strings.Contains(errStr, "ALREADY_EXISTS") || strings.Contains(errStr, "already exists") {
			return "The secret already exists. Use 'gsksync update' to add a new version"
		}
		if strings.Contains(errStr, "NOT_FOUND") || strings.Contains(errStr, "not found") {
			return "Verify the secret id and project. List secrets with: 'gcloud secrets list'"
		}
		if strings.Contains(errStr, "PERMISSION_DENIED") || strings.Contains(errStr, "does not have permission") {
			return "Check IAM permissions for secretmanager.* on the project"
		}
		if strings.Contains(errStr, "UNAUTHENTICATED") || strings.Contains(errStr, "You do not currently have an active account") {
			return "Run 'gcloud auth login' and select a project with 'gcloud config set project'"
		}

	case "kubectl":
		if strings.Contains(errStr, "AlreadyExists") || strings.Contains(errStr, "already exists") {
			return "The secret already exists. Use 'gsksync update' for create-or-replace semantics"
		}
		if strings.Contains(errStr, "NotFound") || strings.Contains(errStr, "not found") {
			return "Verify the secret name and namespace. List secrets with: 'kubectl get secrets'"
		}
		if strings.Contains(errStr, "Unable to connect to the server") || strings.Contains(errStr, "connection refused") {
			return "Check cluster connectivity and the active kubectl context"
		}
		if strings.Contains(errStr, "Forbidden") {
			return "Check RBAC permissions for secrets in the target namespace"
		}
	}

	if strings.Contains(errStr, "context deadline exceeded") || strings.Contains(errStr, "timeout") {
		return "The operation timed out. Raise --timeout or check your network connection"
	}

	return ""
}

// WrapCommandNotFound wraps command not found errors with helpful suggestions.
func WrapCommandNotFound(command string, err error) error {
	suggestions := map[string]string{
		"gcloud":  "Install the Google Cloud CLI: https://cloud.google.com/sdk/docs/install",
		"kubectl": "Install kubectl: https://kubernetes.io/docs/tasks/tools/",
	}

	suggestion := suggestions[command]
	if suggestion == "" {
		suggestion = fmt.Sprintf("Make sure '%s' is installed and in your PATH", command)
	}

	return CommandError{
		Command:    command,
		Message:    "command not found",
		Suggestion: suggestion,
		Err:        err,
	}
}
