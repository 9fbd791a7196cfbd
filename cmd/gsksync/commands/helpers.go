package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/systmms/gsksync/internal/backends/gcloud"
	"github.com/systmms/gsksync/internal/backends/kube"
	"github.com/systmms/gsksync/internal/config"
	gskerrors "github.com/systmms/gsksync/internal/errors"
	"github.com/systmms/gsksync/internal/orchestrator"
	"github.com/systmms/gsksync/internal/secrets"
)

// buildOrchestrator wires both backends from the loaded configuration.
// Callers must have run cfg.Load() first so file defaults apply.
func buildOrchestrator(cfg *config.Config, out io.Writer) *orchestrator.Orchestrator {
	artifacts := secrets.NewArtifactWriter(cfg.EffectiveArtifactDir(), cfg.Logger)
	return &orchestrator.Orchestrator{
		Cloud:     gcloud.New(cfg.EffectiveProject(), cfg.Logger, artifacts),
		Cluster:   kube.New(cfg.EffectiveNamespace(), cfg.EffectiveKubeContext(), cfg.Logger, artifacts),
		Logger:    cfg.Logger,
		Artifacts: artifacts,
		Out:       out,
	}
}

// actionContext bounds a single action with the configured timeout.
func actionContext(cfg *config.Config) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), cfg.EffectiveTimeout())
}

// requireSecretID rejects missing or whitespace-only secret identifiers
// before any backend is touched.
func requireSecretID(id string) error {
	if strings.TrimSpace(id) == "" {
		return gskerrors.UserError{
			Message:    "Missing required flag --secret-id",
			Suggestion: "Pass the secret identifier, e.g. --secret-id my-app-credentials",
		}
	}
	return nil
}

// readDocument loads and parses a key-value YAML document from disk.
func readDocument(path string) (secrets.Document, error) {
	if strings.TrimSpace(path) == "" {
		return nil, gskerrors.UserError{
			Message:    "Missing required flag --file",
			Suggestion: "Pass the path to a YAML file of key-value pairs, e.g. --file secrets.yaml",
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, gskerrors.UserError{
			Message:    fmt.Sprintf("Cannot read secret file '%s'", path),
			Suggestion: "Check that the file exists and is readable",
			Err:        err,
		}
	}
	return secrets.ParseYAML(data)
}

// stdinConfirm builds a yes/no prompt reading from in and writing to out.
// Used by update when neither --yes nor --non-interactive is set.
func stdinConfirm(in io.Reader, out io.Writer) orchestrator.ConfirmFunc {
	reader := bufio.NewReader(in)
	return func(prompt string) (bool, error) {
		fmt.Fprintf(out, "%s [y/N]: ", prompt)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return false, nil
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes", nil
	}
}
