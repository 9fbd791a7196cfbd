package commands

import (
	"fmt"
	"os"
	"os/exec"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/systmms/gsksync/internal/config"
	gskerrors "github.com/systmms/gsksync/internal/errors"
)

// checkResult is one row of doctor output.
type checkResult struct {
	Name       string
	Status     string
	Detail     string
	Suggestion string
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check required tools and configuration",
		Long: `Verify that gsksync can run in this environment.

This command checks:
- gcloud and kubectl are installed and on PATH
- Configuration file validity
- Artifact directory writability (when configured)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Logger.Info("Checking gsksync environment...")

			results := []checkResult{
				checkCLI("gcloud"),
				checkCLI("kubectl"),
				checkConfig(cfg),
			}
			if dir := cfg.EffectiveArtifactDir(); dir != "" {
				results = append(results, checkArtifactDir(dir))
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
			fmt.Fprintln(w, "CHECK\tSTATUS\tDETAIL")
			failed := 0
			for _, r := range results {
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, r.Status, r.Detail)
				if r.Status != "ok" {
					failed++
					if r.Suggestion != "" {
						cfg.Logger.Warn("%s: %s", r.Name, r.Suggestion)
					}
				}
			}
			w.Flush()

			if failed > 0 {
				return gskerrors.UserError{
					Message:    fmt.Sprintf("%d check(s) failed", failed),
					Suggestion: "Fix the failing checks above and run 'gsksync doctor' again",
				}
			}
			cfg.Logger.Info("All checks passed")
			return nil
		},
	}

	return cmd
}

func checkCLI(name string) checkResult {
	path, err := exec.LookPath(name)
	if err != nil {
		return checkResult{
			Name:       name,
			Status:     "missing",
			Detail:     "not found on PATH",
			Suggestion: fmt.Sprintf("Install %s and ensure it is on PATH", name),
		}
	}
	return checkResult{Name: name, Status: "ok", Detail: path}
}

func checkConfig(cfg *config.Config) checkResult {
	if err := cfg.Load(); err != nil {
		return checkResult{
			Name:       "config",
			Status:     "invalid",
			Detail:     err.Error(),
			Suggestion: fmt.Sprintf("Fix %s or remove it to use defaults", cfg.Path),
		}
	}
	if _, err := os.Stat(cfg.Path); err != nil {
		return checkResult{Name: "config", Status: "ok", Detail: "no config file, using defaults"}
	}
	return checkResult{Name: "config", Status: "ok", Detail: cfg.Path}
}

func checkArtifactDir(dir string) checkResult {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return checkResult{
			Name:       "artifact-dir",
			Status:     "unwritable",
			Detail:     err.Error(),
			Suggestion: "Pick a writable directory for --artifact-dir",
		}
	}
	probe, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return checkResult{
			Name:       "artifact-dir",
			Status:     "unwritable",
			Detail:     err.Error(),
			Suggestion: "Pick a writable directory for --artifact-dir",
		}
	}
	probe.Close()
	os.Remove(probe.Name())
	return checkResult{Name: "artifact-dir", Status: "ok", Detail: dir}
}
