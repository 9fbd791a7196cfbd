package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/systmms/gsksync/internal/config"
	"github.com/systmms/gsksync/internal/orchestrator"
)

// NewUpdateCommand creates the update command.
func NewUpdateCommand(cfg *config.Config) *cobra.Command {
	var (
		secretID  string
		filePath  string
		direction string
		yes       bool
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update a secret and propagate the change to the other backend",
		Long: `Update a secret from a YAML file and propagate the result to the other
backend.

With --direction k2g the Kubernetes secret is replaced first and its
resulting contents are pushed to Secret Manager as a new version. With
--direction g2k the flow runs the other way. Before the cross-backend
write the resulting document is shown and confirmation is requested;
skip the prompt with --yes or --non-interactive.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSecretID(secretID); err != nil {
				return err
			}
			dir, err := orchestrator.ParseDirection(direction)
			if err != nil {
				return err
			}
			doc, err := readDocument(filePath)
			if err != nil {
				return err
			}
			if err := cfg.Load(); err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			ctx, cancel := actionContext(cfg)
			defer cancel()

			o := buildOrchestrator(cfg, cmd.OutOrStdout())
			if !yes && !cfg.NonInteractive {
				o.Confirm = stdinConfirm(cmd.InOrStdin(), cmd.OutOrStdout())
			}
			if err := o.Update(ctx, secretID, doc, dir); err != nil {
				return err
			}
			cfg.Logger.Info("Secret '%s' updated (%s)", secretID, dir)
			return nil
		},
	}

	cmd.Flags().StringVar(&secretID, "secret-id", "", "Secret identifier (required)")
	cmd.Flags().StringVar(&filePath, "file", "", "YAML file of key-value pairs (required)")
	cmd.Flags().StringVar(&direction, "direction", "", "Propagation direction: k2g or g2k (required)")
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")

	return cmd
}
