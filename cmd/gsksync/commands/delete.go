package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/systmms/gsksync/internal/config"
)

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(cfg *config.Config) *cobra.Command {
	var secretID string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a secret from both backends",
		Long: `Delete the Secret Manager secret and the Kubernetes secret with the
given identifier.

Both deletions are attempted even when one fails, so a secret that only
exists in one backend can still be cleaned up.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSecretID(secretID); err != nil {
				return err
			}
			if err := cfg.Load(); err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			ctx, cancel := actionContext(cfg)
			defer cancel()

			o := buildOrchestrator(cfg, cmd.OutOrStdout())
			if err := o.Delete(ctx, secretID); err != nil {
				return err
			}
			cfg.Logger.Info("Secret '%s' deleted from both backends", secretID)
			return nil
		},
	}

	cmd.Flags().StringVar(&secretID, "secret-id", "", "Secret identifier (required)")

	return cmd
}
