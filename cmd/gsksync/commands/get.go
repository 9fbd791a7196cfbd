package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/systmms/gsksync/internal/config"
)

// NewGetCommand creates the get command.
func NewGetCommand(cfg *config.Config) *cobra.Command {
	var (
		secretID string
		verify   bool
	)

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Fetch a secret from both backends and print it",
		Long: `Fetch the latest Secret Manager version and the Kubernetes secret with
the same identifier, and print both as YAML.

With --verify the two documents are compared and the command fails if
they disagree, which makes it usable as a drift check in CI.`,
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
			return o.Get(ctx, secretID, verify)
		},
	}

	cmd.Flags().StringVar(&secretID, "secret-id", "", "Secret identifier (required)")
	cmd.Flags().BoolVar(&verify, "verify", false, "Fail if the two backends disagree")

	return cmd
}
