package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/systmms/gsksync/internal/config"
)

// NewCreateCommand creates the create command.
func NewCreateCommand(cfg *config.Config) *cobra.Command {
	var (
		secretID string
		filePath string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a secret in both Secret Manager and the cluster",
		Long: `Create a secret in Google Secret Manager and as a Kubernetes secret,
seeded from a YAML file of key-value pairs.

The Secret Manager container is created first, then the file contents
are added as its first version, then the Kubernetes secret is created
with the same pairs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSecretID(secretID); err != nil {
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
			if err := o.Create(ctx, secretID, doc); err != nil {
				return err
			}
			cfg.Logger.Info("Secret '%s' created in both backends", secretID)
			return nil
		},
	}

	cmd.Flags().StringVar(&secretID, "secret-id", "", "Secret identifier (required)")
	cmd.Flags().StringVar(&filePath, "file", "", "YAML file of key-value pairs (required)")

	return cmd
}
