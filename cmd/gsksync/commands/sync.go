package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/systmms/gsksync/internal/config"
	"github.com/systmms/gsksync/internal/orchestrator"
)

// NewSyncCommand creates the sync command.
func NewSyncCommand(cfg *config.Config) *cobra.Command {
	var (
		secretIDs   []string
		direction   string
		every       time.Duration
		schedule    string
		once        bool
		metricsPort int
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Continuously reconcile secrets between the two backends",
		Long: `Reconcile one or more secrets between Google Secret Manager and the
cluster, writing to the destination only when the two sides differ.

By default a pass runs every 5 minutes; tune it with --every, drive it
from a cron expression with --schedule, or run a single pass with
--once. The loop stops cleanly on SIGINT or SIGTERM. With
--metrics-port a Prometheus endpoint reports pass counts and
durations.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := orchestrator.ParseDirection(direction)
			if err != nil {
				return err
			}
			if err := cfg.Load(); err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			o := buildOrchestrator(cfg, cmd.OutOrStdout())

			if metricsPort > 0 {
				srv := orchestrator.NewMetricsServer(metricsPort, cfg.Logger)
				srv.Start()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
			}

			return o.RunLoop(ctx, orchestrator.LoopOptions{
				SecretIDs: secretIDs,
				Direction: dir,
				Every:     every,
				Schedule:  schedule,
				Once:      once,
				Timeout:   cfg.EffectiveTimeout(),
			})
		},
	}

	cmd.Flags().StringSliceVar(&secretIDs, "secret-id", nil, "Secret identifier, repeatable or comma-separated (required)")
	cmd.Flags().StringVar(&direction, "direction", "", "Sync direction: k2g or g2k (required)")
	cmd.Flags().DurationVar(&every, "every", orchestrator.DefaultResyncPeriod, "Interval between passes")
	cmd.Flags().StringVar(&schedule, "schedule", "", "Cron expression driving passes (overrides --every)")
	cmd.Flags().BoolVar(&once, "once", false, "Run a single pass and exit")
	cmd.Flags().IntVar(&metricsPort, "metrics-port", 0, "Serve Prometheus metrics on this port (0 disables)")

	return cmd
}
