package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	gskerrors "github.com/systmms/gsksync/internal/errors"
)

// LoopOptions configures the continuous sync loop.
type LoopOptions struct {
	SecretIDs []string
	Direction Direction

	// Every triggers a pass on a fixed interval. Ignored when Schedule
	// is set.
	Every time.Duration

	// Schedule is a standard 5-field cron expression.
	Schedule string

	// Once runs a single pass over all secrets and exits.
	Once bool

	// Timeout bounds each secret's reconciliation within a pass, so a
	// hung gcloud or kubectl process cannot stall the loop. Zero means
	// unbounded.
	Timeout time.Duration
}

// DefaultResyncPeriod is used when neither --every nor --schedule is given.
const DefaultResyncPeriod = 5 * time.Minute

// SyncPass reconciles one secret in the given direction: read the
// source of truth, compare with the destination, and write only on
// drift. A destination that does not exist yet counts as drift.
// Returns true when the destination was written.
func (o *Orchestrator) SyncPass(ctx context.Context, secretID string, direction Direction) (bool, error) {
	switch direction {
	case ClusterToCloud:
		return o.passClusterToCloud(ctx, secretID)
	case CloudToCluster:
		return o.passCloudToCluster(ctx, secretID)
	default:
		_, err := ParseDirection(string(direction))
		return false, err
	}
}

func (o *Orchestrator) passClusterToCloud(ctx context.Context, secretID string) (bool, error) {
	src, err := o.Cluster.Access(ctx, secretID)
	if err != nil {
		return false, step("cluster access", err)
	}

	dest, err := o.Cloud.AccessVersion(ctx, secretID, versionLatest)
	switch {
	case gskerrors.IsNotFound(err):
		// Missing container: create it before the first version.
		if createErr := o.Cloud.Create(ctx, secretID); createErr != nil && !isAlreadyExists(createErr) {
			return false, step("cloud create", createErr)
		}
	case err != nil:
		return false, step("cloud access", err)
	case src.Equal(dest):
		return false, nil
	}

	if err := o.Cloud.AddVersion(ctx, secretID, src); err != nil {
		return false, step("cloud add-version", err)
	}
	return true, nil
}

func (o *Orchestrator) passCloudToCluster(ctx context.Context, secretID string) (bool, error) {
	src, err := o.Cloud.AccessVersion(ctx, secretID, versionLatest)
	if err != nil {
		return false, step("cloud access", err)
	}

	dest, err := o.Cluster.Access(ctx, secretID)
	switch {
	case gskerrors.IsNotFound(err):
		// Update is create-or-replace, nothing extra to do.
	case err != nil:
		return false, step("cluster access", err)
	case src.Equal(dest):
		return false, nil
	}

	if err := o.Cluster.Update(ctx, secretID, src); err != nil {
		return false, step("cluster update", err)
	}
	return true, nil
}

// RunLoop keeps the configured secrets reconciled until the context is
// canceled. Each trigger runs one pass over every secret; per-secret
// failures are logged and counted but never stop the loop.
func (o *Orchestrator) RunLoop(ctx context.Context, opts LoopOptions) error {
	if len(opts.SecretIDs) == 0 {
		return gskerrors.UserError{
			Message:    "No secrets to sync",
			Suggestion: "Pass at least one id with --secret-id",
		}
	}

	InitMetrics()

	if opts.Once {
		return o.runPass(ctx, opts)
	}

	if opts.Schedule != "" {
		return o.runCron(ctx, opts)
	}

	period := opts.Every
	if period <= 0 {
		period = DefaultResyncPeriod
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	// First pass fires immediately, then on every tick.
	if err := o.runPass(ctx, opts); err != nil {
		o.Logger.Error("sync pass: %v", err)
	}
	for {
		select {
		case <-ctx.Done():
			o.Logger.Info("stop signal received, quitting")
			return nil
		case <-ticker.C:
			if err := o.runPass(ctx, opts); err != nil {
				o.Logger.Error("sync pass: %v", err)
			}
		}
	}
}

// runCron drives passes from a cron schedule instead of a fixed period.
func (o *Orchestrator) runCron(ctx context.Context, opts LoopOptions) error {
	c := cron.New()
	_, err := c.AddFunc(opts.Schedule, func() {
		if err := o.runPass(ctx, opts); err != nil {
			o.Logger.Error("sync pass: %v", err)
		}
	})
	if err != nil {
		return gskerrors.ConfigError{
			Field:      "schedule",
			Value:      opts.Schedule,
			Message:    fmt.Sprintf("invalid cron expression: %v", err),
			Suggestion: `Use a standard 5-field expression, e.g. "*/5 * * * *"`,
		}
	}

	c.Start()
	defer c.Stop()

	<-ctx.Done()
	o.Logger.Info("stop signal received, quitting")
	return nil
}

// runPass reconciles every configured secret once.
func (o *Orchestrator) runPass(ctx context.Context, opts LoopOptions) error {
	var errs []error
	for _, id := range opts.SecretIDs {
		passCtx := ctx
		cancel := context.CancelFunc(func() {})
		if opts.Timeout > 0 {
			passCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		}

		start := time.Now()
		updated, err := o.SyncPass(passCtx, id, opts.Direction)
		elapsed := time.Since(start)
		cancel()

		switch {
		case err != nil:
			recordPass(id, opts.Direction, "failed", elapsed)
			errs = append(errs, fmt.Errorf("secret %s: %w", id, err))
			o.Logger.Error("sync failed for %s: %v", id, err)
		case updated:
			recordPass(id, opts.Direction, "synced", elapsed)
			o.Logger.Info("secret %s synced (%s)", id, opts.Direction)
		default:
			recordPass(id, opts.Direction, "skipped", elapsed)
			o.Logger.Debug("secret %s already in sync", id)
		}
	}
	return errors.Join(errs...)
}

// isAlreadyExists matches the adapter's already-exists classification;
// two loops racing on the same id can both see NOT_FOUND and then lose
// the create.
func isAlreadyExists(err error) bool {
	var userErr gskerrors.UserError
	if errors.As(err, &userErr) {
		return strings.Contains(userErr.Message, "already exists")
	}
	return false
}
