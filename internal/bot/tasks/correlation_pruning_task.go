package tasks

import (
	"context"
	"fmt"
	"time"
)

// newCorrelationPruningTask creates the task that bounds the correlation
// table by dropping rows older than the configured retention window. The
// table otherwise grows without limit; reply-to-update simply stops working
// for confirmations older than the window.
func newCorrelationPruningTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "correlation_pruning")

	return func(ctx context.Context) error {
		maxAge := time.Duration(deps.Config.Scheduler.CorrelationMaxAgeDays) * 24 * time.Hour
		cutoff := time.Now().UTC().Add(-maxAge)

		log.InfoContext(ctx, "Pruning old note correlations", "cutoff", cutoff)

		pruned, err := deps.Store.PruneCorrelations(ctx, cutoff)
		if err != nil {
			log.ErrorContext(ctx, "Correlation pruning failed", "error", err)
			return fmt.Errorf("correlation pruning failed: %w", err)
		}

		log.InfoContext(ctx, "Correlation pruning completed", "pruned", pruned)
		return nil
	}
}
