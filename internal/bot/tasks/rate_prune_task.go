package tasks

import (
	"context"
)

// newRateWindowPruneTask creates the scheduled task that drops rate-limit
// windows for callers idle longer than the configured expiry, keeping the
// limiter's memory bounded by active callers rather than lifetime ones.
func newRateWindowPruneTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "rate_window_prune")

	return func(ctx context.Context) error {
		pruned := deps.Limiter.Prune(deps.Config.Guard.WindowIdleExpiry)
		log.InfoContext(ctx, "Pruned idle rate-limit windows",
			"pruned", pruned, "remaining", deps.Limiter.Len())
		return nil
	}
}
