package tasks

import (
	"context"
	"fmt"
)

// newDailyStatsTask reports the registry statistics to the administrator.
func newDailyStatsTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", DailyStats)

	return func(ctx context.Context) error {
		stats, err := deps.Registry.Stats(ctx)
		if err != nil {
			log.ErrorContext(ctx, "Failed to gather stats", "error", err)
			return fmt.Errorf("gather stats: %w", err)
		}

		text := stats.Format(deps.Config.Messages.Stats)
		if err := deps.Notifier.Notify(ctx, deps.Config.Telegram.AdminID, text); err != nil {
			log.WarnContext(ctx, "Daily stats not delivered", "error", err)
			return fmt.Errorf("notify admin: %w", err)
		}

		log.InfoContext(ctx, "Daily stats delivered",
			"total", stats.Total, "active", stats.Active, "today", stats.Today, "banned", stats.Banned)
		return nil
	}
}
