package tasks

import (
	"context"

	"github.com/edgard/renamerbot/internal/logger"
)

// Task names, matching the keys of the scheduler configuration.
const (
	SQLMaintenance = "sql_maintenance"
	DailyStats     = "daily_stats"
)

// ScheduledTaskFunc defines the standard signature for all scheduled tasks.
// The context provided by the scheduler should be respected for cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// RegisterAllTasks returns every known task keyed by its configuration name.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	deps.Logger = logger.OrDiscard(deps.Logger)

	tasks := map[string]ScheduledTaskFunc{
		SQLMaintenance: newSQLMaintenanceTask(deps),
		DailyStats:     newDailyStatsTask(deps),
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
