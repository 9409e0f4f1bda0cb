package tasks

import (
	"context"
	"fmt"
	"time"
)

// newSQLMaintenanceTask creates the scheduled task function for running
// storage maintenance on the user registry.
func newSQLMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", SQLMaintenance)

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting scheduled storage maintenance task...")
		startTime := time.Now()

		err := deps.Registry.Maintain(ctx)

		duration := time.Since(startTime)
		if err != nil {
			log.ErrorContext(ctx, "Storage maintenance task failed", "error", err, "duration", duration)
			return fmt.Errorf("storage maintenance failed: %w", err)
		}

		log.InfoContext(ctx, "Scheduled storage maintenance task completed successfully", "duration", duration)
		return nil
	}
}
