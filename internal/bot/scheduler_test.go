package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edgard/renamerbot/internal/bot/tasks"
	"github.com/edgard/renamerbot/internal/config"
)

func TestSchedulerStart(t *testing.T) {
	t.Parallel()

	noop := func(context.Context) error { return nil }
	cfg := config.SchedulerConfig{Tasks: map[string]config.TaskConfig{
		"enabled":      {Enabled: true, Schedule: "0 0 4 * * *"},
		"disabled":     {Enabled: false, Schedule: "0 0 4 * * *"},
		"unregistered": {Enabled: true, Schedule: "0 0 4 * * *"},
		"no_schedule":  {Enabled: true},
		"bad_schedule": {Enabled: true, Schedule: "not a cron"},
	}}
	taskMap := map[string]tasks.ScheduledTaskFunc{
		"enabled":      noop,
		"disabled":     noop,
		"no_schedule":  noop,
		"bad_schedule": noop,
	}

	s, err := NewScheduler(nil, cfg, taskMap)
	require.NoError(t, err)

	require.NoError(t, s.Start())
	require.ErrorIs(t, s.Start(), ErrSchedulerRunning)
	require.Equal(t, []string{"enabled"}, s.JobNames())

	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())
}

func TestSchedulerWrapRunsTask(t *testing.T) {
	t.Parallel()

	s, err := NewScheduler(nil, config.SchedulerConfig{}, nil)
	require.NoError(t, err)

	var gotDeadline bool
	s.wrap(func(ctx context.Context) error {
		_, gotDeadline = ctx.Deadline()
		return context.Canceled
	})("daily_stats")

	require.True(t, gotDeadline)
}
