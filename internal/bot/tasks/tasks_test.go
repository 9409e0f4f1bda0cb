package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/edgard/renamerbot/internal/config"
	"github.com/edgard/renamerbot/internal/database"
	"github.com/edgard/renamerbot/internal/mocks"
	"github.com/edgard/renamerbot/internal/registry"
	"github.com/edgard/renamerbot/internal/transport"
)

func newTestDeps(t *testing.T) (TaskDeps, *mocks.MockNotifier) {
	t.Helper()

	db, err := database.NewDB(":memory:")
	require.NoError(t, err)
	store := database.NewStore(db, nil)
	t.Cleanup(func() { _ = store.Close() })

	notifier := mocks.NewMockNotifier(gomock.NewController(t))
	cfg := &config.Config{
		Telegram: config.TelegramConfig{AdminID: 77},
		Messages: config.DefaultMessages,
	}
	return TaskDeps{
		Registry: registry.New(store, nil),
		Notifier: notifier,
		Config:   cfg,
	}, notifier
}

func TestRegisterAllTasks(t *testing.T) {
	t.Parallel()
	deps, _ := newTestDeps(t)

	tasks := RegisterAllTasks(deps)

	require.Len(t, tasks, 2)
	require.Contains(t, tasks, SQLMaintenance)
	require.Contains(t, tasks, DailyStats)
	for name := range config.DefaultTasks {
		require.Contains(t, tasks, name)
	}
}

func TestSQLMaintenanceTask(t *testing.T) {
	t.Parallel()
	deps, _ := newTestDeps(t)

	task := RegisterAllTasks(deps)[SQLMaintenance]
	require.NoError(t, task(context.Background()))
}

func TestDailyStatsTask(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name      string
		notifyErr error
		wantErr   bool
	}{
		{name: "delivered"},
		{name: "notify fails", notifyErr: errors.New("forbidden"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			deps, notifier := newTestDeps(t)
			require.NoError(t, deps.Registry.Upsert(ctx, transport.User{ID: 1}))
			require.NoError(t, deps.Registry.Upsert(ctx, transport.User{ID: 2}))

			want := "Users: 2\nActive: 2\nSeen today: 2\nBanned: 0"
			notifier.EXPECT().Notify(gomock.Any(), int64(77), want).Return(tt.notifyErr)

			err := RegisterAllTasks(deps)[DailyStats](ctx)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}
