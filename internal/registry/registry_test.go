package registry

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/edgard/renamerbot/internal/database"
	"github.com/edgard/renamerbot/internal/transport"
)

func newTestRegistry(t *testing.T) (*Registry, *clockwork.FakeClock) {
	t.Helper()

	db, err := database.NewDB(":memory:")
	require.NoError(t, err)
	store := database.NewStore(db, nil)
	t.Cleanup(func() { _ = store.Close() })

	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	return New(store, nil, WithClock(clock)), clock
}

func TestUpsertIsIdempotent(t *testing.T) {
	t.Parallel()
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	for range 3 {
		require.NoError(t, reg.Upsert(ctx, transport.User{ID: 5, DisplayName: "eve"}))
	}

	total, err := reg.Count(ctx, All())
	require.NoError(t, err)
	require.Equal(t, 1, total)
}

func TestSnapshotIsStableAndRestartable(t *testing.T) {
	t.Parallel()
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	for _, id := range []int64{3, 1, 2} {
		require.NoError(t, reg.Upsert(ctx, transport.User{ID: id}))
	}

	snap, err := reg.ActiveUserIDs(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, snap.Len())

	// Writes after the snapshot do not change it.
	require.NoError(t, reg.MarkUnreachable(ctx, 2))
	require.NoError(t, reg.Upsert(ctx, transport.User{ID: 4}))

	first := slices.Collect(snap.IDs())
	second := slices.Collect(snap.IDs())
	require.Equal(t, []int64{1, 2, 3}, first)
	require.Equal(t, first, second)

	next, err := reg.ActiveUserIDs(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 3, 4}, slices.Collect(next.IDs()))
}

func TestBanIsMonotonic(t *testing.T) {
	t.Parallel()
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, reg.Upsert(ctx, transport.User{ID: 9}))

	inserted, err := reg.Ban(ctx, 9, "flood")
	require.NoError(t, err)
	require.True(t, inserted)

	inserted, err = reg.Ban(ctx, 9, "flood")
	require.NoError(t, err)
	require.False(t, inserted)

	banned, err := reg.IsBanned(ctx, 9)
	require.NoError(t, err)
	require.True(t, banned)

	snap, err := reg.ActiveUserIDs(ctx)
	require.NoError(t, err)
	require.Zero(t, snap.Len())
}

func TestStats(t *testing.T) {
	t.Parallel()
	reg, clock := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, reg.Upsert(ctx, transport.User{ID: 1}))
	require.NoError(t, reg.Upsert(ctx, transport.User{ID: 2}))
	clock.Advance(48 * time.Hour)
	require.NoError(t, reg.Upsert(ctx, transport.User{ID: 3}))
	require.NoError(t, reg.Upsert(ctx, transport.User{ID: 4}))
	require.NoError(t, reg.MarkUnreachable(ctx, 2))
	_, err := reg.Ban(ctx, 4, "flood")
	require.NoError(t, err)

	stats, err := reg.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, Stats{Total: 4, Active: 2, Today: 2, Banned: 1}, stats)
}

func TestArmChat(t *testing.T) {
	t.Parallel()
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	armed, err := reg.IsChatArmed(ctx, -42)
	require.NoError(t, err)
	require.False(t, armed)

	require.NoError(t, reg.ArmChat(ctx, -42, 7))

	armed, err = reg.IsChatArmed(ctx, -42)
	require.NoError(t, err)
	require.True(t, armed)
}

func TestStatsFormat(t *testing.T) {
	t.Parallel()

	s := Stats{Total: 10, Active: 8, Today: 3, Banned: 1}
	require.Equal(t, "10/8/3/1", s.Format("{total}/{active}/{today}/{banned}"))
}
