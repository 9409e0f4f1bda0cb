package broadcast

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/edgard/renamerbot/internal/database"
	"github.com/edgard/renamerbot/internal/mocks"
	"github.com/edgard/renamerbot/internal/registry"
	"github.com/edgard/renamerbot/internal/transport"
)

const adminID = 99

func newRegistry(t *testing.T, ids ...int64) *registry.Registry {
	t.Helper()
	db, err := database.NewDB(":memory:")
	require.NoError(t, err)
	store := database.NewStore(db, nil)
	t.Cleanup(func() { _ = store.Close() })

	reg := registry.New(store, nil)
	for _, id := range ids {
		require.NoError(t, reg.Upsert(context.Background(), transport.User{ID: id}))
	}
	return reg
}

func activeIDs(t *testing.T, reg *registry.Registry) []int64 {
	t.Helper()
	snap, err := reg.ActiveUserIDs(context.Background())
	require.NoError(t, err)
	return slices.Collect(snap.IDs())
}

func TestRunCountsAndMarksUnreachable(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	sender := mocks.NewMockSender(ctrl)
	reg := newRegistry(t, 1, 2, 3)
	payload := transport.Text("maintenance tonight")

	gomock.InOrder(
		sender.EXPECT().Send(gomock.Any(), int64(1), payload).Return(nil),
		sender.EXPECT().Send(gomock.Any(), int64(2), payload).
			Return(transport.NewDeliveryError(transport.Unreachable, 2, errors.New("Forbidden: bot was blocked by the user"))),
		sender.EXPECT().Send(gomock.Any(), int64(3), payload).Return(nil),
	)

	d := New(Config{MinInterval: time.Millisecond}, reg, sender, nil, nil)
	sum, err := d.Run(context.Background(), NewJob(payload, adminID))
	require.NoError(t, err)
	require.Equal(t, 3, sum.Attempted)
	require.Equal(t, 2, sum.Delivered)
	require.Equal(t, 1, sum.Unreachable)
	require.False(t, sum.Cancelled)
	require.Equal(t, []int64{1, 3}, activeIDs(t, reg))

	// The unreachable recipient is excluded from the next run.
	sender.EXPECT().Send(gomock.Any(), int64(1), payload).Return(nil)
	sender.EXPECT().Send(gomock.Any(), int64(3), payload).Return(nil)
	sum, err = d.Run(context.Background(), NewJob(payload, adminID))
	require.NoError(t, err)
	require.Equal(t, 2, sum.Attempted)
	require.Equal(t, 2, sum.Delivered)
}

func TestTransientFailureIsCountedNotMarked(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	sender := mocks.NewMockSender(ctrl)
	reg := newRegistry(t, 1, 2)

	sender.EXPECT().Send(gomock.Any(), int64(1), gomock.Any()).
		Return(transport.NewDeliveryError(transport.Transient, 1, errors.New("Too Many Requests")))
	sender.EXPECT().Send(gomock.Any(), int64(2), gomock.Any()).Return(nil)

	d := New(Config{}, reg, sender, nil, nil)
	sum, err := d.Run(context.Background(), NewJob(transport.Text("hi"), adminID))
	require.NoError(t, err)
	require.Equal(t, Summary{JobID: sum.JobID, Total: 2, Attempted: 2, Delivered: 1, Unreachable: 1,
		StartedAt: sum.StartedAt, FinishedAt: sum.FinishedAt}, sum)
	require.Equal(t, []int64{1, 2}, activeIDs(t, reg))
}

func TestRunRejectsEmptyPayload(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	d := New(Config{}, newRegistry(t, 1), mocks.NewMockSender(ctrl), nil, nil)

	_, err := d.Run(context.Background(), NewJob(transport.Text("  "), adminID))
	require.ErrorIs(t, err, ErrEmptyPayload)
	require.ErrorIs(t, d.Start(context.Background(), NewJob(transport.Content{}, adminID)), ErrEmptyPayload)
}

func TestStartIsSingleFlightAndCancellable(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	sender := mocks.NewMockSender(ctrl)
	notifier := mocks.NewMockNotifier(ctrl)
	reg := newRegistry(t, 1, 2, 3)

	firstSent := make(chan struct{})
	sender.EXPECT().Send(gomock.Any(), int64(1), gomock.Any()).
		DoAndReturn(func(context.Context, int64, transport.Content) error {
			close(firstSent)
			return nil
		})
	var report string
	notifier.EXPECT().Notify(gomock.Any(), int64(adminID), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int64, text string) error {
			report = text
			return nil
		})

	// A long interval keeps the job parked before the second send.
	d := New(Config{MinInterval: time.Hour, AdminID: adminID, SummaryTemplate: "{job}{cancelled} attempted {attempted}"},
		reg, sender, notifier, nil)

	require.NoError(t, d.Start(context.Background(), NewJob(transport.Text("news"), adminID)))
	<-firstSent

	require.ErrorIs(t, d.Start(context.Background(), NewJob(transport.Text("more"), adminID)), ErrBusy)
	require.True(t, d.Status().Running)

	require.True(t, d.Cancel())
	d.Wait()
	require.Contains(t, report, "(cancelled)")
	require.Contains(t, report, "attempted 1")

	st := d.Status()
	require.False(t, st.Running)
	require.NotNil(t, st.Last)
	require.True(t, st.Last.Cancelled)
	require.Equal(t, 1, st.Last.Attempted)
	require.Equal(t, st.Last.Attempted, st.Last.Delivered+st.Last.Unreachable)
	require.False(t, d.Cancel())
}

type stampSender struct {
	mu sync.Mutex
	at []time.Time
}

func (s *stampSender) Send(context.Context, int64, transport.Content) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.at = append(s.at, time.Now())
	return nil
}

func TestRunSpacesSendsByMinInterval(t *testing.T) {
	t.Parallel()
	const interval = 50 * time.Millisecond
	sender := &stampSender{}

	d := New(Config{MinInterval: interval}, newRegistry(t, 1, 2, 3, 4, 5), sender, nil, nil)
	sum, err := d.Run(context.Background(), NewJob(transport.Text("hi"), adminID))
	require.NoError(t, err)
	require.Equal(t, 5, sum.Delivered)

	require.Len(t, sender.at, 5)
	for i := 1; i < len(sender.at); i++ {
		require.GreaterOrEqual(t, sender.at[i].Sub(sender.at[i-1]), interval, "send %d", i)
	}
}

func TestCancelDuringSendEndsRun(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	sender := mocks.NewMockSender(ctrl)
	reg := newRegistry(t, 1, 2, 3)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sender.EXPECT().Send(gomock.Any(), int64(1), gomock.Any()).Return(nil)
	sender.EXPECT().Send(gomock.Any(), int64(2), gomock.Any()).
		DoAndReturn(func(ctx context.Context, chatID int64, _ transport.Content) error {
			cancel()
			return transport.NewDeliveryError(transport.Transient, chatID, ctx.Err())
		})

	d := New(Config{}, reg, sender, nil, nil)
	sum, err := d.Run(ctx, NewJob(transport.Text("hi"), adminID))
	require.NoError(t, err)
	require.True(t, sum.Cancelled)
	require.Equal(t, 2, sum.Attempted)
	require.Equal(t, 1, sum.Delivered)
	require.Equal(t, sum.Attempted, sum.Delivered+sum.Unreachable)
	require.Equal(t, []int64{1, 2, 3}, activeIDs(t, reg))
}

func TestSummaryFormat(t *testing.T) {
	t.Parallel()

	sum := Summary{JobID: "0123456789abcdef", Total: 5, Attempted: 4, Delivered: 3, Unreachable: 1}
	require.Equal(t, "01234567: 4/5 3 1", sum.Format("{job}: {attempted}/{total} {delivered} {unreachable}"))
	require.Equal(t, "done", sum.Format("done{cancelled}"))
}
