package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edgard/renamerbot/internal/transport"
)

func TestSerialExecutorOrdersPerKey(t *testing.T) {
	t.Parallel()

	const keys, perKey = 5, 50

	var (
		mu       sync.Mutex
		seen     = make(map[int64][]int64)
		inFlight [keys]atomic.Int32
		overlap  atomic.Bool
	)
	exec := newSerialExecutor(3, func(_ context.Context, ev transport.Event) {
		key := ev.Sender.ID
		if inFlight[key].Add(1) > 1 {
			overlap.Store(true)
		}
		mu.Lock()
		seen[key] = append(seen[key], ev.UpdateID)
		mu.Unlock()
		inFlight[key].Add(-1)
	}, nil)

	for i := range perKey {
		for key := range int64(keys) {
			exec.Submit(context.Background(), key, transport.Event{
				UpdateID: int64(i),
				Sender:   transport.User{ID: key},
			})
		}
	}
	exec.Wait()

	require.False(t, overlap.Load(), "events for one key overlapped")
	for key := range int64(keys) {
		require.Len(t, seen[key], perKey)
		for i, id := range seen[key] {
			require.Equal(t, int64(i), id)
		}
	}
}

func TestSerialExecutorRunsKeysInParallel(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan int64, 2)
	exec := newSerialExecutor(2, func(_ context.Context, ev transport.Event) {
		started <- ev.Sender.ID
		<-release
	}, nil)

	exec.Submit(context.Background(), 1, transport.Event{Sender: transport.User{ID: 1}})
	exec.Submit(context.Background(), 2, transport.Event{Sender: transport.User{ID: 2}})

	// Both handlers block until released, so both must have started.
	got := map[int64]bool{<-started: true, <-started: true}
	close(release)
	exec.Wait()

	require.Equal(t, map[int64]bool{1: true, 2: true}, got)
}

func TestSerialExecutorSurvivesPanics(t *testing.T) {
	t.Parallel()

	var handled []int64
	exec := newSerialExecutor(1, func(_ context.Context, ev transport.Event) {
		if ev.UpdateID == 1 {
			panic("boom")
		}
		handled = append(handled, ev.UpdateID)
	}, nil)

	for id := range int64(3) {
		exec.Submit(context.Background(), 7, transport.Event{UpdateID: id, Sender: transport.User{ID: 7}})
	}
	exec.Wait()
	exec.Submit(context.Background(), 7, transport.Event{UpdateID: 3, Sender: transport.User{ID: 7}})
	exec.Wait()

	require.Equal(t, []int64{0, 2, 3}, handled)
}
