package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/edgard/renamerbot/internal/transport"
)

type fakeTransport struct {
	events    chan transport.Event
	stopEarly bool
}

func (f *fakeTransport) ReceiveEvents(context.Context) <-chan transport.Event {
	return f.events
}

func (f *fakeTransport) Start(ctx context.Context) {
	if !f.stopEarly {
		<-ctx.Done()
	}
	close(f.events)
}

type fakeEngine struct {
	handled chan transport.Event
}

func (f *fakeEngine) Run(ctx context.Context, events <-chan transport.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			f.handled <- ev
		}
	}
}

type fakeOps struct {
	err error
}

func (f fakeOps) Run(ctx context.Context) error {
	if f.err != nil {
		return f.err
	}
	<-ctx.Done()
	return nil
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	tr := &fakeTransport{events: make(chan transport.Event, 1)}
	eng := &fakeEngine{handled: make(chan transport.Event, 1)}
	b := NewBot(nil, tr, eng, nil, fakeOps{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	tr.events <- transport.Event{UpdateID: 1}
	select {
	case ev := <-eng.handled:
		require.Equal(t, int64(1), ev.UpdateID)
	case <-time.After(5 * time.Second):
		t.Fatal("event not delivered to the engine")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestRunFailsWhenListenerStops(t *testing.T) {
	t.Parallel()

	tr := &fakeTransport{events: make(chan transport.Event), stopEarly: true}
	eng := &fakeEngine{handled: make(chan transport.Event)}
	b := NewBot(nil, tr, eng, nil, nil)

	require.Error(t, b.Run(context.Background()))
}

func TestRunFailsWhenOpsFails(t *testing.T) {
	t.Parallel()

	tr := &fakeTransport{events: make(chan transport.Event)}
	eng := &fakeEngine{handled: make(chan transport.Event)}
	boom := errors.New("address in use")
	b := NewBot(nil, tr, eng, nil, fakeOps{err: boom})

	require.ErrorIs(t, b.Run(context.Background()), boom)
}
