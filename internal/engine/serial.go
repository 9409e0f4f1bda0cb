package engine

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/edgard/renamerbot/internal/logger"
	"github.com/edgard/renamerbot/internal/transport"
)

// serialExecutor runs events for one key strictly in submission order and
// never concurrently, while different keys proceed in parallel up to a cap.
// A key is present in queues exactly while its drain goroutine runs.
type serialExecutor struct {
	mu     sync.Mutex
	queues map[int64][]transport.Event
	sem    *semaphore.Weighted
	wg     sync.WaitGroup
	handle func(context.Context, transport.Event)
	log    *slog.Logger
}

func newSerialExecutor(maxConcurrent int, handle func(context.Context, transport.Event), log *slog.Logger) *serialExecutor {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &serialExecutor{
		queues: make(map[int64][]transport.Event),
		sem:    semaphore.NewWeighted(int64(maxConcurrent)),
		handle: handle,
		log:    logger.OrDiscard(log),
	}
}

// Submit enqueues ev under key. It never blocks on event processing.
func (s *serialExecutor) Submit(ctx context.Context, key int64, ev transport.Event) {
	s.mu.Lock()
	q, running := s.queues[key]
	s.queues[key] = append(q, ev)
	s.mu.Unlock()
	if running {
		return
	}

	s.wg.Add(1)
	go s.drain(ctx, key)
}

func (s *serialExecutor) drain(ctx context.Context, key int64) {
	defer s.wg.Done()

	if err := s.sem.Acquire(ctx, 1); err != nil {
		s.mu.Lock()
		delete(s.queues, key)
		s.mu.Unlock()
		return
	}
	defer s.sem.Release(1)

	for {
		s.mu.Lock()
		q := s.queues[key]
		if len(q) == 0 {
			delete(s.queues, key)
			s.mu.Unlock()
			return
		}
		ev := q[0]
		s.queues[key] = q[1:]
		s.mu.Unlock()

		s.run(ctx, ev)
	}
}

// run handles one event. A panic is logged and the key's queue moves on.
func (s *serialExecutor) run(ctx context.Context, ev transport.Event) {
	defer func() {
		if r := recover(); r != nil {
			s.log.ErrorContext(ctx, "Panic while handling event",
				"user_id", ev.Sender.ID, "update_id", ev.UpdateID, "panic", r)
		}
	}()
	s.handle(ctx, ev)
}

// Wait blocks until every submitted event has been handled or dropped.
func (s *serialExecutor) Wait() {
	s.wg.Wait()
}
