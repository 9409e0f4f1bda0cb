// Package bot orchestrates the bot's long-running components: the chat
// transport, the engine, the scheduler and the ops server.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/edgard/renamerbot/internal/logger"
	"github.com/edgard/renamerbot/internal/transport"
)

// Transport is the chat connection: it polls until ctx is done and feeds
// the event stream.
type Transport interface {
	transport.Source
	Start(ctx context.Context)
}

// Engine consumes the event stream.
type Engine interface {
	Run(ctx context.Context, events <-chan transport.Event) error
}

// OpsServer serves HTTP until ctx is done.
type OpsServer interface {
	Run(ctx context.Context) error
}

// Bot represents the main bot application and manages its components' lifecycle.
type Bot struct {
	logger    *slog.Logger
	transport Transport
	engine    Engine
	scheduler *Scheduler
	ops       OpsServer
}

// NewBot creates the orchestrator. scheduler and ops may be nil.
func NewBot(log *slog.Logger, tr Transport, engine Engine, scheduler *Scheduler, ops OpsServer) *Bot {
	return &Bot{
		logger:    logger.OrDiscard(log).With("component", "bot_orchestrator"),
		transport: tr,
		engine:    engine,
		scheduler: scheduler,
		ops:       ops,
	}
}

// Run starts every component and blocks until ctx is cancelled or one of
// them fails. The engine drains queued events before Run returns.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...")

	g, gCtx := errgroup.WithContext(ctx)

	events := b.transport.ReceiveEvents(gCtx)

	g.Go(func() error {
		b.logger.Info("Starting Telegram listener...")
		b.transport.Start(gCtx)
		b.logger.Info("Telegram listener stopped.")

		if gCtx.Err() == nil {
			b.logger.Warn("Telegram listener stopped unexpectedly without context cancellation.")
			return errors.New("telegram listener stopped unexpectedly")
		}
		return nil
	})

	g.Go(func() error {
		return b.engine.Run(gCtx, events)
	})

	if b.scheduler != nil {
		g.Go(func() error {
			if err := b.scheduler.Start(); err != nil {
				return fmt.Errorf("start scheduler: %w", err)
			}
			<-gCtx.Done()
			b.logger.Info("Shutdown signal received, stopping scheduler...")
			if err := b.scheduler.Stop(); err != nil {
				b.logger.Error("Error stopping scheduler", "error", err)
			}
			return nil
		})
	}

	if b.ops != nil {
		g.Go(func() error {
			return b.ops.Run(gCtx)
		})
	}

	b.logger.Info("Bot orchestrator running. Waiting for shutdown signal or error...")
	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}
