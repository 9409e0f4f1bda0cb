// Package engine routes inbound events through the registry, the guardian and
// then either the admin commands or the rename flow, handling each user's
// events one at a time.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/edgard/renamerbot/internal/broadcast"
	"github.com/edgard/renamerbot/internal/config"
	"github.com/edgard/renamerbot/internal/conversation"
	apperrors "github.com/edgard/renamerbot/internal/errors"
	"github.com/edgard/renamerbot/internal/guardian"
	"github.com/edgard/renamerbot/internal/logger"
	"github.com/edgard/renamerbot/internal/registry"
	"github.com/edgard/renamerbot/internal/transport"
)

// CommandStart shows the welcome text and the menu.
const CommandStart = "/start"

// Config parameterizes the engine.
type Config struct {
	AdminID            int64
	Messages           config.MessagesConfig
	MaxConcurrentUsers int
	OpTimeout          time.Duration
}

// Deps are the engine's collaborators.
type Deps struct {
	Registry   *registry.Registry
	Guardian   *guardian.Guardian
	Machine    *conversation.Machine
	Dispatcher *broadcast.Dispatcher
	Sender     transport.Sender
	Logger     *slog.Logger
}

// Engine is the facade over the session and broadcast components.
type Engine struct {
	cfg  Config
	deps Deps
	log  *slog.Logger
	exec *serialExecutor

	// runCtx bounds background broadcast jobs; Run replaces it.
	runMu  sync.RWMutex
	runCtx context.Context

	composeMu sync.Mutex
	compose   map[int64]composeSession
}

// New creates an Engine.
func New(cfg Config, deps Deps) *Engine {
	e := &Engine{
		cfg:     cfg,
		deps:    deps,
		log:     logger.OrDiscard(deps.Logger).With("component", "engine"),
		runCtx:  context.Background(),
		compose: make(map[int64]composeSession),
	}
	e.exec = newSerialExecutor(cfg.MaxConcurrentUsers, e.Handle, e.log)
	return e
}

// Run consumes events until ctx is done or the stream closes, then waits for
// queued events and any running broadcast to finish.
func (e *Engine) Run(ctx context.Context, events <-chan transport.Event) error {
	e.runMu.Lock()
	e.runCtx = ctx
	e.runMu.Unlock()

	e.log.InfoContext(ctx, "Engine started", "max_concurrent_users", e.cfg.MaxConcurrentUsers)

	// Queued events still run to completion after shutdown starts, each
	// bounded by the per-operation timeout.
	workCtx := context.WithoutCancel(ctx)
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case ev, ok := <-events:
			if !ok {
				break loop
			}
			e.exec.Submit(workCtx, ev.Sender.ID, ev)
		}
	}

	e.log.InfoContext(ctx, "Engine draining queued events")
	e.exec.Wait()
	e.deps.Dispatcher.Wait()
	e.log.InfoContext(ctx, "Engine stopped")
	return nil
}

func (e *Engine) backgroundContext() context.Context {
	e.runMu.RLock()
	defer e.runMu.RUnlock()
	return e.runCtx
}

// Handle processes one event synchronously. Callers must not invoke it
// concurrently for the same user; Run guarantees that.
func (e *Engine) Handle(ctx context.Context, ev transport.Event) {
	if e.cfg.OpTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.OpTimeout)
		defer cancel()
	}
	log := e.log.With("user_id", ev.Sender.ID, "chat_id", ev.ChatID)

	if err := e.deps.Registry.Upsert(ctx, ev.Sender); err != nil {
		log.WarnContext(ctx, "Failed to record user", "error", err)
	}

	verdict := e.deps.Guardian.Admit(ctx, ev)
	switch verdict {
	case guardian.Ignored, guardian.Banned:
		log.DebugContext(ctx, "Event dropped", "verdict", verdict.String())
		return
	case guardian.Flooded:
		log.InfoContext(ctx, "Event rejected", "error", verdict.Err())
		e.send(ctx, ev.ChatID, transport.Content{Text: e.cfg.Messages.Banned, Keyboard: transport.RemoveKeyboard})
		return
	case guardian.Armed:
		e.send(ctx, ev.ChatID, transport.Text(e.cfg.Messages.GroupActivated))
		return
	}

	if ev.ChatKind == transport.ChatGroup && guardian.IsActivation(ev.Text) {
		e.send(ctx, ev.ChatID, transport.Text(e.cfg.Messages.GroupActive))
		return
	}

	isAdmin := ev.Sender.ID == e.cfg.AdminID
	if conversation.Command(ev.Text) == CommandStart {
		e.deps.Machine.Reset(ev.Sender.ID)
		e.clearCompose(ev.Sender.ID)
		e.send(ctx, ev.ChatID, transport.Content{
			Text:     e.cfg.Messages.Welcome,
			Keyboard: conversation.MenuKeyboard(e.cfg.Messages, isAdmin),
		})
		return
	}

	if isAdmin && e.handleAdmin(ctx, ev) {
		return
	}

	if err := e.deps.Machine.Handle(ctx, ev); err != nil {
		e.logHandleError(ctx, log, err)
	}
}

func (e *Engine) logHandleError(ctx context.Context, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, conversation.ErrFileTooLarge):
		log.DebugContext(ctx, "Input rejected", "error", err)
	case errors.Is(err, apperrors.ErrUnreachable):
		log.InfoContext(ctx, "User unreachable", "error", err)
	default:
		log.WarnContext(ctx, "Event handling failed", "code", apperrors.Code(err), "error", err)
	}
}

func (e *Engine) send(ctx context.Context, chatID int64, content transport.Content) {
	if err := e.deps.Sender.Send(ctx, chatID, content); err != nil {
		e.log.WarnContext(ctx, "Reply not delivered", "chat_id", chatID, "error", err)
	}
}
