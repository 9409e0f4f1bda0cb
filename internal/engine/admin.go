package engine

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/edgard/renamerbot/internal/broadcast"
	"github.com/edgard/renamerbot/internal/conversation"
	"github.com/edgard/renamerbot/internal/registry"
	"github.com/edgard/renamerbot/internal/transport"
)

// Admin commands.
const (
	CommandStats           = "/stats"
	CommandBroadcast       = "/broadcast"
	CommandBroadcastCancel = "/broadcast_cancel"
	CommandBroadcastStatus = "/broadcast_status"
	CommandConfirm         = "/confirm"
)

// composeStage is the broadcast-compose flow state. It lives apart from the
// rename flow so an admin can be in both without interference.
type composeStage int

const (
	composeIdle composeStage = iota
	composeAwaitingPayload
	composeAwaitingConfirm
)

type composeSession struct {
	stage   composeStage
	payload transport.Content
	prompt  string
}

func (e *Engine) getCompose(userID int64) composeSession {
	e.composeMu.Lock()
	defer e.composeMu.Unlock()
	return e.compose[userID]
}

func (e *Engine) setCompose(userID int64, s composeSession) {
	e.composeMu.Lock()
	defer e.composeMu.Unlock()
	if s.stage == composeIdle {
		delete(e.compose, userID)
		return
	}
	e.compose[userID] = s
}

func (e *Engine) clearCompose(userID int64) {
	e.setCompose(userID, composeSession{})
}

// handleAdmin runs admin intents. It reports false when ev is not one, so
// the rename flow gets it.
func (e *Engine) handleAdmin(ctx context.Context, ev transport.Event) bool {
	msgs := e.cfg.Messages
	text := strings.TrimSpace(ev.Text)
	cmd := conversation.Command(text)

	if sess := e.getCompose(ev.Sender.ID); sess.stage != composeIdle {
		if ev.Attachment == nil && conversation.IsCancel(text, msgs) {
			e.clearCompose(ev.Sender.ID)
			e.send(ctx, ev.ChatID, transport.Content{Text: msgs.Cancelled, Keyboard: conversation.MenuKeyboard(msgs, true)})
			return true
		}
		e.continueCompose(ctx, ev, sess)
		return true
	}

	switch {
	case cmd == CommandStats || text == msgs.ButtonStats:
		e.sendStats(ctx, ev.ChatID)
	case cmd == CommandBroadcast || text == msgs.ButtonBroadcast:
		if e.deps.Dispatcher.Status().Running {
			e.send(ctx, ev.ChatID, transport.Text(msgs.BroadcastBusy))
			return true
		}
		e.setCompose(ev.Sender.ID, composeSession{stage: composeAwaitingPayload})
		e.send(ctx, ev.ChatID, transport.Content{Text: msgs.BroadcastAsk, Keyboard: conversation.CancelKeyboard(msgs)})
	case cmd == CommandBroadcastCancel:
		if e.deps.Dispatcher.Cancel() {
			e.send(ctx, ev.ChatID, transport.Text(msgs.Cancelled))
		} else {
			e.send(ctx, ev.ChatID, transport.Text(msgs.BroadcastIdle))
		}
	case cmd == CommandBroadcastStatus:
		e.send(ctx, ev.ChatID, transport.Text(e.broadcastStatus()))
	default:
		return false
	}
	return true
}

func (e *Engine) continueCompose(ctx context.Context, ev transport.Event, sess composeSession) {
	msgs := e.cfg.Messages

	switch sess.stage {
	case composeAwaitingPayload:
		payload := transport.Content{Text: ev.Text, File: ev.Attachment}
		if payload.Empty() {
			e.send(ctx, ev.ChatID, transport.Content{Text: msgs.BroadcastAsk, Keyboard: conversation.CancelKeyboard(msgs)})
			return
		}
		count, err := e.deps.Registry.Count(ctx, registry.Active())
		if err != nil {
			e.log.WarnContext(ctx, "Failed to count broadcast audience", "error", err)
			e.send(ctx, ev.ChatID, transport.Text(msgs.GeneralError))
			return
		}
		prompt := strings.NewReplacer("{count}", strconv.Itoa(count), "{preview}", payload.Summary()).Replace(msgs.BroadcastConfirm)
		e.setCompose(ev.Sender.ID, composeSession{stage: composeAwaitingConfirm, payload: payload, prompt: prompt})
		e.send(ctx, ev.ChatID, transport.Content{Text: prompt, Keyboard: conversation.ConfirmKeyboard(msgs)})

	case composeAwaitingConfirm:
		text := strings.TrimSpace(ev.Text)
		if ev.Attachment != nil || (text != msgs.ButtonConfirm && conversation.Command(text) != CommandConfirm) {
			e.send(ctx, ev.ChatID, transport.Content{Text: sess.prompt, Keyboard: conversation.ConfirmKeyboard(msgs)})
			return
		}
		e.clearCompose(ev.Sender.ID)
		menu := conversation.MenuKeyboard(msgs, true)

		job := broadcast.NewJob(sess.payload, ev.Sender.ID)
		err := e.deps.Dispatcher.Start(e.backgroundContext(), job)
		switch {
		case errors.Is(err, broadcast.ErrBusy):
			e.send(ctx, ev.ChatID, transport.Content{Text: msgs.BroadcastBusy, Keyboard: menu})
		case err != nil:
			e.log.ErrorContext(ctx, "Failed to start broadcast", "error", err)
			e.send(ctx, ev.ChatID, transport.Content{Text: msgs.GeneralError, Keyboard: menu})
		default:
			started := strings.ReplaceAll(msgs.BroadcastStarted, "{job}", broadcast.Summary{JobID: job.ID}.Format("{job}"))
			e.send(ctx, ev.ChatID, transport.Content{Text: started, Keyboard: menu})
		}
	}
}

func (e *Engine) sendStats(ctx context.Context, chatID int64) {
	stats, err := e.deps.Registry.Stats(ctx)
	if err != nil {
		e.log.WarnContext(ctx, "Failed to gather stats", "error", err)
		e.send(ctx, chatID, transport.Text(e.cfg.Messages.GeneralError))
		return
	}
	e.send(ctx, chatID, transport.Text(stats.Format(e.cfg.Messages.Stats)))
}

func (e *Engine) broadcastStatus() string {
	st := e.deps.Dispatcher.Status()
	switch {
	case st.Running && st.Current != nil:
		return st.Current.Format(e.cfg.Messages.BroadcastStatus)
	case st.Last != nil:
		return st.Last.Format(e.cfg.Messages.BroadcastSummary)
	default:
		return e.cfg.Messages.BroadcastIdle
	}
}
