// Package conversation implements the per-user rename flow: file intake,
// name validation and delivery of the renamed file.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/edgard/renamerbot/internal/config"
	"github.com/edgard/renamerbot/internal/logger"
	"github.com/edgard/renamerbot/internal/transport"
)

// Commands understood by the rename flow.
const (
	CommandRename = "/rename"
	CommandCancel = "/cancel"
)

// ErrFileTooLarge is returned when an attachment exceeds the size limit.
var ErrFileTooLarge = errors.New("file too large")

// Config parameterizes the machine.
type Config struct {
	Messages    config.MessagesConfig
	AdminID     int64
	MaxFileSize int64
	BotUsername string
}

// Machine runs the rename flow. Handle must not be called concurrently for
// the same user; different users may be handled in parallel.
type Machine struct {
	cfg      Config
	sender   transport.Sender
	files    transport.FileTransfer
	sessions *Sessions
	logger   *slog.Logger
}

// New creates a Machine.
func New(cfg Config, sender transport.Sender, files transport.FileTransfer, log *slog.Logger) *Machine {
	return &Machine{
		cfg:      cfg,
		sender:   sender,
		files:    files,
		sessions: NewSessions(),
		logger:   logger.OrDiscard(log).With("component", "conversation"),
	}
}

// Command returns the command word of text without any @botname suffix, or
// the empty string if text is not a command.
func Command(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	cmd, _, _ := strings.Cut(text, " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return strings.ToLower(cmd)
}

// IsCancel reports whether text asks to abort the current flow.
func IsCancel(text string, msgs config.MessagesConfig) bool {
	return Command(text) == CommandCancel || strings.TrimSpace(text) == msgs.ButtonCancel
}

// IsBegin reports whether text starts the rename flow.
func IsBegin(text string, msgs config.MessagesConfig) bool {
	return Command(text) == CommandRename || strings.TrimSpace(text) == msgs.ButtonRename
}

// State returns the user's current state.
func (m *Machine) State(userID int64) State {
	return m.sessions.Get(userID).State
}

// Session returns a copy of the user's session.
func (m *Machine) Session(userID int64) Session {
	return m.sessions.Get(userID)
}

// Reset drops the user's session without replying.
func (m *Machine) Reset(userID int64) {
	m.sessions.Clear(userID)
}

// Active returns the number of users inside the flow.
func (m *Machine) Active() int {
	return m.sessions.Len()
}

// Handle advances the user's flow with ev. Input that does not fit the
// current state is ignored or answered with a re-prompt.
func (m *Machine) Handle(ctx context.Context, ev transport.Event) error {
	userID := ev.Sender.ID
	sess := m.sessions.Get(userID)

	if IsCancel(ev.Text, m.cfg.Messages) && ev.Attachment == nil {
		if sess.State == Idle {
			return nil
		}
		m.sessions.Clear(userID)
		return m.reply(ctx, ev.ChatID, m.cfg.Messages.Cancelled, m.menu(userID))
	}

	switch sess.State {
	case Idle:
		if ev.Attachment != nil {
			return m.intake(ctx, ev)
		}
		if IsBegin(ev.Text, m.cfg.Messages) {
			m.sessions.Put(userID, Session{State: AwaitingFile})
			return m.reply(ctx, ev.ChatID, m.cfg.Messages.AskFile, CancelKeyboard(m.cfg.Messages))
		}
		return nil

	case AwaitingFile:
		if ev.Attachment != nil {
			return m.intake(ctx, ev)
		}
		return m.reply(ctx, ev.ChatID, m.cfg.Messages.AskFile, CancelKeyboard(m.cfg.Messages))

	case AwaitingName:
		if ev.Attachment != nil {
			return m.intake(ctx, ev)
		}
		return m.rename(ctx, ev, sess)
	}
	return nil
}

// intake stores the attachment and asks for the new name.
func (m *Machine) intake(ctx context.Context, ev transport.Event) error {
	userID := ev.Sender.ID
	file := *ev.Attachment

	if m.cfg.MaxFileSize > 0 && file.Size > m.cfg.MaxFileSize {
		m.sessions.Put(userID, Session{State: AwaitingFile})
		if err := m.reply(ctx, ev.ChatID, m.cfg.Messages.FileTooLarge, CancelKeyboard(m.cfg.Messages)); err != nil {
			return err
		}
		return fmt.Errorf("%w: %d bytes", ErrFileTooLarge, file.Size)
	}

	m.sessions.Put(userID, Session{
		State:     AwaitingName,
		File:      &file,
		Extension: file.Extension(),
	})
	m.logger.DebugContext(ctx, "File received", "user_id", userID, "kind", file.Kind.String(), "size", file.Size)

	prompt := strings.ReplaceAll(m.cfg.Messages.AskName, "{name}", file.DisplayName())
	return m.reply(ctx, ev.ChatID, prompt, CancelKeyboard(m.cfg.Messages))
}

// rename validates the proposed name and delivers the file under it. The
// session ends whether or not delivery succeeds.
func (m *Machine) rename(ctx context.Context, ev transport.Event, sess Session) error {
	stem, err := ValidateName(ev.Text)
	if err != nil {
		var nameErr *NameError
		msg := m.cfg.Messages.ReservedChars
		if errors.As(err, &nameErr) && nameErr.Reason == ReasonEmpty {
			msg = m.cfg.Messages.EmptyName
		}
		if replyErr := m.reply(ctx, ev.ChatID, msg, transport.Keyboard{}); replyErr != nil {
			return errors.Join(err, replyErr)
		}
		return err
	}

	userID := ev.Sender.ID
	final := FinalName(stem, sess.Extension)
	m.sessions.Clear(userID)

	if err := m.deliver(ctx, ev.ChatID, sess.File, final); err != nil {
		m.logger.WarnContext(ctx, "Renamed file not delivered", "user_id", userID, "name", final, "error", err)
		if replyErr := m.reply(ctx, ev.ChatID, m.cfg.Messages.DeliveryFailed, m.menu(userID)); replyErr != nil {
			return errors.Join(err, replyErr)
		}
		return err
	}

	m.logger.InfoContext(ctx, "File renamed", "user_id", userID, "name", final)
	return m.reply(ctx, ev.ChatID, m.cfg.Messages.Done, m.menu(userID))
}

func (m *Machine) deliver(ctx context.Context, chatID int64, file *transport.Attachment, name string) error {
	if file == nil {
		return errors.New("session has no file")
	}
	data, err := m.files.FetchBinary(ctx, file.FileID)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", file.FileID, err)
	}
	if err := m.files.DeliverBinary(ctx, chatID, data, name, m.caption(name)); err != nil {
		return fmt.Errorf("deliver %q: %w", name, err)
	}
	return nil
}

func (m *Machine) caption(name string) string {
	if m.cfg.BotUsername == "" {
		return name
	}
	return strings.NewReplacer("{name}", name, "{bot}", m.cfg.BotUsername).Replace(m.cfg.Messages.Caption)
}

func (m *Machine) menu(userID int64) transport.Keyboard {
	return MenuKeyboard(m.cfg.Messages, userID == m.cfg.AdminID)
}

func (m *Machine) reply(ctx context.Context, chatID int64, text string, kb transport.Keyboard) error {
	if err := m.sender.Send(ctx, chatID, transport.Content{Text: text, Keyboard: kb}); err != nil {
		m.logger.WarnContext(ctx, "Reply not delivered", "chat_id", chatID, "error", err)
		return err
	}
	return nil
}
