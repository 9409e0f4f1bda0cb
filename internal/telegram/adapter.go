package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"golang.org/x/time/rate"

	"github.com/edgard/renamerbot/internal/guardian"
	"github.com/edgard/renamerbot/internal/logger"
	"github.com/edgard/renamerbot/internal/transport"
)

const (
	eventBuffer       = 256
	downloadTimeout   = 2 * time.Minute
	adminCheckTimeout = 10 * time.Second

	// Bot API guidance caps outbound messages at about 30 per second.
	defaultSendRate = 30
)

// Adapter implements transport.Source and transport.Transport over the
// Telegram Bot API.
type Adapter struct {
	bot         *bot.Bot
	token       string
	maxDownload int64
	httpClient  *http.Client
	sendLimit   *rate.Limiter
	logger      *slog.Logger

	// eventsMu guards events against sends after close; handlers may still
	// be running when polling stops.
	eventsMu sync.RWMutex
	events   chan transport.Event
	closed   bool
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithHTTPClient sets the client used for file downloads.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) {
		a.httpClient = c
	}
}

// WithMaxDownload caps the size of fetched files.
func WithMaxDownload(n int64) Option {
	return func(a *Adapter) {
		a.maxDownload = n
	}
}

// WithSendRate caps outbound sends across all chats. A non-positive
// perSecond removes the cap.
func WithSendRate(perSecond float64, burst int) Option {
	return func(a *Adapter) {
		a.sendLimit = newSendLimiter(perSecond, burst)
	}
}

func newSendLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
}

// NewAdapter creates the bot client and routes every update into the event
// stream. Extra bot options are appended after the adapter's own.
func NewAdapter(token string, log *slog.Logger, opts []Option, botOpts ...bot.Option) (*Adapter, error) {
	log = logger.OrDiscard(log)
	a := &Adapter{
		token:       token,
		maxDownload: 20 << 20,
		httpClient:  http.DefaultClient,
		sendLimit:   newSendLimiter(defaultSendRate, defaultSendRate),
		logger:      log.With("component", "telegram_adapter"),
		events:      make(chan transport.Event, eventBuffer),
	}
	for _, opt := range opts {
		opt(a)
	}

	handler := applyMiddleware(a.handleUpdate, []bot.Middleware{
		recoverMiddleware(a.logger),
		logger.Middleware(log),
	})
	b, err := NewTelegramBot(token, log, append([]bot.Option{bot.WithDefaultHandler(handler)}, botOpts...)...)
	if err != nil {
		return nil, err
	}
	a.bot = b
	return a, nil
}

// Bot exposes the underlying client.
func (a *Adapter) Bot() *bot.Bot {
	return a.bot
}

// Username asks the Bot API for the bot's username.
func (a *Adapter) Username(ctx context.Context) (string, error) {
	me, err := a.bot.GetMe(ctx)
	if err != nil {
		return "", fmt.Errorf("get bot info: %w", err)
	}
	return me.Username, nil
}

// Start polls for updates until ctx is done, then closes the event stream.
func (a *Adapter) Start(ctx context.Context) {
	a.bot.Start(ctx)

	a.eventsMu.Lock()
	defer a.eventsMu.Unlock()
	if !a.closed {
		a.closed = true
		close(a.events)
	}
}

// ReceiveEvents returns the inbound event stream. It is closed once Start
// returns.
func (a *Adapter) ReceiveEvents(_ context.Context) <-chan transport.Event {
	return a.events
}

func (a *Adapter) handleUpdate(ctx context.Context, b *bot.Bot, update *models.Update) {
	ev, ok := eventFromUpdate(update)
	if !ok {
		return
	}
	if ev.ChatKind == transport.ChatGroup && guardian.IsActivation(ev.Text) {
		admin, err := a.IsChatAdmin(ctx, ev.ChatID, ev.Sender.ID)
		if err != nil {
			a.logger.WarnContext(ctx, "Chat admin check failed", "chat_id", ev.ChatID, "user_id", ev.Sender.ID, "error", err)
		}
		ev.SenderIsChatAdmin = admin
	}

	a.eventsMu.RLock()
	defer a.eventsMu.RUnlock()
	if a.closed {
		return
	}
	select {
	case a.events <- ev:
	case <-ctx.Done():
	}
}

// eventFromUpdate reduces an update to an engine event. Updates without a
// message, a sender or a supported chat type are dropped.
func eventFromUpdate(update *models.Update) (transport.Event, bool) {
	if update == nil || update.Message == nil || update.Message.From == nil {
		return transport.Event{}, false
	}
	msg := update.Message

	var kind transport.ChatKind
	switch msg.Chat.Type {
	case models.ChatTypePrivate:
		kind = transport.ChatPrivate
	case models.ChatTypeGroup, models.ChatTypeSupergroup:
		kind = transport.ChatGroup
	default:
		return transport.Event{}, false
	}

	received := time.Now()
	if msg.Date > 0 {
		received = time.Unix(int64(msg.Date), 0)
	}

	return transport.Event{
		UpdateID: int64(update.ID),
		ChatID:   msg.Chat.ID,
		ChatKind: kind,
		Sender: transport.User{
			ID:          msg.From.ID,
			DisplayName: displayName(msg.From),
		},
		Text:       msg.Text,
		Attachment: attachmentFromMessage(msg),
		ReceivedAt: received,
	}, true
}

func displayName(u *models.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" && u.Username != "" {
		return "@" + u.Username
	}
	return name
}

func attachmentFromMessage(msg *models.Message) *transport.Attachment {
	switch {
	case msg.Document != nil:
		return &transport.Attachment{
			Kind:     transport.KindDocument,
			FileID:   msg.Document.FileID,
			FileName: msg.Document.FileName,
			MimeType: msg.Document.MimeType,
			Size:     int64(msg.Document.FileSize),
		}
	case len(msg.Photo) > 0:
		largest := msg.Photo[len(msg.Photo)-1]
		return &transport.Attachment{
			Kind:     transport.KindPhoto,
			FileID:   largest.FileID,
			MimeType: "image/jpeg",
			Size:     int64(largest.FileSize),
		}
	case msg.Video != nil:
		return &transport.Attachment{
			Kind:     transport.KindVideo,
			FileID:   msg.Video.FileID,
			FileName: msg.Video.FileName,
			MimeType: msg.Video.MimeType,
			Size:     int64(msg.Video.FileSize),
		}
	case msg.Audio != nil:
		return &transport.Attachment{
			Kind:     transport.KindAudio,
			FileID:   msg.Audio.FileID,
			FileName: msg.Audio.FileName,
			MimeType: msg.Audio.MimeType,
			Size:     int64(msg.Audio.FileSize),
		}
	case msg.Voice != nil:
		return &transport.Attachment{
			Kind:     transport.KindVoice,
			FileID:   msg.Voice.FileID,
			MimeType: msg.Voice.MimeType,
			Size:     int64(msg.Voice.FileSize),
		}
	default:
		return nil
	}
}

// IsChatAdmin reports whether userID administers or owns chatID.
func (a *Adapter) IsChatAdmin(ctx context.Context, chatID, userID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, adminCheckTimeout)
	defer cancel()

	member, err := a.bot.GetChatMember(ctx, &bot.GetChatMemberParams{ChatID: chatID, UserID: userID})
	if err != nil {
		return false, fmt.Errorf("get chat member: %w", err)
	}
	switch member.Type {
	case models.ChatMemberTypeOwner, models.ChatMemberTypeAdministrator:
		return true, nil
	default:
		return false, nil
	}
}

// Send delivers text, or re-sends a received file by id with Text as caption.
func (a *Adapter) Send(ctx context.Context, chatID int64, content transport.Content) error {
	if err := a.throttle(ctx, chatID); err != nil {
		return err
	}
	markup := replyMarkup(content.Keyboard)

	var err error
	if f := content.File; f != nil {
		ref := &models.InputFileString{Data: f.FileID}
		switch f.Kind {
		case transport.KindPhoto:
			_, err = a.bot.SendPhoto(ctx, &bot.SendPhotoParams{ChatID: chatID, Photo: ref, Caption: content.Text, ReplyMarkup: markup})
		case transport.KindVideo:
			_, err = a.bot.SendVideo(ctx, &bot.SendVideoParams{ChatID: chatID, Video: ref, Caption: content.Text, ReplyMarkup: markup})
		case transport.KindAudio:
			_, err = a.bot.SendAudio(ctx, &bot.SendAudioParams{ChatID: chatID, Audio: ref, Caption: content.Text, ReplyMarkup: markup})
		case transport.KindVoice:
			_, err = a.bot.SendVoice(ctx, &bot.SendVoiceParams{ChatID: chatID, Voice: ref, Caption: content.Text, ReplyMarkup: markup})
		default:
			_, err = a.bot.SendDocument(ctx, &bot.SendDocumentParams{ChatID: chatID, Document: ref, Caption: content.Text, ReplyMarkup: markup})
		}
	} else {
		_, err = a.bot.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: content.Text, ReplyMarkup: markup})
	}
	return classify(chatID, err)
}

// Notify sends a plain text message to the admin.
func (a *Adapter) Notify(ctx context.Context, adminID int64, text string) error {
	return a.Send(ctx, adminID, transport.Text(text))
}

// DeliverBinary uploads data as a document named filename.
func (a *Adapter) DeliverBinary(ctx context.Context, chatID int64, data []byte, filename, caption string) error {
	if err := a.throttle(ctx, chatID); err != nil {
		return err
	}
	_, err := a.bot.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:   chatID,
		Document: &models.InputFileUpload{Filename: filename, Data: bytes.NewReader(data)},
		Caption:  caption,
	})
	return classify(chatID, err)
}

// FetchBinary downloads a file previously received by the bot.
func (a *Adapter) FetchBinary(ctx context.Context, fileID string) (data []byte, err error) {
	if fileID == "" {
		return nil, fmt.Errorf("empty fileID provided")
	}
	downloadCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	fileObj, err := a.bot.GetFile(downloadCtx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, transport.NewDeliveryError(transport.Transient, 0, fmt.Errorf("failed to get file: %w", err))
	}
	if fileObj.FilePath == "" {
		return nil, fmt.Errorf("empty file path returned from Telegram for file ID %s", fileID)
	}

	url := fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", a.token, fileObj.FilePath)
	req, err := http.NewRequestWithContext(downloadCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		// The URL carries the token; keep it out of the error.
		return nil, transport.NewDeliveryError(transport.Transient, 0, errors.New("failed to download file"))
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", closeErr)
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	data, err = io.ReadAll(io.LimitReader(resp.Body, a.maxDownload+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file data: %w", err)
	}
	if int64(len(data)) > a.maxDownload {
		return nil, fmt.Errorf("file exceeds %d bytes", a.maxDownload)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("received empty file data")
	}
	a.logger.DebugContext(ctx, "File downloaded", "file_id", fileID, "size", len(data), "mime", detectMIME(data))
	return data, nil
}

// detectMIME sniffs the content type of downloaded bytes for logging.
func detectMIME(data []byte) string {
	return mimetype.Detect(data).String()
}

func replyMarkup(kb transport.Keyboard) models.ReplyMarkup {
	switch {
	case kb.Remove:
		return &models.ReplyKeyboardRemove{RemoveKeyboard: true}
	case len(kb.Rows) > 0:
		rows := make([][]models.KeyboardButton, 0, len(kb.Rows))
		for _, row := range kb.Rows {
			buttons := make([]models.KeyboardButton, 0, len(row))
			for _, label := range row {
				buttons = append(buttons, models.KeyboardButton{Text: label})
			}
			rows = append(rows, buttons)
		}
		return &models.ReplyKeyboardMarkup{Keyboard: rows, ResizeKeyboard: true}
	default:
		return nil
	}
}

// unreachableHints are Bot API descriptions that prove a recipient gone for
// good even when reported as a bad request.
var unreachableHints = []string{
	"chat not found",
	"user is deactivated",
	"bot was blocked",
	"bot was kicked",
}

// throttle waits for an outbound slot. A wait cut short by ctx is a
// transient failure.
func (a *Adapter) throttle(ctx context.Context, chatID int64) error {
	if err := a.sendLimit.Wait(ctx); err != nil {
		return transport.NewDeliveryError(transport.Transient, chatID, err)
	}
	return nil
}

// classify turns a Bot API error into a *transport.DeliveryError.
func classify(chatID int64, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, bot.ErrorForbidden) {
		return transport.NewDeliveryError(transport.Unreachable, chatID, err)
	}
	if errors.Is(err, bot.ErrorBadRequest) {
		desc := strings.ToLower(err.Error())
		for _, hint := range unreachableHints {
			if strings.Contains(desc, hint) {
				return transport.NewDeliveryError(transport.Unreachable, chatID, err)
			}
		}
	}
	return transport.NewDeliveryError(transport.Transient, chatID, err)
}

func recoverMiddleware(log *slog.Logger) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			defer func() {
				if r := recover(); r != nil {
					log.ErrorContext(ctx, "Panic while handling update", "update_id", update.ID, "panic", r)
				}
			}()
			next(ctx, b, update)
		}
	}
}
