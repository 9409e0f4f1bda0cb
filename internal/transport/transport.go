//go:generate go run go.uber.org/mock/mockgen -source=transport.go -destination=../mocks/mock_transport.go -package=mocks

// Package transport defines the transport-neutral types the engine consumes:
// inbound events, outbound content, delivery errors, and the collaborator
// interfaces implemented by the chat adapter.
package transport

import (
	"context"
	"time"
)

// ChatKind distinguishes private conversations from group chats.
type ChatKind int

const (
	ChatPrivate ChatKind = iota
	ChatGroup
)

func (k ChatKind) String() string {
	if k == ChatGroup {
		return "group"
	}
	return "private"
}

// User is the sender identity attached to an inbound event.
type User struct {
	ID          int64
	DisplayName string
}

// Event is one inbound interaction, already reduced to what the engine needs.
type Event struct {
	UpdateID int64
	ChatID   int64
	ChatKind ChatKind
	Sender   User
	// SenderIsChatAdmin is only resolved for activation commands in groups.
	SenderIsChatAdmin bool
	Text              string
	Attachment        *Attachment
	ReceivedAt        time.Time
}

// Source produces the inbound event stream. The channel is closed when ctx
// is done or the underlying connection ends.
type Source interface {
	ReceiveEvents(ctx context.Context) <-chan Event
}

// Sender delivers content to a chat. A failed delivery returns a
// *DeliveryError.
type Sender interface {
	Send(ctx context.Context, chatID int64, content Content) error
}

// FileTransfer moves binary payloads in and out of the chat service.
type FileTransfer interface {
	FetchBinary(ctx context.Context, fileID string) ([]byte, error)
	DeliverBinary(ctx context.Context, chatID int64, data []byte, filename, caption string) error
}

// Notifier is the best-effort administrative notification channel.
type Notifier interface {
	Notify(ctx context.Context, adminID int64, text string) error
}

// Transport bundles every outbound capability of the chat adapter.
type Transport interface {
	Sender
	FileTransfer
	Notifier
}
