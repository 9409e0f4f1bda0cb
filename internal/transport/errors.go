package transport

import (
	"errors"
	"fmt"

	apperrors "github.com/edgard/renamerbot/internal/errors"
)

// DeliveryKind is the single classification the transport gives a failed send.
type DeliveryKind int

const (
	// Transient covers every failure that is not proven permanent.
	Transient DeliveryKind = iota
	// Unreachable means the recipient blocked the bot or no longer exists.
	Unreachable
)

func (k DeliveryKind) String() string {
	if k == Unreachable {
		return "unreachable"
	}
	return "transient"
}

// DeliveryError is returned by Sender and FileTransfer implementations when a
// message could not be delivered.
type DeliveryError struct {
	Kind   DeliveryKind
	ChatID int64
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %d failed (%s): %v", e.ChatID, e.Kind, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Code maps the delivery kind onto the application taxonomy.
func (e *DeliveryError) Code() string {
	if e.Kind == Unreachable {
		return apperrors.CodeUnreachable
	}
	return apperrors.CodeTransient
}

// Is lets errors.Is match the application sentinels.
func (e *DeliveryError) Is(target error) bool {
	switch target {
	case apperrors.ErrUnreachable:
		return e.Kind == Unreachable
	case apperrors.ErrTransient:
		return e.Kind == Transient
	}
	return false
}

// NewDeliveryError wraps err with a delivery classification.
func NewDeliveryError(kind DeliveryKind, chatID int64, err error) *DeliveryError {
	return &DeliveryError{Kind: kind, ChatID: chatID, Err: err}
}

// IsUnreachable reports whether err proves the recipient permanently
// unreachable.
func IsUnreachable(err error) bool {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de.Kind == Unreachable
	}
	return false
}
