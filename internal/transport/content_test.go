package transport

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/edgard/renamerbot/internal/errors"
)

func TestAttachmentExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		att      Attachment
		wantName string
		wantExt  string
	}{
		{
			name:     "last dot wins",
			att:      Attachment{Kind: KindDocument, FileID: "f1", FileName: "report.final.pdf"},
			wantName: "report.final.pdf",
			wantExt:  ".pdf",
		},
		{
			name:     "no dot and no mime",
			att:      Attachment{Kind: KindDocument, FileID: "f2", FileName: "README"},
			wantName: "README",
			wantExt:  "",
		},
		{
			name:     "no dot ignores declared mime",
			att:      Attachment{Kind: KindDocument, FileID: "f3", FileName: "scan", MimeType: "application/pdf"},
			wantName: "scan",
			wantExt:  "",
		},
		{
			name:     "photo default name",
			att:      Attachment{Kind: KindPhoto, FileID: "p1", MimeType: "image/jpeg"},
			wantName: "photo",
			wantExt:  "",
		},
		{
			name:     "voice default name",
			att:      Attachment{Kind: KindVoice, FileID: "v1", MimeType: "audio/ogg"},
			wantName: "voice",
			wantExt:  "",
		},
		{
			name:     "trailing dot",
			att:      Attachment{Kind: KindDocument, FileID: "f4", FileName: "archive."},
			wantName: "archive.",
			wantExt:  ".",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.wantName, tc.att.DisplayName())
			require.Equal(t, tc.wantExt, tc.att.Extension())
		})
	}
}

func TestContentEmpty(t *testing.T) {
	t.Parallel()

	require.True(t, Content{}.Empty())
	require.True(t, Text("   ").Empty())
	require.True(t, Content{File: &Attachment{Kind: KindDocument}}.Empty())
	require.False(t, Text("hello").Empty())
	require.False(t, Content{File: &Attachment{Kind: KindPhoto, FileID: "x"}}.Empty())
}

func TestDeliveryErrorClassification(t *testing.T) {
	t.Parallel()

	unreachable := fmt.Errorf("send: %w", NewDeliveryError(Unreachable, 42, errors.New("forbidden")))
	require.True(t, IsUnreachable(unreachable))
	require.ErrorIs(t, unreachable, apperrors.ErrUnreachable)
	require.Equal(t, apperrors.CodeUnreachable, apperrors.Code(unreachable))

	transient := NewDeliveryError(Transient, 42, errors.New("timeout"))
	require.False(t, IsUnreachable(transient))
	require.ErrorIs(t, transient, apperrors.ErrTransient)
	require.False(t, IsUnreachable(errors.New("plain")))
}
