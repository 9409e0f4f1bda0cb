package transport

import (
	"path"
	"strings"
)

// AttachmentKind enumerates the file-bearing content kinds the bot accepts.
type AttachmentKind int

const (
	KindDocument AttachmentKind = iota + 1
	KindPhoto
	KindVideo
	KindAudio
	KindVoice
)

func (k AttachmentKind) String() string {
	switch k {
	case KindDocument:
		return "document"
	case KindPhoto:
		return "photo"
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	case KindVoice:
		return "voice"
	default:
		return "unknown"
	}
}

// defaultName is used when the chat service supplies no file name for a kind.
// It has no dot, so unnamed files carry no extension.
func (k AttachmentKind) defaultName() string {
	switch k {
	case KindPhoto, KindVideo, KindAudio, KindVoice:
		return k.String()
	default:
		return "file"
	}
}

// Attachment is a file reference carried by an event. Each kind carries its
// own file id and, where the service provides one, its original name.
type Attachment struct {
	Kind     AttachmentKind
	FileID   string
	FileName string
	MimeType string
	Size     int64
}

// DisplayName returns the name shown to the user: the original file name or
// the kind's default.
func (a Attachment) DisplayName() string {
	if name := strings.TrimSpace(a.FileName); name != "" {
		return name
	}
	return a.Kind.defaultName()
}

// Extension returns the substring of the display name from its last dot to
// the end, or the empty string when the name has no dot.
func (a Attachment) Extension() string {
	name := a.DisplayName()
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i:]
	}
	return ""
}

// Content is an outbound message: either text or a previously received file
// re-sent by reference, with an optional reply keyboard.
type Content struct {
	Text     string
	File     *Attachment
	Keyboard Keyboard
}

// Text builds a plain text Content.
func Text(s string) Content {
	return Content{Text: s}
}

// Empty reports whether the content has nothing to deliver.
func (c Content) Empty() bool {
	return strings.TrimSpace(c.Text) == "" && (c.File == nil || c.File.FileID == "")
}

// Summary is a short human-readable description for previews and logs.
func (c Content) Summary() string {
	if c.File != nil {
		return c.File.Kind.String() + " " + path.Base(c.File.DisplayName())
	}
	return c.Text
}

// Keyboard is a reply keyboard layout: rows of button labels. A nil keyboard
// leaves the current one in place; RemoveKeyboard hides it.
type Keyboard struct {
	Rows   [][]string
	Remove bool
}

// RemoveKeyboard asks the client to hide the reply keyboard.
var RemoveKeyboard = Keyboard{Remove: true}

// IsZero reports whether the keyboard carries no instruction.
func (k Keyboard) IsZero() bool {
	return len(k.Rows) == 0 && !k.Remove
}
