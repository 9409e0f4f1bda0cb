package conversation

import (
	"fmt"
	"strings"

	apperrors "github.com/edgard/renamerbot/internal/errors"
)

// ReservedCharacters may not appear in a new file name.
const ReservedCharacters = `\/:*?"<>|`

// NameReason tells why a proposed name was rejected.
type NameReason int

const (
	ReasonEmpty NameReason = iota + 1
	ReasonReservedCharacter
)

func (r NameReason) String() string {
	switch r {
	case ReasonEmpty:
		return "empty"
	case ReasonReservedCharacter:
		return "reserved character"
	default:
		return "unknown"
	}
}

// NameError is returned for an invalid name. The session is kept so the user
// can try again.
type NameError struct {
	Reason NameReason
	Char   rune
}

func (e *NameError) Error() string {
	if e.Reason == ReasonReservedCharacter {
		return fmt.Sprintf("invalid name: reserved character %q", e.Char)
	}
	return "invalid name: " + e.Reason.String()
}

// Unwrap places NameError in the validation class of the error taxonomy.
func (e *NameError) Unwrap() error {
	return apperrors.ErrValidation
}

// ValidateName trims raw and checks it for emptiness and reserved characters.
func ValidateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", &NameError{Reason: ReasonEmpty}
	}
	if i := strings.IndexAny(name, ReservedCharacters); i >= 0 {
		return "", &NameError{Reason: ReasonReservedCharacter, Char: rune(name[i])}
	}
	return name, nil
}

// FinalName appends ext to stem unless stem already ends with it, so
// renaming "x.pdf" to "report.pdf" does not produce "report.pdf.pdf".
func FinalName(stem, ext string) string {
	if ext == "" || hasSuffixFold(stem, ext) {
		return stem
	}
	return stem + ext
}

func hasSuffixFold(s, suffix string) bool {
	return len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix)
}
