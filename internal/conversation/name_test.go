package conversation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		in     string
		want   string
		reason NameReason
	}{
		{name: "plain", in: "Q3 Report", want: "Q3 Report"},
		{name: "trimmed", in: "  notes  ", want: "notes"},
		{name: "unicode", in: "отчёт", want: "отчёт"},
		{name: "empty", in: "", reason: ReasonEmpty},
		{name: "blank", in: " \t ", reason: ReasonEmpty},
		{name: "slash", in: "a/b", reason: ReasonReservedCharacter},
		{name: "backslash", in: `a\b`, reason: ReasonReservedCharacter},
		{name: "colon", in: "a:b", reason: ReasonReservedCharacter},
		{name: "star", in: "a*", reason: ReasonReservedCharacter},
		{name: "question", in: "why?", reason: ReasonReservedCharacter},
		{name: "quote", in: `say "hi"`, reason: ReasonReservedCharacter},
		{name: "angle", in: "<x>", reason: ReasonReservedCharacter},
		{name: "pipe", in: "a|b", reason: ReasonReservedCharacter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ValidateName(tt.in)
			if tt.reason == 0 {
				require.NoError(t, err)
				require.Equal(t, tt.want, got)
				return
			}
			var nameErr *NameError
			require.ErrorAs(t, err, &nameErr)
			require.Equal(t, tt.reason, nameErr.Reason)
		})
	}
}

func TestFinalName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		stem, ext, want string
	}{
		{"Q3 Report", ".pdf", "Q3 Report.pdf"},
		{"Q3 Report.pdf", ".pdf", "Q3 Report.pdf"},
		{"Q3 Report.PDF", ".pdf", "Q3 Report.PDF"},
		{"archive", "", "archive"},
		{"pdf", ".pdf", "pdf.pdf"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, FinalName(tt.stem, tt.ext), tt.stem)
		// Applying the extension again never appends it twice.
		require.Equal(t, tt.want, FinalName(FinalName(tt.stem, tt.ext), tt.ext), tt.stem)
	}
}
