package errors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/edgard/renamerbot/internal/errors"
)

func TestCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"validation", apperrors.NewValidationError("bad name", nil), apperrors.CodeValidation},
		{"wrapped unreachable", fmt.Errorf("send: %w", apperrors.NewUnreachableError("blocked", errors.New("forbidden"))), apperrors.CodeUnreachable},
		{"database", apperrors.NewDatabaseError("insert", errors.New("locked")), apperrors.CodeDatabase},
		{"plain", errors.New("boom"), apperrors.CodeUnknown},
		{"nil", nil, apperrors.CodeUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, apperrors.Code(tc.err))
		})
	}
}

func TestSentinelMatching(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("deliver: %w", apperrors.NewTransientError("timeout", errors.New("i/o timeout")))
	require.ErrorIs(t, err, apperrors.ErrTransient)
	require.NotErrorIs(t, err, apperrors.ErrUnreachable)

	cause := errors.New("root cause")
	wrapped := apperrors.NewDatabaseError("upsert", cause)
	require.ErrorIs(t, wrapped, cause)
	require.Equal(t, "upsert: root cause", wrapped.Error())
}
