package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapAndCode(t *testing.T) {
	base := errors.New("connection refused")
	err := Wrap("store_error", "failed to list profiles", base)

	require.True(t, IsCode(err, "store_error"))
	require.False(t, IsCode(err, "not_found"))
	require.ErrorIs(t, err, base)
	require.Equal(t, "failed to list profiles: connection refused", err.Error())

	wrapped := fmt.Errorf("monitor start: %w", err)
	require.Equal(t, "store_error", CodeOf(wrapped))
	require.Equal(t, "", CodeOf(base))
}

func TestWrapWithoutCause(t *testing.T) {
	err := Wrap("invalid_input", "age must be non-negative", nil)
	require.Equal(t, "age must be non-negative", err.Error())
	require.Nil(t, errors.Unwrap(err))
}
