package acceptor

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuntimeError(t *testing.T) {
	inner := errors.New("spawn failed")
	err := NewRuntimeError(inner)

	assert.True(t, IsRuntimeError(err))
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "runtime error")

	// Detection survives wrapping.
	wrapped := fmt.Errorf("starting service: %w", err)
	assert.True(t, IsRuntimeError(wrapped))

	assert.False(t, IsRuntimeError(nil))
	assert.False(t, IsRuntimeError(errors.New("plain")))
}

func TestVerdictFailureError(t *testing.T) {
	err := NewVerdictFailureError("run run-1: verdict=timeout")

	require.True(t, IsVerdictFailureError(err))
	assert.Contains(t, err.Error(), "verdict failure")
	assert.Contains(t, err.Error(), "verdict=timeout")

	wrapped := fmt.Errorf("run-once: %w", err)
	assert.True(t, IsVerdictFailureError(wrapped))

	assert.False(t, IsVerdictFailureError(nil))
	assert.False(t, IsVerdictFailureError(errors.New("plain")))
	assert.False(t, IsRuntimeError(err))
}
