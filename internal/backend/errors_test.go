package backend

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"taskbackend/internal/ids"
)

func TestTaskFaultErrorMessage(t *testing.T) {
	require.Equal(t, "backend: task panicked: boom", (&TaskFaultError{Panicked: true, Message: "boom"}).Error())
	require.Equal(t, "backend: task errored: boom", (&TaskFaultError{Panicked: false, Message: "boom"}).Error())
}

func TestIdExhaustedErrorUnwrapsCause(t *testing.T) {
	err := &IdExhaustedError{Cause: ids.ErrExhausted}
	require.ErrorIs(t, err, ids.ErrExhausted)
	require.True(t, errors.Is(err, ids.ErrExhausted))
}

func TestNotFoundErrorMessage(t *testing.T) {
	err := &NotFoundError{TaskID: TaskID(5)}
	require.Contains(t, err.Error(), "not found")
}

func TestInvariantErrorMessage(t *testing.T) {
	err := &InvariantError{TaskID: TaskID(5), Message: "task is still scheduled"}
	require.Contains(t, err.Error(), "invariant violation")
	require.Contains(t, err.Error(), "task is still scheduled")
}
