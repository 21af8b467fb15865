package backend

import (
	"testing"

	"github.com/stretchr/testify/require"

	"taskbackend/internal/event"
	"taskbackend/internal/storage"
)

func TestTryReadTaskOutputUntrackedReturnsListenerWhileInProgress(t *testing.T) {
	b, _, _ := newTestBackend()
	task := TaskID(1)
	doneEvent := event.New()
	a := b.storage.Access(task)
	a.Set(storage.InProgressItem(&storage.InProgressState{Scheduled: false, DoneEvent: doneEvent}))
	a.Release()

	read, err := b.TryReadTaskOutputUntracked(task, false)
	require.NoError(t, err)
	require.False(t, read.Ready)
	require.NotNil(t, read.Listener)
	require.False(t, read.Listener.Ready())

	doneEvent.NotifyAll()
	require.True(t, read.Listener.Ready())
}

func TestTryReadTaskOutputUntrackedResolvesSettledCell(t *testing.T) {
	b, _, _ := newTestBackend()
	task := TaskID(1)
	out := &storage.OutputValue{Kind: storage.OutputCell, CellTask: task, Cell: CellID{Ordinal: 3}}
	a := b.storage.Access(task)
	a.Set(storage.OutputItem(out))
	a.Release()

	read, err := b.TryReadTaskOutputUntracked(task, false)
	require.NoError(t, err)
	require.True(t, read.Ready)
	require.Equal(t, *out, read.Value)
}

func TestTryReadTaskOutputUntrackedSurfacesFault(t *testing.T) {
	b, _, _ := newTestBackend()
	task := TaskID(1)
	newExecuteContext(b).UpdateOutput(task, ExecutionResult{Errored: true, Message: "nope"})

	_, err := b.TryReadTaskOutputUntracked(task, false)
	require.EqualError(t, err, "nope")
}

func TestTryReadTaskOutputUntrackedSchedulesNeverSeenTask(t *testing.T) {
	b, notifier, _ := newTestBackend()
	task := TaskID(55)

	read, err := b.TryReadTaskOutputUntracked(task, false)
	require.NoError(t, err)
	require.False(t, read.Ready)
	require.NotNil(t, read.Listener)
	require.Contains(t, notifier.snapshot(), task)
}

func TestTryReadTaskOutputUntrackedStronglyConsistentPanics(t *testing.T) {
	b, _, _ := newTestBackend()
	require.Panics(t, func() { b.TryReadTaskOutputUntracked(TaskID(1), true) })
}

func TestTryReadTaskCellUntrackedResolvesCachedContent(t *testing.T) {
	b, _, _ := newTestBackend()
	task := TaskID(1)
	cell := CellID{Ordinal: 2}
	content := storage.CellContent{Payload: []byte("x"), Present: true}
	a := b.storage.Access(task)
	a.Set(storage.CellDataItem(cell, content))
	a.Release()

	read, err := b.TryReadTaskCellUntracked(task, cell)
	require.NoError(t, err)
	require.True(t, read.Ready)
	require.Equal(t, content, read.Content)
}

func TestTryReadTaskCellUntrackedSchedulesWhenMissing(t *testing.T) {
	b, notifier, _ := newTestBackend()
	task := TaskID(9)
	cell := CellID{Ordinal: 0}

	read, err := b.TryReadTaskCellUntracked(task, cell)
	require.NoError(t, err)
	require.NotNil(t, read.Listener)
	require.Contains(t, notifier.snapshot(), task)
}
