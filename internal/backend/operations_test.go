package backend

import (
	"testing"

	"github.com/stretchr/testify/require"

	"taskbackend/internal/event"
	"taskbackend/internal/storage"
)

func TestConnectChildAddsEdgeAndSchedulesNewChild(t *testing.T) {
	b, notifier, _ := newTestBackend()
	parent := TaskID(1)
	child := TaskID(2)

	ctx := newExecuteContext(b)
	ctx.ConnectChild(parent, child)

	pa := b.storage.Access(parent)
	_, hasEdge := pa.Get(storage.Key{Kind: storage.KeyChild, Child: child})
	pa.Release()
	require.True(t, hasEdge)

	ca := b.storage.Access(child)
	v, ok := ca.Get(storage.Key{Kind: storage.KeyInProgress})
	ca.Release()
	require.True(t, ok)
	require.True(t, v.(*storage.InProgressState).Scheduled)

	require.Contains(t, notifier.snapshot(), child)
}

func TestConnectChildAppliedTwiceIsIdempotent(t *testing.T) {
	b, notifier, _ := newTestBackend()
	parent, child := TaskID(1), TaskID(2)

	newExecuteContext(b).ConnectChild(parent, child)
	newExecuteContext(b).ConnectChild(parent, child)

	pa := b.storage.Access(parent)
	count := 0
	pa.Iter(func(k storage.Key, _ any) bool {
		if k.Kind == storage.KeyChild && k.Child == child {
			count++
		}
		return true
	})
	pa.Release()
	require.Equal(t, 1, count)

	// the child was only ever brand-new once; only the first call schedules it.
	scheduled := 0
	for _, id := range notifier.snapshot() {
		if id == child {
			scheduled++
		}
	}
	require.Equal(t, 1, scheduled)
}

func TestInvalidateNeverSeenTaskSchedulesFromScratch(t *testing.T) {
	b, notifier, _ := newTestBackend()
	task := TaskID(7)

	newExecuteContext(b).Invalidate([]TaskID{task})

	a := b.storage.Access(task)
	v, ok := a.Get(storage.Key{Kind: storage.KeyInProgress})
	a.Release()
	require.True(t, ok)
	state := v.(*storage.InProgressState)
	require.True(t, state.Scheduled)
	require.False(t, state.Clean)
	require.Contains(t, notifier.snapshot(), task)
}

func TestInvalidateScheduledTaskClearsCleanBit(t *testing.T) {
	b, _, _ := newTestBackend()
	task := TaskID(7)
	a := b.storage.Access(task)
	a.Set(storage.InProgressItem(&storage.InProgressState{Scheduled: true, Clean: true, DoneEvent: event.New(), StartEvent: event.New()}))
	a.Release()

	newExecuteContext(b).Invalidate([]TaskID{task})

	a = b.storage.Access(task)
	v, _ := a.Get(storage.Key{Kind: storage.KeyInProgress})
	a.Release()
	require.False(t, v.(*storage.InProgressState).Clean)
}

func TestInvalidateInProgressTaskSetsStale(t *testing.T) {
	b, _, _ := newTestBackend()
	task := TaskID(7)
	a := b.storage.Access(task)
	a.Set(storage.InProgressItem(&storage.InProgressState{Scheduled: false, Clean: true, DoneEvent: event.New()}))
	a.Release()

	newExecuteContext(b).Invalidate([]TaskID{task})

	a = b.storage.Access(task)
	v, _ := a.Get(storage.Key{Kind: storage.KeyInProgress})
	a.Release()
	require.True(t, v.(*storage.InProgressState).Stale)
}

func TestUpdateCellInsertsAndLogsForPersistentTask(t *testing.T) {
	b, _, _ := newTestBackend()
	task := TaskID(1) // persistent range
	cell := CellID{ValueTypeID: 1, Ordinal: 0}
	content := storage.CellContent{Payload: []byte("hello"), Present: true}

	newExecuteContext(b).UpdateCell(task, cell, content)

	a := b.storage.Access(task)
	v, ok := a.Get(storage.Key{Kind: storage.KeyCellData, Cell: cell})
	a.Release()
	require.True(t, ok)
	require.Equal(t, content, v)

	batch := b.updates.Drain()
	require.Equal(t, 1, batch.Len())
	require.Equal(t, task, batch.Records[0].TaskID)
}

func TestUpdateCellOnTransientTaskDoesNotLog(t *testing.T) {
	b, _, _ := newTestBackend()
	task := TaskID(taskidTransientForTest())
	cell := CellID{ValueTypeID: 1, Ordinal: 0}

	newExecuteContext(b).UpdateCell(task, cell, storage.CellContent{Present: true})

	batch := b.updates.Drain()
	require.Equal(t, 0, batch.Len())
}

func TestUpdateOutputInstallsErrorCompanionOnFault(t *testing.T) {
	b, _, _ := newTestBackend()
	task := TaskID(1)

	newExecuteContext(b).UpdateOutput(task, ExecutionResult{Panicked: true, Message: "boom"})

	a := b.storage.Access(task)
	out, _ := a.Get(storage.Key{Kind: storage.KeyOutput})
	errVal, hasErr := a.Get(storage.Key{Kind: storage.KeyError})
	a.Release()

	require.Equal(t, storage.OutputPanic, out.(*storage.OutputValue).Kind)
	require.True(t, hasErr)
	require.EqualError(t, errVal.(error), "boom")
}

func TestUpdateOutputOnSuccessClearsPriorErrorCompanion(t *testing.T) {
	b, _, _ := newTestBackend()
	task := TaskID(1)
	newExecuteContext(b).UpdateOutput(task, ExecutionResult{Errored: true, Message: "first"})
	newExecuteContext(b).UpdateOutput(task, ExecutionResult{CellTask: task, Cell: CellID{Ordinal: 1}})

	a := b.storage.Access(task)
	_, hasErr := a.Get(storage.Key{Kind: storage.KeyError})
	a.Release()
	require.False(t, hasErr)
}

func taskidTransientForTest() uint64 {
	return 1 << 32
}
