package backend

import (
	"taskbackend/internal/event"
	"taskbackend/internal/storage"
)

// OutputRead is the result of TryReadTaskOutputUntracked: either a settled
// value (Ready) or a Listener to wait on before retrying, mirroring the
// original source's Result<Result<RawVc, EventListener>> with the outer
// Result folded into the returned error (spec.md 4.7).
type OutputRead struct {
	Ready    bool
	Value    storage.OutputValue // Kind is always OutputCell or OutputAlias when Ready
	Listener *event.Listener
}

// TryReadTaskOutputUntracked implements spec.md 4.7's four-step read:
// an in-flight task yields a listener, a strongly-consistent request is
// out of scope for this core, a settled Output resolves directly or
// surfaces its fault, and a task with no cached state at all is scheduled
// from scratch and yields a listener on its new done_event.
func (b *Backend) TryReadTaskOutputUntracked(task TaskID, stronglyConsistent bool) (OutputRead, error) {
	ctx := newExecuteContext(b)
	defer ctx.Done()

	a := ctx.storage.Access(task)

	if v, ok := a.Get(storage.Key{Kind: storage.KeyInProgress}); ok {
		state := v.(*storage.InProgressState)
		l := state.DoneEvent.Listen()
		a.Release()
		return OutputRead{Listener: l}, nil
	}

	if stronglyConsistent {
		a.Release()
		panic(&NotImplementedError{Feature: "strongly-consistent reads"})
	}

	if v, ok := a.Get(storage.Key{Kind: storage.KeyOutput}); ok {
		out := v.(*storage.OutputValue)
		switch out.Kind {
		case storage.OutputCell, storage.OutputAlias:
			a.Release()
			return OutputRead{Ready: true, Value: *out}, nil
		case storage.OutputError, storage.OutputPanic:
			errVal, hasErr := a.Get(storage.Key{Kind: storage.KeyError})
			a.Release()
			if hasErr {
				return OutputRead{}, errVal.(error)
			}
			return OutputRead{}, &TaskFaultError{Panicked: out.Kind == storage.OutputPanic}
		}
	}

	// No InProgress and no Output: this task has never been scheduled, or
	// its last Output was already invalidated away. Schedule it from
	// scratch and hand back a listener, exactly as Invalidate's
	// never-seen-before branch does.
	state := &storage.InProgressState{
		Scheduled:  true,
		Clean:      false,
		DoneEvent:  event.New(),
		StartEvent: event.New(),
	}
	a.Set(storage.InProgressItem(state))
	a.Release()
	ctx.notifier.Schedule(task)

	return OutputRead{Listener: state.DoneEvent.Listen()}, nil
}

// CellRead is the result of TryReadTaskCellUntracked.
type CellRead struct {
	Ready    bool
	Content  storage.CellContent
	Listener *event.Listener
}

// TryReadTaskCellUntracked implements spec.md 4.7's cell read: a cached
// CellData item resolves directly; otherwise this reuses
// TryReadTaskOutputUntracked's "schedule from scratch, or wait on the
// in-flight done_event" behavior, since a missing cell and a missing
// output both mean "recompute task" in this core.
func (b *Backend) TryReadTaskCellUntracked(task TaskID, cell CellID) (CellRead, error) {
	ctx := newExecuteContext(b)
	defer ctx.Done()

	a := ctx.storage.Access(task)
	if v, ok := a.Get(storage.Key{Kind: storage.KeyCellData, Cell: cell}); ok {
		a.Release()
		return CellRead{Ready: true, Content: v.(storage.CellContent)}, nil
	}

	if v, ok := a.Get(storage.Key{Kind: storage.KeyInProgress}); ok {
		state := v.(*storage.InProgressState)
		l := state.DoneEvent.Listen()
		a.Release()
		return CellRead{Listener: l}, nil
	}

	state := &storage.InProgressState{
		Scheduled:  true,
		Clean:      false,
		DoneEvent:  event.New(),
		StartEvent: event.New(),
	}
	a.Set(storage.InProgressItem(state))
	a.Release()
	ctx.notifier.Schedule(task)

	return CellRead{Listener: state.DoneEvent.Listen()}, nil
}
