package backend

import (
	"errors"

	"taskbackend/internal/event"
	"taskbackend/internal/storage"
)

// ConnectChild adds a Child{task=child} item under parent if absent, and,
// if child has never been scheduled or executed, installs a fresh
// Scheduled item for it and notifies the host runtime (spec.md 4.5).
// Applying it twice leaves storage exactly as a single application would
// (property 7).
func (ctx *ExecuteContext) ConnectChild(parent, child TaskID) {
	defer ctx.Done()

	pa := ctx.storage.Access(parent)
	pa.Add(storage.ChildItem(child))
	pa.Release()

	ctx.SuspendPoint(func() AnyOperation {
		return AnyOperation{Kind: OpConnectChild, Step: 1, Arguments: [2]TaskID{parent, child}}
	})

	ca := ctx.storage.Access(child)
	_, hasProgress := ca.Get(storage.Key{Kind: storage.KeyInProgress})
	_, hasOutput := ca.Get(storage.Key{Kind: storage.KeyOutput})
	needsSchedule := !hasProgress && !hasOutput
	if needsSchedule {
		ca.Set(storage.InProgressItem(&storage.InProgressState{
			Scheduled:  true,
			Clean:      false,
			DoneEvent:  event.New(),
			StartEvent: event.New(),
		}))
	}
	ca.Release()

	if needsSchedule {
		ctx.notifier.Schedule(child)
	}
}

// Invalidate marks every task in ids as needing re-execution (spec.md 4.5).
// A currently-executing task is flagged stale rather than interrupted; a
// merely-scheduled-but-dirty task has its clean bit cleared; a settled (or
// never-seen) task has its Output dropped and is rescheduled from scratch.
func (ctx *ExecuteContext) Invalidate(ids []TaskID) {
	defer ctx.Done()

	for i, id := range ids {
		ctx.invalidateOne(id)
		ctx.SuspendPoint(func() AnyOperation {
			return AnyOperation{Kind: OpInvalidate, Step: i, Arguments: ids[i:]}
		})
	}
}

func (ctx *ExecuteContext) invalidateOne(id TaskID) {
	a := ctx.storage.Access(id)
	defer a.Release()

	v, ok := a.Get(storage.Key{Kind: storage.KeyInProgress})
	if ok {
		state := v.(*storage.InProgressState)
		if state.Scheduled {
			state.Clean = false
		} else {
			state.Stale = true
		}
		return
	}

	a.Remove(storage.Key{Kind: storage.KeyOutput})
	a.Remove(storage.Key{Kind: storage.KeyError})
	a.Set(storage.InProgressItem(&storage.InProgressState{
		Scheduled:  true,
		Clean:      false,
		DoneEvent:  event.New(),
		StartEvent: event.New(),
	}))
	ctx.notifier.Schedule(id)
}

// UpdateCell inserts or replaces task's CellData{cell} item and, for a
// persistent task, appends a storage-update change-log record (spec.md
// 4.5). It never touches InProgress. Per-cell listeners are not modelled
// in this core (spec.md 4.5's "if modelled" hedge); only the coarser
// done_event granularity exists here.
func (ctx *ExecuteContext) UpdateCell(task TaskID, cell CellID, content storage.CellContent) {
	defer ctx.Done()

	a := ctx.storage.Access(task)
	a.Set(storage.CellDataItem(cell, content))
	a.Release()

	ctx.SuspendPoint(func() AnyOperation {
		return AnyOperation{Kind: OpUpdateCell, Arguments: UpdateCellArgs{Task: task, Cell: cell}}
	})

	if task.IsPersistent() {
		ctx.updates.Push(StorageUpdate{
			TaskID:  task,
			Key:     storage.Key{Kind: storage.KeyCellData, Cell: cell},
			Kind:    UpdateAdd,
			Payload: content,
		})
	}
}

// UpdateOutput installs task's Output (and, for fault results, an Error
// companion), without touching InProgress: completion is a separate step,
// task_execution_completed in lifecycle.go (spec.md 4.5).
func (ctx *ExecuteContext) UpdateOutput(task TaskID, result ExecutionResult) {
	defer ctx.Done()

	a := ctx.storage.Access(task)

	var out storage.OutputValue
	switch {
	case result.Panicked:
		out = storage.OutputValue{Kind: storage.OutputPanic}
		a.Set(storage.ErrorItem(errors.New(result.Message)))
		ctx.log.Warn().Stringer("task", task).Str("message", result.Message).Msg("task panicked")
	case result.Errored:
		out = storage.OutputValue{Kind: storage.OutputError}
		a.Set(storage.ErrorItem(errors.New(result.Message)))
	case result.HasAlias:
		out = storage.OutputValue{Kind: storage.OutputAlias, AliasTask: result.AliasTask}
		a.Remove(storage.Key{Kind: storage.KeyError})
	default:
		out = storage.OutputValue{Kind: storage.OutputCell, CellTask: result.CellTask, Cell: result.Cell}
		a.Remove(storage.Key{Kind: storage.KeyError})
	}
	a.Set(storage.OutputItem(&out))
	a.Release()

	ctx.SuspendPoint(func() AnyOperation {
		return AnyOperation{Kind: OpUpdateOutput, Arguments: task}
	})

	if task.IsPersistent() {
		ctx.updates.Push(StorageUpdate{
			TaskID:  task,
			Key:     storage.Key{Kind: storage.KeyOutput},
			Kind:    UpdateAdd,
			Payload: out,
		})
	}
}
