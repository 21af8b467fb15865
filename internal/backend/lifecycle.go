package backend

import (
	"taskbackend/internal/storage"
)

// TryStartTaskExecution is a no-op unless task is Scheduled. It promotes
// Scheduled -> InProgress, fires start_event, and returns the
// ExecutionSpec the host runtime should run on its worker pool, resolved
// either from the task's fingerprint (persistent tasks, via the
// Dispatcher) or from its TransientTaskSpec (spec.md 4.6).
func (b *Backend) TryStartTaskExecution(task TaskID) (ExecutionSpec, bool) {
	ctx := newExecuteContext(b)
	defer ctx.Done()

	a := ctx.storage.Access(task)
	v, ok := a.Get(storage.Key{Kind: storage.KeyInProgress})
	if !ok {
		a.Release()
		return ExecutionSpec{}, false
	}
	state := v.(*storage.InProgressState)
	if !state.Scheduled {
		a.Release()
		return ExecutionSpec{}, false
	}

	a.Set(storage.InProgressItem(&storage.InProgressState{
		Scheduled: false,
		Clean:     state.Clean,
		Stale:     false,
		DoneEvent: state.DoneEvent,
	}))
	a.Release()
	state.StartEvent.NotifyAll()

	spanName, run := b.resolveWork(task)
	b.log.Debug().Stringer("task", task).Str("span", spanName).Msg("task execution started")
	return ExecutionSpec{SpanName: spanName, Run: run}, true
}

// resolveWork dispatches task to either the Dispatcher (persistent tasks)
// or its registered TransientTaskSpec (transient tasks), matching
// spec.md 4.6's "built from the fingerprint-resolved dispatch ... or from
// the transient spec".
func (b *Backend) resolveWork(task TaskID) (spanName string, run Work) {
	if task.IsTransient() {
		spec, ok := b.transientSpec(task)
		if !ok {
			return "", nil
		}
		name, fn, ok := spec.Take()
		if !ok {
			return "", nil
		}
		return name, fn
	}

	fp, ok := b.fingerprints.LookupReverse(task)
	if !ok {
		panic(&NotFoundError{TaskID: task})
	}
	return b.dispatcher.Dispatch(fp)
}

// TaskExecutionCompleted removes task's InProgress item. If it was marked
// stale, it reinstalls InProgress{clean: false, stale: false} with the
// *same* done_event so existing waiters keep waiting across the restart,
// and returns true so the caller reschedules. Otherwise it fires
// done_event and returns false (spec.md 4.6).
func (b *Backend) TaskExecutionCompleted(task TaskID) (restart bool) {
	ctx := newExecuteContext(b)
	defer ctx.Done()

	a := ctx.storage.Access(task)
	v, ok := a.Remove(storage.Key{Kind: storage.KeyInProgress})
	if !ok {
		a.Release()
		panic(&InvariantError{TaskID: task, Message: "task execution completed, but task has no in-progress state"})
	}
	state := v.(*storage.InProgressState)
	if state.Scheduled {
		a.Release()
		panic(&InvariantError{TaskID: task, Message: "task execution completed, but task is still scheduled, not in progress"})
	}

	if state.Stale {
		a.Set(storage.InProgressItem(&storage.InProgressState{
			Scheduled: false,
			Clean:     false,
			Stale:     false,
			DoneEvent: state.DoneEvent,
		}))
		a.Release()
		b.log.Warn().Stringer("task", task).Msg("task invalidated mid-execution, restarting")
		return true
	}

	a.Release()
	state.DoneEvent.NotifyAll()
	return false
}
