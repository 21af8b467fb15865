package backend

import "fmt"

// NotFoundError reports a persistent TaskId with no fingerprint registered
// for it. spec.md 7 treats this as a programmer error in this core
// ("caller asserts"); resolveWork (lifecycle.go) panics with it when the
// fingerprint map's LookupReverse misses, instead of returning it,
// matching the teacher's invariant-boundary panics
// (internal/recovery/state's *FailureError idiom, adapted here to a
// panic since the original source's `.expect("Task not found")` is
// itself an assertion, not a recoverable error path).
type NotFoundError struct {
	TaskID fmt.Stringer
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("backend: task %s not found in fingerprint map", e.TaskID)
}

// TaskFaultError covers both the TaskErrored and TaskPanicked kinds: a
// settled task whose Output is Error or Panic, told apart by Panicked.
type TaskFaultError struct {
	Panicked bool
	Message  string
}

func (e *TaskFaultError) Error() string {
	if e.Panicked {
		return fmt.Sprintf("backend: task panicked: %s", e.Message)
	}
	return fmt.Sprintf("backend: task errored: %s", e.Message)
}

// RecomputeRequiredError describes a read that finds no cached state at
// all (spec.md 7). No read path in this package returns it: both
// TryReadTaskOutputUntracked and TryReadTaskCellUntracked schedule the
// task themselves on a full miss and return a listener instead.
type RecomputeRequiredError struct {
	TaskID fmt.Stringer
}

func (e *RecomputeRequiredError) Error() string {
	return fmt.Sprintf("backend: no cached state for task %s, recompute required", e.TaskID)
}

// NotImplementedError marks a surface spec.md 9's Open Questions names as
// out of scope for this core (tracked reads, strongly-consistent reads,
// collectibles, backend jobs). Callers hitting it have reached a feature
// this backend never claimed to provide, not a bug; it panics rather than
// returning a silently-wrong value, mirroring the original source's
// todo!() at the same call sites.
type NotImplementedError struct {
	Feature string
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("backend: %s is not implemented in this core", e.Feature)
}

// InvariantError marks a state the lifecycle state machine guarantees
// never happens — e.g. task_execution_completed called on a task that was
// never promoted out of Scheduled. It is a sign of a caller bypassing
// TryStartTaskExecution, not a condition this core tries to recover from;
// the original source asserts the same invariant with a bare panic at the
// matching call site.
type InvariantError struct {
	TaskID  fmt.Stringer
	Message string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("backend: invariant violation for task %s: %s", e.TaskID, e.Message)
}

// IdExhaustedError wraps ids.ErrExhausted as a fatal-to-the-operation
// condition (spec.md 7).
type IdExhaustedError struct {
	Cause error
}

func (e *IdExhaustedError) Error() string { return fmt.Sprintf("backend: id factory exhausted: %v", e.Cause) }
func (e *IdExhaustedError) Unwrap() error { return e.Cause }
