package backend

import (
	"context"
	"sync"

	"taskbackend/internal/fingerprint"
)

// ExecutionResult is the outcome a task future reports back to the
// backend: exactly the three shapes spec.md 4.5's UpdateOutput and 6's
// task_execution_result accept — Ok(Ok(vc)), Ok(Err(message)), or a caught
// panic's message.
type ExecutionResult struct {
	// Cell/AliasTask describe a successful result: either a specific cell
	// of CellTask (Cell != zero value) or an alias of AliasTask's
	// principal output.
	CellTask  TaskID
	Cell      CellID
	AliasTask TaskID
	HasAlias  bool

	// Errored is set when the task future completed with an application
	// error (not a panic); Message holds the error text.
	Errored bool
	// Panicked is set when the host caught a panic inside the task
	// future; Message holds the recovered panic's text.
	Panicked bool
	Message  string
}

// Work is the callable unit of execution an ExecutionSpec hands to the
// host runtime's worker pool.
type Work func(ctx context.Context) ExecutionResult

// ExecutionSpec is what TryStartTaskExecution returns: a tracing span name
// paired with the future to run, built either from fingerprint-resolved
// dispatch (persistent tasks) or from a TransientTaskSpec (spec.md 4.6).
type ExecutionSpec struct {
	SpanName string
	Run      Work
}

// Dispatcher is the function/trait registry collaborator spec.md 1 and 6
// name as deliberately out of scope: an opaque dispatch table that turns a
// persistent task's fingerprint into the unit of work to run. This backend
// only consumes it through this interface; native call, resolve-native
// trampoline, and resolve-trait trampoline are all the Dispatcher
// implementation's concern, not this package's.
type Dispatcher interface {
	Dispatch(fp *fingerprint.Fingerprint) (spanName string, run Work)
}

// TransientKind discriminates the two TransientTaskSpec shapes of
// spec.md 3.
type TransientKind uint8

const (
	// TransientRoot is a restartable factory: Take may be called again
	// after a stale restart and produces a fresh future each time.
	TransientRoot TransientKind = iota
	// TransientOnce is a single future consumed on first execution; a
	// second Take call fails rather than silently re-running stale work.
	TransientOnce
)

// TransientTaskSpec is the explicit execution spec a transient task is
// created with (spec.md 3). It is held under its own cooperative mutex so
// exactly one caller's TryStartTaskExecution consumes the underlying
// factory, matching spec.md's "held under a cooperative per-task mutex so
// the first execution can consume it."
type TransientTaskSpec struct {
	mu       sync.Mutex
	kind     TransientKind
	consumed bool
	factory  func() (spanName string, run Work)
}

// NewRootSpec builds a restartable TransientTaskSpec: factory is invoked
// again on every TryStartTaskExecution call, including stale restarts.
func NewRootSpec(factory func() (spanName string, run Work)) *TransientTaskSpec {
	return &TransientTaskSpec{kind: TransientRoot, factory: factory}
}

// NewOnceSpec builds a single-use TransientTaskSpec: factory is invoked at
// most once; a Take after that returns ok=false.
func NewOnceSpec(factory func() (spanName string, run Work)) *TransientTaskSpec {
	return &TransientTaskSpec{kind: TransientOnce, factory: factory}
}

// Take produces this spec's next execution, or ok=false if a TransientOnce
// spec has already been consumed.
func (s *TransientTaskSpec) Take() (spanName string, run Work, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kind == TransientOnce && s.consumed {
		return "", nil, false
	}
	s.consumed = true
	spanName, run = s.factory()
	return spanName, run, true
}
