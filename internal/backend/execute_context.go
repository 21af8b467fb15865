package backend

import (
	"github.com/rs/zerolog"

	"taskbackend/internal/hostapi"
	"taskbackend/internal/storage"
)

// OpKind names the operation an AnyOperation describes, used only to label
// a suspended operation's resumable description (spec.md 5, 9).
type OpKind uint8

const (
	OpConnectChild OpKind = iota
	OpInvalidate
	OpUpdateCell
	OpUpdateOutput
)

func (k OpKind) String() string {
	switch k {
	case OpConnectChild:
		return "ConnectChild"
	case OpInvalidate:
		return "Invalidate"
	case OpUpdateCell:
		return "UpdateCell"
	case OpUpdateOutput:
		return "UpdateOutput"
	default:
		return "Unknown"
	}
}

// AnyOperation is the resumable description a suspension point materializes
// for the snapshot coordinator's suspended-operations set: "op kind +
// arguments + step index" per spec.md 9.
type AnyOperation struct {
	Kind      OpKind
	Step      int
	Arguments any
}

// UpdateCellArgs is OpUpdateCell's Arguments payload.
type UpdateCellArgs struct {
	Task TaskID
	Cell CellID
}

// ExecuteContext is the per-call handle an operation carries: a reference
// to the backend's shared stores and the host notifier, plus the means to
// honor a pending snapshot at a suspension point (spec.md 4.5, 5).
type ExecuteContext struct {
	storage    *storage.Store
	snapshot   *snapshotCoordinator
	notifier   hostapi.Notifier
	insertions *cacheInsertionLog
	updates    *storageUpdateLog
	log        zerolog.Logger
}

// SuspendPoint is operation_suspend_point: operations call it between
// steps. If a snapshot is pending, the calling goroutine blocks here until
// the snapshot completes, using describe to record a resumable description
// in the suspended-operations set for the duration of the wait.
func (c *ExecuteContext) SuspendPoint(describe func() AnyOperation) {
	c.snapshot.suspendPoint(describe)
}

// Done releases this context's slot in the in-progress counter. Every
// ExecuteContext returned by newExecuteContext must have Done called
// exactly once, regardless of the operation's outcome.
func (c *ExecuteContext) Done() {
	c.snapshot.release()
}

// newExecuteContext registers a new in-flight operation and returns the
// context it runs under.
func newExecuteContext(b *Backend) *ExecuteContext {
	b.snapshot.enter()
	return &ExecuteContext{
		storage:    b.storage,
		snapshot:   b.snapshot,
		notifier:   b.notifier,
		insertions: b.insertions,
		updates:    b.updates,
		log:        b.log,
	}
}
