// Package fake provides an in-memory stand-in for the host task-graph
// runtime (internal/hostapi.Notifier), used by tests to exercise the
// backend end-to-end. It never ships production scheduling policy.
package fake

import (
	"taskbackend/internal/hostapi"
	"taskbackend/internal/taskid"
)

// Handle is the fake's hostapi.Handle: releasing it is a no-op, since
// nothing here actually needs to keep a runtime alive for detached work.
type Handle struct{}

func (Handle) Release() {}

// Notifier is a channel-backed hostapi.Notifier: Schedule enqueues the
// task id for a Runner's worker pool to pick up.
type Notifier struct {
	queue chan taskid.TaskId
}

// NewNotifier constructs a Notifier with the given queue capacity. A
// capacity of 0 makes Schedule block until a worker is ready to receive,
// which is useful in tests that want to observe scheduling happen
// synchronously with respect to the caller.
func NewNotifier(capacity int) *Notifier {
	return &Notifier{queue: make(chan taskid.TaskId, capacity)}
}

// Schedule enqueues id for execution.
func (n *Notifier) Schedule(id taskid.TaskId) {
	n.queue <- id
}

// Pin returns an owned Handle; the fake never does anything with it.
func (n *Notifier) Pin() hostapi.Handle { return Handle{} }

// Queue exposes the underlying channel so a Runner can drain it. It is not
// meant to be read by anything other than a single Runner per Notifier.
func (n *Notifier) Queue() <-chan taskid.TaskId { return n.queue }
