// Package hostapi declares the host task-graph runtime contract this
// backend consumes (spec.md 1, 6). The host runtime itself — scheduling
// policy, the worker pool, function/trait dispatch — is an external
// collaborator and deliberately out of scope; this package only names
// the surface the backend calls into.
package hostapi

import "taskbackend/internal/taskid"

// Handle is an owned reference a detached future can hold onto so the
// host runtime keeps running while that future is in flight, mirroring
// spec.md 6's Notifier.Pin "owned handle for detached futures".
type Handle interface {
	// Release returns the handle. Implementations must tolerate being
	// called more than once.
	Release()
}

// Notifier is the subset of the host runtime's API this backend depends
// on: it schedules a task for execution and lets long-running operations
// pin a handle to the runtime for as long as they need it.
type Notifier interface {
	// Schedule requests that the host runtime execute id. The backend
	// calls this after installing a Scheduled InProgress item; it never
	// schedules a task itself (spec.md 4.5, 4.6).
	Schedule(id taskid.TaskId)

	// Pin returns an owned handle keeping the runtime alive for a
	// detached future (spec.md 6).
	Pin() Handle
}
