// Package backend implements the task backend of an incremental computation
// engine: the lifecycle state machine, the operation framework
// (ConnectChild, Invalidate, UpdateCell, UpdateOutput), the snapshot
// quiescence barrier, and the untracked read path, wired together behind a
// single Backend facade that a host task-graph runtime drives.
//
// The host runtime itself, function/trait dispatch tables, the on-disk
// persistence byte format, and tracing integration are external
// collaborators this package only consumes through internal/hostapi and the
// Dispatcher interface in task.go; none of them are implemented here.
package backend
