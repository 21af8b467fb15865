package backend

import (
	"context"
	"sync"

	"taskbackend/internal/fingerprint"
	"taskbackend/internal/hostapi"
)

// stubNotifier records every Schedule call for assertions. Pin returns a
// no-op handle; no test in this package exercises detached futures.
type stubNotifier struct {
	mu        sync.Mutex
	scheduled []TaskID
}

func (n *stubNotifier) Schedule(id TaskID) {
	n.mu.Lock()
	n.scheduled = append(n.scheduled, id)
	n.mu.Unlock()
}

func (n *stubNotifier) Pin() hostapi.Handle { return stubHandle{} }

type stubHandle struct{}

func (stubHandle) Release() {}

func (n *stubNotifier) snapshot() []TaskID {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]TaskID, len(n.scheduled))
	copy(out, n.scheduled)
	return out
}

// stubDispatcher resolves every fingerprint to the same canned Work unless
// a per-function override is registered.
type stubDispatcher struct {
	mu        sync.Mutex
	overrides map[uint64]func(ctx context.Context) ExecutionResult
}

func newStubDispatcher() *stubDispatcher {
	return &stubDispatcher{overrides: make(map[uint64]func(ctx context.Context) ExecutionResult)}
}

func (d *stubDispatcher) On(functionID uint64, run func(ctx context.Context) ExecutionResult) {
	d.mu.Lock()
	d.overrides[functionID] = run
	d.mu.Unlock()
}

func (d *stubDispatcher) Dispatch(fp *fingerprint.Fingerprint) (string, Work) {
	d.mu.Lock()
	run, ok := d.overrides[fp.FunctionID]
	d.mu.Unlock()
	if !ok {
		run = func(ctx context.Context) ExecutionResult {
			return ExecutionResult{CellTask: 0, Cell: CellID{}}
		}
	}
	return "stub-span", run
}

func newTestBackend() (*Backend, *stubNotifier, *stubDispatcher) {
	cfg := NewConfig()
	notifier := &stubNotifier{}
	dispatcher := newStubDispatcher()
	b, err := New(cfg, dispatcher, notifier)
	if err != nil {
		panic(err)
	}
	return b, notifier, dispatcher
}
