package backend

import (
	"sync"
	"sync/atomic"
)

// snapshotRequestedBit is the in-progress counter's high bit (spec.md 5).
const snapshotRequestedBit uint64 = 1 << 63

const inProgressMask = snapshotRequestedBit - 1

// snapshotCoordinator is the quiescence barrier of spec.md 5: a single
// atomic word whose low bits count in-flight mutating operations and whose
// high bit signals a pending snapshot, plus the two condition variables
// that let a snapshotter wait for quiescence and let suspended operations
// wait for the snapshot to finish.
type snapshotCoordinator struct {
	counter atomic.Uint64

	mu                  sync.Mutex
	operationsSuspended *sync.Cond
	snapshotCompleted   *sync.Cond

	suspendedMu sync.Mutex
	suspended   map[uint64]AnyOperation
	nextID      uint64
}

func newSnapshotCoordinator() *snapshotCoordinator {
	s := &snapshotCoordinator{suspended: make(map[uint64]AnyOperation)}
	s.operationsSuspended = sync.NewCond(&s.mu)
	s.snapshotCompleted = sync.NewCond(&s.mu)
	return s
}

// enter registers a mutating operation as in flight. Every ExecuteContext
// is expected to call enter exactly once at construction and release
// exactly once when the operation finishes, regardless of outcome.
func (s *snapshotCoordinator) enter() {
	s.counter.Add(1)
}

// release decrements the in-progress count. If that decrement brings the
// low bits to zero while a snapshot is pending, it wakes the snapshotter.
func (s *snapshotCoordinator) release() {
	v := s.counter.Add(^uint64(0))
	if v&snapshotRequestedBit != 0 && v&inProgressMask == 0 {
		s.mu.Lock()
		s.operationsSuspended.Broadcast()
		s.mu.Unlock()
	}
}

// suspendPoint is operation_suspend_point (spec.md 5). Its fast path — no
// snapshot pending — costs one atomic load. When a snapshot is pending it
// materializes describe(), records it in the suspended-operations set,
// temporarily releases its slot in the in-progress count, waits for the
// snapshot to complete, then reacquires its slot and removes its
// description.
func (s *snapshotCoordinator) suspendPoint(describe func() AnyOperation) {
	if s.counter.Load()&snapshotRequestedBit == 0 {
		return
	}

	id := s.recordSuspended(describe())
	s.release()

	s.mu.Lock()
	for s.counter.Load()&snapshotRequestedBit != 0 {
		s.snapshotCompleted.Wait()
	}
	s.mu.Unlock()

	s.counter.Add(1)
	s.forgetSuspended(id)
}

func (s *snapshotCoordinator) recordSuspended(op AnyOperation) uint64 {
	s.suspendedMu.Lock()
	defer s.suspendedMu.Unlock()
	id := s.nextID
	s.nextID++
	s.suspended[id] = op
	return id
}

func (s *snapshotCoordinator) forgetSuspended(id uint64) {
	s.suspendedMu.Lock()
	delete(s.suspended, id)
	s.suspendedMu.Unlock()
}

// SuspendedOperations returns a snapshot of the currently suspended
// operations' resumable descriptions, the data a crash-recovery
// implementation would replay from (spec.md 5, 9).
func (s *snapshotCoordinator) SuspendedOperations() []AnyOperation {
	s.suspendedMu.Lock()
	defer s.suspendedMu.Unlock()
	out := make([]AnyOperation, 0, len(s.suspended))
	for _, op := range s.suspended {
		out = append(out, op)
	}
	return out
}

// RequestSnapshot sets SNAPSHOT_REQUESTED and blocks until the in-progress
// count's low bits reach zero (spec.md 5 steps 1-2). It returns a release
// function the caller must invoke after draining and persisting the change
// logs; release clears SNAPSHOT_REQUESTED and wakes every operation
// parked in suspendPoint (spec.md 5 steps 3-4).
func (s *snapshotCoordinator) RequestSnapshot() (release func()) {
	s.setRequested()

	s.mu.Lock()
	for s.counter.Load()&inProgressMask != 0 {
		s.operationsSuspended.Wait()
	}
	s.mu.Unlock()

	return s.clearRequested
}

func (s *snapshotCoordinator) setRequested() {
	for {
		old := s.counter.Load()
		if old&snapshotRequestedBit != 0 {
			return
		}
		if s.counter.CompareAndSwap(old, old|snapshotRequestedBit) {
			return
		}
	}
}

func (s *snapshotCoordinator) clearRequested() {
	for {
		old := s.counter.Load()
		if s.counter.CompareAndSwap(old, old&^snapshotRequestedBit) {
			break
		}
	}
	s.mu.Lock()
	s.snapshotCompleted.Broadcast()
	s.mu.Unlock()
}
