package backend

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"taskbackend/internal/changelog"
	"taskbackend/internal/event"
	"taskbackend/internal/fingerprint"
	"taskbackend/internal/hostapi"
	"taskbackend/internal/ids"
	"taskbackend/internal/storage"
)

// Backend is the facade a host task-graph runtime drives: every method
// here corresponds to one entry of spec.md 6's "Backend contract
// (provided)". It owns the id factories, the fingerprint registry, the
// per-task store, the two change logs, and the snapshot coordinator, and
// routes every mutating call through an ExecuteContext so the snapshot
// barrier can see it.
type Backend struct {
	cfg Config

	persistentIDs *ids.Factory
	transientIDs  *ids.Factory

	fingerprints *fingerprint.BiMap
	storage      *storage.Store

	transientMu    sync.Mutex
	transientSpecs map[TaskID]*TransientTaskSpec

	dispatcher Dispatcher
	notifier   hostapi.Notifier

	snapshot   *snapshotCoordinator
	insertions *cacheInsertionLog
	updates    *storageUpdateLog

	log zerolog.Logger
}

// New constructs a Backend. dispatcher resolves persistent-task
// fingerprints to work (spec.md 1's function/trait registries,
// deliberately external); notifier is the host runtime's scheduling API
// (spec.md 6's HostNotifier).
func New(cfg Config, dispatcher Dispatcher, notifier hostapi.Notifier) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("backend: invalid config: %w", err)
	}
	return &Backend{
		cfg:            cfg,
		persistentIDs:  ids.NewFactory(cfg.PersistentIDs.Low, cfg.PersistentIDs.High),
		transientIDs:   ids.NewFactory(cfg.TransientIDs.Low, cfg.TransientIDs.High),
		fingerprints:   fingerprint.NewBiMap(cfg.Shards),
		storage:        storage.NewStore(cfg.Shards),
		transientSpecs: make(map[TaskID]*TransientTaskSpec),
		dispatcher:     dispatcher,
		notifier:       notifier,
		snapshot:       newSnapshotCoordinator(),
		insertions:     changelog.New[CacheInsertion](),
		updates:        changelog.New[StorageUpdate](),
		log:            cfg.Logger,
	}, nil
}

// GetOrCreatePersistentTask returns the stable TaskID for fp, creating it
// (allocating an id, installing it in the fingerprint map, and scheduling
// it) on first lookup, and always wires parent -> returned id with a Child
// edge (spec.md 3, 4.2, 4.5).
func (b *Backend) GetOrCreatePersistentTask(fp *fingerprint.Fingerprint, parent TaskID) (TaskID, error) {
	id, err := b.getOrCreatePersistentTaskID(fp)
	if err != nil {
		return 0, err
	}
	ctx := newExecuteContext(b)
	ctx.ConnectChild(parent, id)
	return id, nil
}

func (b *Backend) getOrCreatePersistentTaskID(fp *fingerprint.Fingerprint) (TaskID, error) {
	if id, ok := b.fingerprints.LookupForward(fp); ok {
		return id, nil
	}

	raw, err := b.persistentIDs.Allocate()
	if err != nil {
		return 0, &IdExhaustedError{Cause: err}
	}
	id := TaskID(raw)

	winner, installed := b.fingerprints.TryInsert(fp, id)
	if !installed {
		b.persistentIDs.Reuse(raw)
		return winner, nil
	}

	b.insertions.Push(CacheInsertion{Fingerprint: fp, TaskID: id})

	a := b.storage.Access(id)
	a.Set(storage.InProgressItem(&storage.InProgressState{
		Scheduled:  true,
		Clean:      false,
		DoneEvent:  event.New(),
		StartEvent: event.New(),
	}))
	a.Release()
	b.notifier.Schedule(id)

	return id, nil
}

// GetOrCreateTransientTask allocates a fresh transient task for spec and
// wires parent -> the new id with a Child edge. Transient tasks have no
// structural identity to deduplicate on (spec.md 3), so unlike the
// persistent path this always creates.
func (b *Backend) GetOrCreateTransientTask(spec *TransientTaskSpec, parent TaskID) (TaskID, error) {
	id, err := b.CreateTransientTask(spec)
	if err != nil {
		return 0, err
	}
	ctx := newExecuteContext(b)
	ctx.ConnectChild(parent, id)
	return id, nil
}

// CreateTransientTask allocates a transient-range id for spec, registers
// it, installs a Scheduled item, and notifies the host (spec.md 3, 6).
func (b *Backend) CreateTransientTask(spec *TransientTaskSpec) (TaskID, error) {
	raw, err := b.transientIDs.Allocate()
	if err != nil {
		return 0, &IdExhaustedError{Cause: err}
	}
	id := TaskID(raw)

	b.transientMu.Lock()
	b.transientSpecs[id] = spec
	b.transientMu.Unlock()

	a := b.storage.Access(id)
	a.Set(storage.InProgressItem(&storage.InProgressState{
		Scheduled:  true,
		Clean:      false,
		DoneEvent:  event.New(),
		StartEvent: event.New(),
	}))
	a.Release()
	b.notifier.Schedule(id)

	return id, nil
}

func (b *Backend) transientSpec(id TaskID) (*TransientTaskSpec, bool) {
	b.transientMu.Lock()
	defer b.transientMu.Unlock()
	spec, ok := b.transientSpecs[id]
	return spec, ok
}

// ConnectTask wires parent -> child with a Child edge (spec.md 6's
// connect_task; the operation itself is ConnectChild, spec.md 4.5).
func (b *Backend) ConnectTask(parent, child TaskID) {
	ctx := newExecuteContext(b)
	ctx.ConnectChild(parent, child)
}

// InvalidateTask invalidates a single task (spec.md 6's invalidate_task).
func (b *Backend) InvalidateTask(task TaskID) {
	ctx := newExecuteContext(b)
	ctx.Invalidate([]TaskID{task})
}

// InvalidateTasks invalidates every task in tasks (spec.md 6's
// invalidate_tasks).
func (b *Backend) InvalidateTasks(tasks []TaskID) {
	ctx := newExecuteContext(b)
	ctx.Invalidate(tasks)
}

// InvalidateTasksSet invalidates every task in tasks (spec.md 6's
// invalidate_tasks_set).
func (b *Backend) InvalidateTasksSet(tasks map[TaskID]struct{}) {
	ids := make([]TaskID, 0, len(tasks))
	for id := range tasks {
		ids = append(ids, id)
	}
	ctx := newExecuteContext(b)
	ctx.Invalidate(ids)
}

// GetTaskDescription returns a human-readable description of task, used
// for diagnostics only (spec.md 6's get_task_description).
func (b *Backend) GetTaskDescription(task TaskID) string {
	if task.IsTransient() {
		return fmt.Sprintf("transient task %s", task)
	}
	if fp, ok := b.fingerprints.LookupReverse(task); ok {
		return fmt.Sprintf("persistent task %s (function %d)", task, fp.FunctionID)
	}
	return fmt.Sprintf("unknown task %s", task)
}

// TaskExecutionResult installs task's output from a completed execution
// (spec.md 6's task_execution_result; the operation is UpdateOutput,
// spec.md 4.5).
func (b *Backend) TaskExecutionResult(task TaskID, result ExecutionResult) {
	ctx := newExecuteContext(b)
	ctx.UpdateOutput(task, result)
}

// UpdateTaskCell installs task's cell content (spec.md 6's
// update_task_cell; the operation is UpdateCell, spec.md 4.5).
func (b *Backend) UpdateTaskCell(task TaskID, cell CellID, content storage.CellContent) {
	ctx := newExecuteContext(b)
	ctx.UpdateCell(task, cell, content)
}

// TryReadTaskOutput is the tracked read variant. spec.md 9 names it
// unimplemented in the source this core is grounded on and out of scope
// here; use TryReadTaskOutputUntracked instead.
func (b *Backend) TryReadTaskOutput(TaskID, TaskID, bool) (OutputRead, error) {
	panic(&NotImplementedError{Feature: "tracked reads (try_read_task_output)"})
}

// TryReadTaskCell is the tracked read variant; see TryReadTaskOutput.
func (b *Backend) TryReadTaskCell(TaskID, CellID, TaskID) (CellRead, error) {
	panic(&NotImplementedError{Feature: "tracked reads (try_read_task_cell)"})
}

// ReadTaskCollectibles, EmitCollectible, and UnemitCollectible are stubs:
// spec.md 9 calls the collectibles API "entirely stubbed; omitted from the
// core".
func (b *Backend) ReadTaskCollectibles(TaskID, TaskID) {
	panic(&NotImplementedError{Feature: "collectibles"})
}

func (b *Backend) EmitCollectible(TaskID) {
	panic(&NotImplementedError{Feature: "collectibles"})
}

func (b *Backend) UnemitCollectible(TaskID) {
	panic(&NotImplementedError{Feature: "collectibles"})
}

// RequestSnapshot drives the quiescence barrier of spec.md 5: it blocks
// until every in-flight operation is suspended or finished, then returns a
// drain function that hands the caller both change logs' drained batches
// and releases the barrier once called.
func (b *Backend) RequestSnapshot() (drain func() (CacheInsertionBatch, StorageUpdateBatch)) {
	release := b.snapshot.RequestSnapshot()
	return func() (CacheInsertionBatch, StorageUpdateBatch) {
		insertions := b.insertions.Drain()
		updates := b.updates.Drain()
		release()
		return insertions, updates
	}
}

// SuspendedOperations exposes the snapshot coordinator's suspended-
// operations set, the data a crash-recovery implementation would use to
// reconstruct in-flight state (spec.md 5, 9).
func (b *Backend) SuspendedOperations() []AnyOperation {
	return b.snapshot.SuspendedOperations()
}
