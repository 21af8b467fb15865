package fake

import (
	"context"

	"golang.org/x/sync/errgroup"

	"taskbackend/internal/backend"
	"taskbackend/internal/taskid"
)

// Runner is a small worker pool standing in for "the host's worker pool"
// of spec.md 5: it drains a Notifier's queue and drives
// Backend.TryStartTaskExecution / the resulting Work / TaskExecutionResult
// / TaskExecutionCompleted, rescheduling stale restarts itself.
type Runner struct {
	backend  *backend.Backend
	notifier *Notifier
}

// NewRunner builds a Runner over backend, fed by notifier.
func NewRunner(b *backend.Backend, notifier *Notifier) *Runner {
	return &Runner{backend: b, notifier: notifier}
}

// Run starts workerCount goroutines pulling from the notifier's queue
// until ctx is cancelled. It returns the errgroup's Wait error, which is
// always ctx.Err() on a clean shutdown since the only non-nil error a
// worker returns in this fake is its context's error.
func (r *Runner) Run(ctx context.Context, workerCount int) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < workerCount; i++ {
		g.Go(func() error {
			return r.work(ctx)
		})
	}
	return g.Wait()
}

func (r *Runner) work(ctx context.Context) error {
	queue := r.notifier.Queue()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case id, ok := <-queue:
			if !ok {
				return nil
			}
			r.runOne(ctx, id)
		}
	}
}

func (r *Runner) runOne(ctx context.Context, id taskid.TaskId) {
	spec, ok := r.backend.TryStartTaskExecution(id)
	if !ok {
		return
	}

	result := backend.ExecutionResult{}
	if spec.Run != nil {
		result = spec.Run(ctx)
	}
	r.backend.TaskExecutionResult(id, result)

	if restart := r.backend.TaskExecutionCompleted(id); restart {
		r.notifier.Schedule(id)
	}
}
