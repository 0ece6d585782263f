package assets

import (
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// Pool runs load tasks on a bounded set of background workers. Idle
// workers exit and are respawned on demand.
type Pool struct {
	workers worker.DynamicWorkerPool
	nextID  atomic.Int64
}

// NewPool creates a pool with up to n workers.
func NewPool(n int) *Pool {
	if n <= 0 {
		n = 1
	}
	return &Pool{workers: worker.NewDynamicWorkerPool(n, 256, 1*time.Second)}
}

// Submit queues fn. It never runs on the caller's goroutine.
func (p *Pool) Submit(fn func()) {
	p.workers.SubmitTask(worker.Task{
		ID: int(p.nextID.Add(1)),
		Do: func() (any, error) {
			fn()
			return nil, nil
		},
	})
}

// Close drops queued tasks and stops the workers. Tasks already running
// finish on their own.
func (p *Pool) Close() {
	p.workers.ClearTaskQueue()
	p.workers.Stop()
}
