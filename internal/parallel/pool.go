// Package parallel runs independent relation queries concurrently. Relations
// and states are immutable, so queries share nothing but the relation they
// are asked of; this package only bounds how many run at once.
package parallel

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// Pool manages a fixed set of goroutines running derivation tasks. Submit
// blocks once every worker is busy and the queue is full, which keeps a
// burst of expensive queries from starving the process.
type Pool struct {
	workers  int
	tasks    chan func()
	workerWg sync.WaitGroup
	shutdown chan struct{}
	once     sync.Once
}

// NewPool starts a pool with the given number of workers. If workers is 0 or
// negative, it defaults to the number of CPU cores.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	p := &Pool{
		workers:  workers,
		tasks:    make(chan func(), workers*2),
		shutdown: make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		p.workerWg.Add(1)
		go p.worker()
	}

	return p
}

func (p *Pool) worker() {
	defer p.workerWg.Done()

	for {
		select {
		case task := <-p.tasks:
			if task != nil {
				task()
			}
		case <-p.shutdown:
			return
		}
	}
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int {
	return p.workers
}

// Submit queues task for execution. It blocks while the queue is full.
func (p *Pool) Submit(ctx context.Context, task func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-p.shutdown:
		return ErrPoolShutdown
	default:
	}

	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.shutdown:
		return ErrPoolShutdown
	}
}

// Do runs task on the pool and waits for it to finish. If ctx is done or the
// pool shuts down first, Do returns without waiting; task may still run, so
// it must not touch anything the caller reuses after an error.
func (p *Pool) Do(ctx context.Context, task func()) error {
	done := make(chan struct{})
	if err := p.Submit(ctx, func() {
		defer close(done)
		task()
	}); err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.shutdown:
		select {
		case <-done:
			return nil
		default:
			return ErrPoolShutdown
		}
	}
}

// Shutdown stops the workers, waiting for tasks already running to
// complete. Queued tasks that have not started are dropped. It is safe to
// call more than once.
func (p *Pool) Shutdown() {
	p.once.Do(func() {
		close(p.shutdown)
		p.workerWg.Wait()
	})
}

// ErrPoolShutdown is returned when submitting to a pool that has been shut
// down.
var ErrPoolShutdown = errors.New("parallel: pool has been shut down")
