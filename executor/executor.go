// Package executor provides the shared worker pool on which the client
// dispatches asynchronous calls, together with the factory that owns pool
// acquisition and release.
package executor

import (
	"errors"
	"sync"
)

// DefaultWorkers is the pool size used when none is configured.
const DefaultWorkers = 8

// ErrPoolReleased is returned by Submit after the pool has been released.
var ErrPoolReleased = errors.New("executor pool released")

// Pool is a fixed-size worker pool. Tasks submitted to the pool run on one of
// its workers; Submit never blocks the caller beyond queueing.
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup

	mu       sync.Mutex
	released bool
}

// NewPool creates a pool with the given number of workers. A non-positive
// count falls back to DefaultWorkers.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	p := &Pool{
		tasks: make(chan func(), workers*4),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
}

// Submit schedules task on the pool. It returns ErrPoolReleased if the pool
// has already been released.
func (p *Pool) Submit(task func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return ErrPoolReleased
	}
	p.tasks <- task
	return nil
}

// release stops intake and waits for queued and in-flight tasks to finish.
// Idempotent.
func (p *Pool) release() {
	p.mu.Lock()
	if p.released {
		p.mu.Unlock()
		return
	}
	p.released = true
	close(p.tasks)
	p.mu.Unlock()
	p.wg.Wait()
}

// Factory acquires pools and takes them back. The client releases its pool
// through the same factory it got it from, so callers can plug in pooled or
// instrumented implementations.
type Factory interface {
	// New returns a ready pool.
	New() *Pool

	// Release returns a pool obtained from New. In-flight tasks are drained
	// before Release returns.
	Release(*Pool) error
}

// NewFactory returns the default factory: every New call creates a fresh pool
// with the given worker count.
func NewFactory(workers int) Factory {
	return &defaultFactory{workers: workers}
}

type defaultFactory struct {
	workers int
}

func (f *defaultFactory) New() *Pool {
	return NewPool(f.workers)
}

func (f *defaultFactory) Release(p *Pool) error {
	if p == nil {
		return nil
	}
	p.release()
	return nil
}
