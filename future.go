package logrpc

import (
	"context"
	"sync"
)

// Future is a handle to the outcome of one asynchronous operation. It
// resolves exactly once to a value, an explicit absent outcome, or an error,
// and never blocks the goroutine that issued the operation.
type Future[T any] struct {
	done chan struct{}
	once sync.Once

	val    T
	err    error
	absent bool
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// complete resolves the future. Later calls are no-ops.
func (f *Future[T]) complete(val T, absent bool, err error) {
	f.once.Do(func() {
		f.val = val
		f.absent = absent
		f.err = err
		close(f.done)
	})
}

// failedFuture returns a future already resolved to err.
func failedFuture[T any](err error) *Future[T] {
	f := newFuture[T]()
	var zero T
	f.complete(zero, false, err)
	return f
}

// Done returns a channel that is closed once the future is resolved.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future resolves or ctx is done, whichever comes
// first. An absent outcome yields the zero value and a nil error; use Absent
// to distinguish it from a genuine zero result.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Absent reports whether the future resolved to the explicit absent outcome.
// It must only be called after the future is resolved.
func (f *Future[T]) Absent() bool {
	select {
	case <-f.done:
		return f.absent
	default:
		return false
	}
}
