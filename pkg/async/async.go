package async

import (
	"context"
	"sync"
	"time"
)

// Future is the eventual result of a call started with Async.
type Future[U any] struct {
	result U
	err    error
	once   sync.Once
	done   chan struct{}
}

// Await blocks until the call finishes and returns its result.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.result, f.err
}

// AwaitWithTimeout is Await bounded by timeout. The call keeps running after
// ErrTimeout is returned; its result is dropped.
func (f *Future[U]) AwaitWithTimeout(timeout time.Duration) (U, error) {
	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case <-f.done:
		return f.result, f.err
	case <-t.C:
		var zero U
		return zero, ErrTimeout
	}
}

// IsComplete reports whether the call has finished.
func (f *Future[U]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

func (f *Future[U]) complete(res U, err error) {
	f.once.Do(func() {
		f.result = res
		f.err = err
	})
}

// Async runs fn(ctx, param) in its own goroutine. A context that is already
// done completes the future with ctx.Err() without calling fn.
func Async[T any, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := &Future[U]{done: make(chan struct{})}

	go func() {
		defer close(f.done)

		if err := ctx.Err(); err != nil {
			var zero U
			f.complete(zero, err)
			return
		}
		f.complete(fn(ctx, param))
	}()

	return f
}

// Resolved returns a future that is already complete with res and err.
func Resolved[U any](res U, err error) *Future[U] {
	f := &Future[U]{done: make(chan struct{})}
	f.complete(res, err)
	close(f.done)
	return f
}

// WaitAll awaits every future in order and stops at the first error. The
// returned slice holds the results collected up to that point.
func WaitAll[U any](futures ...*Future[U]) ([]U, error) {
	results := make([]U, len(futures))
	for i, f := range futures {
		res, err := f.Await()
		results[i] = res
		if err != nil {
			return results, err
		}
	}
	return results, nil
}
