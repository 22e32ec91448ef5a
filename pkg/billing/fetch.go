package billing

import (
	"context"
	"time"
)

// result holds the outcome of one provider or store call. Callers choose the
// degraded default explicitly when err is set.
type result[T any] struct {
	val T
	err error
}

func (r result[T]) ok() bool { return r.err == nil }

// call runs fn under a bounded timeout.
func call[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) result[T] {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	v, err := fn(ctx)
	if err == nil && ctx.Err() != nil {
		// a provider that ignores ctx may return late; treat that as expiry
		var zero T
		return result[T]{val: zero, err: ctx.Err()}
	}
	return result[T]{val: v, err: err}
}

// within adapts fn to async.Async with the same timeout as call.
func within[P, T any](timeout time.Duration, fn func(context.Context, P) (T, error)) func(context.Context, P) (T, error) {
	return func(ctx context.Context, p P) (T, error) {
		res := call(ctx, timeout, func(ctx context.Context) (T, error) { return fn(ctx, p) })
		return res.val, res.err
	}
}
