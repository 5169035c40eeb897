package service

import "context"

type outcome[T any] struct {
	val T
	err error
}

// withDeadline runs fn and returns its result, or ctx.Err() as soon as ctx is done.
// When ctx wins, fn keeps running in its goroutine and its result is dropped.
func withDeadline[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	ch := make(chan outcome[T], 1)
	go func() {
		v, err := fn(ctx)
		ch <- outcome[T]{val: v, err: err}
	}()

	select {
	case r := <-ch:
		return r.val, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
