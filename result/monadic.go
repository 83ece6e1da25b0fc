package result

import (
	"context"
	"fmt"
)

// Of lifts a conventional (value, error) return pair into a Result:
//
//	res := result.Of(store.Load(key))
func Of[T any](value T, err error) Result[T] {
	if err != nil {
		return Err[T](err)
	}
	return Ok(value)
}

// Do runs fn and reifies its outcome. A returned error becomes the
// failure variant; so does a panic, which is recovered and never
// re-raised. Panic values that are not errors are wrapped with their
// textual form.
func Do[T any](fn func() (T, error)) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			res = Err[T](panicError(r))
		}
	}()

	value, err := fn()
	if err != nil {
		return Err[T](err)
	}
	return Ok(value)
}

// Wrap converts a fallible function into one returning a Result,
// the function-level form of Do:
//
//	safeParse := result.Wrap(func() (Config, error) { return parse(raw) })
//	res := safeParse()
func Wrap[T any](fn func() (T, error)) func() Result[T] {
	return func() Result[T] {
		return Do(fn)
	}
}

// Map transforms the value of an ok Result; the failure variant passes
// through untouched.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if r.IsErr() {
		return Err[U](r.Err())
	}
	return Ok(fn(r.Value()))
}

// Then chains a fallible transformation onto an ok Result; the failure
// variant passes through untouched.
func Then[T, U any](r Result[T], fn func(T) (U, error)) Result[U] {
	if r.IsErr() {
		return Err[U](r.Err())
	}
	return Of(fn(r.Value()))
}

// Future is the pending outcome of an asynchronous operation. It
// settles exactly once; Await blocks until then and every Await returns
// the same Result.
type Future[T any] struct {
	done chan struct{}
	res  Result[T]
}

// Async runs fn in its own goroutine and returns a Future that settles
// with fn's reified outcome. Panics inside fn settle the future as the
// failure variant. Async adds no cancellation or timeout of its own:
// ctx is passed through, and fn observes whatever cancellation the
// underlying operation exposes.
func Async[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.res = Do(func() (T, error) { return fn(ctx) })
	}()
	return f
}

// Await blocks until the future settles and returns its Result.
func (f *Future[T]) Await() Result[T] {
	<-f.done
	return f.res
}

// Settled reports whether the future has settled, without blocking.
func (f *Future[T]) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

func panicError(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", v)
}
