package async

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ExecFuture represents the completion of an asynchronous unit of work that only returns an error.
type ExecFuture struct {
	err  error
	once sync.Once
	done chan struct{}
}

func newExecFuture() *ExecFuture {
	return &ExecFuture{done: make(chan struct{})}
}

// complete resolves the future exactly once. Later calls are ignored.
func (f *ExecFuture) complete(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Await waits for the asynchronous function to complete and returns its error.
func (f *ExecFuture) Await() error {
	<-f.done
	return f.err
}

// AwaitWithTimeout waits for the asynchronous function to complete with a timeout.
// Returns the error if the function completes before the timeout.
// If the timeout occurs before completion, returns ErrTimeout.
func (f *ExecFuture) AwaitWithTimeout(timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-f.done:
		return f.err
	case <-timer.C:
		return ErrTimeout
	}
}

// AwaitContext waits for completion or for ctx to be done, whichever happens first.
// The underlying work is not cancelled when ctx is done.
func (f *ExecFuture) AwaitContext(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done returns a channel that is closed once the future is resolved.
func (f *ExecFuture) Done() <-chan struct{} {
	return f.done
}

// IsComplete checks if the asynchronous function is complete without blocking.
func (f *ExecFuture) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Exec executes a function asynchronously that only returns an error.
// The function accepts a context.Context and a parameter of any type T.
// If ctx is already done when the goroutine starts, fn is not called and
// the future resolves with ctx.Err().
func Exec[T any](ctx context.Context, param T, fn func(context.Context, T) error) *ExecFuture {
	f := newExecFuture()

	go func() {
		// Early exit prevents running work nobody waits for
		if err := ctx.Err(); err != nil {
			f.complete(err)
			return
		}

		f.complete(fn(ctx, param))
	}()

	return f
}

// Go runs fn on a new goroutine and returns a future for its error.
// Unlike Exec it never skips fn.
func Go(fn func() error) *ExecFuture {
	f := newExecFuture()

	go func() {
		f.complete(fn())
	}()

	return f
}

// NewPromise returns an unresolved future and the function that resolves it.
// The resolve function is safe to call from any goroutine; only the first call wins.
//
// Example:
//
//	future, resolve := async.NewPromise()
//	queue <- func() { resolve(doWork()) }
//	return future
func NewPromise() (*ExecFuture, func(error)) {
	f := newExecFuture()
	return f, f.complete
}

// Completed returns a future that is already resolved with err.
func Completed(err error) *ExecFuture {
	f := newExecFuture()
	f.complete(err)
	return f
}

// JoinAll waits for every future to complete and returns all of their errors
// joined with errors.Join. Returns nil when every future succeeded.
func JoinAll(futures ...*ExecFuture) error {
	var errs []error
	for _, future := range futures {
		if err := future.Await(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
