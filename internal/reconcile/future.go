package reconcile

import "context"

// Future carries the completion of an operation running in the background.
// Every future ends in exactly one success or one failure.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Go runs fn on its own goroutine.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.val, f.err = fn(ctx)
	}()
	return f
}

// Wait blocks until the operation finishes or ctx ends. A ctx that ends
// first only stops the wait, not the operation.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then registers handlers run once the operation finishes. A PendingError
// goes to onFailure together with the value, which is still valid.
func (f *Future[T]) Then(onSuccess func(T), onFailure func(T, error)) {
	go func() {
		<-f.done
		if f.err != nil {
			if onFailure != nil {
				onFailure(f.val, f.err)
			}
			return
		}
		if onSuccess != nil {
			onSuccess(f.val)
		}
	}()
}
