package aspect

import (
	"context"
	"fmt"
	"reflect"
	"runtime/debug"
	"sync"
)

var _ Pending = (*Future[Void])(nil)

var closedChan = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

type (
	// Void is the result type of asynchronous methods without a value.
	Void struct{}

	// Pending is an operation that settles later. Only Future implements it.
	Pending interface {
		Done() <-chan struct{}
		ResultType() reflect.Type
		settled() (any, error)
	}

	// Future is a pending operation producing a T.
	Future[T any] struct {
		done chan struct{}
		once sync.Once
		val  T
		err  error
	}
)

// NewFuture returns an unsettled future and the function that settles it. Only the
// first call to settle has an effect.
func NewFuture[T any]() (*Future[T], func(T, error)) {
	f := &Future[T]{done: make(chan struct{})}
	return f, f.resolve
}

// Resolved returns a future already settled with v.
func Resolved[T any](v T) *Future[T] {
	f, settle := NewFuture[T]()
	settle(v, nil)
	return f
}

// Failed returns a future already settled with err.
func Failed[T any](err error) *Future[T] {
	var zero T
	f, settle := NewFuture[T]()
	settle(zero, err)
	return f
}

// Go runs fn on a new goroutine. A panic inside fn settles the future with an
// *OperationError carrying the panic value and stack.
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Future[T] {
	return spawn(ctx, fn, false)
}

func spawn[T any](ctx context.Context, fn func(ctx context.Context) (T, error), strip bool) *Future[T] {
	f, settle := NewFuture[T]()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				var err error = newOperationError(r, debug.Stack())
				if strip {
					err = unwrapOperation(err)
				}
				settle(zero, err)
			}
		}()
		settle(fn(ctx))
	}()
	return f
}

func (f *Future[T]) resolve(v T, err error) {
	f.once.Do(func() {
		f.val, f.err = v, err
		close(f.done)
	})
}

func (f *Future[T]) Done() <-chan struct{} {
	if f == nil {
		return closedChan
	}
	return f.done
}

// Await blocks until the future settles or ctx ends, whichever comes first.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	if f == nil {
		var zero T
		return zero, nil
	}
	select {
	case <-f.done:
		return f.val, f.err
	default:
	}
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// ResultType is safe on a nil receiver.
func (f *Future[T]) ResultType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func (f *Future[T]) settled() (any, error) {
	if f == nil {
		return nil, nil
	}
	return f.val, f.err
}

func (f *Future[T]) String() string {
	select {
	case <-f.Done():
		return fmt.Sprintf("Future[%s](settled)", f.ResultType())
	default:
		return fmt.Sprintf("Future[%s](pending)", f.ResultType())
	}
}

func await(ctx context.Context, p Pending) (any, error) {
	select {
	case <-p.Done():
		return p.settled()
	default:
	}
	select {
	case <-p.Done():
		return p.settled()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
