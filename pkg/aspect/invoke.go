package aspect

import (
	"context"
	"reflect"
)

// Call dispatches a synchronous method without result.
func Call(ctx context.Context, d *Dispatcher, inv Invocation) error {
	v, err := d.Dispatch(ctx, inv)
	if err != nil {
		return unwrapOperation(err)
	}
	// a short-circuit may leave a pending value behind
	if p, ok := v.(Pending); ok {
		_, err = await(ctx, p)
	}
	return unwrapOperation(err)
}

// CallResult dispatches a synchronous method returning (T, error).
func CallResult[T any](ctx context.Context, d *Dispatcher, inv Invocation) (T, error) {
	v, err := d.Dispatch(ctx, inv)
	if err != nil {
		t, _ := v.(T)
		return t, unwrapOperation(err)
	}
	return settle[T](ctx, inv.Method, v)
}

// Async dispatches an asynchronous method without result on a new goroutine. The
// future settles when the whole chain has settled.
func Async(ctx context.Context, d *Dispatcher, inv Invocation) *Future[Void] {
	return spawn(ctx, func(ctx context.Context) (Void, error) {
		v, err := d.Dispatch(ctx, inv)
		if err != nil {
			return Void{}, unwrapOperation(err)
		}
		if p, ok := v.(Pending); ok {
			_, err = await(ctx, p)
		}
		return Void{}, unwrapOperation(err)
	}, true)
}

// AsyncResult dispatches an asynchronous method producing a T. Pending values left by
// the chain are awaited until a T appears; any other value fails the future with a
// *ShapeError.
func AsyncResult[T any](ctx context.Context, d *Dispatcher, inv Invocation) *Future[T] {
	return spawn(ctx, func(ctx context.Context) (T, error) {
		v, err := d.Dispatch(ctx, inv)
		if err != nil {
			var zero T
			return zero, unwrapOperation(err)
		}
		return settle[T](ctx, inv.Method, v)
	}, true)
}

// settle coerces a chain result to T.
func settle[T any](ctx context.Context, method string, v any) (T, error) {
	var zero T
	want := reflect.TypeOf((*T)(nil)).Elem()
	for {
		if v == nil {
			return zero, nil
		}
		p, pending := v.(Pending)
		if pending && !want.Implements(pendingType) {
			var err error
			if v, err = await(ctx, p); err != nil {
				return zero, unwrapOperation(err)
			}
			continue
		}
		if t, ok := v.(T); ok {
			return t, nil
		}
		return zero, &ShapeError{Method: method, Want: want, Got: reflect.TypeOf(v)}
	}
}
