package aspect

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

var (
	// ErrInvocationShape marks errors raised when a chain result cannot be coerced to the
	// caller's declared return shape.
	ErrInvocationShape = errors.New("aspect: invocation shape mismatch")
	// ErrUnregistered marks pointcuts naming aspects without a registration.
	ErrUnregistered = errors.New("aspect: unregistered aspect")
)

// ShapeError reports a result of the wrong type for the caller's shape.
type ShapeError struct {
	Method string
	Want   reflect.Type
	Got    reflect.Type
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: %s returned %v, want %v", ErrInvocationShape, e.Method, e.Got, e.Want)
}

func (e *ShapeError) Is(target error) bool {
	return target == ErrInvocationShape
}

// OperationError is the wrapping the async primitive adds when a goroutine panics.
// Err is the panic value when it is an error.
type OperationError struct {
	Err   error
	Value any
	Stack []byte
}

func newOperationError(r any, stack []byte) *OperationError {
	err, ok := r.(error)
	if !ok {
		err = fmt.Errorf("panic: %v", r)
	}
	return &OperationError{Err: err, Value: r, Stack: stack}
}

func (e *OperationError) Error() string {
	return "aspect: operation failed: " + e.Err.Error()
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// unwrapOperation strips OperationError layers one at a time until the original error
// is reached. A layer whose panic value was not an error is the original failure and
// is kept so its stack survives.
func unwrapOperation(err error) error {
	for {
		oe, ok := err.(*OperationError)
		if !ok || oe.Err == nil {
			return err
		}
		if _, isErr := oe.Value.(error); !isErr {
			return err
		}
		err = oe.Err
	}
}

// UnregisteredError lists aspects named by pointcuts but missing from the registry,
// with the sites declaring them.
type UnregisteredError struct {
	Missing map[string][]string
}

func (e *UnregisteredError) Error() string {
	names := make([]string, 0, len(e.Missing))
	for name := range e.Missing {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	b.WriteString(ErrUnregistered.Error())
	for i, name := range names {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s (declared on %s)", name, strings.Join(e.Missing[name], ", "))
	}
	return b.String()
}

func (e *UnregisteredError) Is(target error) bool {
	return target == ErrUnregistered
}

// IsShapeError reports whether err is an invocation-shape mismatch.
func IsShapeError(err error) bool {
	var se *ShapeError
	return errors.As(err, &se)
}
