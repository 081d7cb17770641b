package aspect

import (
	"reflect"
)

// Shape is the calling convention of an intercepted method.
type Shape int

const (
	// ShapeSync is func(...) error, or a method without results.
	ShapeSync Shape = iota
	// ShapeSyncResult is func(...) (T, error) or func(...) T.
	ShapeSyncResult
	// ShapeAsync is func(...) *Future[Void].
	ShapeAsync
	// ShapeAsyncResult is func(...) *Future[T].
	ShapeAsyncResult
)

var (
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
	pendingType = reflect.TypeOf((*Pending)(nil)).Elem()
	voidType    = reflect.TypeOf(Void{})
	anyType     = reflect.TypeOf((*any)(nil)).Elem()
)

func (s Shape) String() string {
	switch s {
	case ShapeSync:
		return "sync"
	case ShapeSyncResult:
		return "sync-result"
	case ShapeAsync:
		return "async"
	case ShapeAsyncResult:
		return "async-result"
	}
	return "unknown"
}

// Async reports whether callers receive a pending operation.
func (s Shape) Async() bool {
	return s == ShapeAsync || s == ShapeAsyncResult
}

// ReturnShape is the effective return shape of a method. Result is the value type the
// caller eventually receives, nil when there is none.
type ReturnShape struct {
	Kind   Shape
	Result reflect.Type
}

// Returns reports whether the effective result implements iface.
func (s ReturnShape) Returns(iface reflect.Type) bool {
	if s.Result == nil || iface == nil {
		return false
	}
	return s.Result.Implements(iface)
}

// ShapeOf classifies a method by its results.
func ShapeOf(m reflect.Method) ReturnShape {
	return shapeOfFunc(m.Type)
}

func shapeOfFunc(fn reflect.Type) ReturnShape {
	outs := make([]reflect.Type, 0, fn.NumOut())
	for i := 0; i < fn.NumOut(); i++ {
		outs = append(outs, fn.Out(i))
	}
	// a trailing error does not change the shape
	if n := len(outs); n > 0 && outs[n-1] == errorType {
		outs = outs[:n-1]
	}
	switch len(outs) {
	case 0:
		return ReturnShape{Kind: ShapeSync}
	case 1:
		return shapeOfValue(outs[0])
	}
	return ReturnShape{Kind: ShapeSyncResult}
}

func shapeOfValue(out reflect.Type) ReturnShape {
	if !out.Implements(pendingType) {
		return ReturnShape{Kind: ShapeSyncResult, Result: out}
	}
	result := anyType
	if out.Kind() == reflect.Pointer {
		// Future.ResultType tolerates a nil receiver
		if p, ok := reflect.Zero(out).Interface().(Pending); ok {
			result = p.ResultType()
		}
	}
	if result == voidType {
		return ReturnShape{Kind: ShapeAsync}
	}
	return ReturnShape{Kind: ShapeAsyncResult, Result: result}
}
