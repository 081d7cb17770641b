package aspect

import (
	"context"
	"reflect"
)

var (
	_ Aspect              = (*aspect)(nil)
	_ ProceedingJoinpoint = (*joinpoint)(nil)
)

type (
	Nameable interface {
		Name() string
	}

	// Aspect is a cross-cutting behavior woven around a method.
	Aspect interface {
		Nameable
		// Order is read once at registration, lower values run first.
		Order() int
		// Around continues the chain by calling pjp.Proceed at most once. Returning
		// without proceeding short-circuits the rest of the chain.
		Around(pjp ProceedingJoinpoint) error
	}

	// Joinpoint is the read view of a single invocation.
	Joinpoint interface {
		// Name returns "Type.Method".
		Nameable
		ID() string
		Context() context.Context
		Target() any
		TypeName() string
		FuncName() string
		Shape() ReturnShape
		Params() []any
		// ParamTo returns the i-th argument, zero based, context excluded.
		ParamTo(i int) any
		Result() any
		Err() error
	}

	// ProceedingJoinpoint is the call context handed to Aspect.Around.
	ProceedingJoinpoint interface {
		Joinpoint
		SetContext(ctx context.Context)
		SetParam(i int, v any)
		SetParams(v ...any)
		SetResult(v any)
		Proceed() error
	}
)

// implement Aspect
type aspect struct {
	name   string
	order  int
	around func(pjp ProceedingJoinpoint) error
}

// NewAspect builds an Aspect from options, handy for aspects without state.
func NewAspect(opts ...Option[aspect]) Aspect {
	a := &aspect{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *aspect) Name() string { return a.name }
func (a *aspect) Order() int   { return a.order }

func (a *aspect) Around(pjp ProceedingJoinpoint) error {
	if a.around == nil {
		return pjp.Proceed()
	}
	return a.around(pjp)
}

// Arg asserts the i-th argument to T, yielding the zero value for nil or missing arguments.
func Arg[T any](args []any, i int) T {
	var zero T
	if i < 0 || i >= len(args) || args[i] == nil {
		return zero
	}
	if v, ok := args[i].(T); ok {
		return v
	}
	return zero
}

// TypeName returns the qualified name pointcuts use for t, pointers dereferenced.
func TypeName(t reflect.Type) string {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}
