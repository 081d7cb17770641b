package aspect

import (
	"context"
	"runtime/debug"

	"github.com/google/uuid"
)

// Invoker calls the real method with the (possibly rewritten) context and arguments.
type Invoker func(ctx context.Context, args []any) (any, error)

// joinpoint is created per call and walks the chain. pos is the index of the aspect
// currently running; Proceed hands control to pos+1, or to the real method past the
// last aspect.
type joinpoint struct {
	id       string
	ctx      context.Context
	target   any
	typeName string
	dec      *Decorators
	args     []any
	result   any
	err      error
	chain    []Aspect
	pos      int
	proceed  Invoker
}

func (jp *joinpoint) Name() string             { return jp.typeName + "." + jp.dec.Method.Name }
func (jp *joinpoint) Context() context.Context { return jp.ctx }
func (jp *joinpoint) Target() any              { return jp.target }
func (jp *joinpoint) TypeName() string         { return jp.typeName }
func (jp *joinpoint) FuncName() string         { return jp.dec.Method.Name }
func (jp *joinpoint) Shape() ReturnShape       { return jp.dec.Shape }
func (jp *joinpoint) Params() []any            { return jp.args }
func (jp *joinpoint) Result() any              { return jp.result }
func (jp *joinpoint) Err() error               { return jp.err }

// ID is generated on first use.
func (jp *joinpoint) ID() string {
	if jp.id == "" {
		jp.id = uuid.NewString()
	}
	return jp.id
}

func (jp *joinpoint) ParamTo(i int) any {
	if i < 0 || i >= len(jp.args) {
		return nil
	}
	return jp.args[i]
}

func (jp *joinpoint) SetContext(ctx context.Context) {
	if ctx != nil {
		jp.ctx = ctx
	}
}

func (jp *joinpoint) SetParam(i int, v any) {
	if i >= 0 && i < len(jp.args) {
		jp.args[i] = v
	}
}

func (jp *joinpoint) SetParams(v ...any) {
	jp.args = v
}

func (jp *joinpoint) SetResult(v any) {
	jp.result = v
}

func (jp *joinpoint) Proceed() error {
	return jp.invoke(jp.pos + 1)
}

func (jp *joinpoint) invoke(i int) error {
	if i >= len(jp.chain) {
		return jp.invokeTarget()
	}
	prev := jp.pos
	jp.pos = i
	err := jp.chain[i].Around(jp)
	jp.pos = prev
	jp.err = err
	return err
}

// invokeTarget runs the real method. A pending result is awaited here so that the
// post-work of every aspect observes the settled outcome. For asynchronous shapes a
// panic becomes the call's error here as well, before the chain unwinds.
func (jp *joinpoint) invokeTarget() (err error) {
	if jp.dec.Shape.Kind.Async() {
		defer func() {
			if r := recover(); r != nil {
				jp.result = nil
				jp.err = unwrapOperation(newOperationError(r, debug.Stack()))
				err = jp.err
			}
		}()
	}
	v, err := jp.proceed(jp.ctx, jp.args)
	for err == nil {
		p, ok := v.(Pending)
		if !ok {
			break
		}
		v, err = await(jp.ctx, p)
	}
	jp.result = v
	jp.err = unwrapOperation(err)
	return jp.err
}
