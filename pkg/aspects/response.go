package aspects

import (
	"reflect"

	"github.com/go-park/aspectchain/pkg/aspect"
)

const (
	ResponseName  = "response"
	ResponseOrder = -900
)

type (
	// Response is implemented by result envelopes the response aspect normalizes.
	// Implementations must be pointer types.
	Response interface {
		SetSuccess(ok bool)
		SetMessage(msg string)
		SetTraceID(id string)
		GetTraceID() string
	}

	// Validator is implemented by arguments that can reject a call before it runs.
	Validator interface {
		Validate() error
	}

	// Envelope is a ready-made Response.
	Envelope[T any] struct {
		Success bool   `json:"success"`
		Message string `json:"message,omitempty"`
		TraceID string `json:"trace_id,omitempty"`
		Data    T      `json:"data,omitempty"`
	}

	respond struct{}
)

var (
	_ aspect.Aspect = respond{}
	_ Response      = (*Envelope[any])(nil)

	responseType = reflect.TypeOf((*Response)(nil)).Elem()
)

func (e *Envelope[T]) SetSuccess(ok bool)    { e.Success = ok }
func (e *Envelope[T]) SetMessage(msg string) { e.Message = msg }
func (e *Envelope[T]) SetTraceID(id string)  { e.TraceID = id }
func (e *Envelope[T]) GetTraceID() string    { return e.TraceID }

// NewResponse returns the response aspect. Register it with ResponseEligible so it
// applies to every method returning a Response without a declared pointcut.
func NewResponse() aspect.Aspect { return respond{} }

// ResponseEligible reports whether s yields a pointer type implementing Response.
func ResponseEligible(s aspect.ReturnShape) bool {
	return s.Result != nil && s.Result.Kind() == reflect.Pointer && s.Returns(responseType)
}

func (respond) Name() string { return ResponseName }
func (respond) Order() int   { return ResponseOrder }

func (respond) Around(pjp aspect.ProceedingJoinpoint) error {
	typ := pjp.Shape().Result
	for _, p := range pjp.Params() {
		v, ok := p.(Validator)
		if !ok || isNil(p) {
			continue
		}
		if err := v.Validate(); err != nil {
			resp, ok := newResponse(typ)
			if !ok {
				return err
			}
			resp.SetSuccess(false)
			resp.SetMessage(err.Error())
			resp.SetTraceID(pjp.ID())
			pjp.SetResult(resp)
			return nil
		}
	}
	if err := pjp.Proceed(); err != nil {
		return err
	}
	resp, _ := pjp.Result().(Response)
	if isNil(resp) {
		created, ok := newResponse(typ)
		if !ok {
			return nil
		}
		created.SetSuccess(true)
		pjp.SetResult(created)
		resp = created
	}
	if resp.GetTraceID() == "" {
		resp.SetTraceID(pjp.ID())
	}
	return nil
}

func newResponse(typ reflect.Type) (Response, bool) {
	if typ == nil || typ.Kind() != reflect.Pointer {
		return nil, false
	}
	resp, ok := reflect.New(typ.Elem()).Interface().(Response)
	return resp, ok
}
