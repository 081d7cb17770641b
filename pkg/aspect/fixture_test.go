package aspect

import (
	"context"
	"errors"
	"sync"
)

type (
	order struct {
		ID    int
		Total int
	}

	orderRepository interface {
		Save(ctx context.Context, o *order) error
	}

	orderService struct {
		mu    sync.Mutex
		calls []string
		fail  error
	}

	// orderServiceProxy is what the generator would emit for orderService.
	orderServiceProxy struct {
		target *orderService
		d      *Dispatcher
	}

	plainService struct{}

	codedError struct {
		Code int
	}
)

var errBoom = errors.New("boom")

func (e *codedError) Error() string { return "coded error" }

func (s *orderService) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *orderService) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *orderService) Create(ctx context.Context, total int) (*order, error) {
	s.record("Create")
	if s.fail != nil {
		return nil, s.fail
	}
	return &order{ID: 1, Total: total}, nil
}

func (s *orderService) Save(ctx context.Context, o *order) error {
	s.record("Save")
	return s.fail
}

func (s *orderService) Load(ctx context.Context, id int) *Future[*order] {
	s.record("Load")
	fail := s.fail
	return Go(ctx, func(ctx context.Context) (*order, error) {
		if fail != nil {
			return nil, fail
		}
		return &order{ID: id}, nil
	})
}

func (s *orderService) Purge(ctx context.Context) *Future[Void] {
	s.record("Purge")
	fail := s.fail
	return Go(ctx, func(ctx context.Context) (Void, error) {
		return Void{}, fail
	})
}

func (s *orderService) String() string { return "orderService" }

func (p *orderServiceProxy) Create(ctx context.Context, total int) (*order, error) {
	return CallResult[*order](ctx, p.d, Invocation{
		Target: p.target,
		Method: "Create",
		Args:   []any{total},
		Proceed: func(ctx context.Context, args []any) (any, error) {
			return p.target.Create(ctx, Arg[int](args, 0))
		},
	})
}

func (p *orderServiceProxy) Save(ctx context.Context, o *order) error {
	return Call(ctx, p.d, Invocation{
		Target: p.target,
		Method: "Save",
		Args:   []any{o},
		Proceed: func(ctx context.Context, args []any) (any, error) {
			return nil, p.target.Save(ctx, Arg[*order](args, 0))
		},
	})
}

func (p *orderServiceProxy) Load(ctx context.Context, id int) *Future[*order] {
	return AsyncResult[*order](ctx, p.d, Invocation{
		Target: p.target,
		Method: "Load",
		Args:   []any{id},
		Proceed: func(ctx context.Context, args []any) (any, error) {
			return p.target.Load(ctx, Arg[int](args, 0)), nil
		},
	})
}

func (p *orderServiceProxy) Purge(ctx context.Context) *Future[Void] {
	return Async(ctx, p.d, Invocation{
		Target: p.target,
		Method: "Purge",
		Proceed: func(ctx context.Context, args []any) (any, error) {
			return p.target.Purge(ctx), nil
		},
	})
}

func (plainService) Ping(ctx context.Context) error { return nil }

// tracer returns an aspect appending its pre and post work to trace.
func tracer(name string, order int, trace *[]string) Aspect {
	return NewAspect(
		WithAspectName(name),
		WithAspectOrder(order),
		WithAround(func(pjp ProceedingJoinpoint) error {
			*trace = append(*trace, "before "+name)
			err := pjp.Proceed()
			*trace = append(*trace, "after "+name)
			return err
		}),
	)
}

// passThrough proceeds and returns whatever the chain returned.
func passThrough(name string, order int) Aspect {
	return NewAspect(WithAspectName(name), WithAspectOrder(order))
}

func newProxy(svc *orderService, pc *Pointcuts, reg *Registry, opts ...Option[Dispatcher]) *orderServiceProxy {
	return &orderServiceProxy{target: svc, d: NewDispatcher(pc, reg, opts...)}
}
