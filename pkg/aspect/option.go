package aspect

import "github.com/sirupsen/logrus"

type (
	Option[T any] func(*T)
)

func WithAspectName(name string) Option[aspect] {
	return func(o *aspect) {
		o.name = name
	}
}

func WithAspectOrder(order int) Option[aspect] {
	return func(o *aspect) {
		o.order = order
	}
}

func WithAround(fn func(pjp ProceedingJoinpoint) error) Option[aspect] {
	return func(o *aspect) {
		o.around = fn
	}
}

// WithOrder overrides the order reported by the aspect.
func WithOrder(order int) Option[Registration] {
	return func(r *Registration) {
		r.Order = order
	}
}

// WithEligibility makes the aspect conditionally eligible: it is appended to every
// method whose return shape satisfies pred, in addition to declared pointcuts.
func WithEligibility(pred func(ReturnShape) bool) Option[Registration] {
	return func(r *Registration) {
		r.Eligible = pred
	}
}

func WithLogger(l logrus.FieldLogger) Option[Dispatcher] {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// WithStrict fails calls whose pointcuts name an unregistered aspect instead of skipping it.
func WithStrict(strict bool) Option[Dispatcher] {
	return func(d *Dispatcher) {
		d.strict = strict
	}
}
