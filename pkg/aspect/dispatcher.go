package aspect

import (
	"context"
	"reflect"
	"sync"

	"github.com/sirupsen/logrus"
)

type (
	// Invocation is what a proxy hands to the dispatcher: the receiver, the invoked
	// method, its arguments without the leading context, and the real method.
	Invocation struct {
		Target  any
		Method  string
		Args    []any
		Proceed Invoker
	}

	// Dispatcher runs the aspect chain of decorated methods.
	Dispatcher struct {
		registry *Registry
		cache    *DecoratorCache
		log      logrus.FieldLogger
		strict   bool
		skipped  sync.Map
	}
)

func NewDispatcher(source Source, registry *Registry, opts ...Option[Dispatcher]) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	resolver := NewResolver(source, registry)
	d.cache = NewDecoratorCache(func(t reflect.Type) *DecoratorMap {
		m := resolver.Resolve(t)
		d.log.WithFields(logrus.Fields{
			"type":    m.TypeName(),
			"methods": m.Methods(),
		}).Debug("decorator map built")
		return m
	})
	return d
}

func (d *Dispatcher) Registry() *Registry { return d.registry }

// Decorators returns the decorator map of target's concrete type.
func (d *Dispatcher) Decorators(target any) *DecoratorMap {
	t := reflect.TypeOf(target)
	if t == nil {
		return nil
	}
	return d.cache.GetOrBuild(t)
}

// Dispatch runs inv through its chain and returns the raw outcome. Proxies use the
// shape adapters Call, CallResult, Async and AsyncResult instead.
func (d *Dispatcher) Dispatch(ctx context.Context, inv Invocation) (any, error) {
	if inv.Target == nil {
		return inv.Proceed(ctx, inv.Args)
	}
	dm := d.cache.GetOrBuild(reflect.TypeOf(inv.Target))
	dec, ok := dm.Lookup(inv.Method)
	if !ok {
		return inv.Proceed(ctx, inv.Args)
	}
	chain, err := d.chain(dm.TypeName(), dec)
	if err != nil {
		return nil, err
	}
	if len(chain) == 0 {
		return inv.Proceed(ctx, inv.Args)
	}
	jp := &joinpoint{
		ctx:      ctx,
		target:   inv.Target,
		typeName: dm.TypeName(),
		dec:      dec,
		args:     inv.Args,
		chain:    chain,
		pos:      -1,
		proceed:  inv.Proceed,
	}
	err = jp.invoke(0)
	return jp.result, err
}

// chain orders the registered aspects of dec. Names without a registration are
// skipped, or rejected in strict mode.
func (d *Dispatcher) chain(typeName string, dec *Decorators) ([]Aspect, error) {
	regs := make([]Registration, 0, len(dec.Aspects))
	var missing map[string][]string
	for _, name := range dec.Aspects {
		reg, ok := d.registry.Lookup(name)
		if ok {
			regs = append(regs, reg)
			continue
		}
		site := typeName + "." + dec.Method.Name
		if d.strict {
			if missing == nil {
				missing = map[string][]string{}
			}
			missing[name] = append(missing[name], site)
			continue
		}
		if _, seen := d.skipped.LoadOrStore(site+"@"+name, struct{}{}); !seen {
			d.log.WithFields(logrus.Fields{
				"method": site,
				"aspect": name,
			}).Debug("aspect not registered, skipped")
		}
	}
	if missing != nil {
		return nil, &UnregisteredError{Missing: missing}
	}
	sortRegistrations(regs)
	chain := make([]Aspect, len(regs))
	for i, reg := range regs {
		chain[i] = reg.New()
	}
	return chain, nil
}

// OrderOf returns the aspect names dispatch would run for method, in execution order.
func (d *Dispatcher) OrderOf(target any, method string) []string {
	dec, ok := d.Decorators(target).Lookup(method)
	if !ok {
		return nil
	}
	var regs []Registration
	for _, name := range dec.Aspects {
		if reg, ok := d.registry.Lookup(name); ok {
			regs = append(regs, reg)
		}
	}
	sortRegistrations(regs)
	names := make([]string, len(regs))
	for i, reg := range regs {
		names[i] = reg.Name
	}
	return names
}
