package aspect

import (
	"reflect"

	"github.com/go-park/aspectchain/pkg/tools/collections"
)

// formatting accessors are never intercepted
var excludedMethods = map[string]struct{}{
	"String":   {},
	"GoString": {},
	"Error":    {},
	"Format":   {},
}

type (
	// Decorators is the resolved pointcut set of one method. Aspects is sorted by name;
	// execution order comes from the registry at dispatch time.
	Decorators struct {
		Method  reflect.Method
		Shape   ReturnShape
		Aspects []string
	}

	// DecoratorMap holds the decorators of every decorated method of a concrete type.
	// It is never mutated after Resolve returns.
	DecoratorMap struct {
		typ     reflect.Type
		name    string
		methods map[string]*Decorators
	}

	// Resolver merges type, method and interface pointcuts into decorator maps.
	Resolver struct {
		source   Source
		registry *Registry
	}
)

func NewResolver(source Source, registry *Registry) *Resolver {
	return &Resolver{source: source, registry: registry}
}

// Interceptable reports whether calls to m may be decorated.
func Interceptable(m reflect.Method) bool {
	if !m.IsExported() {
		return false
	}
	_, excluded := excludedMethods[m.Name]
	return !excluded
}

// Resolve builds the decorator map of t. Unregistered aspect names are kept, the
// dispatcher skips them.
func (r *Resolver) Resolve(t reflect.Type) *DecoratorMap {
	name := TypeName(t)
	dm := &DecoratorMap{typ: t, name: name, methods: map[string]*Decorators{}}
	typeLevel := r.source.TypePointcuts(name)
	conditional := r.registry.conditional()
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if !Interceptable(m) {
			continue
		}
		set := map[string]struct{}{}
		add := func(names ...string) {
			for _, n := range names {
				set[n] = struct{}{}
			}
		}
		add(r.source.MethodPointcuts(name, m.Name)...)
		add(typeLevel...)
		for _, ip := range r.source.InterfacePointcuts(m.Name) {
			if t.Implements(ip.Interface) {
				add(ip.Aspects...)
			}
		}
		shape := ShapeOf(m)
		for _, reg := range conditional {
			if reg.Eligible(shape) {
				add(reg.Name)
			}
		}
		if len(set) == 0 {
			continue
		}
		dm.methods[m.Name] = &Decorators{Method: m, Shape: shape, Aspects: collections.SortedKeys(set)}
	}
	return dm
}

func (m *DecoratorMap) Type() reflect.Type { return m.typ }
func (m *DecoratorMap) TypeName() string   { return m.name }

func (m *DecoratorMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.methods)
}

func (m *DecoratorMap) Lookup(method string) (*Decorators, bool) {
	if m == nil {
		return nil, false
	}
	d, ok := m.methods[method]
	return d, ok
}

// Methods returns the decorated method names, sorted.
func (m *DecoratorMap) Methods() []string {
	if m == nil {
		return nil
	}
	return collections.SortedKeys(m.methods)
}
