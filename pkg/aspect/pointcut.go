package aspect

import (
	"fmt"
	"log"
	"reflect"
	"sync"
)

var (
	_ Source       = (*Pointcuts)(nil)
	_ Declarations = (*Pointcuts)(nil)
)

// Selector is what a pointcut is attached to.
type Selector int

const (
	SelectType Selector = iota
	SelectMethod
	SelectInterface
)

func (s Selector) String() string {
	switch s {
	case SelectType:
		return "type"
	case SelectMethod:
		return "method"
	case SelectInterface:
		return "interface"
	}
	return "unknown"
}

type (
	// Pointcut declares that Aspect applies to a type, one of its methods, or an
	// interface method.
	Pointcut struct {
		Selector Selector
		// Type is the qualified type name, see TypeName.
		Type   string
		Method string
		Aspect string

		iface reflect.Type
	}

	// InterfacePointcut is a set of aspects declared on a method of Interface.
	InterfacePointcut struct {
		Interface reflect.Type
		Aspects   []string
	}

	// Source is the declaration discovery contract consumed by the Resolver.
	Source interface {
		TypePointcuts(typeName string) []string
		MethodPointcuts(typeName, method string) []string
		InterfacePointcuts(method string) []InterfacePointcut
	}

	// Declarations lists every declared aspect name with its sites. Registry.Validate
	// checks it.
	Declarations interface {
		Declared() map[string][]string
	}

	// Pointcuts is an in-memory declaration table. It is filled at startup by code,
	// configuration or generated Register functions.
	Pointcuts struct {
		mu      sync.RWMutex
		list    []Pointcut
		types   map[string][]string
		methods map[string]map[string][]string
		ifaces  map[string][]InterfacePointcut
	}
)

func NewPointcuts() *Pointcuts {
	return &Pointcuts{
		types:   map[string][]string{},
		methods: map[string]map[string][]string{},
		ifaces:  map[string][]InterfacePointcut{},
	}
}

func (p Pointcut) String() string {
	switch p.Selector {
	case SelectType:
		return fmt.Sprintf("%s@%s", p.Type, p.Aspect)
	default:
		return fmt.Sprintf("%s.%s@%s", p.Type, p.Method, p.Aspect)
	}
}

// Site names the declaration target without the aspect.
func (p Pointcut) Site() string {
	if p.Selector == SelectType {
		return p.Type
	}
	return p.Type + "." + p.Method
}

// OnType declares aspects for every interceptable method of the type of v.
func (p *Pointcuts) OnType(v any, aspects ...string) *Pointcuts {
	name := TypeName(reflect.TypeOf(v))
	for _, a := range aspects {
		p.Add(Pointcut{Selector: SelectType, Type: name, Aspect: a})
	}
	return p
}

// OnMethod declares aspects for one method of the type of v.
func (p *Pointcuts) OnMethod(v any, method string, aspects ...string) *Pointcuts {
	name := TypeName(reflect.TypeOf(v))
	for _, a := range aspects {
		p.Add(Pointcut{Selector: SelectMethod, Type: name, Method: method, Aspect: a})
	}
	return p
}

// OnInterface declares aspects for method of the interface iface points to, as in
// OnInterface((*Repository)(nil), "Save", "trans"). They apply to every type
// implementing the interface.
func (p *Pointcuts) OnInterface(iface any, method string, aspects ...string) *Pointcuts {
	t := reflect.TypeOf(iface)
	if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Interface {
		log.Panicf("aspect: OnInterface wants a pointer to an interface, got %v", t)
	}
	t = t.Elem()
	if _, ok := t.MethodByName(method); !ok {
		log.Panicf("aspect: interface %s has no method %s", t, method)
	}
	for _, a := range aspects {
		p.Add(Pointcut{Selector: SelectInterface, Type: TypeName(t), Method: method, Aspect: a, iface: t})
	}
	return p
}

// Add records raw pointcuts. Interface pointcuts are only accepted through OnInterface.
func (p *Pointcuts) Add(list ...Pointcut) *Pointcuts {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, pc := range list {
		switch pc.Selector {
		case SelectType:
			p.types[pc.Type] = append(p.types[pc.Type], pc.Aspect)
		case SelectMethod:
			m, ok := p.methods[pc.Type]
			if !ok {
				m = map[string][]string{}
				p.methods[pc.Type] = m
			}
			m[pc.Method] = append(m[pc.Method], pc.Aspect)
		case SelectInterface:
			if pc.iface == nil {
				log.Panicf("aspect: interface pointcut %s needs OnInterface", pc)
			}
			p.addInterface(pc)
		}
		p.list = append(p.list, pc)
	}
	return p
}

func (p *Pointcuts) addInterface(pc Pointcut) {
	entries := p.ifaces[pc.Method]
	for i := range entries {
		if entries[i].Interface == pc.iface {
			entries[i].Aspects = append(entries[i].Aspects, pc.Aspect)
			return
		}
	}
	p.ifaces[pc.Method] = append(entries, InterfacePointcut{Interface: pc.iface, Aspects: []string{pc.Aspect}})
}

func (p *Pointcuts) TypePointcuts(typeName string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.types[typeName]
}

func (p *Pointcuts) MethodPointcuts(typeName, method string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.methods[typeName][method]
}

func (p *Pointcuts) InterfacePointcuts(method string) []InterfacePointcut {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ifaces[method]
}

// All returns every pointcut in declaration order.
func (p *Pointcuts) All() []Pointcut {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]Pointcut(nil), p.list...)
}

// Declared maps each aspect name to the sites declaring it.
func (p *Pointcuts) Declared() map[string][]string {
	ret := map[string][]string{}
	for _, pc := range p.All() {
		ret[pc.Aspect] = append(ret[pc.Aspect], pc.Site())
	}
	return ret
}
