package aspect

import (
	"sort"
	"sync"
)

type (
	// Registration binds an aspect name to its order and the function producing the
	// instance used for a call.
	Registration struct {
		Name     string
		Order    int
		New      func() Aspect
		Eligible func(ReturnShape) bool
	}

	// Registry holds the live registrations. It is filled at startup and read by the
	// Dispatcher on every decorated call.
	Registry struct {
		mu   sync.RWMutex
		regs map[string]Registration
	}
)

func NewRegistry() *Registry {
	return &Registry{regs: map[string]Registration{}}
}

// Register adds a singleton aspect under its own name, replacing any previous one.
func (r *Registry) Register(a Aspect, opts ...Option[Registration]) *Registry {
	return r.add(Registration{
		Name:  a.Name(),
		Order: a.Order(),
		New:   func() Aspect { return a },
	}, opts...)
}

// RegisterFactory adds an aspect whose instance is created per call. The factory is
// invoked once here to read the name and order.
func (r *Registry) RegisterFactory(factory func() Aspect, opts ...Option[Registration]) *Registry {
	sample := factory()
	return r.add(Registration{
		Name:  sample.Name(),
		Order: sample.Order(),
		New:   factory,
	}, opts...)
}

func (r *Registry) add(reg Registration, opts ...Option[Registration]) *Registry {
	for _, opt := range opts {
		opt(&reg)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.regs[reg.Name] = reg
	return r
}

func (r *Registry) Lookup(name string) (Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.regs[name]
	return reg, ok
}

// Names returns registered aspect names sorted by order, then name.
func (r *Registry) Names() []string {
	r.mu.RLock()
	regs := make([]Registration, 0, len(r.regs))
	for _, reg := range r.regs {
		regs = append(regs, reg)
	}
	r.mu.RUnlock()
	sortRegistrations(regs)
	names := make([]string, len(regs))
	for i, reg := range regs {
		names[i] = reg.Name
	}
	return names
}

func (r *Registry) conditional() []Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []Registration
	for _, reg := range r.regs {
		if reg.Eligible != nil {
			list = append(list, reg)
		}
	}
	sortRegistrations(list)
	return list
}

// Validate fails with an *UnregisteredError when a declaration names an aspect that
// has no registration.
func (r *Registry) Validate(p Declarations) error {
	missing := map[string][]string{}
	for name, sites := range p.Declared() {
		if _, ok := r.Lookup(name); !ok {
			missing[name] = sites
		}
	}
	if len(missing) > 0 {
		return &UnregisteredError{Missing: missing}
	}
	return nil
}

func sortRegistrations(regs []Registration) {
	sort.SliceStable(regs, func(i, j int) bool {
		if regs[i].Order != regs[j].Order {
			return regs[i].Order < regs[j].Order
		}
		return regs[i].Name < regs[j].Name
	})
}
