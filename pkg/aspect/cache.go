package aspect

import (
	"reflect"
	"sync"
	"sync/atomic"
)

type (
	// DecoratorCache memoizes decorator maps per concrete type for the life of the
	// process. Concurrent first calls for a type share one build.
	DecoratorCache struct {
		build   func(reflect.Type) *DecoratorMap
		entries sync.Map
	}

	cacheEntry struct {
		once     sync.Once
		m        atomic.Pointer[DecoratorMap]
		panicked any
	}
)

func NewDecoratorCache(build func(reflect.Type) *DecoratorMap) *DecoratorCache {
	return &DecoratorCache{build: build}
}

func (c *DecoratorCache) GetOrBuild(t reflect.Type) *DecoratorMap {
	if v, ok := c.entries.Load(t); ok {
		if m := v.(*cacheEntry).m.Load(); m != nil {
			return m
		}
	}
	v, _ := c.entries.LoadOrStore(t, &cacheEntry{})
	e := v.(*cacheEntry)
	e.once.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				e.panicked = r
			}
		}()
		e.m.Store(c.build(t))
	})
	if e.panicked != nil {
		c.entries.CompareAndDelete(t, e)
		panic(e.panicked)
	}
	return e.m.Load()
}
