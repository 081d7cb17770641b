package aspects

import (
	"reflect"
	"time"

	"github.com/go-park/aspectchain/pkg/aspect"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

const (
	CacheName  = "cache"
	CacheOrder = -500
)

var _ aspect.Aspect = (*Cache)(nil)

// Cache is a read-through cache keyed by method and JSON-encoded arguments. A hit sets
// the result without proceeding; a miss proceeds and stores non-nil successful results.
// Store failures are logged and never fail the call. Results whose type does not
// survive a JSON round trip, such as structs with unexported fields, are never cached.
//
//@Aspect("cache", custom="Cacheable")
type Cache struct {
	store Store
	ttl   time.Duration
	log   logrus.FieldLogger
}

func NewCache(store Store, ttl time.Duration, opts ...aspect.Option[Cache]) *Cache {
	a := &Cache{store: store, ttl: ttl, log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func WithCacheLogger(l logrus.FieldLogger) aspect.Option[Cache] {
	return func(a *Cache) {
		a.log = l
	}
}

func (a *Cache) Name() string { return CacheName }
func (a *Cache) Order() int   { return CacheOrder }

func (a *Cache) Around(pjp aspect.ProceedingJoinpoint) error {
	typ := pjp.Shape().Result
	if typ == nil || !codable(typ) {
		return pjp.Proceed()
	}
	key, err := CacheKey(pjp)
	if err != nil {
		a.log.WithError(err).WithField("method", pjp.Name()).Debug("cache key not encodable")
		return pjp.Proceed()
	}
	ctx := pjp.Context()
	log := a.log.WithField("key", key)
	if b, ok, err := a.store.Get(ctx, key); err != nil {
		log.WithError(err).Warn("cache get failed")
	} else if ok {
		ptr := reflect.New(typ)
		if err := json.Unmarshal(b, ptr.Interface()); err == nil {
			pjp.SetResult(ptr.Elem().Interface())
			return nil
		}
		log.Debug("cache entry not decodable")
	}
	if err := pjp.Proceed(); err != nil {
		return err
	}
	res := pjp.Result()
	if isNil(res) {
		return nil
	}
	b, err := json.Marshal(res)
	if err != nil {
		log.WithError(err).Debug("cache value not encodable")
		return nil
	}
	if err := a.store.Set(ctx, key, b, a.ttl); err != nil {
		log.WithError(err).Warn("cache set failed")
	}
	return nil
}

// CacheKey returns "Type.Method(<json args>)".
func CacheKey(jp aspect.Joinpoint) (string, error) {
	params := jp.Params()
	if params == nil {
		params = []any{}
	}
	b, err := json.Marshal(params)
	if err != nil {
		return "", err
	}
	return jp.Name() + "(" + string(b) + ")", nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
