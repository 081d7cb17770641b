package config

import (
	"fmt"
	"time"

	"github.com/go-park/aspectchain/pkg/aspect"
	"github.com/go-park/aspectchain/pkg/aspects"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	defaultCacheSize = 1024
	defaultCacheTTL  = time.Minute
)

// Deps are the resources built-in aspects are created with.
type Deps struct {
	DB         *gorm.DB
	Prometheus prometheus.Registerer
	Log        logrus.FieldLogger
}

// Registry registers every enabled built-in aspect. trans and nolock need Deps.DB.
func (c *Config) Registry(deps Deps) (*aspect.Registry, error) {
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}
	reg := aspect.NewRegistry()
	add := func(a aspect.Aspect, ac AspectConfig, opts ...aspect.Option[aspect.Registration]) {
		if ac.Order != nil {
			opts = append(opts, aspect.WithOrder(*ac.Order))
		}
		reg.Register(a, opts...)
	}

	if ac, ok := c.Aspect(aspects.TransName); ok {
		if deps.DB == nil {
			return nil, fmt.Errorf("aspect %s: no database", aspects.TransName)
		}
		add(aspects.NewTrans(deps.DB, aspects.WithTransLogger(deps.Log)), ac)
	}
	if ac, ok := c.Aspect(aspects.NoLockName); ok {
		if deps.DB == nil {
			return nil, fmt.Errorf("aspect %s: no database", aspects.NoLockName)
		}
		opts := []aspect.Option[aspects.NoLock]{aspects.WithNoLockLogger(deps.Log)}
		if ac.Statement != "" {
			opts = append(opts, aspects.WithStatements(ac.Statement, ac.Restore))
		}
		add(aspects.NewNoLock(deps.DB, opts...), ac)
	}
	if ac, ok := c.Aspect(aspects.LogName); ok {
		add(aspects.NewLog(aspects.WithSink(aspects.LogrusSink(deps.Log)), aspects.WithParams(ac.Params)), ac)
	}
	if ac, ok := c.Aspect(aspects.CacheName); ok {
		ttl := ac.TTL.Duration
		if ttl <= 0 {
			ttl = defaultCacheTTL
		}
		add(aspects.NewCache(cacheStore(ac, ttl), ttl, aspects.WithCacheLogger(deps.Log)), ac)
	}
	if ac, ok := c.Aspect(aspects.ResponseName); ok {
		add(aspects.NewResponse(), ac, aspect.WithEligibility(aspects.ResponseEligible))
	}
	if ac, ok := c.Aspect(aspects.MetricsName); ok {
		add(aspects.NewMetrics(deps.Prometheus, ac.Namespace), ac)
	}
	if ac, ok := c.Aspect(aspects.RateLimitName); ok {
		if ac.Rate <= 0 || ac.Burst <= 0 {
			return nil, fmt.Errorf("aspect %s: rate and burst must be positive", aspects.RateLimitName)
		}
		add(aspects.NewRateLimit(ac.Rate, ac.Burst), ac)
	}
	return reg, nil
}

func cacheStore(ac AspectConfig, ttl time.Duration) aspects.Store {
	if ac.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     ac.Redis.Addr,
			Password: ac.Redis.Password,
			DB:       ac.Redis.DB,
		})
		return aspects.NewRedisStore(client, ac.Redis.Prefix)
	}
	size := ac.Size
	if size <= 0 {
		size = defaultCacheSize
	}
	return aspects.NewMemoryStore(size, ttl)
}

// DispatcherOptions returns the dispatcher options the configuration implies.
func (c *Config) DispatcherOptions(log logrus.FieldLogger) []aspect.Option[aspect.Dispatcher] {
	return []aspect.Option[aspect.Dispatcher]{aspect.WithLogger(log), aspect.WithStrict(c.Strict)}
}
