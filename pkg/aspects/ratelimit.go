package aspects

import (
	"errors"
	"sync"

	"github.com/go-park/aspectchain/pkg/aspect"
	"golang.org/x/time/rate"
)

const (
	RateLimitName  = "ratelimit"
	RateLimitOrder = -999
)

var ErrRateLimited = errors.New("aspects: rate limit exceeded")

var _ aspect.Aspect = (*RateLimit)(nil)

// RateLimit rejects calls beyond a token-bucket rate, one bucket per method.
//
//@Aspect("ratelimit", custom="RateLimited")
type RateLimit struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewRateLimit(perSecond float64, burst int) *RateLimit {
	return &RateLimit{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: map[string]*rate.Limiter{},
	}
}

func (a *RateLimit) Name() string { return RateLimitName }
func (a *RateLimit) Order() int   { return RateLimitOrder }

func (a *RateLimit) Around(pjp aspect.ProceedingJoinpoint) error {
	if !a.limiter(pjp.Name()).Allow() {
		return ErrRateLimited
	}
	return pjp.Proceed()
}

func (a *RateLimit) limiter(method string) *rate.Limiter {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.limiters[method]
	if !ok {
		l = rate.NewLimiter(a.limit, a.burst)
		a.limiters[method] = l
	}
	return l
}
