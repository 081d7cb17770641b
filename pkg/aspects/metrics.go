package aspects

import (
	"time"

	"github.com/go-park/aspectchain/pkg/aspect"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	MetricsName  = "metrics"
	MetricsOrder = -2
)

var _ aspect.Aspect = (*Metrics)(nil)

// Metrics counts calls and observes their latency, labelled by type, method and status.
//@Aspect("metrics", custom="Timed")
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers its collectors on reg, prometheus.DefaultRegisterer when nil.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aspect",
			Name:      "calls_total",
			Help:      "Intercepted method calls.",
		}, []string{"type", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "aspect",
			Name:      "call_duration_seconds",
			Help:      "Latency of intercepted method calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type", "method"}),
	}
	reg.MustRegister(m.calls, m.duration)
	return m
}

func (m *Metrics) Name() string { return MetricsName }
func (m *Metrics) Order() int   { return MetricsOrder }

func (m *Metrics) Around(pjp aspect.ProceedingJoinpoint) error {
	start := time.Now()
	err := pjp.Proceed()
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.calls.WithLabelValues(pjp.TypeName(), pjp.FuncName(), status).Inc()
	m.duration.WithLabelValues(pjp.TypeName(), pjp.FuncName()).Observe(time.Since(start).Seconds())
	return err
}
