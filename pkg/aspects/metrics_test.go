package aspects

import (
	"context"
	"testing"

	"github.com/go-park/aspectchain/pkg/aspect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCountsByStatus(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry(), "shop")
	svc := &quoteService{}
	pc := aspect.NewPointcuts().OnType((*quoteService)(nil), MetricsName)
	p := &quoteProxy{svc: svc, d: aspect.NewDispatcher(pc, aspect.NewRegistry().Register(m))}
	ctx := context.Background()
	typ := "github.com/go-park/aspectchain/pkg/aspects.quoteService"

	for i := 0; i < 2; i++ {
		_, err := p.Quote(ctx, "ACME")
		require.NoError(t, err)
	}
	svc.fail = errBoom
	_, err := p.Quote(ctx, "ACME")
	assert.Same(t, errBoom, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.calls.WithLabelValues(typ, "Quote", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues(typ, "Quote", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestMetricsRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg, "a")
	assert.Panics(t, func() { NewMetrics(reg, "a") })
	assert.NotPanics(t, func() { NewMetrics(reg, "b") })
}
