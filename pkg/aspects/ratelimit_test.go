package aspects

import (
	"context"
	"testing"

	"github.com/go-park/aspectchain/pkg/aspect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitRejectsWithoutProceeding(t *testing.T) {
	svc := &quoteService{}
	pc := aspect.NewPointcuts().OnType((*quoteService)(nil), RateLimitName)
	reg := aspect.NewRegistry().Register(NewRateLimit(1e-6, 2))
	p := &quoteProxy{svc: svc, d: aspect.NewDispatcher(pc, reg)}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := p.Quote(ctx, "ACME")
		require.NoError(t, err)
	}
	_, err := p.Quote(ctx, "ACME")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 2, svc.Calls())

	_, err = p.QuoteLater(ctx, "ACME").Await(ctx)
	assert.NoError(t, err, "each method has its own bucket")
}
