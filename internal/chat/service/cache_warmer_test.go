package service

import (
	"context"
	"testing"

	"golang-market-chat/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheWarmer_WarmRefreshesEvenWhenCached(t *testing.T) {
	equity := &fakeStrategy{name: "equity", resolve: priced(10)}
	crypto := &fakeStrategy{name: "crypto", crypto: true, resolve: priced(60000)}
	f := newResolverFixture(t, equity, crypto)
	warmer := NewCacheWarmer(f.resolver, []string{"spy", " BTC ", ""}, "@every 4m", logger.NewNop())

	assert.Equal(t, 2, warmer.Warm(context.Background()))
	assert.Equal(t, 2, warmer.Warm(context.Background()))

	assert.Equal(t, int32(2), equity.calls.Load())
	assert.Equal(t, int32(2), crypto.calls.Load())
	assert.True(t, f.mr.Exists("quote:SPY"))
	assert.True(t, f.mr.Exists("quote:BTC"))
}

func TestCacheWarmer_InvalidSchedule(t *testing.T) {
	primary := &fakeStrategy{name: "primary", resolve: priced(1)}
	f := newResolverFixture(t, primary)
	warmer := NewCacheWarmer(f.resolver, []string{"SPY"}, "every now and then", logger.NewNop())

	err := warmer.Start(context.Background())

	require.Error(t, err)
	assert.Equal(t, int32(0), primary.calls.Load())
}

func TestCacheWarmer_StartStopsWithContext(t *testing.T) {
	primary := &fakeStrategy{name: "primary", resolve: priced(1)}
	f := newResolverFixture(t, primary)
	warmer := NewCacheWarmer(f.resolver, []string{"SPY"}, "@every 1h", logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, warmer.Start(ctx))
}
