package service

import (
	"context"
	"testing"
	"time"

	"golang-market-chat/internal/chat/repository"
	"golang-market-chat/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, limit int) (*slidingWindowRateLimiter, repository.RateLimitRepository, *time.Time) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := repository.NewRateLimitRepository(rdb)
	clock := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	l := NewRateLimiter(store, 24*time.Hour, limit, logger.NewNop()).(*slidingWindowRateLimiter)
	l.now = func() time.Time { return clock }
	return l, store, &clock
}

func TestRateLimiter_LastSlotAllowedThenRejected(t *testing.T) {
	ctx := context.Background()
	l, store, clock := newTestLimiter(t, 10)

	for i := 0; i < 9; i++ {
		allowed, err := l.Check(ctx, "203.0.113.7")
		require.NoError(t, err)
		require.True(t, allowed)
		*clock = clock.Add(time.Minute)
	}

	count, err := store.Count(ctx, "203.0.113.7", *clock, 24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, 9, count)

	allowed, err := l.Check(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.True(t, allowed)

	count, err = store.Count(ctx, "203.0.113.7", *clock, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 10, count)

	allowed, err = l.Check(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, allowed)

	count, err = store.Count(ctx, "203.0.113.7", *clock, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 10, count, "rejected requests are not counted")
}

func TestRateLimiter_IdentitiesAreIsolated(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newTestLimiter(t, 1)

	allowed, err := l.Check(ctx, "198.51.100.1")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = l.Check(ctx, "198.51.100.1")
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = l.Check(ctx, "198.51.100.2")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	ctx := context.Background()
	l, _, clock := newTestLimiter(t, 2)
	start := *clock

	for i := 0; i < 2; i++ {
		allowed, err := l.Check(ctx, "192.0.2.9")
		require.NoError(t, err)
		require.True(t, allowed)
		*clock = clock.Add(time.Hour)
	}

	*clock = start.Add(24*time.Hour - time.Millisecond)
	allowed, err := l.Check(ctx, "192.0.2.9")
	require.NoError(t, err)
	assert.False(t, allowed, "first request still inside the window")

	*clock = start.Add(24 * time.Hour)
	allowed, err = l.Check(ctx, "192.0.2.9")
	require.NoError(t, err)
	assert.True(t, allowed, "first request rolled out exactly at the window boundary")
}

func TestRateLimiter_StoreUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	l := NewRateLimiter(repository.NewRateLimitRepository(rdb), 24*time.Hour, 10, logger.NewNop())
	_, err := l.Check(context.Background(), "192.0.2.1")
	assert.Error(t, err)
}
