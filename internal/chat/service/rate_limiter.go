package service

import (
	"context"
	"time"

	"golang-market-chat/internal/chat/repository"
	"golang-market-chat/pkg/logger"
)

// RateLimiter enforces the daily quota of anonymous callers in elevated modes.
type RateLimiter interface {
	// Check records one request for identity and reports whether it is within quota.
	Check(ctx context.Context, identity string) (bool, error)
}

type slidingWindowRateLimiter struct {
	store  repository.RateLimitRepository
	window time.Duration
	limit  int
	logger *logger.Logger
	now    func() time.Time
}

// NewRateLimiter creates a sliding-window RateLimiter over store.
func NewRateLimiter(store repository.RateLimitRepository, window time.Duration, limit int, log *logger.Logger) RateLimiter {
	return &slidingWindowRateLimiter{
		store:  store,
		window: window,
		limit:  limit,
		logger: log,
		now:    time.Now,
	}
}

func (l *slidingWindowRateLimiter) Check(ctx context.Context, identity string) (bool, error) {
	allowed, count, err := l.store.Hit(ctx, identity, l.now(), l.window, l.limit)
	if err != nil {
		return false, err
	}
	l.logger.DebugContext(ctx, "Rate limit checked",
		logger.StringField("identity", identity),
		logger.IntField("count", count),
		logger.IntField("limit", l.limit),
		logger.Field("allowed", allowed))
	return allowed, nil
}
