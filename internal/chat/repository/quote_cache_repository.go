package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang-market-chat/internal/chat/dto"
	"golang-market-chat/pkg/common"

	"github.com/redis/go-redis/v9"
)

// QuoteCacheRepository is the distributed quote cache tier.
type QuoteCacheRepository interface {
	Get(ctx context.Context, symbol string) (*dto.CacheEntry, error)
	Set(ctx context.Context, entry dto.CacheEntry, ttl time.Duration) error
}

type quoteCacheRepository struct {
	redisClient redis.UniversalClient
}

// NewQuoteCacheRepository creates a new QuoteCacheRepository.
func NewQuoteCacheRepository(redisClient redis.UniversalClient) QuoteCacheRepository {
	return &quoteCacheRepository{redisClient: redisClient}
}

// Get returns ErrCacheMiss when no entry exists.
func (r *quoteCacheRepository) Get(ctx context.Context, symbol string) (*dto.CacheEntry, error) {
	raw, err := r.redisClient.Get(ctx, fmt.Sprintf(common.RedisKeyQuote, symbol)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get cached quote: %w", err)
	}

	var entry dto.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode cached quote: %w", err)
	}
	return &entry, nil
}

func (r *quoteCacheRepository) Set(ctx context.Context, entry dto.CacheEntry, ttl time.Duration) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode quote: %w", err)
	}
	if err := r.redisClient.Set(ctx, fmt.Sprintf(common.RedisKeyQuote, entry.Quote.Symbol), raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache quote: %w", err)
	}
	return nil
}
