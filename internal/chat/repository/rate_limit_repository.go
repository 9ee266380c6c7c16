package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang-market-chat/pkg/common"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript keeps one sorted-set member per accepted request, scored
// by its timestamp in milliseconds. Trim, count and add run atomically.
//
// KEYS[1] window key
// ARGV[1] now (ms), ARGV[2] cutoff (ms), ARGV[3] limit, ARGV[4] window (ms), ARGV[5] member
// returns {allowed (0|1), count after the call}
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', ARGV[2])
local count = redis.call('ZCARD', key)
if count >= limit then
  return {0, count}
end
redis.call('ZADD', key, ARGV[1], ARGV[5])
redis.call('PEXPIRE', key, ARGV[4])
return {1, count + 1}
`)

// RateLimitRepository is the shared counter store behind the anonymous quota.
type RateLimitRepository interface {
	Hit(ctx context.Context, identity string, now time.Time, window time.Duration, limit int) (allowed bool, count int, err error)
	Count(ctx context.Context, identity string, now time.Time, window time.Duration) (int, error)
}

type rateLimitRepository struct {
	redisClient redis.UniversalClient
}

// NewRateLimitRepository creates a new RateLimitRepository.
func NewRateLimitRepository(redisClient redis.UniversalClient) RateLimitRepository {
	return &rateLimitRepository{redisClient: redisClient}
}

// Hit records one request for identity if the window still has room.
func (r *rateLimitRepository) Hit(ctx context.Context, identity string, now time.Time, window time.Duration, limit int) (bool, int, error) {
	key := fmt.Sprintf(common.RedisKeyRateLimit, identity)
	nowMs := now.UnixMilli()
	cutoff := now.Add(-window).UnixMilli()
	member := fmt.Sprintf("%d-%s", nowMs, uuid.NewString())

	res, err := slidingWindowScript.Run(ctx, r.redisClient, []string{key},
		strconv.FormatInt(nowMs, 10),
		strconv.FormatInt(cutoff, 10),
		strconv.Itoa(limit),
		strconv.FormatInt(window.Milliseconds(), 10),
		member,
	).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("failed to run sliding window script: %w", err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("unexpected sliding window reply: %v", res)
	}
	return res[0] == 1, int(res[1]), nil
}

// Count returns the number of requests inside the window ending at now.
func (r *rateLimitRepository) Count(ctx context.Context, identity string, now time.Time, window time.Duration) (int, error) {
	key := fmt.Sprintf(common.RedisKeyRateLimit, identity)
	lower := fmt.Sprintf("(%d", now.Add(-window).UnixMilli())
	n, err := r.redisClient.ZCount(ctx, key, lower, "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count window: %w", err)
	}
	return int(n), nil
}
