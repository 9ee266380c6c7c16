package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang-market-chat/internal/chat/dto"
	"golang-market-chat/pkg/common"

	"github.com/redis/go-redis/v9"
)

// QueuedExchange is an exchange read back from the persistence stream.
type QueuedExchange struct {
	MessageID string
	Exchange  *dto.Exchange
	Err       error
}

// ExchangeQueueRepository carries completed exchanges to the persistence consumer
// over a Redis stream.
type ExchangeQueueRepository interface {
	EnsureGroup(ctx context.Context) error
	Enqueue(ctx context.Context, exchange dto.Exchange) error
	Read(ctx context.Context, consumer string, count int64, block time.Duration) ([]QueuedExchange, error)
	Ack(ctx context.Context, messageIDs ...string) error
}

type exchangeQueueRepository struct {
	redisClient redis.UniversalClient
	maxLen      int64
}

// NewExchangeQueueRepository creates a new ExchangeQueueRepository.
func NewExchangeQueueRepository(redisClient redis.UniversalClient, maxLen int64) ExchangeQueueRepository {
	return &exchangeQueueRepository{redisClient: redisClient, maxLen: maxLen}
}

// EnsureGroup creates the stream and consumer group if they don't exist.
func (r *exchangeQueueRepository) EnsureGroup(ctx context.Context) error {
	err := r.redisClient.XGroupCreateMkStream(ctx, common.RedisStreamChatExchangePersist, common.RedisStreamGroup, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	return nil
}

func (r *exchangeQueueRepository) Enqueue(ctx context.Context, exchange dto.Exchange) error {
	payload, err := json.Marshal(exchange)
	if err != nil {
		return fmt.Errorf("failed to encode exchange: %w", err)
	}
	err = r.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: common.RedisStreamChatExchangePersist,
		MaxLen: r.maxLen,
		Approx: true,
		Values: map[string]interface{}{"payload": string(payload)},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to enqueue exchange: %w", err)
	}
	return nil
}

// Read returns new messages for consumer, blocking up to block. Undecodable
// messages are returned with Err set so they can still be acknowledged.
func (r *exchangeQueueRepository) Read(ctx context.Context, consumer string, count int64, block time.Duration) ([]QueuedExchange, error) {
	streams, err := r.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    common.RedisStreamGroup,
		Consumer: consumer,
		Streams:  []string{common.RedisStreamChatExchangePersist, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read persistence stream: %w", err)
	}

	var out []QueuedExchange
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			item := QueuedExchange{MessageID: msg.ID}
			payload, ok := msg.Values["payload"].(string)
			if !ok {
				item.Err = fmt.Errorf("message %s has no payload", msg.ID)
				out = append(out, item)
				continue
			}
			var exchange dto.Exchange
			if err := json.Unmarshal([]byte(payload), &exchange); err != nil {
				item.Err = fmt.Errorf("failed to decode exchange %s: %w", msg.ID, err)
			} else {
				item.Exchange = &exchange
			}
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *exchangeQueueRepository) Ack(ctx context.Context, messageIDs ...string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	if err := r.redisClient.XAck(ctx, common.RedisStreamChatExchangePersist, common.RedisStreamGroup, messageIDs...).Err(); err != nil {
		return fmt.Errorf("failed to ack exchanges: %w", err)
	}
	return nil
}
