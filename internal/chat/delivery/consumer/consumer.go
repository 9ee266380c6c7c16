package consumer

import (
	"context"
	"sync"
	"time"

	"golang-market-chat/internal/chat/dto"
	"golang-market-chat/internal/chat/repository"
	"golang-market-chat/internal/chat/service"
	"golang-market-chat/pkg/common"
	"golang-market-chat/pkg/logger"
	"golang-market-chat/pkg/utils"
)

const batchSize = 10

// RedisConsumer drains the persistence stream into the chat-history store.
type RedisConsumer struct {
	queue    repository.ExchangeQueueRepository
	sink     service.PersistenceSink
	block    time.Duration
	timeout  time.Duration
	consumer string
	logger   *logger.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewRedisConsumer creates a new RedisConsumer. sink must write synchronously.
func NewRedisConsumer(
	queue repository.ExchangeQueueRepository,
	sink service.PersistenceSink,
	block time.Duration,
	timeout time.Duration,
	log *logger.Logger,
) *RedisConsumer {
	return &RedisConsumer{
		queue:    queue,
		sink:     sink,
		block:    block,
		timeout:  timeout,
		consumer: common.RedisStreamConsumer,
		logger:   log,
		stopChan: make(chan struct{}),
	}
}

// Start creates the consumer group and begins processing in the background.
func (c *RedisConsumer) Start(ctx context.Context) error {
	if err := c.queue.EnsureGroup(ctx); err != nil {
		return err
	}

	c.logger.Info("Redis consumer started", logger.StringField("stream", common.RedisStreamChatExchangePersist))
	c.wg.Add(1)
	utils.GoSafe(func() {
		defer c.wg.Done()
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Redis consumer stopping due to context cancellation")
				return
			case <-c.stopChan:
				c.logger.Info("Redis consumer stopping")
				return
			default:
				c.ProcessBatch(ctx)
			}
		}
	})
	return nil
}

// ProcessBatch reads one batch and writes every exchange in it. Messages are
// acknowledged whatever the outcome; failed writes are logged, not retried.
func (c *RedisConsumer) ProcessBatch(ctx context.Context) int {
	items, err := c.queue.Read(ctx, c.consumer, batchSize, c.block)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Error("Failed to read persistence stream", logger.ErrorField(err))
			// avoid a hot loop while Redis is unreachable
			time.Sleep(time.Second)
		}
		return 0
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.MessageID)
		if item.Err != nil {
			c.logger.Error("Dropping undecodable exchange", logger.StringField("message_id", item.MessageID), logger.ErrorField(item.Err))
			continue
		}

		c.persist(ctx, *item.Exchange)
	}

	if err := c.queue.Ack(context.WithoutCancel(ctx), ids...); err != nil {
		c.logger.Error("Failed to acknowledge exchanges", logger.ErrorField(err), logger.IntField("count", len(ids)))
	}
	return len(items)
}

// persist writes one exchange. A stop signal on ctx does not abort an in-flight write.
func (c *RedisConsumer) persist(ctx context.Context, exchange dto.Exchange) {
	writeCtx := context.WithoutCancel(ctx)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		writeCtx, cancel = context.WithTimeout(writeCtx, c.timeout)
		defer cancel()
	}
	c.sink.Persist(writeCtx, exchange)
}

// Stop gracefully shuts down the consumer.
func (c *RedisConsumer) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
	c.wg.Wait()
	c.logger.Info("Redis consumer stopped")
}
