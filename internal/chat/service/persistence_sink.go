package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang-market-chat/internal/chat/dto"
	"golang-market-chat/internal/chat/repository"
	"golang-market-chat/internal/entity"
	"golang-market-chat/pkg/common"
	"golang-market-chat/pkg/logger"
	"golang-market-chat/pkg/utils"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// PersistenceSink records completed exchanges. Persist is best-effort: failures
// are logged and never retried, since the caller already has the answer.
type PersistenceSink interface {
	Persist(ctx context.Context, exchange dto.Exchange)
}

type inlinePersistenceSink struct {
	history repository.ChatHistoryRepository
	timeout time.Duration
	logger  *logger.Logger
}

// NewInlinePersistenceSink writes the exchange to the chat-history store before returning.
func NewInlinePersistenceSink(history repository.ChatHistoryRepository, timeout time.Duration, log *logger.Logger) PersistenceSink {
	return &inlinePersistenceSink{history: history, timeout: timeout, logger: log}
}

func (s *inlinePersistenceSink) Persist(ctx context.Context, exchange dto.Exchange) {
	messages, err := ExchangeMessages(exchange)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to build chat messages", logger.StringField("session_id", exchange.SessionID), logger.ErrorField(err))
		return
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := s.history.CreateExchange(ctx, messages); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist chat exchange", logger.StringField("session_id", exchange.SessionID), logger.ErrorField(err))
		return
	}
	s.logger.DebugContext(ctx, "Chat exchange persisted",
		logger.StringField("session_id", exchange.SessionID),
		logger.IntField("assistant_chars", len(exchange.AssistantText)))
}

type queuedPersistenceSink struct {
	queue   repository.ExchangeQueueRepository
	timeout time.Duration
	logger  *logger.Logger
}

// NewQueuedPersistenceSink hands the exchange to the persistence stream; the
// consumer writes it to the chat-history store.
func NewQueuedPersistenceSink(queue repository.ExchangeQueueRepository, timeout time.Duration, log *logger.Logger) PersistenceSink {
	return &queuedPersistenceSink{queue: queue, timeout: timeout, logger: log}
}

func (s *queuedPersistenceSink) Persist(ctx context.Context, exchange dto.Exchange) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := s.queue.Enqueue(ctx, exchange); err != nil {
		s.logger.ErrorContext(ctx, "Failed to enqueue chat exchange", logger.StringField("session_id", exchange.SessionID), logger.ErrorField(err))
		return
	}
	s.logger.DebugContext(ctx, "Chat exchange enqueued", logger.StringField("session_id", exchange.SessionID))
}

// ExchangeMessages converts an exchange into its user and assistant rows, in that order.
func ExchangeMessages(exchange dto.Exchange) ([]*entity.ChatMessage, error) {
	var userID *string
	if exchange.Identity != "" {
		userID = utils.ToPointer(exchange.Identity)
	}

	createdAt := exchange.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var analysis datatypes.JSON
	if exchange.Analysis != nil {
		raw, err := json.Marshal(exchange.Analysis)
		if err != nil {
			return nil, fmt.Errorf("failed to encode analysis: %w", err)
		}
		analysis = datatypes.JSON(raw)
	}

	symbols := pq.StringArray(exchange.Symbols)
	if symbols == nil {
		symbols = pq.StringArray{}
	}

	user := &entity.ChatMessage{
		SessionID: exchange.SessionID,
		UserID:    userID,
		Role:      common.RoleUser,
		Content:   utils.SafeText(exchange.UserText),
		Mode:      exchange.Mode,
		Symbols:   symbols,
		Sequence:  0,
		CreatedAt: createdAt,
	}
	assistant := &entity.ChatMessage{
		SessionID: exchange.SessionID,
		UserID:    userID,
		Role:      common.RoleAssistant,
		Content:   utils.SafeText(exchange.AssistantText),
		Mode:      exchange.Mode,
		Symbols:   symbols,
		Analysis:  analysis,
		Sequence:  1,
		CreatedAt: createdAt,
	}
	return []*entity.ChatMessage{user, assistant}, nil
}
