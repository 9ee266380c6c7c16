package repository

import (
	"context"

	"golang-market-chat/internal/entity"

	"gorm.io/gorm"
)

// ChatHistoryRepository defines the interface for the durable chat-history store.
type ChatHistoryRepository interface {
	CreateExchange(ctx context.Context, messages []*entity.ChatMessage) error
	FindBySession(ctx context.Context, sessionID string, limit int) ([]entity.ChatMessage, error)
}

// NewChatHistoryRepository creates a new instance of ChatHistoryRepository.
func NewChatHistoryRepository(db *gorm.DB) ChatHistoryRepository {
	return &chatHistoryRepository{
		db: db,
	}
}

type chatHistoryRepository struct {
	db *gorm.DB
}

// CreateExchange inserts the messages of one exchange in order, all or nothing.
func (r *chatHistoryRepository) CreateExchange(ctx context.Context, messages []*entity.ChatMessage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, msg := range messages {
			if err := tx.Create(msg).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindBySession returns the most recent messages of a session, oldest first.
func (r *chatHistoryRepository) FindBySession(ctx context.Context, sessionID string, limit int) ([]entity.ChatMessage, error) {
	var messages []entity.ChatMessage
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC, sequence DESC, id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
