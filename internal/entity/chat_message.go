package entity

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// ChatMessage is one persisted turn of a conversation. An exchange is stored
// as a user row followed by an assistant row sharing SessionID.
type ChatMessage struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	SessionID string         `gorm:"not null;index" json:"session_id"`
	UserID    *string        `json:"user_id,omitempty"`
	Role      string         `gorm:"not null" json:"role"`
	Content   string         `gorm:"not null" json:"content"`
	Mode      string         `gorm:"not null" json:"mode"`
	Symbols   pq.StringArray `gorm:"type:text[]" json:"symbols"`
	Analysis  datatypes.JSON `json:"analysis,omitempty"`
	Sequence  int16          `json:"sequence"`
	CreatedAt time.Time      `json:"created_at"`
}

// TableName specifies the table name for the ChatMessage model.
func (ChatMessage) TableName() string {
	return "chat_messages"
}
