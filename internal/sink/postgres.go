package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ferramentas-mnz/estetica-whatsapp-api-oficial/internal/domain"
)

// ConversationModel is the persistence model for the conversations table.
type ConversationModel struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	PhoneNumber string `gorm:"type:varchar(255);not null;uniqueIndex:idx_conversations_phone_number"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (ConversationModel) TableName() string {
	return "conversations"
}

// MessageModel is the persistence model for the messages table. The
// unique index on whatsapp_id is what makes Record idempotent.
type MessageModel struct {
	ID             string    `gorm:"type:uuid;primaryKey"`
	ConversationID string    `gorm:"type:uuid;not null"`
	WhatsAppID     string    `gorm:"column:whatsapp_id;type:varchar(255);not null;uniqueIndex:idx_messages_whatsapp_id"`
	Content        string    `gorm:"type:text;not null"`
	Sender         string    `gorm:"type:varchar(10);not null"`
	MessageType    string    `gorm:"type:varchar(20);not null"`
	OccurredAt     time.Time `gorm:"not null"`
	CreatedAt      time.Time
}

func (MessageModel) TableName() string {
	return "messages"
}

// PostgresSink records messages in a local Postgres schema instead of
// the hosted RPC backend. Conversations are created on first contact.
type PostgresSink struct {
	db *gorm.DB
}

func NewPostgresSink(db *gorm.DB) (*PostgresSink, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db is required")
	}
	return &PostgresSink{db: db}, nil
}

func (s *PostgresSink) Record(ctx context.Context, msg domain.Message) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("postgres sink is not initialized")
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}

	conversation := ConversationModel{PhoneNumber: msg.PhoneNumber}
	err := s.db.WithContext(ctx).
		Where(ConversationModel{PhoneNumber: msg.PhoneNumber}).
		Attrs(ConversationModel{ID: uuid.NewString()}).
		FirstOrCreate(&conversation).Error
	if err != nil {
		return fmt.Errorf("failed to resolve conversation: %w", err)
	}

	model := MessageModel{
		ID:             uuid.NewString(),
		ConversationID: conversation.ID,
		WhatsAppID:     msg.WhatsAppID,
		Content:        msg.Content,
		Sender:         msg.Sender.String(),
		MessageType:    msg.MessageType,
		OccurredAt:     msg.OccurredAt.UTC(),
	}

	// A redelivered whatsapp_id hits the unique index and is dropped here.
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "whatsapp_id"}},
			DoNothing: true,
		}).
		Create(&model).Error
	if err != nil {
		return fmt.Errorf("failed to store message: %w", err)
	}

	return nil
}
