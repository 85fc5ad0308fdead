package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is a message exchanged between the two parties of a deal.
type ChatMessage struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DealID    uuid.UUID `gorm:"column:deal_id;type:uuid;not null;index"`
	SenderID  uuid.UUID `gorm:"column:sender_id;type:uuid;not null"`
	Body      string    `gorm:"column:body;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
