package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/syncdeck/syncdeck-backend/pkg/enums"
	"github.com/syncdeck/syncdeck-backend/pkg/types"
)

// DealHistoryEntry is one append-only audit record per negotiation action.
// Rows are never updated or deleted.
type DealHistoryEntry struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DealID    uuid.UUID             `gorm:"column:deal_id;type:uuid;not null;index"`
	ActorID   uuid.UUID             `gorm:"column:actor_id;type:uuid;not null"`
	ActorRole enums.UserRole        `gorm:"column:actor_role;type:user_role;not null"`
	Action    enums.DealAction      `gorm:"column:action;type:deal_action;not null"`
	FromState enums.DealState       `gorm:"column:from_state;type:deal_state;not null"`
	ToState   enums.DealState       `gorm:"column:to_state;type:deal_state;not null"`
	Changes   types.DealTermsChange `gorm:"column:changes;type:jsonb;serializer:json"`
	Note      *string               `gorm:"column:note"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
}
