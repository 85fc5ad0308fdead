package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/syncdeck/syncdeck-backend/pkg/enums"
	"github.com/syncdeck/syncdeck-backend/pkg/types"
)

// Deal represents a licensing negotiation between an artist and an exec over
// one track. State moves only through the negotiation transition table, and
// the current terms always reflect the most recent proposal.
type Deal struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TrackID       uuid.UUID          `gorm:"column:track_id;type:uuid;not null;index"`
	ArtistID      uuid.UUID          `gorm:"column:artist_id;type:uuid;not null;index"`
	ExecID        uuid.UUID          `gorm:"column:exec_id;type:uuid;not null;index"`
	State         enums.DealState    `gorm:"column:state;type:deal_state;not null;default:'pending'"`
	Terms         types.DealTerms    `gorm:"column:terms;type:jsonb;serializer:json"`
	CreatedByID   uuid.UUID          `gorm:"column:created_by_id;type:uuid;not null"`
	CreatedByRole enums.UserRole     `gorm:"column:created_by_role;type:user_role;not null"`
	ClosedAt      *time.Time         `gorm:"column:closed_at"`
	History       []DealHistoryEntry `gorm:"foreignKey:DealID;constraint:OnDelete:CASCADE"`
	Messages      []ChatMessage      `gorm:"foreignKey:DealID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
