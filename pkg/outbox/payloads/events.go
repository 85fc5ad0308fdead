package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/syncdeck/syncdeck-backend/pkg/enums"
)

// DealCreatedEvent signals a new offer opened by an exec on a track.
type DealCreatedEvent struct {
	DealID    uuid.UUID       `json:"deal_id"`
	TrackID   uuid.UUID       `json:"track_id"`
	ArtistID  uuid.UUID       `json:"artist_id"`
	ExecID    uuid.UUID       `json:"exec_id"`
	UsageType enums.UsageType `json:"usage_type"`
	Price     decimal.Decimal `json:"price"`
}

// DealStateChangedEvent is emitted for every negotiation transition.
type DealStateChangedEvent struct {
	DealID    uuid.UUID        `json:"deal_id"`
	TrackID   uuid.UUID        `json:"track_id"`
	ArtistID  uuid.UUID        `json:"artist_id"`
	ExecID    uuid.UUID        `json:"exec_id"`
	Action    enums.DealAction `json:"action"`
	FromState enums.DealState  `json:"from_state"`
	ToState   enums.DealState  `json:"to_state"`
	Terminal  bool             `json:"terminal"`
	Price     decimal.Decimal  `json:"price"`
	ChangedAt time.Time        `json:"changed_at"`
}

// TrackRemovedEvent is emitted when an artist pulls a track from the catalog.
type TrackRemovedEvent struct {
	TrackID   uuid.UUID `json:"track_id"`
	ArtistID  uuid.UUID `json:"artist_id"`
	RemovedAt time.Time `json:"removed_at"`
}

// UserDeactivatedEvent is emitted when an admin deactivates an account.
type UserDeactivatedEvent struct {
	UserID        uuid.UUID      `json:"user_id"`
	Role          enums.UserRole `json:"role"`
	DeactivatedAt time.Time      `json:"deactivated_at"`
}
