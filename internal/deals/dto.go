package deals

import (
	"time"

	"github.com/google/uuid"

	"github.com/syncdeck/syncdeck-backend/pkg/db/models"
	"github.com/syncdeck/syncdeck-backend/pkg/enums"
	"github.com/syncdeck/syncdeck-backend/pkg/types"
)

// DealDTO is the deal shape returned to callers.
type DealDTO struct {
	ID            uuid.UUID       `json:"id"`
	TrackID       uuid.UUID       `json:"track_id"`
	ArtistID      uuid.UUID       `json:"artist_id"`
	ExecID        uuid.UUID       `json:"exec_id"`
	State         enums.DealState `json:"state"`
	Terms         types.DealTerms `json:"terms"`
	CreatedByID   uuid.UUID       `json:"created_by_id"`
	CreatedByRole enums.UserRole  `json:"created_by_role"`
	ClosedAt      *time.Time      `json:"closed_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// HistoryEntryDTO is one audit record of a negotiation action.
type HistoryEntryDTO struct {
	ID        uuid.UUID             `json:"id"`
	DealID    uuid.UUID             `json:"deal_id"`
	ActorID   uuid.UUID             `json:"actor_id"`
	ActorRole enums.UserRole        `json:"actor_role"`
	Action    enums.DealAction      `json:"action"`
	FromState enums.DealState       `json:"from_state"`
	ToState   enums.DealState       `json:"to_state"`
	Changes   types.DealTermsChange `json:"changes"`
	Note      *string               `json:"note,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
}

// DealList is one page of deals plus the cursor for the next page.
type DealList struct {
	Deals      []DealDTO `json:"deals"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// CreateDealInput carries everything needed to open a new offer on a track.
type CreateDealInput struct {
	TrackID   uuid.UUID
	ActorID   uuid.UUID
	ActorRole enums.UserRole
	Terms     types.DealTerms
	Note      *string
}

// UpdateStateInput carries one negotiation action. Actor identity comes from
// the authenticated session, never from the request body.
type UpdateStateInput struct {
	DealID  uuid.UUID
	ActorID uuid.UUID
	Target  enums.DealState
	Changes types.DealTermsChange
	Note    *string
}

// ActorContext identifies the caller for read operations.
type ActorContext struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

func dealFromModel(deal *models.Deal) *DealDTO {
	return &DealDTO{
		ID:            deal.ID,
		TrackID:       deal.TrackID,
		ArtistID:      deal.ArtistID,
		ExecID:        deal.ExecID,
		State:         deal.State,
		Terms:         deal.Terms,
		CreatedByID:   deal.CreatedByID,
		CreatedByRole: deal.CreatedByRole,
		ClosedAt:      deal.ClosedAt,
		CreatedAt:     deal.CreatedAt,
		UpdatedAt:     deal.UpdatedAt,
	}
}

func historyFromModel(entry models.DealHistoryEntry) HistoryEntryDTO {
	return HistoryEntryDTO{
		ID:        entry.ID,
		DealID:    entry.DealID,
		ActorID:   entry.ActorID,
		ActorRole: entry.ActorRole,
		Action:    entry.Action,
		FromState: entry.FromState,
		ToState:   entry.ToState,
		Changes:   entry.Changes,
		Note:      entry.Note,
		CreatedAt: entry.CreatedAt,
	}
}
