package tracks

import (
	"time"

	"github.com/google/uuid"

	"github.com/syncdeck/syncdeck-backend/pkg/db/models"
	"github.com/syncdeck/syncdeck-backend/pkg/enums"
)

// TrackDTO is the track shape returned to callers.
type TrackDTO struct {
	ID              uuid.UUID         `json:"id"`
	ArtistID        uuid.UUID         `json:"artist_id"`
	Title           string            `json:"title"`
	Genre           *string           `json:"genre,omitempty"`
	BPM             *int              `json:"bpm,omitempty"`
	DurationSeconds *int              `json:"duration_seconds,omitempty"`
	Status          enums.TrackStatus `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// CreateTrackInput holds the validated payload to add a track. New tracks
// always start as drafts.
type CreateTrackInput struct {
	Title           string
	Genre           *string
	BPM             *int
	DurationSeconds *int
}

// UpdateTrackInput holds optional metadata mutations.
type UpdateTrackInput struct {
	Title           *string
	Genre           *string
	BPM             *int
	DurationSeconds *int
}

// TrackList is one page of tracks plus the cursor for the next page.
type TrackList struct {
	Tracks     []TrackDTO `json:"tracks"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// CatalogFilters narrows the published catalog listing.
type CatalogFilters struct {
	Genre    *string
	ArtistID *uuid.UUID
}

func trackFromModel(track *models.Track) *TrackDTO {
	return &TrackDTO{
		ID:              track.ID,
		ArtistID:        track.ArtistID,
		Title:           track.Title,
		Genre:           track.Genre,
		BPM:             track.BPM,
		DurationSeconds: track.DurationSeconds,
		Status:          track.Status,
		CreatedAt:       track.CreatedAt,
		UpdatedAt:       track.UpdatedAt,
	}
}
