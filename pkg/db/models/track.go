package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/syncdeck/syncdeck-backend/pkg/enums"
)

// Track represents a catalog entry owned by an artist and offered for licensing.
type Track struct {
	ID              uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ArtistID        uuid.UUID         `gorm:"column:artist_id;type:uuid;not null;index"`
	Title           string            `gorm:"type:text;not null"`
	Genre           *string           `gorm:"type:text"`
	BPM             *int              `gorm:"column:bpm"`
	DurationSeconds *int              `gorm:"column:duration_seconds"`
	Status          enums.TrackStatus `gorm:"column:status;type:track_status;not null;default:'draft'"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
