package enums

import "fmt"

// TrackStatus maps to the track_status enum in Postgres.
type TrackStatus string

const (
	TrackStatusDraft     TrackStatus = "draft"
	TrackStatusPublished TrackStatus = "published"
	TrackStatusRemoved   TrackStatus = "removed"
)

var validTrackStatuses = []TrackStatus{
	TrackStatusDraft,
	TrackStatusPublished,
	TrackStatusRemoved,
}

// String implements fmt.Stringer.
func (s TrackStatus) String() string {
	return string(s)
}

// IsValid reports whether the value matches the canonical track_status enum.
func (s TrackStatus) IsValid() bool {
	for _, candidate := range validTrackStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseTrackStatus converts raw input into TrackStatus.
func ParseTrackStatus(value string) (TrackStatus, error) {
	for _, candidate := range validTrackStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid track status %q", value)
}
