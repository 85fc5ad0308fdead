package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/syncdeck/syncdeck-backend/api/responses"
	"github.com/syncdeck/syncdeck-backend/api/validators"
	"github.com/syncdeck/syncdeck-backend/internal/tracks"
	pkgerrors "github.com/syncdeck/syncdeck-backend/pkg/errors"
	"github.com/syncdeck/syncdeck-backend/pkg/logger"
)

type createTrackRequest struct {
	Title           string  `json:"title" validate:"required,max=200"`
	Genre           *string `json:"genre,omitempty"`
	BPM             *int    `json:"bpm,omitempty"`
	DurationSeconds *int    `json:"duration_seconds,omitempty"`
}

type updateTrackRequest struct {
	Title           *string `json:"title,omitempty"`
	Genre           *string `json:"genre,omitempty"`
	BPM             *int    `json:"bpm,omitempty"`
	DurationSeconds *int    `json:"duration_seconds,omitempty"`
}

// CreateTrack adds a draft track for the signed-in artist.
func CreateTrack(svc tracks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tracks service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createTrackRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		track, err := svc.Create(r.Context(), actor.UserID, tracks.CreateTrackInput{
			Title:           body.Title,
			Genre:           body.Genre,
			BPM:             body.BPM,
			DurationSeconds: body.DurationSeconds,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, track)
	}
}

// UpdateTrack edits metadata on a track the artist owns.
func UpdateTrack(svc tracks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tracks service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		trackID, err := uuidURLParam(r, "trackId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateTrackRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		track, err := svc.Update(r.Context(), actor.UserID, trackID, tracks.UpdateTrackInput{
			Title:           body.Title,
			Genre:           body.Genre,
			BPM:             body.BPM,
			DurationSeconds: body.DurationSeconds,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, track)
	}
}

// PublishTrack moves a draft into the public catalog.
func PublishTrack(svc tracks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tracks service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		trackID, err := uuidURLParam(r, "trackId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		track, err := svc.Publish(r.Context(), actor.UserID, trackID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, track)
	}
}

// RemoveTrack takes a track off the marketplace.
func RemoveTrack(svc tracks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tracks service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		trackID, err := uuidURLParam(r, "trackId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Remove(r.Context(), actor.UserID, trackID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}

// GetTrack returns one track, honoring draft visibility rules.
func GetTrack(svc tracks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tracks service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		trackID, err := uuidURLParam(r, "trackId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		track, err := svc.Get(r.Context(), actor.UserID, actor.Role, trackID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, track)
	}
}

// ListCatalog returns published tracks with optional genre/artist filters.
func ListCatalog(svc tracks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tracks service unavailable"))
			return
		}

		params, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := tracks.CatalogFilters{}
		if genre := strings.TrimSpace(r.URL.Query().Get("genre")); genre != "" {
			filters.Genre = &genre
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("artistId")); raw != "" {
			artistID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid artistId"))
				return
			}
			filters.ArtistID = &artistID
		}

		list, err := svc.ListCatalog(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ListMyTracks returns all of the artist's own tracks including drafts.
func ListMyTracks(svc tracks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tracks service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListMine(r.Context(), actor.UserID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
