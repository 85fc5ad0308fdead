package controllers

import (
	"net/http"

	"github.com/syncdeck/syncdeck-backend/api/responses"
	"github.com/syncdeck/syncdeck-backend/internal/tracks"
	pkgerrors "github.com/syncdeck/syncdeck-backend/pkg/errors"
	"github.com/syncdeck/syncdeck-backend/pkg/logger"
)

// AdminRemoveTrack takes a track off the catalog regardless of who owns it.
func AdminRemoveTrack(svc tracks.Service, logg *logger.Logger) http.HandlerFunc {
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

		if err := svc.AdminRemove(r.Context(), actor.UserID, trackID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}
