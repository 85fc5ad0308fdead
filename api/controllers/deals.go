package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/syncdeck/syncdeck-backend/api/middleware"
	"github.com/syncdeck/syncdeck-backend/api/responses"
	"github.com/syncdeck/syncdeck-backend/api/validators"
	"github.com/syncdeck/syncdeck-backend/internal/deals"
	"github.com/syncdeck/syncdeck-backend/pkg/enums"
	pkgerrors "github.com/syncdeck/syncdeck-backend/pkg/errors"
	"github.com/syncdeck/syncdeck-backend/pkg/logger"
	"github.com/syncdeck/syncdeck-backend/pkg/pagination"
	"github.com/syncdeck/syncdeck-backend/pkg/types"
)

type createDealRequest struct {
	TrackID string          `json:"track_id" validate:"required,uuid"`
	Terms   types.DealTerms `json:"terms" validate:"required"`
	Note    *string         `json:"note,omitempty"`
}

type updateDealStateRequest struct {
	Target  string                `json:"target" validate:"required"`
	Changes types.DealTermsChange `json:"changes"`
	Note    *string               `json:"note,omitempty"`
}

// CreateDeal opens a new offer on a track. The acting exec comes from the
// request context, never from the body.
func CreateDeal(svc deals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deals service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createDealRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		trackID, err := uuid.Parse(body.TrackID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid track id"))
			return
		}

		deal, err := svc.Create(r.Context(), deals.CreateDealInput{
			TrackID:   trackID,
			ActorID:   actor.UserID,
			ActorRole: actor.Role,
			Terms:     body.Terms,
			Note:      body.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, deal)
	}
}

// UpdateDealState applies one negotiation action to a deal.
func UpdateDealState(svc deals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deals service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dealID, err := uuidURLParam(r, "dealId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateDealStateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		target, err := enums.ParseDealState(body.Target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target state"))
			return
		}

		deal, err := svc.UpdateState(r.Context(), deals.UpdateStateInput{
			DealID:  dealID,
			ActorID: actor.UserID,
			Target:  target,
			Changes: body.Changes,
			Note:    body.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, deal)
	}
}

// GetDeal returns one deal for a party or an admin.
func GetDeal(svc deals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deals service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dealID, err := uuidURLParam(r, "dealId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deal, err := svc.Get(r.Context(), deals.ActorContext{UserID: actor.UserID, Role: actor.Role}, dealID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, deal)
	}
}

// ListDeals returns the caller's deals newest-activity first.
func ListDeals(svc deals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deals service unavailable"))
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

		list, err := svc.ListForUser(r.Context(), deals.ActorContext{UserID: actor.UserID, Role: actor.Role}, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// DealHistory returns the audit trail for a deal.
func DealHistory(svc deals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deals service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dealID, err := uuidURLParam(r, "dealId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.History(r.Context(), deals.ActorContext{UserID: actor.UserID, Role: actor.Role}, dealID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"entries": entries})
	}
}

type requestActor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

func actorFromContext(r *http.Request) (requestActor, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return requestActor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return requestActor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user identity")
	}
	role, err := enums.ParseUserRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return requestActor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid actor role")
	}
	return requestActor{UserID: userID, Role: role}, nil
}

func uuidURLParam(r *http.Request, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "missing "+key)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+key)
	}
	return id, nil
}

func paginationFromQuery(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 200)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}
