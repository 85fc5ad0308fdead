package deals

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/syncdeck/syncdeck-backend/pkg/broadcast"
	"github.com/syncdeck/syncdeck-backend/pkg/db/models"
	"github.com/syncdeck/syncdeck-backend/pkg/enums"
	pkgerrors "github.com/syncdeck/syncdeck-backend/pkg/errors"
	"github.com/syncdeck/syncdeck-backend/pkg/logger"
	"github.com/syncdeck/syncdeck-backend/pkg/metrics"
	"github.com/syncdeck/syncdeck-backend/pkg/outbox"
	"github.com/syncdeck/syncdeck-backend/pkg/outbox/payloads"
	"github.com/syncdeck/syncdeck-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type trackFinder interface {
	FindByID(ctx context.Context, trackID uuid.UUID) (*models.Track, error)
}

// Service runs the negotiation state machine.
type Service interface {
	Create(ctx context.Context, input CreateDealInput) (*DealDTO, error)
	UpdateState(ctx context.Context, input UpdateStateInput) (*DealDTO, error)
	Get(ctx context.Context, actor ActorContext, dealID uuid.UUID) (*DealDTO, error)
	ListForUser(ctx context.Context, actor ActorContext, params pagination.Params) (*DealList, error)
	History(ctx context.Context, actor ActorContext, dealID uuid.UUID) ([]HistoryEntryDTO, error)
}

// ServiceParams wires the deal service dependencies.
type ServiceParams struct {
	Repo     Repository
	Tracks   trackFinder
	Tx       txRunner
	Outbox   outboxPublisher
	Notifier broadcast.Notifier
	Metrics  *metrics.DealMetrics
	Logger   *logger.Logger
}

type service struct {
	repo     Repository
	tracks   trackFinder
	tx       txRunner
	outbox   outboxPublisher
	notifier broadcast.Notifier
	metrics  *metrics.DealMetrics
	logg     *logger.Logger
}

// NewService builds a deal service with the required dependencies. Metrics
// may be nil; everything else is mandatory.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("deals repository required")
	}
	if params.Tracks == nil {
		return nil, fmt.Errorf("track finder required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     params.Repo,
		tracks:   params.Tracks,
		tx:       params.Tx,
		outbox:   params.Outbox,
		notifier: params.Notifier,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

// Create opens a new offer on a published track. Only execs open deals; the
// counterparty is always the track's artist and the deal starts pending.
func (s *service) Create(ctx context.Context, input CreateDealInput) (*DealDTO, error) {
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ActorRole != enums.UserRoleExec {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only execs can open deals")
	}
	if input.TrackID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "track id required")
	}
	if err := input.Terms.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid deal terms")
	}

	track, err := s.tracks.FindByID(ctx, input.TrackID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "track not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load track")
	}
	if track.Status != enums.TrackStatusPublished {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "track is not open for offers")
	}

	var created *models.Deal
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		deal := &models.Deal{
			TrackID:       track.ID,
			ArtistID:      track.ArtistID,
			ExecID:        input.ActorID,
			State:         enums.DealStatePending,
			Terms:         input.Terms,
			CreatedByID:   input.ActorID,
			CreatedByRole: enums.UserRoleExec,
		}
		if deal.ID == uuid.Nil {
			deal.ID = uuid.New()
		}
		created, err = repo.Create(ctx, deal)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create deal")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventDealCreated,
			AggregateType: enums.AggregateDeal,
			AggregateID:   created.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Role: enums.UserRoleExec.String()},
			Data: payloads.DealCreatedEvent{
				DealID:    created.ID,
				TrackID:   created.TrackID,
				ArtistID:  created.ArtistID,
				ExecID:    created.ExecID,
				UsageType: created.Terms.UsageType,
				Price:     created.Terms.Price,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithDealID(ctx, created.ID.String()), "deal opened")
	return dealFromModel(created), nil
}

// UpdateState applies one negotiation action. Validation runs against the
// loaded snapshot; the write is guarded on that snapshot's state so a stale
// caller fails rather than clobbering a concurrent transition.
func (s *service) UpdateState(ctx context.Context, input UpdateStateInput) (*DealDTO, error) {
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.DealID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deal id required")
	}
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid target state")
	}
	if err := input.Changes.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid terms changes")
	}

	var (
		updated *models.Deal
		entry   models.DealHistoryEntry
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		deal, err := repo.FindByID(ctx, input.DealID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "deal not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load deal")
		}

		role, err := partyRole(deal, input.ActorID)
		if err != nil {
			return err
		}
		roles := allowedRoles(deal.State, input.Target)
		if roles == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "invalid state transition")
		}
		if !roleAllowed(roles, role) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "role not permitted for this transition")
		}
		action, err := actionForTarget(input.Target)
		if err != nil {
			return err
		}

		merged := input.Changes.Apply(deal.Terms)
		if err := merged.Validate(); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid merged terms")
		}

		now := time.Now().UTC()
		var closedAt *time.Time
		if input.Target.IsTerminal() {
			closedAt = &now
		}

		applied, err := repo.UpdateStateGuarded(ctx, deal.ID, deal.State, input.Target, merged, closedAt, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update deal state")
		}
		if !applied {
			s.metrics.IncConflict()
			return pkgerrors.New(pkgerrors.CodeStateConflict, "deal state changed, refresh and retry")
		}

		entry = models.DealHistoryEntry{
			ID:        uuid.New(),
			DealID:    deal.ID,
			ActorID:   input.ActorID,
			ActorRole: role,
			Action:    action,
			FromState: deal.State,
			ToState:   input.Target,
			Changes:   input.Changes,
			Note:      input.Note,
			CreatedAt: now,
		}
		if err := repo.AppendHistory(ctx, &entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append deal history")
		}

		deal.State = input.Target
		deal.Terms = merged
		deal.ClosedAt = closedAt
		deal.UpdatedAt = now
		updated = deal

		event := outbox.DomainEvent{
			EventType:     enums.EventDealStateChanged,
			AggregateType: enums.AggregateDeal,
			AggregateID:   deal.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Role: role.String()},
			Data: payloads.DealStateChangedEvent{
				DealID:    deal.ID,
				TrackID:   deal.TrackID,
				ArtistID:  deal.ArtistID,
				ExecID:    deal.ExecID,
				Action:    action,
				FromState: entry.FromState,
				ToState:   entry.ToState,
				Terminal:  input.Target.IsTerminal(),
				Price:     merged.Price,
				ChangedAt: now,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(entry.Action.String(), updated.State.String())
	s.notifier.NotifyDeal(ctx, broadcast.Event{
		DealID:    updated.ID,
		Action:    entry.Action,
		FromState: entry.FromState,
		ToState:   entry.ToState,
		ActorID:   input.ActorID,
		At:        updated.UpdatedAt,
	})
	return dealFromModel(updated), nil
}

func (s *service) Get(ctx context.Context, actor ActorContext, dealID uuid.UUID) (*DealDTO, error) {
	deal, err := s.loadForRead(ctx, actor, dealID)
	if err != nil {
		return nil, err
	}
	return dealFromModel(deal), nil
}

func (s *service) ListForUser(ctx context.Context, actor ActorContext, params pagination.Params) (*DealList, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	deals, next, err := s.repo.ListForUser(ctx, actor.UserID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list deals")
	}

	list := &DealList{Deals: make([]DealDTO, 0, len(deals))}
	for i := range deals {
		list.Deals = append(list.Deals, *dealFromModel(&deals[i]))
	}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list, nil
}

func (s *service) History(ctx context.Context, actor ActorContext, dealID uuid.UUID) ([]HistoryEntryDTO, error) {
	if _, err := s.loadForRead(ctx, actor, dealID); err != nil {
		return nil, err
	}

	entries, err := s.repo.ListHistory(ctx, dealID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list deal history")
	}

	out := make([]HistoryEntryDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, historyFromModel(entry))
	}
	return out, nil
}

// loadForRead fetches a deal and checks the caller may see it. Parties see
// their own deals; admins see everything.
func (s *service) loadForRead(ctx context.Context, actor ActorContext, dealID uuid.UUID) (*models.Deal, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if dealID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deal id required")
	}

	deal, err := s.repo.FindByID(ctx, dealID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "deal not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load deal")
	}
	if actor.Role != enums.UserRoleAdmin {
		if _, err := partyRole(deal, actor.UserID); err != nil {
			return nil, err
		}
	}
	return deal, nil
}

// partyRole resolves which side of the deal the user sits on.
func partyRole(deal *models.Deal, userID uuid.UUID) (enums.UserRole, error) {
	switch userID {
	case deal.ArtistID:
		return enums.UserRoleArtist, nil
	case deal.ExecID:
		return enums.UserRoleExec, nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "not a party to this deal")
	}
}
