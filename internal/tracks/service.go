package tracks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/syncdeck/syncdeck-backend/pkg/db/models"
	"github.com/syncdeck/syncdeck-backend/pkg/enums"
	pkgerrors "github.com/syncdeck/syncdeck-backend/pkg/errors"
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

// Service exposes artist catalog management plus the exec-facing catalog.
type Service interface {
	Create(ctx context.Context, artistID uuid.UUID, input CreateTrackInput) (*TrackDTO, error)
	Update(ctx context.Context, artistID, trackID uuid.UUID, input UpdateTrackInput) (*TrackDTO, error)
	Publish(ctx context.Context, artistID, trackID uuid.UUID) (*TrackDTO, error)
	Remove(ctx context.Context, artistID, trackID uuid.UUID) error
	AdminRemove(ctx context.Context, adminID, trackID uuid.UUID) error
	Get(ctx context.Context, viewerID uuid.UUID, viewerRole enums.UserRole, trackID uuid.UUID) (*TrackDTO, error)
	ListCatalog(ctx context.Context, params pagination.Params, filters CatalogFilters) (*TrackList, error)
	ListMine(ctx context.Context, artistID uuid.UUID, params pagination.Params) (*TrackList, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewService builds a track service with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tracks repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc}, nil
}

func (s *service) Create(ctx context.Context, artistID uuid.UUID, input CreateTrackInput) (*TrackDTO, error) {
	if artistID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	if input.BPM != nil && *input.BPM <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bpm must be positive")
	}
	if input.DurationSeconds != nil && *input.DurationSeconds <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "duration must be positive")
	}

	track := &models.Track{
		ID:              uuid.New(),
		ArtistID:        artistID,
		Title:           title,
		Genre:           input.Genre,
		BPM:             input.BPM,
		DurationSeconds: input.DurationSeconds,
		Status:          enums.TrackStatusDraft,
	}
	created, err := s.repo.Create(ctx, track)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create track")
	}
	return trackFromModel(created), nil
}

func (s *service) Update(ctx context.Context, artistID, trackID uuid.UUID, input UpdateTrackInput) (*TrackDTO, error) {
	track, err := s.loadOwned(ctx, artistID, trackID)
	if err != nil {
		return nil, err
	}
	if track.Status == enums.TrackStatusRemoved {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "removed tracks cannot be edited")
	}

	updates := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title required")
		}
		updates["title"] = title
		track.Title = title
	}
	if input.Genre != nil {
		updates["genre"] = *input.Genre
		track.Genre = input.Genre
	}
	if input.BPM != nil {
		if *input.BPM <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "bpm must be positive")
		}
		updates["bpm"] = *input.BPM
		track.BPM = input.BPM
	}
	if input.DurationSeconds != nil {
		if *input.DurationSeconds <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duration must be positive")
		}
		updates["duration_seconds"] = *input.DurationSeconds
		track.DurationSeconds = input.DurationSeconds
	}
	if len(updates) == 0 {
		return trackFromModel(track), nil
	}

	if err := s.repo.UpdateMetadata(ctx, track.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update track")
	}
	return trackFromModel(track), nil
}

func (s *service) Publish(ctx context.Context, artistID, trackID uuid.UUID) (*TrackDTO, error) {
	track, err := s.loadOwned(ctx, artistID, trackID)
	if err != nil {
		return nil, err
	}
	if track.Status == enums.TrackStatusPublished {
		return trackFromModel(track), nil
	}

	applied, err := s.repo.UpdateStatusGuarded(ctx, track.ID, enums.TrackStatusDraft, enums.TrackStatusPublished)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish track")
	}
	if !applied {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only draft tracks can be published")
	}
	track.Status = enums.TrackStatusPublished
	return trackFromModel(track), nil
}

// Remove pulls a track from the catalog and emits an event so counterparties
// with open deals on it can be told. Removal is terminal.
func (s *service) Remove(ctx context.Context, artistID, trackID uuid.UUID) error {
	track, err := s.loadOwned(ctx, artistID, trackID)
	if err != nil {
		return err
	}
	return s.removeLoaded(ctx, track, artistID, enums.UserRoleArtist)
}

// AdminRemove takes down any track regardless of ownership.
func (s *service) AdminRemove(ctx context.Context, adminID, trackID uuid.UUID) error {
	if adminID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	track, err := s.find(ctx, trackID)
	if err != nil {
		return err
	}
	return s.removeLoaded(ctx, track, adminID, enums.UserRoleAdmin)
}

func (s *service) removeLoaded(ctx context.Context, track *models.Track, actorID uuid.UUID, actorRole enums.UserRole) error {
	if track.Status == enums.TrackStatusRemoved {
		return nil
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		applied, err := repo.UpdateStatusGuarded(ctx, track.ID, track.Status, enums.TrackStatusRemoved)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove track")
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "track status changed, refresh and retry")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventTrackRemoved,
			AggregateType: enums.AggregateTrack,
			AggregateID:   track.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: actorID, Role: actorRole.String()},
			Data: payloads.TrackRemovedEvent{
				TrackID:   track.ID,
				ArtistID:  track.ArtistID,
				RemovedAt: time.Now().UTC(),
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
}

// Get returns a track. Published tracks are visible to everyone signed in;
// drafts and removed tracks only to their artist or an admin.
func (s *service) Get(ctx context.Context, viewerID uuid.UUID, viewerRole enums.UserRole, trackID uuid.UUID) (*TrackDTO, error) {
	if viewerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	track, err := s.find(ctx, trackID)
	if err != nil {
		return nil, err
	}
	if track.Status != enums.TrackStatusPublished &&
		track.ArtistID != viewerID &&
		viewerRole != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "track not found")
	}
	return trackFromModel(track), nil
}

func (s *service) ListCatalog(ctx context.Context, params pagination.Params, filters CatalogFilters) (*TrackList, error) {
	rows, next, err := s.repo.ListCatalog(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list catalog")
	}
	return buildTrackList(rows, next), nil
}

func (s *service) ListMine(ctx context.Context, artistID uuid.UUID, params pagination.Params) (*TrackList, error) {
	if artistID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, next, err := s.repo.ListByArtist(ctx, artistID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list artist tracks")
	}
	return buildTrackList(rows, next), nil
}

func (s *service) loadOwned(ctx context.Context, artistID, trackID uuid.UUID) (*models.Track, error) {
	if artistID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	track, err := s.find(ctx, trackID)
	if err != nil {
		return nil, err
	}
	if track.ArtistID != artistID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "track does not belong to artist")
	}
	return track, nil
}

func (s *service) find(ctx context.Context, trackID uuid.UUID) (*models.Track, error) {
	if trackID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "track id required")
	}
	track, err := s.repo.FindByID(ctx, trackID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "track not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load track")
	}
	return track, nil
}

func buildTrackList(rows []models.Track, next *pagination.Cursor) *TrackList {
	list := &TrackList{Tracks: make([]TrackDTO, 0, len(rows))}
	for i := range rows {
		list.Tracks = append(list.Tracks, *trackFromModel(&rows[i]))
	}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list
}
