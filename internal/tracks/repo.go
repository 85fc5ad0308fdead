package tracks

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/syncdeck/syncdeck-backend/pkg/db/models"
	"github.com/syncdeck/syncdeck-backend/pkg/enums"
	"github.com/syncdeck/syncdeck-backend/pkg/pagination"
)

// Repository defines persistence operations for the track catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, track *models.Track) (*models.Track, error)
	FindByID(ctx context.Context, trackID uuid.UUID) (*models.Track, error)
	UpdateMetadata(ctx context.Context, trackID uuid.UUID, updates map[string]any) error
	UpdateStatusGuarded(ctx context.Context, trackID uuid.UUID, from, to enums.TrackStatus) (bool, error)
	ListCatalog(ctx context.Context, params pagination.Params, filters CatalogFilters) ([]models.Track, *pagination.Cursor, error)
	ListByArtist(ctx context.Context, artistID uuid.UUID, params pagination.Params) ([]models.Track, *pagination.Cursor, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a tracks repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, track *models.Track) (*models.Track, error) {
	if err := r.db.WithContext(ctx).Create(track).Error; err != nil {
		return nil, err
	}
	return track, nil
}

func (r *repository) FindByID(ctx context.Context, trackID uuid.UUID) (*models.Track, error) {
	var track models.Track
	err := r.db.WithContext(ctx).
		Where("id = ?", trackID).
		First(&track).Error
	if err != nil {
		return nil, err
	}
	return &track, nil
}

func (r *repository) UpdateMetadata(ctx context.Context, trackID uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Track{}).
		Where("id = ?", trackID).
		Updates(updates).Error
}

// UpdateStatusGuarded flips a track's status only from the expected current
// value, so publish and remove cannot race each other.
func (r *repository) UpdateStatusGuarded(ctx context.Context, trackID uuid.UUID, from, to enums.TrackStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Track{}).
		Where("id = ? AND status = ?", trackID, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ListCatalog(ctx context.Context, params pagination.Params, filters CatalogFilters) ([]models.Track, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Track{}).
		Where("status = ?", enums.TrackStatusPublished)
	if filters.Genre != nil {
		query = query.Where("genre = ?", *filters.Genre)
	}
	if filters.ArtistID != nil {
		query = query.Where("artist_id = ?", *filters.ArtistID)
	}
	return r.page(ctx, query, params)
}

func (r *repository) ListByArtist(ctx context.Context, artistID uuid.UUID, params pagination.Params) ([]models.Track, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Track{}).
		Where("artist_id = ?", artistID)
	return r.page(ctx, query, params)
}

func (r *repository) page(ctx context.Context, query *gorm.DB, params pagination.Params) ([]models.Track, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var tracks []models.Track
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&tracks).Error; err != nil {
		return nil, nil, err
	}

	if len(tracks) > normalized {
		tracks = tracks[:normalized]
		last := tracks[len(tracks)-1]
		return tracks, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return tracks, nil, nil
}
