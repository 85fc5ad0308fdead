package deals

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/syncdeck/syncdeck-backend/pkg/db/models"
	"github.com/syncdeck/syncdeck-backend/pkg/enums"
	"github.com/syncdeck/syncdeck-backend/pkg/pagination"
	"github.com/syncdeck/syncdeck-backend/pkg/types"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a deals repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, deal *models.Deal) (*models.Deal, error) {
	if err := r.db.WithContext(ctx).Create(deal).Error; err != nil {
		return nil, err
	}
	return deal, nil
}

func (r *repository) FindByID(ctx context.Context, dealID uuid.UUID) (*models.Deal, error) {
	var deal models.Deal
	err := r.db.WithContext(ctx).
		Where("id = ?", dealID).
		First(&deal).Error
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

// ListForUser pages through every deal the user is a party to, most recently
// updated first. The cursor timestamp carries the sort key, updated_at.
func (r *repository) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Deal, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Deal{}).
		Where("artist_id = ? OR exec_id = ?", userID, userID)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, err
	}
	if cursor != nil {
		query = query.Where("(updated_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var deals []models.Deal
	if err := query.Order("updated_at DESC, id DESC").Limit(limit).Find(&deals).Error; err != nil {
		return nil, nil, err
	}

	if len(deals) > normalized {
		deals = deals[:normalized]
		last := deals[len(deals)-1]
		return deals, &pagination.Cursor{CreatedAt: last.UpdatedAt, ID: last.ID}, nil
	}
	return deals, nil, nil
}

// UpdateStateGuarded moves a deal forward only if its persisted state still
// matches the state the caller validated against. A false return means a
// concurrent writer got there first.
func (r *repository) UpdateStateGuarded(ctx context.Context, dealID uuid.UUID, from, to enums.DealState, terms types.DealTerms, closedAt *time.Time, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Deal{}).
		Where("id = ? AND state = ?", dealID, from).
		Select("state", "terms", "closed_at", "updated_at").
		Updates(&models.Deal{State: to, Terms: terms, ClosedAt: closedAt, UpdatedAt: now})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) AppendHistory(ctx context.Context, entry *models.DealHistoryEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListHistory(ctx context.Context, dealID uuid.UUID) ([]models.DealHistoryEntry, error) {
	var entries []models.DealHistoryEntry
	err := r.db.WithContext(ctx).
		Where("deal_id = ?", dealID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
