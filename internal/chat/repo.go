package chat

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/syncdeck/syncdeck-backend/pkg/db/models"
	"github.com/syncdeck/syncdeck-backend/pkg/pagination"
)

// Repository defines persistence operations for per-deal chat threads.
type Repository interface {
	Create(ctx context.Context, message *models.ChatMessage) (*models.ChatMessage, error)
	ListByDeal(ctx context.Context, dealID uuid.UUID, params pagination.Params) ([]models.ChatMessage, *pagination.Cursor, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a chat repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, message *models.ChatMessage) (*models.ChatMessage, error) {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return nil, err
	}
	return message, nil
}

// ListByDeal pages newest first; the UI reverses for display.
func (r *repository) ListByDeal(ctx context.Context, dealID uuid.UUID, params pagination.Params) ([]models.ChatMessage, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.ChatMessage{}).
		Where("deal_id = ?", dealID)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var messages []models.ChatMessage
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, nil, err
	}

	if len(messages) > normalized {
		messages = messages[:normalized]
		last := messages[len(messages)-1]
		return messages, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return messages, nil, nil
}
