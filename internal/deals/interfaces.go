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

// Repository defines persistence operations for deals and their audit trail.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, deal *models.Deal) (*models.Deal, error)
	FindByID(ctx context.Context, dealID uuid.UUID) (*models.Deal, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Deal, *pagination.Cursor, error)
	UpdateStateGuarded(ctx context.Context, dealID uuid.UUID, from, to enums.DealState, terms types.DealTerms, closedAt *time.Time, now time.Time) (bool, error)
	AppendHistory(ctx context.Context, entry *models.DealHistoryEntry) error
	ListHistory(ctx context.Context, dealID uuid.UUID) ([]models.DealHistoryEntry, error)
}
