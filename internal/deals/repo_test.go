package deals

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/syncdeck/syncdeck-backend/pkg/db/models"
	"github.com/syncdeck/syncdeck-backend/pkg/enums"
	"github.com/syncdeck/syncdeck-backend/pkg/pagination"
	"github.com/syncdeck/syncdeck-backend/pkg/types"
)

func setupDealsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	deals := `
CREATE TABLE IF NOT EXISTS deals (
  id TEXT PRIMARY KEY,
  track_id TEXT NOT NULL,
  artist_id TEXT NOT NULL,
  exec_id TEXT NOT NULL,
  state TEXT NOT NULL DEFAULT 'pending',
  terms TEXT NOT NULL,
  created_by_id TEXT NOT NULL,
  created_by_role TEXT NOT NULL,
  closed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	history := `
CREATE TABLE IF NOT EXISTS deal_history_entries (
  id TEXT PRIMARY KEY,
  deal_id TEXT NOT NULL,
  actor_id TEXT NOT NULL,
  actor_role TEXT NOT NULL,
  action TEXT NOT NULL,
  from_state TEXT NOT NULL,
  to_state TEXT NOT NULL,
  changes TEXT NOT NULL,
  note TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(deals).Error)
	require.NoError(t, db.Exec(history).Error)
	return db
}

func testChanges(price int64) types.DealTermsChange {
	p := decimal.NewFromInt(price)
	return types.DealTermsChange{Price: &p}
}

func testTerms(price int64) types.DealTerms {
	return types.DealTerms{
		UsageType:      enums.UsageTypeSync,
		Rights:         enums.RightsTypeNonExclusive,
		DurationMonths: 12,
		Price:          decimal.NewFromInt(price),
	}
}

func seedDeal(t *testing.T, db *gorm.DB, state enums.DealState) *models.Deal {
	t.Helper()

	execID := uuid.New()
	deal := &models.Deal{
		ID:            uuid.New(),
		TrackID:       uuid.New(),
		ArtistID:      uuid.New(),
		ExecID:        execID,
		State:         state,
		Terms:         testTerms(1000),
		CreatedByID:   execID,
		CreatedByRole: enums.UserRoleExec,
	}
	require.NoError(t, db.Create(deal).Error)
	return deal
}

func TestRepositoryCreateAndFind(t *testing.T) {
	db := setupDealsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seeded := seedDeal(t, db, enums.DealStatePending)

	found, err := repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, found.ID)
	assert.Equal(t, enums.DealStatePending, found.State)
	assert.True(t, found.Terms.Price.Equal(decimal.NewFromInt(1000)))

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUpdateStateGuardedRejectsStaleState(t *testing.T) {
	db := setupDealsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	deal := seedDeal(t, db, enums.DealStatePending)
	now := time.Now().UTC()

	applied, err := repo.UpdateStateGuarded(ctx, deal.ID, enums.DealStatePending, enums.DealStateCountered, testTerms(1500), nil, now)
	require.NoError(t, err)
	assert.True(t, applied)

	// Second writer still believes the deal is pending.
	applied, err = repo.UpdateStateGuarded(ctx, deal.ID, enums.DealStatePending, enums.DealStateAccepted, testTerms(1500), &now, now)
	require.NoError(t, err)
	assert.False(t, applied)

	found, err := repo.FindByID(ctx, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.DealStateCountered, found.State)
	assert.True(t, found.Terms.Price.Equal(decimal.NewFromInt(1500)))
	assert.Nil(t, found.ClosedAt)
}

func TestUpdateStateGuardedSetsClosedAt(t *testing.T) {
	db := setupDealsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	deal := seedDeal(t, db, enums.DealStatePending)
	now := time.Now().UTC()

	applied, err := repo.UpdateStateGuarded(ctx, deal.ID, enums.DealStatePending, enums.DealStateAccepted, testTerms(1000), &now, now)
	require.NoError(t, err)
	assert.True(t, applied)

	found, err := repo.FindByID(ctx, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.DealStateAccepted, found.State)
	require.NotNil(t, found.ClosedAt)
	assert.WithinDuration(t, now, *found.ClosedAt, time.Second)
}

func TestAppendAndListHistoryKeepsOrder(t *testing.T) {
	db := setupDealsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	deal := seedDeal(t, db, enums.DealStateCountered)
	base := time.Now().UTC().Add(-time.Minute)

	first := &models.DealHistoryEntry{
		ID:        uuid.New(),
		DealID:    deal.ID,
		ActorID:   deal.ArtistID,
		ActorRole: enums.UserRoleArtist,
		Action:    enums.DealActionCounter,
		FromState: enums.DealStatePending,
		ToState:   enums.DealStateCountered,
		Changes:   testChanges(1500),
		CreatedAt: base,
	}
	second := &models.DealHistoryEntry{
		ID:        uuid.New(),
		DealID:    deal.ID,
		ActorID:   deal.ExecID,
		ActorRole: enums.UserRoleExec,
		Action:    enums.DealActionConfirm,
		FromState: enums.DealStateCountered,
		ToState:   enums.DealStatePending,
		CreatedAt: base.Add(time.Second),
	}
	require.NoError(t, repo.AppendHistory(ctx, first))
	require.NoError(t, repo.AppendHistory(ctx, second))

	entries, err := repo.ListHistory(ctx, deal.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, enums.DealActionCounter, entries[0].Action)
	assert.Equal(t, enums.DealActionConfirm, entries[1].Action)

	other, err := repo.ListHistory(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestListForUserOrdersAndPaginates(t *testing.T) {
	db := setupDealsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	artistID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		execID := uuid.New()
		deal := &models.Deal{
			ID:            uuid.New(),
			TrackID:       uuid.New(),
			ArtistID:      artistID,
			ExecID:        execID,
			State:         enums.DealStatePending,
			Terms:         testTerms(1000),
			CreatedByID:   execID,
			CreatedByRole: enums.UserRoleExec,
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
			UpdatedAt:     base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(deal).Error)
	}
	// A deal the user is not a party to must be filtered out.
	seedDeal(t, db, enums.DealStatePending)

	page, next, err := repo.ListForUser(ctx, artistID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotNil(t, next)
	assert.True(t, page[0].UpdatedAt.After(page[1].UpdatedAt))

	rest, last, err := repo.ListForUser(ctx, artistID, pagination.Params{
		Limit:  2,
		Cursor: pagination.EncodeCursor(*next),
	})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Nil(t, last)
	assert.True(t, page[1].UpdatedAt.After(rest[0].UpdatedAt))
}
