package chat

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/syncdeck/syncdeck-backend/pkg/db/models"
	"github.com/syncdeck/syncdeck-backend/pkg/enums"
	pkgerrors "github.com/syncdeck/syncdeck-backend/pkg/errors"
	"github.com/syncdeck/syncdeck-backend/pkg/pagination"
)

type stubChatRepo struct {
	messages []models.ChatMessage
}

func (s *stubChatRepo) Create(ctx context.Context, message *models.ChatMessage) (*models.ChatMessage, error) {
	s.messages = append(s.messages, *message)
	return message, nil
}

func (s *stubChatRepo) ListByDeal(ctx context.Context, dealID uuid.UUID, params pagination.Params) ([]models.ChatMessage, *pagination.Cursor, error) {
	var out []models.ChatMessage
	for _, message := range s.messages {
		if message.DealID == dealID {
			out = append(out, message)
		}
	}
	return out, nil, nil
}

type stubDealFinder struct {
	deal *models.Deal
}

func (s *stubDealFinder) FindByID(ctx context.Context, dealID uuid.UUID) (*models.Deal, error) {
	if s.deal == nil || s.deal.ID != dealID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.deal, nil
}

func newChatTestService(t *testing.T, state enums.DealState) (Service, *stubChatRepo, *models.Deal) {
	t.Helper()

	deal := &models.Deal{
		ID:       uuid.New(),
		TrackID:  uuid.New(),
		ArtistID: uuid.New(),
		ExecID:   uuid.New(),
		State:    state,
	}
	repo := &stubChatRepo{}
	svc, err := NewService(repo, &stubDealFinder{deal: deal})
	require.NoError(t, err)
	return svc, repo, deal
}

func assertChatCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected coded error, got %v", err)
	assert.Equal(t, code, typed.Code())
}

func TestSendAppendsToThread(t *testing.T) {
	svc, repo, deal := newChatTestService(t, enums.DealStateCountered)

	message, err := svc.Send(context.Background(), deal.ArtistID, deal.ID, "  can we talk duration?  ")
	require.NoError(t, err)
	assert.Equal(t, "can we talk duration?", message.Body)
	assert.Equal(t, deal.ArtistID, message.SenderID)
	require.Len(t, repo.messages, 1)
}

func TestSendRejectsNonParty(t *testing.T) {
	svc, repo, deal := newChatTestService(t, enums.DealStatePending)

	_, err := svc.Send(context.Background(), uuid.New(), deal.ID, "hello")
	assertChatCode(t, err, pkgerrors.CodeForbidden)
	assert.Empty(t, repo.messages)
}

func TestSendFreezesClosedDeals(t *testing.T) {
	for _, state := range []enums.DealState{enums.DealStateAccepted, enums.DealStateDeclined, enums.DealStateCancelled} {
		svc, repo, deal := newChatTestService(t, state)

		_, err := svc.Send(context.Background(), deal.ExecID, deal.ID, "one more thing")
		assertChatCode(t, err, pkgerrors.CodeStateConflict)
		assert.Empty(t, repo.messages)
	}
}

func TestSendValidation(t *testing.T) {
	svc, _, deal := newChatTestService(t, enums.DealStatePending)
	ctx := context.Background()

	_, err := svc.Send(ctx, deal.ArtistID, deal.ID, "   ")
	assertChatCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Send(ctx, deal.ArtistID, deal.ID, strings.Repeat("a", maxMessageLength+1))
	assertChatCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Send(ctx, uuid.Nil, deal.ID, "hello")
	assertChatCode(t, err, pkgerrors.CodeUnauthorized)

	_, err = svc.Send(ctx, deal.ArtistID, uuid.New(), "hello")
	assertChatCode(t, err, pkgerrors.CodeNotFound)
}

func TestListVisibility(t *testing.T) {
	svc, repo, deal := newChatTestService(t, enums.DealStateAccepted)
	ctx := context.Background()

	repo.messages = []models.ChatMessage{{
		ID:       uuid.New(),
		DealID:   deal.ID,
		SenderID: deal.ExecID,
		Body:     "deal is done",
	}}

	// Closed deals stay readable for both parties and admins.
	list, err := svc.List(ctx, deal.ArtistID, enums.UserRoleArtist, deal.ID, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, list.Messages, 1)
	assert.Equal(t, "deal is done", list.Messages[0].Body)

	_, err = svc.List(ctx, uuid.New(), enums.UserRoleAdmin, deal.ID, pagination.Params{Limit: 10})
	require.NoError(t, err)

	_, err = svc.List(ctx, uuid.New(), enums.UserRoleExec, deal.ID, pagination.Params{Limit: 10})
	assertChatCode(t, err, pkgerrors.CodeForbidden)
}
