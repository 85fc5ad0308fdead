package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncdeck/syncdeck-backend/pkg/enums"
	"github.com/syncdeck/syncdeck-backend/pkg/logger"
	"github.com/syncdeck/syncdeck-backend/pkg/outbox"
	"github.com/syncdeck/syncdeck-backend/pkg/outbox/payloads"
)

type stubNotifyService struct {
	inputs []NotifyInput
	err    error
}

func (s *stubNotifyService) Notify(ctx context.Context, input NotifyInput) error {
	if s.err != nil {
		return s.err
	}
	s.inputs = append(s.inputs, input)
	return nil
}

func (s *stubNotifyService) List(ctx context.Context, params ListParams) (*ListResult, error) {
	return &ListResult{}, nil
}

func (s *stubNotifyService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return nil
}

func (s *stubNotifyService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

func (s *stubNotifyService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

type stubIdempotency struct {
	processed map[uuid.UUID]bool
	deleted   []uuid.UUID
}

func (s *stubIdempotency) CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	if s.processed == nil {
		s.processed = map[uuid.UUID]bool{}
	}
	if s.processed[eventID] {
		return true, nil
	}
	s.processed[eventID] = true
	return false, nil
}

func (s *stubIdempotency) Delete(ctx context.Context, consumer string, eventID uuid.UUID) error {
	s.deleted = append(s.deleted, eventID)
	delete(s.processed, eventID)
	return nil
}

func newTestConsumer(t *testing.T) (*Consumer, *stubNotifyService, *stubIdempotency) {
	t.Helper()

	service := &stubNotifyService{}
	manager := &stubIdempotency{}
	logg := logger.New(logger.Options{ServiceName: "notifications-test", Output: io.Discard})
	consumer, err := NewConsumer(service, manager, logg)
	require.NoError(t, err)
	return consumer, service, manager
}

func stateChangedEnvelope(t *testing.T, actorID uuid.UUID, payload payloads.DealStateChangedEvent) outbox.PayloadEnvelope {
	t.Helper()

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Actor:      &outbox.ActorRef{UserID: actorID, Role: enums.UserRoleArtist.String()},
		Data:       data,
	}
}

func TestProcessNotifiesCounterparty(t *testing.T) {
	consumer, service, _ := newTestConsumer(t)

	artistID := uuid.New()
	execID := uuid.New()
	payload := payloads.DealStateChangedEvent{
		DealID:    uuid.New(),
		TrackID:   uuid.New(),
		ArtistID:  artistID,
		ExecID:    execID,
		Action:    enums.DealActionCounter,
		FromState: enums.DealStatePending,
		ToState:   enums.DealStateCountered,
		Price:     decimal.NewFromInt(1500),
		ChangedAt: time.Now().UTC(),
	}
	envelope := stateChangedEnvelope(t, artistID, payload)

	require.NoError(t, consumer.Process(context.Background(), enums.EventDealStateChanged, envelope))

	require.Len(t, service.inputs, 1)
	assert.Equal(t, execID, service.inputs[0].UserID, "the actor's counterparty gets notified")
	assert.Equal(t, enums.NotificationTypeDealUpdate, service.inputs[0].Type)
}

func TestProcessClosedDealUsesClosedType(t *testing.T) {
	consumer, service, _ := newTestConsumer(t)

	artistID := uuid.New()
	payload := payloads.DealStateChangedEvent{
		DealID:   uuid.New(),
		ArtistID: artistID,
		ExecID:   uuid.New(),
		Action:   enums.DealActionAccept,
		ToState:  enums.DealStateAccepted,
		Terminal: true,
	}
	envelope := stateChangedEnvelope(t, artistID, payload)

	require.NoError(t, consumer.Process(context.Background(), enums.EventDealStateChanged, envelope))

	require.Len(t, service.inputs, 1)
	assert.Equal(t, enums.NotificationTypeDealClosed, service.inputs[0].Type)
}

func TestProcessDealCreatedNotifiesArtist(t *testing.T) {
	consumer, service, _ := newTestConsumer(t)

	artistID := uuid.New()
	payload := payloads.DealCreatedEvent{
		DealID:    uuid.New(),
		TrackID:   uuid.New(),
		ArtistID:  artistID,
		ExecID:    uuid.New(),
		UsageType: enums.UsageTypeSync,
		Price:     decimal.NewFromInt(1000),
	}
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	envelope := outbox.PayloadEnvelope{
		Version: 1,
		EventID: uuid.NewString(),
		Data:    data,
	}

	require.NoError(t, consumer.Process(context.Background(), enums.EventDealCreated, envelope))

	require.Len(t, service.inputs, 1)
	assert.Equal(t, artistID, service.inputs[0].UserID)
	assert.Equal(t, enums.NotificationTypeDealOffer, service.inputs[0].Type)
}

func TestProcessIsIdempotent(t *testing.T) {
	consumer, service, _ := newTestConsumer(t)

	payload := payloads.DealStateChangedEvent{
		DealID:   uuid.New(),
		ArtistID: uuid.New(),
		ExecID:   uuid.New(),
		ToState:  enums.DealStateCountered,
	}
	envelope := stateChangedEnvelope(t, payload.ArtistID, payload)

	require.NoError(t, consumer.Process(context.Background(), enums.EventDealStateChanged, envelope))
	require.NoError(t, consumer.Process(context.Background(), enums.EventDealStateChanged, envelope))

	assert.Len(t, service.inputs, 1)
}

func TestProcessSkipsUnhandledEvents(t *testing.T) {
	consumer, service, _ := newTestConsumer(t)

	envelope := outbox.PayloadEnvelope{Version: 1, EventID: uuid.NewString()}
	require.NoError(t, consumer.Process(context.Background(), enums.EventUserDeactivated, envelope))
	assert.Empty(t, service.inputs)
}

func TestProcessReleasesKeyOnFailure(t *testing.T) {
	consumer, service, manager := newTestConsumer(t)
	service.err = errors.New("db down")

	payload := payloads.DealStateChangedEvent{
		DealID:   uuid.New(),
		ArtistID: uuid.New(),
		ExecID:   uuid.New(),
		ToState:  enums.DealStateCountered,
	}
	envelope := stateChangedEnvelope(t, payload.ArtistID, payload)

	require.Error(t, consumer.Process(context.Background(), enums.EventDealStateChanged, envelope))
	require.Len(t, manager.deleted, 1)

	// A redelivery after the failure goes through again.
	service.err = nil
	require.NoError(t, consumer.Process(context.Background(), enums.EventDealStateChanged, envelope))
	assert.Len(t, service.inputs, 1)
}
