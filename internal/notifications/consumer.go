package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/syncdeck/syncdeck-backend/pkg/enums"
	"github.com/syncdeck/syncdeck-backend/pkg/logger"
	"github.com/syncdeck/syncdeck-backend/pkg/outbox"
	"github.com/syncdeck/syncdeck-backend/pkg/outbox/payloads"
)

const notificationsConsumerName = "notifications"

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer turns deal events into in-app notifications, once per event.
type Consumer struct {
	service     Service
	manager     idempotencyChecker
	logg        *logger.Logger
	eventFilter map[enums.OutboxEventType]struct{}
}

// NewConsumer builds a notifications consumer.
func NewConsumer(service Service, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if service == nil {
		return nil, fmt.Errorf("notifications service required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		service: service,
		manager: manager,
		logg:    logg,
		eventFilter: map[enums.OutboxEventType]struct{}{
			enums.EventDealCreated:      {},
			enums.EventDealStateChanged: {},
		},
	}, nil
}

// Process fans one outbox envelope out to the affected users.
func (c *Consumer) Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": eventType,
	})

	if _, ok := c.eventFilter[eventType]; !ok {
		c.logg.Info(logCtx, "event not handled by notifications consumer")
		return nil
	}

	if envelope.EventID == "" {
		return fmt.Errorf("event id missing")
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		return fmt.Errorf("parse event id: %w", err)
	}

	already, err := c.manager.CheckAndMarkProcessed(ctx, notificationsConsumerName, eventID)
	if err != nil {
		return fmt.Errorf("idempotency check: %w", err)
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return nil
	}

	if err := c.dispatch(ctx, eventType, envelope); err != nil {
		c.logg.Error(logCtx, "failed to build notifications", err)
		_ = c.manager.Delete(ctx, notificationsConsumerName, eventID)
		return err
	}

	c.logg.Info(logCtx, "deal event notified")
	return nil
}

func (c *Consumer) dispatch(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	switch eventType {
	case enums.EventDealCreated:
		var payload payloads.DealCreatedEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return fmt.Errorf("decode deal created payload: %w", err)
		}
		link := dealLink(payload.DealID)
		return c.service.Notify(ctx, NotifyInput{
			UserID:  payload.ArtistID,
			Type:    enums.NotificationTypeDealOffer,
			Title:   "New licensing offer",
			Message: fmt.Sprintf("An exec opened a %s offer on your track.", payload.UsageType),
			Link:    &link,
		})
	case enums.EventDealStateChanged:
		var payload payloads.DealStateChangedEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return fmt.Errorf("decode deal state payload: %w", err)
		}
		return c.notifyCounterparty(ctx, envelope, payload)
	default:
		return nil
	}
}

// notifyCounterparty tells the party who did not act. The actor already
// knows what they did.
func (c *Consumer) notifyCounterparty(ctx context.Context, envelope outbox.PayloadEnvelope, payload payloads.DealStateChangedEvent) error {
	recipient := payload.ArtistID
	if envelope.Actor != nil && envelope.Actor.UserID == payload.ArtistID {
		recipient = payload.ExecID
	}

	notificationType := enums.NotificationTypeDealUpdate
	if payload.Terminal {
		notificationType = enums.NotificationTypeDealClosed
	}

	link := dealLink(payload.DealID)
	return c.service.Notify(ctx, NotifyInput{
		UserID:  recipient,
		Type:    notificationType,
		Title:   fmt.Sprintf("Deal %s", payload.ToState),
		Message: fmt.Sprintf("The other party chose to %s. The deal is now %s.", payload.Action, payload.ToState),
		Link:    &link,
	})
}

func dealLink(dealID uuid.UUID) string {
	return "/deals/" + dealID.String()
}
