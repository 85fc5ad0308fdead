package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/syncdeck/syncdeck-backend/pkg/config"
	"github.com/syncdeck/syncdeck-backend/pkg/enums"
	"github.com/syncdeck/syncdeck-backend/pkg/logger"
)

// Event is the payload fanned out to live subscribers when a deal changes.
type Event struct {
	DealID    uuid.UUID        `json:"deal_id"`
	Action    enums.DealAction `json:"action"`
	FromState enums.DealState  `json:"from_state"`
	ToState   enums.DealState  `json:"to_state"`
	ActorID   uuid.UUID        `json:"actor_id"`
	At        time.Time        `json:"at"`
}

// Notifier pushes deal events to whoever is watching a deal channel.
// Delivery is best effort; the outbox carries the durable copy.
type Notifier interface {
	NotifyDeal(ctx context.Context, event Event)
}

type publisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// RedisNotifier publishes deal events on per-deal Redis channels.
type RedisNotifier struct {
	pub    publisher
	prefix string
	logg   *logger.Logger
}

// NewRedisNotifier wires a notifier over the shared Redis client.
func NewRedisNotifier(pub publisher, cfg config.BroadcastConfig, logg *logger.Logger) (*RedisNotifier, error) {
	if pub == nil {
		return nil, fmt.Errorf("redis publisher is required")
	}
	prefix := strings.TrimSuffix(cfg.ChannelPrefix, ":")
	if prefix == "" {
		return nil, fmt.Errorf("broadcast channel prefix is required")
	}
	return &RedisNotifier{pub: pub, prefix: prefix, logg: logg}, nil
}

// Channel returns the pub/sub channel name for one deal.
func (n *RedisNotifier) Channel(dealID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", n.prefix, dealID)
}

// NotifyDeal serializes and publishes the event. Failures are logged and
// swallowed so a Redis hiccup never rolls back a committed transition.
func (n *RedisNotifier) NotifyDeal(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		if n.logg != nil {
			n.logg.Error(ctx, "marshal deal broadcast", err)
		}
		return
	}
	if err := n.pub.Publish(ctx, n.Channel(event.DealID), payload); err != nil {
		if n.logg != nil {
			n.logg.Error(n.logg.WithDealID(ctx, event.DealID.String()), "publish deal broadcast", err)
		}
	}
}

// NopNotifier discards events. Used where live fan-out is not configured.
type NopNotifier struct{}

func (NopNotifier) NotifyDeal(context.Context, Event) {}
