package fanout

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/angelmondragon/landhub-backend/pkg/enums"
	"github.com/angelmondragon/landhub-backend/pkg/outbox"
	"github.com/angelmondragon/landhub-backend/pkg/outbox/payloads"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

// DefaultChannelPrefix is the Redis channel namespace for realtime delivery.
const DefaultChannelPrefix = "lh:notifications"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.Event) error
}

// OutboxSink stores each event as an outbox row so the notification relay
// can turn it into an in-app notification.
type OutboxSink struct {
	tx     txRunner
	outbox outboxEmitter
}

func NewOutboxSink(tx txRunner, emitter outboxEmitter) (*OutboxSink, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &OutboxSink{tx: tx, outbox: emitter}, nil
}

func (s *OutboxSink) Deliver(ctx context.Context, event Event) error {
	eventType := enums.OutboxEventType(event.Type)
	if !eventType.IsValid() {
		return fmt.Errorf("unsupported notification type %q", event.Type)
	}
	data := payloads.NotificationEvent{
		TargetUserID: event.TargetUserID,
		ListingID:    event.ListingID,
		ListingTitle: event.ListingTitle,
		Amount:       event.Payload.Amount,
		ActorName:    event.Payload.ActorName,
		BidID:        event.Payload.BidID,
		OfferID:      event.Payload.OfferID,
		Status:       event.Payload.Status,
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.outbox.Emit(ctx, tx, outbox.Event{
			EventType:     eventType,
			AggregateType: enums.AggregateListing,
			AggregateID:   event.ListingID,
			Data:          data,
			OccurredAt:    event.OccurredAt,
		})
	})
}

type redisPublisher interface {
	Publish(ctx context.Context, channel string, message any) (int64, error)
}

// RedisSink publishes each event as JSON on the target user's channel.
type RedisSink struct {
	client redisPublisher
	prefix string
}

func NewRedisSink(client redisPublisher, prefix string) (*RedisSink, error) {
	if client == nil {
		return nil, fmt.Errorf("redis publisher required")
	}
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}
	return &RedisSink{client: client, prefix: prefix}, nil
}

// Channel returns the channel subscribers of userID listen on.
func (s *RedisSink) Channel(event Event) string {
	return s.prefix + ":" + event.TargetUserID.String()
}

func (s *RedisSink) Deliver(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = s.client.Publish(ctx, s.Channel(event), body)
	return err
}

// MultiSink delivers to every sink and merges their errors.
type MultiSink []Sink

func (m MultiSink) Deliver(ctx context.Context, event Event) error {
	var err error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		err = multierr.Append(err, sink.Deliver(ctx, event))
	}
	return err
}
