package registry

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/landhub-backend/pkg/db/models"
	"github.com/angelmondragon/landhub-backend/pkg/enums"
	"github.com/angelmondragon/landhub-backend/pkg/outbox"
	"github.com/angelmondragon/landhub-backend/pkg/outbox/payloads"
)

// ErrPermanent marks failures that retrying cannot fix. The relay
// dead-letters such rows straight away.
var ErrPermanent = errors.New("permanent outbox failure")

// Permanent tags err with ErrPermanent while keeping it in the chain.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// IsPermanent reports whether err was tagged by Permanent.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanent)
}

// descriptor links an event type to its aggregate and payload schema.
type descriptor struct {
	aggregate enums.OutboxAggregateType
	payload   func() any
}

// ResolvedEvent is a validated outbox row with its decoded payload.
type ResolvedEvent struct {
	Envelope outbox.Envelope
	Payload  any
}

// EventRegistry knows how to decode every event type the relay handles.
type EventRegistry struct {
	entries map[enums.OutboxEventType]descriptor
}

// NewEventRegistry registers the bid and offer notification events. All of
// them are keyed by listing and share the NotificationEvent payload.
func NewEventRegistry() *EventRegistry {
	notification := descriptor{
		aggregate: enums.AggregateListing,
		payload:   func() any { return &payloads.NotificationEvent{} },
	}
	return &EventRegistry{entries: map[enums.OutboxEventType]descriptor{
		enums.EventBidPlaced:     notification,
		enums.EventBidOutbid:     notification,
		enums.EventOfferReceived: notification,
		enums.EventOfferResolved: notification,
	}}
}

// Resolve validates the row and decodes its payload. Every error it returns
// is permanent.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	switch {
	case !ok:
		return nil, Permanent(fmt.Errorf("unsupported event type %s", event.EventType))
	case desc.aggregate != event.AggregateType:
		return nil, Permanent(fmt.Errorf("aggregate mismatch: expected %s got %s", desc.aggregate, event.AggregateType))
	case event.AggregateID == uuid.Nil:
		return nil, Permanent(errors.New("missing aggregate_id"))
	}

	env, err := outbox.ParseEnvelope(event.Payload)
	if err != nil {
		return nil, Permanent(err)
	}
	payload := desc.payload()
	if err := env.DecodeData(payload); err != nil {
		return nil, Permanent(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}
	return &ResolvedEvent{Envelope: env, Payload: payload}, nil
}
