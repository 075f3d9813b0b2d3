package fanout

import (
	"context"
	"time"

	"github.com/angelmondragon/landhub-backend/pkg/enums"
	"github.com/google/uuid"
)

// Event is a notification request produced after a ledger transaction commits.
type Event struct {
	Type         enums.NotificationType `json:"type"`
	TargetUserID uuid.UUID              `json:"targetUserId"`
	ListingID    uuid.UUID              `json:"listingId"`
	ListingTitle string                 `json:"listingTitle,omitempty"`
	Payload      Payload                `json:"payload"`
	OccurredAt   time.Time              `json:"occurredAt"`
}

// Payload carries the type-specific fields of an Event.
type Payload struct {
	Amount    int64      `json:"amount"`
	ActorName string     `json:"actorName,omitempty"`
	BidID     *uuid.UUID `json:"bidId,omitempty"`
	OfferID   *uuid.UUID `json:"offerId,omitempty"`
	Status    string     `json:"status,omitempty"`
}

// Publisher accepts events without blocking or failing the caller.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Sink delivers a single event somewhere durable or realtime.
type Sink interface {
	Deliver(ctx context.Context, event Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}
