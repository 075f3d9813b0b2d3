package payloads

import (
	"github.com/google/uuid"
)

// NotificationEvent is the data stored for every bid/offer notification
// request. The outbox event type carries the kind.
type NotificationEvent struct {
	TargetUserID uuid.UUID  `json:"targetUserId"`
	ListingID    uuid.UUID  `json:"listingId"`
	ListingTitle string     `json:"listingTitle,omitempty"`
	Amount       int64      `json:"amount"`
	ActorName    string     `json:"actorName,omitempty"`
	BidID        *uuid.UUID `json:"bidId,omitempty"`
	OfferID      *uuid.UUID `json:"offerId,omitempty"`
	Status       string     `json:"status,omitempty"`
}
