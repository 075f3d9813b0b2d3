package bids

import (
	"time"

	"github.com/angelmondragon/landhub-backend/pkg/db/models"
	"github.com/angelmondragon/landhub-backend/pkg/enums"
	"github.com/google/uuid"
)

// PlaceBidInput carries a bidder's attempt. BidderName only decorates
// notifications.
type PlaceBidInput struct {
	ListingID  uuid.UUID
	BidderID   uuid.UUID
	BidderName string
	Amount     int64
}

// BidDTO is the API shape of a bid.
type BidDTO struct {
	ID            uuid.UUID       `json:"id"`
	ListingID     uuid.UUID       `json:"listingId"`
	BidderID      uuid.UUID       `json:"bidderId"`
	Amount        int64           `json:"amount"`
	Status        enums.BidStatus `json:"status"`
	Sequence      int64           `json:"sequence"`
	PreviousBidID *uuid.UUID      `json:"previousBidId,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// ListResult wraps a page of bids.
type ListResult struct {
	Bids       []BidDTO `json:"bids"`
	NextCursor string   `json:"nextCursor,omitempty"`
}

// FromModel converts a bid row into its API shape.
func FromModel(m *models.Bid) BidDTO {
	return BidDTO{
		ID:            m.ID,
		ListingID:     m.ListingID,
		BidderID:      m.BidderID,
		Amount:        m.Amount,
		Status:        m.Status,
		Sequence:      m.Sequence,
		PreviousBidID: m.PreviousBidID,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// FromModels converts rows preserving order.
func FromModels(rows []models.Bid) []BidDTO {
	out := make([]BidDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}
