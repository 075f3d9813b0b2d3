package offers

import (
	"time"

	"github.com/angelmondragon/landhub-backend/pkg/db/models"
	"github.com/angelmondragon/landhub-backend/pkg/enums"
	"github.com/google/uuid"
)

// MakeOfferInput carries a buyer's opening offer.
type MakeOfferInput struct {
	ListingID uuid.UUID
	BuyerID   uuid.UUID
	BuyerName string
	Amount    int64
	Message   string
}

// RespondInput carries the counterparty's answer to a pending offer.
// CounterAmount is required for counters only.
type RespondInput struct {
	OfferID       uuid.UUID
	ActorID       uuid.UUID
	ActorName     string
	Action        enums.OfferAction
	CounterAmount *int64
	Message       string
}

// OfferDTO is the API shape of an offer.
type OfferDTO struct {
	ID               uuid.UUID         `json:"id"`
	ListingID        uuid.UUID         `json:"listingId"`
	BuyerID          uuid.UUID         `json:"buyerId"`
	Amount           int64             `json:"amount"`
	Message          string            `json:"message,omitempty"`
	Status           enums.OfferStatus `json:"status"`
	SellerOriginated bool              `json:"sellerOriginated"`
	CounterOfID      *uuid.UUID        `json:"counterOfId,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// FromModel converts an offer row into its API shape.
func FromModel(m *models.Offer) OfferDTO {
	return OfferDTO{
		ID:               m.ID,
		ListingID:        m.ListingID,
		BuyerID:          m.BuyerID,
		Amount:           m.Amount,
		Message:          m.Message,
		Status:           m.Status,
		SellerOriginated: m.SellerOriginated,
		CounterOfID:      m.CounterOfID,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// FromModels converts rows preserving order.
func FromModels(rows []models.Offer) []OfferDTO {
	out := make([]OfferDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}
