package bids

import (
	"context"

	"github.com/angelmondragon/landhub-backend/pkg/db/models"
	"github.com/angelmondragon/landhub-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the bid ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, bid *models.Bid) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Bid, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.BidStatus) (bool, error)
	ListByListing(ctx context.Context, listingID uuid.UUID) ([]models.Bid, error)
	ListByBidder(ctx context.Context, params listBidderParams) ([]models.Bid, error)
}
