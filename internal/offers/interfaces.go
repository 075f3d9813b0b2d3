package offers

import (
	"context"

	"github.com/angelmondragon/landhub-backend/pkg/db/models"
	"github.com/angelmondragon/landhub-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for offers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, offer *models.Offer) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	FindPending(ctx context.Context, listingID, buyerID uuid.UUID) (*models.Offer, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OfferStatus) (bool, error)
	ListByListing(ctx context.Context, listingID uuid.UUID, buyerID *uuid.UUID) ([]models.Offer, error)
	ListPendingByListing(ctx context.Context, listingID uuid.UUID) ([]models.Offer, error)
}
