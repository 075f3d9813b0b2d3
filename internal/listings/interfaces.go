package listings

import (
	"context"
	"time"

	"github.com/angelmondragon/landhub-backend/pkg/db/models"
	"github.com/angelmondragon/landhub-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the listings table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, listing *models.Listing) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	List(ctx context.Context, params listListingsParams) ([]models.Listing, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.ListingStatus) (bool, error)
	SwapHighestBid(ctx context.Context, id uuid.UUID, expectedVersion int64, bidID *uuid.UUID) (bool, error)
	MarkSold(ctx context.Context, id uuid.UUID, expectedVersion int64, winningBidID uuid.UUID) (bool, error)
	ReserveBidSequence(ctx context.Context, id uuid.UUID) (int64, error)
	CloseOpenPositions(ctx context.Context, id uuid.UUID, now time.Time) (ClosedPositions, error)
}
