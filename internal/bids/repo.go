package bids

import (
	"context"
	"time"

	"github.com/angelmondragon/landhub-backend/pkg/db/models"
	"github.com/angelmondragon/landhub-backend/pkg/enums"
	"github.com/angelmondragon/landhub-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

type listBidderParams struct {
	BidderID uuid.UUID
	Limit    int
	Cursor   *pagination.Cursor
}

// NewRepository builds a bids repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, bid *models.Bid) error {
	if bid.ID == uuid.Nil {
		bid.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(bid).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Bid, error) {
	var bid models.Bid
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&bid).Error; err != nil {
		return nil, err
	}
	return &bid, nil
}

// UpdateStatus moves a bid between states only if it is still in from.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.BidStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Bid{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected == 1, res.Error
}

func (r *repository) ListByListing(ctx context.Context, listingID uuid.UUID) ([]models.Bid, error) {
	var rows []models.Bid
	err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("sequence DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListByBidder(ctx context.Context, params listBidderParams) ([]models.Bid, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Bid{}).
		Where("bidder_id = ?", params.BidderID)
	query = query.Scopes(pagination.Keyset(params.Cursor))

	var rows []models.Bid
	err := query.Limit(params.Limit).Find(&rows).Error
	return rows, err
}
