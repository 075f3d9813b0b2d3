package listings

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/landhub-backend/pkg/db/models"
	"github.com/angelmondragon/landhub-backend/pkg/enums"
	"github.com/angelmondragon/landhub-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a listings repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, listing *models.Listing) error {
	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(listing).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&listing).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

// FindByIDForUpdate takes a row lock on Postgres. SQLite serialises writers
// on its own, so the clause is skipped there.
func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var listing models.Listing
	if err := query.Where("id = ?", id).First(&listing).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *repository) List(ctx context.Context, params listListingsParams) ([]models.Listing, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("status = ?", enums.ListingStatusActive)

	if search := strings.ToLower(strings.TrimSpace(params.Search)); search != "" {
		like := "%" + search + "%"
		query = query.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)", like, like)
	}
	if params.Category != nil {
		query = query.Where("category = ?", *params.Category)
	}
	if params.MinPrice != nil {
		query = query.Where("base_price >= ?", *params.MinPrice)
	}
	if params.MaxPrice != nil {
		query = query.Where("base_price <= ?", *params.MaxPrice)
	}
	query = query.Scopes(pagination.Keyset(params.Cursor))

	var rows []models.Listing
	err := query.Limit(params.Limit).Find(&rows).Error
	return rows, err
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.ListingStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":     to,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected == 1, res.Error
}

// SwapHighestBid moves the highest-bid pointer if nobody else changed the row
// since expectedVersion was read. Sold rows are never touched.
func (r *repository) SwapHighestBid(ctx context.Context, id uuid.UUID, expectedVersion int64, bidID *uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ? AND version = ? AND status <> ?", id, expectedVersion, enums.ListingStatusSold).
		Updates(map[string]any{
			"current_highest_bid_id": bidID,
			"version":                gorm.Expr("version + 1"),
			"updated_at":             time.Now().UTC(),
		})
	return res.RowsAffected == 1, res.Error
}

func (r *repository) MarkSold(ctx context.Context, id uuid.UUID, expectedVersion int64, winningBidID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ? AND version = ? AND status = ?", id, expectedVersion, enums.ListingStatusActive).
		Updates(map[string]any{
			"status":                 enums.ListingStatusSold,
			"current_highest_bid_id": winningBidID,
			"version":                gorm.Expr("version + 1"),
			"updated_at":             time.Now().UTC(),
		})
	return res.RowsAffected == 1, res.Error
}

// ReserveBidSequence hands out the next per-listing bid sequence. It must run
// inside the transaction holding the listing lock.
func (r *repository) ReserveBidSequence(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ?", id).
		UpdateColumn("bid_sequence", gorm.Expr("bid_sequence + 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	var seq int64
	err := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ?", id).
		Pluck("bid_sequence", &seq).Error
	return seq, err
}

// ClosedPositions counts the rows a listing withdrawal closed.
type ClosedPositions struct {
	Bids   int64
	Offers int64
}

// CloseOpenPositions rejects the live bids and pending offers of a listing
// and clears its highest-bid pointer. It must run inside the transaction
// that takes the listing off the market.
func (r *repository) CloseOpenPositions(ctx context.Context, id uuid.UUID, now time.Time) (ClosedPositions, error) {
	var closed ClosedPositions
	res := r.db.WithContext(ctx).
		Model(&models.Bid{}).
		Where("listing_id = ? AND status IN ?", id, []enums.BidStatus{enums.BidStatusActive, enums.BidStatusOutbid}).
		Updates(map[string]any{"status": enums.BidStatusRejected, "updated_at": now})
	if res.Error != nil {
		return closed, res.Error
	}
	closed.Bids = res.RowsAffected

	res = r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("listing_id = ? AND status = ?", id, enums.OfferStatusPending).
		Updates(map[string]any{"status": enums.OfferStatusRejected, "updated_at": now})
	if res.Error != nil {
		return closed, res.Error
	}
	closed.Offers = res.RowsAffected

	err := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ? AND status <> ?", id, enums.ListingStatusSold).
		Update("current_highest_bid_id", nil).Error
	return closed, err
}
