package offers

import (
	"context"
	"time"

	"github.com/angelmondragon/landhub-backend/pkg/db/models"
	"github.com/angelmondragon/landhub-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an offers repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, offer *models.Offer) error {
	if offer.ID == uuid.Nil {
		offer.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(offer).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&offer).Error; err != nil {
		return nil, err
	}
	return &offer, nil
}

// FindPending returns the open offer for (listing, buyer) or
// gorm.ErrRecordNotFound.
func (r *repository) FindPending(ctx context.Context, listingID, buyerID uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	err := r.db.WithContext(ctx).
		Where("listing_id = ? AND buyer_id = ? AND status = ?", listingID, buyerID, enums.OfferStatusPending).
		First(&offer).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OfferStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected == 1, res.Error
}

func (r *repository) ListByListing(ctx context.Context, listingID uuid.UUID, buyerID *uuid.UUID) ([]models.Offer, error) {
	query := r.db.WithContext(ctx).Where("listing_id = ?", listingID)
	if buyerID != nil {
		query = query.Where("buyer_id = ?", *buyerID)
	}
	var rows []models.Offer
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListPendingByListing(ctx context.Context, listingID uuid.UUID) ([]models.Offer, error) {
	var rows []models.Offer
	err := r.db.WithContext(ctx).
		Where("listing_id = ? AND status = ?", listingID, enums.OfferStatusPending).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}
