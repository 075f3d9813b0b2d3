package documents

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/landhub-backend/pkg/db/models"
	"github.com/angelmondragon/landhub-backend/pkg/enums"
)

// Repository persists document metadata.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, d *models.Document) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(d).Error
}

// FindByID returns nil without error when the document does not exist.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	var d models.Document
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListByListing returns a listing's documents, newest first. An empty
// statuses slice returns every status.
func (r *Repository) ListByListing(ctx context.Context, listingID uuid.UUID, statuses []enums.DocumentStatus) ([]models.Document, error) {
	query := r.db.WithContext(ctx).Where("listing_id = ?", listingID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	var rows []models.Document
	err := query.Order("created_at DESC").Order("id DESC").Find(&rows).Error
	return rows, err
}

// Review moves a document out of from. ok is false when another review won.
func (r *Repository) Review(ctx context.Context, id uuid.UUID, from, to enums.DocumentStatus, reviewerID uuid.UUID, reason string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":           to,
			"reviewed_by":      reviewerID,
			"reviewed_at":      now,
			"rejection_reason": reason,
			"updated_at":       now,
		})
	return res.RowsAffected == 1, res.Error
}

// Delete removes a document unless it has been verified.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status <> ?", id, enums.DocumentStatusVerified).
		Delete(&models.Document{})
	return res.RowsAffected == 1, res.Error
}
