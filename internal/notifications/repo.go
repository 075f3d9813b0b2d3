package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/landhub-backend/pkg/db/models"
	"github.com/angelmondragon/landhub-backend/pkg/pagination"
)

// Repository persists in-app notifications.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListQuery selects one page of a user's notifications, newest first.
type ListQuery struct {
	UserID     uuid.UUID
	Limit      int
	Cursor     *pagination.Cursor
	UnreadOnly bool
}

// WithTx binds the repository to tx; a nil tx keeps the current handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// CreateOnce inserts n unless a notification already exists for its event
// id, and reports whether a row was written.
func (r *Repository) CreateOnce(ctx context.Context, n *models.Notification) (bool, error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(n)
	return res.RowsAffected > 0, res.Error
}

// List returns up to q.Limit rows. Callers ask for one extra row and split
// the page themselves.
func (r *Repository) List(ctx context.Context, q ListQuery) ([]models.Notification, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", q.UserID)
	if q.UnreadOnly {
		query = query.Where("read_at IS NULL")
	}
	var rows []models.Notification
	err := query.Scopes(pagination.Keyset(q.Cursor)).Limit(q.Limit).Find(&rows).Error
	return rows, err
}

// MarkRead stamps read_at on one of userID's notifications. An already read
// row keeps its first timestamp. found is false when no such row exists for
// the user.
func (r *Repository) MarkRead(ctx context.Context, userID, id uuid.UUID, now time.Time) (found bool, err error) {
	res := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		UpdateColumn("read_at", gorm.Expr("COALESCE(read_at, ?)", now))
	return res.RowsAffected > 0, res.Error
}

// MarkAllRead stamps every unread notification of userID and returns how
// many changed.
func (r *Repository) MarkAllRead(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		UpdateColumn("read_at", now)
	return res.RowsAffected, res.Error
}

// DeleteReadBefore purges notifications read before cutoff. Unread rows are
// never removed.
func (r *Repository) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("read_at IS NOT NULL AND read_at < ?", cutoff).
		Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}
