package messages

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/landhub-backend/pkg/db/models"
	"github.com/angelmondragon/landhub-backend/pkg/pagination"
)

// Repository persists direct messages.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ThreadQuery selects one page of a conversation, oldest first, as seen by
// a participant.
type ThreadQuery struct {
	ConversationID uuid.UUID
	ParticipantID  uuid.UUID
	Limit          int
	Cursor         *pagination.Cursor
}

func (r *Repository) Create(ctx context.Context, m *models.Message) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(m).Error
}

// ListThread returns up to q.Limit rows of the conversation that q's
// participant sent or received.
func (r *Repository) ListThread(ctx context.Context, q ThreadQuery) ([]models.Message, error) {
	var rows []models.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", q.ConversationID).
		Where("sender_id = ? OR recipient_id = ?", q.ParticipantID, q.ParticipantID).
		Scopes(pagination.KeysetAscending(q.Cursor)).
		Limit(q.Limit).
		Find(&rows).Error
	return rows, err
}

// MarkRead stamps read_at on a message addressed to recipientID. found is
// false when recipientID did not receive it.
func (r *Repository) MarkRead(ctx context.Context, recipientID, id uuid.UUID, now time.Time) (found bool, err error) {
	res := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		UpdateColumn("read_at", gorm.Expr("COALESCE(read_at, ?)", now))
	return res.RowsAffected > 0, res.Error
}

// MarkThreadRead stamps every unread message of the conversation addressed
// to recipientID.
func (r *Repository) MarkThreadRead(ctx context.Context, recipientID, conversationID uuid.UUID, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("conversation_id = ? AND recipient_id = ? AND read_at IS NULL", conversationID, recipientID).
		UpdateColumn("read_at", now)
	return res.RowsAffected, res.Error
}

func (r *Repository) CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("recipient_id = ? AND read_at IS NULL", recipientID).
		Count(&n).Error
	return n, err
}
