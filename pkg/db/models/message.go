package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is one entry in a conversation between two users. ConversationID
// is derived from the participants and the listing, so both sides of a
// thread resolve to the same id.
type Message struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ConversationID uuid.UUID  `gorm:"column:conversation_id;type:uuid;not null"`
	ListingID      *uuid.UUID `gorm:"column:listing_id;type:uuid"`
	SenderID       uuid.UUID  `gorm:"column:sender_id;type:uuid;not null"`
	RecipientID    uuid.UUID  `gorm:"column:recipient_id;type:uuid;not null"`
	Body           string     `gorm:"column:body;type:text;not null"`
	ReadAt         *time.Time `gorm:"column:read_at;type:timestamptz"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (Message) TableName() string { return "messages" }

func (m Message) IsRead() bool { return m.ReadAt != nil }
