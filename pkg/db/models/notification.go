package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/landhub-backend/pkg/enums"
)

// Notification is one inbox entry. EventID ties it to the outbox event that
// produced it, so a redelivered event never creates a second row.
type Notification struct {
	ID        uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID              `gorm:"type:uuid;not null"`
	EventID   *uuid.UUID             `gorm:"type:uuid"`
	ListingID *uuid.UUID             `gorm:"type:uuid"`
	Type      enums.NotificationType `gorm:"type:notification_type;not null"`
	Title     string                 `gorm:"type:text;not null"`
	Message   string                 `gorm:"type:text;not null"`
	ReadAt    *time.Time             `gorm:"type:timestamptz"`
	CreatedAt time.Time              `gorm:"type:timestamptz;autoCreateTime"`
}

func (Notification) TableName() string { return "notifications" }

func (n Notification) IsRead() bool { return n.ReadAt != nil }
