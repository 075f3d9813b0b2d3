package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/landhub-backend/pkg/enums"
)

// Bid is one entry in a listing's bid ledger. Rows are never deleted.
type Bid struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ListingID     uuid.UUID       `gorm:"column:listing_id;type:uuid;not null"`
	BidderID      uuid.UUID       `gorm:"column:bidder_id;type:uuid;not null"`
	Amount        int64           `gorm:"column:amount;not null"`
	Status        enums.BidStatus `gorm:"column:status;type:bid_status;not null"`
	Sequence      int64           `gorm:"column:sequence;not null"`
	PreviousBidID *uuid.UUID      `gorm:"column:previous_bid_id;type:uuid"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Bid) TableName() string { return "bids" }
