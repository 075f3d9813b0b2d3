package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/landhub-backend/pkg/enums"
)

// Offer is a negotiated price proposal. BuyerID always names the buyer side
// of the negotiation, including on seller-originated counters.
type Offer struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ListingID        uuid.UUID         `gorm:"column:listing_id;type:uuid;not null"`
	BuyerID          uuid.UUID         `gorm:"column:buyer_id;type:uuid;not null"`
	Amount           int64             `gorm:"column:amount;not null"`
	Message          string            `gorm:"column:message;type:text;not null;default:''"`
	Status           enums.OfferStatus `gorm:"column:status;type:offer_status;not null"`
	SellerOriginated bool              `gorm:"column:seller_originated;not null;default:false"`
	CounterOfID      *uuid.UUID        `gorm:"column:counter_of_id;type:uuid"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Offer) TableName() string { return "offers" }
