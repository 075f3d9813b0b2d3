package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/landhub-backend/pkg/enums"
)

// Listing is a land parcel offered for sale. Prices are stored in the
// smallest currency unit.
type Listing struct {
	ID                  uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID            uuid.UUID             `gorm:"column:seller_id;type:uuid;not null"`
	Title               string                `gorm:"column:title;not null"`
	Description         string                `gorm:"column:description;type:text;not null;default:''"`
	Category            enums.ListingCategory `gorm:"column:category;type:listing_category;not null"`
	Location            string                `gorm:"column:location;not null"`
	AreaSqm             float64               `gorm:"column:area_sqm;not null"`
	BasePrice           int64                 `gorm:"column:base_price;not null"`
	MinIncrement        int64                 `gorm:"column:min_increment;not null"`
	Status              enums.ListingStatus   `gorm:"column:status;type:listing_status;not null;default:'draft'"`
	CurrentHighestBidID *uuid.UUID            `gorm:"column:current_highest_bid_id;type:uuid"`
	Version             int64                 `gorm:"column:version;not null;default:0"`
	BidSequence         int64                 `gorm:"column:bid_sequence;not null;default:0"`
	CreatedAt           time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (Listing) TableName() string { return "listings" }
