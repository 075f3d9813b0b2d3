package listings

import (
	"time"

	"github.com/angelmondragon/landhub-backend/pkg/db/models"
	"github.com/angelmondragon/landhub-backend/pkg/enums"
	"github.com/angelmondragon/landhub-backend/pkg/pagination"
	"github.com/google/uuid"
)

// CreateListingInput captures a seller's new listing. MinIncrement falls back
// to the configured default when nil.
type CreateListingInput struct {
	Title        string
	Description  string
	Category     enums.ListingCategory
	Location     string
	AreaSqm      float64
	BasePrice    int64
	MinIncrement *int64
}

// ListFilters describe the public listing search.
type ListFilters struct {
	Search   string
	Category *enums.ListingCategory
	MinPrice *int64
	MaxPrice *int64
}

type listListingsParams struct {
	ListFilters
	Limit  int
	Cursor *pagination.Cursor
}

// ListingDTO is the API shape of a listing.
type ListingDTO struct {
	ID                  uuid.UUID             `json:"id"`
	SellerID            uuid.UUID             `json:"sellerId"`
	Title               string                `json:"title"`
	Description         string                `json:"description"`
	Category            enums.ListingCategory `json:"category"`
	Location            string                `json:"location"`
	AreaSqm             float64               `json:"areaSqm"`
	BasePrice           int64                 `json:"basePrice"`
	MinIncrement        int64                 `json:"minIncrement"`
	Status              enums.ListingStatus   `json:"status"`
	CurrentHighestBidID *uuid.UUID            `json:"currentHighestBidId"`
	CreatedAt           time.Time             `json:"createdAt"`
	UpdatedAt           time.Time             `json:"updatedAt"`
}

// ListResult wraps a page of listings plus the cursor for the next page.
type ListResult struct {
	Listings   []ListingDTO `json:"listings"`
	NextCursor string       `json:"nextCursor,omitempty"`
}

// FromModel converts a listing row into its API shape.
func FromModel(m *models.Listing) ListingDTO {
	return ListingDTO{
		ID:                  m.ID,
		SellerID:            m.SellerID,
		Title:               m.Title,
		Description:         m.Description,
		Category:            m.Category,
		Location:            m.Location,
		AreaSqm:             m.AreaSqm,
		BasePrice:           m.BasePrice,
		MinIncrement:        m.MinIncrement,
		Status:              m.Status,
		CurrentHighestBidID: m.CurrentHighestBidID,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}
