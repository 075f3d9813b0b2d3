package enums

// ListingStatus maps to the listing_status enum in Postgres.
type ListingStatus string

const (
	ListingStatusDraft    ListingStatus = "draft"
	ListingStatusActive   ListingStatus = "active"
	ListingStatusSold     ListingStatus = "sold"
	ListingStatusInactive ListingStatus = "inactive"
)

var listingStatuses = values[ListingStatus]{
	ListingStatusDraft,
	ListingStatusActive,
	ListingStatusSold,
	ListingStatusInactive,
}

// Sold and inactive are final.
var listingTransitions = transitions[ListingStatus]{
	ListingStatusDraft:  {ListingStatusActive, ListingStatusInactive},
	ListingStatusActive: {ListingStatusSold, ListingStatusInactive},
}

func (s ListingStatus) String() string { return string(s) }

func (s ListingStatus) IsValid() bool { return listingStatuses.has(s) }

// CanTransitionTo reports whether the listing state machine allows s -> next.
func (s ListingStatus) CanTransitionTo(next ListingStatus) bool {
	return listingTransitions.allows(s, next)
}

func ParseListingStatus(value string) (ListingStatus, error) {
	return listingStatuses.parse("listing status", value)
}

// ListingCategory maps to the listing_category enum in Postgres.
type ListingCategory string

const (
	ListingCategoryAgricultural ListingCategory = "agricultural"
	ListingCategoryResidential  ListingCategory = "residential"
	ListingCategoryCommercial   ListingCategory = "commercial"
	ListingCategoryIndustrial   ListingCategory = "industrial"
)

var listingCategories = values[ListingCategory]{
	ListingCategoryAgricultural,
	ListingCategoryResidential,
	ListingCategoryCommercial,
	ListingCategoryIndustrial,
}

func (c ListingCategory) IsValid() bool { return listingCategories.has(c) }

func ParseListingCategory(value string) (ListingCategory, error) {
	return listingCategories.parse("listing category", value)
}
