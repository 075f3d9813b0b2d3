package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/landhub-backend/api/responses"
	"github.com/angelmondragon/landhub-backend/api/validators"
	"github.com/angelmondragon/landhub-backend/internal/listings"
	"github.com/angelmondragon/landhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/landhub-backend/pkg/errors"
	"github.com/angelmondragon/landhub-backend/pkg/logger"
	"github.com/angelmondragon/landhub-backend/pkg/pagination"
)

type createListingRequest struct {
	Title        string  `json:"title" validate:"required,notblank,min=3,max=200"`
	Description  string  `json:"description" validate:"max=5000"`
	Category     string  `json:"category" validate:"required,oneof=agricultural residential commercial industrial"`
	Location     string  `json:"location" validate:"required,max=300"`
	AreaSqm      float64 `json:"areaSqm" validate:"gt=0"`
	BasePrice    int64   `json:"basePrice" validate:"gt=0"`
	MinIncrement *int64  `json:"minIncrement,omitempty" validate:"omitempty,gt=0"`
}

// ListListings returns active listings matching the search filters, newest first.
func ListListings(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "listings")
			return
		}

		filters := listings.ListFilters{
			Search: validators.SanitizeString(r.URL.Query().Get("search"), 200),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
			category, err := enums.ParseListingCategory(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category").
					WithDetails(map[string]any{"field": "category"}))
				return
			}
			filters.Category = &category
		}

		minPrice, err := validators.ParseQueryInt64(r, "minPrice")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		maxPrice, err := validators.ParseQueryInt64(r, "maxPrice")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if minPrice != nil && maxPrice != nil && *minPrice > *maxPrice {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "minPrice must not exceed maxPrice"))
			return
		}
		filters.MinPrice = minPrice
		filters.MaxPrice = maxPrice

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListListings(r.Context(), filters, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func GetListing(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "listings")
			return
		}
		listingID, err := validators.ParseUUIDParam(r, "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listing, err := svc.GetListing(r.Context(), listingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listings.FromModel(listing))
	}
}

// CreateListing stores a draft listing for the calling seller.
func CreateListing(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "listings")
			return
		}
		sellerID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}

		var body createListingRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listing, err := svc.CreateListing(r.Context(), sellerID, listings.CreateListingInput{
			Title:        validators.SanitizeString(body.Title, 200),
			Description:  validators.SanitizeString(body.Description, 5000),
			Category:     enums.ListingCategory(body.Category),
			Location:     validators.SanitizeString(body.Location, 300),
			AreaSqm:      body.AreaSqm,
			BasePrice:    body.BasePrice,
			MinIncrement: body.MinIncrement,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, listings.FromModel(listing))
	}
}

func WithdrawListing(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "listings")
			return
		}
		sellerID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		listingID, err := validators.ParseUUIDParam(r, "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listing, err := svc.WithdrawListing(r.Context(), listingID, sellerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listings.FromModel(listing))
	}
}

// AdminPublishListing verifies a draft listing and opens it for bidding.
func AdminPublishListing(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "listings")
			return
		}
		listingID, err := validators.ParseUUIDParam(r, "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listing, err := svc.PublishListing(r.Context(), listingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listings.FromModel(listing))
	}
}
