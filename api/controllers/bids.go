package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/landhub-backend/api/middleware"
	"github.com/angelmondragon/landhub-backend/api/responses"
	"github.com/angelmondragon/landhub-backend/api/validators"
	"github.com/angelmondragon/landhub-backend/internal/bids"
	pkgerrors "github.com/angelmondragon/landhub-backend/pkg/errors"
	"github.com/angelmondragon/landhub-backend/pkg/logger"
	"github.com/angelmondragon/landhub-backend/pkg/pagination"
)

type placeBidRequest struct {
	ListingID string `json:"listingId" validate:"required,uuid"`
	Amount    int64  `json:"amount" validate:"gt=0"`
}

// PlaceBid records a bid for the caller; rejected attempts surface as BID_TOO_LOW.
func PlaceBid(svc bids.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "bids")
			return
		}
		bidderID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}

		var body placeBidRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listingID, err := uuid.Parse(body.ListingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid listingId"))
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithListingID(ctx, listingID.String())
		}
		bid, err := svc.PlaceBid(ctx, bids.PlaceBidInput{
			ListingID:  listingID,
			BidderID:   bidderID,
			BidderName: middleware.UserNameFromContext(ctx),
			Amount:     body.Amount,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, bids.FromModel(bid))
	}
}

// ListBids returns the full bid history of a listing, newest first.
func ListBids(svc bids.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "bids")
			return
		}
		listingID, err := validators.ParseQueryUUID(r, "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListBidsForListing(r.Context(), listingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bids.ListResult{Bids: bids.FromModels(rows)})
	}
}

func ListMyBids(svc bids.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "bids")
			return
		}
		bidderID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListBidsForBidder(r.Context(), bidderID, pagination.Params{
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

func WithdrawBid(svc bids.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "bids")
			return
		}
		requesterID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		bidID, err := validators.ParseUUIDParam(r, "bidId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		bid, err := svc.WithdrawBid(r.Context(), bidID, requesterID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bids.FromModel(bid))
	}
}

// AcceptBid lets the listing's seller close the sale on the current highest bid.
func AcceptBid(svc bids.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "bids")
			return
		}
		sellerID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		bidID, err := validators.ParseUUIDParam(r, "bidId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		bid, err := svc.AcceptBid(r.Context(), bidID, sellerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bids.FromModel(bid))
	}
}
