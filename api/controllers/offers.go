package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/landhub-backend/api/middleware"
	"github.com/angelmondragon/landhub-backend/api/responses"
	"github.com/angelmondragon/landhub-backend/api/validators"
	"github.com/angelmondragon/landhub-backend/internal/offers"
	"github.com/angelmondragon/landhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/landhub-backend/pkg/errors"
	"github.com/angelmondragon/landhub-backend/pkg/logger"
)

type makeOfferRequest struct {
	ListingID string `json:"listingId" validate:"required,uuid"`
	Amount    int64  `json:"amount" validate:"gt=0"`
	Message   string `json:"message" validate:"max=2000"`
}

type respondOfferRequest struct {
	Action        string `json:"action" validate:"required,oneof=accept reject counter"`
	CounterAmount *int64 `json:"counterAmount,omitempty" validate:"required_if=Action counter,omitempty,gt=0"`
	Message       string `json:"message" validate:"max=2000"`
}

type offerListResponse struct {
	Offers []offers.OfferDTO `json:"offers"`
}

func MakeOffer(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "offers")
			return
		}
		buyerID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}

		var body makeOfferRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listingID, err := uuid.Parse(body.ListingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid listingId"))
			return
		}

		offer, err := svc.MakeOffer(r.Context(), offers.MakeOfferInput{
			ListingID: listingID,
			BuyerID:   buyerID,
			BuyerName: middleware.UserNameFromContext(r.Context()),
			Amount:    body.Amount,
			Message:   validators.SanitizeString(body.Message, 2000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, offers.FromModel(offer))
	}
}

// ListOffers returns the offers on a listing visible to the caller.
func ListOffers(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "offers")
			return
		}
		actorID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		listingID, err := validators.ParseQueryUUID(r, "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListOffersForListing(r.Context(), listingID, actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, offerListResponse{Offers: offers.FromModels(rows)})
	}
}

func GetOffer(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "offers")
			return
		}
		actorID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		offerID, err := validators.ParseUUIDParam(r, "offerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offer, err := svc.GetOffer(r.Context(), offerID, actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, offers.FromModel(offer))
	}
}

// RespondOffer accepts, rejects or counters a pending offer. A counter
// returns the new pending offer.
func RespondOffer(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "offers")
			return
		}
		actorID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		offerID, err := validators.ParseUUIDParam(r, "offerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body respondOfferRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offer, err := svc.Respond(r.Context(), offers.RespondInput{
			OfferID:       offerID,
			ActorID:       actorID,
			ActorName:     middleware.UserNameFromContext(r.Context()),
			Action:        enums.OfferAction(body.Action),
			CounterAmount: body.CounterAmount,
			Message:       validators.SanitizeString(body.Message, 2000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, offers.FromModel(offer))
	}
}

func WithdrawOffer(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "offers")
			return
		}
		buyerID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		offerID, err := validators.ParseUUIDParam(r, "offerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offer, err := svc.Withdraw(r.Context(), offerID, buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, offers.FromModel(offer))
	}
}
