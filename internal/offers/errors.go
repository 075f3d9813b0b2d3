package offers

import (
	pkgerrors "github.com/angelmondragon/landhub-backend/pkg/errors"
)

// Conflict reasons reported in error details.
const (
	ReasonDuplicatePendingOffer = "duplicate_pending_offer"
	ReasonInvalidState          = "invalid_state"
)

func errOfferNotFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
}

func errDuplicatePending() error {
	return pkgerrors.Conflict(ReasonDuplicatePendingOffer, "a pending offer already exists for this listing")
}

func errInvalidState(message string) error {
	return pkgerrors.Conflict(ReasonInvalidState, message)
}
