package bids

import (
	pkgerrors "github.com/angelmondragon/landhub-backend/pkg/errors"
)

// ReasonNotActive is reported when a bid is no longer the listing's active bid.
const ReasonNotActive = "not_active"

// MinimumDetails is attached to BID_TOO_LOW errors.
type MinimumDetails struct {
	MinimumAcceptable int64 `json:"minimumAcceptable"`
}

func errBidTooLow(minimum int64) error {
	return pkgerrors.New(pkgerrors.CodeBidTooLow, "bid is below the minimum acceptable amount").
		WithDetails(MinimumDetails{MinimumAcceptable: minimum})
}

func errBidNotFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "bid not found")
}

func errBidNotActive() error {
	return pkgerrors.Conflict(ReasonNotActive, "bid is not the active bid on this listing")
}
