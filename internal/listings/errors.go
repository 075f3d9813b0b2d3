package listings

import (
	"errors"

	pkgerrors "github.com/angelmondragon/landhub-backend/pkg/errors"
)

// Conflict reasons reported in error details.
const (
	ReasonListingNotActive  = "listing_not_active"
	ReasonInvalidTransition = "invalid_transition"
	ReasonAlreadySold       = "already_sold"
	ReasonNotActive         = "not_active"
)

// ErrVersionConflict is returned when a listing row changed between read and
// write. Callers roll back and re-evaluate.
var ErrVersionConflict = errors.New("listing version conflict")

func errListingNotFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
}

// ListingNotActive reports that the listing does not accept bids or offers.
func ListingNotActive() error {
	return pkgerrors.Conflict(ReasonListingNotActive, "listing is not accepting bids or offers")
}

func errInvalidTransition(from, to string) error {
	return pkgerrors.Conflict(ReasonInvalidTransition, "listing cannot move from "+from+" to "+to)
}

// AlreadySold reports that the listing already has a winner.
func AlreadySold() error {
	return pkgerrors.Conflict(ReasonAlreadySold, "listing already sold")
}

// NotActive reports that the listing is not in the active state.
func NotActive() error {
	return pkgerrors.Conflict(ReasonNotActive, "listing is not active")
}

// ReasonConcurrentUpdate is reported when optimistic retries run out.
const ReasonConcurrentUpdate = "concurrent_update"

// ConcurrentUpdate reports that the listing kept changing underneath the
// caller.
func ConcurrentUpdate() error {
	return pkgerrors.Conflict(ReasonConcurrentUpdate, "listing changed concurrently, retry the request")
}
