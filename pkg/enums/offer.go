package enums

import "fmt"

// OfferStatus maps to the offer_status enum in Postgres.
type OfferStatus string

const (
	OfferStatusPending   OfferStatus = "pending"
	OfferStatusAccepted  OfferStatus = "accepted"
	OfferStatusRejected  OfferStatus = "rejected"
	OfferStatusCountered OfferStatus = "countered"
	OfferStatusWithdrawn OfferStatus = "withdrawn"
)

var offerStatuses = values[OfferStatus]{
	OfferStatusPending,
	OfferStatusAccepted,
	OfferStatusRejected,
	OfferStatusCountered,
	OfferStatusWithdrawn,
}

func (s OfferStatus) String() string { return string(s) }

func (s OfferStatus) IsValid() bool { return offerStatuses.has(s) }

// IsTerminal reports whether the offer can no longer change.
func (s OfferStatus) IsTerminal() bool {
	return s != OfferStatusPending
}

func ParseOfferStatus(value string) (OfferStatus, error) {
	return offerStatuses.parse("offer status", value)
}

// OfferAction is the response a counterparty gives to a pending offer.
type OfferAction string

const (
	OfferActionAccept  OfferAction = "accept"
	OfferActionReject  OfferAction = "reject"
	OfferActionCounter OfferAction = "counter"
)

var offerActionTargets = map[OfferAction]OfferStatus{
	OfferActionAccept:  OfferStatusAccepted,
	OfferActionReject:  OfferStatusRejected,
	OfferActionCounter: OfferStatusCountered,
}

func (a OfferAction) IsValid() bool {
	_, ok := offerActionTargets[a]
	return ok
}

// TargetStatus returns the status a pending offer moves to under a.
func (a OfferAction) TargetStatus() (OfferStatus, bool) {
	status, ok := offerActionTargets[a]
	return status, ok
}

func ParseOfferAction(value string) (OfferAction, error) {
	if action := OfferAction(value); action.IsValid() {
		return action, nil
	}
	return "", fmt.Errorf("invalid offer action %q", value)
}
