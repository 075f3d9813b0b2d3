package enums

// BidStatus maps to the bid_status enum in Postgres.
type BidStatus string

const (
	BidStatusActive    BidStatus = "active"
	BidStatusOutbid    BidStatus = "outbid"
	BidStatusWithdrawn BidStatus = "withdrawn"
	BidStatusWon       BidStatus = "won"
	// BidStatusRejected records attempts that never became active and bids
	// closed by a listing withdrawal.
	BidStatusRejected BidStatus = "rejected"
)

var bidStatuses = values[BidStatus]{
	BidStatusActive,
	BidStatusOutbid,
	BidStatusWithdrawn,
	BidStatusWon,
	BidStatusRejected,
}

// outbid -> active is the restore path taken when the bid that displaced it
// is withdrawn.
var bidTransitions = transitions[BidStatus]{
	BidStatusActive: {BidStatusOutbid, BidStatusWithdrawn, BidStatusWon, BidStatusRejected},
	BidStatusOutbid: {BidStatusActive, BidStatusRejected},
}

func (s BidStatus) String() string { return string(s) }

func (s BidStatus) IsValid() bool { return bidStatuses.has(s) }

// CanTransitionTo reports whether the bid state machine allows s -> next.
func (s BidStatus) CanTransitionTo(next BidStatus) bool {
	return bidTransitions.allows(s, next)
}

func ParseBidStatus(value string) (BidStatus, error) {
	return bidStatuses.parse("bid status", value)
}
