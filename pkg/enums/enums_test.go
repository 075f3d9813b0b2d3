package enums

import "testing"

func TestListingStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to ListingStatus
		want     bool
	}{
		{ListingStatusDraft, ListingStatusActive, true},
		{ListingStatusDraft, ListingStatusInactive, true},
		{ListingStatusActive, ListingStatusSold, true},
		{ListingStatusActive, ListingStatusInactive, true},
		{ListingStatusDraft, ListingStatusSold, false},
		{ListingStatusSold, ListingStatusActive, false},
		{ListingStatusSold, ListingStatusInactive, false},
		{ListingStatusInactive, ListingStatusActive, false},
		{ListingStatusActive, ListingStatusDraft, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Fatalf("%s -> %s: expected %v got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestBidStatusTransitions(t *testing.T) {
	if !BidStatusActive.CanTransitionTo(BidStatusOutbid) {
		t.Fatal("active bid should be demotable")
	}
	if !BidStatusOutbid.CanTransitionTo(BidStatusActive) {
		t.Fatal("outbid bid should be restorable")
	}
	if !BidStatusActive.CanTransitionTo(BidStatusRejected) || !BidStatusOutbid.CanTransitionTo(BidStatusRejected) {
		t.Fatal("live bids should close when their listing is withdrawn")
	}
	for _, terminal := range []BidStatus{BidStatusWithdrawn, BidStatusWon, BidStatusRejected} {
		for _, next := range bidStatuses {
			if terminal.CanTransitionTo(next) {
				t.Fatalf("%s must be terminal, allowed -> %s", terminal, next)
			}
		}
	}
}

func TestParseHelpers(t *testing.T) {
	if _, err := ParseListingStatus("sold"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseListingStatus("archived"); err == nil {
		t.Fatal("expected error for unknown listing status")
	}
	if _, err := ParseListingCategory("farm"); err == nil {
		t.Fatal("expected error for unknown category")
	}
	if role, err := ParseUserRole("seller"); err != nil || role != UserRoleSeller {
		t.Fatalf("unexpected role parse result %q %v", role, err)
	}
	if _, err := ParseOfferAction("ignore"); err == nil {
		t.Fatal("expected error for unknown offer action")
	}
}

func TestOfferActionTargets(t *testing.T) {
	cases := map[OfferAction]OfferStatus{
		OfferActionAccept:  OfferStatusAccepted,
		OfferActionReject:  OfferStatusRejected,
		OfferActionCounter: OfferStatusCountered,
	}
	for action, want := range cases {
		got, ok := action.TargetStatus()
		if !ok || got != want {
			t.Fatalf("%s: expected %s got %s", action, want, got)
		}
	}
	if OfferStatusPending.IsTerminal() {
		t.Fatal("pending must not be terminal")
	}
	if !OfferStatusWithdrawn.IsTerminal() {
		t.Fatal("withdrawn must be terminal")
	}
}

func TestOutboxEventTypesMapToNotifications(t *testing.T) {
	for _, evt := range eventTypes {
		if !evt.NotificationType().IsValid() {
			t.Fatalf("event %s has no notification type", evt)
		}
	}
}

func TestParseErrorNamesKind(t *testing.T) {
	_, err := ParseOutboxDLQErrorReason("timeout")
	if err == nil || err.Error() != `invalid dlq error reason "timeout"` {
		t.Fatalf("unexpected error %v", err)
	}
	if r, err := ParseOutboxDLQErrorReason("max_attempts"); err != nil || r != OutboxDLQReasonMaxAttempts {
		t.Fatalf("unexpected parse result %q %v", r, err)
	}
}
