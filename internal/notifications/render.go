package notifications

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/landhub-backend/pkg/enums"
	"github.com/angelmondragon/landhub-backend/pkg/outbox/payloads"
	"github.com/shopspring/decimal"
)

// Render builds the title and message shown for a notification event.
func Render(kind enums.NotificationType, event payloads.NotificationEvent) (string, string, error) {
	listing := strings.TrimSpace(event.ListingTitle)
	if listing == "" {
		listing = "your listing"
	}
	actor := strings.TrimSpace(event.ActorName)
	amount := FormatAmount(event.Amount)

	switch kind {
	case enums.NotificationTypeBidPlaced:
		return "New bid on " + listing, fmt.Sprintf("%s bid %s on %s.", orDefault(actor, "A buyer"), amount, listing), nil
	case enums.NotificationTypeBidOutbid:
		if event.Status == string(enums.ListingStatusSold) {
			return "Listing sold", fmt.Sprintf("%s was sold for %s through an accepted offer.", listing, amount), nil
		}
		return "You've been outbid", fmt.Sprintf("A higher bid of %s was placed on %s.", amount, listing), nil
	case enums.NotificationTypeOfferReceived:
		if event.Status == string(enums.OfferStatusPending) && actor != "" {
			return "Offer on " + listing, fmt.Sprintf("%s offered %s for %s.", actor, amount, listing), nil
		}
		return "Offer on " + listing, fmt.Sprintf("You received an offer of %s for %s.", amount, listing), nil
	case enums.NotificationTypeOfferResolved:
		return renderResolved(event, listing, amount)
	default:
		return "", "", fmt.Errorf("unsupported notification type %q", kind)
	}
}

func renderResolved(event payloads.NotificationEvent, listing, amount string) (string, string, error) {
	switch event.Status {
	case string(enums.BidStatusWon):
		return "You won " + listing, fmt.Sprintf("Your bid of %s on %s was accepted.", amount, listing), nil
	case string(enums.OfferStatusAccepted):
		return "Offer accepted", fmt.Sprintf("The offer of %s for %s was accepted.", amount, listing), nil
	case string(enums.OfferStatusRejected):
		return "Offer declined", fmt.Sprintf("The offer of %s for %s was declined.", amount, listing), nil
	case string(enums.OfferStatusWithdrawn):
		return "Offer withdrawn", fmt.Sprintf("The offer of %s for %s was withdrawn.", amount, listing), nil
	default:
		return "Offer update", fmt.Sprintf("The offer of %s for %s was updated.", amount, listing), nil
	}
}

// FormatAmount renders an amount held in cents as "$1,234.50".
func FormatAmount(cents int64) string {
	value := decimal.New(cents, -2).StringFixed(2)
	sign := ""
	if strings.HasPrefix(value, "-") {
		sign, value = "-", value[1:]
	}
	whole, frac, _ := strings.Cut(value, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + "$" + b.String() + "." + frac
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
