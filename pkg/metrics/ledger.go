package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics counts bid and offer outcomes.
type LedgerMetrics struct {
	bidsPlaced   prometheus.Counter
	bidsRejected *prometheus.CounterVec
	casRetries   prometheus.Counter
	offers       *prometheus.CounterVec
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	bidsPlaced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "landhub_bids_placed_total",
		Help: "Bids accepted as the new highest bid.",
	})
	bidsRejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "landhub_bids_rejected_total",
		Help: "Bid attempts refused, by reason.",
	}, []string{"reason"})
	casRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "landhub_listing_cas_retries_total",
		Help: "Listing version compare-and-swap conflicts that were retried.",
	})
	offers := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "landhub_offers_total",
		Help: "Offer lifecycle actions.",
	}, []string{"action"})
	reg.MustRegister(bidsPlaced, bidsRejected, casRetries, offers)
	return &LedgerMetrics{
		bidsPlaced:   bidsPlaced,
		bidsRejected: bidsRejected,
		casRetries:   casRetries,
		offers:       offers,
	}
}

// IncBidPlaced records an accepted bid.
func (m *LedgerMetrics) IncBidPlaced() {
	if m == nil || m.bidsPlaced == nil {
		return
	}
	m.bidsPlaced.Inc()
}

// IncBidRejected records a refused bid attempt.
func (m *LedgerMetrics) IncBidRejected(reason string) {
	if m == nil || m.bidsRejected == nil {
		return
	}
	m.bidsRejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncCASRetry records a lost version race.
func (m *LedgerMetrics) IncCASRetry() {
	if m == nil || m.casRetries == nil {
		return
	}
	m.casRetries.Inc()
}

// IncOffer records an offer action (made, accept, reject, counter, withdraw).
func (m *LedgerMetrics) IncOffer(action string) {
	if m == nil || m.offers == nil {
		return
	}
	m.offers.WithLabelValues(normalizeLabel(action)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
