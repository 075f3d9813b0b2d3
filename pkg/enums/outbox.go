package enums

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

// Notification events are keyed by the listing they concern.
const AggregateListing OutboxAggregateType = "listing"

var aggregateTypes = values[OutboxAggregateType]{AggregateListing}

func (a OutboxAggregateType) IsValid() bool { return aggregateTypes.has(a) }

func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	return aggregateTypes.parse("aggregate type", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventBidPlaced     OutboxEventType = "bid_placed"
	EventBidOutbid     OutboxEventType = "bid_outbid"
	EventOfferReceived OutboxEventType = "offer_received"
	EventOfferResolved OutboxEventType = "offer_resolved"
)

var eventTypes = values[OutboxEventType]{
	EventBidPlaced,
	EventBidOutbid,
	EventOfferReceived,
	EventOfferResolved,
}

func (e OutboxEventType) IsValid() bool { return eventTypes.has(e) }

// NotificationType returns the in-app notification type rendered for e.
func (e OutboxEventType) NotificationType() NotificationType {
	return NotificationType(e)
}

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return eventTypes.parse("event type", value)
}

// OutboxDLQErrorReason records why the relay gave up on an outbox row.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

var dlqReasons = values[OutboxDLQErrorReason]{
	OutboxDLQReasonMaxAttempts,
	OutboxDLQReasonNonRetryable,
}

func (r OutboxDLQErrorReason) IsValid() bool { return dlqReasons.has(r) }

func ParseOutboxDLQErrorReason(value string) (OutboxDLQErrorReason, error) {
	return dlqReasons.parse("dlq error reason", value)
}
