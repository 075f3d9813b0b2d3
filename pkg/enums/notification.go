package enums

// NotificationType maps to the notification_type enum in Postgres. Each
// value shares its name with the outbox event that renders it.
type NotificationType string

const (
	NotificationTypeBidPlaced     NotificationType = "bid_placed"
	NotificationTypeBidOutbid     NotificationType = "bid_outbid"
	NotificationTypeOfferReceived NotificationType = "offer_received"
	NotificationTypeOfferResolved NotificationType = "offer_resolved"
)

var notificationTypes = values[NotificationType]{
	NotificationTypeBidPlaced,
	NotificationTypeBidOutbid,
	NotificationTypeOfferReceived,
	NotificationTypeOfferResolved,
}

func (n NotificationType) IsValid() bool { return notificationTypes.has(n) }

func ParseNotificationType(value string) (NotificationType, error) {
	return notificationTypes.parse("notification type", value)
}
