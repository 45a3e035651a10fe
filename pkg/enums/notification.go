package enums

import "fmt"

// NotificationType tags domain events published to Pub/Sub so the
// worker can route them without decoding the payload.
type NotificationType string

const (
	NotificationTypeOrderCreated        NotificationType = "order_created"
	NotificationTypePaymentSuccess      NotificationType = "payment_success"
	NotificationTypePaymentFailed       NotificationType = "payment_failed"
	NotificationTypePaymentExpired      NotificationType = "payment_expired"
	NotificationTypeSubscriptionRenewed NotificationType = "subscription_renewed"
	NotificationTypeSubscriptionExpired NotificationType = "subscription_expired"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrderCreated,
	NotificationTypePaymentSuccess,
	NotificationTypePaymentFailed,
	NotificationTypePaymentExpired,
	NotificationTypeSubscriptionRenewed,
	NotificationTypeSubscriptionExpired,
}

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
