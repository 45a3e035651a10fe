package notifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/neointegra/neointegra-backend/pkg/enums"
)

// Event is the wire payload published on the events topic. The type
// also travels as a message attribute so consumers can route without
// decoding the body.
type Event struct {
	Type           enums.NotificationType `json:"type"`
	UserID         uuid.UUID              `json:"user_id,omitempty"`
	OrderID        *uuid.UUID             `json:"order_id,omitempty"`
	OrderNumber    string                 `json:"order_number,omitempty"`
	PaymentID      *uuid.UUID             `json:"payment_id,omitempty"`
	SubscriptionID *uuid.UUID             `json:"subscription_id,omitempty"`
	PackageName    string                 `json:"package_name,omitempty"`
	Amount         int64                  `json:"amount,omitempty"`
	EndDate        *time.Time             `json:"end_date,omitempty"`
	OccurredAt     time.Time              `json:"occurred_at"`
}

const typeAttribute = "type"
