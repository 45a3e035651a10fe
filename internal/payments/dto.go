package payments

import (
	"github.com/google/uuid"

	"github.com/neointegra/neointegra-backend/pkg/enums"
)

// CreatePaymentInput opens a payment attempt against an order.
type CreatePaymentInput struct {
	UserID  uuid.UUID
	OrderID uuid.UUID
	Method  enums.PaymentMethod
	Channel string
}
