package orders

import (
	"github.com/google/uuid"

	"github.com/neointegra/neointegra-backend/pkg/enums"
)

// CreateOrderInput captures a purchase of a catalog service.
type CreateOrderInput struct {
	UserID      uuid.UUID
	ServiceSlug string
	Quantity    int
	Notes       *string
}

// ListOrdersInput filters and pages a user's order history.
type ListOrdersInput struct {
	UserID uuid.UUID
	Status *enums.OrderStatus
	Limit  int
	Offset int
}
