package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/neointegra/neointegra-backend/pkg/enums"
)

// Order records one purchase of a service at a fixed quantity and price.
// ServiceName and UnitPrice are copied from the catalog at creation time;
// TotalPrice is computed once and never recomputed.
type Order struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber    string            `gorm:"column:order_number;type:text;not null;uniqueIndex"`
	UserID         uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	ServiceID      *uuid.UUID        `gorm:"column:service_id;type:uuid"`
	SubscriptionID *uuid.UUID        `gorm:"column:subscription_id;type:uuid;index"`
	ServiceName    string            `gorm:"column:service_name;not null"`
	Quantity       int               `gorm:"column:quantity;not null;default:1"`
	UnitPrice      int64             `gorm:"column:unit_price;not null"`
	TotalPrice     int64             `gorm:"column:total_price;not null"`
	Status         enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Notes          *string           `gorm:"column:notes"`
	Payments       []Payment         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
