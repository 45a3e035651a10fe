package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/neointegra/neointegra-backend/pkg/enums"
)

// Subscription is a time-bounded entitlement held by a user. EndDate
// moves only when a renewal order's payment settles, never at
// renewal-request time.
type Subscription struct {
	ID           uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID                `gorm:"column:user_id;type:uuid;not null;index"`
	ServiceID    *uuid.UUID               `gorm:"column:service_id;type:uuid"`
	PackageName  string                   `gorm:"column:package_name;not null"`
	PackageType  enums.PackageType        `gorm:"column:package_type;type:text;not null;default:'monthly'"`
	Price        int64                    `gorm:"column:price;not null"`
	RenewalPrice *int64                   `gorm:"column:renewal_price"`
	StartDate    time.Time                `gorm:"column:start_date;not null"`
	EndDate      time.Time                `gorm:"column:end_date;not null"`
	IsActive     bool                     `gorm:"column:is_active;not null;default:true"`
	Status       enums.SubscriptionStatus `gorm:"column:status;type:text;not null;default:'active'"`
	AutoRenewal  bool                     `gorm:"column:auto_renewal;not null;default:false"`
	Features     []string                 `gorm:"column:features;type:jsonb;serializer:json"`
	CreatedAt    time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

// EffectiveRenewalPrice falls back to the base price when no renewal
// price was negotiated.
func (s Subscription) EffectiveRenewalPrice() int64 {
	if s.RenewalPrice != nil && *s.RenewalPrice > 0 {
		return *s.RenewalPrice
	}
	return s.Price
}
