package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/neointegra/neointegra-backend/pkg/enums"
)

// Payment is one attempt to settle an order through the gateway.
// Amount always equals the owning order's total price at creation and
// is immutable afterwards.
type Payment struct {
	ID                  uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID             uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	Method              enums.PaymentMethod `gorm:"column:method;type:text;not null"`
	Channel             *string             `gorm:"column:channel"`
	Amount              int64               `gorm:"column:amount;not null"`
	Status              enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	IpaymuTransactionID *string             `gorm:"column:ipaymu_transaction_id;index"`
	IpaymuSessionID     *string             `gorm:"column:ipaymu_session_id"`
	PaymentURL          *string             `gorm:"column:payment_url"`
	VaNumber            *string             `gorm:"column:va_number"`
	QRImageURL          *string             `gorm:"column:qr_image_url"`
	QRString            *string             `gorm:"column:qr_string"`
	PaymentCode         *string             `gorm:"column:payment_code"`
	PaymentName         *string             `gorm:"column:payment_name"`
	FailureReason       *string             `gorm:"column:failure_reason"`
	ExpiredAt           *time.Time          `gorm:"column:expired_at"`
	PaidAt              *time.Time          `gorm:"column:paid_at"`
	CreatedAt           time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
