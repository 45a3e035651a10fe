package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents the canonical identity entity.
type User struct {
	ID                uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email             string     `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash      string     `gorm:"column:password_hash;not null"`
	FullName          string     `gorm:"column:full_name;not null"`
	Phone             *string    `gorm:"column:phone"`
	IsActive          bool       `gorm:"column:is_active;not null;default:true"`
	IsVerified        bool       `gorm:"column:is_verified;not null;default:false"`
	VerificationToken *string    `gorm:"column:verification_token"`
	ResetToken        *string    `gorm:"column:reset_token"`
	ResetTokenExpires *time.Time `gorm:"column:reset_token_expires"`
	LastLoginAt       *time.Time `gorm:"column:last_login_at"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
