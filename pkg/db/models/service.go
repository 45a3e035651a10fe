package models

import (
	"time"

	"github.com/google/uuid"
)

// Service is a catalog entry for a productized offering. Rows are
// value-copied onto orders at purchase time so later edits never alter
// historical pricing.
type Service struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Slug         string    `gorm:"column:slug;type:text;not null;uniqueIndex"`
	Name         string    `gorm:"column:name;not null"`
	Description  *string   `gorm:"column:description"`
	Category     string    `gorm:"column:category;not null;index"`
	Price        int64     `gorm:"column:price;not null"`
	DurationDays int       `gorm:"column:duration_days;not null;default:30"`
	IsActive     bool      `gorm:"column:is_active;not null;default:true"`
	Features     []string  `gorm:"column:features;type:jsonb;serializer:json"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
