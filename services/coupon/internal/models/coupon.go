package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DiscountType string

const (
	DiscountFixed      DiscountType = "fixed"
	DiscountPercentage DiscountType = "percentage"
)

func (t DiscountType) Valid() bool {
	return t == DiscountFixed || t == DiscountPercentage
}

// Coupon codes are stored upper-cased so lookups are case-insensitive.
// ValidFrom and ValidUntil are optional bounds of the validity window.
type Coupon struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"          json:"id"`
	Code       string          `gorm:"uniqueIndex;not null"          json:"code"`
	Active     bool            `gorm:"not null"                      json:"is_active"`
	Type       DiscountType    `gorm:"not null"                      json:"discount_type"`
	Rate       decimal.Decimal `gorm:"type:numeric(12,2);not null"   json:"discount_rate"`
	ValidFrom  *time.Time      `                                     json:"valid_from,omitempty"`
	ValidUntil *time.Time      `                                     json:"valid_until,omitempty"`
	CreatedAt  time.Time       `                                     json:"created_at"`
	UpdatedAt  time.Time       `                                     json:"updated_at"`
}

func (c *Coupon) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
