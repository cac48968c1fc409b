package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const OrderStatusCreated OrderStatus = "created"

type OrderItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"         json:"id"`
	OrderID     uuid.UUID       `gorm:"type:uuid;index;not null"     json:"-"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"           json:"product_id"`
	VariationID *uuid.UUID      `gorm:"type:uuid"                    json:"variation_id,omitempty"`
	Title       string          `gorm:"not null"                     json:"title"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null"  json:"unit_price"`
	Quantity    int             `gorm:"not null;check:quantity>0"    json:"quantity"`
	LineTotal   decimal.Decimal `gorm:"type:numeric(12,2);not null"  json:"line_total"`
	Color       string          `                                    json:"color,omitempty"`
	Size        string          `                                    json:"size,omitempty"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Order belongs to the cart session that placed it ("user:<id>" or
// "guest:<uuid>").
type Order struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"         json:"id"`
	Owner      string          `gorm:"index;not null"               json:"-"`
	Status     OrderStatus     `gorm:"not null"                     json:"status"`
	Subtotal   decimal.Decimal `gorm:"type:numeric(12,2);not null"  json:"subtotal"`
	Discount   decimal.Decimal `gorm:"type:numeric(12,2);not null"  json:"discount"`
	Total      decimal.Decimal `gorm:"type:numeric(12,2);not null"  json:"total"`
	CouponCode string          `                                    json:"coupon_code,omitempty"`
	Items      []OrderItem     `gorm:"constraint:OnDelete:CASCADE"  json:"items"`
	CreatedAt  time.Time       `                                    json:"created_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
