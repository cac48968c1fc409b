package transport

import (
	"github.com/Skotchmaster/market_cart/pkg/money"
	"github.com/google/uuid"
)

// Amounts may be sent as JSON numbers or strings.

type CreateOrderLine struct {
	ProductID   uuid.UUID      `json:"product_id"`
	VariationID *uuid.UUID     `json:"variation_id"`
	Title       string         `json:"title"`
	UnitPrice   any            `json:"unit_price"`
	Quantity    money.Quantity `json:"quantity"`
	Color       string         `json:"color"`
	Size        string         `json:"size"`
}

type CreateOrderRequest struct {
	SessionID  string            `json:"session_id"`
	Lines      []CreateOrderLine `json:"lines"`
	Subtotal   any               `json:"subtotal"`
	Discount   any               `json:"discount"`
	Total      any               `json:"total"`
	CouponCode string            `json:"coupon_code"`
}
