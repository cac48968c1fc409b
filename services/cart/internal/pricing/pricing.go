// Package pricing derives subtotal, discount and total from cart lines and the
// applied coupon. Nothing here is cached; callers recompute on every read.
package pricing

import (
	"github.com/Skotchmaster/market_cart/pkg/money"
	"github.com/Skotchmaster/market_cart/services/cart/internal/models"
	"github.com/Skotchmaster/market_cart/services/cart/internal/stock"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type Snapshot struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

func ComputeSubtotal(items []models.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return money.Round(sum)
}

// ComputeDiscount is not clamped to the subtotal; ComputeTotal is where an
// oversized discount stops at zero.
func ComputeDiscount(subtotal decimal.Decimal, coupon *models.Coupon) decimal.Decimal {
	if coupon == nil {
		return decimal.Zero
	}
	switch coupon.Type {
	case models.DiscountFixed:
		return money.Round(coupon.Rate)
	case models.DiscountPercentage:
		return money.Round(subtotal.Mul(coupon.Rate).Div(hundred))
	default:
		return decimal.Zero
	}
}

func ComputeTotal(subtotal, discount decimal.Decimal) decimal.Decimal {
	total := subtotal.Sub(discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return money.Round(total)
}

func Compute(items []models.LineItem, coupon *models.Coupon) Snapshot {
	subtotal := ComputeSubtotal(items)
	discount := ComputeDiscount(subtotal, coupon)
	return Snapshot{
		Subtotal: subtotal,
		Discount: discount,
		Total:    ComputeTotal(subtotal, discount),
	}
}

type BlockReason string

const (
	ReasonNone       BlockReason = ""
	ReasonEmpty      BlockReason = "cart is empty"
	ReasonOutOfStock BlockReason = "some items exceed available stock"
	ReasonInFlight   BlockReason = "checkout already in progress"
)

// CanCheckout gates the checkout submission.
func CanCheckout(items []models.LineItem, submitting bool) (bool, BlockReason) {
	switch {
	case submitting:
		return false, ReasonInFlight
	case len(items) == 0:
		return false, ReasonEmpty
	case stock.AnyOutOfStock(items):
		return false, ReasonOutOfStock
	default:
		return true, ReasonNone
	}
}
