// Package stock keeps line quantities within known inventory.
package stock

import "github.com/Skotchmaster/market_cart/services/cart/internal/models"

// Clamp limits requested to available and floors the result at 1. A nil
// available means inventory is unknown and requested is returned unchanged.
func Clamp(requested int, available *int) int {
	if available == nil {
		return requested
	}
	if requested > *available {
		requested = *available
	}
	if requested < 1 {
		requested = 1
	}
	return requested
}

func IsOutOfStock(item models.LineItem) bool {
	return item.AvailableStock != nil && item.Quantity > *item.AvailableStock
}

func AnyOutOfStock(items []models.LineItem) bool {
	for _, it := range items {
		if IsOutOfStock(it) {
			return true
		}
	}
	return false
}
