package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LineItem is one product/variation entry of a cart. AvailableStock is nil
// when the catalog does not track inventory for the product.
type LineItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"                          json:"-"`
	SessionID      string          `gorm:"index:idx_cart_session_position;not null"      json:"-"`
	Position       int             `gorm:"index:idx_cart_session_position;not null"      json:"-"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null"                            json:"product_id"`
	VariationID    *uuid.UUID      `gorm:"type:uuid"                                     json:"variation_id,omitempty"`
	Title          string          `gorm:"not null"                                      json:"title"`
	UnitPrice      decimal.Decimal `gorm:"type:numeric(12,2);not null"                   json:"unit_price"`
	Quantity       int             `gorm:"not null;check:quantity>0"                     json:"quantity"`
	AvailableStock *int            `                                                     json:"available_stock,omitempty"`
	Image          string          `                                                     json:"image,omitempty"`
	Color          string          `                                                     json:"color,omitempty"`
	Size           string          `                                                     json:"size,omitempty"`
}

func (l *LineItem) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

func (LineItem) TableName() string {
	return "cart_items"
}

// Matches reports whether the line is the (product, variation) pair.
func (l LineItem) Matches(productID uuid.UUID, variationID *uuid.UUID) bool {
	if l.ProductID != productID {
		return false
	}
	if l.VariationID == nil || variationID == nil {
		return l.VariationID == nil && variationID == nil
	}
	return *l.VariationID == *variationID
}

func (l LineItem) Clone() LineItem {
	out := l
	if l.VariationID != nil {
		v := *l.VariationID
		out.VariationID = &v
	}
	if l.AvailableStock != nil {
		s := *l.AvailableStock
		out.AvailableStock = &s
	}
	return out
}

type WishlistItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"                       json:"id"`
	SessionID   string          `gorm:"uniqueIndex:idx_wishlist_entry;not null"    json:"-"`
	ProductID   uuid.UUID       `gorm:"type:uuid;uniqueIndex:idx_wishlist_entry;not null" json:"product_id"`
	VariationID *uuid.UUID      `gorm:"type:uuid;uniqueIndex:idx_wishlist_entry"   json:"variation_id,omitempty"`
	Title       string          `gorm:"not null"                                   json:"title"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null"                json:"unit_price"`
	Image       string          `                                                  json:"image,omitempty"`
	Color       string          `                                                  json:"color,omitempty"`
	Size        string          `                                                  json:"size,omitempty"`
}

func (w *WishlistItem) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

func (WishlistItem) TableName() string {
	return "wishlist_items"
}

func WishlistFromLine(sessionID string, l LineItem) WishlistItem {
	return WishlistItem{
		SessionID:   sessionID,
		ProductID:   l.ProductID,
		VariationID: l.Clone().VariationID,
		Title:       l.Title,
		UnitPrice:   l.UnitPrice,
		Image:       l.Image,
		Color:       l.Color,
		Size:        l.Size,
	}
}

// Coupon is a validated coupon applied to a session's cart.
type Coupon struct {
	Code string          `json:"code"`
	Type DiscountType    `json:"discount_type"`
	Rate decimal.Decimal `json:"discount_rate"`
}

type DiscountType string

const (
	DiscountFixed      DiscountType = "fixed"
	DiscountPercentage DiscountType = "percentage"
)

func (t DiscountType) Valid() bool {
	return t == DiscountFixed || t == DiscountPercentage
}
