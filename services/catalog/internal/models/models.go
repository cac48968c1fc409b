package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a sellable item. Stock is nil when inventory is not tracked.
type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"           json:"id"`
	Name        string          `gorm:"not null"                       json:"name"`
	Description string          `gorm:"not null;default:''"            json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null"    json:"price"`
	Stock       *int            `                                      json:"stock,omitempty"`
	Image       string          `                                      json:"image,omitempty"`
	Variations  []Variation     `gorm:"constraint:OnDelete:CASCADE"    json:"variations,omitempty"`
	CreatedAt   time.Time       `                                      json:"created_at"`
	UpdatedAt   time.Time       `                                      json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Variation is a color/size option of a product. Price and Stock override the
// product's values when set.
type Variation struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey"         json:"id"`
	ProductID uuid.UUID        `gorm:"type:uuid;index;not null"     json:"-"`
	Color     string           `                                    json:"color,omitempty"`
	Size      string           `                                    json:"size,omitempty"`
	Price     *decimal.Decimal `gorm:"type:numeric(12,2)"           json:"price,omitempty"`
	Stock     *int             `                                    json:"stock,omitempty"`
}

func (v *Variation) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
