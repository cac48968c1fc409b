package repo

import (
	"context"
	"errors"

	"github.com/Skotchmaster/market_cart/services/cart/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GormRepo struct {
	DB *gorm.DB
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.LineItem{}, &models.WishlistItem{})
}

func (r *GormRepo) LoadCart(ctx context.Context, sessionID string) ([]models.LineItem, error) {
	var items []models.LineItem
	if err := r.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("position ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// SaveCart replaces the session's rows with items, keeping their order.
func (r *GormRepo) SaveCart(ctx context.Context, sessionID string, items []models.LineItem) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionID).Delete(&models.LineItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}

		rows := make([]models.LineItem, 0, len(items))
		for i, it := range items {
			row := it.Clone()
			row.ID = uuid.Nil
			row.SessionID = sessionID
			row.Position = i
			rows = append(rows, row)
		}
		return tx.Create(&rows).Error
	})
}

// AddToWishlist stores entry unless the session already has the same
// product and variation.
func (r *GormRepo) AddToWishlist(ctx context.Context, entry *models.WishlistItem) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("session_id = ? AND product_id = ?", entry.SessionID, entry.ProductID)
		if entry.VariationID == nil {
			q = q.Where("variation_id IS NULL")
		} else {
			q = q.Where("variation_id = ?", *entry.VariationID)
		}

		var existing models.WishlistItem
		err := q.First(&existing).Error
		if err == nil {
			*entry = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(entry).Error
	})
}

func (r *GormRepo) ListWishlist(ctx context.Context, sessionID string) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	if err := r.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("title ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
