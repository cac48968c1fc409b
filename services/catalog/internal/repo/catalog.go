package repo

import (
	"context"

	"github.com/Skotchmaster/market_cart/services/catalog/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GormRepo struct {
	DB *gorm.DB
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Product{}, &models.Variation{})
}

func (r *GormRepo) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product := models.Product{}
	if err := r.DB.WithContext(ctx).Preload("Variations").Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) GetProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Product
	if err := r.DB.WithContext(ctx).
		Preload("Variations").
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, prod *models.Product) error {
	return r.DB.WithContext(ctx).Create(prod).Error
}

// SaveProduct updates the product row. When variations is non-nil the stored
// variations are replaced by it.
func (r *GormRepo) SaveProduct(ctx context.Context, prod *models.Product, variations []models.Variation) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Variations").Save(prod).Error; err != nil {
			return err
		}
		if variations == nil {
			return nil
		}

		if err := tx.Where("product_id = ?", prod.ID).Delete(&models.Variation{}).Error; err != nil {
			return err
		}
		for i := range variations {
			variations[i].ProductID = prod.ID
		}
		if len(variations) > 0 {
			if err := tx.Create(&variations).Error; err != nil {
				return err
			}
		}
		prod.Variations = variations
		return nil
	})
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.Variation{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Product{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
