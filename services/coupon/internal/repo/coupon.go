package repo

import (
	"context"

	"github.com/Skotchmaster/market_cart/services/coupon/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GormRepo struct {
	DB *gorm.DB
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Coupon{})
}

func (r *GormRepo) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var c models.Coupon
	if err := r.DB.WithContext(ctx).Where("code = ?", code).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	var c models.Coupon
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) List(ctx context.Context, offset, limit int) (int64, []models.Coupon, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Coupon{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Coupon
	if err := r.DB.WithContext(ctx).
		Order("code ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) Create(ctx context.Context, c *models.Coupon) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *GormRepo) Save(ctx context.Context, c *models.Coupon) error {
	return r.DB.WithContext(ctx).Save(c).Error
}

func (r *GormRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Coupon{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
