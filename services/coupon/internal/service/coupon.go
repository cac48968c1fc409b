package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Skotchmaster/market_cart/pkg/events"
	"github.com/Skotchmaster/market_cart/pkg/money"
	"github.com/Skotchmaster/market_cart/services/coupon/internal/models"
	"github.com/Skotchmaster/market_cart/services/coupon/internal/transport"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrValidation  = errors.New("validation")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrInactive    = errors.New("coupon is not active")
	ErrNotYetValid = errors.New("coupon is not valid yet")
	ErrExpired     = errors.New("coupon has expired")
)

var hundred = decimal.NewFromInt(100)

type Repo interface {
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	List(ctx context.Context, offset, limit int) (int64, []models.Coupon, error)
	Create(ctx context.Context, c *models.Coupon) error
	Save(ctx context.Context, c *models.Coupon) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type CouponService struct {
	Repo   Repo
	Events events.Publisher
	Log    *slog.Logger
	Now    func() time.Time
}

func (s *CouponService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Validate returns the coupon behind code when it can be redeemed now. The
// returned coupon is set for ErrInactive, ErrNotYetValid and ErrExpired too.
func (s *CouponService) Validate(ctx context.Context, code string) (*models.Coupon, error) {
	code = models.NormalizeCode(code)
	if code == "" {
		return nil, fmt.Errorf("code is required: %w", ErrValidation)
	}

	c, err := s.Repo.GetByCode(ctx, code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("coupon %s: %w", code, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	switch {
	case !c.Active:
		return c, ErrInactive
	case c.ValidFrom != nil && now.Before(*c.ValidFrom):
		return c, ErrNotYetValid
	case c.ValidUntil != nil && !now.Before(*c.ValidUntil):
		return c, ErrExpired
	}
	return c, nil
}

func (s *CouponService) GetCoupon(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	c, err := s.Repo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("coupon %s: %w", id, ErrNotFound)
	}
	return c, err
}

func (s *CouponService) ListCoupons(ctx context.Context, offset, limit int) (int64, []models.Coupon, error) {
	return s.Repo.List(ctx, offset, limit)
}

func (s *CouponService) CreateCoupon(ctx context.Context, req transport.CreateCouponRequest) (*models.Coupon, error) {
	code := models.NormalizeCode(req.Code)
	if code == "" {
		return nil, fmt.Errorf("code is required: %w", ErrValidation)
	}
	c := &models.Coupon{
		Code:       code,
		Active:     req.Active == nil || *req.Active,
		Type:       models.DiscountType(req.Type),
		ValidFrom:  req.ValidFrom,
		ValidUntil: req.ValidUntil,
	}
	rate, err := money.ParseAmount(req.Rate)
	if err != nil {
		return nil, fmt.Errorf("discount_rate: %v: %w", err, ErrValidation)
	}
	c.Rate = money.Round(rate)
	if err := checkCoupon(c); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, code, uuid.Nil); err != nil {
		return nil, err
	}

	if err := s.Repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.publish(ctx, "coupon_created", c.ID, c)
	return c, nil
}

func (s *CouponService) PatchCoupon(ctx context.Context, req transport.PatchCouponRequest, id uuid.UUID) (*models.Coupon, error) {
	c, err := s.GetCoupon(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Code != nil {
		code := models.NormalizeCode(*req.Code)
		if code == "" {
			return nil, fmt.Errorf("code cannot be empty: %w", ErrValidation)
		}
		if code != c.Code {
			if err := s.ensureUnique(ctx, code, c.ID); err != nil {
				return nil, err
			}
		}
		c.Code = code
	}
	if req.Active != nil {
		c.Active = *req.Active
	}
	if req.Type != nil {
		c.Type = models.DiscountType(*req.Type)
	}
	if req.Rate != nil {
		rate, err := money.ParseAmount(req.Rate)
		if err != nil {
			return nil, fmt.Errorf("discount_rate: %v: %w", err, ErrValidation)
		}
		c.Rate = money.Round(rate)
	}
	if req.ValidFrom != nil {
		c.ValidFrom = req.ValidFrom
	}
	if req.ValidUntil != nil {
		c.ValidUntil = req.ValidUntil
	}
	if err := checkCoupon(c); err != nil {
		return nil, err
	}

	if err := s.Repo.Save(ctx, c); err != nil {
		return nil, err
	}
	s.publish(ctx, "coupon_updated", c.ID, c)
	return c, nil
}

func (s *CouponService) DeleteCoupon(ctx context.Context, id uuid.UUID) error {
	err := s.Repo.Delete(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("coupon %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return err
	}
	s.publish(ctx, "coupon_deleted", id, map[string]any{"id": id})
	return nil
}

func (s *CouponService) ensureUnique(ctx context.Context, code string, self uuid.UUID) error {
	existing, err := s.Repo.GetByCode(ctx, code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != self {
		return fmt.Errorf("code %s already exists: %w", code, ErrConflict)
	}
	return nil
}

func checkCoupon(c *models.Coupon) error {
	if !c.Type.Valid() {
		return fmt.Errorf("discount_type must be fixed or percentage: %w", ErrValidation)
	}
	if !c.Rate.IsPositive() {
		return fmt.Errorf("discount_rate must be positive: %w", ErrValidation)
	}
	if c.Type == models.DiscountPercentage && c.Rate.GreaterThan(hundred) {
		return fmt.Errorf("percentage discount_rate cannot exceed 100: %w", ErrValidation)
	}
	if c.ValidFrom != nil && c.ValidUntil != nil && !c.ValidUntil.After(*c.ValidFrom) {
		return fmt.Errorf("valid_until must be after valid_from: %w", ErrValidation)
	}
	return nil
}

func (s *CouponService) publish(ctx context.Context, eventType string, id uuid.UUID, payload any) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, events.TopicCoupon, events.New(eventType, id.String(), payload)); err != nil && s.Log != nil {
		s.Log.Error("publish_coupon_error", "type", eventType, "coupon_id", id, "error", err)
	}
}
