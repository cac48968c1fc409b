package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Skotchmaster/market_cart/pkg/events"
	"github.com/Skotchmaster/market_cart/pkg/money"
	"github.com/Skotchmaster/market_cart/services/catalog/internal/models"
	"github.com/Skotchmaster/market_cart/services/catalog/internal/transport"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
)

type Repo interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error)
	CreateProduct(ctx context.Context, prod *models.Product) error
	SaveProduct(ctx context.Context, prod *models.Product, variations []models.Variation) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type CatalogService struct {
	Repo   Repo
	Events events.Publisher
	Log    *slog.Logger
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return p, err
}

func (s *CatalogService) GetProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.GetProducts(ctx, offset, limit)
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", ErrValidation)
	}
	price, err := parsePrice(req.Price)
	if err != nil {
		return nil, err
	}
	if err := checkStock(req.Stock); err != nil {
		return nil, err
	}
	variations, err := buildVariations(req.Variations)
	if err != nil {
		return nil, err
	}

	prod := &models.Product{
		Name:        name,
		Description: req.Description,
		Price:       price,
		Stock:       req.Stock,
		Image:       req.Image,
		Variations:  variations,
	}
	if err := s.Repo.CreateProduct(ctx, prod); err != nil {
		return nil, err
	}

	s.publish(ctx, "product_created", prod.ID, prod)
	return prod, nil
}

func (s *CatalogService) PatchProduct(ctx context.Context, req transport.PatchProductRequest, id uuid.UUID) (*models.Product, error) {
	prod, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("name cannot be empty: %w", ErrValidation)
		}
		prod.Name = name
	}
	if req.Description != nil {
		prod.Description = *req.Description
	}
	if req.Price != nil {
		price, err := parsePrice(req.Price)
		if err != nil {
			return nil, err
		}
		prod.Price = price
	}
	if req.Stock != nil {
		if err := checkStock(req.Stock); err != nil {
			return nil, err
		}
		prod.Stock = req.Stock
	}
	if req.Image != nil {
		prod.Image = *req.Image
	}

	var variations []models.Variation
	if req.Variations != nil {
		variations, err = buildVariations(*req.Variations)
		if err != nil {
			return nil, err
		}
		if variations == nil {
			variations = []models.Variation{}
		}
	}

	if err := s.Repo.SaveProduct(ctx, prod, variations); err != nil {
		return nil, err
	}

	s.publish(ctx, "product_updated", prod.ID, prod)
	return prod, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	err := s.Repo.DeleteProduct(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return err
	}
	s.publish(ctx, "product_deleted", id, map[string]any{"id": id})
	return nil
}

func (s *CatalogService) publish(ctx context.Context, eventType string, id uuid.UUID, payload any) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, events.TopicProduct, events.New(eventType, id.String(), payload)); err != nil && s.Log != nil {
		s.Log.Error("publish_product_error", "type", eventType, "product_id", id, "error", err)
	}
}

func parsePrice(v any) (decimal.Decimal, error) {
	price, err := money.ParseAmount(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("price: %v: %w", err, ErrValidation)
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("price cannot be negative: %w", ErrValidation)
	}
	return money.Round(price), nil
}

func checkStock(stock *int) error {
	if stock != nil && *stock < 0 {
		return fmt.Errorf("stock cannot be negative: %w", ErrValidation)
	}
	return nil
}

func buildVariations(reqs []transport.VariationRequest) ([]models.Variation, error) {
	if len(reqs) == 0 {
		return nil, nil
	}
	out := make([]models.Variation, 0, len(reqs))
	for i, vr := range reqs {
		if strings.TrimSpace(vr.Color) == "" && strings.TrimSpace(vr.Size) == "" {
			return nil, fmt.Errorf("variation %d needs a color or a size: %w", i, ErrValidation)
		}
		if err := checkStock(vr.Stock); err != nil {
			return nil, err
		}
		v := models.Variation{Color: vr.Color, Size: vr.Size, Stock: vr.Stock}
		if vr.Price != nil {
			price, err := parsePrice(vr.Price)
			if err != nil {
				return nil, err
			}
			v.Price = &price
		}
		out = append(out, v)
	}
	return out, nil
}
