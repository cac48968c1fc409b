// Package catalog reads product, price and stock data from the catalog service.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Skotchmaster/market_cart/services/cart/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("product not found")
	ErrVariationNotFound = errors.New("variation not found")
	ErrUnavailable       = errors.New("catalog unavailable")
)

type Variation struct {
	ID    uuid.UUID        `json:"id"`
	Color string           `json:"color,omitempty"`
	Size  string           `json:"size,omitempty"`
	Price *decimal.Decimal `json:"price,omitempty"`
	Stock *int             `json:"stock,omitempty"`
}

type Product struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Stock      *int            `json:"stock,omitempty"`
	Image      string          `json:"image,omitempty"`
	Variations []Variation     `json:"variations,omitempty"`
}

// Line builds a cart line for the product or one of its variations. A
// variation's own price and stock win over the product's.
func (p Product) Line(variationID *uuid.UUID) (models.LineItem, error) {
	line := models.LineItem{
		ProductID:      p.ID,
		Title:          p.Name,
		UnitPrice:      p.Price,
		AvailableStock: p.Stock,
		Image:          p.Image,
	}
	if variationID == nil {
		return line.Clone(), nil
	}
	for _, v := range p.Variations {
		if v.ID != *variationID {
			continue
		}
		id := v.ID
		line.VariationID = &id
		line.Color = v.Color
		line.Size = v.Size
		if v.Price != nil {
			line.UnitPrice = *v.Price
		}
		if v.Stock != nil {
			line.AvailableStock = v.Stock
		}
		return line.Clone(), nil
	}
	return models.LineItem{}, fmt.Errorf("product %s variation %s: %w", p.ID, variationID, ErrVariationNotFound)
}

// StockFor returns the current stock figure for the product or variation.
func (p Product) StockFor(variationID *uuid.UUID) (*int, error) {
	line, err := p.Line(variationID)
	if err != nil {
		return nil, err
	}
	return line.AvailableStock, nil
}

type Client struct {
	http *resty.Client
}

func NewClient(catalogURL string, timeout time.Duration) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(catalogURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
	}
}

func (c *Client) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id.String()).
		Get("/catalog/products/{id}")
	if err != nil {
		return nil, fmt.Errorf("do request: %v: %w", err, ErrUnavailable)
	}

	switch code := resp.StatusCode(); {
	case code == http.StatusNotFound:
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	case code != http.StatusOK:
		return nil, fmt.Errorf("get product failed with status %d: %w", code, ErrUnavailable)
	}

	var p Product
	if err := json.Unmarshal(resp.Body(), &p); err != nil {
		return nil, fmt.Errorf("decode response: %v: %w", err, ErrUnavailable)
	}
	return &p, nil
}
