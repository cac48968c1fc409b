package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Skotchmaster/market_cart/services/cart/internal/models"
	"github.com/Skotchmaster/market_cart/services/cart/internal/pricing"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrCheckoutBlocked  = errors.New("checkout blocked")
	ErrCheckoutRejected = errors.New("checkout rejected")
	ErrUnavailable      = errors.New("order service unavailable")
)

// RejectedError carries the order service's message for a business rejection.
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("order service rejected checkout (%d): %s", e.Status, e.Message)
}

func (e *RejectedError) Unwrap() error { return ErrCheckoutRejected }

type OrderLine struct {
	ProductID   uuid.UUID       `json:"product_id"`
	VariationID *uuid.UUID      `json:"variation_id,omitempty"`
	Title       string          `json:"title"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Color       string          `json:"color,omitempty"`
	Size        string          `json:"size,omitempty"`
}

type OrderRequest struct {
	SessionID  string          `json:"session_id"`
	Lines      []OrderLine     `json:"lines"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Discount   decimal.Decimal `json:"discount"`
	Total      decimal.Decimal `json:"total"`
	CouponCode string          `json:"coupon_code,omitempty"`
}

type Order struct {
	ID        uuid.UUID       `json:"id"`
	Status    string          `json:"status"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
}

func NewOrderRequest(sessionID string, items []models.LineItem, snap pricing.Snapshot, coupon *models.Coupon) OrderRequest {
	req := OrderRequest{
		SessionID: sessionID,
		Lines:     make([]OrderLine, 0, len(items)),
		Subtotal:  snap.Subtotal,
		Discount:  snap.Discount,
		Total:     snap.Total,
	}
	for _, it := range items {
		req.Lines = append(req.Lines, OrderLine{
			ProductID:   it.ProductID,
			VariationID: it.VariationID,
			Title:       it.Title,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			Color:       it.Color,
			Size:        it.Size,
		})
	}
	if coupon != nil {
		req.CouponCode = coupon.Code
	}
	return req
}

type OrderClient struct {
	http *resty.Client
}

func NewOrderClient(orderURL string, timeout time.Duration) *OrderClient {
	return &OrderClient{
		http: resty.New().
			SetBaseURL(orderURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json").
			SetHeader("Content-Type", "application/json"),
	}
}

// Submit creates the order. Errors wrap ErrCheckoutRejected (a *RejectedError)
// or ErrUnavailable.
func (c *OrderClient) Submit(ctx context.Context, req OrderRequest) (*Order, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		Post("/orders")
	if err != nil {
		return nil, fmt.Errorf("do request: %v: %w", err, ErrUnavailable)
	}

	code := resp.StatusCode()
	switch {
	case code == http.StatusCreated || code == http.StatusOK:
		var order Order
		if err := json.Unmarshal(resp.Body(), &order); err != nil {
			return nil, fmt.Errorf("decode order: %v: %w", err, ErrUnavailable)
		}
		return &order, nil
	case code >= 400 && code < 500:
		return nil, &RejectedError{Status: code, Message: rejectionMessage(resp.Body())}
	default:
		return nil, fmt.Errorf("create order failed with status %d: %w", code, ErrUnavailable)
	}
}

func rejectionMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if m := strings.TrimSpace(payload.Message); m != "" {
			return m
		}
		if m := strings.TrimSpace(payload.Error); m != "" {
			return m
		}
	}
	var plain string
	if err := json.Unmarshal(body, &plain); err == nil && strings.TrimSpace(plain) != "" {
		return plain
	}
	return "order was rejected"
}
