package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Skotchmaster/market_cart/pkg/events"
	"github.com/Skotchmaster/market_cart/pkg/money"
	"github.com/Skotchmaster/market_cart/services/order/internal/models"
	"github.com/Skotchmaster/market_cart/services/order/internal/transport"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

const EventOrderCreated = "order_created"

type Repo interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, owner string, id uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, owner string, offset, limit int) (int64, []models.Order, error)
}

type OrderService struct {
	Repo   Repo
	Events events.Publisher
	Log    *slog.Logger
}

// CreateOrder recomputes the totals from the lines and refuses the order when
// they differ from what the cart priced.
func (svc *OrderService) CreateOrder(ctx context.Context, req transport.CreateOrderRequest) (*models.Order, error) {
	owner := strings.TrimSpace(req.SessionID)
	if owner == "" {
		return nil, fmt.Errorf("session_id required: %w", ErrValidation)
	}
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("order has no items: %w", ErrValidation)
	}

	subtotal := decimal.Zero
	items := make([]models.OrderItem, 0, len(req.Lines))
	for i, line := range req.Lines {
		if line.ProductID == uuid.Nil {
			return nil, fmt.Errorf("line %d: product_id required: %w", i, ErrValidation)
		}
		if line.Quantity.Int() < 1 {
			return nil, fmt.Errorf("line %d: quantity must be at least 1: %w", i, ErrValidation)
		}
		price, err := money.ParseAmount(line.UnitPrice)
		if err != nil || price.IsNegative() {
			return nil, fmt.Errorf("line %d: invalid unit price: %w", i, ErrValidation)
		}

		lineTotal := money.Round(price.Mul(decimal.NewFromInt(int64(line.Quantity.Int()))))
		subtotal = subtotal.Add(lineTotal)
		items = append(items, models.OrderItem{
			ProductID:   line.ProductID,
			VariationID: line.VariationID,
			Title:       line.Title,
			UnitPrice:   price,
			Quantity:    line.Quantity.Int(),
			LineTotal:   lineTotal,
			Color:       line.Color,
			Size:        line.Size,
		})
	}
	subtotal = money.Round(subtotal)

	discount := decimal.Zero
	if req.Discount != nil {
		d, err := money.ParseAmount(req.Discount)
		if err != nil || d.IsNegative() {
			return nil, fmt.Errorf("invalid discount: %w", ErrValidation)
		}
		discount = money.Round(d)
	}
	total := subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	if err := matches("subtotal", req.Subtotal, subtotal); err != nil {
		return nil, err
	}
	if err := matches("total", req.Total, total); err != nil {
		return nil, err
	}

	order := &models.Order{
		Owner:      owner,
		Status:     models.OrderStatusCreated,
		Subtotal:   subtotal,
		Discount:   discount,
		Total:      total,
		CouponCode: strings.TrimSpace(req.CouponCode),
		Items:      items,
	}
	if err := svc.Repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	svc.publishCreated(ctx, order)
	return order, nil
}

// matches accepts an absent figure; a present one must equal want.
func matches(field string, got any, want decimal.Decimal) error {
	if got == nil {
		return nil
	}
	v, err := money.ParseAmount(got)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", field, ErrValidation)
	}
	if !money.Round(v).Equal(want) {
		return fmt.Errorf("%s does not match line items (expected %s): %w", field, want.StringFixed(2), ErrConflict)
	}
	return nil
}

func (svc *OrderService) GetOrder(ctx context.Context, owner string, id uuid.UUID) (*models.Order, error) {
	order, err := svc.Repo.GetOrder(ctx, owner, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return order, err
}

func (svc *OrderService) ListOrders(ctx context.Context, owner string, offset, limit int) (int64, []models.Order, error) {
	return svc.Repo.ListOrders(ctx, owner, offset, limit)
}

func (svc *OrderService) publishCreated(ctx context.Context, order *models.Order) {
	if svc.Events == nil {
		return
	}
	payload := map[string]any{
		"order_id":    order.ID,
		"owner":       order.Owner,
		"total":       order.Total.StringFixed(2),
		"coupon_code": order.CouponCode,
		"items":       len(order.Items),
	}
	ev := events.New(EventOrderCreated, order.ID.String(), payload)
	if err := svc.Events.Publish(ctx, events.TopicOrder, ev); err != nil && svc.Log != nil {
		svc.Log.Error("publish_order_error", "order_id", order.ID, "error", err)
	}
}
