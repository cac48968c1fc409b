package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Skotchmaster/market_cart/pkg/events"
	"github.com/Skotchmaster/market_cart/services/cart/internal/catalog"
	"github.com/Skotchmaster/market_cart/services/cart/internal/checkout"
	"github.com/Skotchmaster/market_cart/services/cart/internal/coupon"
	"github.com/Skotchmaster/market_cart/services/cart/internal/models"
	"github.com/Skotchmaster/market_cart/services/cart/internal/pricing"
	"github.com/Skotchmaster/market_cart/services/cart/internal/stock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrValidation  = errors.New("validation")
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
	ErrStaleCoupon = errors.New("stale coupon response")
)

const (
	EventCartCheckedOut = "cart_checked_out"

	defaultSubmitTimeout = 30 * time.Second
)

type ProductSource interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error)
}

type CouponResolver interface {
	Resolve(ctx context.Context, code string) (coupon.Resolution, error)
}

type OrderSubmitter interface {
	Submit(ctx context.Context, req checkout.OrderRequest) (*checkout.Order, error)
}

// BlockedError explains why a checkout was not submitted.
type BlockedError struct {
	Reason pricing.BlockReason
}

func (e *BlockedError) Error() string { return string(e.Reason) }

func (e *BlockedError) Unwrap() error { return checkout.ErrCheckoutBlocked }

type ItemView struct {
	models.LineItem
	LineTotal  decimal.Decimal `json:"line_total"`
	OutOfStock bool            `json:"out_of_stock"`
}

type CartView struct {
	Items []ItemView `json:"items"`
	pricing.Snapshot
	Coupon         *models.Coupon      `json:"coupon,omitempty"`
	CanCheckout    bool                `json:"can_checkout"`
	Reason         pricing.BlockReason `json:"reason,omitempty"`
	CheckoutStatus checkout.Status     `json:"checkout_status"`
}

// CouponOutcome is the answer to an apply request the authority replied to.
type CouponOutcome struct {
	Applied bool     `json:"applied"`
	Message string   `json:"message,omitempty"`
	Cart    CartView `json:"cart"`
}

type CheckoutResult struct {
	Order *checkout.Order `json:"order"`
	Cart  CartView        `json:"cart"`
}

type CartService struct {
	Sessions *Registry
	Catalog  ProductSource
	Coupons  CouponResolver
	Orders   OrderSubmitter
	Events   events.Publisher
	Log      *slog.Logger

	// SubmitTimeout bounds the order call, which outlives the request context.
	SubmitTimeout time.Duration
}

func (h *CartService) view(s *session) CartView {
	items := s.store.Items()
	applied := s.appliedCoupon()
	submitting := s.gate.Submitting()

	views := make([]ItemView, 0, len(items))
	for _, it := range items {
		views = append(views, ItemView{
			LineItem:   it,
			LineTotal:  it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))).Round(2),
			OutOfStock: stock.IsOutOfStock(it),
		})
	}
	ok, reason := pricing.CanCheckout(items, submitting)
	status := checkout.StatusIdle
	if submitting {
		status = checkout.StatusSubmitting
	}
	return CartView{
		Items:          views,
		Snapshot:       pricing.Compute(items, applied),
		Coupon:         applied,
		CanCheckout:    ok,
		Reason:         reason,
		CheckoutStatus: status,
	}
}

func (h *CartService) GetCart(ctx context.Context, sessionID string) (CartView, error) {
	s, err := h.Sessions.get(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	return h.view(s), nil
}

// AddItem looks the product up in the catalog and adds quantity of it.
func (h *CartService) AddItem(ctx context.Context, sessionID string, productID uuid.UUID, variationID *uuid.UUID, quantity int) (CartView, error) {
	if productID == uuid.Nil {
		return CartView{}, fmt.Errorf("product_id is required: %w", ErrValidation)
	}
	if quantity < 1 {
		return CartView{}, fmt.Errorf("quantity must be at least 1: %w", ErrValidation)
	}

	s, err := h.Sessions.get(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}

	product, err := h.Catalog.GetProduct(ctx, productID)
	if err != nil {
		return CartView{}, catalogErr(err)
	}
	line, err := product.Line(variationID)
	if err != nil {
		return CartView{}, catalogErr(err)
	}

	s.store.AddItem(line, quantity)
	return h.view(s), nil
}

func (h *CartService) UpdateQuantity(ctx context.Context, sessionID string, productID uuid.UUID, quantity int, variationID *uuid.UUID) (CartView, error) {
	s, err := h.Sessions.get(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	s.store.UpdateQuantity(productID, quantity, variationID)
	return h.view(s), nil
}

func (h *CartService) RemoveItem(ctx context.Context, sessionID string, productID uuid.UUID, variationID *uuid.UUID) (CartView, error) {
	s, err := h.Sessions.get(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	s.store.RemoveItem(productID, variationID)
	return h.view(s), nil
}

func (h *CartService) Clear(ctx context.Context, sessionID string) (CartView, error) {
	s, err := h.Sessions.get(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	s.store.Clear()
	return h.view(s), nil
}

// MoveToWishlist saves the line to the session's wishlist and then removes it
// from the cart. The cart is left alone if saving fails.
func (h *CartService) MoveToWishlist(ctx context.Context, sessionID string, productID uuid.UUID, variationID *uuid.UUID) (CartView, error) {
	s, err := h.Sessions.get(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	line, ok := s.store.Find(productID, variationID)
	if !ok {
		return CartView{}, fmt.Errorf("cart line %s: %w", productID, ErrNotFound)
	}

	entry := models.WishlistFromLine(sessionID, line)
	if err := h.Sessions.Repo.AddToWishlist(ctx, &entry); err != nil {
		return CartView{}, fmt.Errorf("add to wishlist: %w", err)
	}
	s.store.RemoveItem(productID, variationID)
	return h.view(s), nil
}

func (h *CartService) Wishlist(ctx context.Context, sessionID string) ([]models.WishlistItem, error) {
	return h.Sessions.Repo.ListWishlist(ctx, sessionID)
}

// ApplyCoupon validates code and, when accepted, replaces the applied coupon.
// A resolution that finishes after a newer apply or remove was issued for the
// same session is discarded with ErrStaleCoupon.
func (h *CartService) ApplyCoupon(ctx context.Context, sessionID, code string) (CouponOutcome, error) {
	s, err := h.Sessions.get(ctx, sessionID)
	if err != nil {
		return CouponOutcome{}, err
	}

	s.mu.Lock()
	s.couponGen++
	gen := s.couponGen
	s.mu.Unlock()

	res, err := h.Coupons.Resolve(ctx, code)

	s.mu.Lock()
	if s.couponGen != gen {
		s.mu.Unlock()
		return CouponOutcome{}, fmt.Errorf("coupon %q: %w", strings.TrimSpace(code), ErrStaleCoupon)
	}
	if err != nil {
		s.mu.Unlock()
		return CouponOutcome{}, fmt.Errorf("resolve coupon: %v: %w", err, ErrUnavailable)
	}
	if res.Accepted && res.Coupon != nil {
		c := *res.Coupon
		s.coupon = &c
	}
	s.mu.Unlock()

	return CouponOutcome{Applied: res.Accepted, Message: res.Reason, Cart: h.view(s)}, nil
}

func (h *CartService) RemoveCoupon(ctx context.Context, sessionID string) (CartView, error) {
	s, err := h.Sessions.get(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	s.mu.Lock()
	s.coupon = nil
	s.couponGen++
	s.mu.Unlock()
	return h.view(s), nil
}

// RefreshStock re-reads stock for every line. A product the catalog no longer
// knows is treated as having no stock left.
func (h *CartService) RefreshStock(ctx context.Context, sessionID string) (CartView, error) {
	s, err := h.Sessions.get(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}

	products := make(map[uuid.UUID]*catalog.Product)
	for _, it := range s.store.Items() {
		p, seen := products[it.ProductID]
		if !seen {
			p, err = h.Catalog.GetProduct(ctx, it.ProductID)
			if err != nil && !errors.Is(err, catalog.ErrNotFound) {
				return h.view(s), catalogErr(err)
			}
			products[it.ProductID] = p
		}

		var available *int
		if p == nil {
			zero := 0
			available = &zero
		} else if available, err = p.StockFor(it.VariationID); err != nil {
			zero := 0
			available = &zero
		}
		s.store.SetAvailableStock(it.ProductID, it.VariationID, available)
	}
	return h.view(s), nil
}

// Checkout submits the cart as an order. The gate stays in Submitting for the
// whole call, so a second checkout for the session is blocked meanwhile.
// Only what was submitted leaves the cart: lines added or grown while the
// order was in flight stay, and so does a coupon applied in that window.
func (h *CartService) Checkout(ctx context.Context, sessionID string) (CheckoutResult, error) {
	s, err := h.Sessions.get(ctx, sessionID)
	if err != nil {
		return CheckoutResult{}, err
	}
	if !s.gate.Begin() {
		return CheckoutResult{}, &BlockedError{Reason: pricing.ReasonInFlight}
	}
	defer s.gate.End()

	items := s.store.Items()
	if ok, reason := pricing.CanCheckout(items, false); !ok {
		return CheckoutResult{}, &BlockedError{Reason: reason}
	}
	s.mu.Lock()
	submitted := s.coupon
	var applied *models.Coupon
	if submitted != nil {
		c := *submitted
		applied = &c
	}
	s.mu.Unlock()
	snap := pricing.Compute(items, applied)

	// A shopper disconnecting must not abandon an order the service may
	// already have committed.
	submitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.submitTimeout())
	defer cancel()

	order, err := h.Orders.Submit(submitCtx, checkout.NewOrderRequest(sessionID, items, snap, applied))
	if err != nil {
		if errors.Is(err, checkout.ErrCheckoutRejected) {
			return CheckoutResult{}, err
		}
		return CheckoutResult{}, fmt.Errorf("submit order: %v: %w", err, ErrUnavailable)
	}

	s.store.Consume(items)
	s.mu.Lock()
	// Accepted applies install a new pointer, so identity tells whether the
	// coupon is still the one the order used.
	if s.coupon == submitted {
		s.coupon = nil
	}
	s.mu.Unlock()

	h.publishCheckedOut(submitCtx, sessionID, order, snap)
	return CheckoutResult{Order: order, Cart: h.view(s)}, nil
}

func (h *CartService) submitTimeout() time.Duration {
	if h.SubmitTimeout > 0 {
		return h.SubmitTimeout
	}
	return defaultSubmitTimeout
}

func (h *CartService) publishCheckedOut(ctx context.Context, sessionID string, order *checkout.Order, snap pricing.Snapshot) {
	if h.Events == nil {
		return
	}
	payload := map[string]any{
		"session_id": sessionID,
		"order_id":   order.ID,
		"total":      snap.Total.StringFixed(2),
	}
	if err := h.Events.Publish(ctx, events.TopicCart, events.New(EventCartCheckedOut, sessionID, payload)); err != nil && h.Log != nil {
		h.Log.Error("publish_cart_error", "session", sessionID, "type", EventCartCheckedOut, "error", err)
	}
}

func catalogErr(err error) error {
	switch {
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, catalog.ErrVariationNotFound):
		return fmt.Errorf("%v: %w", err, ErrNotFound)
	case errors.Is(err, catalog.ErrUnavailable):
		return fmt.Errorf("%v: %w", err, ErrUnavailable)
	default:
		return err
	}
}
