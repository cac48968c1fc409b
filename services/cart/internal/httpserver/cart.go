package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Skotchmaster/market_cart/pkg/logging"
	middleware "github.com/Skotchmaster/market_cart/pkg/middleware/auth"
	"github.com/Skotchmaster/market_cart/pkg/money"
	"github.com/Skotchmaster/market_cart/services/cart/internal/checkout"
	"github.com/Skotchmaster/market_cart/services/cart/internal/coupon"
	"github.com/Skotchmaster/market_cart/services/cart/internal/pricing"
	"github.com/Skotchmaster/market_cart/services/cart/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const msgUnavailable = "service temporarily unavailable, please try again"

type CartHTTP struct {
	Svc *service.CartService
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *CartHTTP) session(c echo.Context) (string, error) {
	id := middleware.SessionID(c)
	if id == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "no cart session")
	}
	return id, nil
}

func productParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "product_id is not a valid id")
	}
	return id, nil
}

func variationQuery(c echo.Context) (*uuid.UUID, error) {
	raw := strings.TrimSpace(c.QueryParam("variation_id"))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "variation_id is not a valid id")
	}
	return &id, nil
}

// fail maps service errors to HTTP responses and logs them as event.
func fail(c echo.Context, l *slog.Logger, event string, err error) error {
	var blocked *service.BlockedError
	var rejected *checkout.RejectedError
	var httpErr *echo.HTTPError

	switch {
	case errors.As(err, &httpErr):
		l.Warn(event, "status", httpErr.Code, "error", err)
		return httpErr
	case errors.Is(err, service.ErrValidation):
		l.Warn(event, "status", http.StatusUnprocessableEntity, "reason", "validation", "error", err)
		return c.JSON(http.StatusUnprocessableEntity, messageResponse{Message: validationMessage(err)})
	case errors.Is(err, service.ErrNotFound):
		l.Warn(event, "status", http.StatusNotFound, "error", err)
		return c.JSON(http.StatusNotFound, messageResponse{Message: "not found"})
	case errors.Is(err, service.ErrStaleCoupon):
		l.Info(event, "status", http.StatusConflict, "reason", "superseded by a newer coupon request")
		return c.JSON(http.StatusConflict, messageResponse{Message: "superseded by a newer coupon request"})
	case errors.As(err, &blocked):
		status := http.StatusUnprocessableEntity
		if blocked.Reason == pricing.ReasonInFlight {
			status = http.StatusConflict
		}
		l.Warn(event, "status", status, "reason", string(blocked.Reason))
		return c.JSON(status, messageResponse{Message: string(blocked.Reason)})
	case errors.As(err, &rejected):
		l.Warn(event, "status", http.StatusUnprocessableEntity, "reason", "order rejected", "error", err)
		return c.JSON(http.StatusUnprocessableEntity, messageResponse{Message: rejected.Message})
	case errors.Is(err, service.ErrUnavailable):
		l.Error(event, "status", http.StatusServiceUnavailable, "error", err)
		return c.JSON(http.StatusServiceUnavailable, messageResponse{Message: msgUnavailable})
	default:
		l.Error(event, "status", http.StatusInternalServerError, "error", err)
		return c.JSON(http.StatusInternalServerError, messageResponse{Message: "internal error"})
	}
}

// validationMessage strips the sentinel suffix from a wrapped validation error.
func validationMessage(err error) string {
	return strings.TrimSuffix(err.Error(), ": "+service.ErrValidation.Error())
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	sid, err := h.session(c)
	if err != nil {
		return fail(c, l, "get_cart_error", err)
	}
	view, err := h.Svc.GetCart(ctx, sid)
	if err != nil {
		return fail(c, l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, view)
}

type addItemRequest struct {
	ProductID   uuid.UUID      `json:"product_id"`
	VariationID *uuid.UUID     `json:"variation_id"`
	Quantity    money.Quantity `json:"quantity"`
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	sid, err := h.session(c)
	if err != nil {
		return fail(c, l, "add_item_error", err)
	}
	var req addItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_item_error", "status", 400, "reason", "invalid body", "error", err)
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid body"})
	}

	view, err := h.Svc.AddItem(ctx, sid, req.ProductID, req.VariationID, req.Quantity.Int())
	if err != nil {
		return fail(c, l, "add_item_error", err)
	}
	l.Info("add_item_success", "product_id", req.ProductID)
	return c.JSON(http.StatusOK, view)
}

type updateItemRequest struct {
	VariationID *uuid.UUID     `json:"variation_id"`
	Quantity    money.Quantity `json:"quantity"`
}

func (h *CartHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_item")

	sid, err := h.session(c)
	if err != nil {
		return fail(c, l, "update_item_error", err)
	}
	productID, err := productParam(c)
	if err != nil {
		return fail(c, l, "update_item_error", err)
	}
	var req updateItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_item_error", "status", 400, "reason", "invalid body", "error", err)
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid body"})
	}

	view, err := h.Svc.UpdateQuantity(ctx, sid, productID, req.Quantity.Int(), req.VariationID)
	if err != nil {
		return fail(c, l, "update_item_error", err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	sid, err := h.session(c)
	if err != nil {
		return fail(c, l, "remove_item_error", err)
	}
	productID, err := productParam(c)
	if err != nil {
		return fail(c, l, "remove_item_error", err)
	}
	variationID, err := variationQuery(c)
	if err != nil {
		return fail(c, l, "remove_item_error", err)
	}

	view, err := h.Svc.RemoveItem(ctx, sid, productID, variationID)
	if err != nil {
		return fail(c, l, "remove_item_error", err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) MoveToWishlist(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.move_to_wishlist")

	sid, err := h.session(c)
	if err != nil {
		return fail(c, l, "move_to_wishlist_error", err)
	}
	productID, err := productParam(c)
	if err != nil {
		return fail(c, l, "move_to_wishlist_error", err)
	}
	variationID, err := variationQuery(c)
	if err != nil {
		return fail(c, l, "move_to_wishlist_error", err)
	}

	view, err := h.Svc.MoveToWishlist(ctx, sid, productID, variationID)
	if err != nil {
		return fail(c, l, "move_to_wishlist_error", err)
	}
	l.Info("move_to_wishlist_success", "product_id", productID)
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) GetWishlist(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.wishlist")

	sid, err := h.session(c)
	if err != nil {
		return fail(c, l, "get_wishlist_error", err)
	}
	items, err := h.Svc.Wishlist(ctx, sid)
	if err != nil {
		return fail(c, l, "get_wishlist_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": items})
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	sid, err := h.session(c)
	if err != nil {
		return fail(c, l, "clear_cart_error", err)
	}
	view, err := h.Svc.Clear(ctx, sid)
	if err != nil {
		return fail(c, l, "clear_cart_error", err)
	}
	l.Info("clear_cart_success")
	return c.JSON(http.StatusOK, view)
}

type applyCouponRequest struct {
	Code string `json:"code"`
}

func (h *CartHTTP) ApplyCoupon(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.apply_coupon")

	sid, err := h.session(c)
	if err != nil {
		return fail(c, l, "apply_coupon_error", err)
	}
	var req applyCouponRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("apply_coupon_error", "status", 400, "reason", "invalid body", "error", err)
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid body"})
	}

	out, err := h.Svc.ApplyCoupon(ctx, sid, req.Code)
	if err != nil {
		if errors.Is(err, service.ErrUnavailable) {
			l.Error("apply_coupon_error", "status", http.StatusServiceUnavailable, "error", err)
			return c.JSON(http.StatusServiceUnavailable, messageResponse{Message: coupon.MsgRetry})
		}
		return fail(c, l, "apply_coupon_error", err)
	}
	if !out.Applied {
		l.Info("apply_coupon_rejected", "status", http.StatusUnprocessableEntity, "reason", out.Message)
		return c.JSON(http.StatusUnprocessableEntity, out)
	}
	l.Info("apply_coupon_success", "code", out.Cart.Coupon.Code)
	return c.JSON(http.StatusOK, out)
}

func (h *CartHTTP) RemoveCoupon(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_coupon")

	sid, err := h.session(c)
	if err != nil {
		return fail(c, l, "remove_coupon_error", err)
	}
	view, err := h.Svc.RemoveCoupon(ctx, sid)
	if err != nil {
		return fail(c, l, "remove_coupon_error", err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) RefreshStock(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.refresh_stock")

	sid, err := h.session(c)
	if err != nil {
		return fail(c, l, "refresh_stock_error", err)
	}
	view, err := h.Svc.RefreshStock(ctx, sid)
	if err != nil {
		return fail(c, l, "refresh_stock_error", err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.checkout")

	sid, err := h.session(c)
	if err != nil {
		return fail(c, l, "checkout_error", err)
	}
	res, err := h.Svc.Checkout(ctx, sid)
	if err != nil {
		return fail(c, l, "checkout_error", err)
	}
	l.Info("checkout_success", "order_id", res.Order.ID)
	return c.JSON(http.StatusCreated, res)
}
