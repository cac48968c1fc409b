package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Skotchmaster/market_cart/pkg/logging"
	middleware "github.com/Skotchmaster/market_cart/pkg/middleware/auth"
	"github.com/Skotchmaster/market_cart/pkg/util"
	"github.com/Skotchmaster/market_cart/services/order/internal/service"
	"github.com/Skotchmaster/market_cart/services/order/internal/transport"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func owner(c echo.Context) (string, error) {
	userID := middleware.UserID(c)
	if userID == "" {
		return "", errors.New("unauthorized")
	}
	return "user:" + userID, nil
}

// reason trims the ": <sentinel>" suffix so clients see only the message.
func reason(err error, sentinel error) string {
	return strings.TrimSuffix(err.Error(), ": "+sentinel.Error())
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_order_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.CreateOrder(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			l.Warn("create_order_error", "status", 422, "reason", "validation", "error", err)
			return echo.NewHTTPError(http.StatusUnprocessableEntity, reason(err, service.ErrValidation))
		case errors.Is(err, service.ErrConflict):
			l.Warn("create_order_error", "status", 422, "reason", "totals mismatch", "error", err)
			return echo.NewHTTPError(http.StatusUnprocessableEntity, reason(err, service.ErrConflict))
		default:
			l.Error("create_order_error", "status", 500, "reason", "internal error", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	l.Info("create_order_success", "order_id", order.ID)
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) GetOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_orders")

	who, err := owner(c)
	if err != nil {
		l.Warn("get_orders_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, orders, err := h.Svc.ListOrders(ctx, who, offset, limit)
	if err != nil {
		l.Error("get_orders_error", "status", 500, "reason", "cannot list orders", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list orders")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": orders,
		"meta": util.NewMeta(page, offset, limit, total),
	})
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	who, err := owner(c)
	if err != nil {
		l.Warn("get_order_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("get_order_error", "status", 400, "reason", "id not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id not a uuid")
	}

	order, err := h.Svc.GetOrder(ctx, who, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("get_order_error", "status", 404, "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		l.Error("get_order_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot get order")
	}
	return c.JSON(http.StatusOK, order)
}
