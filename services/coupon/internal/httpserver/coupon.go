package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Skotchmaster/market_cart/pkg/logging"
	"github.com/Skotchmaster/market_cart/pkg/util"
	"github.com/Skotchmaster/market_cart/services/coupon/internal/models"
	"github.com/Skotchmaster/market_cart/services/coupon/internal/service"
	"github.com/Skotchmaster/market_cart/services/coupon/internal/transport"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

type CouponHTTP struct {
	Svc *service.CouponService
}

func reason(err error, sentinel error) string {
	return strings.TrimSuffix(err.Error(), ": "+sentinel.Error())
}

func rejected(c *models.Coupon, msg string) transport.ValidateResponse {
	resp := transport.ValidateResponse{Status: statusError, Message: msg}
	if c != nil {
		active := c.Active
		resp.Code = c.Code
		resp.IsActive = &active
	}
	return resp
}

// ValidateCoupon answers the cart's coupon lookups. Rejections carry
// status "error" and a message meant for the shopper.
func (h *CouponHTTP) ValidateCoupon(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.validate")

	var req transport.ValidateRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("validate_coupon_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	coupon, err := h.Svc.Validate(ctx, req.Code)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrValidation):
		l.Warn("validate_coupon_error", "status", 422, "reason", "validation", "error", err)
		return c.JSON(http.StatusUnprocessableEntity, rejected(nil, reason(err, service.ErrValidation)))
	case errors.Is(err, service.ErrNotFound):
		l.Info("validate_coupon_error", "status", 404, "reason", "not found")
		return c.JSON(http.StatusNotFound, rejected(nil, "invalid coupon code"))
	case errors.Is(err, service.ErrInactive), errors.Is(err, service.ErrNotYetValid), errors.Is(err, service.ErrExpired):
		l.Info("validate_coupon_error", "status", 422, "reason", err.Error(), "code", coupon.Code)
		return c.JSON(http.StatusUnprocessableEntity, rejected(coupon, err.Error()))
	default:
		l.Error("validate_coupon_error", "status", 500, "reason", "cannot validate coupon", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot validate coupon")
	}

	active := true
	l.Info("validate_coupon_success", "code", coupon.Code)
	return c.JSON(http.StatusOK, transport.ValidateResponse{
		Status:   statusSuccess,
		Code:     coupon.Code,
		IsActive: &active,
		Discount: &transport.Discount{
			Rate: coupon.Rate.String(),
			Type: string(coupon.Type),
		},
	})
}

func (h *CouponHTTP) GetCoupons(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.get_coupons")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.ListCoupons(ctx, offset, limit)
	if err != nil {
		l.Error("get_coupons_error", "status", 500, "reason", "cannot list coupons", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list coupons")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": util.NewMeta(page, offset, limit, total),
	})
}

func (h *CouponHTTP) CreateCoupon(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.create_coupon")

	var req transport.CreateCouponRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_coupon_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	created, err := h.Svc.CreateCoupon(ctx, req)
	if err != nil {
		return fail(l, "create_coupon_error", err)
	}

	l.Info("create_coupon_success", "coupon_id", created.ID, "code", created.Code)
	return c.JSON(http.StatusCreated, created)
}

func (h *CouponHTTP) PatchCoupon(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.patch_coupon")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("patch_coupon_error", "status", 400, "reason", "id not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id not a uuid")
	}

	var req transport.PatchCouponRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("patch_coupon_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	updated, err := h.Svc.PatchCoupon(ctx, req, id)
	if err != nil {
		return fail(l, "patch_coupon_error", err)
	}

	l.Info("patch_coupon_success", "coupon_id", updated.ID)
	return c.JSON(http.StatusOK, updated)
}

func (h *CouponHTTP) DeleteCoupon(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.delete_coupon")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("delete_coupon_error", "status", 400, "reason", "id not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id not a uuid")
	}
	if err := h.Svc.DeleteCoupon(ctx, id); err != nil {
		return fail(l, "delete_coupon_error", err)
	}

	l.Info("delete_coupon_success", "coupon_id", id)
	return c.NoContent(http.StatusNoContent)
}

func fail(l *slog.Logger, event string, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		l.Warn(event, "status", 422, "reason", "validation", "error", err)
		return echo.NewHTTPError(http.StatusUnprocessableEntity, reason(err, service.ErrValidation))
	case errors.Is(err, service.ErrConflict):
		l.Warn(event, "status", 409, "reason", "duplicate code", "error", err)
		return echo.NewHTTPError(http.StatusConflict, reason(err, service.ErrConflict))
	case errors.Is(err, service.ErrNotFound):
		l.Warn(event, "status", 404, "reason", "coupon not found", "error", err)
		return echo.NewHTTPError(http.StatusNotFound, "coupon not found")
	default:
		l.Error(event, "status", 500, "reason", "internal error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
