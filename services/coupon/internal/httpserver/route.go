package httpserver

import (
	"net/http"

	middleware "github.com/Skotchmaster/market_cart/pkg/middleware/auth"
	"github.com/labstack/echo/v4"
)

type Deps struct {
	CouponHandler *CouponHTTP
	JWTSecret     []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	authMW := middleware.NewAuthMiddleware(d.JWTSecret)

	coupons := e.Group("/coupons")
	coupons.POST("/validate", d.CouponHandler.ValidateCoupon)

	coupons.GET("", d.CouponHandler.GetCoupons, authMW.RequireAdmin)
	coupons.POST("", d.CouponHandler.CreateCoupon, authMW.RequireAdmin)
	coupons.PATCH("/:id", d.CouponHandler.PatchCoupon, authMW.RequireAdmin)
	coupons.DELETE("/:id", d.CouponHandler.DeleteCoupon, authMW.RequireAdmin)
}
