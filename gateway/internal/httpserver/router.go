package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/Skotchmaster/market_cart/gateway/internal/middleware"
	authmw "github.com/Skotchmaster/market_cart/pkg/middleware/auth"
	"github.com/labstack/echo/v4"
)

const apiPrefix = "/api/v1"

type Deps struct {
	CartURL    string
	CatalogURL string
	CouponURL  string
	OrderURL   string

	JWTSecret []byte
	Logger    *slog.Logger
}

var writeMethods = []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}

// Register mounts the public API. Carts work for guests, so /cart is not
// behind the token check; the cart service resolves the session itself.
// Order creation is internal to the cart service and is not routed.
func Register(e *echo.Echo, d *Deps) error {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, m := range middleware.Common(logger) {
		e.Use(m)
	}

	catalogProxy, err := newProxy(d.CatalogURL, apiPrefix)
	if err != nil {
		return err
	}
	cartProxy, err := newProxy(d.CartURL, apiPrefix)
	if err != nil {
		return err
	}
	couponProxy, err := newProxy(d.CouponURL, apiPrefix)
	if err != nil {
		return err
	}
	orderProxy, err := newProxy(d.OrderURL, apiPrefix)
	if err != nil {
		return err
	}

	authMW := authmw.NewAuthMiddleware(d.JWTSecret)
	api := e.Group(apiPrefix)

	api.GET("/catalog/*", catalogProxy)
	api.Match(writeMethods, "/catalog/*", catalogProxy, authMW.RequireAdmin)

	api.Any("/cart", cartProxy)
	api.Any("/cart/*", cartProxy)

	api.Any("/coupons", couponProxy, authMW.RequireAdmin)
	api.Any("/coupons/:id", couponProxy, authMW.RequireAdmin)

	api.GET("/orders", orderProxy, authMW.RequireAuth)
	api.GET("/orders/:id", orderProxy, authMW.RequireAuth)

	return nil
}
