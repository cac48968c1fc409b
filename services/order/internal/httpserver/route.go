package httpserver

import (
	"net/http"

	middleware "github.com/Skotchmaster/market_cart/pkg/middleware/auth"
	"github.com/labstack/echo/v4"
)

type Deps struct {
	OrderHandler *OrderHTTP
	JWTSecret    []byte
}

// Register mounts the order routes. POST /orders is called by the cart
// service on checkout and is not exposed through the public gateway.
func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	authMW := middleware.NewAuthMiddleware(d.JWTSecret)

	orders := e.Group("/orders")
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.GET("", d.OrderHandler.GetOrders, authMW.RequireAuth)
	orders.GET("/:id", d.OrderHandler.GetOrder, authMW.RequireAuth)
}
