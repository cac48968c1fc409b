package httpserver

import (
	"net/http"

	middleware "github.com/Skotchmaster/market_cart/pkg/middleware/auth"
	"github.com/labstack/echo/v4"
)

type Deps struct {
	CartHandler *CartHTTP
	JWTSecret   []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	authMW := middleware.NewAuthMiddleware(d.JWTSecret)

	cart := e.Group("/cart")
	cart.Use(authMW.Session)

	cart.GET("", d.CartHandler.GetCart)
	cart.DELETE("", d.CartHandler.ClearCart)

	cart.POST("/items", d.CartHandler.AddItem)
	cart.PATCH("/items/:product_id", d.CartHandler.UpdateItem)
	cart.DELETE("/items/:product_id", d.CartHandler.RemoveItem)
	cart.POST("/items/:product_id/wishlist", d.CartHandler.MoveToWishlist)
	cart.GET("/wishlist", d.CartHandler.GetWishlist)

	cart.POST("/coupon", d.CartHandler.ApplyCoupon)
	cart.DELETE("/coupon", d.CartHandler.RemoveCoupon)

	cart.POST("/stock/refresh", d.CartHandler.RefreshStock)
	cart.POST("/checkout", d.CartHandler.Checkout)
}
