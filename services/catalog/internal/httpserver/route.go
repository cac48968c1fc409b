package httpserver

import (
	"net/http"

	middleware "github.com/Skotchmaster/market_cart/pkg/middleware/auth"
	"github.com/labstack/echo/v4"
)

type Deps struct {
	CatalogHandler *CatalogHTTP
	JWTSecret      []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	authMW := middleware.NewAuthMiddleware(d.JWTSecret)

	products := e.Group("/catalog/products")
	products.GET("", d.CatalogHandler.GetProducts)
	products.GET("/:id", d.CatalogHandler.GetProduct)

	products.POST("", d.CatalogHandler.CreateProduct, authMW.RequireAdmin)
	products.PATCH("/:id", d.CatalogHandler.PatchProduct, authMW.RequireAdmin)
	products.DELETE("/:id", d.CatalogHandler.DeleteProduct, authMW.RequireAdmin)
}
