package config

import "github.com/Skotchmaster/market_cart/pkg/config"

type ServiceConfig struct {
	config.Config
}

func Load() ServiceConfig {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "cart"
	}

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustNonEmpty(cfg.CatalogURL, "CATALOG_URL")
	config.MustNonEmpty(cfg.CouponURL, "COUPON_URL")
	config.MustNonEmpty(cfg.OrderURL, "ORDER_URL")

	return ServiceConfig{Config: cfg}
}
