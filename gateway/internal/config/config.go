package config

import (
	"strings"

	"github.com/Skotchmaster/market_cart/pkg/config"
)

type Config struct {
	ListenAddr string
	LogLevel   string
	CatalogURL string
	CartURL    string
	CouponURL  string
	OrderURL   string
	JWTSecret  []byte
}

func Load() *Config {
	base := config.Load()
	cfg := &Config{
		ListenAddr: config.EnvDefault("GATEWAY_ADDR", ":8080"),
		LogLevel:   base.LogLevel,
		CatalogURL: base.CatalogURL,
		CartURL:    strings.TrimRight(config.EnvDefault("CART_URL", ""), "/"),
		CouponURL:  base.CouponURL,
		OrderURL:   base.OrderURL,
		JWTSecret:  base.JWTAccessSecret,
	}

	config.MustNonEmpty(cfg.CatalogURL, "CATALOG_URL")
	config.MustNonEmpty(cfg.CartURL, "CART_URL")
	config.MustNonEmpty(cfg.CouponURL, "COUPON_URL")
	config.MustNonEmpty(cfg.OrderURL, "ORDER_URL")
	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")
	return cfg
}
