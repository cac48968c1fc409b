package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Skotchmaster/market_cart/gateway/internal/config"
	"github.com/Skotchmaster/market_cart/gateway/internal/httpserver"
	"github.com/Skotchmaster/market_cart/pkg/logging"
	"github.com/labstack/echo/v4"
)

func main() {
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel).With("service", "gateway")
	slog.SetDefault(logger)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	if err := httpserver.Register(e, &httpserver.Deps{
		CatalogURL: cfg.CatalogURL,
		CartURL:    cfg.CartURL,
		CouponURL:  cfg.CouponURL,
		OrderURL:   cfg.OrderURL,
		JWTSecret:  cfg.JWTSecret,
		Logger:     logger,
	}); err != nil {
		log.Fatal(err)
	}

	go func() {
		logger.Info("gateway_listening", "addr", cfg.ListenAddr,
			"cart", cfg.CartURL, "catalog", cfg.CatalogURL, "coupon", cfg.CouponURL, "order", cfg.OrderURL)
		if err := e.Start(cfg.ListenAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
	logger.Info("gateway_stopped")
}
