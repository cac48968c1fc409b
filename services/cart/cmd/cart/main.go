package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	pkgdb "github.com/Skotchmaster/market_cart/pkg/db"
	"github.com/Skotchmaster/market_cart/pkg/events"
	"github.com/Skotchmaster/market_cart/pkg/logging"
	loggingmw "github.com/Skotchmaster/market_cart/pkg/middleware/logging"

	"github.com/Skotchmaster/market_cart/services/cart/internal/cache"
	"github.com/Skotchmaster/market_cart/services/cart/internal/catalog"
	"github.com/Skotchmaster/market_cart/services/cart/internal/checkout"
	cartcfg "github.com/Skotchmaster/market_cart/services/cart/internal/config"
	"github.com/Skotchmaster/market_cart/services/cart/internal/coupon"
	"github.com/Skotchmaster/market_cart/services/cart/internal/httpserver"
	"github.com/Skotchmaster/market_cart/services/cart/internal/repo"
	"github.com/Skotchmaster/market_cart/services/cart/internal/service"
)

func main() {
	cfg := cartcfg.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := repo.Migrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	var cartCache service.CartCache
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Printf("warning: redis unavailable, cart cache disabled: %v", err)
			_ = redisClient.Close()
			redisClient = nil
		} else {
			cartCache = cache.NewRedisCache(redisClient)
		}
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, logger)
	}

	registry := service.NewRegistry(&repo.GormRepo{DB: db}, cartCache, publisher, logger)
	cartService := &service.CartService{
		Sessions: registry,
		Catalog:  catalog.NewClient(cfg.CatalogURL, cfg.HTTPClientTimeout),
		Coupons:  coupon.NewResolver(coupon.NewClient(cfg.CouponURL, cfg.HTTPClientTimeout, logger)),
		Orders:   checkout.NewOrderClient(cfg.OrderURL, cfg.HTTPClientTimeout),
		Events:   publisher,
		Log:      logger,
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		CartHandler: &httpserver.CartHTTP{Svc: cartService},
		JWTSecret:   cfg.JWTAccessSecret,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if n := registry.Sweep(cfg.SessionIdleTTL); n > 0 {
					logger.Info("sessions_evicted", "count", n)
				}
			}
		}
	}()

	go func() {
		log.Printf("cart listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down cart...")
	stopSweep()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	if err := publisher.Close(); err != nil {
		log.Printf("events close: %v", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if err := pkgdb.Close(db); err != nil {
		log.Printf("db close: %v", err)
	}

	log.Println("cart stopped")
}
