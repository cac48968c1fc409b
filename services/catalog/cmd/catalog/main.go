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

	pkgdb "github.com/Skotchmaster/market_cart/pkg/db"
	"github.com/Skotchmaster/market_cart/pkg/events"
	"github.com/Skotchmaster/market_cart/pkg/logging"
	loggingmw "github.com/Skotchmaster/market_cart/pkg/middleware/logging"

	catalogcfg "github.com/Skotchmaster/market_cart/services/catalog/internal/config"
	"github.com/Skotchmaster/market_cart/services/catalog/internal/httpserver"
	"github.com/Skotchmaster/market_cart/services/catalog/internal/repo"
	"github.com/Skotchmaster/market_cart/services/catalog/internal/service"
)

func main() {
	cfg := catalogcfg.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := repo.Migrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, logger)
	}

	svc := &service.CatalogService{
		Repo:   &repo.GormRepo{DB: db},
		Events: publisher,
		Log:    logger,
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		CatalogHandler: &httpserver.CatalogHTTP{Svc: svc},
		JWTSecret:      cfg.JWTAccessSecret,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		log.Printf("catalog listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	_ = publisher.Close()
	_ = pkgdb.Close(db)

	log.Println("catalog stopped")
}
