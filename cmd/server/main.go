package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/orvella-storefront/internal/config"
	"github.com/iliyamo/orvella-storefront/internal/database"
	"github.com/iliyamo/orvella-storefront/internal/handler"
	"github.com/iliyamo/orvella-storefront/internal/middleware"
	"github.com/iliyamo/orvella-storefront/internal/notify"
	"github.com/iliyamo/orvella-storefront/internal/queue"
	"github.com/iliyamo/orvella-storefront/internal/repository"
	"github.com/iliyamo/orvella-storefront/internal/router"
	"github.com/iliyamo/orvella-storefront/internal/service"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()

	users := repository.NewUserRepo(db)
	products := repository.NewProductRepo(db)
	orders := repository.NewOrderRepo(db)
	notifications := repository.NewNotificationRepo(db)

	bus := notify.New(cfg.BusBuffer)

	gate := service.NewAuthGate(users, cfg.JWTSecret, time.Duration(cfg.SessionTTLHours)*time.Hour, cfg.BcryptCost)
	orderSvc := service.NewOrderService(orders, products, bus, cfg.PriceTolerance)
	catalog := service.NewCatalogService(products)
	if purger := middleware.NewCachePurger(cacheCfg, rdb); purger != nil {
		orderSvc.Purger = purger
		catalog.Purger = purger
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Bus events reach the notifications table through RabbitMQ when it is
	// configured and directly otherwise.
	var sink queue.Sink = queue.StoreSink{Store: notifications}
	if cfg.RabbitURL != "" {
		sink = queue.NewPublisher(cfg.RabbitURL)
		consumer := queue.NewConsumer(cfg.RabbitURL, notifications)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("order-consumer: %v", err)
			}
		}()
	}
	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		queue.NewRelay(bus, sink).Run(ctx)
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Printf("%s %s %d %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.AllowedOrigin},
		AllowCredentials: true,
	}))

	router.Register(e, router.Handlers{
		Auth:          handler.NewAuthHandler(cfg, gate),
		Orders:        handler.NewOrderHandler(orderSvc),
		Products:      handler.NewProductHandler(catalog),
		Users:         handler.NewUserHandler(service.NewUserService(users)),
		Notifications: handler.NewNotificationHandler(bus, notifications, cfg.AllowedOrigin),
		Health:        handler.Health(db),
	}, router.Middleware{
		Session:   middleware.Session(gate, cfg.CookieName),
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		Cache:     middleware.NewRedisCache(cacheCfg, rdb),
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	// Closing the bus ends open dashboard sockets and the relay.
	bus.Close()
	<-relayDone
}
