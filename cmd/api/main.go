package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/leafline/dispensary-backend/api"
	"github.com/leafline/dispensary-backend/api/routes"
	"github.com/leafline/dispensary-backend/internal/cart"
	"github.com/leafline/dispensary-backend/internal/invoices"
	"github.com/leafline/dispensary-backend/internal/orders"
	"github.com/leafline/dispensary-backend/internal/products"
	"github.com/leafline/dispensary-backend/internal/promotions"
	"github.com/leafline/dispensary-backend/internal/stores"
	"github.com/leafline/dispensary-backend/pkg/config"
	"github.com/leafline/dispensary-backend/pkg/db"
	"github.com/leafline/dispensary-backend/pkg/logger"
	"github.com/leafline/dispensary-backend/pkg/metrics"
	"github.com/leafline/dispensary-backend/pkg/migrate"
	"github.com/leafline/dispensary-backend/pkg/outbox"
	"github.com/leafline/dispensary-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	pricingMetrics := metrics.NewPricingMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	storesRepo := stores.NewRepository(dbClient.DB())
	productsRepo := products.NewRepository(dbClient.DB())
	promotionsRepo := promotions.NewRepository(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())

	storesService, err := stores.NewService(storesRepo)
	requireService(logg, "stores", err)
	productsService, err := products.NewService(productsRepo, dbClient, logg)
	requireService(logg, "products", err)
	promotionsService, err := promotions.NewService(promotionsRepo, redisClient, outboxService, dbClient, logg, cfg.Promotions)
	requireService(logg, "promotions", err)
	cartService, err := cart.NewService(cartRepo, productsRepo, promotionsService, dbClient, logg, pricingMetrics)
	requireService(logg, "cart", err)
	ordersService, err := orders.NewService(ordersRepo, cartRepo, productsRepo, promotionsService, outboxService, dbClient, logg)
	requireService(logg, "orders", err)
	invoicesService, err := invoices.NewService(ordersRepo, storesRepo, logg)
	requireService(logg, "invoices", err)

	router := routes.NewRouter(routes.Deps{
		Config:       cfg,
		Logger:       logg,
		DBPinger:     dbClient,
		CachePinger:  redisClient,
		Idempotency:  redisClient,
		HTTPMetrics:  httpMetrics,
		PromGatherer: registry,
		Stores:       storesService,
		Products:     productsService,
		Promotions:   promotionsService,
		Cart:         cartService,
		Orders:       ordersService,
		Invoices:     invoicesService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	server := api.NewServer(":"+port, router, logg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"port": port,
	})
	logg.Info(ctx, "starting api server")

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "api server shut down gracefully")
	}
}

func requireService(logg *logger.Logger, name string, err error) {
	if err != nil {
		ctx := logg.WithField(context.Background(), "service", name)
		logg.Error(ctx, "failed to create service", err)
		os.Exit(1)
	}
}
