package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/robocademy/inventory-backend/api/routes"
	"github.com/robocademy/inventory-backend/internal/realtime"
	"github.com/robocademy/inventory-backend/internal/stock"
	"github.com/robocademy/inventory-backend/pkg/config"
	"github.com/robocademy/inventory-backend/pkg/db"
	"github.com/robocademy/inventory-backend/pkg/logger"
	"github.com/robocademy/inventory-backend/pkg/metrics"
	"github.com/robocademy/inventory-backend/pkg/migrate"
	"github.com/robocademy/inventory-backend/pkg/redis"
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

	broadcaster, err := realtime.NewStockPublisher(redisClient, cfg.Realtime.StockChannel, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock publisher", err)
		os.Exit(1)
	}

	stockMetrics := metrics.NewStockMetrics(prometheus.DefaultRegisterer)

	stockService, err := stock.NewService(
		stock.NewRepository(dbClient.DB()),
		dbClient,
		broadcaster,
		logg,
		stockMetrics,
		cfg.Stock.LowStockThreshold,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, stockService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
