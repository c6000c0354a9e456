package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/robocademy/inventory-backend/api/controllers"
	"github.com/robocademy/inventory-backend/api/middleware"
	stocksvc "github.com/robocademy/inventory-backend/internal/stock"
	"github.com/robocademy/inventory-backend/pkg/config"
	"github.com/robocademy/inventory-backend/pkg/db"
	"github.com/robocademy/inventory-backend/pkg/logger"
	"github.com/robocademy/inventory-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	stockService stocksvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/stock", func(r chi.Router) {
			r.Post("/adjust", controllers.StockAdjust(stockService, logg))
			r.Get("/history", controllers.StockHistory(stockService, logg))
			r.Get("/recent", controllers.StockRecent(stockService, logg))
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", controllers.InventoryList(stockService, logg))
			r.Get("/stats", controllers.InventoryStats(stockService, logg))
			r.Get("/categories", controllers.InventoryCategories(stockService, logg))
		})
	})

	return r
}
