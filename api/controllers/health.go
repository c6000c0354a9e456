package controllers

import (
	"net/http"

	"github.com/robocademy/inventory-backend/api/responses"
	"github.com/robocademy/inventory-backend/pkg/config"
	"github.com/robocademy/inventory-backend/pkg/db"
	pkgerrors "github.com/robocademy/inventory-backend/pkg/errors"
	"github.com/robocademy/inventory-backend/pkg/logger"
	"github.com/robocademy/inventory-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Robocademy-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady verifies the API can reach its datastores before reporting
// ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Robocademy-Env", cfg.App.Env)

		checks := map[string]string{}

		if dbP != nil {
			if err := dbP.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable").
						WithDetails(map[string]string{"check": "database"}))
				return
			}
			checks["database"] = "ok"
		}

		if redisP != nil {
			if err := redisP.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable").
						WithDetails(map[string]string{"check": "redis"}))
				return
			}
			checks["redis"] = "ok"
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
