package controllers

import (
	"net/http"
	"strings"

	"github.com/robocademy/inventory-backend/api/responses"
	"github.com/robocademy/inventory-backend/api/validators"
	stocksvc "github.com/robocademy/inventory-backend/internal/stock"
	"github.com/robocademy/inventory-backend/pkg/enums"
	pkgerrors "github.com/robocademy/inventory-backend/pkg/errors"
	"github.com/robocademy/inventory-backend/pkg/logger"
	"github.com/robocademy/inventory-backend/pkg/pagination"
)

// InventoryList returns the per-part stock levels with search, filtering,
// sorting and pagination.
func InventoryList(svc stocksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		var category *enums.PartCategory
		if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
			parsed, err := enums.ParsePartCategory(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
				return
			}
			category = &parsed
		}

		page, err := validators.ParseQueryInt(r, "page", 1, 1, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		activeOnly, err := validators.ParseQueryBool(r, "active_only", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sortDesc := strings.EqualFold(r.URL.Query().Get("order"), "desc")

		result, err := svc.ListLevels(r.Context(), stocksvc.ListLevelsInput{
			Search:     r.URL.Query().Get("search"),
			Category:   category,
			ActiveOnly: activeOnly,
			SortBy:     strings.TrimSpace(r.URL.Query().Get("sort_by")),
			SortDesc:   sortDesc,
			Pagination: pagination.Params{Page: page, Limit: limit},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// InventoryStats returns the dashboard inventory summary.
func InventoryStats(svc stocksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, stats)
	}
}

// InventoryCategories returns the per-category part and unit counts.
func InventoryCategories(svc stocksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		counts, err := svc.CategoryBreakdown(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, counts)
	}
}
