package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/robocademy/inventory-backend/api/middleware"
	"github.com/robocademy/inventory-backend/api/responses"
	"github.com/robocademy/inventory-backend/api/validators"
	stocksvc "github.com/robocademy/inventory-backend/internal/stock"
	"github.com/robocademy/inventory-backend/pkg/enums"
	pkgerrors "github.com/robocademy/inventory-backend/pkg/errors"
	"github.com/robocademy/inventory-backend/pkg/logger"
)

type adjustStockRequest struct {
	PartID    string  `json:"part_id" validate:"required,uuid"`
	QtyChange int     `json:"qty_change"`
	Reason    string  `json:"reason" validate:"required"`
	OrderID   *string `json:"order_id,omitempty" validate:"omitempty,uuid"`
	Notes     *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

func (r adjustStockRequest) toInput(createdBy uuid.UUID) (stocksvc.AdjustInput, error) {
	partID, err := uuid.Parse(r.PartID)
	if err != nil {
		return stocksvc.AdjustInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid part id")
	}

	reason, err := enums.ParseStockReason(strings.TrimSpace(r.Reason))
	if err != nil {
		return stocksvc.AdjustInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid reason")
	}

	var orderID *uuid.UUID
	if r.OrderID != nil && strings.TrimSpace(*r.OrderID) != "" {
		parsed, err := uuid.Parse(*r.OrderID)
		if err != nil {
			return stocksvc.AdjustInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
		}
		orderID = &parsed
	}

	return stocksvc.AdjustInput{
		PartID:    partID,
		QtyChange: r.QtyChange,
		Reason:    reason,
		OrderID:   orderID,
		CreatedBy: createdBy,
		Notes:     r.Notes,
	}, nil
}

// StockAdjust records a signed stock movement for a part.
func StockAdjust(svc stocksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}
		uid, err := uuid.Parse(userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id"))
			return
		}

		var payload adjustStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Adjust(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// StockHistory lists ledger movements, newest first, with optional filters.
func StockHistory(svc stocksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		partID, err := validators.ParseQueryUUID(r, "part_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var reason *enums.StockReason
		if raw := strings.TrimSpace(r.URL.Query().Get("reason")); raw != "" {
			parsed, err := enums.ParseStockReason(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid reason"))
				return
			}
			reason = &parsed
		}

		from, err := validators.ParseQueryTime(r, "start_date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryTime(r, "end_date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.History(r.Context(), stocksvc.HistoryFilter{
			PartID: partID,
			Reason: reason,
			From:   from,
			To:     to,
			Limit:  limit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, records)
	}
}

// StockRecent lists the latest ledger movements for the dashboard feed.
func StockRecent(svc stocksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.Recent(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, records)
	}
}
