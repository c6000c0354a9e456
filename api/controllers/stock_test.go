package controllers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/robocademy/inventory-backend/api/middleware"
	stocksvc "github.com/robocademy/inventory-backend/internal/stock"
	"github.com/robocademy/inventory-backend/pkg/db/models"
	"github.com/robocademy/inventory-backend/pkg/enums"
	"github.com/robocademy/inventory-backend/pkg/logger"
)

type stubStockService struct {
	adjustInput *stocksvc.AdjustInput
	adjustErr   error
}

func (s *stubStockService) Adjust(ctx context.Context, input stocksvc.AdjustInput) (*stocksvc.AdjustResult, error) {
	s.adjustInput = &input
	if s.adjustErr != nil {
		return nil, s.adjustErr
	}
	return &stocksvc.AdjustResult{
		Movement: models.StockMovement{ID: uuid.New(), PartID: input.PartID, QtyChange: input.QtyChange, Reason: input.Reason},
		Level:    models.StockLevel{PartID: input.PartID, AvailableQty: input.QtyChange},
	}, nil
}

func (s *stubStockService) MovementsForPart(ctx context.Context, partID uuid.UUID) ([]models.StockMovement, error) {
	return nil, nil
}

func (s *stubStockService) History(ctx context.Context, filter stocksvc.HistoryFilter) ([]stocksvc.MovementRecord, error) {
	return []stocksvc.MovementRecord{}, nil
}

func (s *stubStockService) Recent(ctx context.Context, limit int) ([]stocksvc.MovementRecord, error) {
	return []stocksvc.MovementRecord{}, nil
}

func (s *stubStockService) ListLevels(ctx context.Context, input stocksvc.ListLevelsInput) (*stocksvc.LevelPage, error) {
	return &stocksvc.LevelPage{}, nil
}

func (s *stubStockService) Stats(ctx context.Context) (*stocksvc.InventoryStats, error) {
	return &stocksvc.InventoryStats{}, nil
}

func (s *stubStockService) CategoryBreakdown(ctx context.Context) ([]stocksvc.CategoryStat, error) {
	return []stocksvc.CategoryStat{}, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func TestStockAdjust(t *testing.T) {
	logg := testLogger()
	userID := uuid.New()
	partID := uuid.New()

	postAdjust := func(ctx context.Context, body string, stub *stubStockService) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/stock/adjust", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req = req.WithContext(ctx)
		rec := httptest.NewRecorder()
		StockAdjust(stub, logg).ServeHTTP(rec, req)
		return rec
	}

	t.Run("missing user", func(t *testing.T) {
		rec := postAdjust(context.Background(), `{"part_id":"`+partID.String()+`","qty_change":5,"reason":"purchase"}`, &stubStockService{})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 when user missing, got %d", rec.Code)
		}
	})

	t.Run("invalid body", func(t *testing.T) {
		ctx := middleware.WithUserID(context.Background(), userID.String())
		rec := postAdjust(ctx, `{`, &stubStockService{})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for invalid body, got %d", rec.Code)
		}
	})

	t.Run("unknown reason", func(t *testing.T) {
		ctx := middleware.WithUserID(context.Background(), userID.String())
		rec := postAdjust(ctx, `{"part_id":"`+partID.String()+`","qty_change":5,"reason":"restock"}`, &stubStockService{})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for unknown reason, got %d", rec.Code)
		}
	})

	t.Run("zero qty accepted", func(t *testing.T) {
		ctx := middleware.WithUserID(context.Background(), userID.String())
		stub := &stubStockService{}
		rec := postAdjust(ctx, `{"part_id":"`+partID.String()+`","qty_change":0,"reason":"adjustment"}`, stub)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201 for zero qty, got %d: %s", rec.Code, rec.Body.String())
		}
		if stub.adjustInput == nil || stub.adjustInput.QtyChange != 0 {
			t.Fatalf("expected zero qty to reach the service, got %+v", stub.adjustInput)
		}
	})

	t.Run("success", func(t *testing.T) {
		ctx := middleware.WithUserID(context.Background(), userID.String())
		stub := &stubStockService{}
		rec := postAdjust(ctx, `{"part_id":"`+partID.String()+`","qty_change":-3,"reason":"used","notes":"robotics 101 session"}`, stub)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201 on success, got %d: %s", rec.Code, rec.Body.String())
		}
		if stub.adjustInput == nil {
			t.Fatalf("expected Adjust to be invoked")
		}
		input := *stub.adjustInput
		if input.PartID != partID || input.QtyChange != -3 || input.Reason != enums.StockReasonUsed {
			t.Fatalf("unexpected adjust input: %+v", input)
		}
		if input.CreatedBy != userID {
			t.Fatalf("expected actor from context, got %s", input.CreatedBy)
		}
		if input.Notes == nil || *input.Notes != "robotics 101 session" {
			t.Fatalf("expected notes to pass through, got %v", input.Notes)
		}
	})
}

func TestStockHistoryQueryValidation(t *testing.T) {
	logg := testLogger()

	get := func(target string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		StockHistory(&stubStockService{}, logg).ServeHTTP(rec, req)
		return rec
	}

	if rec := get("/api/v1/stock/history?part_id=not-a-uuid"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad part_id, got %d", rec.Code)
	}
	if rec := get("/api/v1/stock/history?reason=restock"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad reason, got %d", rec.Code)
	}
	if rec := get("/api/v1/stock/history?start_date=yesterday"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad start_date, got %d", rec.Code)
	}
	if rec := get("/api/v1/stock/history?limit=5000"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-range limit, got %d", rec.Code)
	}
	if rec := get("/api/v1/stock/history?reason=used&limit=5"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for valid query, got %d", rec.Code)
	}
}

func TestInventoryListQueryValidation(t *testing.T) {
	logg := testLogger()

	get := func(target string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		InventoryList(&stubStockService{}, logg).ServeHTTP(rec, req)
		return rec
	}

	if rec := get("/api/v1/inventory?category=widget"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad category, got %d", rec.Code)
	}
	if rec := get("/api/v1/inventory?page=0"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for page 0, got %d", rec.Code)
	}
	if rec := get("/api/v1/inventory?search=motor&category=motor&order=desc&sort_by=available_qty"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for valid query, got %d", rec.Code)
	}
}
