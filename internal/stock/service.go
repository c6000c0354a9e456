package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/robocademy/inventory-backend/pkg/db"
	"github.com/robocademy/inventory-backend/pkg/db/models"
	"github.com/robocademy/inventory-backend/pkg/enums"
	appErrors "github.com/robocademy/inventory-backend/pkg/errors"
	"github.com/robocademy/inventory-backend/pkg/logger"
	"github.com/robocademy/inventory-backend/pkg/metrics"
	"github.com/robocademy/inventory-backend/pkg/pagination"
)

// placeholderUnitCost values every unit at a flat rate for the dashboard
// estimate.
// TODO: replace with per-part purchase cost once procurement data lands.
var placeholderUnitCost = decimal.NewFromInt(10)

// Transactor runs a function inside a database transaction. A Begin failure
// must be returned unwrapped so it can be classified with db.IsTxUnsupported.
type Transactor interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// StockUpdate is the payload broadcast to real-time subscribers after an
// adjustment commits. Action carries the movement's reason code so clients
// can tell a purchase apart from damage when merging updates.
type StockUpdate struct {
	PartID       uuid.UUID `json:"part_id"`
	AvailableQty int       `json:"available_qty"`
	Action       string    `json:"action"`
}

// Broadcaster fans stock changes out to interested listeners. Delivery is
// best-effort; the adjustment is already durable when this runs.
type Broadcaster interface {
	StockChanged(ctx context.Context, update StockUpdate) error
}

// AdjustInput captures one signed stock adjustment request.
type AdjustInput struct {
	PartID    uuid.UUID
	QtyChange int
	Reason    enums.StockReason
	OrderID   *uuid.UUID
	CreatedBy uuid.UUID
	Notes     *string
}

// AdjustResult is the committed movement plus the refreshed level.
type AdjustResult struct {
	Movement models.StockMovement `json:"movement"`
	Level    models.StockLevel    `json:"level"`
}

// LevelPage is one page of the stock-level listing.
type LevelPage struct {
	Items []LevelRecord `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
	Pages int           `json:"pages"`
}

// InventoryStats summarizes the inventory for the dashboard.
type InventoryStats struct {
	TotalParts      int64           `json:"total_parts"`
	TotalUnits      int64           `json:"total_units"`
	LowStockCount   int64           `json:"low_stock_count"`
	OutOfStockCount int64           `json:"out_of_stock_count"`
	EstimatedValue  decimal.Decimal `json:"estimated_value"`
}

// CategoryStat is one row of the per-category dashboard breakdown.
type CategoryStat struct {
	Category       enums.PartCategory `json:"category"`
	PartCount      int64              `json:"part_count"`
	TotalUnits     int64              `json:"total_units"`
	EstimatedValue decimal.Decimal    `json:"estimated_value"`
}

// ListLevelsInput carries the listing filters plus pagination.
type ListLevelsInput struct {
	Search     string
	Category   *enums.PartCategory
	ActiveOnly bool
	SortBy     string
	SortDesc   bool
	Pagination pagination.Params
}

// Service defines the stock-ledger operations.
type Service interface {
	Adjust(ctx context.Context, input AdjustInput) (*AdjustResult, error)
	MovementsForPart(ctx context.Context, partID uuid.UUID) ([]models.StockMovement, error)
	History(ctx context.Context, filter HistoryFilter) ([]MovementRecord, error)
	Recent(ctx context.Context, limit int) ([]MovementRecord, error)
	ListLevels(ctx context.Context, input ListLevelsInput) (*LevelPage, error)
	Stats(ctx context.Context) (*InventoryStats, error)
	CategoryBreakdown(ctx context.Context) ([]CategoryStat, error)
}

type service struct {
	repo              Repository
	tx                Transactor
	broadcaster       Broadcaster
	logg              *logger.Logger
	metrics           *metrics.StockMetrics
	lowStockThreshold int
}

// NewService wires the stock service. Broadcaster and metrics are optional.
func NewService(
	repo Repository,
	tx Transactor,
	broadcaster Broadcaster,
	logg *logger.Logger,
	m *metrics.StockMetrics,
	lowStockThreshold int,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transactor required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:              repo,
		tx:                tx,
		broadcaster:       broadcaster,
		logg:              logg,
		metrics:           m,
		lowStockThreshold: lowStockThreshold,
	}, nil
}

// Adjust appends one movement to the ledger and re-materializes the part's
// level from the full ledger. The write runs transactionally; when the store
// reports it cannot open transactions at all, the same steps run directly on
// the base connection with a compensating delete if the level refresh fails.
func (s *service) Adjust(ctx context.Context, input AdjustInput) (*AdjustResult, error) {
	if err := validateAdjustInput(input); err != nil {
		return nil, err
	}

	ctx = s.logg.WithPartID(ctx, input.PartID.String())

	if _, err := s.repo.GetPart(ctx, input.PartID); err != nil {
		if db.IsNotFound(err) {
			return nil, appErrors.New(appErrors.CodeNotFound, "part not found")
		}
		return nil, appErrors.Wrap(appErrors.CodeInternal, err, "loading part")
	}

	movement := &models.StockMovement{
		ID:        uuid.New(),
		PartID:    input.PartID,
		QtyChange: input.QtyChange,
		Reason:    input.Reason,
		OrderID:   input.OrderID,
		CreatedBy: input.CreatedBy,
		Notes:     input.Notes,
	}

	started := time.Now()
	var level *models.StockLevel
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		applied, err := s.applyLedger(ctx, s.repo.WithTx(tx), movement)
		if err != nil {
			return err
		}
		level = applied
		return nil
	})
	if txErr != nil {
		if !db.IsTxUnsupported(txErr) {
			return nil, appErrors.Wrap(appErrors.CodeInternal, txErr, "adjusting stock")
		}

		s.logg.Warn(ctx, "store does not support transactions, using direct writes")
		s.metrics.IncFallback()

		applied, err := s.adjustWithoutTx(ctx, movement)
		if err != nil {
			return nil, appErrors.Wrap(appErrors.CodeInternal, err, "adjusting stock without transaction")
		}
		level = applied
	}

	s.metrics.IncAdjustment(input.Reason.String())
	s.metrics.ObserveAdjustDuration(time.Since(started))
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"movement_id":   movement.ID,
		"qty_change":    movement.QtyChange,
		"reason":        movement.Reason,
		"available_qty": level.AvailableQty,
	}), "stock adjusted")

	s.broadcast(ctx, StockUpdate{
		PartID:       movement.PartID,
		AvailableQty: level.AvailableQty,
		Action:       movement.Reason.String(),
	})

	return &AdjustResult{Movement: *movement, Level: *level}, nil
}

// applyLedger runs the write sequence against the given repository binding:
// ensure a level row, append the movement, then recompute the level from the
// whole ledger and overwrite the row. Levels are never incremented in place.
func (s *service) applyLedger(ctx context.Context, repo Repository, movement *models.StockMovement) (*models.StockLevel, error) {
	if _, err := repo.EnsureLevel(ctx, movement.PartID); err != nil {
		return nil, fmt.Errorf("ensuring stock level: %w", err)
	}
	if err := repo.AppendMovement(ctx, movement); err != nil {
		return nil, fmt.Errorf("appending movement: %w", err)
	}
	return s.refreshLevel(ctx, repo, movement.PartID)
}

// adjustWithoutTx mirrors applyLedger on the base connection. If the level
// refresh fails after the movement landed, the movement is deleted so the
// ledger does not hold a change the level cache never saw; a failed delete is
// reported alongside the original error.
func (s *service) adjustWithoutTx(ctx context.Context, movement *models.StockMovement) (*models.StockLevel, error) {
	if _, err := s.repo.EnsureLevel(ctx, movement.PartID); err != nil {
		return nil, fmt.Errorf("ensuring stock level: %w", err)
	}
	if err := s.repo.AppendMovement(ctx, movement); err != nil {
		return nil, fmt.Errorf("appending movement: %w", err)
	}

	level, err := s.refreshLevel(ctx, s.repo, movement.PartID)
	if err != nil {
		if delErr := s.repo.DeleteMovement(ctx, movement.ID); delErr != nil {
			err = multierr.Append(err, fmt.Errorf("compensating movement delete: %w", delErr))
		}
		return nil, err
	}
	return level, nil
}

func (s *service) refreshLevel(ctx context.Context, repo Repository, partID uuid.UUID) (*models.StockLevel, error) {
	totals, err := repo.Aggregate(ctx, partID)
	if err != nil {
		return nil, fmt.Errorf("aggregating ledger: %w", err)
	}

	level := &models.StockLevel{
		PartID:       partID,
		AvailableQty: totals.Available,
		UsedQty:      totals.Used,
		DamagedQty:   totals.Damaged,
	}
	if err := repo.SaveLevel(ctx, level); err != nil {
		return nil, fmt.Errorf("saving stock level: %w", err)
	}
	return level, nil
}

func (s *service) broadcast(ctx context.Context, update StockUpdate) {
	if s.broadcaster == nil {
		return
	}
	if err := s.broadcaster.StockChanged(ctx, update); err != nil {
		s.metrics.IncBroadcastFailure()
		s.logg.Warn(s.logg.WithField(ctx, "broadcast_error", err.Error()), "stock update broadcast failed")
	}
}

func validateAdjustInput(input AdjustInput) error {
	if input.PartID == uuid.Nil {
		return appErrors.New(appErrors.CodeValidation, "part id is required")
	}
	if !input.Reason.IsValid() {
		return appErrors.New(appErrors.CodeValidation, fmt.Sprintf("invalid stock reason %q", input.Reason))
	}
	if input.CreatedBy == uuid.Nil {
		return appErrors.New(appErrors.CodeValidation, "created by is required")
	}
	return nil
}

func (s *service) MovementsForPart(ctx context.Context, partID uuid.UUID) ([]models.StockMovement, error) {
	if partID == uuid.Nil {
		return nil, appErrors.New(appErrors.CodeValidation, "part id is required")
	}
	movements, err := s.repo.MovementsByPart(ctx, partID)
	if err != nil {
		return nil, appErrors.Wrap(appErrors.CodeInternal, err, "listing movements")
	}
	return movements, nil
}

func (s *service) History(ctx context.Context, filter HistoryFilter) ([]MovementRecord, error) {
	if filter.Reason != nil && !filter.Reason.IsValid() {
		return nil, appErrors.New(appErrors.CodeValidation, fmt.Sprintf("invalid stock reason %q", *filter.Reason))
	}
	records, err := s.repo.MovementHistory(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(appErrors.CodeInternal, err, "loading movement history")
	}
	return records, nil
}

func (s *service) Recent(ctx context.Context, limit int) ([]MovementRecord, error) {
	records, err := s.repo.RecentMovements(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(appErrors.CodeInternal, err, "loading recent movements")
	}
	return records, nil
}

func (s *service) ListLevels(ctx context.Context, input ListLevelsInput) (*LevelPage, error) {
	if input.Category != nil && !input.Category.IsValid() {
		return nil, appErrors.New(appErrors.CodeValidation, fmt.Sprintf("invalid part category %q", *input.Category))
	}

	params := input.Pagination.Normalize()
	records, total, err := s.repo.ListLevels(ctx, LevelFilter{
		Search:     input.Search,
		Category:   input.Category,
		ActiveOnly: input.ActiveOnly,
		SortBy:     input.SortBy,
		SortDesc:   input.SortDesc,
		Offset:     params.Offset(),
		Limit:      params.Limit,
	})
	if err != nil {
		return nil, appErrors.Wrap(appErrors.CodeInternal, err, "listing stock levels")
	}

	return &LevelPage{
		Items: records,
		Total: total,
		Page:  params.Page,
		Limit: params.Limit,
		Pages: pagination.PageCount(total, params.Limit),
	}, nil
}

func (s *service) Stats(ctx context.Context) (*InventoryStats, error) {
	totals, err := s.repo.LevelTotals(ctx, s.lowStockThreshold)
	if err != nil {
		return nil, appErrors.Wrap(appErrors.CodeInternal, err, "loading inventory stats")
	}

	return &InventoryStats{
		TotalParts:      totals.TotalParts,
		TotalUnits:      totals.TotalUnits,
		LowStockCount:   totals.LowStockCount,
		OutOfStockCount: totals.OutOfStockCount,
		EstimatedValue:  placeholderUnitCost.Mul(decimal.NewFromInt(totals.TotalUnits)),
	}, nil
}

func (s *service) CategoryBreakdown(ctx context.Context) ([]CategoryStat, error) {
	counts, err := s.repo.CategoryBreakdown(ctx)
	if err != nil {
		return nil, appErrors.Wrap(appErrors.CodeInternal, err, "loading category breakdown")
	}

	stats := make([]CategoryStat, 0, len(counts))
	for _, count := range counts {
		stats = append(stats, CategoryStat{
			Category:       count.Category,
			PartCount:      count.PartCount,
			TotalUnits:     count.TotalUnits,
			EstimatedValue: placeholderUnitCost.Mul(decimal.NewFromInt(count.TotalUnits)),
		})
	}
	return stats, nil
}
