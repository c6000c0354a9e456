package stock

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/robocademy/inventory-backend/pkg/db/models"
	"github.com/robocademy/inventory-backend/pkg/enums"
)

// LedgerTotals is the aggregate of every movement recorded for one part.
// Available is the net signed sum of all quantity changes; Used and Damaged
// are the raw signed sums of the movements tagged with that reason.
type LedgerTotals struct {
	Available int `gorm:"column:available"`
	Used      int `gorm:"column:used"`
	Damaged   int `gorm:"column:damaged"`
}

// MovementRecord is a ledger row denormalized with part and actor identity
// for history views.
type MovementRecord struct {
	ID        uuid.UUID         `gorm:"column:id" json:"id"`
	PartID    uuid.UUID         `gorm:"column:part_id" json:"part_id"`
	PartName  string            `gorm:"column:part_name" json:"part_name"`
	PartSKU   string            `gorm:"column:part_sku" json:"part_sku"`
	QtyChange int               `gorm:"column:qty_change" json:"qty_change"`
	Reason    enums.StockReason `gorm:"column:reason" json:"reason"`
	OrderID   *uuid.UUID        `gorm:"column:order_id" json:"order_id,omitempty"`
	CreatedBy uuid.UUID         `gorm:"column:created_by" json:"created_by"`
	ActorName string            `gorm:"column:actor_name" json:"actor_name"`
	Notes     *string           `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt time.Time         `gorm:"column:created_at" json:"created_at"`
}

// LevelRecord is a stock level denormalized with its part for listing views.
// Parts that never moved stock appear with zeroed quantities.
type LevelRecord struct {
	PartID       uuid.UUID          `gorm:"column:part_id" json:"part_id"`
	Name         string             `gorm:"column:name" json:"name"`
	SKU          string             `gorm:"column:sku" json:"sku"`
	Category     enums.PartCategory `gorm:"column:category" json:"category"`
	IsActive     bool               `gorm:"column:is_active" json:"is_active"`
	AvailableQty int                `gorm:"column:available_qty" json:"available_qty"`
	UsedQty      int                `gorm:"column:used_qty" json:"used_qty"`
	DamagedQty   int                `gorm:"column:damaged_qty" json:"damaged_qty"`
	UpdatedAt    *time.Time         `gorm:"column:level_updated_at" json:"updated_at,omitempty"`
}

// LevelTotals aggregates the inventory for the dashboard stats endpoint.
type LevelTotals struct {
	TotalParts      int64 `gorm:"column:total_parts"`
	TotalUnits      int64 `gorm:"column:total_units"`
	LowStockCount   int64 `gorm:"column:low_stock_count"`
	OutOfStockCount int64 `gorm:"column:out_of_stock_count"`
}

// CategoryCount is one row of the per-category inventory breakdown.
type CategoryCount struct {
	Category   enums.PartCategory `gorm:"column:category" json:"category"`
	PartCount  int64              `gorm:"column:part_count" json:"part_count"`
	TotalUnits int64              `gorm:"column:total_units" json:"total_units"`
}

// HistoryFilter narrows the movement history view.
type HistoryFilter struct {
	PartID *uuid.UUID
	Reason *enums.StockReason
	From   *time.Time
	To     *time.Time
	Limit  int
}

// LevelFilter narrows and orders the stock-level listing.
type LevelFilter struct {
	Search     string
	Category   *enums.PartCategory
	ActiveOnly bool
	SortBy     string
	SortDesc   bool
	Offset     int
	Limit      int
}

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
	defaultRecentLimit  = 10
)

// levelSortColumns whitelists sortable columns for the listing query.
var levelSortColumns = map[string]string{
	"name":          "parts.name",
	"sku":           "parts.sku",
	"category":      "parts.category",
	"available_qty": "available_qty",
	"updated_at":    "level_updated_at",
}

// Repository manages persistence for the stock ledger and its materialized
// levels.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	GetPart(ctx context.Context, partID uuid.UUID) (*models.Part, error)
	EnsureLevel(ctx context.Context, partID uuid.UUID) (*models.StockLevel, error)
	AppendMovement(ctx context.Context, movement *models.StockMovement) error
	DeleteMovement(ctx context.Context, movementID uuid.UUID) error
	Aggregate(ctx context.Context, partID uuid.UUID) (LedgerTotals, error)
	SaveLevel(ctx context.Context, level *models.StockLevel) error

	MovementsByPart(ctx context.Context, partID uuid.UUID) ([]models.StockMovement, error)
	MovementHistory(ctx context.Context, filter HistoryFilter) ([]MovementRecord, error)
	RecentMovements(ctx context.Context, limit int) ([]MovementRecord, error)
	ListLevels(ctx context.Context, filter LevelFilter) ([]LevelRecord, int64, error)
	LevelTotals(ctx context.Context, lowStockThreshold int) (LevelTotals, error)
	CategoryBreakdown(ctx context.Context) ([]CategoryCount, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a stock repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetPart(ctx context.Context, partID uuid.UUID) (*models.Part, error) {
	var part models.Part
	if err := r.db.WithContext(ctx).
		Where("id = ?", partID).
		First(&part).Error; err != nil {
		return nil, err
	}
	return &part, nil
}

// EnsureLevel guarantees a level row exists for the part so the subsequent
// re-aggregation always has a row to overwrite. Creating an already-present
// row is a no-op.
func (r *repository) EnsureLevel(ctx context.Context, partID uuid.UUID) (*models.StockLevel, error) {
	level := models.StockLevel{PartID: partID}
	if err := r.db.WithContext(ctx).
		Where("part_id = ?", partID).
		FirstOrCreate(&level).Error; err != nil {
		return nil, err
	}
	return &level, nil
}

func (r *repository) AppendMovement(ctx context.Context, movement *models.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

// DeleteMovement removes a single ledger row. The ledger is append-only for
// business flows; this exists solely so the non-transactional adjust path can
// compensate a movement whose level refresh failed.
func (r *repository) DeleteMovement(ctx context.Context, movementID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", movementID).
		Delete(&models.StockMovement{}).Error
}

func (r *repository) Aggregate(ctx context.Context, partID uuid.UUID) (LedgerTotals, error) {
	var totals LedgerTotals
	err := r.db.WithContext(ctx).
		Model(&models.StockMovement{}).
		Select(
			"COALESCE(SUM(qty_change), 0) AS available, "+
				"COALESCE(SUM(CASE WHEN reason = ? THEN qty_change ELSE 0 END), 0) AS used, "+
				"COALESCE(SUM(CASE WHEN reason = ? THEN qty_change ELSE 0 END), 0) AS damaged",
			enums.StockReasonUsed, enums.StockReasonDamaged,
		).
		Where("part_id = ?", partID).
		Scan(&totals).Error
	return totals, err
}

// SaveLevel overwrites the whole level row with freshly aggregated totals.
func (r *repository) SaveLevel(ctx context.Context, level *models.StockLevel) error {
	return r.db.WithContext(ctx).Save(level).Error
}

func (r *repository) MovementsByPart(ctx context.Context, partID uuid.UUID) ([]models.StockMovement, error) {
	var movements []models.StockMovement
	if err := r.db.WithContext(ctx).
		Where("part_id = ?", partID).
		Order("created_at ASC").
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

const movementRecordSelect = "stock_movements.id, stock_movements.part_id, " +
	"parts.name AS part_name, parts.sku AS part_sku, " +
	"stock_movements.qty_change, stock_movements.reason, stock_movements.order_id, " +
	"stock_movements.created_by, " +
	"COALESCE(TRIM(users.first_name || ' ' || users.last_name), '') AS actor_name, " +
	"stock_movements.notes, stock_movements.created_at"

func (r *repository) movementRecordQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.StockMovement{}).
		Select(movementRecordSelect).
		Joins("JOIN parts ON parts.id = stock_movements.part_id").
		Joins("LEFT JOIN users ON users.id = stock_movements.created_by")
}

func (r *repository) MovementHistory(ctx context.Context, filter HistoryFilter) ([]MovementRecord, error) {
	query := r.movementRecordQuery(ctx)
	if filter.PartID != nil {
		query = query.Where("stock_movements.part_id = ?", *filter.PartID)
	}
	if filter.Reason != nil {
		query = query.Where("stock_movements.reason = ?", *filter.Reason)
	}
	if filter.From != nil {
		query = query.Where("stock_movements.created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("stock_movements.created_at <= ?", *filter.To)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	var records []MovementRecord
	if err := query.
		Order("stock_movements.created_at DESC").
		Limit(limit).
		Scan(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repository) RecentMovements(ctx context.Context, limit int) ([]MovementRecord, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	var records []MovementRecord
	if err := r.movementRecordQuery(ctx).
		Order("stock_movements.created_at DESC").
		Limit(limit).
		Scan(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

const levelRecordSelect = "parts.id AS part_id, parts.name, parts.sku, parts.category, parts.is_active, " +
	"COALESCE(stock_levels.available_qty, 0) AS available_qty, " +
	"COALESCE(stock_levels.used_qty, 0) AS used_qty, " +
	"COALESCE(stock_levels.damaged_qty, 0) AS damaged_qty, " +
	"stock_levels.updated_at AS level_updated_at"

func (r *repository) levelBaseQuery(ctx context.Context, filter LevelFilter) *gorm.DB {
	query := r.db.WithContext(ctx).
		Model(&models.Part{}).
		Joins("LEFT JOIN stock_levels ON stock_levels.part_id = parts.id")
	if filter.ActiveOnly {
		query = query.Where("parts.is_active = ?", true)
	}
	if filter.Category != nil {
		query = query.Where("parts.category = ?", *filter.Category)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where(
			"LOWER(parts.name) LIKE ? OR LOWER(parts.sku) LIKE ?",
			pattern, pattern,
		)
	}
	return query
}

func (r *repository) ListLevels(ctx context.Context, filter LevelFilter) ([]LevelRecord, int64, error) {
	var total int64
	if err := r.levelBaseQuery(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortColumn, ok := levelSortColumns[filter.SortBy]
	if !ok {
		sortColumn = "parts.name"
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}

	var records []LevelRecord
	if err := r.levelBaseQuery(ctx, filter).
		Select(levelRecordSelect).
		Order(sortColumn + " " + direction).
		Offset(filter.Offset).
		Limit(filter.Limit).
		Scan(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// LevelTotals aggregates over the materialized levels only: a part that never
// moved stock has no level row and stays out of the dashboard counts.
func (r *repository) LevelTotals(ctx context.Context, lowStockThreshold int) (LevelTotals, error) {
	var totals LevelTotals
	err := r.db.WithContext(ctx).
		Model(&models.StockLevel{}).
		Select(
			"COUNT(*) AS total_parts, "+
				"COALESCE(SUM(stock_levels.available_qty), 0) AS total_units, "+
				"COALESCE(SUM(CASE WHEN stock_levels.available_qty < ? THEN 1 ELSE 0 END), 0) AS low_stock_count, "+
				"COALESCE(SUM(CASE WHEN stock_levels.available_qty <= 0 THEN 1 ELSE 0 END), 0) AS out_of_stock_count",
			lowStockThreshold,
		).
		Joins("JOIN parts ON parts.id = stock_levels.part_id").
		Where("parts.is_active = ?", true).
		Scan(&totals).Error
	return totals, err
}

func (r *repository) CategoryBreakdown(ctx context.Context) ([]CategoryCount, error) {
	var counts []CategoryCount
	if err := r.db.WithContext(ctx).
		Model(&models.Part{}).
		Select(
			"parts.category, COUNT(*) AS part_count, " +
				"COALESCE(SUM(COALESCE(stock_levels.available_qty, 0)), 0) AS total_units",
		).
		Joins("LEFT JOIN stock_levels ON stock_levels.part_id = parts.id").
		Where("parts.is_active = ?", true).
		Group("parts.category").
		Order("parts.category ASC").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	return counts, nil
}
