package models

import (
	"time"

	"github.com/google/uuid"
)

// StockLevel is the materialized per-part aggregate of the stock ledger.
// AvailableQty is the net signed total of every movement for the part;
// UsedQty and DamagedQty are the raw signed sums of movements tagged with the
// matching reason. Every write replaces the whole row with a fresh
// re-aggregation; the row is a cache of the ledger, never an independently
// mutable counter.
type StockLevel struct {
	PartID       uuid.UUID `gorm:"column:part_id;type:uuid;primaryKey"`
	AvailableQty int       `gorm:"column:available_qty;not null;default:0"`
	UsedQty      int       `gorm:"column:used_qty;not null;default:0"`
	DamagedQty   int       `gorm:"column:damaged_qty;not null;default:0"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
