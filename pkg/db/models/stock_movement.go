package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/robocademy/inventory-backend/pkg/enums"
)

// StockMovement records one immutable signed quantity change in the stock
// ledger. Rows are append-only; corrections happen by appending a
// compensating movement, never by mutating history.
type StockMovement struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	PartID    uuid.UUID         `gorm:"column:part_id;type:uuid;not null;index"`
	QtyChange int               `gorm:"column:qty_change;not null"`
	Reason    enums.StockReason `gorm:"column:reason;type:stock_reason_enum;not null"`
	OrderID   *uuid.UUID        `gorm:"column:order_id;type:uuid"`
	CreatedBy uuid.UUID         `gorm:"column:created_by;type:uuid;not null"`
	Notes     *string           `gorm:"column:notes"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}
