package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/robocademy/inventory-backend/pkg/enums"
)

// Part represents a catalog entry for a physical robotics part.
type Part struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Name        string             `gorm:"column:name;not null"`
	SKU         string             `gorm:"column:sku;not null;uniqueIndex"`
	Category    enums.PartCategory `gorm:"column:category;not null"`
	Description *string            `gorm:"column:description"`
	IsActive    bool               `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
