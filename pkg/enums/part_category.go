package enums

import "fmt"

// PartCategory maps to the part_category_enum enum in Postgres.
type PartCategory string

const (
	PartCategoryController  PartCategory = "controller"
	PartCategoryMotor       PartCategory = "motor"
	PartCategorySensor      PartCategory = "sensor"
	PartCategoryStructure   PartCategory = "structure"
	PartCategoryElectronics PartCategory = "electronics"
	PartCategoryBattery     PartCategory = "battery"
	PartCategoryTool        PartCategory = "tool"
	PartCategoryKit         PartCategory = "kit"
	PartCategoryOther       PartCategory = "other"
)

var validPartCategories = []PartCategory{
	PartCategoryController,
	PartCategoryMotor,
	PartCategorySensor,
	PartCategoryStructure,
	PartCategoryElectronics,
	PartCategoryBattery,
	PartCategoryTool,
	PartCategoryKit,
	PartCategoryOther,
}

// IsValid reports whether the value matches the canonical part category enum.
func (c PartCategory) IsValid() bool {
	for _, candidate := range validPartCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

func (c PartCategory) String() string {
	return string(c)
}

// ParsePartCategory converts raw input into PartCategory.
func ParsePartCategory(value string) (PartCategory, error) {
	for _, candidate := range validPartCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid part category %q", value)
}
