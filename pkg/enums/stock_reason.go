package enums

import "fmt"

// StockReason maps to the stock_reason_enum enum in Postgres. It is the closed
// category explaining why a stock movement occurred.
type StockReason string

const (
	StockReasonPurchase   StockReason = "purchase"
	StockReasonAdjustment StockReason = "adjustment"
	StockReasonUsed       StockReason = "used"
	StockReasonDamaged    StockReason = "damaged"
	StockReasonReturn     StockReason = "return"
	StockReasonOther      StockReason = "other"
)

var validStockReasons = []StockReason{
	StockReasonPurchase,
	StockReasonAdjustment,
	StockReasonUsed,
	StockReasonDamaged,
	StockReasonReturn,
	StockReasonOther,
}

// IsValid reports whether the value matches the canonical stock reason enum.
func (r StockReason) IsValid() bool {
	for _, candidate := range validStockReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

func (r StockReason) String() string {
	return string(r)
}

// ParseStockReason converts raw input into StockReason. Unrecognized values
// are rejected rather than falling through to "other".
func ParseStockReason(value string) (StockReason, error) {
	for _, candidate := range validStockReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock reason %q", value)
}
