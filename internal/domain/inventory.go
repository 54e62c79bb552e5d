package domain

import (
	"fmt"
	"time"
)

// PeriodLayout formats an accounting month.
const PeriodLayout = "2006-01"

// ParsePeriod parses a YYYY-MM month.
func ParsePeriod(s string) (time.Time, error) {
	t, err := time.Parse(PeriodLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: period %q, want YYYY-MM", ErrInvalidInput, s)
	}
	return t, nil
}

// CurrentPeriod returns the month containing now.
func CurrentPeriod(now time.Time) string {
	return now.Format(PeriodLayout)
}

// InventoryRecord is one product's ledger line for a period.
type InventoryRecord struct {
	ID           string    `json:"id,omitempty"`
	ProductID    string    `json:"productId,omitempty"`
	ProductCode  string    `json:"productCode" validate:"required"`
	ProductName  string    `json:"productName,omitempty"`
	Period       string    `json:"period" validate:"required,period"`
	OpeningStock int       `json:"openingStock" validate:"gte=0"`
	StockIn      int       `json:"stockIn" validate:"gte=0"`
	StockOut     int       `json:"stockOut" validate:"gte=0"`
	EndingStock  int       `json:"endingStock"`
	SafetyStock  int       `json:"safetyStock" validate:"gte=0"`
	Location     string    `json:"location,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt,omitempty"`
}

// ComputeEndingStock is opening + in - out.
func (r *InventoryRecord) ComputeEndingStock() int {
	return r.OpeningStock + r.StockIn - r.StockOut
}

// Recompute overwrites EndingStock with the computed value.
func (r *InventoryRecord) Recompute() {
	r.EndingStock = r.ComputeEndingStock()
}

// Drift is stored ending stock minus the computed value.
func (r *InventoryRecord) Drift() int {
	return r.EndingStock - r.ComputeEndingStock()
}

// IsLow reports whether ending stock is under the safety threshold.
func (r *InventoryRecord) IsLow() bool {
	return r.SafetyStock > 0 && r.EndingStock < r.SafetyStock
}
