package application

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/devbush/stockdesk/internal/domain"
	"github.com/devbush/stockdesk/internal/ports"
)

// Canonical spreadsheet columns.
const (
	ColCode         = "code"
	ColName         = "name"
	ColCategory     = "category"
	ColUnit         = "unit"
	ColSpec         = "spec"
	ColPrice        = "price"
	ColSafetyStock  = "safety_stock"
	ColRemark       = "remark"
	ColProductCode  = "product_code"
	ColProductName  = "product_name"
	ColPeriod       = "period"
	ColOpeningStock = "opening_stock"
	ColStockIn      = "stock_in"
	ColStockOut     = "stock_out"
	ColEndingStock  = "ending_stock"
	ColLocation     = "location"
	ColType         = "type"
	ColQuantity     = "quantity"
	ColUnitPrice    = "unit_price"
	ColOccurredAt   = "occurred_at"
	ColOperator     = "operator"
	ColReference    = "reference"
	ColNote         = "note"
)

// Column sets used for export, in output order.
var (
	ProductColumns = []string{
		ColCode, ColName, ColCategory, ColUnit, ColSpec, ColPrice, ColSafetyStock, ColRemark,
	}
	InventoryColumns = []string{
		ColProductCode, ColProductName, ColPeriod, ColOpeningStock, ColStockIn,
		ColStockOut, ColEndingStock, ColSafetyStock, ColLocation,
	}
	TransactionColumns = []string{
		ColOccurredAt, ColType, ColProductCode, ColProductName, ColQuantity,
		ColUnitPrice, ColOperator, ColReference, ColNote,
	}
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
}

// requireColumns fails the whole import when a mandatory column is absent.
// Each entry lists acceptable alternatives.
func requireColumns(sheet *ports.Sheet, required ...[]string) error {
	var missing []string
	for _, alts := range required {
		found := false
		for _, c := range alts {
			if sheet.Has(c) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, alts[0])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required columns: %s", domain.ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}

// parseRows applies parse to every row, splitting the valid items from the
// rejected rows.
func parseRows[T any](sheet *ports.Sheet, parse func(row map[string]string) (T, error)) ([]T, []RowError) {
	items := make([]T, 0, len(sheet.Rows))
	var rejected []RowError
	for i, row := range sheet.Rows {
		if blankRow(row) {
			continue
		}
		item, err := parse(row)
		if err != nil {
			rejected = append(rejected, RowError{Row: i + 2, Reason: err.Error()})
			continue
		}
		items = append(items, item)
	}
	return items, rejected
}

func blankRow(row map[string]string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parseProductRow(row map[string]string) (*domain.Product, error) {
	price, err := parseFloat(row, ColPrice)
	if err != nil {
		return nil, err
	}
	safety, err := parseInt(row, ColSafetyStock)
	if err != nil {
		return nil, err
	}
	p := &domain.Product{
		Code:        row[ColCode],
		Name:        row[ColName],
		Category:    row[ColCategory],
		Unit:        row[ColUnit],
		Spec:        row[ColSpec],
		Price:       price,
		SafetyStock: safety,
		Remark:      row[ColRemark],
	}
	p.Normalize()
	if err := domain.Validate(p); err != nil {
		return nil, err
	}
	return p, nil
}

func parseInventoryRow(row map[string]string) (*domain.InventoryRecord, error) {
	r := &domain.InventoryRecord{
		ProductCode: strings.TrimSpace(firstOf(row, ColProductCode, ColCode)),
		ProductName: strings.TrimSpace(firstOf(row, ColProductName, ColName)),
		Period:      strings.TrimSpace(row[ColPeriod]),
		Location:    strings.TrimSpace(row[ColLocation]),
	}
	var err error
	for _, f := range []struct {
		col string
		dst *int
	}{
		{ColOpeningStock, &r.OpeningStock},
		{ColStockIn, &r.StockIn},
		{ColStockOut, &r.StockOut},
		{ColSafetyStock, &r.SafetyStock},
	} {
		if *f.dst, err = parseInt(row, f.col); err != nil {
			return nil, err
		}
	}
	// Ending stock in the file is ignored; it is always recomputed.
	r.Recompute()
	if err := domain.Validate(r); err != nil {
		return nil, err
	}
	return r, nil
}

func parseTransactionRow(now time.Time) func(map[string]string) (*domain.Transaction, error) {
	return func(row map[string]string) (*domain.Transaction, error) {
		typ, err := domain.ParseTxType(row[ColType])
		if err != nil {
			return nil, err
		}
		qty, err := parseInt(row, ColQuantity)
		if err != nil {
			return nil, err
		}
		price, err := parseFloat(row, ColUnitPrice)
		if err != nil {
			return nil, err
		}
		at, err := parseTime(row[ColOccurredAt], now)
		if err != nil {
			return nil, err
		}
		t := &domain.Transaction{
			ProductCode: strings.TrimSpace(firstOf(row, ColProductCode, ColCode)),
			ProductName: strings.TrimSpace(firstOf(row, ColProductName, ColName)),
			Type:        typ,
			Quantity:    qty,
			UnitPrice:   price,
			OccurredAt:  at,
			Operator:    strings.TrimSpace(row[ColOperator]),
			Reference:   strings.TrimSpace(row[ColReference]),
			Note:        strings.TrimSpace(row[ColNote]),
		}
		if err := domain.Validate(t); err != nil {
			return nil, err
		}
		return t, nil
	}
}

func firstOf(row map[string]string, cols ...string) string {
	for _, c := range cols {
		if v := row[c]; strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func cleanNumber(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), ",", "")
}

func parseInt(row map[string]string, col string) (int, error) {
	s := cleanNumber(row[col])
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// Spreadsheets often write integers as 12.0.
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, fmt.Errorf("%w: %s %q is not a whole number", domain.ErrInvalidInput, col, row[col])
		}
		n = int(f)
	}
	return n, nil
}

func parseFloat(row map[string]string, col string) (float64, error) {
	s := cleanNumber(row[col])
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", domain.ErrInvalidInput, col, row[col])
	}
	return f, nil
}

func parseTime(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: date %q", domain.ErrInvalidInput, s)
}

func formatInt(n int) string {
	return strconv.Itoa(n)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
