package application

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/devbush/stockdesk/internal/domain"
	"github.com/devbush/stockdesk/internal/ports"
)

// Dashboard defaults.
const (
	DefaultTrendDays = 7
	DefaultTopN      = 5
)

// DashboardOptions sizes the overview.
type DashboardOptions struct {
	Days int
	Top  int
}

// DailyFlow is the units moved on one day.
type DailyFlow struct {
	Date time.Time `json:"date"`
	In   int       `json:"in"`
	Out  int       `json:"out"`
}

// ProductFlow is a product's outflow over the trend window.
type ProductFlow struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Out  int    `json:"out"`
}

// CategoryUnits is the stock on hand for a category.
type CategoryUnits struct {
	Category string `json:"category"`
	Units    int    `json:"units"`
}

// LowStockItem is a product under its safety stock.
type LowStockItem struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Ending      int    `json:"ending"`
	SafetyStock int    `json:"safetyStock"`
}

// Overview is the aggregate view shown by the dashboard.
type Overview struct {
	ProductCount int            `json:"productCount"`
	TotalUnits   int            `json:"totalUnits"`
	StockValue   float64        `json:"stockValue"`
	LowStock     []LowStockItem `json:"lowStock"`

	// In and Out total the trend window.
	In    int         `json:"in"`
	Out   int         `json:"out"`
	Daily []DailyFlow `json:"daily"`

	TopOutflow []ProductFlow   `json:"topOutflow"`
	ByCategory []CategoryUnits `json:"byCategory"`
}

// DashboardService builds the overview.
type DashboardService struct {
	backend ports.Backend
	now     func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(backend ports.Backend) *DashboardService {
	return &DashboardService{backend: backend, now: time.Now}
}

// Overview fetches products, inventory and transactions concurrently and
// aggregates them. Stock figures use each product's latest period.
func (s *DashboardService) Overview(ctx context.Context, opts DashboardOptions) (*Overview, error) {
	if opts.Days < 1 {
		opts.Days = DefaultTrendDays
	}
	if opts.Top < 1 {
		opts.Top = DefaultTopN
	}

	var (
		products []*domain.Product
		records  []*domain.InventoryRecord
		txs      []*domain.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		products, err = s.backend.ListProducts(gctx)
		return err
	})
	g.Go(func() (err error) {
		records, err = s.backend.ListInventory(gctx)
		return err
	})
	g.Go(func() (err error) {
		txs, err = s.backend.ListTransactions(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load dashboard data: %w", err)
	}

	ov := &Overview{ProductCount: len(products)}

	byCode := make(map[string]*domain.Product, len(products))
	for _, p := range products {
		byCode[strings.ToLower(p.Code)] = p
	}

	latest := latestRecords(records)
	categories := map[string]int{}
	for _, r := range latest {
		ov.TotalUnits += r.EndingStock
		p := byCode[strings.ToLower(r.ProductCode)]
		category := ""
		if p != nil {
			ov.StockValue += float64(r.EndingStock) * p.Price
			category = p.Category
		}
		categories[category] += r.EndingStock
		if r.IsLow() {
			ov.LowStock = append(ov.LowStock, LowStockItem{
				Code:        r.ProductCode,
				Name:        r.ProductName,
				Ending:      r.EndingStock,
				SafetyStock: r.SafetyStock,
			})
		}
	}
	slices.SortFunc(ov.LowStock, func(a, b LowStockItem) int {
		// Worst shortfall first.
		return cmp.Or(
			cmp.Compare(a.Ending-a.SafetyStock, b.Ending-b.SafetyStock),
			cmp.Compare(a.Code, b.Code),
		)
	})

	for name, units := range categories {
		ov.ByCategory = append(ov.ByCategory, CategoryUnits{Category: name, Units: units})
	}
	slices.SortFunc(ov.ByCategory, func(a, b CategoryUnits) int {
		return cmp.Or(cmp.Compare(b.Units, a.Units), cmp.Compare(a.Category, b.Category))
	})

	s.flows(ov, txs, opts)
	return ov, nil
}

func (s *DashboardService) flows(ov *Overview, txs []*domain.Transaction, opts DashboardOptions) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start := today.AddDate(0, 0, -(opts.Days - 1))

	ov.Daily = make([]DailyFlow, opts.Days)
	dayIndex := make(map[string]int, opts.Days)
	for i := range ov.Daily {
		ov.Daily[i].Date = start.AddDate(0, 0, i)
		dayIndex[ov.Daily[i].Date.Format(time.DateOnly)] = i
	}

	outflow := map[string]*ProductFlow{}
	for _, t := range txs {
		i, ok := dayIndex[t.OccurredAt.In(now.Location()).Format(time.DateOnly)]
		if !ok {
			continue
		}
		if t.Type == domain.TxIn {
			ov.Daily[i].In += t.Quantity
			ov.In += t.Quantity
			continue
		}
		ov.Daily[i].Out += t.Quantity
		ov.Out += t.Quantity

		k := strings.ToLower(t.ProductCode)
		f, ok := outflow[k]
		if !ok {
			f = &ProductFlow{Code: t.ProductCode, Name: t.ProductName}
			outflow[k] = f
		}
		f.Out += t.Quantity
	}

	for _, f := range outflow {
		ov.TopOutflow = append(ov.TopOutflow, *f)
	}
	slices.SortFunc(ov.TopOutflow, func(a, b ProductFlow) int {
		return cmp.Or(cmp.Compare(b.Out, a.Out), cmp.Compare(a.Code, b.Code))
	})
	if len(ov.TopOutflow) > opts.Top {
		ov.TopOutflow = ov.TopOutflow[:opts.Top]
	}
}

// latestRecords keeps the most recent period per product.
func latestRecords(records []*domain.InventoryRecord) []*domain.InventoryRecord {
	latest := map[string]*domain.InventoryRecord{}
	var order []string
	for _, r := range records {
		k := strings.ToLower(r.ProductCode)
		cur, ok := latest[k]
		if !ok {
			order = append(order, k)
		}
		if !ok || r.Period > cur.Period {
			latest[k] = r
		}
	}
	out := make([]*domain.InventoryRecord, 0, len(order))
	for _, k := range order {
		out = append(out, latest[k])
	}
	return out
}
