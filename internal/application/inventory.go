package application

import (
	"cmp"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/devbush/stockdesk/internal/batch"
	"github.com/devbush/stockdesk/internal/domain"
	"github.com/devbush/stockdesk/internal/ports"
)

// InventoryQuery filters inventory records.
type InventoryQuery struct {
	Period   string
	Keyword  string
	LowOnly  bool
	Sort     string
	Page     int
	PageSize int
}

// LedgerLine is a product's stock movement for one period.
type LedgerLine struct {
	RecordID    string `json:"recordId,omitempty"`
	ProductCode string `json:"productCode"`
	ProductName string `json:"productName,omitempty"`
	Opening     int    `json:"opening"`
	In          int    `json:"in"`
	Out         int    `json:"out"`
	// Ending is Opening + In - Out with In/Out taken from transactions.
	Ending int `json:"ending"`
	// Stored is the ending stock currently saved on the record.
	Stored    int  `json:"stored"`
	HasRecord bool `json:"hasRecord"`
}

// Drift is the stored minus the computed ending stock, 0 without a record.
func (l LedgerLine) Drift() int {
	if !l.HasRecord {
		return 0
	}
	return l.Stored - l.Ending
}

var inventorySorter = NewSorter(map[string]func(a, b *domain.InventoryRecord) int{
	"product": func(a, b *domain.InventoryRecord) int { return compareFold(a.ProductCode, b.ProductCode) },
	"name":    func(a, b *domain.InventoryRecord) int { return compareFold(a.ProductName, b.ProductName) },
	"period":  func(a, b *domain.InventoryRecord) int { return cmp.Compare(a.Period, b.Period) },
	"ending":  func(a, b *domain.InventoryRecord) int { return cmp.Compare(a.EndingStock, b.EndingStock) },
	"in":      func(a, b *domain.InventoryRecord) int { return cmp.Compare(a.StockIn, b.StockIn) },
	"out":     func(a, b *domain.InventoryRecord) int { return cmp.Compare(a.StockOut, b.StockOut) },
})

// InventorySortFields lists the accepted --sort fields for inventory.
func InventorySortFields() []string {
	return inventorySorter.Fields()
}

// InventoryService manages the inventory ledger.
type InventoryService struct {
	store    ports.InventoryStore
	txs      ports.TransactionStore
	history  *Recorder
	journal  *Journaler
	settings BatchSettings
}

// NewInventoryService creates a new inventory service
func NewInventoryService(
	store ports.InventoryStore,
	txs ports.TransactionStore,
	history *Recorder,
	journal *Journaler,
	settings BatchSettings,
) *InventoryService {
	return &InventoryService{
		store:    store,
		txs:      txs,
		history:  history,
		journal:  journal,
		settings: settings,
	}
}

// List returns one page of records matching q.
func (s *InventoryService) List(ctx context.Context, q InventoryQuery) (*Page[*domain.InventoryRecord], error) {
	matched, err := s.query(ctx, q)
	if err != nil {
		return nil, err
	}
	page := Paginate(matched, q.Page, q.PageSize)
	return &page, nil
}

func (s *InventoryService) query(ctx context.Context, q InventoryQuery) ([]*domain.InventoryRecord, error) {
	spec, err := ParseSort(q.Sort)
	if err != nil {
		return nil, err
	}
	all, err := s.store.ListInventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	matched := Filter(all,
		func(r *domain.InventoryRecord) bool { return q.Period == "" || r.Period == q.Period },
		func(r *domain.InventoryRecord) bool {
			return containsFold(q.Keyword, r.ProductCode, r.ProductName, r.Location)
		},
		func(r *domain.InventoryRecord) bool { return !q.LowOnly || r.IsLow() },
	)
	if err := inventorySorter.Sort(matched, spec); err != nil {
		return nil, err
	}
	return matched, nil
}

// Import uploads records in chunks. Ending stock is recomputed first, so
// whatever the caller set is overwritten.
func (s *InventoryService) Import(ctx context.Context, records []*domain.InventoryRecord, onProgress batch.ProgressFunc) (*BatchReport, error) {
	for _, r := range records {
		r.Recompute()
	}
	op := func(ctx context.Context, r *domain.InventoryRecord) (*domain.InventoryRecord, error) {
		if err := domain.Validate(r); err != nil {
			return nil, err
		}
		out, err := s.store.CreateInventory(ctx, r)
		return out, guard(err)
	}
	report, err := runBatch(ctx, s.settings, s.journal, KindInventoryImport, records, recordKey, op, onProgress)
	if err != nil {
		return nil, err
	}
	s.history.recordBatch(ctx, domain.ActionImport, domain.EntityInventory, report, "import inventory")
	return report, nil
}

// ImportSheet parses sheet rows into records and imports the valid ones.
func (s *InventoryService) ImportSheet(ctx context.Context, sheet *ports.Sheet, onProgress batch.ProgressFunc) (*BatchReport, error) {
	if err := requireColumns(sheet, []string{ColProductCode, ColCode}, []string{ColPeriod}); err != nil {
		return nil, err
	}
	records, rejected := parseRows(sheet, parseInventoryRow)
	report, err := s.Import(ctx, records, onProgress)
	if err != nil {
		return nil, err
	}
	report.Rejected = rejected
	return report, nil
}

// DeleteAll fetches every record and deletes them in chunks.
func (s *InventoryService) DeleteAll(ctx context.Context, onProgress batch.ProgressFunc) (*BatchReport, error) {
	all, err := s.store.ListInventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	ids := make([]string, 0, len(all))
	for _, r := range all {
		ids = append(ids, r.ID)
	}
	return s.DeleteMany(ctx, ids, onProgress)
}

// DeleteMany deletes records by ID in chunks.
func (s *InventoryService) DeleteMany(ctx context.Context, ids []string, onProgress batch.ProgressFunc) (*BatchReport, error) {
	op := func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, guard(s.store.DeleteInventory(ctx, id))
	}
	report, err := runBatch(ctx, s.settings, s.journal, KindInventoryDelete, ids, idKey, op, onProgress)
	if err != nil {
		return nil, err
	}
	s.history.recordBatch(ctx, domain.ActionDelete, domain.EntityInventory, report, "delete inventory")
	return report, nil
}

// Ledger computes each product's movement for period from its inventory
// record and that period's transactions. Products with transactions but no
// record get a line with zero opening stock.
func (s *InventoryService) Ledger(ctx context.Context, period string) ([]LedgerLine, error) {
	if _, err := domain.ParsePeriod(period); err != nil {
		return nil, err
	}
	records, err := s.store.ListInventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	txs, err := s.txs.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	lines := map[string]*LedgerLine{}
	var order []string
	for _, r := range records {
		if r.Period != period {
			continue
		}
		k := strings.ToLower(r.ProductCode)
		if _, dup := lines[k]; dup {
			zerolog.Ctx(ctx).Warn().Str("product", r.ProductCode).Str("period", period).Str("record", r.ID).Msg("duplicate inventory record ignored")
			continue
		}
		lines[k] = &LedgerLine{
			RecordID:    r.ID,
			ProductCode: r.ProductCode,
			ProductName: r.ProductName,
			Opening:     r.OpeningStock,
			Stored:      r.EndingStock,
			HasRecord:   true,
		}
		order = append(order, k)
	}

	for _, t := range txs {
		if t.Period() != period {
			continue
		}
		k := strings.ToLower(t.ProductCode)
		line, ok := lines[k]
		if !ok {
			line = &LedgerLine{ProductCode: t.ProductCode, ProductName: t.ProductName}
			lines[k] = line
			order = append(order, k)
		}
		if t.Type == domain.TxIn {
			line.In += t.Quantity
		} else {
			line.Out += t.Quantity
		}
	}

	out := make([]LedgerLine, 0, len(order))
	for _, k := range order {
		line := lines[k]
		line.Ending = line.Opening + line.In - line.Out
		out = append(out, *line)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].ProductCode) < strings.ToLower(out[j].ProductCode)
	})
	return out, nil
}

// Reconcile rewrites the records of period whose in/out totals or ending
// stock disagree with the ledger. It returns a zero report when nothing drifts.
func (s *InventoryService) Reconcile(ctx context.Context, period string, onProgress batch.ProgressFunc) (*BatchReport, error) {
	lines, err := s.Ledger(ctx, period)
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListInventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	byID := make(map[string]*domain.InventoryRecord, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}

	var stale []*domain.InventoryRecord
	for _, l := range lines {
		r, ok := byID[l.RecordID]
		if !l.HasRecord || !ok {
			continue
		}
		if r.StockIn == l.In && r.StockOut == l.Out && r.EndingStock == l.Ending {
			continue
		}
		fixed := *r
		fixed.StockIn = l.In
		fixed.StockOut = l.Out
		fixed.Recompute()
		stale = append(stale, &fixed)
	}
	return s.UpdateMany(ctx, stale, onProgress)
}

// UpdateMany writes records back in chunks, recomputing ending stock.
func (s *InventoryService) UpdateMany(ctx context.Context, records []*domain.InventoryRecord, onProgress batch.ProgressFunc) (*BatchReport, error) {
	op := func(ctx context.Context, r *domain.InventoryRecord) (*domain.InventoryRecord, error) {
		r.Recompute()
		out, err := s.store.UpdateInventory(ctx, r)
		return out, guard(err)
	}
	report, err := runBatch(ctx, s.settings, s.journal, KindInventoryReconcile, records, recordKey, op, onProgress)
	if err != nil {
		return nil, err
	}
	s.history.recordBatch(ctx, domain.ActionUpdate, domain.EntityInventory, report, "reconcile inventory")
	return report, nil
}

// Export returns the records matching q as a sheet.
func (s *InventoryService) Export(ctx context.Context, q InventoryQuery) (*ports.Sheet, error) {
	matched, err := s.query(ctx, q)
	if err != nil {
		return nil, err
	}
	sheet := &ports.Sheet{Headers: InventoryColumns, Rows: make([]map[string]string, 0, len(matched))}
	for _, r := range matched {
		sheet.Rows = append(sheet.Rows, map[string]string{
			ColProductCode:  r.ProductCode,
			ColProductName:  r.ProductName,
			ColPeriod:       r.Period,
			ColOpeningStock: formatInt(r.OpeningStock),
			ColStockIn:      formatInt(r.StockIn),
			ColStockOut:     formatInt(r.StockOut),
			ColEndingStock:  formatInt(r.EndingStock),
			ColSafetyStock:  formatInt(r.SafetyStock),
			ColLocation:     r.Location,
		})
	}
	s.history.Record(ctx, domain.ActionExport, domain.EntityInventory, "", fmt.Sprintf("exported %d inventory records", len(matched)))
	return sheet, nil
}

func recordKey(r *domain.InventoryRecord) string {
	return r.ProductCode + "@" + r.Period
}
