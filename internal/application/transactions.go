package application

import (
	"cmp"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/devbush/stockdesk/internal/batch"
	"github.com/devbush/stockdesk/internal/domain"
	"github.com/devbush/stockdesk/internal/ports"
)

// TxQuery filters transactions.
type TxQuery struct {
	Type     domain.TxType
	Product  string // code or ID, exact
	Range    DateRange
	Keyword  string
	Sort     string
	Page     int
	PageSize int
}

// StockEntry is a single stock movement entered by hand.
type StockEntry struct {
	Code      string
	Quantity  int
	UnitPrice float64 // 0 uses the product price
	Operator  string
	Reference string
	Note      string
	At        time.Time // zero means now
}

var txSorter = NewSorter(map[string]func(a, b *domain.Transaction) int{
	"occurredAt": func(a, b *domain.Transaction) int { return compareTime(a.OccurredAt, b.OccurredAt) },
	"quantity":   func(a, b *domain.Transaction) int { return cmp.Compare(a.Quantity, b.Quantity) },
	"amount":     func(a, b *domain.Transaction) int { return cmp.Compare(a.Amount(), b.Amount()) },
	"product":    func(a, b *domain.Transaction) int { return compareFold(a.ProductCode, b.ProductCode) },
	"type":       func(a, b *domain.Transaction) int { return cmp.Compare(a.Type, b.Type) },
})

// TxSortFields lists the accepted --sort fields for transactions.
func TxSortFields() []string {
	return txSorter.Fields()
}

// TransactionService records stock movements.
type TransactionService struct {
	store    ports.TransactionStore
	resolver *ProductResolver
	history  *Recorder
	journal  *Journaler
	settings BatchSettings
	now      func() time.Time
}

// NewTransactionService creates a new transaction service
func NewTransactionService(
	store ports.TransactionStore,
	resolver *ProductResolver,
	history *Recorder,
	journal *Journaler,
	settings BatchSettings,
) *TransactionService {
	return &TransactionService{
		store:    store,
		resolver: resolver,
		history:  history,
		journal:  journal,
		settings: settings,
		now:      time.Now,
	}
}

// List returns one page of transactions, newest first unless q.Sort says otherwise.
func (s *TransactionService) List(ctx context.Context, q TxQuery) (*Page[*domain.Transaction], error) {
	matched, err := s.query(ctx, q)
	if err != nil {
		return nil, err
	}
	page := Paginate(matched, q.Page, q.PageSize)
	return &page, nil
}

func (s *TransactionService) query(ctx context.Context, q TxQuery) ([]*domain.Transaction, error) {
	spec, err := ParseSort(q.Sort)
	if err != nil {
		return nil, err
	}
	if spec.Field == "" {
		spec = SortSpec{Field: "occurredAt", Desc: true}
	}

	all, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	matched := Filter(all,
		func(t *domain.Transaction) bool { return q.Type == "" || t.Type == q.Type },
		func(t *domain.Transaction) bool {
			return q.Product == "" || t.ProductID == q.Product || strings.EqualFold(t.ProductCode, q.Product)
		},
		func(t *domain.Transaction) bool { return q.Range.Contains(t.OccurredAt) },
		func(t *domain.Transaction) bool {
			return containsFold(q.Keyword, t.ProductCode, t.ProductName, t.Operator, t.Reference, t.Note)
		},
	)
	if err := txSorter.Sort(matched, spec); err != nil {
		return nil, err
	}
	return matched, nil
}

// StockIn records a stock-in entry.
func (s *TransactionService) StockIn(ctx context.Context, e StockEntry) (*domain.Transaction, error) {
	return s.enter(ctx, domain.TxIn, e)
}

// StockOut records a stock-out entry.
func (s *TransactionService) StockOut(ctx context.Context, e StockEntry) (*domain.Transaction, error) {
	return s.enter(ctx, domain.TxOut, e)
}

func (s *TransactionService) enter(ctx context.Context, typ domain.TxType, e StockEntry) (*domain.Transaction, error) {
	t := &domain.Transaction{
		ProductCode: strings.TrimSpace(e.Code),
		Type:        typ,
		Quantity:    e.Quantity,
		UnitPrice:   e.UnitPrice,
		OccurredAt:  e.At,
		Operator:    e.Operator,
		Reference:   e.Reference,
		Note:        e.Note,
	}
	if t.OccurredAt.IsZero() {
		t.OccurredAt = s.now()
	}
	if err := domain.Validate(t); err != nil {
		return nil, err
	}
	if err := s.resolve(ctx, t); err != nil {
		return nil, err
	}

	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("failed to record %s of %s: %w", typ, t.ProductCode, err)
	}

	action := domain.ActionStockIn
	if typ == domain.TxOut {
		action = domain.ActionStockOut
	}
	s.history.Record(ctx, action, domain.EntityTransaction, created.ID,
		fmt.Sprintf("%s %d x %s", typ, created.Quantity, created.ProductCode))
	return created, nil
}

// resolve fills product ID, name and a default unit price from the catalog.
func (s *TransactionService) resolve(ctx context.Context, t *domain.Transaction) error {
	if t.ProductID != "" || s.resolver == nil {
		return nil
	}
	p, err := s.resolver.Resolve(ctx, t.ProductCode)
	if err != nil {
		return err
	}
	t.ProductID = p.ID
	t.ProductCode = p.Code
	if t.ProductName == "" {
		t.ProductName = p.Name
	}
	if t.UnitPrice == 0 {
		t.UnitPrice = p.Price
	}
	return nil
}

// BatchCreate records many transactions in chunks.
func (s *TransactionService) BatchCreate(ctx context.Context, txs []*domain.Transaction, onProgress batch.ProgressFunc) (*BatchReport, error) {
	op := func(ctx context.Context, t *domain.Transaction) (*domain.Transaction, error) {
		entry := *t
		if entry.OccurredAt.IsZero() {
			entry.OccurredAt = s.now()
		}
		if err := domain.Validate(&entry); err != nil {
			return nil, err
		}
		if err := s.resolve(ctx, &entry); err != nil {
			return nil, guard(err)
		}
		out, err := s.store.CreateTransaction(ctx, &entry)
		return out, guard(err)
	}
	report, err := runBatch(ctx, s.settings, s.journal, KindTxCreate, txs, txKey, op, onProgress)
	if err != nil {
		return nil, err
	}
	s.history.recordBatch(ctx, domain.ActionImport, domain.EntityTransaction, report, "record transactions")
	return report, nil
}

// BatchDelete deletes transactions by ID in chunks.
func (s *TransactionService) BatchDelete(ctx context.Context, ids []string, onProgress batch.ProgressFunc) (*BatchReport, error) {
	op := func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, guard(s.store.DeleteTransaction(ctx, id))
	}
	report, err := runBatch(ctx, s.settings, s.journal, KindTxDelete, ids, idKey, op, onProgress)
	if err != nil {
		return nil, err
	}
	s.history.recordBatch(ctx, domain.ActionDelete, domain.EntityTransaction, report, "delete transactions")
	return report, nil
}

// ImportSheet parses sheet rows into transactions and records the valid ones.
func (s *TransactionService) ImportSheet(ctx context.Context, sheet *ports.Sheet, onProgress batch.ProgressFunc) (*BatchReport, error) {
	if err := requireColumns(sheet,
		[]string{ColProductCode, ColCode},
		[]string{ColType},
		[]string{ColQuantity},
	); err != nil {
		return nil, err
	}
	txs, rejected := parseRows(sheet, parseTransactionRow(s.now()))
	report, err := s.BatchCreate(ctx, txs, onProgress)
	if err != nil {
		return nil, err
	}
	report.Rejected = rejected
	return report, nil
}

// Export returns the transactions matching q as a sheet.
func (s *TransactionService) Export(ctx context.Context, q TxQuery) (*ports.Sheet, error) {
	matched, err := s.query(ctx, q)
	if err != nil {
		return nil, err
	}
	sheet := &ports.Sheet{Headers: TransactionColumns, Rows: make([]map[string]string, 0, len(matched))}
	for _, t := range matched {
		sheet.Rows = append(sheet.Rows, map[string]string{
			ColOccurredAt:  t.OccurredAt.Format("2006-01-02 15:04:05"),
			ColType:        string(t.Type),
			ColProductCode: t.ProductCode,
			ColProductName: t.ProductName,
			ColQuantity:    formatInt(t.Quantity),
			ColUnitPrice:   formatFloat(t.UnitPrice),
			ColOperator:    t.Operator,
			ColReference:   t.Reference,
			ColNote:        t.Note,
		})
	}
	s.history.Record(ctx, domain.ActionExport, domain.EntityTransaction, "", fmt.Sprintf("exported %d transactions", len(matched)))
	return sheet, nil
}

func txKey(t *domain.Transaction) string {
	code := t.ProductCode
	if code == "" {
		code = t.ProductID
	}
	return fmt.Sprintf("%s %s %d", t.Type, code, t.Quantity)
}
