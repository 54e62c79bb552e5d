package application

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/devbush/stockdesk/internal/domain"
	"github.com/devbush/stockdesk/internal/ports"
)

// fakeBackend implements ports.Backend in memory. It is safe for the
// concurrent calls a batch makes.
type fakeBackend struct {
	mu sync.Mutex

	products   []*domain.Product
	inventory  []*domain.InventoryRecord
	txs        []*domain.Transaction
	activities []*domain.Activity
	nextID     int

	// failCodes fails product and transaction creates for these codes.
	failCodes map[string]error
	// failIDs fails deletes for these IDs.
	failIDs map[string]error
	// down makes every write return domain.ErrBackendUnavailable.
	down bool

	productLists int
	writes       int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{failCodes: map[string]error{}, failIDs: map[string]error{}}
}

func (f *fakeBackend) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s%d", prefix, f.nextID)
}

func (f *fakeBackend) write() error {
	f.writes++
	if f.down {
		return fmt.Errorf("POST: %w", domain.ErrBackendUnavailable)
	}
	return nil
}

func (f *fakeBackend) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.productLists++
	out := make([]*domain.Product, len(f.products))
	for i, p := range f.products {
		cp := *p
		out[i] = &cp
	}
	return out, nil
}

func (f *fakeBackend) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeBackend) CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.write(); err != nil {
		return nil, err
	}
	if err := f.failCodes[p.Code]; err != nil {
		return nil, err
	}
	for _, existing := range f.products {
		if strings.EqualFold(existing.Code, p.Code) {
			return nil, fmt.Errorf("code %s: %w", p.Code, domain.ErrConflict)
		}
	}
	cp := *p
	cp.ID = f.id("p")
	f.products = append(f.products, &cp)
	out := cp
	return &out, nil
}

func (f *fakeBackend) UpdateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.write(); err != nil {
		return nil, err
	}
	for i, existing := range f.products {
		if existing.ID == p.ID {
			cp := *p
			f.products[i] = &cp
			out := cp
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeBackend) DeleteProduct(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.write(); err != nil {
		return err
	}
	if err := f.failIDs[id]; err != nil {
		return err
	}
	for i, p := range f.products {
		if p.ID == id {
			f.products = append(f.products[:i], f.products[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeBackend) ListInventory(ctx context.Context) ([]*domain.InventoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.InventoryRecord, len(f.inventory))
	for i, r := range f.inventory {
		cp := *r
		out[i] = &cp
	}
	return out, nil
}

func (f *fakeBackend) CreateInventory(ctx context.Context, r *domain.InventoryRecord) (*domain.InventoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.write(); err != nil {
		return nil, err
	}
	cp := *r
	cp.ID = f.id("i")
	f.inventory = append(f.inventory, &cp)
	out := cp
	return &out, nil
}

func (f *fakeBackend) UpdateInventory(ctx context.Context, r *domain.InventoryRecord) (*domain.InventoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.write(); err != nil {
		return nil, err
	}
	for i, existing := range f.inventory {
		if existing.ID == r.ID {
			cp := *r
			f.inventory[i] = &cp
			out := cp
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeBackend) DeleteInventory(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.write(); err != nil {
		return err
	}
	if err := f.failIDs[id]; err != nil {
		return err
	}
	for i, r := range f.inventory {
		if r.ID == id {
			f.inventory = append(f.inventory[:i], f.inventory[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeBackend) ListTransactions(ctx context.Context) ([]*domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Transaction, len(f.txs))
	for i, t := range f.txs {
		cp := *t
		out[i] = &cp
	}
	return out, nil
}

func (f *fakeBackend) CreateTransaction(ctx context.Context, t *domain.Transaction) (*domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.write(); err != nil {
		return nil, err
	}
	if err := f.failCodes[t.ProductCode]; err != nil {
		return nil, err
	}
	cp := *t
	cp.ID = f.id("t")
	f.txs = append(f.txs, &cp)
	out := cp
	return &out, nil
}

func (f *fakeBackend) DeleteTransaction(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.write(); err != nil {
		return err
	}
	if err := f.failIDs[id]; err != nil {
		return err
	}
	for i, t := range f.txs {
		if t.ID == id {
			f.txs = append(f.txs[:i], f.txs[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeBackend) ListActivities(ctx context.Context) ([]*domain.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*domain.Activity(nil), f.activities...), nil
}

func (f *fakeBackend) RecordActivity(ctx context.Context, a *domain.Activity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activities = append(f.activities, a)
	return nil
}

func (f *fakeBackend) Ping(ctx context.Context) error {
	if f.down {
		return domain.ErrBackendUnavailable
	}
	return nil
}

func (f *fakeBackend) seedProducts(products ...*domain.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range products {
		if p.ID == "" {
			p.ID = f.id("p")
		}
		f.products = append(f.products, p)
	}
}

// mockJournal implements ports.RunJournal in memory.
type mockJournal struct {
	mu      sync.Mutex
	runs    map[string]*ports.RunRecord
	saveErr error
}

func newMockJournal() *mockJournal {
	return &mockJournal{runs: map[string]*ports.RunRecord{}}
}

func (m *mockJournal) Save(ctx context.Context, run *ports.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.runs[run.ID] = run
	return nil
}

func (m *mockJournal) Get(ctx context.Context, id string) (*ports.RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, domain.ErrRunMiss
	}
	if run.Expired(time.Now()) {
		return nil, domain.ErrRunExpired
	}
	return run, nil
}

func (m *mockJournal) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.runs, id)
	return nil
}

func (m *mockJournal) List(ctx context.Context) ([]*ports.RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*ports.RunRecord, 0, len(m.runs))
	for _, r := range m.runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockJournal) CleanExpired(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, r := range m.runs {
		if r.Expired(time.Now()) {
			delete(m.runs, id)
			n++
		}
	}
	return n, nil
}

func (m *mockJournal) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = map[string]*ports.RunRecord{}
	return nil
}

func (m *mockJournal) Stats(ctx context.Context) (int, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.runs), int64(len(m.runs)) * 256, nil
}

func (m *mockJournal) only() *ports.RunRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.runs {
		return r
	}
	return nil
}

var testSettings = BatchSettings{ChunkSize: 2}

type fixture struct {
	backend   *fakeBackend
	journal   *mockJournal
	resolver  *ProductResolver
	catalog   *CatalogService
	txs       *TransactionService
	inventory *InventoryService
	runs      *RunService
}

func newFixture() *fixture {
	backend := newFakeBackend()
	journal := newMockJournal()
	history := NewRecorder(backend, "tester")
	journaler := NewJournaler(journal, time.Hour)
	resolver, _ := NewProductResolver(backend, 16)

	f := &fixture{backend: backend, journal: journal, resolver: resolver}
	f.catalog = NewCatalogService(backend, history, journaler, testSettings, resolver)
	f.txs = NewTransactionService(backend, resolver, history, journaler, testSettings)
	f.inventory = NewInventoryService(backend, backend, history, journaler, testSettings)
	f.runs = NewRunService(journal, f.catalog, f.inventory, f.txs)
	return f
}
