package application

import (
	"cmp"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/devbush/stockdesk/internal/batch"
	"github.com/devbush/stockdesk/internal/domain"
	"github.com/devbush/stockdesk/internal/ports"
)

// ProductQuery filters the catalog.
type ProductQuery struct {
	Keyword  string
	Category string
	Sort     string
	Page     int
	PageSize int
}

// ImportOptions configures a product import.
type ImportOptions struct {
	// Upsert updates products whose code already exists instead of failing.
	Upsert bool
}

// CategoryCount is a category and how many products it holds.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

var productSorter = NewSorter(map[string]func(a, b *domain.Product) int{
	"code":        func(a, b *domain.Product) int { return compareFold(a.Code, b.Code) },
	"name":        func(a, b *domain.Product) int { return compareFold(a.Name, b.Name) },
	"category":    func(a, b *domain.Product) int { return compareFold(a.Category, b.Category) },
	"price":       func(a, b *domain.Product) int { return cmp.Compare(a.Price, b.Price) },
	"safetyStock": func(a, b *domain.Product) int { return cmp.Compare(a.SafetyStock, b.SafetyStock) },
	"createdAt":   func(a, b *domain.Product) int { return compareTime(a.CreatedAt, b.CreatedAt) },
	"updatedAt":   func(a, b *domain.Product) int { return compareTime(a.UpdatedAt, b.UpdatedAt) },
})

// ProductSortFields lists the accepted --sort fields for products.
func ProductSortFields() []string {
	return productSorter.Fields()
}

// CatalogService manages products.
type CatalogService struct {
	store    ports.ProductStore
	history  *Recorder
	journal  *Journaler
	settings BatchSettings
	resolver *ProductResolver
}

// NewCatalogService creates a new catalog service. resolver may be nil; when set
// it is invalidated after every write.
func NewCatalogService(
	store ports.ProductStore,
	history *Recorder,
	journal *Journaler,
	settings BatchSettings,
	resolver *ProductResolver,
) *CatalogService {
	return &CatalogService{
		store:    store,
		history:  history,
		journal:  journal,
		settings: settings,
		resolver: resolver,
	}
}

// List returns one page of products matching q.
func (s *CatalogService) List(ctx context.Context, q ProductQuery) (*Page[*domain.Product], error) {
	spec, err := ParseSort(q.Sort)
	if err != nil {
		return nil, err
	}
	matched, err := s.filter(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := productSorter.Sort(matched, spec); err != nil {
		return nil, err
	}
	page := Paginate(matched, q.Page, q.PageSize)
	return &page, nil
}

func (s *CatalogService) filter(ctx context.Context, q ProductQuery) ([]*domain.Product, error) {
	all, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return Filter(all,
		func(p *domain.Product) bool {
			return containsFold(q.Keyword, p.Code, p.Name, p.Spec, p.Remark)
		},
		func(p *domain.Product) bool {
			return q.Category == "" || strings.EqualFold(p.Category, q.Category)
		},
	), nil
}

// Get returns a product by ID.
func (s *CatalogService) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.store.GetProduct(ctx, id)
}

// Create validates and stores a new product.
func (s *CatalogService) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	p.Normalize()
	if err := domain.Validate(p); err != nil {
		return nil, err
	}
	created, err := s.store.CreateProduct(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to create product %s: %w", p.Code, err)
	}
	s.invalidate()
	s.history.Record(ctx, domain.ActionCreate, domain.EntityProduct, created.ID, "created product "+created.Label())
	return created, nil
}

// Update validates and stores changes to an existing product.
func (s *CatalogService) Update(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	if p.ID == "" {
		return nil, fmt.Errorf("%w: product id is required", domain.ErrInvalidInput)
	}
	p.Normalize()
	if err := domain.Validate(p); err != nil {
		return nil, err
	}
	updated, err := s.store.UpdateProduct(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to update product %s: %w", p.ID, err)
	}
	s.invalidate()
	s.history.Record(ctx, domain.ActionUpdate, domain.EntityProduct, updated.ID, "updated product "+updated.Label())
	return updated, nil
}

// Delete removes one product.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	s.invalidate()
	s.history.Record(ctx, domain.ActionDelete, domain.EntityProduct, id, "deleted product "+id)
	return nil
}

// Import creates products in chunks. With opts.Upsert, products whose code
// already exists are updated instead.
func (s *CatalogService) Import(
	ctx context.Context,
	products []*domain.Product,
	opts ImportOptions,
	onProgress batch.ProgressFunc,
) (*BatchReport, error) {
	existing := map[string]string{}
	kind := KindProductImport
	if opts.Upsert {
		kind = KindProductUpsert
		all, err := s.store.ListProducts(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list products: %w", err)
		}
		for _, p := range all {
			existing[strings.ToLower(p.Code)] = p.ID
		}
	}

	op := func(ctx context.Context, p *domain.Product) (*domain.Product, error) {
		p.Normalize()
		if err := domain.Validate(p); err != nil {
			return nil, err
		}
		if id, ok := existing[strings.ToLower(p.Code)]; ok {
			update := *p
			update.ID = id
			out, err := s.store.UpdateProduct(ctx, &update)
			return out, guard(err)
		}
		out, err := s.store.CreateProduct(ctx, p)
		return out, guard(err)
	}

	report, err := runBatch(ctx, s.settings, s.journal, kind, products, productKey, op, onProgress)
	if err != nil {
		return nil, err
	}
	s.invalidate()
	s.history.recordBatch(ctx, domain.ActionImport, domain.EntityProduct, report, "import products")
	return report, nil
}

// ImportSheet parses sheet rows into products and imports the valid ones.
func (s *CatalogService) ImportSheet(
	ctx context.Context,
	sheet *ports.Sheet,
	opts ImportOptions,
	onProgress batch.ProgressFunc,
) (*BatchReport, error) {
	if err := requireColumns(sheet, []string{ColCode}, []string{ColName}); err != nil {
		return nil, err
	}
	products, rejected := parseRows(sheet, parseProductRow)
	report, err := s.Import(ctx, products, opts, onProgress)
	if err != nil {
		return nil, err
	}
	report.Rejected = rejected
	return report, nil
}

// DeleteMany deletes products by ID in chunks.
func (s *CatalogService) DeleteMany(ctx context.Context, ids []string, onProgress batch.ProgressFunc) (*BatchReport, error) {
	op := func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, guard(s.store.DeleteProduct(ctx, id))
	}
	report, err := runBatch(ctx, s.settings, s.journal, KindProductDelete, ids, idKey, op, onProgress)
	if err != nil {
		return nil, err
	}
	s.invalidate()
	s.history.recordBatch(ctx, domain.ActionDelete, domain.EntityProduct, report, "delete products")
	return report, nil
}

// Export returns the products matching q as a sheet.
func (s *CatalogService) Export(ctx context.Context, q ProductQuery, columns []string) (*ports.Sheet, error) {
	spec, err := ParseSort(q.Sort)
	if err != nil {
		return nil, err
	}
	matched, err := s.filter(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := productSorter.Sort(matched, spec); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		columns = ProductColumns
	}

	sheet := &ports.Sheet{Headers: columns, Rows: make([]map[string]string, 0, len(matched))}
	for _, p := range matched {
		sheet.Rows = append(sheet.Rows, map[string]string{
			ColCode:        p.Code,
			ColName:        p.Name,
			ColCategory:    p.Category,
			ColUnit:        p.Unit,
			ColSpec:        p.Spec,
			ColPrice:       formatFloat(p.Price),
			ColSafetyStock: formatInt(p.SafetyStock),
			ColRemark:      p.Remark,
		})
	}
	s.history.Record(ctx, domain.ActionExport, domain.EntityProduct, "", fmt.Sprintf("exported %d products", len(matched)))
	return sheet, nil
}

// Categories returns every category with its product count, by name.
// Products without a category are counted under "".
func (s *CatalogService) Categories(ctx context.Context) ([]CategoryCount, error) {
	all, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	counts := map[string]int{}
	for _, p := range all {
		counts[p.Category]++
	}
	out := make([]CategoryCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, CategoryCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *CatalogService) invalidate() {
	if s.resolver != nil {
		s.resolver.Purge()
	}
}

func productKey(p *domain.Product) string {
	return p.Code
}

func idKey(id string) string {
	return id
}
