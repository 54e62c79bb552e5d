package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devbush/stockdesk/internal/batch"
	"github.com/devbush/stockdesk/internal/domain"
	"github.com/devbush/stockdesk/internal/ports"
)

func seedCatalog(f *fixture) {
	f.backend.seedProducts(
		&domain.Product{Code: "B-100", Name: "Hex bolt", Category: "Hardware", Price: 0.3},
		&domain.Product{Code: "W-200", Name: "Washer", Category: "hardware", Price: 0.05},
		&domain.Product{Code: "G-300", Name: "Safety gloves", Category: "PPE", Price: 4.5, Remark: "nitrile"},
	)
}

func TestCatalogService_List(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seedCatalog(f)

	t.Run("keyword matches remark", func(t *testing.T) {
		page, err := f.catalog.List(ctx, ProductQuery{Keyword: "NITRILE"})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "G-300", page.Items[0].Code)
	})

	t.Run("category is case insensitive", func(t *testing.T) {
		page, err := f.catalog.List(ctx, ProductQuery{Category: "HARDWARE", Sort: "price:desc"})
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, "B-100", page.Items[0].Code)
	})

	t.Run("paged", func(t *testing.T) {
		page, err := f.catalog.List(ctx, ProductQuery{Sort: "code", Page: 2, PageSize: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Total)
		assert.Equal(t, 2, page.TotalPages)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "W-200", page.Items[0].Code)
	})

	t.Run("bad sort field", func(t *testing.T) {
		_, err := f.catalog.List(ctx, ProductQuery{Sort: "weight"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestCatalogService_Create(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.catalog.Create(ctx, &domain.Product{Name: "No code"})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 0, f.backend.writes, "invalid product must not reach the backend")

	created, err := f.catalog.Create(ctx, &domain.Product{Code: " N-1 ", Name: "Nut"})
	require.NoError(t, err)
	assert.Equal(t, "N-1", created.Code)
	assert.NotEmpty(t, created.ID)

	require.Len(t, f.backend.activities, 1)
	assert.Equal(t, domain.ActionCreate, f.backend.activities[0].Action)
	assert.Equal(t, "tester", f.backend.activities[0].Actor)

	_, err = f.catalog.Create(ctx, &domain.Product{Code: "n-1", Name: "Dup"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCatalogService_Update(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seedCatalog(f)

	_, err := f.catalog.Update(ctx, &domain.Product{Code: "X", Name: "X"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	p, err := f.catalog.Get(ctx, f.backend.products[0].ID)
	require.NoError(t, err)
	p.Price = 0.35
	updated, err := f.catalog.Update(ctx, p)
	require.NoError(t, err)
	assert.InDelta(t, 0.35, updated.Price, 1e-9)
}

func TestCatalogService_Import(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seedCatalog(f)
	f.backend.failCodes["E-5"] = errors.New("rejected")

	products := []*domain.Product{
		{Code: "A-1", Name: "Anchor"},
		{Code: "B-100", Name: "Duplicate bolt"},
		{Code: "C-3", Name: "Clamp"},
		{Code: "", Name: "No code"},
		{Code: "E-5", Name: "Eyelet"},
	}

	var progress []batch.Progress
	report, err := f.catalog.Import(ctx, products, ImportOptions{}, func(p batch.Progress) {
		progress = append(progress, p)
	})
	require.NoError(t, err)

	assert.Equal(t, 5, report.Total)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 3, report.Failed)
	assert.Equal(t, report.Total, report.Succeeded+report.Failed)
	assert.Equal(t, []string{"B-100", "", "E-5"}, []string{report.Failures[0].Key, report.Failures[1].Key, report.Failures[2].Key})
	require.Len(t, progress, 3)
	assert.Equal(t, 5, progress[2].Processed)

	require.NotEmpty(t, report.RunID)
	run := f.journal.only()
	require.NotNil(t, run)
	assert.Equal(t, KindProductImport, run.Kind)
	assert.Len(t, run.Failures, 3)
	assert.False(t, run.ExpiresAt.IsZero())
}

func TestCatalogService_ImportUpsert(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seedCatalog(f)

	report, err := f.catalog.Import(ctx, []*domain.Product{
		{Code: "b-100", Name: "Hex bolt M8", Price: 0.4},
		{Code: "Z-9", Name: "Zip tie"},
	}, ImportOptions{Upsert: true}, nil)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Empty(t, report.RunID)

	page, err := f.catalog.List(ctx, ProductQuery{Keyword: "hex"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Hex bolt M8", page.Items[0].Name)
	assert.Len(t, f.backend.products, 4)
}

func TestCatalogService_ImportSheet(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	sheet := &ports.Sheet{
		Headers: []string{ColCode, ColName, ColPrice, ColSafetyStock},
		Rows: []map[string]string{
			{ColCode: "A-1", ColName: "Anchor", ColPrice: "1,250.50", ColSafetyStock: "10"},
			{ColCode: "A-2", ColName: "Anchor XL", ColPrice: "abc"},
			{ColCode: "", ColName: "", ColPrice: "", ColSafetyStock: ""},
			{ColCode: "A-3", ColName: "", ColSafetyStock: "12.0"},
			{ColCode: "A-4", ColName: "Anchor S", ColSafetyStock: "12.0"},
		},
	}

	report, err := f.catalog.ImportSheet(ctx, sheet, ImportOptions{}, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Succeeded)
	require.Len(t, report.Rejected, 2)
	assert.Equal(t, 3, report.Rejected[0].Row)
	assert.Contains(t, report.Rejected[0].Reason, "price")
	assert.Equal(t, 5, report.Rejected[1].Row)
	assert.Contains(t, report.Rejected[1].Reason, "name is required")
	assert.False(t, report.OK())

	byCode := map[string]*domain.Product{}
	for _, p := range f.backend.products {
		byCode[p.Code] = p
	}
	require.Contains(t, byCode, "A-1")
	require.Contains(t, byCode, "A-4")
	assert.InDelta(t, 1250.5, byCode["A-1"].Price, 1e-9)
	assert.Equal(t, 12, byCode["A-4"].SafetyStock)

	_, err = f.catalog.ImportSheet(ctx, &ports.Sheet{Headers: []string{ColName}}, ImportOptions{}, nil)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "code")
}

func TestCatalogService_DeleteManyAbortsWhenBackendDown(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seedCatalog(f)
	f.backend.down = true

	ids := []string{"p1", "p2", "p3", "p4", "p5"}
	report, err := f.catalog.DeleteMany(ctx, ids, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Succeeded)
	assert.Equal(t, 5, report.Failed)
	assert.Equal(t, 3, report.NotAttempted)
	assert.ErrorIs(t, report.Halted, domain.ErrBackendUnavailable)
	assert.Equal(t, 2, f.backend.writes, "only the first chunk reaches the backend")
	assert.Empty(t, f.backend.activities)
}

func TestCatalogService_DeleteMany(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seedCatalog(f)

	report, err := f.catalog.DeleteMany(ctx, []string{"p1", "nope", "p3"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Succeeded)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "nope", report.Failures[0].Key)
	assert.Len(t, f.backend.products, 1)
	require.Len(t, f.backend.activities, 1)
	assert.Equal(t, "delete products: 2/3 succeeded", f.backend.activities[0].Summary)
}

func TestCatalogService_ExportAndCategories(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seedCatalog(f)

	sheet, err := f.catalog.Export(ctx, ProductQuery{Sort: "code"}, nil)
	require.NoError(t, err)
	assert.Equal(t, ProductColumns, sheet.Headers)
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "B-100", sheet.Rows[0][ColCode])
	assert.Equal(t, "0.3", sheet.Rows[0][ColPrice])

	cats, err := f.catalog.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []CategoryCount{{"Hardware", 1}, {"PPE", 1}, {"hardware", 1}}, cats)
}
