package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devbush/stockdesk/internal/domain"
	"github.com/devbush/stockdesk/internal/ports"
)

func seedLedger(f *fixture) {
	f.backend.inventory = []*domain.InventoryRecord{
		{ID: "i1", ProductCode: "B-100", Period: "2024-03", OpeningStock: 100, StockIn: 10, StockOut: 0, EndingStock: 110, SafetyStock: 50},
		{ID: "i2", ProductCode: "W-200", Period: "2024-03", OpeningStock: 20, StockIn: 0, StockOut: 5, EndingStock: 15, SafetyStock: 30},
		{ID: "i3", ProductCode: "B-100", Period: "2024-02", OpeningStock: 90, StockIn: 10, EndingStock: 100},
	}
	at := func(d int) time.Time { return time.Date(2024, 3, d, 10, 0, 0, 0, time.UTC) }
	f.backend.txs = []*domain.Transaction{
		{ID: "t1", ProductCode: "B-100", Type: domain.TxIn, Quantity: 10, OccurredAt: at(2)},
		{ID: "t2", ProductCode: "B-100", Type: domain.TxOut, Quantity: 4, OccurredAt: at(9)},
		{ID: "t3", ProductCode: "W-200", Type: domain.TxOut, Quantity: 5, OccurredAt: at(4)},
		{ID: "t4", ProductCode: "G-300", Type: domain.TxIn, Quantity: 8, OccurredAt: at(7)},
		{ID: "t5", ProductCode: "B-100", Type: domain.TxIn, Quantity: 99, OccurredAt: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
	}
}

func TestInventoryService_List(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seedLedger(f)

	page, err := f.inventory.List(ctx, InventoryQuery{Period: "2024-03", LowOnly: true})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "W-200", page.Items[0].ProductCode)

	page, err = f.inventory.List(ctx, InventoryQuery{Keyword: "b-1", Sort: "period"})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "2024-02", page.Items[0].Period)
}

func TestInventoryService_ImportRecomputes(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	records := []*domain.InventoryRecord{
		{ProductCode: "B-100", Period: "2024-05", OpeningStock: 10, StockIn: 5, StockOut: 3, EndingStock: 999},
		{ProductCode: "W-200", Period: "May", OpeningStock: 1},
	}
	report, err := f.inventory.Import(ctx, records, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Contains(t, report.Failures[0].Reason, "period")
	assert.Equal(t, "W-200@May", report.Failures[0].Key)
	require.Len(t, f.backend.inventory, 1)
	assert.Equal(t, 12, f.backend.inventory[0].EndingStock)
}

func TestInventoryService_ImportSheet(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	sheet := &ports.Sheet{
		Headers: []string{ColProductCode, ColPeriod, ColOpeningStock, ColStockIn, ColStockOut, ColEndingStock},
		Rows: []map[string]string{
			{ColProductCode: "B-100", ColPeriod: "2024-06", ColOpeningStock: "50", ColStockIn: "20", ColStockOut: "5", ColEndingStock: "0"},
			{ColProductCode: "W-200", ColPeriod: "2024-06", ColOpeningStock: "x"},
		},
	}
	report, err := f.inventory.ImportSheet(ctx, sheet, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)
	require.Len(t, report.Rejected, 1)
	assert.Equal(t, 3, report.Rejected[0].Row)
	assert.Equal(t, 65, f.backend.inventory[0].EndingStock)
}

func TestInventoryService_DeleteAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seedLedger(f)

	report, err := f.inventory.DeleteAll(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 3, report.Succeeded)
	assert.Empty(t, f.backend.inventory)

	report, err = f.inventory.DeleteAll(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Total)
	assert.True(t, report.OK())
}

func TestInventoryService_Ledger(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seedLedger(f)

	lines, err := f.inventory.Ledger(ctx, "2024-03")
	require.NoError(t, err)
	require.Len(t, lines, 3)

	bolt := lines[0]
	assert.Equal(t, "B-100", bolt.ProductCode)
	assert.Equal(t, 100, bolt.Opening)
	assert.Equal(t, 10, bolt.In)
	assert.Equal(t, 4, bolt.Out)
	assert.Equal(t, 106, bolt.Ending)
	assert.Equal(t, 110, bolt.Stored)
	assert.Equal(t, 4, bolt.Drift())

	gloves := lines[1]
	assert.Equal(t, "G-300", gloves.ProductCode)
	assert.False(t, gloves.HasRecord)
	assert.Equal(t, 8, gloves.Ending)
	assert.Equal(t, 0, gloves.Drift())

	washer := lines[2]
	assert.Equal(t, 0, washer.Drift())

	_, err = f.inventory.Ledger(ctx, "2024-3-1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestInventoryService_LedgerDuplicateRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seedLedger(f)
	f.backend.inventory = append(f.backend.inventory,
		&domain.InventoryRecord{ID: "i4", ProductCode: "b-100", Period: "2024-03", OpeningStock: 7, EndingStock: 7})

	lines, err := f.inventory.Ledger(ctx, "2024-03")
	require.NoError(t, err)
	require.Len(t, lines, 3, "one line per product")
	assert.Equal(t, "i1", lines[0].RecordID)

	report, err := f.inventory.Reconcile(ctx, "2024-03", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Total)
}

func TestInventoryService_Reconcile(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seedLedger(f)

	report, err := f.inventory.Reconcile(ctx, "2024-03", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Total, "only the drifting record is rewritten")
	assert.Equal(t, 1, report.Succeeded)

	fixed := f.backend.inventory[0]
	assert.Equal(t, "i1", fixed.ID)
	assert.Equal(t, 4, fixed.StockOut)
	assert.Equal(t, 106, fixed.EndingStock)

	report, err = f.inventory.Reconcile(ctx, "2024-03", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Total)
}

func TestInventoryService_Export(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seedLedger(f)

	sheet, err := f.inventory.Export(ctx, InventoryQuery{Period: "2024-02"})
	require.NoError(t, err)
	assert.Equal(t, InventoryColumns, sheet.Headers)
	require.Len(t, sheet.Rows, 1)
	assert.Equal(t, "100", sheet.Rows[0][ColEndingStock])
}
