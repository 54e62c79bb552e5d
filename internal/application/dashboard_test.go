package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardService_Overview(t *testing.T) {
	f := newFixture()
	seedCatalog(f)
	seedLedger(f)

	svc := NewDashboardService(f.backend)
	svc.now = func() time.Time { return time.Date(2024, 3, 9, 18, 0, 0, 0, time.UTC) }

	ov, err := svc.Overview(context.Background(), DashboardOptions{Days: 7, Top: 1})
	require.NoError(t, err)

	assert.Equal(t, 3, ov.ProductCount)
	// Latest periods: B-100 2024-03 (110) and W-200 2024-03 (15).
	assert.Equal(t, 125, ov.TotalUnits)
	assert.InDelta(t, 110*0.3+15*0.05, ov.StockValue, 1e-9)

	require.Len(t, ov.LowStock, 1)
	assert.Equal(t, "W-200", ov.LowStock[0].Code)

	require.Len(t, ov.Daily, 7)
	assert.Equal(t, time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), ov.Daily[0].Date)
	// t2 (day 9, out 4), t3 (day 4, out 5), t4 (day 7, in 8); t1 is before the window.
	assert.Equal(t, 8, ov.In)
	assert.Equal(t, 9, ov.Out)
	assert.Equal(t, 5, ov.Daily[1].Out)
	assert.Equal(t, 4, ov.Daily[6].Out)

	require.Len(t, ov.TopOutflow, 1)
	assert.Equal(t, ProductFlow{Code: "W-200", Out: 5}, ov.TopOutflow[0])

	require.Len(t, ov.ByCategory, 2)
	assert.Equal(t, CategoryUnits{Category: "Hardware", Units: 110}, ov.ByCategory[0])
}

func TestDashboardService_Defaults(t *testing.T) {
	f := newFixture()
	svc := NewDashboardService(f.backend)

	ov, err := svc.Overview(context.Background(), DashboardOptions{})
	require.NoError(t, err)
	assert.Len(t, ov.Daily, DefaultTrendDays)
	assert.Zero(t, ov.TotalUnits)
	assert.Empty(t, ov.TopOutflow)
}
