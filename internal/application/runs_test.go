package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devbush/stockdesk/internal/domain"
	"github.com/devbush/stockdesk/internal/ports"
)

func TestRunService_RetryReplaysOnlyFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.backend.failCodes["C-3"] = errors.New("temporarily locked")

	report, err := f.catalog.Import(ctx, []*domain.Product{
		{Code: "A-1", Name: "Anchor"},
		{Code: "C-3", Name: "Clamp"},
		{Code: "D-4", Name: "Dowel"},
	}, ImportOptions{}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, report.Failed)
	runID := report.RunID
	require.NotEmpty(t, runID)

	run, err := f.runs.Show(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, "C-3", run.Failures[0].Key)
	assert.Equal(t, "temporarily locked", run.Failures[0].Reason)

	delete(f.backend.failCodes, "C-3")
	writes := f.backend.writes

	retried, err := f.runs.Retry(ctx, runID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, retried.Total)
	assert.Equal(t, 1, retried.Succeeded)
	assert.Empty(t, retried.RunID)
	assert.Equal(t, writes+1, f.backend.writes)
	assert.Len(t, f.backend.products, 3)

	_, err = f.runs.Show(ctx, runID)
	assert.ErrorIs(t, err, domain.ErrRunMiss)
}

func TestRunService_RetryStillFailing(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seedCatalog(f)
	f.backend.failIDs["p2"] = errors.New("in use")

	report, err := f.catalog.DeleteMany(ctx, []string{"p1", "p2"}, nil)
	require.NoError(t, err)

	retried, err := f.runs.Retry(ctx, report.RunID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, retried.Failed)
	require.NotEmpty(t, retried.RunID)
	assert.NotEqual(t, report.RunID, retried.RunID)

	runs, err := f.runs.List(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, KindProductDelete, runs[0].Kind)
}

func TestRunService_RetryDispatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seedLedger(f)
	seedCatalog(f)

	tests := []struct {
		kind    string
		payload string
		check   func(t *testing.T)
	}{
		{KindInventoryDelete, `"i3"`, func(t *testing.T) { assert.Len(t, f.backend.inventory, 2) }},
		{KindTxDelete, `"t5"`, func(t *testing.T) { assert.Len(t, f.backend.txs, 4) }},
		{KindTxCreate, `{"productCode":"G-300","type":"in","quantity":2}`, func(t *testing.T) { assert.Len(t, f.backend.txs, 5) }},
		{KindInventoryImport, `{"productCode":"G-300","period":"2024-03","openingStock":8}`, func(t *testing.T) {
			assert.Len(t, f.backend.inventory, 3)
		}},
		{KindInventoryReconcile, `{"id":"i1","productCode":"B-100","period":"2024-03","openingStock":100,"stockIn":10,"stockOut":4}`, func(t *testing.T) {
			assert.Equal(t, 106, f.backend.inventory[0].EndingStock)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			id := "run-" + tt.kind
			require.NoError(t, f.journal.Save(ctx, &ports.RunRecord{
				ID:        id,
				Kind:      tt.kind,
				Failures:  []ports.RunFailure{{Key: "k", Payload: []byte(tt.payload)}},
				CreatedAt: time.Now(),
			}))

			report, err := f.runs.Retry(ctx, id, nil)
			require.NoError(t, err)
			assert.Equal(t, 1, report.Succeeded)
			tt.check(t)
		})
	}
}

func TestRunService_RetryErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.runs.Retry(ctx, "missing", nil)
	assert.ErrorIs(t, err, domain.ErrRunMiss)

	require.NoError(t, f.journal.Save(ctx, &ports.RunRecord{ID: "old", Kind: KindTxDelete, ExpiresAt: time.Now().Add(-time.Minute)}))
	_, err = f.runs.Retry(ctx, "old", nil)
	assert.ErrorIs(t, err, domain.ErrRunExpired)

	require.NoError(t, f.journal.Save(ctx, &ports.RunRecord{ID: "odd", Kind: "stock.teleport"}))
	_, err = f.runs.Retry(ctx, "odd", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	require.NoError(t, f.journal.Save(ctx, &ports.RunRecord{
		ID:       "bad",
		Kind:     KindTxDelete,
		Failures: []ports.RunFailure{{Key: "t1", Payload: []byte(`{`)}},
	}))
	_, err = f.runs.Retry(ctx, "bad", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failure 1 (t1)")
}

func TestRunService_Maintenance(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	require.NoError(t, f.journal.Save(ctx, &ports.RunRecord{ID: "a", ExpiresAt: time.Now().Add(-time.Hour)}))
	require.NoError(t, f.journal.Save(ctx, &ports.RunRecord{ID: "b", ExpiresAt: time.Now().Add(time.Hour)}))

	stats, err := f.runs.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.RunCount)

	n, err := f.runs.CleanExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, f.runs.Clear(ctx))
	stats, err = f.runs.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.RunCount)
}

func TestJournalFailureDoesNotFailBatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.journal.saveErr = errors.New("disk full")

	report, err := f.catalog.Import(ctx, []*domain.Product{{Code: "", Name: "bad"}}, ImportOptions{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Empty(t, report.RunID)
}
