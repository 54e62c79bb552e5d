package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devbush/stockdesk/internal/domain"
)

func TestHistoryService_List(t *testing.T) {
	backend := newFakeBackend()
	at := func(h int) time.Time { return time.Date(2024, 3, 1, h, 0, 0, 0, time.UTC) }
	backend.activities = []*domain.Activity{
		{ID: "a1", Action: domain.ActionCreate, Entity: domain.EntityProduct, Actor: "kim", At: at(1)},
		{ID: "a2", Action: domain.ActionStockIn, Entity: domain.EntityTransaction, Actor: "lee", At: at(3)},
		{ID: "a3", Action: domain.ActionDelete, Entity: domain.EntityProduct, Actor: "Kim", At: at(2)},
	}
	svc := NewHistoryService(backend)
	ctx := context.Background()

	page, err := svc.List(ctx, HistoryQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "a2", page.Items[0].ID, "newest first")
	assert.Equal(t, "a1", page.Items[2].ID)

	page, err = svc.List(ctx, HistoryQuery{Entity: domain.EntityProduct, Actor: "KIM"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)

	page, err = svc.List(ctx, HistoryQuery{Since: at(2), Action: domain.ActionDelete})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "a3", page.Items[0].ID)
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.Record(context.Background(), domain.ActionCreate, domain.EntityProduct, "1", "x")
	})
}
