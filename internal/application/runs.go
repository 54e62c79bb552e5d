package application

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/devbush/stockdesk/internal/batch"
	"github.com/devbush/stockdesk/internal/domain"
	"github.com/devbush/stockdesk/internal/ports"
)

// RunStats holds journal statistics
type RunStats struct {
	RunCount  int
	TotalSize int64
}

// RunService lists, retries and cleans journaled batch runs.
type RunService struct {
	journal   ports.RunJournal
	catalog   *CatalogService
	inventory *InventoryService
	txs       *TransactionService
}

// NewRunService creates a new run service
func NewRunService(
	journal ports.RunJournal,
	catalog *CatalogService,
	inventory *InventoryService,
	txs *TransactionService,
) *RunService {
	return &RunService{
		journal:   journal,
		catalog:   catalog,
		inventory: inventory,
		txs:       txs,
	}
}

// List returns journaled runs, newest first.
func (s *RunService) List(ctx context.Context) ([]*ports.RunRecord, error) {
	return s.journal.List(ctx)
}

// Show returns one run.
func (s *RunService) Show(ctx context.Context, id string) (*ports.RunRecord, error) {
	return s.journal.Get(ctx, id)
}

// Retry re-runs the failed items of a run through the operation that produced
// them. The old run is removed; failures of the retry are journaled as a new run.
func (s *RunService) Retry(ctx context.Context, id string, onProgress batch.ProgressFunc) (*BatchReport, error) {
	run, err := s.journal.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	report, err := s.dispatch(ctx, run, onProgress)
	if err != nil {
		return nil, fmt.Errorf("failed to retry run %s: %w", id, err)
	}

	if err := s.journal.Delete(ctx, id); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("run", id).Msg("failed to remove retried run")
	}
	return report, nil
}

func (s *RunService) dispatch(ctx context.Context, run *ports.RunRecord, onProgress batch.ProgressFunc) (*BatchReport, error) {
	switch run.Kind {
	case KindProductImport, KindProductUpsert:
		items, err := decodePayloads[*domain.Product](run)
		if err != nil {
			return nil, err
		}
		return s.catalog.Import(ctx, items, ImportOptions{Upsert: run.Kind == KindProductUpsert}, onProgress)
	case KindProductDelete:
		ids, err := decodePayloads[string](run)
		if err != nil {
			return nil, err
		}
		return s.catalog.DeleteMany(ctx, ids, onProgress)
	case KindInventoryImport:
		items, err := decodePayloads[*domain.InventoryRecord](run)
		if err != nil {
			return nil, err
		}
		return s.inventory.Import(ctx, items, onProgress)
	case KindInventoryDelete:
		ids, err := decodePayloads[string](run)
		if err != nil {
			return nil, err
		}
		return s.inventory.DeleteMany(ctx, ids, onProgress)
	case KindInventoryReconcile:
		items, err := decodePayloads[*domain.InventoryRecord](run)
		if err != nil {
			return nil, err
		}
		return s.inventory.UpdateMany(ctx, items, onProgress)
	case KindTxCreate:
		items, err := decodePayloads[*domain.Transaction](run)
		if err != nil {
			return nil, err
		}
		return s.txs.BatchCreate(ctx, items, onProgress)
	case KindTxDelete:
		ids, err := decodePayloads[string](run)
		if err != nil {
			return nil, err
		}
		return s.txs.BatchDelete(ctx, ids, onProgress)
	default:
		return nil, fmt.Errorf("%w: unknown run kind %q", domain.ErrInvalidInput, run.Kind)
	}
}

func decodePayloads[T any](run *ports.RunRecord) ([]T, error) {
	items := make([]T, 0, len(run.Failures))
	for i, f := range run.Failures {
		var item T
		if err := json.Unmarshal(f.Payload, &item); err != nil {
			return nil, fmt.Errorf("failure %d (%s): %w", i+1, f.Key, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// Stats returns journal statistics
func (s *RunService) Stats(ctx context.Context) (*RunStats, error) {
	count, size, err := s.journal.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &RunStats{
		RunCount:  count,
		TotalSize: size,
	}, nil
}

// CleanExpired removes expired runs
func (s *RunService) CleanExpired(ctx context.Context) (int, error) {
	return s.journal.CleanExpired(ctx)
}

// Clear removes all runs
func (s *RunService) Clear(ctx context.Context) error {
	return s.journal.Clear(ctx)
}
