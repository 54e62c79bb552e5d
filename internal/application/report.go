package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/devbush/stockdesk/internal/batch"
	"github.com/devbush/stockdesk/internal/domain"
	"github.com/devbush/stockdesk/internal/ports"
)

// Run kinds, used to journal and retry batches.
const (
	KindProductImport      = "product.import"
	KindProductUpsert      = "product.upsert"
	KindProductDelete      = "product.delete"
	KindInventoryImport    = "inventory.import"
	KindInventoryDelete    = "inventory.delete"
	KindInventoryReconcile = "inventory.reconcile"
	KindTxCreate           = "tx.create"
	KindTxDelete           = "tx.delete"
)

// FailureLine is a failed item as shown to the user.
type FailureLine struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// RowError is a spreadsheet row rejected before the batch started.
// Row is 1-based and counts the header.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// BatchReport is the outcome of a bulk operation.
type BatchReport struct {
	Label        string
	Total        int
	Succeeded    int
	Failed       int
	NotAttempted int
	Halted       error
	Failures     []FailureLine
	Duration     time.Duration

	// Rejected rows never reached the runner.
	Rejected []RowError

	// RunID is set when the failures were journaled for retry.
	RunID string
}

// OK reports whether nothing failed or was rejected.
func (r *BatchReport) OK() bool {
	return r.Failed == 0 && len(r.Rejected) == 0
}

// FirstFailures returns at most n failures.
func (r *BatchReport) FirstFailures(n int) []FailureLine {
	return r.Failures[:max(0, min(n, len(r.Failures)))]
}

func newReport[T, R any](s *batch.Summary[T, R], key func(T) string) *BatchReport {
	r := &BatchReport{
		Label:        s.Label,
		Total:        s.Total,
		Succeeded:    s.SuccessCount,
		Failed:       s.FailureCount,
		NotAttempted: s.NotAttemptedCount(),
		Halted:       s.Halted,
		Duration:     s.Duration,
		Failures:     make([]FailureLine, 0, len(s.Failures)),
	}
	for _, f := range s.Failures {
		r.Failures = append(r.Failures, FailureLine{Key: key(f.Item), Reason: f.Reason})
	}
	return r
}

// guard marks errors that make every later item pointless.
func guard(err error) error {
	if errors.Is(err, domain.ErrBackendUnavailable) || errors.Is(err, domain.ErrUnauthorized) {
		return batch.Abort(err)
	}
	return err
}

// runBatch runs op over items, journals any failures and builds the report.
func runBatch[T, R any](
	ctx context.Context,
	settings BatchSettings,
	journal *Journaler,
	kind string,
	items []T,
	key func(T) string,
	op batch.Operation[T, R],
	onProgress batch.ProgressFunc,
) (*BatchReport, error) {
	summary, err := batch.Run(ctx, items, op, settings.options(kind, onProgress))
	if err != nil {
		return nil, err
	}
	report := newReport(summary, key)
	report.RunID = journalRun(ctx, journal, kind, summary, key)
	return report, nil
}

// Journaler writes runs with failures to a RunJournal. A nil Journaler
// journals nothing.
type Journaler struct {
	store ports.RunJournal
	ttl   time.Duration
	now   func() time.Time
}

// NewJournaler creates a journaler keeping runs for ttl.
func NewJournaler(store ports.RunJournal, ttl time.Duration) *Journaler {
	return &Journaler{store: store, ttl: ttl, now: time.Now}
}

// journalRun returns the new run id, or "" when nothing was journaled.
// Journal errors are logged; they never fail the batch itself.
func journalRun[T, R any](ctx context.Context, j *Journaler, kind string, s *batch.Summary[T, R], key func(T) string) string {
	if j == nil || j.store == nil || s.FailureCount == 0 {
		return ""
	}
	log := zerolog.Ctx(ctx)

	now := j.now()
	run := &ports.RunRecord{
		ID:        uuid.NewString(),
		Kind:      kind,
		Label:     s.Label,
		Total:     s.Total,
		Succeeded: s.SuccessCount,
		Failed:    s.FailureCount,
		Failures:  make([]ports.RunFailure, 0, len(s.Failures)),
		CreatedAt: now,
	}
	if j.ttl > 0 {
		run.ExpiresAt = now.Add(j.ttl)
	}
	if s.Halted != nil {
		run.Halted = s.Halted.Error()
	}

	for _, f := range s.Failures {
		payload, err := json.Marshal(f.Item)
		if err != nil {
			log.Warn().Err(err).Str("kind", kind).Int("index", f.Index).Msg("cannot encode failed item")
			continue
		}
		run.Failures = append(run.Failures, ports.RunFailure{
			Key:     key(f.Item),
			Reason:  f.Reason,
			Payload: payload,
		})
	}

	if err := j.store.Save(ctx, run); err != nil {
		log.Warn().Err(err).Str("kind", kind).Msg("failed to journal run")
		return ""
	}
	log.Debug().Str("run", run.ID).Str("kind", kind).Int("failed", run.Failed).Msg("run journaled")
	return run.ID
}

// Recorder appends activity entries. A nil Recorder records nothing.
type Recorder struct {
	store ports.ActivityStore
	actor string
	now   func() time.Time
}

// NewRecorder creates a recorder attributing entries to actor.
func NewRecorder(store ports.ActivityStore, actor string) *Recorder {
	return &Recorder{store: store, actor: actor, now: time.Now}
}

// Record is best effort: history must not fail the operation it describes.
func (r *Recorder) Record(ctx context.Context, action domain.Action, entity domain.Entity, id, summary string) {
	if r == nil || r.store == nil {
		return
	}
	a := &domain.Activity{
		Action:   action,
		Entity:   entity,
		EntityID: id,
		Summary:  summary,
		Actor:    r.actor,
		At:       r.now(),
	}
	if err := r.store.RecordActivity(ctx, a); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("action", string(action)).Msg("failed to record activity")
	}
}

// recordBatch records one activity for a bulk operation that changed something.
func (r *Recorder) recordBatch(ctx context.Context, action domain.Action, entity domain.Entity, report *BatchReport, what string) {
	if report.Succeeded == 0 {
		return
	}
	r.Record(ctx, action, entity, "", batchSummary(report, what))
}

func batchSummary(r *BatchReport, what string) string {
	return fmt.Sprintf("%s: %d/%d succeeded", what, r.Succeeded, r.Total)
}
