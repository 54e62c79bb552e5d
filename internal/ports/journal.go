package ports

import (
	"context"
	"encoding/json"
	"time"
)

// RunFailure is one failed item of a journaled run.
type RunFailure struct {
	// Key identifies the item to a human (product code, record id...).
	Key    string `json:"key"`
	Reason string `json:"reason"`

	// Payload is the item itself, decoded again on retry.
	Payload json.RawMessage `json:"payload"`
}

// RunRecord is a batch run kept on disk so its failures can be re-run.
type RunRecord struct {
	ID        string       `json:"id"`
	Kind      string       `json:"kind"`
	Label     string       `json:"label"`
	Total     int          `json:"total"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Halted    string       `json:"halted,omitempty"`
	Failures  []RunFailure `json:"failures"`
	CreatedAt time.Time    `json:"created_at"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Expired reports whether the record is past its TTL at now.
func (r *RunRecord) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}

// RunJournal persists runs that finished with failures.
type RunJournal interface {
	// Save stores a run, replacing any run with the same ID.
	Save(ctx context.Context, run *RunRecord) error

	// Get returns domain.ErrRunMiss or domain.ErrRunExpired when the run is unusable.
	Get(ctx context.Context, id string) (*RunRecord, error)

	Delete(ctx context.Context, id string) error

	// List returns unexpired runs, newest first.
	List(ctx context.Context) ([]*RunRecord, error)

	// CleanExpired removes expired runs and returns how many were removed.
	CleanExpired(ctx context.Context) (int, error)

	// Clear removes all runs.
	Clear(ctx context.Context) error

	// Stats returns the run count and total size in bytes.
	Stats(ctx context.Context) (count int, totalSize int64, err error)
}
