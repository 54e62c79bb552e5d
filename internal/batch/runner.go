package batch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Default runner configuration.
const (
	// DefaultChunkSize is the number of operations kept in flight at once.
	DefaultChunkSize = 10

	// DefaultInterChunkDelay is the pause between two chunks.
	DefaultInterChunkDelay = 300 * time.Millisecond
)

// Precondition errors, returned before any item is processed.
var (
	ErrInvalidChunkSize = errors.New("chunk size must be at least 1")
	ErrInvalidDelay     = errors.New("inter-chunk delay must not be negative")
	ErrNilOperation     = errors.New("batch operation cannot be nil")
)

// Run-level failure reasons recorded against individual items.
var (
	ErrNotAttempted   = errors.New("not attempted")
	ErrOperationPanic = errors.New("operation panicked")
)

// Operation processes a single item. A non-nil error marks the item as failed.
type Operation[T, R any] func(ctx context.Context, item T) (R, error)

// ProgressFunc receives a snapshot after every chunk. It runs on the
// runner's goroutine, so it should return quickly.
type ProgressFunc func(Progress)

// Options configures a Runner.
type Options struct {
	// ChunkSize bounds the number of in-flight operations.
	ChunkSize int

	// InterChunkDelay is slept between chunks regardless of their outcome.
	InterChunkDelay time.Duration

	// Label names the run in progress snapshots and logs.
	Label string

	// OnProgress is optional.
	OnProgress ProgressFunc
}

// DefaultOptions returns options with the default chunk size and delay.
func DefaultOptions(label string) Options {
	return Options{
		ChunkSize:       DefaultChunkSize,
		InterChunkDelay: DefaultInterChunkDelay,
		Label:           label,
	}
}

// Validate checks the chunking parameters.
func (o Options) Validate() error {
	if o.ChunkSize < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidChunkSize, o.ChunkSize)
	}
	if o.InterChunkDelay < 0 {
		return fmt.Errorf("%w: got %s", ErrInvalidDelay, o.InterChunkDelay)
	}
	return nil
}

// State is the lifecycle of a Runner.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Runner executes an Operation over items in chunks.
// It holds no per-run data once Run returns.
type Runner[T, R any] struct {
	opts  Options
	state atomic.Int32
}

// New creates a runner after validating opts.
func New[T, R any](opts Options) (*Runner[T, R], error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Runner[T, R]{opts: opts}, nil
}

// Run is a one-shot helper around New and Runner.Run.
func Run[T, R any](ctx context.Context, items []T, op Operation[T, R], opts Options) (*Summary[T, R], error) {
	r, err := New[T, R](opts)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx, items, op)
}

// Options returns the runner configuration.
func (r *Runner[T, R]) Options() Options {
	return r.opts
}

// State reports where the runner is in its lifecycle.
func (r *Runner[T, R]) State() State {
	return State(r.state.Load())
}

// Run invokes op exactly once per attempted item and returns the aggregate.
// The returned error is non-nil only for precondition violations.
func (r *Runner[T, R]) Run(ctx context.Context, items []T, op Operation[T, R]) (*Summary[T, R], error) {
	if op == nil {
		return nil, ErrNilOperation
	}

	r.state.Store(int32(StateRunning))
	defer r.state.Store(int32(StateCompleted))

	log := zerolog.Ctx(ctx)
	start := time.Now()

	outcomes := make([]Outcome[T, R], len(items))
	bounds := Chunks(len(items), r.opts.ChunkSize)

	var (
		halted    error
		next      int
		succeeded int
		failed    int
	)

	for ci, b := range bounds {
		if err := ctx.Err(); err != nil {
			halted = err
			break
		}

		log.Debug().
			Str("label", r.opts.Label).
			Int("chunk", ci+1).
			Int("chunks", len(bounds)).
			Int("size", b[1]-b[0]).
			Msg("batch chunk started")

		abort := runChunk(ctx, items, outcomes, b[0], b[1], op)
		next = b[1]

		for i := b[0]; i < b[1]; i++ {
			if outcomes[i].Err == nil {
				succeeded++
			} else {
				failed++
			}
		}

		r.emit(ctx, Progress{
			Label:       r.opts.Label,
			Processed:   next,
			Total:       len(items),
			Succeeded:   succeeded,
			Failed:      failed,
			ChunkIndex:  ci,
			TotalChunks: len(bounds),
			Elapsed:     time.Since(start),
		})

		if abort != nil {
			halted = abort
			break
		}

		if ci < len(bounds)-1 && r.opts.InterChunkDelay > 0 {
			if err := sleep(ctx, r.opts.InterChunkDelay); err != nil {
				halted = err
				break
			}
		}
	}

	if halted != nil {
		reason := fmt.Errorf("%w: %w", ErrNotAttempted, halted)
		for i := next; i < len(items); i++ {
			outcomes[i] = Outcome[T, R]{Index: i, Item: items[i], Err: reason}
		}
		log.Warn().
			Err(halted).
			Str("label", r.opts.Label).
			Int("skipped", len(items)-next).
			Msg("batch halted")
	}

	summary := summarize(r.opts.Label, outcomes, halted, time.Since(start))

	log.Debug().
		Str("label", r.opts.Label).
		Int("succeeded", summary.SuccessCount).
		Int("failed", summary.FailureCount).
		Dur("duration", summary.Duration).
		Msg("batch finished")

	return summary, nil
}

// runChunk settles every operation in items[lo:hi] and reports the first
// aborting error in index order, if any.
func runChunk[T, R any](ctx context.Context, items []T, outcomes []Outcome[T, R], lo, hi int, op Operation[T, R]) error {
	var g errgroup.Group
	for i := lo; i < hi; i++ {
		g.Go(func() error {
			outcomes[i] = invoke(ctx, i, items[i], op)
			return nil
		})
	}
	_ = g.Wait()

	for i := lo; i < hi; i++ {
		if IsAbort(outcomes[i].Err) {
			return outcomes[i].Err
		}
	}
	return nil
}

func invoke[T, R any](ctx context.Context, idx int, item T, op Operation[T, R]) (out Outcome[T, R]) {
	out = Outcome[T, R]{Index: idx, Item: item}
	defer func() {
		if p := recover(); p != nil {
			out.Err = fmt.Errorf("%w: %v", ErrOperationPanic, p)
		}
	}()
	out.Output, out.Err = op(ctx, item)
	return out
}

// emit delivers a snapshot; a panicking callback is logged and ignored.
func (r *Runner[T, R]) emit(ctx context.Context, p Progress) {
	if r.opts.OnProgress == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			zerolog.Ctx(ctx).Warn().
				Interface("panic", rec).
				Str("label", r.opts.Label).
				Msg("progress callback panicked")
		}
	}()
	r.opts.OnProgress(p)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Chunks returns the [start, end) boundaries of each chunk for n items.
func Chunks(n, size int) [][2]int {
	if n <= 0 || size < 1 {
		return nil
	}

	total := n / size
	if n%size > 0 {
		total++
	}

	bounds := make([][2]int, total)
	for i := range total {
		start := i * size
		end := min(start+size, n)
		bounds[i] = [2]int{start, end}
	}
	return bounds
}

type abortError struct {
	err error
}

func (e *abortError) Error() string { return e.err.Error() }
func (e *abortError) Unwrap() error { return e.err }

// Abort marks err as fatal to the whole run: the current chunk still settles,
// but no further chunk is started. Abort(nil) returns nil.
func Abort(err error) error {
	if err == nil {
		return nil
	}
	return &abortError{err: err}
}

// IsAbort reports whether err was produced by Abort.
func IsAbort(err error) bool {
	var a *abortError
	return errors.As(err, &a)
}
