package batch

import (
	"errors"
	"time"
)

// Outcome is the result of one item. It succeeded when Err is nil.
type Outcome[T, R any] struct {
	Index  int
	Item   T
	Output R
	Err    error
}

// OK reports whether the operation succeeded.
func (o Outcome[T, R]) OK() bool {
	return o.Err == nil
}

// Failure describes a failed item.
type Failure[T any] struct {
	// Index is the item's position in the input.
	Index int
	Item  T
	// Reason is the error text shown to users.
	Reason string
	Err    error
}

// NotAttempted reports whether the item was skipped because the run halted.
func (f Failure[T]) NotAttempted() bool {
	return errors.Is(f.Err, ErrNotAttempted)
}

// Summary is the terminal aggregate of a run.
type Summary[T, R any] struct {
	Label        string
	Total        int
	SuccessCount int
	FailureCount int

	// Successes and Failures are both in input order.
	Successes []Outcome[T, R]
	Failures  []Failure[T]

	// Halted is the reason the run stopped early, nil when every item was attempted.
	Halted error

	Duration time.Duration
}

func summarize[T, R any](label string, outcomes []Outcome[T, R], halted error, elapsed time.Duration) *Summary[T, R] {
	s := &Summary[T, R]{
		Label:     label,
		Total:     len(outcomes),
		Successes: make([]Outcome[T, R], 0, len(outcomes)),
		Failures:  make([]Failure[T], 0),
		Halted:    halted,
		Duration:  elapsed,
	}

	for _, o := range outcomes {
		if o.Err == nil {
			s.Successes = append(s.Successes, o)
			continue
		}
		s.Failures = append(s.Failures, Failure[T]{
			Index:  o.Index,
			Item:   o.Item,
			Reason: o.Err.Error(),
			Err:    o.Err,
		})
	}

	s.SuccessCount = len(s.Successes)
	s.FailureCount = len(s.Failures)
	return s
}

// OK reports whether every item succeeded.
func (s *Summary[T, R]) OK() bool {
	return s.FailureCount == 0
}

// FirstFailures returns at most n failures, for display.
func (s *Summary[T, R]) FirstFailures(n int) []Failure[T] {
	if n < 0 {
		n = 0
	}
	if n > len(s.Failures) {
		n = len(s.Failures)
	}
	return s.Failures[:n]
}

// FailedItems returns the items that failed, ready to be run again.
func (s *Summary[T, R]) FailedItems() []T {
	items := make([]T, 0, len(s.Failures))
	for _, f := range s.Failures {
		items = append(items, f.Item)
	}
	return items
}

// Outputs returns the outputs of successful items.
func (s *Summary[T, R]) Outputs() []R {
	out := make([]R, 0, len(s.Successes))
	for _, o := range s.Successes {
		out = append(out, o.Output)
	}
	return out
}

// NotAttemptedCount counts failures caused by an early halt.
func (s *Summary[T, R]) NotAttemptedCount() int {
	n := 0
	for _, f := range s.Failures {
		if f.NotAttempted() {
			n++
		}
	}
	return n
}
