package application

import (
	"cmp"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/devbush/stockdesk/internal/domain"
)

// DefaultPageSize is used when a query does not set one.
const DefaultPageSize = 20

// Sort orders.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Page is one page of an in-memory result set.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Paginate slices items into a 1-based page. Out-of-range page numbers are
// clamped to the nearest valid page.
func Paginate[T any](items []T, page, size int) Page[T] {
	if size < 1 {
		size = DefaultPageSize
	}
	total := len(items)
	pages := (total + size - 1) / size

	page = max(min(page, pages), 1)

	start := min((page-1)*size, total)
	end := min(start+size, total)

	return Page[T]{
		Items:      items[start:end],
		Page:       page,
		PageSize:   size,
		Total:      total,
		TotalPages: pages,
	}
}

// Filter returns the items matching every predicate, keeping their order.
func Filter[T any](items []T, preds ...func(T) bool) []T {
	out := make([]T, 0, len(items))
next:
	for _, it := range items {
		for _, p := range preds {
			if !p(it) {
				continue next
			}
		}
		out = append(out, it)
	}
	return out
}

// SortSpec is a parsed "field[:asc|desc]" expression.
type SortSpec struct {
	Field string
	Desc  bool
}

// ParseSort parses expr. An empty expression yields the zero spec.
func ParseSort(expr string) (SortSpec, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return SortSpec{}, nil
	}

	field, order, found := strings.Cut(expr, ":")
	field = strings.TrimSpace(field)
	if field == "" || strings.Contains(order, ":") {
		return SortSpec{}, fmt.Errorf("%w: sort %q", domain.ErrInvalidInput, expr)
	}
	if !found {
		return SortSpec{Field: field}, nil
	}

	switch strings.ToLower(strings.TrimSpace(order)) {
	case SortAsc:
		return SortSpec{Field: field}, nil
	case SortDesc:
		return SortSpec{Field: field, Desc: true}, nil
	}
	return SortSpec{}, fmt.Errorf("%w: sort order %q (must be asc or desc)", domain.ErrInvalidInput, order)
}

// Sorter sorts a slice by one of a fixed set of named fields.
type Sorter[T any] struct {
	fields map[string]func(a, b T) int
}

// NewSorter maps field names to comparison functions.
func NewSorter[T any](fields map[string]func(a, b T) int) *Sorter[T] {
	return &Sorter[T]{fields: fields}
}

// Fields returns the valid field names, sorted.
func (s *Sorter[T]) Fields() []string {
	names := make([]string, 0, len(s.fields))
	for name := range s.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sort orders items in place, stably. A zero spec leaves them unchanged.
func (s *Sorter[T]) Sort(items []T, spec SortSpec) error {
	if spec.Field == "" {
		return nil
	}
	compare, ok := s.fields[spec.Field]
	if !ok {
		return fmt.Errorf("%w: cannot sort by %q (valid: %s)",
			domain.ErrInvalidInput, spec.Field, strings.Join(s.Fields(), ", "))
	}
	slices.SortStableFunc(items, func(a, b T) int {
		if spec.Desc {
			return compare(b, a)
		}
		return compare(a, b)
	})
	return nil
}

func containsFold(needle string, haystack ...string) bool {
	if needle == "" {
		return true
	}
	needle = strings.ToLower(needle)
	for _, h := range haystack {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}

func compareFold(a, b string) int {
	return cmp.Compare(strings.ToLower(a), strings.ToLower(b))
}

func compareTime(a, b time.Time) int {
	return a.Compare(b)
}

// DateRange bounds a query by time. Zero ends are open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t is within [From, To].
func (r DateRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}
