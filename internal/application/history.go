package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/devbush/stockdesk/internal/domain"
	"github.com/devbush/stockdesk/internal/ports"
)

// HistoryQuery filters the activity log.
type HistoryQuery struct {
	Entity   domain.Entity
	Action   domain.Action
	Actor    string
	Since    time.Time
	Page     int
	PageSize int
}

// HistoryService reads the activity log.
type HistoryService struct {
	store ports.ActivityStore
}

// NewHistoryService creates a new history service
func NewHistoryService(store ports.ActivityStore) *HistoryService {
	return &HistoryService{store: store}
}

// List returns one page of activities, newest first.
func (s *HistoryService) List(ctx context.Context, q HistoryQuery) (*Page[*domain.Activity], error) {
	all, err := s.store.ListActivities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	matched := Filter(all,
		func(a *domain.Activity) bool { return q.Entity == "" || a.Entity == q.Entity },
		func(a *domain.Activity) bool { return q.Action == "" || a.Action == q.Action },
		func(a *domain.Activity) bool { return q.Actor == "" || strings.EqualFold(a.Actor, q.Actor) },
		func(a *domain.Activity) bool { return q.Since.IsZero() || !a.At.Before(q.Since) },
	)
	sortNewestFirst(matched)
	page := Paginate(matched, q.Page, q.PageSize)
	return &page, nil
}

func sortNewestFirst(items []*domain.Activity) {
	_ = NewSorter(map[string]func(a, b *domain.Activity) int{
		"at": func(a, b *domain.Activity) int { return compareTime(a.At, b.At) },
	}).Sort(items, SortSpec{Field: "at", Desc: true})
}
