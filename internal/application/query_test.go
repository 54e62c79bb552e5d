package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devbush/stockdesk/internal/domain"
)

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	tests := []struct {
		name      string
		page      int
		size      int
		wantItems []int
		wantPage  int
		wantPages int
	}{
		{"first page", 1, 3, []int{1, 2, 3}, 1, 3},
		{"last partial page", 3, 3, []int{7}, 3, 3},
		{"page past end clamps", 9, 3, []int{7}, 3, 3},
		{"page zero clamps", 0, 3, []int{1, 2, 3}, 1, 3},
		{"default size", 1, 0, items, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(items, tt.page, tt.size)
			assert.Equal(t, tt.wantItems, p.Items)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantPages, p.TotalPages)
			assert.Equal(t, 7, p.Total)
		})
	}

	empty := Paginate([]int{}, 4, 10)
	assert.Empty(t, empty.Items)
	assert.Equal(t, 1, empty.Page)
	assert.Equal(t, 0, empty.TotalPages)
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		expr    string
		want    SortSpec
		wantErr bool
	}{
		{"", SortSpec{}, false},
		{"name", SortSpec{Field: "name"}, false},
		{"name:asc", SortSpec{Field: "name"}, false},
		{"price:DESC", SortSpec{Field: "price", Desc: true}, false},
		{" price : desc ", SortSpec{Field: "price", Desc: true}, false},
		{"price:up", SortSpec{}, true},
		{":desc", SortSpec{}, true},
		{"a:b:c", SortSpec{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ParseSort(tt.expr)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSorter(t *testing.T) {
	type row struct {
		name string
		n    int
	}
	s := NewSorter(map[string]func(a, b row) int{
		"n":    func(a, b row) int { return a.n - b.n },
		"name": func(a, b row) int { return compareFold(a.name, b.name) },
	})
	rows := []row{{"b", 2}, {"A", 1}, {"c", 2}}

	require.NoError(t, s.Sort(rows, SortSpec{Field: "n", Desc: true}))
	assert.Equal(t, []row{{"b", 2}, {"c", 2}, {"A", 1}}, rows, "desc keeps ties stable")

	require.NoError(t, s.Sort(rows, SortSpec{Field: "name"}))
	assert.Equal(t, "A", rows[0].name)

	err := s.Sort(rows, SortSpec{Field: "weight"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "valid: n, name")
}

func TestFilter(t *testing.T) {
	even := func(n int) bool { return n%2 == 0 }
	big := func(n int) bool { return n > 2 }

	assert.Equal(t, []int{4, 6}, Filter([]int{1, 2, 3, 4, 5, 6}, even, big))
	assert.Equal(t, []int{1, 2}, Filter([]int{1, 2}))
	assert.Empty(t, Filter([]int{1, 3}, even))
}
