package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	cases := []struct {
		name                 string
		page, perPage, total int
		want                 Pagination
	}{
		{"defaults", 0, 0, 45, Pagination{Page: 1, PerPage: 20, Total: 45, TotalPages: 3}},
		{"exact", 2, 10, 20, Pagination{Page: 2, PerPage: 10, Total: 20, TotalPages: 2}},
		{"clamped", 1, 1000, 150, Pagination{Page: 1, PerPage: MaxPerPage, Total: 150, TotalPages: 2}},
		{"empty", 1, 10, 0, Pagination{Page: 1, PerPage: 10}},
		{"negative total", 3, 10, -5, Pagination{Page: 3, PerPage: 10}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NewPagination(tc.page, tc.perPage, tc.total))
		})
	}
}

func TestPaginationOffsetAndNext(t *testing.T) {
	p := NewPagination(3, 10, 45)
	assert.Equal(t, 20, p.Offset())
	assert.True(t, p.HasNext())

	last := NewPagination(5, 10, 45)
	assert.Equal(t, 40, last.Offset())
	assert.False(t, last.HasNext())
}
