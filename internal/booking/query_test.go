package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSort(t *testing.T) {
	fields, err := ParseSort("-created_at, status", ReservationSortFields)
	require.NoError(t, err)
	assert.Equal(t, []SortField{{Field: "created_at", Desc: true}, {Field: "status"}}, fields)

	fields, err = ParseSort("  ", ReservationSortFields)
	require.NoError(t, err)
	assert.Nil(t, fields)
}

func TestParseSort_Rejects(t *testing.T) {
	for _, expr := range []string{"password", "-", "created_at,,status", "status,-status", "title"} {
		t.Run(expr, func(t *testing.T) {
			_, err := ParseSort(expr, ReservationSortFields)
			assert.ErrorIs(t, err, ErrBadRequest)
		})
	}
}

func TestPageRequest_Normalize(t *testing.T) {
	p, err := PageRequest{}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, PageRequest{Page: 1, ItemsPerPage: 10}, p)
	assert.Equal(t, 0, p.Offset())

	p, err = PageRequest{Page: 3, ItemsPerPage: 20}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, 40, p.Offset())

	_, err = PageRequest{Page: -1}.Normalize()
	assert.ErrorIs(t, err, ErrBadRequest)
	_, err = PageRequest{ItemsPerPage: MaxItemsPerPage + 1}.Normalize()
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestNewPage_HasMore(t *testing.T) {
	req := PageRequest{Page: 1, ItemsPerPage: 2}
	assert.True(t, newPage([]int{1, 2}, 3, req).HasMore)
	assert.False(t, newPage([]int{1, 2}, 2, req).HasMore)
	assert.Equal(t, []int{}, newPage[int](nil, 0, req).Data)
}
