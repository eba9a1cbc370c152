package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr error
	}{
		{name: "zero is unpaged", params: Params{}},
		{name: "first page", params: First(25)},
		{name: "negative page", params: Params{Page: -1}, wantErr: ErrInvalidPage},
		{name: "size without page", params: Params{PageSize: 10}, wantErr: ErrPageSizeWithoutPage},
		{name: "size too large", params: Params{Page: 1, PageSize: 501}, wantErr: ErrInvalidPageSize},
		{name: "size zero", params: Params{Page: 1}, wantErr: ErrInvalidPageSize},
		{name: "bad order", params: Params{Page: 1, PageSize: 5, SortOrder: "up"}, wantErr: ErrInvalidSortOrder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestParams_Window(t *testing.T) {
	p := Params{Page: 2, PageSize: 10}
	start, end := p.Window(25)
	assert.Equal(t, 10, start)
	assert.Equal(t, 20, end)

	start, end = p.WithPage(3).Window(25)
	assert.Equal(t, 20, start)
	assert.Equal(t, 25, end)

	start, end = p.WithPage(9).Window(25)
	assert.Equal(t, 20, start, "past the end clamps to the last page")
	assert.Equal(t, 25, end)

	start, end = Params{}.Window(7)
	assert.Equal(t, 0, start)
	assert.Equal(t, 7, end)

	assert.Equal(t, 1, p.WithPage(-4).Page)
	assert.Equal(t, DefaultPageSize, First(0).PageSize)
}

func TestParseSort(t *testing.T) {
	field, order, err := ParseSort("amount:DESC")
	require.NoError(t, err)
	assert.Equal(t, "amount", field)
	assert.Equal(t, SortOrderDesc, order)

	field, order, err = ParseSort("customer")
	require.NoError(t, err)
	assert.Equal(t, "customer", field)
	assert.Equal(t, SortOrderAsc, order)

	_, _, err = ParseSort("a:b:c")
	assert.ErrorIs(t, err, ErrInvalidSortFormat)

	_, _, err = ParseSort(":desc")
	assert.ErrorIs(t, err, ErrEmptySortField)

	_, _, err = ParseSort("amount:sideways")
	assert.ErrorIs(t, err, ErrInvalidSortOrder)
}

func TestNewMeta(t *testing.T) {
	meta := NewMeta(Params{Page: 2, PageSize: 10}, 25)
	assert.Equal(t, Meta{
		CurrentPage: 2, PageSize: 10, TotalPages: 3, TotalItems: 25,
		HasPrevious: true, HasNext: true,
	}, meta)

	meta = NewMeta(Params{}, 4)
	assert.Equal(t, 1, meta.TotalPages)
	assert.False(t, meta.HasNext)

	meta = NewMeta(Params{Page: 1, PageSize: 10}, 0)
	assert.Equal(t, 0, meta.TotalPages)
	assert.False(t, meta.HasPrevious)
}
