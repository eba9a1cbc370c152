package drill_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/freightdash/internal/drill"
)

func TestFilterContext(t *testing.T) {
	from := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	f := drill.FilterContext{DateFrom: &from, Search: "acme"}.WithExtra("location", "Mumbai")

	c := f.Clone()
	assert.True(t, f.Equal(c))
	c.Extra["location"] = "Pune"
	*c.DateFrom = from.AddDate(0, 1, 0)
	assert.Equal(t, "Mumbai", f.Extra["location"], "clone is deep")
	assert.Equal(t, from, *f.DateFrom)
	assert.False(t, f.Equal(c))

	assert.Equal(t, map[string]string{
		"date_from": "2024-04-01",
		"search":    "acme",
		"location":  "Mumbai",
	}, f.Flatten())

	assert.Nil(t, f.WithExtra("location", "").Extra)
	assert.True(t, drill.FilterContext{}.IsZero())
	assert.False(t, f.IsZero())
	assert.True(t, drill.FilterContext{}.Equal(drill.FilterContext{Extra: map[string]string{}}))
}

func TestFilterContext_ParseAssignments(t *testing.T) {
	tests := []struct {
		name    string
		base    drill.FilterContext
		expr    string
		check   func(t *testing.T, f drill.FilterContext)
		wantErr bool
	}{
		{
			name: "typed and extra",
			expr: "from=2024-04-01 to=2024-06-30 period=2024-Q1 location=BOM",
			check: func(t *testing.T, f drill.FilterContext) {
				assert.Equal(t, "2024-04-01", f.DateFrom.Format(drill.DateLayout))
				assert.Equal(t, "2024-06-30", f.DateTo.Format(drill.DateLayout))
				assert.Equal(t, "2024-Q1", f.Period)
				assert.Equal(t, map[string]string{"location": "BOM"}, f.Extra)
			},
		},
		{
			name: "empty value clears",
			base: drill.FilterContext{Period: "2024", Search: "acme"}.WithExtra("location", "BOM"),
			expr: "period= location=",
			check: func(t *testing.T, f drill.FilterContext) {
				assert.Equal(t, drill.FilterContext{Search: "acme"}, f)
			},
		},
		{
			name:  "empty expression keeps base",
			base:  drill.FilterContext{Search: "acme"},
			expr:  "   ",
			check: func(t *testing.T, f drill.FilterContext) { assert.Equal(t, "acme", f.Search) },
		},
		{name: "missing equals", expr: "period", wantErr: true},
		{name: "bad date", expr: "from=01/04/2024", wantErr: true},
		{name: "inverted range", expr: "from=2024-06-01 to=2024-05-01", wantErr: true},
		{name: "empty name", expr: "=x", wantErr: true},
		{name: "page is reserved", expr: "page=3", wantErr: true},
		{name: "page_size is reserved", expr: "page_size=500", wantErr: true},
		{name: "sort is reserved", expr: "sort=overdue:desc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.base.ParseAssignments(tt.expr)
			if tt.wantErr {
				require.ErrorIs(t, err, drill.ErrInvalidFilter)
				assert.Equal(t, tt.base, got)
				return
			}
			require.NoError(t, err)
			tt.check(t, got)
		})
	}
}

func TestFencer(t *testing.T) {
	var f drill.Fencer
	assert.False(t, f.IsCurrent(0))

	a := f.Next()
	assert.True(t, f.IsCurrent(a))
	b := f.Next()
	assert.Greater(t, b, a)
	assert.False(t, f.IsCurrent(a))
	assert.True(t, f.IsCurrent(b))
	assert.Equal(t, b, f.Current())
}
