package gateway_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/freightdash/internal/drill"
	"github.com/rshade/freightdash/internal/gateway"
	"github.com/rshade/freightdash/internal/kpi"
	"github.com/rshade/freightdash/internal/pagination"
)

func newDemo(t *testing.T, opts ...gateway.FixtureOption) *gateway.FixtureGateway {
	t.Helper()
	reg := kpi.NewRegistry()
	g, err := gateway.NewDemoGateway(reg, kpi.NewCatalog(reg), opts...)
	require.NoError(t, err)
	return g
}

func rowKeys(rows []drill.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Key()
	}
	return out
}

func TestFixtureGateway_Levels(t *testing.T) {
	ctx := context.Background()
	g := newDemo(t)

	tests := []struct {
		name  string
		query drill.Query
		want  []string
	}{
		{
			name:  "root sorted by headline",
			query: drill.Query{ModuleID: kpi.ModuleOutstanding, View: drill.ViewSummary},
			want:  []string{"ACME", "GLOBEX"},
		},
		{
			name: "locations of ACME",
			query: drill.Query{
				ModuleID: kpi.ModuleOutstanding, View: drill.ViewSummary,
				Level: 1, Path: drill.Path{"ACME"},
			},
			want: []string{"BOM", "MAA"},
		},
		{
			name: "detail view maps level 1 to salesperson",
			query: drill.Query{
				ModuleID: kpi.ModuleOutstanding, View: drill.ViewDetail,
				Level: 1, Path: drill.Path{"ACME"},
			},
			want: []string{"SP-001", "SP-002", "SP-003"},
		},
		{
			name: "extra filter narrows by dimension",
			query: drill.Query{
				ModuleID: kpi.ModuleOutstanding, View: drill.ViewDetail,
				Level: 1, Path: drill.Path{"ACME"},
				Filters: drill.FilterContext{Extra: map[string]string{"location": "MAA"}},
			},
			want: []string{"SP-003"},
		},
		{
			name: "search matches any entity name",
			query: drill.Query{
				ModuleID: kpi.ModuleOutstanding, View: drill.ViewSummary,
				Filters: drill.FilterContext{Search: "desert"},
			},
			want: []string{"GLOBEX"},
		},
		{
			name: "period prefix",
			query: drill.Query{
				ModuleID: kpi.ModuleBudget, View: drill.ViewSummary,
				Level: 2, Path: drill.Path{"ACME", "SP-001"},
				Filters: drill.FilterContext{Period: "2024-05"},
			},
			want: []string{"2024-05"},
		},
		{
			name: "unknown key yields empty level",
			query: drill.Query{
				ModuleID: kpi.ModuleOutstanding, View: drill.ViewSummary,
				Level: 1, Path: drill.Path{"INITECH"},
			},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := g.FetchLevel(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rowKeys(res.Rows))
			assert.Equal(t, len(tt.want), res.Total)
		})
	}
}

func TestFixtureGateway_RowShapes(t *testing.T) {
	ctx := context.Background()
	g := newDemo(t)

	res, err := g.FetchLevel(ctx, drill.Query{
		ModuleID: kpi.ModuleOutstanding, View: drill.ViewSummary,
		Level: 1, Path: drill.Path{"ACME"},
	})
	require.NoError(t, err)
	bom, ok := res.Rows[0].(kpi.OutstandingLocation)
	require.True(t, ok, "got %T", res.Rows[0])
	assert.Equal(t, "Mumbai", bom.Label())
	assert.True(t, decimal.RequireFromString("263001.25").Equal(bom.Outstanding))
	assert.Equal(t, 6, bom.Invoices)
	assert.True(t, decimal.RequireFromString("306001.25").Equal(res.Totals[kpi.MeasureOutstanding]))

	res, err = g.FetchLevel(ctx, drill.Query{
		ModuleID: kpi.ModuleCallEntry, View: drill.ViewSummary,
		Level: 2, Path: drill.Path{"SP-001", "C-100"},
	})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	call, ok := res.Rows[0].(kpi.CallRecord)
	require.True(t, ok, "got %T", res.Rows[0])
	assert.Equal(t, "CE-0001", call.Key())
	assert.Equal(t, "Rate enquiry for Q2", call.Label())
	assert.Equal(t, "2024-04-02", call.Date)
}

func TestFixtureGateway_DateRange(t *testing.T) {
	g := newDemo(t)
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	res, err := g.FetchLevel(context.Background(), drill.Query{
		ModuleID: kpi.ModuleOutstanding, View: drill.ViewSummary,
		Filters: drill.FilterContext{DateFrom: &from},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"GLOBEX", "ACME"}, rowKeys(res.Rows))
}

func TestFixtureGateway_Paging(t *testing.T) {
	g := newDemo(t)
	q := drill.Query{
		ModuleID: kpi.ModuleOutstanding, View: drill.ViewDetail,
		Level: 1, Path: drill.Path{"ACME"},
		Page: pagination.Params{Page: 2, PageSize: 2, SortField: "code", SortOrder: "asc"},
	}

	res, err := g.FetchLevel(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []string{"SP-003"}, rowKeys(res.Rows))
	assert.Equal(t, 3, res.Total)

	q.Page = pagination.Params{Page: 1, PageSize: 10, SortField: kpi.MeasureOverdue, SortOrder: "desc"}
	res, err = g.FetchLevel(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []string{"SP-003", "SP-001", "SP-002"}, rowKeys(res.Rows))
}

func TestFixtureGateway_Errors(t *testing.T) {
	g := newDemo(t)

	_, err := g.FetchLevel(context.Background(), drill.Query{
		ModuleID: kpi.ModuleOutstanding, View: drill.ViewSummary, Level: 3,
		Path: drill.Path{"A", "B", "C"},
	})
	var ge *drill.GatewayError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, http.StatusBadRequest, ge.Status)

	_, err = g.FetchLevel(context.Background(), drill.Query{ModuleID: "freight"})
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, http.StatusNotFound, ge.Status)
}

func TestFixtureGateway_LatencyHonorsContext(t *testing.T) {
	g := newDemo(t, gateway.WithLatency(time.Hour))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := g.FetchLevel(ctx, drill.Query{ModuleID: kpi.ModuleOutstanding, View: drill.ViewSummary})
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestLoadFixtureGateway(t *testing.T) {
	reg := kpi.NewRegistry()
	cat := kpi.NewCatalog(reg)
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`
modules:
  churn:
    - dims: {company: X, salesperson: S, customer: C}
      date: "2024-01-01"
      measures: {lost: "1", lost_revenue: "10"}
`), 0o600))
	g, err := gateway.LoadFixtureGateway(good, reg, cat)
	require.NoError(t, err)
	res, err := g.FetchLevel(context.Background(), drill.Query{ModuleID: kpi.ModuleChurn, View: drill.ViewSummary})
	require.NoError(t, err)
	assert.Equal(t, []string{"X"}, rowKeys(res.Rows))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(`
modules:
  churn:
    - dims: {company: X}
      measures: {lost: "many"}
`), 0o600))
	_, err = gateway.LoadFixtureGateway(bad, reg, cat)
	require.Error(t, err)

	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("modules:\n  freight: []\n"), 0o600))
	_, err = gateway.LoadFixtureGateway(unknown, reg, cat)
	require.ErrorIs(t, err, drill.ErrUnknownModule)

	_, err = gateway.LoadFixtureGateway(filepath.Join(dir, "missing.yaml"), reg, cat)
	require.Error(t, err)
}
