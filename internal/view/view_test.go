package view_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/freightdash/internal/drill"
	"github.com/rshade/freightdash/internal/gateway"
	"github.com/rshade/freightdash/internal/kpi"
	"github.com/rshade/freightdash/internal/pagination"
	"github.com/rshade/freightdash/internal/view"
)

func newSync(t *testing.T, module string) *view.Synchronizer {
	t.Helper()
	reg := kpi.NewRegistry()
	gw, err := gateway.NewDemoGateway(reg, kpi.NewCatalog(reg))
	require.NoError(t, err)
	m, err := reg.Module(module)
	require.NoError(t, err)

	summary := drill.NewController(module, drill.ViewSummary, m.SchemaFor(drill.ViewSummary), gw)
	detail := drill.NewController(module, drill.ViewDetail, m.SchemaFor(drill.ViewDetail), gw,
		drill.WithPageSize(pagination.DefaultPageSize))
	require.NoError(t, summary.Run(context.Background(), summary.Load()))
	return view.NewSynchronizer(summary, detail)
}

func drillTo(t *testing.T, c *drill.Controller, keys ...string) {
	t.Helper()
	for _, k := range keys {
		req, err := c.DrillInto(k)
		require.NoError(t, err)
		require.NoError(t, c.Run(context.Background(), req))
	}
}

func TestSynchronizer_Scenario2(t *testing.T) {
	ctx := context.Background()
	s := newSync(t, kpi.ModuleOutstanding)
	summary := s.Summary()

	drillTo(t, summary, "ACME")
	require.NoError(t, summary.Run(ctx, summary.ApplyFilters(drill.FilterContext{Search: "foo"})))
	before := summary.State()

	req := s.Toggle()
	require.NotNil(t, req)
	assert.Equal(t, view.ModeDetail, s.Mode())
	assert.Equal(t, drill.Path{"ACME"}, req.Query.Path)
	assert.Equal(t, drill.ViewDetail, req.Query.View)
	assert.Equal(t, "foo", req.Query.Filters.Search)
	require.NoError(t, s.Detail().Run(ctx, req))

	vs := s.ViewState()
	assert.Equal(t, view.ModeDetail, vs.Mode)
	assert.Equal(t, 1, vs.Drill.Level())
	assert.Equal(t, "foo", vs.Drill.Filters.Search)
	assert.Equal(t, 1, vs.Pagination.Page)

	assert.Nil(t, s.Toggle(), "no detail filters applied, nothing to fetch")
	assert.Equal(t, view.ModeSummary, s.Mode())
	assert.Equal(t, before, summary.State())
}

func TestSynchronizer_StructuralKeysBecomeFilters(t *testing.T) {
	ctx := context.Background()
	s := newSync(t, kpi.ModuleOutstanding)
	drillTo(t, s.Summary(), "ACME", "BOM")

	req := s.Toggle()
	require.NotNil(t, req)
	assert.Equal(t, drill.Path{"ACME"}, req.Query.Path, "location has no detail level")
	assert.Equal(t, map[string]string{kpi.KindLocation: "BOM"}, req.Query.Filters.Extra)
	require.NoError(t, s.Detail().Run(ctx, req))
	assert.Equal(t, []string{"SP-001", "SP-002"}, rowKeys(s.Detail().State().Rows))

	f := s.Detail().State().Filters
	f.Period = "2024-05"
	require.NoError(t, s.Detail().Run(ctx, s.ApplyDetailFilters(f)))

	req = s.Toggle()
	require.NotNil(t, req, "detail filters flow back to the summary")
	assert.Equal(t, drill.Path{"ACME", "BOM"}, req.Query.Path)
	assert.Empty(t, req.Query.Filters.Extra)
	assert.Equal(t, "2024-05", req.Query.Filters.Period)
}

func TestSynchronizer_PathKeysFillDetailLevels(t *testing.T) {
	s := newSync(t, kpi.ModuleBudget)
	drillTo(t, s.Summary(), "ACME", "SP-001")

	req := s.Toggle()
	require.NotNil(t, req)
	assert.Equal(t, drill.Path{"SP-001"}, req.Query.Path)
	assert.Equal(t, map[string]string{kpi.KindCompany: "ACME"}, req.Query.Filters.Extra)
}

func TestSynchronizer_RestoreDetailThenToggleLoadsSummary(t *testing.T) {
	reg := kpi.NewRegistry()
	gw, err := gateway.NewDemoGateway(reg, kpi.NewCatalog(reg))
	require.NoError(t, err)
	m, err := reg.Module(kpi.ModuleChurn)
	require.NoError(t, err)
	s := view.NewSynchronizer(
		drill.NewController(m.ID, drill.ViewSummary, m.Summary, gw),
		drill.NewController(m.ID, drill.ViewDetail, m.SchemaFor(drill.ViewDetail), gw),
	)

	req, res := s.RestoreView(view.ModeDetail,
		[]drill.Step{{Kind: kpi.KindCompany, Key: "GLOBEX"}}, drill.FilterContext{}, pagination.Params{})
	require.NoError(t, res.Err)
	assert.Equal(t, drill.ViewDetail, req.Query.View)
	assert.Equal(t, view.ModeDetail, s.Mode())

	req = s.Toggle()
	require.NotNil(t, req, "summary was never loaded")
	assert.Equal(t, drill.Path{"GLOBEX"}, req.Query.Path)
}

func TestMode(t *testing.T) {
	assert.Equal(t, view.ModeDetail, view.ParseMode("detail"))
	assert.Equal(t, view.ModeSummary, view.ParseMode("anything"))
	assert.Equal(t, view.ModeDetail, view.ModeSummary.Other())
	assert.Equal(t, view.ModeSummary, view.ModeDetail.Other())
}

func rowKeys(rows []drill.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Key()
	}
	return out
}

func TestSet(t *testing.T) {
	reg := kpi.NewRegistry()
	gw, err := gateway.NewDemoGateway(reg, kpi.NewCatalog(reg))
	require.NoError(t, err)

	set := view.NewSet(reg, gw, 10)
	assert.Equal(t, []string{
		kpi.ModuleOutstanding, kpi.ModuleBudget, kpi.ModuleEnquiry, kpi.ModuleCallEntry, kpi.ModuleChurn,
	}, set.IDs())
	assert.Len(t, set.Controllers(), 10)

	sync, ok := set.Get(kpi.ModuleBudget)
	require.True(t, ok)
	detail, ok := set.Controller(kpi.ModuleBudget, drill.ViewDetail)
	require.True(t, ok)
	assert.Same(t, sync.Detail(), detail)
	assert.Equal(t, 10, detail.State().Page.PageSize)
	assert.False(t, sync.Summary().State().Page.Enabled())

	_, ok = set.Controller("payroll", drill.ViewSummary)
	assert.False(t, ok)
}
