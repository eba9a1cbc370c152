package tui

import (
	"context"
	"net/http"
	"slices"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/freightdash/internal/drill"
	"github.com/rshade/freightdash/internal/gateway"
	"github.com/rshade/freightdash/internal/kpi"
	"github.com/rshade/freightdash/internal/nav"
	"github.com/rshade/freightdash/internal/view"
)

type testEnv struct {
	reg     *drill.Registry
	catalog *kpi.Catalog
	views   *view.Set
	ch      *nav.MemoryChannel
	bridge  *nav.Bridge
}

func newTestEnv(t *testing.T, wrap func(drill.Gateway) drill.Gateway) testEnv {
	t.Helper()
	reg := kpi.NewRegistry()
	cat := kpi.NewCatalog(reg)
	demo, err := gateway.NewDemoGateway(reg, cat)
	require.NoError(t, err)

	var gw drill.Gateway = demo
	if wrap != nil {
		gw = wrap(demo)
	}
	ch := nav.NewMemoryChannel(RouteDashboard)
	return testEnv{
		reg:     reg,
		catalog: cat,
		views:   view.NewSet(reg, gw, 2),
		ch:      ch,
		bridge:  nav.NewBridge(ch),
	}
}

func (e testEnv) config() DashboardConfig {
	return DashboardConfig{
		Registry:  e.reg,
		Views:     e.views,
		Catalog:   e.catalog,
		Formatter: kpi.NewFormatter("en", "INR"),
		Bridge:    e.bridge,
	}
}

func newTestDashboard(t *testing.T, env testEnv, cfg DashboardConfig) DashboardModel {
	t.Helper()
	m, err := NewDashboardModel(context.Background(), cfg)
	require.NoError(t, err)
	return drain(t, m, m.Init()).(DashboardModel)
}

// drain runs cmd and feeds fetch results back into m until no fetch is left.
// Spinner, blink and quit messages are dropped.
func drain(t *testing.T, m tea.Model, cmd tea.Cmd) tea.Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			m = drain(t, m, c)
		}
	case levelLoadedMsg:
		next, c := m.Update(msg)
		m = drain(t, next, c)
	}
	return m
}

func press(t *testing.T, m tea.Model, k string) tea.Model {
	t.Helper()
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		msg = tea.KeyMsg{Type: tea.KeyBackspace}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "pgdown":
		msg = tea.KeyMsg{Type: tea.KeyPgDown}
	case "pgup":
		msg = tea.KeyMsg{Type: tea.KeyPgUp}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, cmd := m.Update(msg)
	return drain(t, next, cmd)
}

func typeText(t *testing.T, m tea.Model, s string) tea.Model {
	t.Helper()
	for _, r := range s {
		// Cursor blink commands are not run.
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

// selectKey moves the table cursor to the row with key.
func selectKey(t *testing.T, m DashboardModel, key string) DashboardModel {
	t.Helper()
	rows := m.activeCtrl().State().Rows
	i := slices.IndexFunc(rows, func(r drill.Row) bool { return r.Key() == key })
	require.GreaterOrEqual(t, i, 0, "row %s not shown", key)
	m.table.SetCursor(i)
	return m
}

func rowKeys(m DashboardModel) []string {
	var out []string
	for _, r := range m.activeCtrl().State().Rows {
		out = append(out, r.Key())
	}
	return out
}

func TestNewDashboardModel(t *testing.T) {
	env := newTestEnv(t, nil)
	m := newTestDashboard(t, env, env.config())

	assert.Equal(t, kpi.ModuleOutstanding, m.ModuleID())
	assert.Equal(t, view.ModeSummary, m.Mode())
	st := m.activeCtrl().State()
	assert.Equal(t, drill.StatusReady, st.Status)
	assert.ElementsMatch(t, []string{"ACME", "GLOBEX"}, rowKeys(m))
	assert.Contains(t, m.View(), "Outstanding")
	assert.Contains(t, m.View(), "Acme Logistics")
}

func TestNewDashboardModel_Validation(t *testing.T) {
	env := newTestEnv(t, nil)

	cfg := env.config()
	cfg.Module = "payroll"
	_, err := NewDashboardModel(context.Background(), cfg)
	require.Error(t, err)

	cfg = env.config()
	cfg.Bridge = nil
	_, err = NewDashboardModel(context.Background(), cfg)
	require.Error(t, err)
}

func TestNewDashboardModel_StartsInDetail(t *testing.T) {
	env := newTestEnv(t, nil)
	cfg := env.config()
	cfg.Module = kpi.ModuleChurn
	cfg.Mode = view.ModeDetail
	m := newTestDashboard(t, env, cfg)

	assert.Equal(t, kpi.ModuleChurn, m.ModuleID())
	assert.Equal(t, view.ModeDetail, m.Mode())
	assert.Equal(t, drill.StatusReady, m.activeCtrl().State().Status)
	assert.Contains(t, m.View(), "Lost Revenue")
}

func TestDashboard_DrillAndBack(t *testing.T) {
	env := newTestEnv(t, nil)
	m := newTestDashboard(t, env, env.config())

	m = selectKey(t, m, "ACME")
	m = press(t, m, "enter").(DashboardModel)
	st := m.activeCtrl().State()
	assert.Equal(t, drill.Path{"ACME"}, st.Path)
	assert.ElementsMatch(t, []string{"BOM", "MAA"}, rowKeys(m))
	assert.Contains(t, m.View(), "company:")

	m = selectKey(t, m, "BOM")
	m = press(t, m, "enter").(DashboardModel)
	assert.ElementsMatch(t, []string{"SP-001", "SP-002"}, rowKeys(m))

	// Deepest summary level: enter is refused without a fetch.
	seq := m.activeCtrl().State().RequestSeq
	m = press(t, m, "enter").(DashboardModel)
	assert.Equal(t, seq, m.activeCtrl().State().RequestSeq)
	assert.NotEmpty(t, m.hint)

	m = press(t, m, "backspace").(DashboardModel)
	assert.Equal(t, drill.Path{"ACME"}, m.activeCtrl().State().Path)
	m = press(t, m, "r").(DashboardModel)
	assert.Empty(t, m.activeCtrl().State().Path)
	assert.ElementsMatch(t, []string{"ACME", "GLOBEX"}, rowKeys(m))
}

func TestDashboard_StaleResponseDropped(t *testing.T) {
	env := newTestEnv(t, nil)
	m := newTestDashboard(t, env, env.config())

	// Two drills issued before either fetch returns: only the second lands.
	m = selectKey(t, m, "ACME")
	first, firstCmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = first.(DashboardModel)
	m = selectKey(t, m, "GLOBEX")
	second, secondCmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	firstMsg := firstCmd()
	got := drain(t, second, secondCmd).(DashboardModel)
	got = drain(t, got, func() tea.Msg { return firstMsg }).(DashboardModel)

	assert.Equal(t, drill.Path{"GLOBEX"}, got.activeCtrl().State().Path)
	assert.Equal(t, []string{"DXB"}, rowKeys(got))
}

func TestDashboard_GatewayErrorToast(t *testing.T) {
	env := newTestEnv(t, func(gw drill.Gateway) drill.Gateway {
		return drill.GatewayFunc(func(ctx context.Context, q drill.Query) (drill.Result, error) {
			if len(q.Path) > 0 && q.Path[0] == "GLOBEX" {
				return drill.Result{}, &drill.GatewayError{
					Module: q.ModuleID, Level: q.Level,
					Status: http.StatusServiceUnavailable, Message: "analytics service down",
				}
			}
			return gw.FetchLevel(ctx, q)
		})
	})
	m := newTestDashboard(t, env, env.config())

	m = selectKey(t, m, "GLOBEX")
	m = press(t, m, "enter").(DashboardModel)

	st := m.activeCtrl().State()
	assert.Equal(t, drill.StatusError, st.Status)
	assert.Empty(t, st.Path, "path reverts to the rows on screen")
	assert.ElementsMatch(t, []string{"ACME", "GLOBEX"}, rowKeys(m))
	assert.Contains(t, m.toast, "analytics service down")
	assert.Contains(t, m.View(), "analytics service down")

	// A successful fetch clears the toast.
	m = selectKey(t, m, "ACME")
	m = press(t, m, "enter").(DashboardModel)
	assert.Empty(t, m.toast)
}

func TestDashboard_ToggleView(t *testing.T) {
	env := newTestEnv(t, nil)
	m := newTestDashboard(t, env, env.config())

	m = selectKey(t, m, "ACME")
	m = press(t, m, "enter").(DashboardModel)
	m = selectKey(t, m, "BOM")
	m = press(t, m, "enter").(DashboardModel)

	m = press(t, m, "v").(DashboardModel)
	require.Equal(t, view.ModeDetail, m.Mode())
	st := m.activeCtrl().State()
	assert.Equal(t, drill.Path{"ACME"}, st.Path)
	assert.Equal(t, map[string]string{kpi.KindLocation: "BOM"}, st.Filters.Extra)
	assert.Contains(t, m.View(), "Overdue %")

	// Back to the summary without detail filters: nothing is refetched.
	seq := m.views.Controllers()[0].State().RequestSeq
	m = press(t, m, "v").(DashboardModel)
	assert.Equal(t, view.ModeSummary, m.Mode())
	assert.Equal(t, seq, m.activeCtrl().State().RequestSeq)
	assert.Equal(t, drill.Path{"ACME", "BOM"}, m.activeCtrl().State().Path)
}

func TestDashboard_DetailFilterCarriesBack(t *testing.T) {
	env := newTestEnv(t, nil)
	m := newTestDashboard(t, env, env.config())

	m = press(t, m, "v").(DashboardModel)
	m = press(t, m, "f").(DashboardModel)
	require.Equal(t, inputFilter, m.inputMode)
	m = typeText(t, m, "period=2024-06").(DashboardModel)
	m = press(t, m, "enter").(DashboardModel)

	assert.Equal(t, inputNone, m.inputMode)
	assert.Equal(t, "2024-06", m.activeCtrl().State().Filters.Period)
	assert.Equal(t, []string{"GLOBEX", "ACME"}, rowKeys(m), "largest outstanding first")

	m = press(t, m, "v").(DashboardModel)
	assert.Equal(t, view.ModeSummary, m.Mode())
	assert.Equal(t, "2024-06", m.activeCtrl().State().Filters.Period)
}

func TestDashboard_FilterParseError(t *testing.T) {
	env := newTestEnv(t, nil)
	m := newTestDashboard(t, env, env.config())

	m = press(t, m, "f").(DashboardModel)
	m = typeText(t, m, "from=yesterday").(DashboardModel)
	m = press(t, m, "enter").(DashboardModel)

	assert.Contains(t, m.hint, "invalid filter")
	assert.True(t, m.activeCtrl().State().Filters.IsZero())
}

func TestDashboard_GlobalSearch(t *testing.T) {
	env := newTestEnv(t, nil)
	m := newTestDashboard(t, env, env.config())

	m = press(t, m, "/").(DashboardModel)
	require.Equal(t, inputSearch, m.inputMode)
	m = typeText(t, m, "globex").(DashboardModel)
	m = press(t, m, "enter").(DashboardModel)

	assert.Equal(t, "globex", m.search.Term())
	assert.Equal(t, []string{"GLOBEX"}, rowKeys(m))
	for _, c := range m.views.Controllers() {
		assert.Equal(t, "globex", c.State().Filters.Search, "%s/%s", c.ModuleID(), c.View())
	}

	// Esc cancels editing without changing the term.
	m = press(t, m, "/").(DashboardModel)
	m = press(t, m, "esc").(DashboardModel)
	assert.Equal(t, "globex", m.search.Term())
	assert.Equal(t, []string{"GLOBEX"}, rowKeys(m))
}

func TestDashboard_SwitchModule(t *testing.T) {
	env := newTestEnv(t, nil)
	m := newTestDashboard(t, env, env.config())

	m = press(t, m, "tab").(DashboardModel)
	assert.Equal(t, kpi.ModuleBudget, m.ModuleID())
	assert.Equal(t, drill.StatusReady, m.activeCtrl().State().Status)
	assert.Contains(t, m.View(), "Actual")

	m = press(t, m, "tab").(DashboardModel)
	m = press(t, m, "tab").(DashboardModel)
	m = press(t, m, "tab").(DashboardModel)
	m = press(t, m, "tab").(DashboardModel)
	assert.Equal(t, kpi.ModuleOutstanding, m.ModuleID())
}

func TestDashboard_Paging(t *testing.T) {
	env := newTestEnv(t, nil)
	cfg := env.config()
	cfg.Module = kpi.ModuleChurn
	cfg.Mode = view.ModeDetail
	m := newTestDashboard(t, env, cfg)

	m = selectKey(t, m, "ACME")
	m = press(t, m, "enter").(DashboardModel)
	meta := m.activeCtrl().State().Meta()
	require.True(t, meta.HasNext, "churn customers of ACME span more than one page of two")
	assert.Contains(t, m.View(), "Page 1 of")

	m = press(t, m, "pgdown").(DashboardModel)
	assert.Equal(t, 2, m.activeCtrl().State().Page.Page)
	m = press(t, m, "pgup").(DashboardModel)
	assert.Equal(t, 1, m.activeCtrl().State().Page.Page)
}

func TestDashboard_EditCallRequiresCallLevel(t *testing.T) {
	env := newTestEnv(t, nil)
	m := newTestDashboard(t, env, env.config())

	m = press(t, m, "e").(DashboardModel)
	assert.NotEmpty(t, m.hint)
	assert.Equal(t, RouteDashboard, env.ch.Route())
}

func TestDashboard_Quit(t *testing.T) {
	env := newTestEnv(t, nil)
	m := newTestDashboard(t, env, env.config())

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, next.View())
}

func TestDashboard_ResumeSnapshot(t *testing.T) {
	env := newTestEnv(t, nil)
	snap := nav.Snapshot{
		Version:  nav.FormatVersion,
		ModuleID: kpi.ModuleOutstanding,
		Mode:     view.ModeSummary,
		Path: []drill.Step{
			{Kind: kpi.KindCompany, Key: "ACME"},
			{Kind: "region", Key: "WEST"},
		},
	}
	cfg := env.config()
	cfg.Module = kpi.ModuleBudget
	cfg.Resume = &snap
	m := newTestDashboard(t, env, cfg)

	assert.Equal(t, kpi.ModuleOutstanding, m.ModuleID())
	assert.Equal(t, drill.Path{"ACME"}, m.activeCtrl().State().Path)
	assert.ElementsMatch(t, []string{"BOM", "MAA"}, rowKeys(m))

	out := m.Snapshot()
	assert.Equal(t, kpi.ModuleOutstanding, out.ModuleID)
	assert.Equal(t, []drill.Step{{Kind: kpi.KindCompany, Key: "ACME"}}, out.Path)
}
