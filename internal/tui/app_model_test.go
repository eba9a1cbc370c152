package tui

import (
	"context"
	"sync/atomic"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/freightdash/internal/drill"
	"github.com/rshade/freightdash/internal/kpi"
	"github.com/rshade/freightdash/internal/view"
)

func countingEnv(t *testing.T) (testEnv, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	env := newTestEnv(t, func(gw drill.Gateway) drill.Gateway {
		return drill.GatewayFunc(func(ctx context.Context, q drill.Query) (drill.Result, error) {
			calls.Add(1)
			return gw.FetchLevel(ctx, q)
		})
	})
	return env, &calls
}

func newTestApp(t *testing.T, env testEnv) AppModel {
	t.Helper()
	d, err := NewDashboardModel(context.Background(), env.config())
	require.NoError(t, err)
	app := NewAppModel(context.Background(), env.ch, d)
	return drain(t, app, app.Init()).(AppModel)
}

func TestAppModel_QuotationRoundTrip(t *testing.T) {
	env, calls := countingEnv(t)
	app := newTestApp(t, env)

	app.dashboard = selectKey(t, app.Dashboard(), "ACME")
	app = press(t, app, "enter").(AppModel)
	app = press(t, app, "f").(AppModel)
	app = typeText(t, app, "period=2024").(AppModel)
	app = press(t, app, "enter").(AppModel)
	app.dashboard = selectKey(t, app.Dashboard(), "MAA")
	before := app.Dashboard().Snapshot()

	app = press(t, app, "c").(AppModel)
	require.Equal(t, RouteQuotationNew, app.Route())
	assert.Equal(t, "MAA", app.form.Field(PayloadKeyEntityKey))
	assert.Equal(t, kpi.KindLocation, app.form.Field(PayloadKeyEntityKind))
	assert.Contains(t, app.View(), "NEW QUOTATION")
	assert.Contains(t, app.View(), "Chennai")

	// Keys go to the form while it is open.
	app = typeText(t, app, "reefer 2x40").(AppModel)
	fetches := calls.Load()
	app = press(t, app, "enter").(AppModel)

	require.Equal(t, RouteDashboard, app.Route())
	assert.Equal(t, fetches+1, calls.Load(), "restore fetches exactly once")
	st := app.Dashboard().activeCtrl().State()
	assert.Equal(t, drill.StatusReady, st.Status)
	assert.Equal(t, drill.Path{"ACME"}, st.Path)
	assert.Equal(t, "2024", st.Filters.Period)
	assert.Equal(t, before.Path, app.Dashboard().Snapshot().Path)

	// The returning payload was consumed; a second read restores nothing.
	again, cmd := app.Dashboard().Returned()
	assert.Nil(t, cmd)
	assert.Equal(t, drill.Path{"ACME"}, again.activeCtrl().State().Path)
}

func TestAppModel_CancelRestoresDetailView(t *testing.T) {
	env, calls := countingEnv(t)
	app := newTestApp(t, env)

	app = press(t, app, "v").(AppModel)
	require.Equal(t, view.ModeDetail, app.Dashboard().Mode())
	app = press(t, app, "tab").(AppModel)
	app = press(t, app, "tab").(AppModel)
	app = press(t, app, "tab").(AppModel)
	require.Equal(t, kpi.ModuleCallEntry, app.Dashboard().ModuleID())

	app.dashboard = selectKey(t, app.Dashboard(), "SP-001")
	app = press(t, app, "enter").(AppModel)
	app.dashboard = selectKey(t, app.Dashboard(), "C-100")
	app = press(t, app, "enter").(AppModel)
	app.dashboard = selectKey(t, app.Dashboard(), "CE-0002")

	app = press(t, app, "e").(AppModel)
	require.Equal(t, RouteCallEntryEdit, app.Route())
	assert.Contains(t, app.View(), "EDIT CALL ENTRY")
	assert.Equal(t, "CE-0002", app.form.Field(PayloadKeyEntityKey))

	fetches := calls.Load()
	app = press(t, app, "esc").(AppModel)
	require.Equal(t, RouteDashboard, app.Route())
	assert.Equal(t, fetches+1, calls.Load())
	assert.Equal(t, kpi.ModuleCallEntry, app.Dashboard().ModuleID())
	assert.Equal(t, drill.Path{"SP-001", "C-100"}, app.Dashboard().activeCtrl().State().Path)
}

func TestAppModel_LateFetchResolvesOnDashboard(t *testing.T) {
	env := newTestEnv(t, nil)
	app := newTestApp(t, env)

	app.dashboard = selectKey(t, app.Dashboard(), "GLOBEX")
	next, fetch := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = next.(AppModel)
	app = press(t, app, "c").(AppModel)
	require.Equal(t, RouteQuotationNew, app.Route())

	app = drain(t, app, fetch).(AppModel)
	assert.Equal(t, RouteQuotationNew, app.Route())
	assert.Equal(t, []string{"DXB"}, rowKeys(app.Dashboard()))
}

func TestAppModel_WindowSize(t *testing.T) {
	env := newTestEnv(t, nil)
	app := newTestApp(t, env)

	next, cmd := app.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	assert.Nil(t, cmd)
	app = next.(AppModel)
	assert.Equal(t, 80, app.Dashboard().width)
	assert.Equal(t, 20, app.Dashboard().height)
}

func TestAppModel_LeaveWhileLoadingUsesRowsLevel(t *testing.T) {
	env := newTestEnv(t, nil)
	app := newTestApp(t, env)

	app.dashboard = selectKey(t, app.Dashboard(), "GLOBEX")
	next, _ := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = next.(AppModel)
	app = press(t, app, "c").(AppModel)

	assert.Equal(t, kpi.KindCompany, app.form.Field(PayloadKeyEntityKind))
	assert.Equal(t, "GLOBEX", app.form.Field(PayloadKeyEntityKey))
}
