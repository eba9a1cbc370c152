package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rshade/freightdash/internal/drill"
	"github.com/rshade/freightdash/internal/kpi"
	"github.com/rshade/freightdash/internal/logging"
	"github.com/rshade/freightdash/internal/nav"
	"github.com/rshade/freightdash/internal/view"
)

// Routes served by AppModel.
const (
	RouteDashboard     = "/dashboard"
	RouteQuotationNew  = "/quotations/new"
	RouteCallEntryEdit = "/call-entries/edit"
)

// Payload keys written next to the snapshot when leaving the dashboard.
const (
	PayloadKeyModule     = "module_id"
	PayloadKeyEntityKind = "entity_kind"
	PayloadKeyEntityKey  = "entity_key"
	PayloadKeyEntityName = "entity_name"
	PayloadKeyOutcome    = "outcome"
	PayloadKeyNote       = "note"
)

// Layout constants.
const (
	defaultWidth   = 120
	defaultHeight  = 30
	borderPadding  = 2
	chromeHeight   = 9
	minTableHeight = 3
	barMaxWidth    = 30
	maxColumnWidth = 32
	inputCharLimit = 120
	inputWidth     = 60
)

// inputMode says what the text input is editing.
type inputMode int

const (
	inputNone inputMode = iota
	inputSearch
	inputFilter
)

// levelLoadedMsg carries a finished fetch back to the update loop.
type levelLoadedMsg struct {
	resp drill.Response
}

// DashboardConfig wires a DashboardModel.
type DashboardConfig struct {
	Registry  *drill.Registry
	Views     *view.Set
	Catalog   *kpi.Catalog
	Formatter *kpi.Formatter
	Bridge    *nav.Bridge

	// Module and Mode select the first page shown. Resume, when set, wins
	// over both.
	Module string
	Mode   view.Mode
	Resume *nav.Snapshot
}

// DashboardModel is the analytics dashboard page: module tabs over one
// summary/detail synchronizer per module.
//
//nolint:recvcheck // Bubble Tea requires value receivers for Init/Update/View interface methods.
type DashboardModel struct {
	ctx     context.Context
	views   *view.Set
	modules []string
	titles  map[string]string
	active  int
	search  *drill.SearchBroadcast
	catalog *kpi.Catalog
	format  *kpi.Formatter
	bridge  *nav.Bridge

	// Interactive components
	table     table.Model
	input     textinput.Model
	inputMode inputMode
	loading   *LoadingState
	rowsKey   string

	// Display configuration
	width  int
	height int

	// toast is the last gateway error of the active view; hint is a
	// transient, non-error message.
	toast    string
	hint     string
	quitting bool

	initCmd tea.Cmd
}

// NewDashboardModel builds the dashboard and issues its first fetch, which
// Init returns.
func NewDashboardModel(ctx context.Context, cfg DashboardConfig) (DashboardModel, error) {
	if cfg.Registry == nil || cfg.Views == nil || cfg.Catalog == nil || cfg.Bridge == nil {
		return DashboardModel{}, errors.New("dashboard: registry, views, catalog and bridge are required")
	}
	if cfg.Formatter == nil {
		cfg.Formatter = kpi.DefaultFormatter()
	}

	m := DashboardModel{
		ctx:     ctx,
		views:   cfg.Views,
		modules: cfg.Views.IDs(),
		titles:  make(map[string]string),
		search:  drill.NewSearchBroadcast(cfg.Views.Controllers()...),
		catalog: cfg.Catalog,
		format:  cfg.Formatter,
		bridge:  cfg.Bridge,
		input:   newInput(),
		loading: NewLoadingState(),
		width:   defaultWidth,
		height:  defaultHeight,
	}
	if len(m.modules) == 0 {
		return DashboardModel{}, errors.New("dashboard: no modules")
	}
	for _, mod := range cfg.Registry.Modules() {
		m.titles[mod.ID] = mod.Title
	}

	if cfg.Module != "" && !m.selectModule(cfg.Module) {
		return DashboardModel{}, fmt.Errorf("dashboard: unknown module %q", cfg.Module)
	}

	var req *drill.Request
	switch {
	case cfg.Resume != nil:
		req = m.resume(cfg.Resume)
	case view.ParseMode(string(cfg.Mode)) == view.ModeDetail:
		req = m.sync().Toggle()
	default:
		req = m.activeCtrl().Load()
	}
	m.rebuildTable()
	m.initCmd = m.fetch(req)
	return m, nil
}

// resume restores a snapshot left by an earlier session. Failures fall back
// to loading the selected module from its root.
func (m *DashboardModel) resume(snap *nav.Snapshot) *drill.Request {
	log := logging.FromContext(m.ctx)
	sync, ok := m.views.Get(snap.ModuleID)
	if !ok {
		log.Warn().Ctx(m.ctx).Str("component", "tui").Str("module", snap.ModuleID).Msg("resume: unknown module")
		return m.activeCtrl().Load()
	}
	m.selectModule(snap.ModuleID)
	req, err := m.bridge.Restore(m.ctx, snap, sync)
	if err != nil {
		log.Warn().Ctx(m.ctx).Str("component", "tui").Err(err).Msg("resume failed")
		return m.activeCtrl().Load()
	}
	return req
}

func newInput() textinput.Model {
	ti := textinput.New()
	ti.CharLimit = inputCharLimit
	ti.Width = inputWidth
	return ti
}

// Init starts the spinner and the first fetch (Bubble Tea interface).
func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(m.loading.Init(), m.initCmd)
}

// Update handles messages and updates the model state (Bubble Tea interface).
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.rebuildTable()
		return m, nil

	case levelLoadedMsg:
		return m.handleLevelLoaded(msg)

	case spinner.TickMsg:
		return m, m.loading.Update(msg)

	case tea.KeyMsg:
		if m.inputMode != inputNone {
			return m.handleInput(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

// handleLevelLoaded resolves a fetch against the controller that issued it.
// Superseded responses are dropped by the controller.
func (m DashboardModel) handleLevelLoaded(msg levelLoadedMsg) (tea.Model, tea.Cmd) {
	q := msg.resp.Request.Query
	ctrl, ok := m.views.Controller(q.ModuleID, q.View)
	if !ok || !ctrl.Resolve(m.ctx, msg.resp) {
		return m, nil
	}

	if ctrl == m.activeCtrl() {
		st := ctrl.State()
		var gwErr *drill.GatewayError
		switch {
		case st.Status == drill.StatusError && errors.As(st.Err, &gwErr):
			m.toast = gwErr.Error()
		case st.Status == drill.StatusReady:
			m.toast = ""
		}
		m.rebuildTable()
	}
	return m, nil
}

// handleKey maps a key press to a controller operation.
func (m DashboardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		m.table.MoveUp(1)
	case key.Matches(msg, keys.Down):
		m.table.MoveDown(1)
	case key.Matches(msg, keys.Drill):
		return m.drillIntoSelected()
	case key.Matches(msg, keys.Back):
		return m.run(m.activeCtrl().GoBack())
	case key.Matches(msg, keys.Toggle):
		return m.run(m.sync().Toggle())
	case key.Matches(msg, keys.Reset):
		return m.run(m.activeCtrl().Reset())
	case key.Matches(msg, keys.Refresh):
		return m.run(m.activeCtrl().Refresh())
	case key.Matches(msg, keys.PrevPage):
		return m.run(m.activeCtrl().PrevPage())
	case key.Matches(msg, keys.NextPage):
		return m.run(m.activeCtrl().NextPage())
	case key.Matches(msg, keys.NextModule):
		return m.switchModule(1)
	case key.Matches(msg, keys.PrevModule):
		return m.switchModule(-1)
	case key.Matches(msg, keys.Search):
		m.openInput(inputSearch, "Search all modules...", m.search.Term())
		return m, textinput.Blink
	case key.Matches(msg, keys.Filter):
		m.openInput(inputFilter, "period=2024-09 from=2024-04-01 location=BOM", "")
		return m, textinput.Blink
	case key.Matches(msg, keys.Quotation):
		return m.leave(RouteQuotationNew)
	case key.Matches(msg, keys.EditCall):
		if m.rowsLevel().EntityKind != kpi.KindCall {
			m.hint = "Drill down to a call entry to edit it"
			return m, nil
		}
		return m.leave(RouteCallEntryEdit)
	}
	return m, nil
}

// run rebuilds the table after a transition and fetches req, if any.
func (m DashboardModel) run(req *drill.Request) (tea.Model, tea.Cmd) {
	m.hint = ""
	m.rebuildTable()
	return m, m.fetch(req)
}

// drillIntoSelected drills by the canonical key of the highlighted row.
func (m DashboardModel) drillIntoSelected() (tea.Model, tea.Cmd) {
	row, ok := m.selectedRow()
	if !ok {
		return m, nil
	}
	req, err := m.activeCtrl().DrillInto(row.Key())
	if err != nil {
		logging.FromContext(m.ctx).Debug().
			Ctx(m.ctx).
			Str("component", "tui").
			Str("operation", "drill").
			Str("key", row.Key()).
			Err(err).
			Msg("drill refused")
		m.hint = "Nothing to drill into below " + row.Label()
		return m, nil
	}
	return m.run(req)
}

// switchModule moves the tab selection by delta and loads the module the
// first time it is shown.
func (m DashboardModel) switchModule(delta int) (tea.Model, tea.Cmd) {
	n := len(m.modules)
	m.active = (m.active + delta + n) % n
	m.toast = ""
	ctrl := m.activeCtrl()
	var req *drill.Request
	if ctrl.State().Status == drill.StatusIdle {
		req = ctrl.Load()
	}
	return m.run(req)
}

func (m *DashboardModel) openInput(mode inputMode, placeholder, value string) {
	m.inputMode = mode
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.Focus()
}

func (m *DashboardModel) closeInput() {
	m.inputMode = inputNone
	m.input.Blur()
	m.input.SetValue("")
}

// handleInput edits the search term or a filter expression.
//
//nolint:exhaustive // Only enter and esc end editing; everything else goes to the input.
func (m DashboardModel) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closeInput()
		return m, nil
	case tea.KeyEnter:
		value := m.input.Value()
		mode := m.inputMode
		m.closeInput()
		if mode == inputSearch {
			m.hint = ""
			reqs := m.search.Set(value)
			m.rebuildTable()
			return m, m.fetch(reqs...)
		}
		return m.applyFilter(value)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// applyFilter parses expr over the active filters. In the detail view the
// filters are remembered for the next toggle back to the summary.
func (m DashboardModel) applyFilter(expr string) (tea.Model, tea.Cmd) {
	f, err := m.activeCtrl().State().Filters.ParseAssignments(expr)
	if err != nil {
		m.hint = err.Error()
		return m, nil
	}
	if m.sync().Mode() == view.ModeDetail {
		return m.run(m.sync().ApplyDetailFilters(f))
	}
	return m.run(m.activeCtrl().ApplyFilters(f))
}

// leave snapshots the active view and navigates to route, passing the
// highlighted row along.
func (m DashboardModel) leave(route string) (tea.Model, tea.Cmd) {
	sync := m.sync()
	extra := map[string]any{PayloadKeyModule: sync.ModuleID()}
	if row, ok := m.selectedRow(); ok {
		extra[PayloadKeyEntityKind] = m.rowsLevel().EntityKind
		extra[PayloadKeyEntityKey] = row.Key()
		extra[PayloadKeyEntityName] = row.Label()
	}

	snap := nav.Capture(sync.ModuleID(), sync.ViewState(), RouteDashboard)
	if err := m.bridge.Attach(m.ctx, route, snap, extra); err != nil {
		m.hint = err.Error()
	}
	return m, nil
}

// Returned restores the view saved when the dashboard was left. It reads the
// returning payload at most once; with nothing to restore the dashboard is
// shown as it was.
func (m DashboardModel) Returned() (DashboardModel, tea.Cmd) {
	snap, err := m.bridge.ConsumeOnReturn(m.ctx)
	if err != nil {
		m.hint = "Previous view could not be restored"
		return m, nil
	}
	if snap == nil {
		return m, nil
	}
	sync, ok := m.views.Get(snap.ModuleID)
	if !ok {
		m.hint = "Previous view could not be restored"
		return m, nil
	}

	req, err := m.bridge.Restore(m.ctx, snap, sync)
	if err != nil {
		m.hint = err.Error()
		return m, nil
	}
	m.selectModule(snap.ModuleID)
	m.toast = ""
	m.rebuildTable()
	return m, m.fetch(req)
}

// Snapshot captures the active module's view.
func (m DashboardModel) Snapshot() nav.Snapshot {
	sync := m.sync()
	return nav.Capture(sync.ModuleID(), sync.ViewState(), RouteDashboard)
}

// fetch turns requests into commands. Each command runs the gateway call off
// the update loop and reports back with a levelLoadedMsg.
func (m DashboardModel) fetch(reqs ...*drill.Request) tea.Cmd {
	var cmds []tea.Cmd
	for _, req := range reqs {
		if req == nil {
			continue
		}
		ctrl, ok := m.views.Controller(req.Query.ModuleID, req.Query.View)
		if !ok {
			continue
		}
		ctx, r := m.ctx, *req
		cmds = append(cmds, func() tea.Msg {
			return levelLoadedMsg{resp: ctrl.Fetch(ctx, r)}
		})
	}
	return tea.Batch(cmds...)
}

func (m *DashboardModel) selectModule(id string) bool {
	for i, mod := range m.modules {
		if mod == id {
			m.active = i
			return true
		}
	}
	return false
}

func (m DashboardModel) sync() *view.Synchronizer {
	s, _ := m.views.Get(m.modules[m.active])
	return s
}

func (m DashboardModel) activeCtrl() *drill.Controller {
	return m.sync().Active()
}

// rowsLevel is the level of the rows on screen. While a fetch is in flight
// it trails the controller's current level.
func (m DashboardModel) rowsLevel() drill.LevelDef {
	ctrl := m.activeCtrl()
	l, _ := ctrl.Schema().Level(len(ctrl.State().RowsPath))
	return l
}

// selectedRow returns the row under the table cursor.
func (m DashboardModel) selectedRow() (drill.Row, bool) {
	rows := m.activeCtrl().State().Rows
	i := m.table.Cursor()
	if i < 0 || i >= len(rows) {
		return nil, false
	}
	return rows[i], true
}

// ModuleID returns the module of the active tab.
func (m DashboardModel) ModuleID() string {
	return m.modules[m.active]
}

// Mode returns the active tab's view mode.
func (m DashboardModel) Mode() view.Mode {
	return m.sync().Mode()
}
