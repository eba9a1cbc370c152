package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rshade/freightdash/internal/logging"
	"github.com/rshade/freightdash/internal/nav"
)

// AppModel routes between the dashboard and the pages it opens. All
// navigation goes through an in-process channel; the router follows the
// channel's route after every update.
//
//nolint:recvcheck // Bubble Tea requires value receivers for Init/Update/View interface methods.
type AppModel struct {
	ctx       context.Context
	ch        *nav.MemoryChannel
	route     string
	dashboard DashboardModel
	form      FormModel
	width     int
	height    int
}

// NewAppModel starts on the dashboard. ch must be the channel the
// dashboard's bridge navigates through.
func NewAppModel(ctx context.Context, ch *nav.MemoryChannel, dashboard DashboardModel) AppModel {
	return AppModel{
		ctx:       ctx,
		ch:        ch,
		route:     RouteDashboard,
		dashboard: dashboard,
		width:     defaultWidth,
		height:    defaultHeight,
	}
}

// Dashboard returns the dashboard page.
func (m AppModel) Dashboard() DashboardModel {
	return m.dashboard
}

// Route returns the page being shown.
func (m AppModel) Route() string {
	return m.route
}

// Init starts the dashboard (Bubble Tea interface).
func (m AppModel) Init() tea.Cmd {
	return m.dashboard.Init()
}

// Update delegates to the current page, then follows any navigation the
// page triggered (Bubble Tea interface).
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.width, m.height = size.Width, size.Height
		d, _ := m.dashboard.Update(size)
		m.dashboard = d.(DashboardModel)
		f, _ := m.form.Update(size)
		m.form = f.(FormModel)
		return m, nil
	}

	var cmd tea.Cmd
	switch {
	case m.route == RouteDashboard:
		var next tea.Model
		next, cmd = m.dashboard.Update(msg)
		m.dashboard = next.(DashboardModel)
	default:
		// Fetches started before leaving the dashboard still resolve there.
		if loaded, ok := msg.(levelLoadedMsg); ok {
			next, c := m.dashboard.Update(loaded)
			m.dashboard = next.(DashboardModel)
			return m, c
		}
		var next tea.Model
		next, cmd = m.form.Update(msg)
		m.form = next.(FormModel)
	}

	if route := m.ch.Route(); route != m.route {
		next, enterCmd := m.enter(route)
		return next, tea.Batch(cmd, enterCmd)
	}
	return m, cmd
}

// enter switches to route and lets the page pick up its payload.
func (m AppModel) enter(route string) (AppModel, tea.Cmd) {
	logging.FromContext(m.ctx).Debug().
		Ctx(m.ctx).
		Str("component", "tui").
		Str("operation", "navigate").
		Str("from", m.route).
		Str("to", route).
		Msg("route changed")
	m.route = route

	if route == RouteDashboard {
		var cmd tea.Cmd
		m.dashboard, cmd = m.dashboard.Returned()
		return m, cmd
	}

	m.form = NewFormModel(m.ctx, m.ch, route)
	f, _ := m.form.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
	m.form = f.(FormModel)
	return m, m.form.Init()
}

// View renders the current page (Bubble Tea interface).
func (m AppModel) View() string {
	if m.route == RouteDashboard {
		return m.dashboard.View()
	}
	return m.form.View()
}
