package tui

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rshade/freightdash/internal/drill"
	"github.com/rshade/freightdash/internal/kpi"
	"github.com/rshade/freightdash/internal/view"
)

// View renders the dashboard (Bubble Tea interface).
func (m DashboardModel) View() string {
	if m.quitting {
		return ""
	}

	st := m.activeCtrl().State()
	sections := []string{
		m.renderTabs(),
		m.renderBreadcrumb(st),
		m.renderBody(st),
	}
	if footer := m.renderFooter(st); footer != "" {
		sections = append(sections, footer)
	}
	if m.inputMode != inputNone {
		label := "Search: "
		if m.inputMode == inputFilter {
			label = "Filter: "
		}
		sections = append(sections, LabelStyle.Render(label)+m.input.View())
	}
	sections = append(sections, m.renderStatusBar(st))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m DashboardModel) renderTabs() string {
	tabs := make([]string, len(m.modules))
	for i, id := range m.modules {
		title := m.titles[id]
		if title == "" {
			title = id
		}
		if i == m.active {
			tabs[i] = ActiveTabStyle.Render(title)
		} else {
			tabs[i] = TabStyle.Render(title)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// renderBreadcrumb shows the mode and the drill path.
func (m DashboardModel) renderBreadcrumb(st drill.State) string {
	parts := []string{HeaderStyle.Render(m.titles[m.ModuleID()])}
	for _, step := range m.activeCtrl().Steps() {
		parts = append(parts, LabelStyle.Render(step.Kind+":")+ValueStyle.Render(step.Key))
	}
	crumb := strings.Join(parts, SubtleStyle.Render(" › "))
	return SubtleStyle.Render("["+string(m.Mode())+"] ") + crumb + m.renderLevel(st)
}

func (m DashboardModel) renderLevel(st drill.State) string {
	l, ok := m.activeCtrl().Schema().Level(st.Level())
	if !ok {
		return ""
	}
	return SubtleStyle.Render(fmt.Sprintf("  (by %s)", l.EntityKind))
}

func (m DashboardModel) renderBody(st drill.State) string {
	if st.Rows == nil {
		if st.Status == drill.StatusError {
			return ErrorStyle.Render("No data")
		}
		return m.loading.View()
	}
	if len(st.Rows) == 0 {
		return InfoStyle.Render("No rows match the current filters.")
	}
	return m.table.View()
}

// renderFooter shows paging for paged views and the level totals.
func (m DashboardModel) renderFooter(st drill.State) string {
	var parts []string
	if st.Page.Enabled() && st.Rows != nil {
		meta := st.Meta()
		parts = append(parts, fmt.Sprintf("Page %d of %d · %s rows",
			meta.CurrentPage, max(meta.TotalPages, 1), m.format.Count(meta.TotalItems)))
	}
	if len(st.Totals) > 0 {
		names := make([]string, 0, len(st.Totals))
		for name := range st.Totals {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			parts = append(parts, name+" "+m.figure(st.Totals[name]))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return SubtleStyle.Render(strings.Join(parts, "  |  "))
}

// renderStatusBar shows fetch status, the error toast, active filters and
// key help.
func (m DashboardModel) renderStatusBar(st drill.State) string {
	var lines []string
	switch {
	case st.Status == drill.StatusLoading:
		lines = append(lines, m.loading.View())
	case m.toast != "":
		lines = append(lines, ToastStyle.Render(m.toast))
	}
	if m.hint != "" {
		lines = append(lines, WarningStyle.Render(m.hint))
	}
	if f := describeFilters(st.Filters); f != "" {
		lines = append(lines, LabelStyle.Render("Filters: ")+f)
	}

	help := make([]string, 0, len(keys.ShortHelp()))
	for _, b := range keys.ShortHelp() {
		h := b.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	lines = append(lines, SubtleStyle.Render(strings.Join(help, " • ")))
	return strings.Join(lines, "\n")
}

func describeFilters(f drill.FilterContext) string {
	flat := f.Flatten()
	if len(flat) == 0 {
		return ""
	}
	names := make([]string, 0, len(flat))
	for k := range flat {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, k := range names {
		parts[i] = k + "=" + flat[k]
	}
	return strings.Join(parts, " ")
}

// rebuildTable recreates the table for the active view's rows. The cursor
// survives refetches of the same level and resets when the level changes.
func (m *DashboardModel) rebuildTable() {
	ctrl := m.activeCtrl()
	st := ctrl.State()
	level := len(st.RowsPath)

	var cols []table.Column
	var rows []table.Row
	if m.sync().Mode() == view.ModeSummary {
		cols, rows = m.summaryTable(st, level)
	} else {
		cols, rows = m.detailTable(st, level)
	}

	rowsKey := ctrl.ModuleID() + "|" + ctrl.View() + "|" + strings.Join(st.RowsPath, "/")
	cursor := m.table.Cursor()
	if rowsKey != m.rowsKey {
		cursor = 0
		m.rowsKey = rowsKey
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(max(m.height-chromeHeight, minTableHeight)),
	)
	s := table.DefaultStyles()
	s.Header = TableHeaderStyle
	s.Selected = TableSelectedStyle
	t.SetStyles(s)
	if cursor > 0 && cursor < len(rows) {
		t.SetCursor(cursor)
	}
	m.table = t
}

// summaryTable renders each row's headline figure as a horizontal bar.
func (m DashboardModel) summaryTable(st drill.State, level int) ([]table.Column, []table.Row) {
	kind := "Name"
	if l, ok := m.activeCtrl().Schema().Level(level); ok {
		kind = cases.Title(language.English).String(l.EntityKind)
	}
	headline := m.catalog.HeadlineTitle(st.ModuleID, st.View, level)

	peak := decimal.Zero
	for _, r := range st.Rows {
		if h := headlineOf(r).Abs(); h.GreaterThan(peak) {
			peak = h
		}
	}

	rows := make([]table.Row, len(st.Rows))
	for i, r := range st.Rows {
		h := headlineOf(r)
		rows[i] = table.Row{r.Label(), bar(h, peak), m.figure(h)}
	}

	cols := []table.Column{
		{Title: kind, Width: columnWidth(kind, rows, 0)},
		{Title: "", Width: barMaxWidth},
		{Title: headline, Width: columnWidth(headline, rows, 2)}, //nolint:mnd // Third column.
	}
	return cols, rows
}

// detailTable renders every figure of the level's row type.
func (m DashboardModel) detailTable(st drill.State, level int) ([]table.Column, []table.Row) {
	headers := append([]string{"Code", "Name"}, m.catalog.Headers(st.ModuleID, st.View, level)...)

	rows := make([]table.Row, len(st.Rows))
	for i, r := range st.Rows {
		cells := []string{r.Key(), r.Label()}
		if kr, ok := r.(kpi.Row); ok {
			cells = append(cells, kr.Cells(m.format)...)
		}
		for len(cells) < len(headers) {
			cells = append(cells, "")
		}
		rows[i] = table.Row(cells[:len(headers)])
	}

	cols := make([]table.Column, len(headers))
	for i, h := range headers {
		cols[i] = table.Column{Title: h, Width: columnWidth(h, rows, i)}
	}
	return cols, rows
}

// figure formats whole numbers as counts and anything else as an amount.
func (m DashboardModel) figure(d decimal.Decimal) string {
	if d.IsInteger() {
		return m.format.Count(int(d.IntPart()))
	}
	return m.format.Amount(d)
}

func headlineOf(r drill.Row) decimal.Decimal {
	if kr, ok := r.(kpi.Row); ok {
		return kr.Headline()
	}
	return decimal.Zero
}

func bar(v, peak decimal.Decimal) string {
	if peak.IsZero() || !v.IsPositive() {
		return ""
	}
	n := int(v.Div(peak).Mul(decimal.NewFromInt(barMaxWidth)).Round(0).IntPart())
	return strings.Repeat("█", max(n, 1))
}

func columnWidth(title string, rows []table.Row, col int) int {
	w := utf8.RuneCountInString(title)
	for _, r := range rows {
		if col < len(r) {
			w = max(w, utf8.RuneCountInString(r[col]))
		}
	}
	return min(w+borderPadding, maxColumnWidth)
}
