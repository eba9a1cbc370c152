package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/freightdash/internal/logging"
	"github.com/rshade/freightdash/internal/nav"
)

// Form outcomes reported back to the dashboard.
const (
	OutcomeSaved     = "saved"
	OutcomeCancelled = "cancelled"
)

// FormModel is a stand-in for the quotation and call-entry pages. It shows
// the context it was opened with, takes a note and returns to the page that
// opened it with the original payload.
//
//nolint:recvcheck // Bubble Tea requires value receivers for Init/Update/View interface methods.
type FormModel struct {
	ctx     context.Context
	ch      nav.Channel
	route   string
	title   string
	payload nav.Payload
	note    textinput.Model
	width   int
}

// NewFormModel opens the page at route and takes the transition payload.
func NewFormModel(ctx context.Context, ch nav.Channel, route string) FormModel {
	title := "New Quotation"
	if route == RouteCallEntryEdit {
		title = "Edit Call Entry"
	}

	note := textinput.New()
	note.Placeholder = "Notes"
	note.CharLimit = inputCharLimit
	note.Width = inputWidth
	note.Focus()

	p, _ := ch.IncomingPayload()
	return FormModel{
		ctx:     ctx,
		ch:      ch,
		route:   route,
		title:   title,
		payload: p,
		note:    note,
		width:   defaultWidth,
	}
}

// Init starts the cursor blink (Bubble Tea interface).
func (m FormModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model state (Bubble Tea interface).
//
//nolint:exhaustive // Only enter, esc and ctrl+c leave the form.
func (m FormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter:
			return m, m.finish(OutcomeSaved)
		case tea.KeyEsc:
			return m, m.finish(OutcomeCancelled)
		}
	}

	var cmd tea.Cmd
	m.note, cmd = m.note.Update(msg)
	return m, cmd
}

// finish navigates back to the origin with the received payload plus the
// outcome. The snapshot travels back untouched.
func (m FormModel) finish(outcome string) tea.Cmd {
	log := logging.FromContext(m.ctx)
	back := m.payload.Clone()
	if back == nil {
		back = nav.Payload{}
	}
	// The snapshot must still reach the origin, so encoding failures only lose the field.
	if err := back.Set(PayloadKeyOutcome, outcome); err != nil {
		log.Warn().Ctx(m.ctx).Str("component", "tui").Err(err).Msg("form outcome dropped")
	}
	if note := strings.TrimSpace(m.note.Value()); note != "" && outcome == OutcomeSaved {
		if err := back.Set(PayloadKeyNote, note); err != nil {
			log.Warn().Ctx(m.ctx).Str("component", "tui").Err(err).Msg("form note dropped")
		}
	}

	origin := RouteDashboard
	if snap, err := nav.DecodeSnapshot(back); err == nil && snap != nil && snap.OriginRoute != "" {
		origin = snap.OriginRoute
	}

	log.Debug().
		Ctx(m.ctx).
		Str("component", "tui").
		Str("operation", "form").
		Str("route", m.route).
		Str("outcome", outcome).
		Msg("leaving form")
	if err := m.ch.NavigateTo(origin, back); err != nil {
		log.Warn().Ctx(m.ctx).Str("component", "tui").Err(err).Msg("navigate back failed")
	}
	return nil
}

// Field returns a string value from the opening payload.
func (m FormModel) Field(key string) string {
	var v string
	if ok, err := m.payload.Get(key, &v); !ok || err != nil {
		return ""
	}
	return v
}

// View renders the form (Bubble Tea interface).
func (m FormModel) View() string {
	var content strings.Builder
	content.WriteString(HeaderStyle.Render(strings.ToUpper(m.title)))
	content.WriteString("\n\n")

	fields := []struct{ label, key string }{
		{"Module:   ", PayloadKeyModule},
		{"Level:    ", PayloadKeyEntityKind},
		{"Code:     ", PayloadKeyEntityKey},
		{"Name:     ", PayloadKeyEntityName},
	}
	for _, f := range fields {
		if v := m.Field(f.key); v != "" {
			content.WriteString(LabelStyle.Render(f.label))
			content.WriteString(ValueStyle.Render(v))
			content.WriteString("\n")
		}
	}
	content.WriteString("\n")
	content.WriteString(m.note.View())

	box := BoxStyle.Width(m.width - borderPadding).Render(content.String())
	help := SubtleStyle.Render("enter save • esc cancel")
	return lipgloss.JoinVertical(lipgloss.Left, box, help)
}
