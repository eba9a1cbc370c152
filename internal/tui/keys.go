package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap lists the dashboard key bindings.
type KeyMap struct {
	Up         key.Binding
	Down       key.Binding
	Drill      key.Binding
	Back       key.Binding
	Toggle     key.Binding
	Search     key.Binding
	Filter     key.Binding
	Reset      key.Binding
	Refresh    key.Binding
	PrevPage   key.Binding
	NextPage   key.Binding
	NextModule key.Binding
	PrevModule key.Binding
	Quotation  key.Binding
	EditCall   key.Binding
	Quit       key.Binding
}

// ShortHelp returns the bindings shown in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Drill, k.Back, k.Toggle, k.Search, k.Filter, k.Reset, k.Quotation, k.Quit}
}

//nolint:gochecknoglobals // Key bindings are immutable configuration.
var keys = KeyMap{
	Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Drill:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "drill")),
	Back:       key.NewBinding(key.WithKeys("backspace", "esc"), key.WithHelp("esc", "back")),
	Toggle:     key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "summary/detail")),
	Search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Filter:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
	Reset:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
	Refresh:    key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh")),
	PrevPage:   key.NewBinding(key.WithKeys("pgup", "["), key.WithHelp("pgup", "prev page")),
	NextPage:   key.NewBinding(key.WithKeys("pgdown", "]"), key.WithHelp("pgdn", "next page")),
	NextModule: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next module")),
	PrevModule: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev module")),
	Quotation:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "new quotation")),
	EditCall:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit call")),
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}
