package tui

import "github.com/charmbracelet/lipgloss"

// Color palette.
//
//nolint:gochecknoglobals // Colors are shared, immutable style building blocks.
var (
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"}
	ColorAccent  = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34D399"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	ColorError   = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	ColorSubtle  = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	ColorBorder  = lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#4B5563"}
)

// Text styles.
//
//nolint:gochecknoglobals // Lipgloss styles are immutable values shared by all views.
var (
	HeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	LabelStyle   = lipgloss.NewStyle().Foreground(ColorSubtle)
	ValueStyle   = lipgloss.NewStyle().Bold(true)
	SubtleStyle  = lipgloss.NewStyle().Foreground(ColorSubtle)
	InfoStyle    = lipgloss.NewStyle().Foreground(ColorPrimary)
	WarningStyle = lipgloss.NewStyle().Foreground(ColorWarning)
	ErrorStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorError)
	BarStyle     = lipgloss.NewStyle().Foreground(ColorAccent)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	TabStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(ColorSubtle)
	ActiveTabStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Bold(true).
			Underline(true).
			Foreground(ColorPrimary)

	ToastStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(ColorError)
)

// Table styles.
//
//nolint:gochecknoglobals // Lipgloss styles are immutable values shared by all views.
var (
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(ColorBorder).
				BorderBottom(true).
				Padding(0, 1)
	TableSelectedStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(ColorPrimary)
)
