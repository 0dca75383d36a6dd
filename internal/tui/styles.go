package tui

import (
	"fragnav/internal/notify"

	"github.com/charmbracelet/lipgloss"
)

var (
	Foreground  = lipgloss.Color("#f2f2f2")
	Primary     = lipgloss.Color("#8BC34A")
	Muted       = lipgloss.Color("#6b7a90")
	Border      = lipgloss.Color("#2a3850")
	Destructive = lipgloss.Color("#e53935")
	Success     = lipgloss.Color("#8BC34A")
	Warning     = lipgloss.Color("#FFC107")
	Info        = lipgloss.Color("#2196F3")
)

// Styles holds the styles of the terminal shell.
type Styles struct {
	Header   lipgloss.Style
	Status   lipgloss.Style
	Menu     lipgloss.Style
	Item     lipgloss.Style
	Selected lipgloss.Style
	Current  lipgloss.Style
	Content  lipgloss.Style
	Footer   lipgloss.Style
	Toast    lipgloss.Style
}

// DefaultStyles returns the default styles.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			Padding(0, 1),
		Status: lipgloss.NewStyle().
			Foreground(Muted).
			Padding(0, 1),
		Menu: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(0, 1),
		Item: lipgloss.NewStyle().
			Foreground(Foreground),
		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary),
		Current: lipgloss.NewStyle().
			Underline(true),
		Content: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(0, 1),
		Footer: lipgloss.NewStyle().
			Foreground(Muted).
			Padding(0, 1),
		Toast: lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1),
	}
}

// SeverityColor returns the color a notification of the severity is drawn in.
func SeverityColor(s notify.Severity) lipgloss.Color {
	switch s {
	case notify.SeveritySuccess:
		return Success
	case notify.SeverityWarning:
		return Warning
	case notify.SeverityError:
		return Destructive
	default:
		return Info
	}
}

// severityGlyph stands in for the severity icon in a terminal.
func severityGlyph(s notify.Severity) string {
	switch s {
	case notify.SeveritySuccess:
		return "✔"
	case notify.SeverityWarning:
		return "▲"
	case notify.SeverityError:
		return "✖"
	default:
		return "ℹ"
	}
}
