package presenter

import "github.com/charmbracelet/lipgloss"

// Styles groups the lipgloss styles used by the text and TUI views.
type Styles struct {
	Header  lipgloss.Style
	Muted   lipgloss.Style
	Error   lipgloss.Style
	Card    lipgloss.Style
	Title   lipgloss.Style
	Pointer lipgloss.Style
	Segment lipgloss.Style
	Help    lipgloss.Style

	Bands map[Band]lipgloss.Style
}

// DefaultStyles returns the standard palette.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#7c3aed")).
			Padding(0, 2).
			Bold(true),

		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6b7280")),

		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ef4444")).
			Bold(true),

		Card: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7c3aed")).
			Padding(0, 1).
			Width(56),

		Title: lipgloss.NewStyle().
			Bold(true),

		Pointer: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f59e0b")).
			Bold(true),

		Segment: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d1d5db")),

		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6b7280")).
			Italic(true),

		Bands: map[Band]lipgloss.Style{
			BandExcellent: lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e")).Bold(true),
			BandGood:      lipgloss.NewStyle().Foreground(lipgloss.Color("#eab308")).Bold(true),
			BandFair:      lipgloss.NewStyle().Foreground(lipgloss.Color("#f97316")).Bold(true),
			BandPoor:      lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")).Bold(true),
		},
	}
}
