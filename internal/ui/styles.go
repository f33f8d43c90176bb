package ui

import "github.com/charmbracelet/lipgloss"

// Color palette. Single lime accent with grayscale support colors.
const (
	ColorLime     = "154" // Primary accent - bright lime green
	ColorLimeDim  = "106" // Dimmed lime for inactive elements
	ColorWhite    = "255" // Headers, important text
	ColorGray     = "245" // Secondary text, labels
	ColorDarkGray = "238" // Box borders, separators
	ColorRed      = "196" // Errors
	ColorYellow   = "220" // Warnings
)

// Styles holds the lipgloss styles used by the session views.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
	Active  lipgloss.Style
	Label   lipgloss.Style

	Panel      lipgloss.Style
	FocusPanel lipgloss.Style
}

// DefaultStyles returns the styled components for TUI mode.
func DefaultStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLime)),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Active:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLime)),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),

		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorDarkGray)).
			Padding(0, 1),
		FocusPanel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorLime)).
			Padding(0, 1),
	}
}

// NoColorStyles returns unstyled components for plain terminals.
func NoColorStyles() Styles {
	plainPanel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)
	return Styles{
		Header:     lipgloss.NewStyle(),
		Success:    lipgloss.NewStyle(),
		Warning:    lipgloss.NewStyle(),
		Error:      lipgloss.NewStyle(),
		Dim:        lipgloss.NewStyle(),
		Active:     lipgloss.NewStyle(),
		Label:      lipgloss.NewStyle(),
		Panel:      plainPanel,
		FocusPanel: plainPanel,
	}
}

// GetStyles returns the appropriate styles based on color preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
