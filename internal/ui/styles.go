package ui

import "github.com/charmbracelet/lipgloss"

// Color palette. One cyan accent, everything else muted.
const (
	ColorCyan     = "51"  // Matched terms, headers
	ColorCyanDim  = "37"  // Secondary accents
	ColorWhite    = "255" // File names
	ColorGray     = "245" // Metadata, fragment text
	ColorDarkGray = "238" // Separators
	ColorRed      = "196" // Errors
	ColorYellow   = "220" // Warnings
)

// Styles holds the terminal styles used by the renderers.
type Styles struct {
	FileName  lipgloss.Style
	Path      lipgloss.Style
	Match     lipgloss.Style
	Fragment  lipgloss.Style
	Meta      lipgloss.Style
	Separator lipgloss.Style
	Error     lipgloss.Style
	Warning   lipgloss.Style
	Success   lipgloss.Style
}

// DefaultStyles returns the styled palette for TTY output.
func DefaultStyles() Styles {
	return Styles{
		FileName:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorWhite)),
		Path:      lipgloss.NewStyle().Foreground(lipgloss.Color(ColorCyanDim)),
		Match:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorCyan)),
		Fragment:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Meta:      lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Separator: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		Warning:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Success:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorCyan)),
	}
}

// PlainStyles returns unstyled output for pipes and CI.
func PlainStyles() Styles {
	return Styles{
		FileName:  lipgloss.NewStyle(),
		Path:      lipgloss.NewStyle(),
		Match:     lipgloss.NewStyle(),
		Fragment:  lipgloss.NewStyle(),
		Meta:      lipgloss.NewStyle(),
		Separator: lipgloss.NewStyle(),
		Error:     lipgloss.NewStyle(),
		Warning:   lipgloss.NewStyle(),
		Success:   lipgloss.NewStyle(),
	}
}
