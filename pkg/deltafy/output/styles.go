package output

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jamesainslie/deltafy/pkg/deltafy/types"
)

// Color constants using the ANSI 256-color palette.
const (
	ColorPrimary = lipgloss.Color("39")
	ColorCreated = lipgloss.Color("42")
	ColorUpdated = lipgloss.Color("214")
	ColorDeleted = lipgloss.Color("196")
	ColorMuted   = lipgloss.Color("245")
)

var (
	// HeaderBox frames the root and scan timing.
	HeaderBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 1).
			MarginBottom(1)

	// FooterBox frames the per-status totals.
	FooterBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorMuted).
			Padding(0, 1).
			MarginTop(1)
)

var (
	LabelStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
	ValueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	MutedStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
	PathStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	WarningStyle = lipgloss.NewStyle().Foreground(ColorUpdated)
	DryRunStyle  = lipgloss.NewStyle().Foreground(ColorUpdated).Bold(true)
)

// statusStyles colors each status label.
var statusStyles = map[types.Status]lipgloss.Style{
	types.StatusCreated:  lipgloss.NewStyle().Foreground(ColorCreated).Bold(true),
	types.StatusModified: lipgloss.NewStyle().Foreground(ColorUpdated).Bold(true),
	types.StatusDeleted:  lipgloss.NewStyle().Foreground(ColorDeleted).Bold(true),
}

// StatusStyle returns the style for status.
func StatusStyle(status types.Status) lipgloss.Style {
	if style, ok := statusStyles[status]; ok {
		return style
	}
	return ValueStyle
}
