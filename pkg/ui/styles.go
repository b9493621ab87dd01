package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/complyscope/complyscope/pkg/finding"
)

// Color palette
var (
	Primary   = lipgloss.Color("#7D56F4")
	Secondary = lipgloss.Color("#00D4AA")

	Success = lipgloss.Color("#00D26A")
	Warning = lipgloss.Color("#FFB800")
	Error   = lipgloss.Color("#FF3838")
	Muted   = lipgloss.Color("#6B7280")
	Text    = lipgloss.Color("#FAFAFA")
)

// Pre-configured styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Text).
			Background(Primary).
			Padding(0, 1)

	BannerStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	SectionStyle = lipgloss.NewStyle().
			Foreground(Text).
			Bold(true).
			MarginTop(1)

	ConfigLabelStyle = lipgloss.NewStyle().
				Foreground(Muted).
				Width(15)

	ConfigValueStyle = lipgloss.NewStyle().
				Foreground(Text)

	StatLabelStyle = lipgloss.NewStyle().
			Foreground(Muted)

	StatValueStyle = lipgloss.NewStyle().
			Foreground(Text).
			Bold(true)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(Warning)

	PassStyle = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	FailStyle = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	ManualStyle = lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(Muted)
)

// StatusStyle returns the style for a finding or requirement status.
func StatusStyle(s finding.Status) lipgloss.Style {
	switch s {
	case finding.StatusPass:
		return PassStyle
	case finding.StatusFail:
		return FailStyle
	case finding.StatusManual:
		return ManualStyle
	default:
		return MutedStyle
	}
}

// StatusBadge renders a status with its icon and color.
func StatusBadge(s finding.Status) string {
	return StatusStyle(s).Render(StatusIcon(s) + " " + string(s))
}

// StatusIcon returns a glyph for the status, ASCII on limited terminals.
func StatusIcon(s finding.Status) string {
	switch s {
	case finding.StatusPass:
		return Icon("✓", "+")
	case finding.StatusFail:
		return Icon("✗", "x")
	case finding.StatusManual:
		return Icon("?", "?")
	default:
		return Icon("~", "~")
	}
}
