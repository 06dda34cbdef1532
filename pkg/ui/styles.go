package ui

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	// Brand colors
	Primary   = lipgloss.Color("#7D56F4") // Purple
	Secondary = lipgloss.Color("#00D4AA") // Teal

	// Outcome colors
	Found   = lipgloss.Color("#00D26A") // Green - intelligence returned
	Empty   = lipgloss.Color("#4D96FF") // Blue - service has no data
	Exposed = lipgloss.Color("#FF3838") // Red - known vulnerabilities
	Warn    = lipgloss.Color("#FFB800") // Amber - retries, rate limits
	Failed  = lipgloss.Color("#FF6B6B") // Red/Orange - exhausted targets
	Muted   = lipgloss.Color("#6B7280") // Gray
)

// Pre-configured styles.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(Primary).
			Padding(0, 1)

	BannerStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	VersionStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	SectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Bold(true).
			MarginTop(1)

	ConfigLabelStyle = lipgloss.NewStyle().
				Foreground(Muted).
				Width(14)

	ConfigValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FAFAFA"))

	FoundStyle   = lipgloss.NewStyle().Foreground(Found).Bold(true)
	EmptyStyle   = lipgloss.NewStyle().Foreground(Empty)
	ExposedStyle = lipgloss.NewStyle().Foreground(Exposed).Bold(true)
	WarnStyle    = lipgloss.NewStyle().Foreground(Warn)
	FailedStyle  = lipgloss.NewStyle().Foreground(Failed).Bold(true)
	MutedStyle   = lipgloss.NewStyle().Foreground(Muted)
)
