package dashboard

import "github.com/charmbracelet/lipgloss"

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7DCFFF"))

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A9B1D6"))

	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#BB9AF7")).
			MarginTop(1)

	AlertStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#C0392B")).
			Padding(0, 1)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E0AF68"))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F7768E")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#F7768E")).
			Padding(0, 1)

	BarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9ECE6A"))

	MutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#565F89"))

	HelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#565F89")).
			MarginTop(1)
)
