package devshell

import "github.com/charmbracelet/lipgloss"

var (
	colorPink     = lipgloss.Color("205")
	colorDarkGray = lipgloss.Color("240")
	colorCyan     = lipgloss.Color("212")
	colorPurple   = lipgloss.Color("99")
	colorRed      = lipgloss.Color("196")
)

var (
	DocStyle       = lipgloss.NewStyle().Margin(1, 2)
	TitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorPink)
	URLStyle       = lipgloss.NewStyle().Foreground(colorCyan).Underline(true)
	StatusStyle    = lipgloss.NewStyle().Foreground(colorPurple)
	LogStyle       = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(colorDarkGray).Padding(0, 1)
	EventNameStyle = lipgloss.NewStyle().Foreground(colorCyan)
	MutedStyle     = lipgloss.NewStyle().Faint(true)
	ErrorStyle     = lipgloss.NewStyle().Foreground(colorRed)
	HelpStyle      = lipgloss.NewStyle().Faint(true)
)
