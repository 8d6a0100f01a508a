package tui

import "github.com/charmbracelet/lipgloss"

var (
	appStyle        = lipgloss.NewStyle().Padding(1, 2)
	titleStyle      = lipgloss.NewStyle().Bold(true)
	helpStyle       = lipgloss.NewStyle().Faint(true)
	errorStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	overlayBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 2)

	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	syncedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	waitingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	disabledStyle = lipgloss.NewStyle().Faint(true)
	pendingStyle  = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("13"))
)
