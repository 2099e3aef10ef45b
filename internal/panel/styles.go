package panel

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	primaryColor   = lipgloss.Color("#9558B2") // Julia purple
	secondaryColor = lipgloss.Color("#389826") // Julia green
	mutedColor     = lipgloss.Color("#6B7280")
	errorColor     = lipgloss.Color("#CB3C33") // Julia red

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(primaryColor).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(10)

	runningStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Bold(true)

	idleStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	resultStyle = lipgloss.NewStyle().
			Padding(1, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Padding(1, 1)

	helpStyle = lipgloss.NewStyle().
			Padding(0, 1)
)
