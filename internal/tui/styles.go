package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/taskhub/internal/store"
)

var (
	colorPrimary   = lipgloss.Color("#5A8DEE")
	colorAccent    = lipgloss.Color("#F0616D")
	colorMuted     = lipgloss.Color("#6B7280")
	colorSuccess   = lipgloss.Color("#3DBE8B")
	colorWarning   = lipgloss.Color("#E8A33D")
	colorError     = lipgloss.Color("#E5484D")
	colorFg        = lipgloss.Color("#D4D8E2")
	colorSubtle    = lipgloss.Color("#3B4252")
	colorHighlight = lipgloss.Color("#88C0D0")
)

var (
	activeTabStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorPrimary).Padding(0, 2)
	inactiveTabStyle = lipgloss.NewStyle().Foreground(colorMuted).Padding(0, 2)

	panelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).Padding(1, 2)
	// activePanelStyle marks panels waiting for input (pickers, the running timer).
	activePanelStyle = panelStyle.BorderForeground(colorPrimary)

	timerStyle        = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Align(lipgloss.Center)
	timerRunningStyle = timerStyle.Foreground(colorSuccess)

	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorFg)
	successStyle   = lipgloss.NewStyle().Foreground(colorSuccess)
	errorStyle     = lipgloss.NewStyle().Foreground(colorError)
	mutedStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	highlightStyle = lipgloss.NewStyle().Foreground(colorHighlight)

	headerStyle = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = mutedStyle.Padding(0, 1)

	selectedItemStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	normalItemStyle    = lipgloss.NewStyle().Foreground(colorFg)
	completedItemStyle = mutedStyle.Strikethrough(true)
)

func priorityStyle(p store.Priority) lipgloss.Style {
	switch p {
	case store.PriorityHigh:
		return lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	case store.PriorityMedium:
		return lipgloss.NewStyle().Foreground(colorWarning)
	case store.PriorityLow:
		return lipgloss.NewStyle().Foreground(colorHighlight)
	}
	return mutedStyle
}

// priorityBadge is always three cells wide so task rows stay aligned.
func priorityBadge(p store.Priority) string {
	switch p {
	case store.PriorityHigh:
		return priorityStyle(p).Render("!!!")
	case store.PriorityMedium:
		return priorityStyle(p).Render("!! ")
	case store.PriorityLow:
		return priorityStyle(p).Render("!  ")
	}
	return "   "
}
