package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/taskhub/internal/stats"
	"github.com/sadopc/taskhub/internal/store"
)

type dashboardModel struct {
	store  *store.Store
	stats  *stats.Engine
	timer  timerModel
	now    func() time.Time
	width  int
	height int

	today        stats.DayStat
	recent       []store.TimeEntry
	titles       map[int64]string
	openTasks    []store.Task
	unknownLabel string

	// Task picker state
	picking      bool
	pickerCursor int
}

func newDashboardModel(s *store.Store, engine *stats.Engine, timer timerModel, unknownLabel string) dashboardModel {
	return dashboardModel{
		store:        s,
		stats:        engine,
		timer:        timer,
		now:          time.Now,
		unknownLabel: unknownLabel,
	}
}

func (d dashboardModel) Init() tea.Cmd {
	return d.loadData()
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

func (d dashboardModel) isRunning() bool { return d.timer.running() }
func (d dashboardModel) elapsed() time.Duration {
	return d.timer.currentElapsed()
}

type dashboardDataMsg struct {
	today     stats.DayStat
	recent    []store.TimeEntry
	titles    map[int64]string
	openTasks []store.Task
}

func (d dashboardModel) loadData() tea.Cmd {
	return func() tea.Msg {
		today := store.DateOf(d.now())
		days, err := d.stats.PerDayBreakdown(today, today)
		if err != nil {
			return errStatus(err)
		}
		recent, err := d.store.Entries.List(store.EntryFilter{Limit: 5})
		if err != nil {
			return errStatus(err)
		}
		all, err := d.store.Tasks.GetAll()
		if err != nil {
			return errStatus(err)
		}

		titles := make(map[int64]string, len(all))
		var open []store.Task
		for _, t := range all {
			titles[t.ID] = t.Title
			if !t.Completed && !t.Archived {
				open = append(open, t)
			}
		}
		return dashboardDataMsg{
			today:     days[today],
			recent:    recent,
			titles:    titles,
			openTasks: open,
		}
	}
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		d.today = msg.today
		d.recent = msg.recent
		d.titles = msg.titles
		d.openTasks = msg.openTasks
		if d.pickerCursor >= len(d.openTasks) {
			d.pickerCursor = max(0, len(d.openTasks)-1)
		}
		d.timer.sync()
		return d, nil

	case tickMsg:
		d.timer.tick()
		return d, nil

	case tea.KeyMsg:
		if d.picking {
			return d.updatePicker(msg)
		}

		switch {
		case key.Matches(msg, keys.Start):
			if len(d.openTasks) == 0 {
				return d, func() tea.Msg {
					return statusMsg{text: "No open tasks. Press 2 to go to Tasks and add one.", isError: true}
				}
			}
			if len(d.openTasks) == 1 {
				return d.startTimer(d.openTasks[0].ID)
			}
			d.picking = true
			d.pickerCursor = 0
			return d, nil

		case key.Matches(msg, keys.Stop):
			return d.stopTimer()
		}
	}
	return d, nil
}

func (d dashboardModel) updatePicker(msg tea.KeyMsg) (dashboardModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if d.pickerCursor > 0 {
			d.pickerCursor--
		}
	case key.Matches(msg, keys.Down):
		if d.pickerCursor < len(d.openTasks)-1 {
			d.pickerCursor++
		}
	case key.Matches(msg, keys.Enter):
		d.picking = false
		if d.pickerCursor < len(d.openTasks) {
			return d.startTimer(d.openTasks[d.pickerCursor].ID)
		}
	case key.Matches(msg, keys.Back):
		d.picking = false
	}
	return d, nil
}

func (d dashboardModel) startTimer(taskID int64) (dashboardModel, tea.Cmd) {
	if err := d.timer.start(taskID); err != nil {
		return d, func() tea.Msg { return errStatus(err) }
	}
	return d, tea.Batch(
		d.loadData(),
		func() tea.Msg { return timerStartedMsg{taskID: taskID} },
	)
}

func (d dashboardModel) stopTimer() (dashboardModel, tea.Cmd) {
	if !d.timer.running() {
		return d, nil
	}
	entry, err := d.timer.stop()
	if err != nil {
		return d, func() tea.Msg { return errStatus(err) }
	}
	return d, tea.Batch(
		d.loadData(),
		func() tea.Msg { return timerStoppedMsg{entry: entry} },
	)
}

func (d dashboardModel) title(id int64) string {
	if t, ok := d.titles[id]; ok {
		return t
	}
	return d.unknownLabel
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}

	contentWidth := d.width - 4

	timerPanel := d.renderTimerPanel(contentWidth)
	summaryPanel := d.renderSummaryPanel(contentWidth)

	var bottomPanel string
	if d.picking {
		bottomPanel = d.renderTaskPicker(contentWidth)
	} else {
		bottomPanel = d.renderRecentPanel(contentWidth)
	}

	return lipgloss.JoinVertical(lipgloss.Left, timerPanel, summaryPanel, bottomPanel)
}

func (d dashboardModel) renderTimerPanel(w int) string {
	if d.timer.running() {
		timeDisplay := timerRunningStyle.Width(w - 6).Render(formatDuration(d.timer.elapsed))
		indicator := successStyle.Render("●  TRACKING")
		taskLine := highlightStyle.Render(d.timer.taskTitle)

		content := lipgloss.JoinVertical(lipgloss.Center,
			timeDisplay,
			indicator,
			taskLine,
		)
		return activePanelStyle.Width(w).Render(content)
	}

	timeDisplay := timerStyle.Width(w - 6).Render("00:00:00")
	indicator := mutedStyle.Render("■  IDLE")
	hint := mutedStyle.Render("Press s to start tracking a task")

	content := lipgloss.JoinVertical(lipgloss.Center,
		timeDisplay,
		indicator,
		hint,
	)
	return panelStyle.Width(w).Render(content)
}

func (d dashboardModel) renderSummaryPanel(w int) string {
	title := titleStyle.Render("Today")
	total := highlightStyle.Render(formatMillis(d.today.TotalTime))
	header := fmt.Sprintf("%s  %s", title, total)

	if len(d.today.Tasks) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			header,
			mutedStyle.Render("Nothing tracked today"),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, header)
	for i, t := range d.today.Tasks {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(taskColors[i%len(taskColors)])).Render("●")
		rows = append(rows, fmt.Sprintf("  %s %-28s %s", dot, truncate(t.Title, 28), formatMillis(t.Time)))
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderRecentPanel(w int) string {
	title := titleStyle.Render("Recent Entries")
	if len(d.recent) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No entries yet"),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	for _, e := range d.recent {
		startStr := e.StartTime.Local().Format("Jan 02 15:04")
		row := fmt.Sprintf("  ✓ %s  %-24s %s", startStr, truncate(d.title(e.TaskID), 24), formatMillis(e.Duration))
		rows = append(rows, row)
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderTaskPicker(w int) string {
	title := titleStyle.Render("Select Task")

	var rows []string
	rows = append(rows, title)
	for i, t := range d.openTasks {
		cursor := "  "
		style := normalItemStyle
		if i == d.pickerCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor)+priorityBadge(t.Priority)+" "+style.Render(t.Title))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: select  esc: cancel"))

	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
