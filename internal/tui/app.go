// Package tui is the interactive taskhub board.
package tui

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/taskhub/internal/config"
	"github.com/sadopc/taskhub/internal/export"
	"github.com/sadopc/taskhub/internal/stats"
	"github.com/sadopc/taskhub/internal/store"
	"github.com/sadopc/taskhub/internal/tracker"
)

var exportFormats = []string{"Entries (CSV)", "Entries (JSON)", "Tasks (JSON)", "Tasks (CSV)"}

// App is the root Bubble Tea model.
type App struct {
	store     *store.Store
	exportDir string
	width     int
	height    int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	dashboard dashboardModel
	tasks     tasksModel
	reports   reportsModel

	// events receives repository notifications; see subscribe.
	events chan store.Event

	help        help.Model
	status      string
	statusIsErr bool
}

func NewApp(s *store.Store, session *tracker.Session, engine *stats.Engine, cfg *config.Config) App {
	h := help.New()
	h.ShowAll = false

	return App{
		store:      s,
		exportDir:  cfg.Export.Dir,
		activeView: viewDashboard,
		dashboard:  newDashboardModel(s, engine, newTimerModel(session, s.Tasks), cfg.Stats.UnknownTaskLabel),
		tasks:      newTasksModel(s, engine, session),
		reports:    newReportsModel(engine),
		events:     make(chan store.Event, 64),
		help:       h,
	}
}

// Run opens the board full screen and blocks until the user quits.
func Run(s *store.Store, session *tracker.Session, engine *stats.Engine, cfg *config.Config) error {
	app := NewApp(s, session, engine, cfg)
	unsubscribe := app.subscribe()
	defer unsubscribe()

	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// subscribe forwards task and entry events into the app's channel. Listeners
// run inside repository calls, so a full channel drops the event rather than
// blocking the writer.
func (a App) subscribe() (cancel func()) {
	forward := func(e store.Event) {
		select {
		case a.events <- e:
		default:
		}
	}
	cancelTasks := a.store.Tasks.Subscribe(forward)
	cancelEntries := a.store.Entries.Subscribe(forward)
	return func() {
		cancelTasks()
		cancelEntries()
	}
}

func waitForEvent(events <-chan store.Event) tea.Cmd {
	return func() tea.Msg {
		return storeEventMsg{event: <-events}
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.dashboard.Init(),
		tickCmd(),
		waitForEvent(a.events),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.dashboard.setSize(a.width, contentHeight)
		a.tasks.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		if a.activeView == viewReports {
			return a, a.reports.refresh()
		}
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// A form captures all keys until it is done.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Stop):
			// Stop works from every view.
			var cmd tea.Cmd
			a.dashboard, cmd = a.dashboard.stopTimer()
			return a, cmd
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewDashboard
			return a, a.dashboard.loadData()
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewTasks
			return a, a.tasks.refresh()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewReports
			return a, a.reports.refresh()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, a.refreshCurrentView()
		}

	case tickMsg:
		cmds = append(cmds, tickCmd())
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case storeEventMsg:
		// Rerender whatever shows the changed data, then wait for the next event.
		cmds = append(cmds, waitForEvent(a.events), a.dashboard.loadData())
		if a.activeView != viewDashboard {
			cmds = append(cmds, a.refreshCurrentView())
		}
		return a, tea.Batch(cmds...)

	case statusMsg:
		a.status = msg.text
		a.statusIsErr = msg.isError
		return a, nil

	case timerStoppedMsg:
		a.dashboard.timer.sync()
		if msg.entry == nil {
			a.statusIsErr = false
		a.status = "Timer stopped, too short to record"
		} else {
			a.status = "Recorded " + formatMillis(msg.entry.Duration)
		}
		return a, nil

	case timerStartedMsg:
		a.dashboard.timer.sync()
		a.statusIsErr = false
		a.status = "Tracking " + a.dashboard.timer.taskTitle
		return a, nil

	case exportDoneMsg:
		a.statusIsErr = false
		a.status = "Exported to " + msg.path
		a.exportPicking = false
		return a, nil

	case dashboardDataMsg:
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.update(msg)
		return a, cmd

	case tasksDataMsg, historyDataMsg:
		var cmd tea.Cmd
		a.tasks, cmd = a.tasks.update(msg)
		return a, cmd

	case reportsDataMsg:
		var cmd tea.Cmd
		a.reports, cmd = a.reports.update(msg)
		return a, cmd
	}

	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewTasks:
		a.tasks, cmd = a.tasks.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	return a.activeView == viewTasks && a.tasks.formActive
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.loadData()
	case viewTasks:
		return a.tasks.refresh()
	case viewReports:
		return a.reports.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewDashboard:
		content = a.dashboard.view()
	case viewTasks:
		content = a.tasks.view()
	case viewReports:
		content = a.reports.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("taskhub")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusIsErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	timerInfo := ""
	if a.dashboard.isRunning() {
		timerInfo = successStyle.Render(" ● " + formatDuration(a.dashboard.elapsed()))
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	var rows []string
	rows = append(rows, titleStyle.Render("Export"), "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(choice int) tea.Cmd {
	return func() tea.Msg {
		tasks, err := a.store.Tasks.GetAll()
		if err != nil {
			return errStatus(err)
		}
		stamp := time.Now().Format("2006-01-02")

		var path string
		switch choice {
		case 0, 1:
			entries, err := a.store.Entries.List(store.EntryFilter{})
			if err != nil {
				return errStatus(err)
			}
			titles := make(map[int64]string, len(tasks))
			for _, t := range tasks {
				titles[t.ID] = t.Title
			}
			if choice == 0 {
				path = filepath.Join(a.exportDir, fmt.Sprintf("taskhub-entries-%s.csv", stamp))
				err = export.EntriesCSV(entries, titles, path)
			} else {
				path = filepath.Join(a.exportDir, fmt.Sprintf("taskhub-entries-%s.json", stamp))
				err = export.EntriesJSON(entries, titles, path)
			}
			if err != nil {
				return errStatus(err)
			}
		case 2:
			path = filepath.Join(a.exportDir, fmt.Sprintf("taskhub-tasks-%s.json", stamp))
			if err := export.TasksJSON(tasks, path); err != nil {
				return errStatus(err)
			}
		default:
			path = filepath.Join(a.exportDir, fmt.Sprintf("taskhub-tasks-%s.csv", stamp))
			if err := export.TasksCSV(tasks, path); err != nil {
				return errStatus(err)
			}
		}

		return exportDoneMsg{path: path}
	}
}
