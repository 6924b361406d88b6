package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/taskhub/internal/stats"
	"github.com/sadopc/taskhub/internal/store"
	"github.com/sadopc/taskhub/internal/tracker"
)

var taskCategories = []string{"", "work", "personal", "learning", "other"}

type tasksModel struct {
	store   *store.Store
	stats   *stats.Engine
	session *tracker.Session
	width   int
	height  int

	tasks   []store.Task
	cursor  int
	showAll bool // include completed and archived tasks

	viewingHistory bool
	history        []stats.DayEntries

	formActive bool
	form       *huh.Form

	// Form field pointers (survive value copies)
	formTitle    *string
	formPriority *string
	formCategory *string
	formDue      *string
}

func newTasksModel(s *store.Store, engine *stats.Engine, session *tracker.Session) tasksModel {
	title, priority, category, due := "", "", "", ""
	return tasksModel{
		store:        s,
		stats:        engine,
		session:      session,
		formTitle:    &title,
		formPriority: &priority,
		formCategory: &category,
		formDue:      &due,
	}
}

func (p *tasksModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

type tasksDataMsg struct {
	tasks []store.Task
}

type historyDataMsg struct {
	taskID int64
	days   []stats.DayEntries
}

func (p tasksModel) refresh() tea.Cmd {
	showAll := p.showAll
	return func() tea.Msg {
		var f store.TaskFilter
		if !showAll {
			no := false
			f.Completed = &no
			f.Archived = &no
		}
		tasks, err := p.store.Tasks.Find(f)
		if err != nil {
			return errStatus(err)
		}
		return tasksDataMsg{tasks: tasks}
	}
}

func (p tasksModel) refreshHistory() tea.Cmd {
	task, ok := p.selected()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		days, err := p.stats.TaskHistory(task.ID)
		if err != nil {
			return errStatus(err)
		}
		return historyDataMsg{taskID: task.ID, days: days}
	}
}

func (p tasksModel) selected() (store.Task, bool) {
	if p.cursor < 0 || p.cursor >= len(p.tasks) {
		return store.Task{}, false
	}
	return p.tasks[p.cursor], true
}

func (p tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tasksDataMsg:
		p.tasks = msg.tasks
		if p.cursor >= len(p.tasks) {
			p.cursor = max(0, len(p.tasks)-1)
		}
		if p.viewingHistory {
			return p, p.refreshHistory()
		}
		return p, nil

	case historyDataMsg:
		if t, ok := p.selected(); ok && t.ID == msg.taskID {
			p.history = msg.days
		}
		return p, nil

	case tea.KeyMsg:
		if p.viewingHistory {
			if key.Matches(msg, keys.Back) {
				p.viewingHistory = false
				p.history = nil
			}
			return p, nil
		}
		return p.updateList(msg)
	}
	return p, nil
}

func (p tasksModel) updateList(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(msg, keys.Down):
		if p.cursor < len(p.tasks)-1 {
			p.cursor++
		}
	case key.Matches(msg, keys.Enter):
		if _, ok := p.selected(); ok {
			p.viewingHistory = true
			return p, p.refreshHistory()
		}
	case key.Matches(msg, keys.New):
		return p.showNewTaskForm()
	case key.Matches(msg, keys.Filter):
		p.showAll = !p.showAll
		p.cursor = 0
		return p, p.refresh()
	case key.Matches(msg, keys.Complete):
		if t, ok := p.selected(); ok {
			t.Completed = !t.Completed
			if _, err := p.store.Tasks.Save(t); err != nil {
				return p, func() tea.Msg { return errStatus(err) }
			}
			return p, p.refresh()
		}
	case key.Matches(msg, keys.Archive):
		if t, ok := p.selected(); ok {
			return p, p.toggleArchived(t)
		}
	case key.Matches(msg, keys.Start):
		if t, ok := p.selected(); ok {
			if err := p.session.Start(t.ID); err != nil {
				return p, func() tea.Msg { return errStatus(err) }
			}
			return p, func() tea.Msg { return timerStartedMsg{taskID: t.ID} }
		}
	case key.Matches(msg, keys.Delete):
		if t, ok := p.selected(); ok {
			return p, p.deleteTask(t)
		}
	}
	return p, nil
}

func (p tasksModel) deleteTask(t store.Task) tea.Cmd {
	var cmds []tea.Cmd
	if st := p.session.Status(); st.State == tracker.Tracking && st.TaskID == t.ID {
		entry, err := p.session.Stop()
		if err != nil {
			return func() tea.Msg { return errStatus(err) }
		}
		cmds = append(cmds, func() tea.Msg { return timerStoppedMsg{entry: entry} })
	}
	if _, err := p.store.Tasks.Delete(t.ID); err != nil {
		return func() tea.Msg { return errStatus(err) }
	}
	cmds = append(cmds, p.refresh(), func() tea.Msg {
		return statusMsg{text: fmt.Sprintf("Deleted %q", t.Title)}
	})
	return tea.Batch(cmds...)
}

func (p tasksModel) toggleArchived(t store.Task) tea.Cmd {
	t.Archived = !t.Archived
	if _, err := p.store.Tasks.Save(t); err != nil {
		return func() tea.Msg { return errStatus(err) }
	}
	verb := "Archived"
	if !t.Archived {
		verb = "Restored"
	}
	return tea.Batch(p.refresh(), func() tea.Msg {
		return statusMsg{text: fmt.Sprintf("%s %q", verb, t.Title)}
	})
}

func validateDue(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", strings.TrimSpace(s)); err != nil {
		return errors.New("use YYYY-MM-DD")
	}
	return nil
}

func (p tasksModel) showNewTaskForm() (tasksModel, tea.Cmd) {
	*p.formTitle = ""
	*p.formPriority = string(store.PriorityUnset)
	*p.formCategory = ""
	*p.formDue = ""

	priorityOptions := []huh.Option[string]{
		huh.NewOption("none", string(store.PriorityUnset)),
		huh.NewOption("high", string(store.PriorityHigh)),
		huh.NewOption("medium", string(store.PriorityMedium)),
		huh.NewOption("low", string(store.PriorityLow)),
	}
	catOptions := make([]huh.Option[string], len(taskCategories))
	for i, c := range taskCategories {
		label := c
		if c == "" {
			label = "none"
		}
		catOptions[i] = huh.NewOption(label, c)
	}

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(p.formTitle).Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("title is required")
				}
				return nil
			}),
			huh.NewSelect[string]().Title("Priority").Options(priorityOptions...).Value(p.formPriority),
			huh.NewSelect[string]().Title("Category").Options(catOptions...).Value(p.formCategory),
			huh.NewInput().Title("Due date").Placeholder("YYYY-MM-DD").Value(p.formDue).Validate(validateDue),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			p.formActive = false
			p.form = nil
			return p, nil
		}
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	if p.form.State == huh.StateCompleted {
		p.formActive = false
		p.form = nil
		return p, p.saveForm()
	}

	return p, cmd
}

func (p tasksModel) saveForm() tea.Cmd {
	title := strings.TrimSpace(*p.formTitle)
	if title == "" {
		return nil
	}
	t, err := p.store.Tasks.Save(store.Task{
		Title:    title,
		Priority: store.Priority(*p.formPriority),
		Category: *p.formCategory,
		DueDate:  strings.TrimSpace(*p.formDue),
	})
	if err != nil {
		return func() tea.Msg { return errStatus(err) }
	}
	return tea.Batch(p.refresh(), func() tea.Msg {
		return statusMsg{text: fmt.Sprintf("Added %q", t.Title)}
	})
}

func (p tasksModel) view() string {
	if p.formActive && p.form != nil {
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("New Task"), "", p.form.View())
		return panelStyle.Width(p.width - 4).Render(content)
	}
	if p.viewingHistory {
		return p.renderHistory()
	}
	return p.renderTaskList()
}

func (p tasksModel) renderTaskList() string {
	w := p.width - 4
	label := "Open tasks"
	if p.showAll {
		label = "All tasks"
	}
	title := titleStyle.Render(label)

	if len(p.tasks) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No tasks. Press n to add one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	st := p.session.Status()
	var rows []string
	rows = append(rows, title, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("     %-3s %-30s %-10s %-10s %8s", "", "Title", "Category", "Due", "Time")))

	for i, t := range p.tasks {
		cursor := "  "
		style := normalItemStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		check := "[ ]"
		if t.Completed {
			check = "[x]"
			if i != p.cursor {
				style = completedItemStyle
			}
		}
		mark := " "
		if st.State == tracker.Tracking && st.TaskID == t.ID {
			mark = successStyle.Render("●")
		} else if t.Archived {
			mark = mutedStyle.Render("a")
		}
		due := t.DueDate
		if due != "" && !t.Completed && due < store.DateOf(time.Now()) {
			due = errorStyle.Render(fmt.Sprintf("%-10s", due))
		} else {
			due = fmt.Sprintf("%-10s", due)
		}
		row := style.Render(cursor+check) + " " + priorityBadge(t.Priority) + " " +
			style.Render(fmt.Sprintf("%-30s %-10s", truncate(t.Title, 30), truncate(t.Category, 10))) + " " +
			due + " " + mutedStyle.Render(fmt.Sprintf("%8s", formatMillis(t.TimeSpent))) + " " + mark
		rows = append(rows, row)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  space: done  s: track  a: archive  d: delete  f: open/all  enter: history"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (p tasksModel) renderHistory() string {
	w := p.width - 4
	task, ok := p.selected()
	if !ok {
		return panelStyle.Width(w).Render(mutedStyle.Render("No task selected"))
	}
	title := titleStyle.Render(fmt.Sprintf("%s  History", task.Title))

	if len(p.history) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No time recorded for this task."),
			"",
			mutedStyle.Render("  esc: back"),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title, "")
	var total int64
	for _, day := range p.history {
		total += day.TotalTime
		rows = append(rows, highlightStyle.Render(fmt.Sprintf("%s  %s", day.Date, formatMillis(day.TotalTime))))
		for _, e := range day.Entries {
			rows = append(rows, fmt.Sprintf("    %s - %s  %s",
				e.StartTime.Local().Format("15:04:05"), e.EndTime.Local().Format("15:04:05"), formatMillis(e.Duration)))
		}
	}
	rows = append(rows, "", titleStyle.Render("Total  "+formatMillis(total)))
	rows = append(rows, "", mutedStyle.Render("  esc: back"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
