package tui

import (
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/taskhub/internal/config"
	"github.com/sadopc/taskhub/internal/stats"
	"github.com/sadopc/taskhub/internal/store"
	"github.com/sadopc/taskhub/internal/tracker"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time         { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	store   *store.Store
	session *tracker.Session
	stats   *stats.Engine
	clock   *fakeClock
}

// newFixture returns an empty store and session on a clock fixed at
// Wednesday 2024-01-17 09:00 UTC.
func newFixture(t *testing.T) fixture {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 1, 17, 9, 0, 0, 0, time.UTC)}
	s, err := store.NewMemory(store.WithClock(clock.now))
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	sess, err := tracker.New(s.Tasks, s.Entries, s.KV, tracker.WithClock(clock.now))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	t.Cleanup(sess.Close)

	return fixture{
		store:   s,
		session: sess,
		stats:   stats.New(s.Entries, s.Tasks, stats.DefaultUnknownLabel),
		clock:   clock,
	}
}

func (f fixture) addTask(t *testing.T, id int64, title string) {
	t.Helper()
	if _, err := f.store.Tasks.Save(store.Task{ID: id, Title: title}); err != nil {
		t.Fatal(err)
	}
}

// track records d of time on taskID through the session.
func (f fixture) track(t *testing.T, taskID int64, d time.Duration) {
	t.Helper()
	if err := f.session.Start(taskID); err != nil {
		t.Fatal(err)
	}
	f.clock.advance(d)
	if _, err := f.session.Stop(); err != nil {
		t.Fatal(err)
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// ============================================================
// Timer model
// ============================================================

func TestTimerStartStop(t *testing.T) {
	f := newFixture(t)
	f.addTask(t, 1, "Write report")

	tm := newTimerModel(f.session, f.store.Tasks)
	if tm.running() {
		t.Fatal("timer should start stopped")
	}

	if err := tm.start(1); err != nil {
		t.Fatal(err)
	}
	if !tm.running() {
		t.Fatal("timer should be running after start")
	}
	if tm.taskTitle != "Write report" || tm.taskID() != 1 {
		t.Fatalf("task info not set: %q %d", tm.taskTitle, tm.taskID())
	}

	f.clock.advance(10 * time.Second)
	entry, err := tm.stop()
	if err != nil {
		t.Fatal(err)
	}
	if entry == nil || entry.Duration != 10000 {
		t.Fatalf("expected a 10s entry, got %+v", entry)
	}
	if tm.running() || tm.taskTitle != "" {
		t.Fatal("timer should be stopped and cleared")
	}
}

func TestTimerStopWhenStopped(t *testing.T) {
	f := newFixture(t)
	tm := newTimerModel(f.session, f.store.Tasks)

	entry, err := tm.stop()
	if err != nil {
		t.Fatal(err)
	}
	if entry != nil {
		t.Fatal("stop on stopped timer should return nil")
	}
}

func TestTimerShortIntervalNotRecorded(t *testing.T) {
	f := newFixture(t)
	f.addTask(t, 1, "Write report")

	tm := newTimerModel(f.session, f.store.Tasks)
	tm.start(1)
	f.clock.advance(2 * time.Second)

	entry, err := tm.stop()
	if err != nil {
		t.Fatal(err)
	}
	if entry != nil {
		t.Fatalf("2s interval should not be recorded, got %+v", entry)
	}
	if tm.running() {
		t.Fatal("timer should be stopped")
	}
}

func TestTimerTick(t *testing.T) {
	f := newFixture(t)
	f.addTask(t, 1, "Write report")

	tm := newTimerModel(f.session, f.store.Tasks)
	tm.start(1)
	f.clock.advance(3 * time.Second)
	tm.tick()

	if tm.elapsed != 3*time.Second {
		t.Fatalf("expected 3s elapsed, got %v", tm.elapsed)
	}
	if tm.currentElapsed() != 3*time.Second {
		t.Fatalf("currentElapsed = %v", tm.currentElapsed())
	}
}

func TestTimerTickWhenStopped(t *testing.T) {
	f := newFixture(t)
	tm := newTimerModel(f.session, f.store.Tasks)
	f.clock.advance(time.Minute)
	tm.tick()
	if tm.elapsed != 0 {
		t.Fatalf("stopped timer should not tick, got %v", tm.elapsed)
	}
}

func TestTimerSyncPicksUpSessionStartedElsewhere(t *testing.T) {
	f := newFixture(t)
	f.addTask(t, 1, "Write report")

	tm := newTimerModel(f.session, f.store.Tasks)
	if err := f.session.Start(1); err != nil {
		t.Fatal(err)
	}
	tm.sync()
	if tm.taskTitle != "Write report" {
		t.Fatalf("sync should load title, got %q", tm.taskTitle)
	}
}

func TestTimerSyncDeletedTask(t *testing.T) {
	f := newFixture(t)
	f.addTask(t, 1, "Write report")

	tm := newTimerModel(f.session, f.store.Tasks)
	tm.start(1)
	f.store.Tasks.Delete(1)
	tm.sync()
	if tm.taskTitle != "?" {
		t.Fatalf("expected placeholder title, got %q", tm.taskTitle)
	}
}

// ============================================================
// Helpers
// ============================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{time.Second, "00:00:01"},
		{time.Minute, "00:01:00"},
		{time.Hour, "01:00:00"},
		{2*time.Hour + 30*time.Minute + 15*time.Second, "02:30:15"},
		{-time.Second, "00:00:00"},
	}
	for _, tt := range tests {
		got := formatDuration(tt.d)
		if got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatMillis(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "00:00:00"},
		{999, "00:00:00"},
		{5000, "00:00:05"},
		{3723000, "01:02:03"},
	}
	for _, tt := range tests {
		got := formatMillis(tt.ms)
		if got != tt.want {
			t.Errorf("formatMillis(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestFormatHours(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "0.0h"},
		{1800000, "0.5h"},
		{3600000, "1.0h"},
		{5400000, "1.5h"},
	}
	for _, tt := range tests {
		got := formatHours(tt.ms)
		if got != tt.want {
			t.Errorf("formatHours(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		s    string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 8, "this is…"},
		{"héllo wörld", 5, "héll…"},
		{"abc", 1, "…"},
		{"abc", 0, "abc"},
	}
	for _, tt := range tests {
		got := truncate(tt.s, tt.n)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.s, tt.n, got, tt.want)
		}
	}
}

func TestValidateDue(t *testing.T) {
	if err := validateDue(""); err != nil {
		t.Fatalf("empty due date should be allowed: %v", err)
	}
	if err := validateDue("2024-02-01"); err != nil {
		t.Fatalf("valid date rejected: %v", err)
	}
	if err := validateDue("02/01/2024"); err == nil {
		t.Fatal("expected error for wrong layout")
	}
}

// ============================================================
// View state
// ============================================================

func TestViewNames(t *testing.T) {
	if len(viewNames) != 3 {
		t.Fatalf("expected 3 view names, got %d", len(viewNames))
	}
	expected := []string{"Dashboard", "Tasks", "Reports"}
	for i, name := range expected {
		if viewNames[i] != name {
			t.Errorf("viewNames[%d] = %q, want %q", i, viewNames[i], name)
		}
	}
}

func TestViewStateConstants(t *testing.T) {
	if viewDashboard != 0 || viewTasks != 1 || viewReports != 2 {
		t.Fatal("view state constants out of order")
	}
}

// ============================================================
// Dashboard
// ============================================================

func newTestDashboard(f fixture) dashboardModel {
	d := newDashboardModel(f.store, f.stats, newTimerModel(f.session, f.store.Tasks), "Unknown task")
	d.now = f.clock.now
	d.setSize(100, 40)
	return d
}

func TestDashboardLoadData(t *testing.T) {
	f := newFixture(t)
	f.addTask(t, 1, "Write report")
	f.addTask(t, 2, "Review PR")
	f.store.Tasks.Save(store.Task{ID: 3, Title: "Done already", Completed: true})
	f.track(t, 1, 30*time.Second)
	f.track(t, 2, 10*time.Second)

	d := newTestDashboard(f)
	msg := d.loadData()()
	data, ok := msg.(dashboardDataMsg)
	if !ok {
		t.Fatalf("expected dashboardDataMsg, got %T", msg)
	}
	d, _ = d.update(data)

	if d.today.TotalTime != 40000 {
		t.Fatalf("today total = %d, want 40000", d.today.TotalTime)
	}
	if len(d.today.Tasks) != 2 || d.today.Tasks[0].Title != "Write report" {
		t.Fatalf("unexpected today breakdown: %+v", d.today.Tasks)
	}
	if len(d.recent) != 2 {
		t.Fatalf("expected 2 recent entries, got %d", len(d.recent))
	}
	if len(d.openTasks) != 2 {
		t.Fatalf("completed tasks should not be pickable, got %d open", len(d.openTasks))
	}

	view := d.view()
	if !strings.Contains(view, "Write report") || !strings.Contains(view, "IDLE") {
		t.Fatalf("view missing expected content:\n%s", view)
	}
}

func TestDashboardRecentUnknownTask(t *testing.T) {
	f := newFixture(t)
	f.addTask(t, 1, "Write report")
	f.track(t, 1, 30*time.Second)
	f.store.Tasks.Delete(1)

	d := newTestDashboard(f)
	d, _ = d.update(d.loadData()())
	if got := d.title(1); got != "Unknown task" {
		t.Fatalf("title of deleted task = %q", got)
	}
}

func TestDashboardStartStop(t *testing.T) {
	f := newFixture(t)
	f.addTask(t, 1, "Write report")

	d := newTestDashboard(f)
	d, _ = d.update(d.loadData()())

	// A single open task starts without the picker.
	d, cmd := d.update(runes("s"))
	if cmd == nil {
		t.Fatal("start should return a command")
	}
	if d.picking {
		t.Fatal("picker should not open for a single task")
	}
	if !d.isRunning() {
		t.Fatal("timer should be running")
	}

	f.clock.advance(time.Minute)
	if d.elapsed() != time.Minute {
		t.Fatalf("elapsed = %v", d.elapsed())
	}
	if !strings.Contains(d.view(), "TRACKING") {
		t.Fatal("view should show tracking state")
	}

	d, cmd = d.update(runes("x"))
	if cmd == nil {
		t.Fatal("stop should return a command")
	}
	if d.isRunning() {
		t.Fatal("timer should be stopped")
	}
	total, _ := f.store.Entries.TotalForTask(1)
	if total != 60000 {
		t.Fatalf("recorded total = %d, want 60000", total)
	}
}

func TestDashboardPickerWithSeveralTasks(t *testing.T) {
	f := newFixture(t)
	f.addTask(t, 1, "Write report")
	f.addTask(t, 2, "Review PR")

	d := newTestDashboard(f)
	d, _ = d.update(d.loadData()())

	d, _ = d.update(runes("s"))
	if !d.picking {
		t.Fatal("picker should open with several open tasks")
	}
	if !strings.Contains(d.view(), "Select Task") {
		t.Fatal("view should render the picker")
	}

	d, _ = d.update(tea.KeyMsg{Type: tea.KeyDown})
	d, _ = d.update(tea.KeyMsg{Type: tea.KeyEnter})
	if d.picking {
		t.Fatal("picker should close after selection")
	}
	if st := f.session.Status(); st.State != tracker.Tracking || st.TaskID != 2 {
		t.Fatalf("expected tracking task 2, got %+v", st)
	}
}

func TestDashboardPickerCancel(t *testing.T) {
	f := newFixture(t)
	f.addTask(t, 1, "Write report")
	f.addTask(t, 2, "Review PR")

	d := newTestDashboard(f)
	d, _ = d.update(d.loadData()())
	d, _ = d.update(runes("s"))
	d, _ = d.update(tea.KeyMsg{Type: tea.KeyEsc})

	if d.picking || d.isRunning() {
		t.Fatal("esc should close the picker without starting")
	}
}

func TestDashboardStartWithNoTasks(t *testing.T) {
	f := newFixture(t)
	d := newTestDashboard(f)
	d, _ = d.update(d.loadData()())

	_, cmd := d.update(runes("s"))
	if cmd == nil {
		t.Fatal("expected a status command")
	}
	msg, ok := cmd().(statusMsg)
	if !ok || !msg.isError {
		t.Fatalf("expected error status, got %#v", msg)
	}
}

// ============================================================
// Tasks view
// ============================================================

func newTestTasks(t *testing.T, f fixture) tasksModel {
	t.Helper()
	p := newTasksModel(f.store, f.stats, f.session)
	p.setSize(100, 40)
	p, _ = p.update(p.refresh()())
	return p
}

func TestTasksRefreshHidesCompleted(t *testing.T) {
	f := newFixture(t)
	f.addTask(t, 1, "Write report")
	f.store.Tasks.Save(store.Task{ID: 2, Title: "Done already", Completed: true})
	f.store.Tasks.Save(store.Task{ID: 3, Title: "Old", Archived: true})

	p := newTestTasks(t, f)
	if len(p.tasks) != 1 {
		t.Fatalf("expected 1 open task, got %d", len(p.tasks))
	}

	p, cmd := p.update(runes("f"))
	if !p.showAll {
		t.Fatal("f should toggle showAll")
	}
	p, _ = p.update(cmd())
	if len(p.tasks) != 3 {
		t.Fatalf("expected all 3 tasks, got %d", len(p.tasks))
	}
	if !strings.Contains(p.view(), "All tasks") {
		t.Fatal("view should label the unfiltered list")
	}
}

func TestTasksToggleComplete(t *testing.T) {
	f := newFixture(t)
	f.addTask(t, 1, "Write report")

	p := newTestTasks(t, f)
	p, _ = p.update(tea.KeyMsg{Type: tea.KeySpace})

	task, _ := f.store.Tasks.GetByID(1)
	if !task.Completed {
		t.Fatal("space should mark the task completed")
	}
}

func TestTasksArchiveToggle(t *testing.T) {
	f := newFixture(t)
	f.addTask(t, 1, "Write report")

	p := newTestTasks(t, f)
	p, cmd := p.update(runes("a"))
	if cmd == nil {
		t.Fatal("archive should return a command")
	}
	task, _ := f.store.Tasks.GetByID(1)
	if !task.Archived {
		t.Fatal("a should archive the selected task")
	}

	p, _ = p.update(p.refresh()())
	if len(p.tasks) != 0 {
		t.Fatalf("archived task should leave the open list, got %d", len(p.tasks))
	}

	p, cmd = p.update(runes("f"))
	p, _ = p.update(cmd())
	if len(p.tasks) != 1 || !p.tasks[0].Archived {
		t.Fatalf("show-all list should include the archived task: %+v", p.tasks)
	}
	p.update(runes("a"))
	task, _ = f.store.Tasks.GetByID(1)
	if task.Archived {
		t.Fatal("a on an archived task should restore it")
	}
}

func TestTasksStartTracking(t *testing.T) {
	f := newFixture(t)
	f.addTask(t, 1, "Write report")

	p := newTestTasks(t, f)
	_, cmd := p.update(runes("s"))
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if msg, ok := cmd().(timerStartedMsg); !ok || msg.taskID != 1 {
		t.Fatalf("expected timerStartedMsg for task 1, got %#v", msg)
	}
	if f.session.Status().TaskID != 1 {
		t.Fatal("session should be tracking task 1")
	}
}

func TestTasksDeleteStopsTracking(t *testing.T) {
	f := newFixture(t)
	f.addTask(t, 1, "Write report")
	if err := f.session.Start(1); err != nil {
		t.Fatal(err)
	}
	f.clock.advance(20 * time.Second)

	p := newTestTasks(t, f)
	_, cmd := p.update(runes("d"))
	if cmd == nil {
		t.Fatal("delete should return a command")
	}

	if f.session.Status().State != tracker.Idle {
		t.Fatal("deleting the tracked task should stop the session")
	}
	if task, _ := f.store.Tasks.GetByID(1); task != nil {
		t.Fatal("task should be deleted")
	}
	// The recorded entry survives its task.
	entries, _ := f.store.Entries.GetForTask(1)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry kept, got %d", len(entries))
	}
}

func TestTasksNewForm(t *testing.T) {
	f := newFixture(t)
	p := newTestTasks(t, f)

	p, _ = p.update(runes("n"))
	if !p.formActive || p.form == nil {
		t.Fatal("n should open the form")
	}
	if !strings.Contains(p.view(), "New Task") {
		t.Fatal("view should render the form")
	}

	p, _ = p.update(tea.KeyMsg{Type: tea.KeyEsc})
	if p.formActive {
		t.Fatal("esc should close the form")
	}
}

func TestTasksSaveForm(t *testing.T) {
	f := newFixture(t)
	p := newTestTasks(t, f)

	*p.formTitle = "  Plan sprint "
	*p.formPriority = string(store.PriorityHigh)
	*p.formCategory = "work"
	*p.formDue = "2024-01-20"
	if cmd := p.saveForm(); cmd == nil {
		t.Fatal("save should return a command")
	}

	tasks, _ := f.store.Tasks.GetAll()
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	got := tasks[0]
	if got.Title != "Plan sprint" || got.Priority != store.PriorityHigh || got.Category != "work" || got.DueDate != "2024-01-20" {
		t.Fatalf("unexpected task: %+v", got)
	}
	if got.CreatedAt != "2024-01-17" {
		t.Fatalf("createdAt = %q", got.CreatedAt)
	}
}

func TestTasksSaveFormEmptyTitle(t *testing.T) {
	f := newFixture(t)
	p := newTestTasks(t, f)

	*p.formTitle = "   "
	if cmd := p.saveForm(); cmd != nil {
		t.Fatal("blank title should not save")
	}
	if n, _ := f.store.Tasks.Count(); n != 0 {
		t.Fatalf("expected no tasks, got %d", n)
	}
}

func TestTasksHistory(t *testing.T) {
	f := newFixture(t)
	f.addTask(t, 1, "Write report")
	f.track(t, 1, 30*time.Second)
	f.clock.advance(24 * time.Hour)
	f.track(t, 1, 15*time.Second)

	p := newTestTasks(t, f)
	p, cmd := p.update(tea.KeyMsg{Type: tea.KeyEnter})
	if !p.viewingHistory || cmd == nil {
		t.Fatal("enter should open history")
	}
	p, _ = p.update(cmd())

	if len(p.history) != 2 {
		t.Fatalf("expected 2 days of history, got %d", len(p.history))
	}
	if p.history[0].Date != "2024-01-18" {
		t.Fatalf("newest day should come first, got %s", p.history[0].Date)
	}
	if !strings.Contains(p.view(), "00:00:45") {
		t.Fatalf("history should show the total:\n%s", p.view())
	}

	p, _ = p.update(tea.KeyMsg{Type: tea.KeyEsc})
	if p.viewingHistory {
		t.Fatal("esc should leave history")
	}
}

// ============================================================
// Reports
// ============================================================

func TestReportsDateRange(t *testing.T) {
	r := newReportsModel(nil)
	r.now = func() time.Time { return time.Date(2024, 1, 17, 12, 0, 0, 0, time.UTC) }

	tests := []struct {
		mode     reportMode
		offset   int
		from, to string
	}{
		{reportWeekly, 0, "2024-01-15", "2024-01-21"},
		{reportWeekly, 1, "2024-01-08", "2024-01-14"},
		{reportMonthly, 0, "2024-01-01", "2024-01-31"},
		{reportMonthly, 1, "2023-12-01", "2023-12-31"},
		{reportMonthly, 11, "2023-02-01", "2023-02-28"},
	}
	for _, tt := range tests {
		r.mode = tt.mode
		r.offset = tt.offset
		from, to := r.dateRange()
		if from.Format("2006-01-02") != tt.from || to.Format("2006-01-02") != tt.to {
			t.Errorf("mode %d offset %d: got %s..%s, want %s..%s",
				tt.mode, tt.offset, from.Format("2006-01-02"), to.Format("2006-01-02"), tt.from, tt.to)
		}
	}
}

func TestReportsWeekStartsMondayOnSunday(t *testing.T) {
	r := newReportsModel(nil)
	r.now = func() time.Time { return time.Date(2024, 1, 21, 12, 0, 0, 0, time.UTC) }
	from, to := r.dateRange()
	if from.Format("2006-01-02") != "2024-01-15" || to.Format("2006-01-02") != "2024-01-21" {
		t.Fatalf("got %s..%s", from, to)
	}
}

func TestReportsRefreshAndRender(t *testing.T) {
	f := newFixture(t)
	f.addTask(t, 1, "Write report")
	f.addTask(t, 2, "Review PR")
	f.track(t, 1, 90*time.Second)
	f.track(t, 2, 30*time.Second)

	r := newReportsModel(f.stats)
	r.now = f.clock.now
	r.setSize(100, 40)

	msg, ok := r.refresh()().(reportsDataMsg)
	if !ok {
		t.Fatal("expected reportsDataMsg")
	}
	r, _ = r.update(msg)

	if r.report.TotalTime != 120000 {
		t.Fatalf("total = %d, want 120000", r.report.TotalTime)
	}
	if len(r.report.Tasks) != 2 || r.report.Tasks[0].Percentage != 75 {
		t.Fatalf("unexpected breakdown: %+v", r.report.Tasks)
	}
	if r.taskColor(1) == r.taskColor(2) {
		t.Fatal("tasks should get distinct colours")
	}

	view := r.view()
	for _, want := range []string{"Reports", "Write report", "75%"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestReportsNavigation(t *testing.T) {
	f := newFixture(t)
	r := newReportsModel(f.stats)
	r.now = f.clock.now

	r, cmd := r.update(tea.KeyMsg{Type: tea.KeyLeft})
	if r.offset != 1 || cmd == nil {
		t.Fatalf("left should go back one period, offset=%d", r.offset)
	}
	r, _ = r.update(tea.KeyMsg{Type: tea.KeyRight})
	r, _ = r.update(tea.KeyMsg{Type: tea.KeyRight})
	if r.offset != 0 {
		t.Fatalf("offset should not go below 0, got %d", r.offset)
	}

	r.offset = 3
	r, _ = r.update(runes("f"))
	if r.mode != reportMonthly || r.offset != 0 {
		t.Fatal("f should switch to monthly and reset the offset")
	}
}

func TestReportsEmptyPeriod(t *testing.T) {
	f := newFixture(t)
	r := newReportsModel(f.stats)
	r.now = f.clock.now
	r.setSize(100, 40)
	r, _ = r.update(r.refresh()())

	if !strings.Contains(r.view(), "No time tracked") {
		t.Fatal("empty period should say so")
	}
}

// ============================================================
// App
// ============================================================

func newTestApp(t *testing.T, f fixture) App {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Export.Dir = t.TempDir()
	app := NewApp(f.store, f.session, f.stats, cfg)
	app.dashboard.now = f.clock.now
	app.reports.now = f.clock.now
	return app
}

func TestNewApp(t *testing.T) {
	f := newFixture(t)
	app := newTestApp(t, f)

	if app.activeView != viewDashboard {
		t.Fatal("should start on dashboard")
	}
	if app.showHelp {
		t.Fatal("help should be hidden initially")
	}
	if app.isFormActive() {
		t.Fatal("no form should be active")
	}
}

func TestAppViewStates(t *testing.T) {
	f := newFixture(t)
	app := newTestApp(t, f)

	for _, tc := range []struct {
		key  string
		want viewState
	}{
		{"2", viewTasks},
		{"3", viewReports},
		{"1", viewDashboard},
	} {
		m, _ := app.Update(runes(tc.key))
		app = m.(App)
		if app.activeView != tc.want {
			t.Fatalf("key %s: view = %d, want %d", tc.key, app.activeView, tc.want)
		}
	}

	m, _ := app.Update(tea.KeyMsg{Type: tea.KeyTab})
	app = m.(App)
	if app.activeView != viewTasks {
		t.Fatal("tab should cycle to the next view")
	}
}

func TestAppFormCapturesKeys(t *testing.T) {
	f := newFixture(t)
	app := newTestApp(t, f)

	m, _ := app.Update(runes("2"))
	app = m.(App)
	m, _ = app.Update(runes("n"))
	app = m.(App)
	if !app.isFormActive() {
		t.Fatal("form should be active")
	}

	// "1" is typed into the form, not a tab switch.
	m, _ = app.Update(runes("1"))
	app = m.(App)
	if app.activeView != viewTasks {
		t.Fatal("keys should go to the form while it is open")
	}
}

func TestAppRenderHeaderContainsAllTabs(t *testing.T) {
	f := newFixture(t)
	app := newTestApp(t, f)
	app.width = 100
	app.height = 40

	header := app.renderHeader()
	for _, name := range viewNames {
		if !strings.Contains(header, name) {
			t.Errorf("header missing tab %q", name)
		}
	}
}

func TestAppRenderFooterShowsTracking(t *testing.T) {
	f := newFixture(t)
	f.addTask(t, 1, "Write report")
	app := newTestApp(t, f)
	app.width = 120
	app.height = 40

	if strings.Contains(app.renderFooter(), "●") {
		t.Fatal("idle footer should not show the timer")
	}
	f.session.Start(1)
	f.clock.advance(65 * time.Second)
	if !strings.Contains(app.renderFooter(), "00:01:05") {
		t.Fatalf("footer should show elapsed time: %q", app.renderFooter())
	}
}

func TestAppLoadingState(t *testing.T) {
	f := newFixture(t)
	app := newTestApp(t, f)
	if app.View() != "Loading..." {
		t.Fatal("zero width should show loading")
	}

	m, _ := app.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	app = m.(App)
	if app.View() == "Loading..." {
		t.Fatal("sized app should render")
	}
}

func TestAppStatusMessage(t *testing.T) {
	f := newFixture(t)
	app := newTestApp(t, f)
	app.width = 100

	m, _ := app.Update(statusMsg{text: "Error: boom", isError: true})
	app = m.(App)
	if app.status != "Error: boom" || !app.statusIsErr {
		t.Fatal("status not recorded")
	}

	m, _ = app.Update(timerStoppedMsg{})
	app = m.(App)
	if app.statusIsErr || !strings.Contains(app.status, "too short") {
		t.Fatalf("unexpected status %q", app.status)
	}
}

func TestAppStopFromAnyView(t *testing.T) {
	f := newFixture(t)
	f.addTask(t, 1, "Write report")
	f.session.Start(1)
	app := newTestApp(t, f)

	m, _ := app.Update(runes("3"))
	app = m.(App)
	f.clock.advance(10 * time.Second)
	m, cmd := app.Update(runes("x"))
	app = m.(App)
	if cmd == nil {
		t.Fatal("stop should return a command")
	}
	if f.session.Status().State != tracker.Idle {
		t.Fatal("x should stop tracking from the reports view")
	}
}

func TestAppForwardsStoreEvents(t *testing.T) {
	f := newFixture(t)
	app := newTestApp(t, f)
	cancel := app.subscribe()
	defer cancel()

	f.addTask(t, 1, "Write report")

	select {
	case e := <-app.events:
		if ev, ok := e.(store.TaskChanged); !ok || ev.ID != 1 {
			t.Fatalf("unexpected event %#v", e)
		}
	default:
		t.Fatal("expected an event on the channel")
	}

	_, cmd := app.Update(storeEventMsg{event: store.TaskChanged{ID: 1}})
	if cmd == nil {
		t.Fatal("store event should trigger a reload")
	}
}

func TestAppSubscribeCancel(t *testing.T) {
	f := newFixture(t)
	app := newTestApp(t, f)
	cancel := app.subscribe()
	cancel()

	f.addTask(t, 1, "Write report")
	select {
	case e := <-app.events:
		t.Fatalf("cancelled subscription still delivered %#v", e)
	default:
	}
}

func TestAppExport(t *testing.T) {
	f := newFixture(t)
	f.addTask(t, 1, "Write report")
	f.track(t, 1, 30*time.Second)
	app := newTestApp(t, f)

	for i := range exportFormats {
		msg := app.doExport(i)()
		done, ok := msg.(exportDoneMsg)
		if !ok {
			t.Fatalf("format %d: expected exportDoneMsg, got %#v", i, msg)
		}
		if _, err := os.Stat(done.path); err != nil {
			t.Fatalf("format %d: export file missing: %v", i, err)
		}
	}
}

func TestAppExportPicker(t *testing.T) {
	f := newFixture(t)
	app := newTestApp(t, f)
	app.width = 100
	app.height = 40

	m, _ := app.Update(runes("e"))
	app = m.(App)
	if !app.exportPicking {
		t.Fatal("e should open the export picker")
	}
	if !strings.Contains(app.View(), "Entries (CSV)") {
		t.Fatal("picker should list formats")
	}

	m, _ = app.Update(tea.KeyMsg{Type: tea.KeyDown})
	app = m.(App)
	if app.exportCursor != 1 {
		t.Fatalf("cursor = %d", app.exportCursor)
	}
	m, _ = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	app = m.(App)
	if app.exportPicking {
		t.Fatal("esc should close the picker")
	}
}

// ============================================================
// Keys and styles
// ============================================================

func TestKeyMapShortHelp(t *testing.T) {
	if len(keys.ShortHelp()) == 0 {
		t.Fatal("short help should not be empty")
	}
}

func TestKeyMapFullHelp(t *testing.T) {
	groups := keys.FullHelp()
	if len(groups) == 0 {
		t.Fatal("full help should not be empty")
	}
	found := false
	for i, g := range groups {
		if len(g) == 0 {
			t.Fatalf("help group %d is empty", i)
		}
		for _, b := range g {
			if b.Help().Key == keys.Archive.Help().Key {
				found = true
			}
		}
	}
	if !found {
		t.Fatal("full help should list the archive key")
	}
}

func TestPriorityBadgeWidth(t *testing.T) {
	for _, p := range []store.Priority{store.PriorityHigh, store.PriorityMedium, store.PriorityLow, store.PriorityUnset} {
		if w := lipgloss.Width(priorityBadge(p)); w != 3 {
			t.Errorf("badge for %q has width %d", p, w)
		}
	}
}
