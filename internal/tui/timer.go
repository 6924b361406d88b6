package tui

import (
	"time"

	"github.com/sadopc/taskhub/internal/store"
	"github.com/sadopc/taskhub/internal/tracker"
)

// timerModel is the view-side handle on the tracking session. The session owns
// the state; the model only caches what the display needs between ticks.
type timerModel struct {
	session *tracker.Session
	tasks   *store.TaskRepository

	taskTitle string
	elapsed   time.Duration
}

func newTimerModel(session *tracker.Session, tasks *store.TaskRepository) timerModel {
	t := timerModel{session: session, tasks: tasks}
	t.sync()
	return t
}

// sync reloads the title of the tracked task, e.g. after a restart resumed a
// session or another view started one.
func (t *timerModel) sync() {
	st := t.session.Status()
	if st.State != tracker.Tracking {
		t.taskTitle = ""
		t.elapsed = 0
		return
	}
	t.taskTitle = "?"
	if task, err := t.tasks.GetByID(st.TaskID); err == nil && task != nil {
		t.taskTitle = task.Title
	}
	t.elapsed = t.session.Elapsed()
}

func (t *timerModel) start(taskID int64) error {
	if err := t.session.Start(taskID); err != nil {
		return err
	}
	t.sync()
	return nil
}

func (t *timerModel) stop() (*store.TimeEntry, error) {
	entry, err := t.session.Stop()
	if err != nil {
		return nil, err
	}
	t.sync()
	return entry, nil
}

func (t *timerModel) tick() {
	t.elapsed = t.session.Elapsed()
}

func (t timerModel) running() bool {
	return t.session.Status().State == tracker.Tracking
}

func (t timerModel) taskID() int64 {
	return t.session.Status().TaskID
}

func (t timerModel) currentElapsed() time.Duration {
	return t.session.Elapsed()
}
