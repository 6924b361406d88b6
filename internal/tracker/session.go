// Package tracker runs the single time-tracking session of a process: which task
// is being timed, since when, and what happens when the timer stops.
package tracker

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sadopc/taskhub/internal/store"
)

// StateKey is the kv slot holding the open session across restarts.
const StateKey = "tracker_state"

// DefaultMinDuration is the shortest interval that is recorded as an entry.
const DefaultMinDuration = 5 * time.Second

type State int

const (
	Idle State = iota
	Tracking
)

func (s State) String() string {
	if s == Tracking {
		return "tracking"
	}
	return "idle"
}

// Status is a snapshot of the session. TaskID and StartTime are zero when Idle.
type Status struct {
	State     State
	TaskID    int64
	StartTime time.Time
}

// TaskStore is the part of the task repository the session needs.
type TaskStore interface {
	GetByID(id int64) (*store.Task, error)
	Save(t store.Task) (store.Task, error)
}

// EntryStore is the part of the time entry repository the session needs.
type EntryStore interface {
	Add(e store.TimeEntry) (store.TimeEntry, error)
	Delete(id int64) (bool, error)
	TotalForTask(taskID int64) (int64, error)
	Subscribe(fn func(store.Event)) (cancel func())
}

// StateStore persists the recovery slot.
type StateStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

type persistedState struct {
	ActiveTaskID int64     `json:"activeTaskId"`
	StartTime    time.Time `json:"startTime"`
}

// Session is the tracking state machine. Construct one per process.
type Session struct {
	tasks   TaskStore
	entries EntryStore
	state   StateStore

	now         func() time.Time
	minDuration time.Duration
	unsubscribe func()

	mu        sync.Mutex
	tracking  bool
	taskID    int64
	startTime time.Time
}

type Option func(*Session)

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithMinDuration sets the threshold below which a stopped interval is discarded.
func WithMinDuration(d time.Duration) Option {
	return func(s *Session) { s.minDuration = d }
}

// New builds a session, resuming an open interval found in the state slot. The
// session also keeps Task.TimeSpent in step with deleted entries.
func New(tasks TaskStore, entries EntryStore, state StateStore, opts ...Option) (*Session, error) {
	s := &Session{
		tasks:       tasks,
		entries:     entries,
		state:       state,
		now:         time.Now,
		minDuration: DefaultMinDuration,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.restore(); err != nil {
		return nil, err
	}
	s.unsubscribe = entries.Subscribe(s.onEntryEvent)
	return s, nil
}

// Close detaches the session from the entry repository.
func (s *Session) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

func (s *Session) restore() error {
	raw, ok, err := s.state.Get(StateKey)
	if err != nil {
		return fmt.Errorf("load tracker state: %w", err)
	}
	if !ok {
		return nil
	}
	var ps persistedState
	if err := json.Unmarshal([]byte(raw), &ps); err != nil {
		log.Printf("warning: discarding unreadable tracker state: %v", err)
		return nil
	}
	if ps.ActiveTaskID != 0 && !ps.StartTime.IsZero() {
		s.tracking = true
		s.taskID = ps.ActiveTaskID
		s.startTime = ps.StartTime
	}
	return nil
}

// Start begins timing taskID. A session open on another task is stopped first;
// starting the task already being timed changes nothing.
func (s *Session) Start(taskID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.tasks.GetByID(taskID)
	if err != nil {
		return err
	}
	if task == nil {
		return &store.TaskNotFoundError{ID: taskID}
	}

	if s.tracking {
		if s.taskID == taskID {
			return nil
		}
		if _, err := s.stopLocked(); err != nil {
			return fmt.Errorf("stop task %d: %w", s.taskID, err)
		}
	}

	start := s.now()
	if err := s.persist(taskID, start); err != nil {
		return err
	}
	s.tracking = true
	s.taskID = taskID
	s.startTime = start
	return nil
}

// Stop closes the open interval. It returns the recorded entry, or nil when the
// session was idle or the interval was shorter than the minimum duration.
func (s *Session) Stop() (*store.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

func (s *Session) stopLocked() (*store.TimeEntry, error) {
	if !s.tracking {
		return nil, nil
	}
	taskID, start := s.taskID, s.startTime
	end := s.now()
	elapsed := end.Sub(start)

	if err := s.state.Delete(StateKey); err != nil {
		return nil, err
	}

	var saved *store.TimeEntry
	if elapsed >= s.minDuration {
		e, err := s.entries.Add(store.TimeEntry{
			TaskID:    taskID,
			StartTime: start,
			EndTime:   end,
			Duration:  elapsed.Milliseconds(),
			Date:      store.DateOf(start),
		})
		if err != nil {
			// Keep the interval open so it can be stopped again.
			if perr := s.persist(taskID, start); perr != nil {
				log.Printf("warning: restore tracker state: %v", perr)
			}
			return nil, err
		}
		saved = &e
	}

	s.tracking = false
	s.taskID = 0
	s.startTime = time.Time{}

	if saved != nil {
		if _, err := s.RefreshTotal(taskID); err != nil {
			log.Printf("warning: refresh total for task %d: %v", taskID, err)
		}
	}
	return saved, nil
}

func (s *Session) persist(taskID int64, start time.Time) error {
	data, err := json.Marshal(persistedState{ActiveTaskID: taskID, StartTime: start.UTC()})
	if err != nil {
		return fmt.Errorf("encode tracker state: %w", err)
	}
	return s.state.Set(StateKey, string(data))
}

// Status returns the current state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.tracking {
		return Status{State: Idle}
	}
	return Status{State: Tracking, TaskID: s.taskID, StartTime: s.startTime}
}

// Elapsed is the running time of the open interval, zero when idle.
func (s *Session) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.tracking {
		return 0
	}
	return s.now().Sub(s.startTime)
}

// RefreshTotal recomputes Task.TimeSpent from the task's entries and stores it.
// A task that no longer exists is not an error.
func (s *Session) RefreshTotal(taskID int64) (int64, error) {
	total, err := s.entries.TotalForTask(taskID)
	if err != nil {
		return 0, err
	}
	task, err := s.tasks.GetByID(taskID)
	if err != nil {
		return total, err
	}
	if task == nil || task.TimeSpent == total {
		return total, nil
	}
	task.TimeSpent = total
	if _, err := s.tasks.Save(*task); err != nil {
		return total, err
	}
	return total, nil
}

// DeleteEntry removes a time entry; the owning task's total follows through
// the deletion event.
func (s *Session) DeleteEntry(id int64) (bool, error) {
	return s.entries.Delete(id)
}

func (s *Session) onEntryEvent(e store.Event) {
	ev, ok := e.(store.TimeEntryDeleted)
	if !ok {
		return
	}
	if _, err := s.RefreshTotal(ev.TaskID); err != nil {
		log.Printf("warning: refresh total for task %d: %v", ev.TaskID, err)
	}
}
