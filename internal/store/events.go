package store

import "sync"

// Event is a change notification emitted by a repository after a write commits.
type Event interface {
	eventName() string
}

type TaskChanged struct{ ID int64 }

type TaskDeleted struct{ ID int64 }

// TasksReplaced follows a successful ReplaceAll.
type TasksReplaced struct{ Count int }

type TimeEntryAdded struct{ Entry TimeEntry }

// TimeEntryDeleted carries the parent task so listeners can refresh totals
// without looking up the deleted entry.
type TimeEntryDeleted struct {
	ID     int64
	TaskID int64
}

func (TaskChanged) eventName() string      { return "task-changed" }
func (TaskDeleted) eventName() string      { return "task-deleted" }
func (TasksReplaced) eventName() string    { return "tasks-replaced" }
func (TimeEntryAdded) eventName() string   { return "time-entry-added" }
func (TimeEntryDeleted) eventName() string { return "time-entry-deleted" }

// EventName returns the wire name of an event, e.g. "task-changed".
func EventName(e Event) string { return e.eventName() }

// Notifier fans events out to subscribers. Delivery is synchronous and in
// subscription order; listeners must not block.
type Notifier struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]func(Event)
	order     []int
}

// Subscribe registers fn and returns a function that removes it.
func (n *Notifier) Subscribe(fn func(Event)) (cancel func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.listeners == nil {
		n.listeners = make(map[int]func(Event))
	}
	id := n.nextID
	n.nextID++
	n.listeners[id] = fn
	n.order = append(n.order, id)

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.listeners, id)
		for i, v := range n.order {
			if v == id {
				n.order = append(n.order[:i], n.order[i+1:]...)
				break
			}
		}
	}
}

func (n *Notifier) emit(e Event) {
	n.mu.Lock()
	fns := make([]func(Event), 0, len(n.order))
	for _, id := range n.order {
		fns = append(fns, n.listeners[id])
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}
