package store

import "time"

// Priority levels a task can carry. The empty value means unset.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
	PriorityUnset  Priority = ""
)

// Task is a task record. Callers hold copies; mutations go back through
// TaskRepository.Save.
type Task struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	Completed    bool     `json:"completed"`
	Priority     Priority `json:"priority"`
	Category     string   `json:"category"`
	DueDate      string   `json:"dueDate,omitempty"`
	CreatedAt    string   `json:"createdAt"`
	KanbanColumn string   `json:"kanbanColumn,omitempty"`
	TimeSpent    int64    `json:"timeSpent,omitempty"` // milliseconds, derived from time entries
	Archived     bool     `json:"archived,omitempty"`
}

// TimeEntry is one completed interval of tracked time.
type TimeEntry struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"taskId"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Duration  int64     `json:"duration"` // milliseconds
	Date      string    `json:"date"`     // YYYY-MM-DD, derived from StartTime
}

// TaskFilter narrows TaskRepository.Find. Nil/empty fields match everything.
type TaskFilter struct {
	Completed    *bool
	Archived     *bool
	Priority     *Priority
	Category     string
	KanbanColumn string
	DueBefore    string // dueDate < DueBefore, tasks without a due date excluded
}

// EntryFilter is used to filter time entries in queries.
type EntryFilter struct {
	TaskID *int64
	From   string // inclusive date, YYYY-MM-DD
	To     string // inclusive date, YYYY-MM-DD
	Limit  int
}

const dateLayout = "2006-01-02"

// timeLayout matches the millisecond ISO-8601 form used for entry timestamps.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// DateOf returns the calendar date key of t in UTC.
func DateOf(t time.Time) string {
	return t.UTC().Format(dateLayout)
}
