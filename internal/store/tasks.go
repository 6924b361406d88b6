package store

import (
	"database/sql"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

const taskColumns = `id, title, completed, priority, category, due_date, created_at, kanban_column, time_spent, archived`

// TaskRepository owns the tasks table.
type TaskRepository struct {
	Notifier

	db  *sql.DB
	now func() time.Time

	mu     sync.Mutex
	seeded bool
	lastID int64
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(r rowScanner) (Task, error) {
	var t Task
	var completed int
	var priority string
	var dueDate, column sql.NullString
	var timeSpent, archived sql.NullInt64
	err := r.Scan(&t.ID, &t.Title, &completed, &priority, &t.Category, &dueDate, &t.CreatedAt, &column, &timeSpent, &archived)
	if err != nil {
		return Task{}, err
	}
	t.Completed = completed == 1
	t.Priority = Priority(priority)
	t.DueDate = dueDate.String
	t.KanbanColumn = column.String
	t.TimeSpent = timeSpent.Int64
	t.Archived = archived.Int64 == 1
	return t, nil
}

func taskArgs(t Task) []any {
	return []any{
		t.ID, t.Title, boolInt(t.Completed), string(t.Priority), t.Category,
		nullString(t.DueDate), t.CreatedAt, nullString(t.KanbanColumn),
		nullInt(t.TimeSpent), nullBool(t.Archived),
	}
}

// GetAll returns every task ordered by id.
func (r *TaskRepository) GetAll() ([]Task, error) {
	return r.query(`SELECT `+taskColumns+` FROM tasks ORDER BY id`, "list tasks")
}

// GetByID returns nil, nil when no task has the id.
func (r *TaskRepository) GetByID(id int64) (*Task, error) {
	t, err := scanTask(r.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr(fmt.Sprintf("get task %d", id), err)
	}
	return &t, nil
}

// Find returns the tasks matching f, ordered by id.
func (r *TaskRepository) Find(f TaskFilter) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE 1=1`
	var args []any
	if f.Completed != nil {
		query += ` AND completed = ?`
		args = append(args, boolInt(*f.Completed))
	}
	if f.Archived != nil {
		if *f.Archived {
			query += ` AND archived = 1`
		} else {
			query += ` AND (archived IS NULL OR archived = 0)`
		}
	}
	if f.Priority != nil {
		query += ` AND priority = ?`
		args = append(args, string(*f.Priority))
	}
	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, f.Category)
	}
	if f.KanbanColumn != "" {
		query += ` AND kanban_column = ?`
		args = append(args, f.KanbanColumn)
	}
	if f.DueBefore != "" {
		query += ` AND due_date IS NOT NULL AND due_date < ?`
		args = append(args, f.DueBefore)
	}
	query += ` ORDER BY id`
	return r.query(query, "find tasks", args...)
}

// Count returns the number of stored tasks.
func (r *TaskRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM tasks`).Scan(&n); err != nil {
		return 0, storageErr("count tasks", err)
	}
	return n, nil
}

// Save upserts t by id. A zero id is replaced by a fresh timestamp id and an
// empty CreatedAt by today's date. An existing record is overwritten entirely.
func (r *TaskRepository) Save(t Task) (Task, error) {
	r.mu.Lock()
	if err := r.seed(); err != nil {
		r.mu.Unlock()
		return Task{}, err
	}
	if t.ID == 0 {
		t.ID = r.nextID()
	} else if t.ID > r.lastID {
		r.lastID = t.ID
	}
	r.mu.Unlock()

	if t.CreatedAt == "" {
		t.CreatedAt = DateOf(r.now())
	}

	_, err := r.db.Exec(`INSERT OR REPLACE INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, taskArgs(t)...)
	if err != nil {
		return Task{}, storageErr(fmt.Sprintf("save task %d", t.ID), err)
	}
	r.emit(TaskChanged{ID: t.ID})
	return t, nil
}

// Delete removes the task. Deleting a missing id still succeeds.
func (r *TaskRepository) Delete(id int64) (bool, error) {
	if _, err := r.db.Exec(`DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return false, storageErr(fmt.Sprintf("delete task %d", id), err)
	}
	r.emit(TaskDeleted{ID: id})
	return true, nil
}

// ReplaceAll clears the table and inserts tasks in a single transaction. On any
// failure the previous contents are kept. Tasks without an id get a timestamp id
// with a random offset; tasks without CreatedAt get today's date.
func (r *TaskRepository) ReplaceAll(tasks []Task) (bool, error) {
	if err := r.replaceAll(tasks); err != nil {
		return false, err
	}
	r.emit(TasksReplaced{Count: len(tasks)})
	return true, nil
}

func (r *TaskRepository) replaceAll(tasks []Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return storageErr("replace tasks: begin", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tasks`); err != nil {
		return storageErr("replace tasks: clear", err)
	}

	now := r.now()
	used := make(map[int64]bool, len(tasks))
	for _, t := range tasks {
		if t.ID != 0 {
			used[t.ID] = true
		}
	}
	var maxID int64
	for _, t := range tasks {
		if t.ID == 0 {
			id := now.UnixMilli() + rand.Int64N(1000)
			for used[id] {
				id++
			}
			used[id] = true
			t.ID = id
		}
		if t.CreatedAt == "" {
			t.CreatedAt = DateOf(now)
		}
		if t.ID > maxID {
			maxID = t.ID
		}
		// Plain INSERT: a duplicate id in the batch aborts the whole replace.
		if _, err := tx.Exec(`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, taskArgs(t)...); err != nil {
			return storageErr(fmt.Sprintf("replace tasks: insert %d", t.ID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("replace tasks: commit", err)
	}
	r.seeded = true
	r.lastID = maxID
	return nil
}

// Merge inserts the tasks whose id is not already stored and leaves the rest of
// the table untouched. It returns the number of inserted tasks.
func (r *TaskRepository) Merge(tasks []Task) (int, error) {
	r.mu.Lock()
	if err := r.seed(); err != nil {
		r.mu.Unlock()
		return 0, err
	}

	tx, err := r.db.Begin()
	if err != nil {
		r.mu.Unlock()
		return 0, storageErr("merge tasks: begin", err)
	}
	defer tx.Rollback()

	created := DateOf(r.now())
	var inserted []int64
	for _, t := range tasks {
		if t.ID == 0 {
			t.ID = r.nextID()
		}
		if t.CreatedAt == "" {
			t.CreatedAt = created
		}
		res, err := tx.Exec(`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT(id) DO NOTHING`, taskArgs(t)...)
		if err != nil {
			r.mu.Unlock()
			return 0, storageErr(fmt.Sprintf("merge tasks: insert %d", t.ID), err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted = append(inserted, t.ID)
			if t.ID > r.lastID {
				r.lastID = t.ID
			}
		}
	}
	if err := tx.Commit(); err != nil {
		r.mu.Unlock()
		return 0, storageErr("merge tasks: commit", err)
	}
	r.mu.Unlock()

	for _, id := range inserted {
		r.emit(TaskChanged{ID: id})
	}
	return len(inserted), nil
}

// seed loads the highest stored id once so generated ids never go backwards.
// Caller holds r.mu.
func (r *TaskRepository) seed() error {
	if r.seeded {
		return nil
	}
	var maxID int64
	if err := r.db.QueryRow(`SELECT COALESCE(MAX(id), 0) FROM tasks`).Scan(&maxID); err != nil {
		return storageErr("read max task id", err)
	}
	if maxID > r.lastID {
		r.lastID = maxID
	}
	r.seeded = true
	return nil
}

// nextID returns the current Unix millisecond, bumped past the last id handed
// out. Caller holds r.mu.
func (r *TaskRepository) nextID() int64 {
	id := r.now().UnixMilli()
	if id <= r.lastID {
		id = r.lastID + 1
	}
	r.lastID = id
	return id
}

func (r *TaskRepository) query(query, op string, args ...any) ([]Task, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, storageErr(op, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, storageErr(op, rows.Err())
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(n int64) any {
	if n == 0 {
		return nil
	}
	return n
}

func nullBool(b bool) any {
	if !b {
		return nil
	}
	return 1
}
