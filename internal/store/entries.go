package store

import (
	"database/sql"
	"fmt"
	"time"
)

const entryColumns = `id, task_id, start_time, end_time, duration, date`

// TimeEntryRepository owns the time_entries table.
type TimeEntryRepository struct {
	Notifier

	db *sql.DB
}

func scanEntry(r rowScanner) (TimeEntry, error) {
	var e TimeEntry
	var startTime, endTime string
	if err := r.Scan(&e.ID, &e.TaskID, &startTime, &endTime, &e.Duration, &e.Date); err != nil {
		return TimeEntry{}, err
	}
	var err error
	if e.StartTime, err = time.Parse(timeLayout, startTime); err != nil {
		return TimeEntry{}, fmt.Errorf("entry %d start_time: %w", e.ID, err)
	}
	if e.EndTime, err = time.Parse(timeLayout, endTime); err != nil {
		return TimeEntry{}, fmt.Errorf("entry %d end_time: %w", e.ID, err)
	}
	return e, nil
}

// Add inserts e and returns it with the store-assigned id. Date must already be
// derived from StartTime by the caller.
func (r *TimeEntryRepository) Add(e TimeEntry) (TimeEntry, error) {
	if _, err := time.Parse(dateLayout, e.Date); err != nil {
		return TimeEntry{}, fmt.Errorf("%w: date %q", ErrInvalidEntry, e.Date)
	}
	if !e.EndTime.After(e.StartTime) {
		return TimeEntry{}, fmt.Errorf("%w: end time not after start time", ErrInvalidEntry)
	}

	res, err := r.db.Exec(
		`INSERT INTO time_entries (task_id, start_time, end_time, duration, date) VALUES (?, ?, ?, ?, ?)`,
		e.TaskID, e.StartTime.UTC().Format(timeLayout), e.EndTime.UTC().Format(timeLayout), e.Duration, e.Date,
	)
	if err != nil {
		return TimeEntry{}, storageErr("add time entry", err)
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return TimeEntry{}, storageErr("add time entry", err)
	}
	r.emit(TimeEntryAdded{Entry: e})
	return e, nil
}

// GetByID returns nil, nil when no entry has the id.
func (r *TimeEntryRepository) GetByID(id int64) (*TimeEntry, error) {
	e, err := scanEntry(r.db.QueryRow(`SELECT `+entryColumns+` FROM time_entries WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr(fmt.Sprintf("get time entry %d", id), err)
	}
	return &e, nil
}

// Delete removes the entry and announces it with its parent task id. A missing
// id succeeds without an event.
func (r *TimeEntryRepository) Delete(id int64) (bool, error) {
	var taskID int64
	err := r.db.QueryRow(`SELECT task_id FROM time_entries WHERE id = ?`, id).Scan(&taskID)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, storageErr(fmt.Sprintf("delete time entry %d", id), err)
	}
	if _, err := r.db.Exec(`DELETE FROM time_entries WHERE id = ?`, id); err != nil {
		return false, storageErr(fmt.Sprintf("delete time entry %d", id), err)
	}
	r.emit(TimeEntryDeleted{ID: id, TaskID: taskID})
	return true, nil
}

// GetForTask returns every entry recorded against taskID.
func (r *TimeEntryRepository) GetForTask(taskID int64) ([]TimeEntry, error) {
	return r.query(`SELECT `+entryColumns+` FROM time_entries WHERE task_id = ?`, "entries for task", taskID)
}

// GetByDateRange returns entries whose date lies in [startDate, endDate].
// ISO dates order correctly as strings.
func (r *TimeEntryRepository) GetByDateRange(startDate, endDate string) ([]TimeEntry, error) {
	return r.query(`SELECT `+entryColumns+` FROM time_entries WHERE date >= ? AND date <= ?`, "entries by date", startDate, endDate)
}

// TotalForTask sums the durations of taskID's entries; 0 when it has none.
func (r *TimeEntryRepository) TotalForTask(taskID int64) (int64, error) {
	var total int64
	err := r.db.QueryRow(`SELECT COALESCE(SUM(duration), 0) FROM time_entries WHERE task_id = ?`, taskID).Scan(&total)
	if err != nil {
		return 0, storageErr(fmt.Sprintf("total for task %d", taskID), err)
	}
	return total, nil
}

// List returns entries newest first.
func (r *TimeEntryRepository) List(f EntryFilter) ([]TimeEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries WHERE 1=1`
	var args []any
	if f.TaskID != nil {
		query += ` AND task_id = ?`
		args = append(args, *f.TaskID)
	}
	if f.From != "" {
		query += ` AND date >= ?`
		args = append(args, f.From)
	}
	if f.To != "" {
		query += ` AND date <= ?`
		args = append(args, f.To)
	}
	query += ` ORDER BY start_time DESC, id DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}
	return r.query(query, "list entries", args...)
}

func (r *TimeEntryRepository) query(query, op string, args ...any) ([]TimeEntry, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer rows.Close()

	var entries []TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, storageErr(op, err)
		}
		entries = append(entries, e)
	}
	return entries, storageErr(op, rows.Err())
}
