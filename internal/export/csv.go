package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/taskhub/internal/store"
)

// UnknownTask labels entries whose task is missing from the titles map.
const UnknownTask = "Unknown task"

// EntriesCSV writes time entries with their task titles to path.
func EntriesCSV(entries []store.TimeEntry, titles map[int64]string, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"ID", "Task ID", "Task", "Date", "Start", "End", "Duration (ms)", "Duration"}); err != nil {
		return err
	}

	for _, e := range entries {
		row := []string{
			strconv.FormatInt(e.ID, 10),
			strconv.FormatInt(e.TaskID, 10),
			titleFor(titles, e.TaskID),
			e.Date,
			e.StartTime.Local().Format(time.RFC3339),
			e.EndTime.Local().Format(time.RFC3339),
			strconv.FormatInt(e.Duration, 10),
			formatDuration(e.Duration),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

// TasksCSV writes a task backup to path.
func TasksCSV(tasks []store.Task, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"id", "title", "category", "priority", "dueDate", "completed", "createdAt", "kanbanColumn", "timeSpent", "archived"}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, t := range tasks {
		row := []string{
			strconv.FormatInt(t.ID, 10),
			t.Title,
			t.Category,
			string(t.Priority),
			t.DueDate,
			strconv.FormatBool(t.Completed),
			t.CreatedAt,
			t.KanbanColumn,
			strconv.FormatInt(t.TimeSpent, 10),
			strconv.FormatBool(t.Archived),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func titleFor(titles map[int64]string, id int64) string {
	if title, ok := titles[id]; ok {
		return title
	}
	return UnknownTask
}

func formatDuration(ms int64) string {
	secs := ms / 1000
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
