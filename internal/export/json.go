package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/taskhub/internal/store"
)

// ErrNoTasks is returned by ReadTasksJSON when no record survives validation.
var ErrNoTasks = errors.New("no valid tasks to import")

type jsonExport struct {
	ExportedAt string      `json:"exported_at"`
	Count      int         `json:"count"`
	Entries    []jsonEntry `json:"entries"`
}

type jsonEntry struct {
	ID         int64  `json:"id"`
	TaskID     int64  `json:"task_id"`
	Task       string `json:"task"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	DurationMs int64  `json:"duration_ms"`
	Duration   string `json:"duration"`
}

// EntriesJSON writes time entries with their task titles to path.
func EntriesJSON(entries []store.TimeEntry, titles map[int64]string, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(entries),
	}

	for _, e := range entries {
		export.Entries = append(export.Entries, jsonEntry{
			ID:         e.ID,
			TaskID:     e.TaskID,
			Task:       titleFor(titles, e.TaskID),
			Date:       e.Date,
			StartTime:  e.StartTime.Local().Format(time.RFC3339),
			EndTime:    e.EndTime.Local().Format(time.RFC3339),
			DurationMs: e.Duration,
			Duration:   formatDuration(e.Duration),
		})
	}

	return writeJSON(export, path)
}

// TasksJSON writes tasks as a plain JSON array, the format ReadTasksJSON and
// the legacy migration accept.
func TasksJSON(tasks []store.Task, path string) error {
	if tasks == nil {
		tasks = []store.Task{}
	}
	return writeJSON(tasks, path)
}

// ImportResult reports how many records of an import file were usable.
type ImportResult struct {
	Tasks   []store.Task
	Skipped int
}

// ReadTasksJSON parses a JSON array of tasks. Records that fail to decode or
// lack a title or id are dropped. A file with no usable record is an error.
func ReadTasksJSON(path string) (ImportResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ImportResult{}, fmt.Errorf("read import file: %w", err)
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return ImportResult{}, fmt.Errorf("parse import file: expected an array of tasks: %w", err)
	}

	var res ImportResult
	for _, raw := range raws {
		t, err := store.DecodeTask(raw)
		if err != nil || t.Title == "" || t.ID == 0 {
			res.Skipped++
			continue
		}
		res.Tasks = append(res.Tasks, t)
	}
	if len(res.Tasks) == 0 {
		return res, ErrNoTasks
	}
	return res, nil
}

func writeJSON(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
