package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
)

// LegacyTasksKey is the kv slot holding the pre-database flat task list.
const LegacyTasksKey = "tasks"

// LegacySource yields the raw records of a legacy flat task list. It returns
// nil, nil when there is no legacy data.
type LegacySource interface {
	LoadLegacyTasks() ([]json.RawMessage, error)
}

// KVLegacySource reads the legacy list from the store's own kv slot.
type KVLegacySource struct {
	KV *KV
}

func (s KVLegacySource) LoadLegacyTasks() ([]json.RawMessage, error) {
	value, ok, err := s.KV.Get(LegacyTasksKey)
	if err != nil || !ok {
		return nil, err
	}
	return parseLegacyArray([]byte(value))
}

// FileLegacySource reads the legacy list from a JSON array file.
type FileLegacySource struct {
	Path string
}

func (s FileLegacySource) LoadLegacyTasks() ([]json.RawMessage, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read legacy file: %w", err)
	}
	return parseLegacyArray(data)
}

// MultiLegacySource concatenates the records of several sources in order.
// Sources that fail are reported but do not hide the records of the others.
type MultiLegacySource []LegacySource

func (m MultiLegacySource) LoadLegacyTasks() ([]json.RawMessage, error) {
	var (
		raws []json.RawMessage
		errs []error
	)
	for _, src := range m {
		got, err := src.LoadLegacyTasks()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if got == nil {
			continue
		}
		if raws == nil {
			raws = []json.RawMessage{}
		}
		raws = append(raws, got...)
	}
	return raws, errors.Join(errs...)
}

func parseLegacyArray(data []byte) ([]json.RawMessage, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("parse legacy tasks: %w", err)
	}
	if raws == nil {
		raws = []json.RawMessage{}
	}
	return raws, nil
}

// MigrationResult summarises one MigrateLegacy call.
type MigrationResult struct {
	Ran      bool // false when the table already had tasks or there was nothing to import
	Imported int
	Skipped  int
	Errors   []*MigrationError
}

// MigrateLegacy copies legacy tasks into the tasks table, preserving ids, but
// only while the table is empty. Malformed records are logged and skipped; the
// store stays usable whatever happens.
func (s *Store) MigrateLegacy(src LegacySource) MigrationResult {
	var res MigrationResult

	raws, err := src.LoadLegacyTasks()
	if err != nil {
		merr := &MigrationError{Index: -1, Err: err}
		log.Printf("warning: %v", merr)
		res.Errors = append(res.Errors, merr)
	}
	if raws == nil {
		return res
	}

	n, err := s.Tasks.Count()
	if err != nil {
		log.Printf("warning: legacy migration: %v", err)
		return res
	}
	if n > 0 {
		return res
	}

	res.Ran = true
	seen := make(map[int64]bool, len(raws))
	for i, raw := range raws {
		t, err := DecodeTask(raw)
		if err == nil && t.ID != 0 && seen[t.ID] {
			err = fmt.Errorf("duplicate id %d", t.ID)
		}
		if err == nil {
			t, err = s.Tasks.Save(t)
		}
		if err != nil {
			merr := &MigrationError{Index: i, Err: err}
			log.Printf("warning: %v", merr)
			res.Errors = append(res.Errors, merr)
			res.Skipped++
			continue
		}
		seen[t.ID] = true
		res.Imported++
	}
	return res
}

type looseTask struct {
	ID           json.RawMessage `json:"id"`
	Title        string          `json:"title"`
	Completed    bool            `json:"completed"`
	Priority     string          `json:"priority"`
	Category     string          `json:"category"`
	DueDate      string          `json:"dueDate"`
	CreatedAt    string          `json:"createdAt"`
	KanbanColumn string          `json:"kanbanColumn"`
	TimeSpent    json.Number     `json:"timeSpent"`
	Archived     bool            `json:"archived"`
}

// DecodeTask parses one task record from the legacy or export format. Ids may
// be JSON numbers or numeric strings; a missing id decodes as 0 (assigned on save).
func DecodeTask(raw json.RawMessage) (Task, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Task{}, errors.New("record is not an object")
	}
	var lt looseTask
	if err := json.Unmarshal(trimmed, &lt); err != nil {
		return Task{}, err
	}

	id, err := decodeID(lt.ID)
	if err != nil {
		return Task{}, err
	}
	var spent int64
	if lt.TimeSpent != "" {
		f, err := lt.TimeSpent.Float64()
		if err != nil {
			return Task{}, fmt.Errorf("timeSpent: %w", err)
		}
		spent = int64(f)
	}

	return Task{
		ID:           id,
		Title:        lt.Title,
		Completed:    lt.Completed,
		Priority:     Priority(lt.Priority),
		Category:     lt.Category,
		DueDate:      lt.DueDate,
		CreatedAt:    lt.CreatedAt,
		KanbanColumn: lt.KanbanColumn,
		TimeSpent:    spent,
		Archived:     lt.Archived,
	}, nil
}

func decodeID(raw json.RawMessage) (int64, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0, fmt.Errorf("id: %w", err)
		}
		s = strings.TrimSpace(str)
		if s == "" {
			return 0, nil
		}
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id %s is not an integer", s)
	}
	if id < 0 {
		return 0, fmt.Errorf("id %d is negative", id)
	}
	return id, nil
}
