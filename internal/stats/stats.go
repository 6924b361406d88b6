// Package stats aggregates recorded time entries into totals and breakdowns.
// Every call rescans the entry table; nothing is cached.
package stats

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sadopc/taskhub/internal/store"
)

// DefaultUnknownLabel names tasks that no longer exist.
const DefaultUnknownLabel = "Unknown task"

// EntrySource is the read side of the time entry repository.
type EntrySource interface {
	GetByDateRange(startDate, endDate string) ([]store.TimeEntry, error)
	GetForTask(taskID int64) ([]store.TimeEntry, error)
}

// TaskSource resolves task titles.
type TaskSource interface {
	GetByID(id int64) (*store.Task, error)
}

type TaskStat struct {
	TaskID     int64  `json:"taskId"`
	Title      string `json:"title"`
	TotalTime  int64  `json:"totalTime"`
	Percentage int    `json:"percentage"`
}

type TaskTime struct {
	TaskID int64  `json:"taskId"`
	Title  string `json:"title"`
	Time   int64  `json:"time"`
}

type DayStat struct {
	TotalTime int64      `json:"totalTime"`
	Tasks     []TaskTime `json:"tasks"`
}

// Report bundles every aggregation over one range.
type Report struct {
	Start     string             `json:"start"`
	End       string             `json:"end"`
	TotalTime int64              `json:"totalTime"`
	Tasks     []TaskStat         `json:"tasks"`
	Days      map[string]DayStat `json:"days"`
}

// DayEntries is one day of a task's history.
type DayEntries struct {
	Date      string            `json:"date"`
	TotalTime int64             `json:"totalTime"`
	Entries   []store.TimeEntry `json:"entries"`
}

type Engine struct {
	entries      EntrySource
	tasks        TaskSource
	unknownLabel string
}

// New returns an engine. An empty unknownLabel falls back to DefaultUnknownLabel.
func New(entries EntrySource, tasks TaskSource, unknownLabel string) *Engine {
	if unknownLabel == "" {
		unknownLabel = DefaultUnknownLabel
	}
	return &Engine{entries: entries, tasks: tasks, unknownLabel: unknownLabel}
}

// TotalTime sums entry durations between two inclusive YYYY-MM-DD dates.
func (e *Engine) TotalTime(startDate, endDate string) (int64, error) {
	entries, err := e.entries.GetByDateRange(startDate, endDate)
	if err != nil {
		return 0, err
	}
	return sumDurations(entries), nil
}

// PerTaskBreakdown groups the range by task, largest total first.
func (e *Engine) PerTaskBreakdown(startDate, endDate string) ([]TaskStat, error) {
	entries, err := e.entries.GetByDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	return e.perTask(entries, newTitleCache(e)), nil
}

// PerDayBreakdown groups the range by date, then by task within each date.
func (e *Engine) PerDayBreakdown(startDate, endDate string) (map[string]DayStat, error) {
	entries, err := e.entries.GetByDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	return e.perDay(entries, newTitleCache(e)), nil
}

// Report computes the total, per-task and per-day views from a single scan.
func (e *Engine) Report(startDate, endDate string) (Report, error) {
	entries, err := e.entries.GetByDateRange(startDate, endDate)
	if err != nil {
		return Report{}, err
	}
	titles := newTitleCache(e)
	return Report{
		Start:     startDate,
		End:       endDate,
		TotalTime: sumDurations(entries),
		Tasks:     e.perTask(entries, titles),
		Days:      e.perDay(entries, titles),
	}, nil
}

// TaskHistory returns a task's entries grouped by day, newest day first.
func (e *Engine) TaskHistory(taskID int64) ([]DayEntries, error) {
	entries, err := e.entries.GetForTask(taskID)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]*DayEntries)
	var days []*DayEntries
	for _, en := range entries {
		d, ok := byDate[en.Date]
		if !ok {
			d = &DayEntries{Date: en.Date}
			byDate[en.Date] = d
			days = append(days, d)
		}
		d.TotalTime += en.Duration
		d.Entries = append(d.Entries, en)
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Date > days[j].Date })
	out := make([]DayEntries, len(days))
	for i, d := range days {
		sort.SliceStable(d.Entries, func(a, b int) bool {
			return d.Entries[a].StartTime.After(d.Entries[b].StartTime)
		})
		out[i] = *d
	}
	return out, nil
}

func (e *Engine) perTask(entries []store.TimeEntry, titles *titleCache) []TaskStat {
	total := sumDurations(entries)
	byTask := make(map[int64]int64)
	for _, en := range entries {
		byTask[en.TaskID] += en.Duration
	}

	stats := make([]TaskStat, 0, len(byTask))
	for id, t := range byTask {
		pct := 0
		if total > 0 {
			pct = int(math.Round(float64(t) / float64(total) * 100))
		}
		stats = append(stats, TaskStat{
			TaskID:     id,
			Title:      titles.get(id),
			TotalTime:  t,
			Percentage: pct,
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].TotalTime != stats[j].TotalTime {
			return stats[i].TotalTime > stats[j].TotalTime
		}
		return stats[i].TaskID < stats[j].TaskID
	})
	return stats
}

func (e *Engine) perDay(entries []store.TimeEntry, titles *titleCache) map[string]DayStat {
	byDay := make(map[string]map[int64]int64)
	days := make(map[string]DayStat)
	for _, en := range entries {
		if byDay[en.Date] == nil {
			byDay[en.Date] = make(map[int64]int64)
		}
		byDay[en.Date][en.TaskID] += en.Duration
		d := days[en.Date]
		d.TotalTime += en.Duration
		days[en.Date] = d
	}

	for date, tasks := range byDay {
		list := make([]TaskTime, 0, len(tasks))
		for id, t := range tasks {
			list = append(list, TaskTime{TaskID: id, Title: titles.get(id), Time: t})
		}
		sort.Slice(list, func(i, j int) bool {
			if list[i].Time != list[j].Time {
				return list[i].Time > list[j].Time
			}
			return list[i].TaskID < list[j].TaskID
		})
		d := days[date]
		d.Tasks = list
		days[date] = d
	}
	return days
}

func sumDurations(entries []store.TimeEntry) int64 {
	var total int64
	for _, en := range entries {
		total += en.Duration
	}
	return total
}

// titleCache resolves each task id at most once per call. Lookup failures fall
// back to the placeholder so a report never fails on a dangling id.
type titleCache struct {
	e      *Engine
	titles map[int64]string
}

func newTitleCache(e *Engine) *titleCache {
	return &titleCache{e: e, titles: make(map[int64]string)}
}

func (c *titleCache) get(id int64) string {
	if title, ok := c.titles[id]; ok {
		return title
	}
	title := c.e.unknownLabel
	if t, err := c.e.tasks.GetByID(id); err == nil && t != nil {
		title = t.Title
	}
	c.titles[id] = title
	return title
}

// MonthRange returns the first and last day of now's month as YYYY-MM-DD.
func MonthRange(now time.Time) (string, string) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	last := first.AddDate(0, 1, -1)
	return first.Format("2006-01-02"), last.Format("2006-01-02")
}

// FormatDuration renders milliseconds as HH:MM:SS.
func FormatDuration(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	secs := ms / 1000
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}
