package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/taskhub/internal/stats"
)

type reportMode int

const (
	reportWeekly reportMode = iota
	reportMonthly
)

type reportsModel struct {
	stats  *stats.Engine
	now    func() time.Time
	width  int
	height int

	mode   reportMode
	offset int // weeks or months back from the current one
	report stats.Report

	chart barchart.Model
}

func newReportsModel(engine *stats.Engine) reportsModel {
	return reportsModel{
		stats: engine,
		now:   time.Now,
		chart: barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type reportsDataMsg struct {
	report stats.Report
}

func (r reportsModel) refresh() tea.Cmd {
	from, to := r.dateRange()
	return func() tea.Msg {
		rep, err := r.stats.Report(from.Format("2006-01-02"), to.Format("2006-01-02"))
		if err != nil {
			return errStatus(err)
		}
		return reportsDataMsg{report: rep}
	}
}

// dateRange returns the first and last day (inclusive) of the selected period.
func (r reportsModel) dateRange() (time.Time, time.Time) {
	now := r.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch r.mode {
	case reportMonthly:
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -r.offset, 0)
		return first, first.AddDate(0, 1, -1)
	default:
		weekday := today.Weekday()
		if weekday == time.Sunday {
			weekday = 7
		}
		startOfWeek := today.AddDate(0, 0, -int(weekday-time.Monday))
		startOfWeek = startOfWeek.AddDate(0, 0, -7*r.offset)
		return startOfWeek, startOfWeek.AddDate(0, 0, 6)
	}
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		r.report = msg.report
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			return r, r.refresh()
		case key.Matches(msg, keys.Filter):
			if r.mode == reportWeekly {
				r.mode = reportMonthly
			} else {
				r.mode = reportWeekly
			}
			r.offset = 0
			return r, r.refresh()
		}
	}
	return r, nil
}

// taskColor keeps a task's colour stable between the chart and the table.
func (r reportsModel) taskColor(taskID int64) lipgloss.Color {
	for i, t := range r.report.Tasks {
		if t.TaskID == taskID {
			return lipgloss.Color(taskColors[i%len(taskColors)])
		}
	}
	return colorSubtle
}

func (r *reportsModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	from, to := r.dateRange()
	label := "Mon 02"
	if r.mode == reportMonthly {
		label = "02"
	}

	var bars []barchart.BarData
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		var values []barchart.BarValue
		for _, t := range r.report.Days[d.Format("2006-01-02")].Tasks {
			values = append(values, barchart.BarValue{
				Name:  t.Title,
				Value: float64(t.Time) / float64(time.Hour/time.Millisecond),
				Style: lipgloss.NewStyle().Foreground(r.taskColor(t.TaskID)),
			})
		}
		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}
		bars = append(bars, barchart.BarData{
			Label:  d.Format(label),
			Values: values,
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	weeklyTab := inactiveTabStyle.Render("Week")
	monthlyTab := inactiveTabStyle.Render("Month")
	if r.mode == reportWeekly {
		weeklyTab = activeTabStyle.Render("Week")
	} else {
		monthlyTab = activeTabStyle.Render("Month")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, weeklyTab, monthlyTab)

	from, to := r.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s - %s", from.Format("Jan 02"), to.Format("Jan 02, 2006")))
	total := highlightStyle.Render("Total " + formatMillis(r.report.TotalTime))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Reports"), "  ", modeTabs, "  ", dateLabel, "  ", total,
	)

	nav := mutedStyle.Render("  ←/→: earlier/later  f: week/month")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", r.renderTaskTable(w), "", nav,
		),
	)
}

func (r reportsModel) renderTaskTable(w int) string {
	if len(r.report.Tasks) == 0 {
		return mutedStyle.Render("  No time tracked in this period")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-30s %10s %6s %7s", "Task", "Time", "Hours", "Share")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 56))))

	for _, t := range r.report.Tasks {
		dot := lipgloss.NewStyle().Foreground(r.taskColor(t.TaskID)).Render("●")
		rows = append(rows, fmt.Sprintf("  %s %-28s %10s %6s %6d%%",
			dot, truncate(t.Title, 28), formatMillis(t.TotalTime), formatHours(t.TotalTime), t.Percentage,
		))
	}

	return strings.Join(rows, "\n")
}
