package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/sadopc/taskhub/internal/stats"
	"github.com/sadopc/taskhub/internal/store"
)

func newReportCmd(o *options) *cobra.Command {
	var from, to string
	var taskID int64
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarise tracked time",
		Long: `Summarise tracked time per task and per day. The range defaults to the
current month; --task shows one task's history instead.`,
		Example: `  taskhub report
  taskhub report --from 2024-01-01 --to 2024-01-31 --json
  taskhub report --task 1705311000000`,
		Args: cobra.NoArgs,
		RunE: o.withApp(func(cmd *cobra.Command, args []string, a *app) error {
			out := cmd.OutOrStdout()
			if taskID != 0 {
				return taskHistory(cmd, a, taskID, asJSON)
			}

			start, end, err := dateRange(o.now(), from, to)
			if err != nil {
				return err
			}
			r, err := a.stats.Report(start, end)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(r)
			}

			fmt.Fprintf(out, "Report %s .. %s\n", r.Start, r.End)
			fmt.Fprintf(out, "Total: %s\n\n", stats.FormatDuration(r.TotalTime))
			if len(r.Tasks) == 0 {
				fmt.Fprintln(out, "No time recorded in this period")
				return nil
			}

			rows := make([][]string, 0, len(r.Tasks))
			for _, t := range r.Tasks {
				rows = append(rows, []string{
					fmt.Sprint(t.TaskID), t.Title, stats.FormatDuration(t.TotalTime), fmt.Sprintf("%d%%", t.Percentage),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"ID", "Task", "Time", "Share"}, rows))

			dates := make([]string, 0, len(r.Days))
			for d := range r.Days {
				dates = append(dates, d)
			}
			sort.Strings(dates)
			rows = rows[:0]
			for _, d := range dates {
				day := r.Days[d]
				top := ""
				if len(day.Tasks) > 0 {
					top = day.Tasks[0].Title
				}
				rows = append(rows, []string{d, stats.FormatDuration(day.TotalTime), fmt.Sprint(len(day.Tasks)), top})
			}
			fmt.Fprintln(out, renderTable([]string{"Date", "Time", "Tasks", "Most time"}, rows))
			return nil
		}),
	}

	cmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day (YYYY-MM-DD)")
	cmd.Flags().Int64Var(&taskID, "task", 0, "show the history of one task")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func taskHistory(cmd *cobra.Command, a *app, taskID int64, asJSON bool) error {
	out := cmd.OutOrStdout()
	hist, err := a.stats.TaskHistory(taskID)
	if err != nil {
		return err
	}
	if asJSON {
		if hist == nil {
			hist = []stats.DayEntries{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(hist)
	}

	title := a.cfg.Stats.UnknownTaskLabel
	task, err := a.store.Tasks.GetByID(taskID)
	if err != nil {
		return err
	}
	if task != nil {
		title = task.Title
	}
	fmt.Fprintf(out, "Task #%d: %s\n", taskID, title)
	if len(hist) == 0 {
		fmt.Fprintln(out, "No time recorded")
		return nil
	}

	var total int64
	for _, day := range hist {
		total += day.TotalTime
		fmt.Fprintf(out, "\n%s  %s\n", day.Date, stats.FormatDuration(day.TotalTime))
		for _, e := range day.Entries {
			fmt.Fprintf(out, "  %s  %s - %s  %s\n", entryLabel(e),
				e.StartTime.Local().Format("15:04:05"), e.EndTime.Local().Format("15:04:05"),
				stats.FormatDuration(e.Duration))
		}
	}
	fmt.Fprintf(out, "\nTotal: %s\n", stats.FormatDuration(total))
	return nil
}

func entryLabel(e store.TimeEntry) string {
	return fmt.Sprintf("#%d", e.ID)
}
