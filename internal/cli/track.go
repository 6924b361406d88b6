package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sadopc/taskhub/internal/stats"
	"github.com/sadopc/taskhub/internal/tracker"
)

func newStartCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "start <task-id>",
		Short: "Start tracking time on a task",
		Long: `Start tracking time on a task. A timer already running on another task is
stopped first. The timer keeps running after taskhub exits.`,
		Args: cobra.ExactArgs(1),
		RunE: o.withApp(func(cmd *cobra.Command, args []string, a *app) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			prev := a.session.Status()
			if err := a.session.Start(id); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if prev.State == tracker.Tracking && prev.TaskID != id {
				fmt.Fprintf(out, "Stopped task #%d\n", prev.TaskID)
			}
			task, err := lookupTask(a.store.Tasks, id)
			if err != nil {
				return err
			}
			st := a.session.Status()
			if prev.State == tracker.Tracking && prev.TaskID == id {
				fmt.Fprintf(out, "Already tracking task #%d: %s\n", id, task.Title)
			} else {
				fmt.Fprintf(out, "Started task #%d: %s\n", id, task.Title)
			}
			fmt.Fprintf(out, "Started at: %s\n", st.StartTime.Local().Format("15:04:05"))
			return nil
		}),
	}
}

func newStopCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop tracking time",
		Args:  cobra.NoArgs,
		RunE: o.withApp(func(cmd *cobra.Command, args []string, a *app) error {
			st := a.session.Status()
			entry, err := a.session.Stop()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case st.State == tracker.Idle:
				fmt.Fprintln(out, "No active time tracking session")
			case entry == nil:
				fmt.Fprintf(out, "Stopped task #%d after less than %s, nothing recorded\n",
					st.TaskID, a.cfg.Tracking.MinDuration)
			default:
				fmt.Fprintf(out, "Stopped task #%d\n", entry.TaskID)
				fmt.Fprintf(out, "Session duration: %s\n", stats.FormatDuration(entry.Duration))
			}
			return nil
		}),
	}
}

func newStatusCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show current time tracking status",
		Args:  cobra.NoArgs,
		RunE: o.withApp(func(cmd *cobra.Command, args []string, a *app) error {
			out := cmd.OutOrStdout()
			st := a.session.Status()
			if st.State == tracker.Idle {
				fmt.Fprintln(out, "No active time tracking session")
				return nil
			}

			title := a.cfg.Stats.UnknownTaskLabel
			if task, err := a.store.Tasks.GetByID(st.TaskID); err == nil && task != nil {
				title = task.Title
			}
			fmt.Fprintf(out, "Currently tracking: task #%d: %s\n", st.TaskID, title)
			fmt.Fprintf(out, "Started at: %s\n", st.StartTime.Local().Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Elapsed time: %s\n", stats.FormatDuration(a.session.Elapsed().Milliseconds()))
			return nil
		}),
	}
}
