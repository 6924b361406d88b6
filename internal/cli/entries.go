package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sadopc/taskhub/internal/stats"
	"github.com/sadopc/taskhub/internal/store"
)

func newEntriesCmd(o *options) *cobra.Command {
	entriesCmd := &cobra.Command{
		Use:     "entries",
		Aliases: []string{"log"},
		Short:   "Inspect recorded time entries",
	}
	entriesCmd.AddCommand(newEntriesListCmd(o))
	entriesCmd.AddCommand(newEntriesRmCmd(o))
	return entriesCmd
}

func newEntriesListCmd(o *options) *cobra.Command {
	var from, to string
	var taskID int64
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List time entries, newest first",
		Args:  cobra.NoArgs,
		RunE: o.withApp(func(cmd *cobra.Command, args []string, a *app) error {
			if err := validDate(from); err != nil {
				return err
			}
			if err := validDate(to); err != nil {
				return err
			}
			f := store.EntryFilter{From: from, To: to, Limit: limit}
			if taskID != 0 {
				f.TaskID = &taskID
			}
			entries, err := a.store.Entries.List(f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if entries == nil {
					entries = []store.TimeEntry{}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No time entries")
				return nil
			}

			titles, err := titleMap(a)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				title, ok := titles[e.TaskID]
				if !ok {
					title = a.cfg.Stats.UnknownTaskLabel
				}
				rows = append(rows, []string{
					fmt.Sprint(e.ID), e.Date, title,
					e.StartTime.Local().Format("15:04:05"), e.EndTime.Local().Format("15:04:05"),
					stats.FormatDuration(e.Duration),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"ID", "Date", "Task", "Start", "End", "Duration"}, rows))
			return nil
		}),
	}

	cmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day (YYYY-MM-DD)")
	cmd.Flags().Int64Var(&taskID, "task", 0, "only entries of this task")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of entries (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newEntriesRmCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <entry-id>",
		Short: "Delete a time entry and update the task's total",
		Args:  cobra.ExactArgs(1),
		RunE: o.withApp(func(cmd *cobra.Command, args []string, a *app) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := a.session.DeleteEntry(id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted entry #%d\n", id)
			return nil
		}),
	}
}
