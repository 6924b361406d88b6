package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/sadopc/taskhub/internal/stats"
	"github.com/sadopc/taskhub/internal/store"
	"github.com/sadopc/taskhub/internal/tracker"
)

func newTaskCmd(o *options) *cobra.Command {
	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}
	taskCmd.AddCommand(newTaskAddCmd(o))
	taskCmd.AddCommand(newTaskListCmd(o))
	taskCmd.AddCommand(newTaskDoneCmd(o))
	taskCmd.AddCommand(newTaskRmCmd(o))
	taskCmd.AddCommand(newTaskEditCmd(o))
	taskCmd.AddCommand(newTaskArchiveCmd(o, true))
	taskCmd.AddCommand(newTaskArchiveCmd(o, false))
	return taskCmd
}

// lookupTask resolves id, turning a missing row into TaskNotFoundError.
func lookupTask(tasks *store.TaskRepository, id int64) (*store.Task, error) {
	t, err := tasks.GetByID(id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, &store.TaskNotFoundError{ID: id}
	}
	return t, nil
}

func parsePriority(s string) (store.Priority, error) {
	switch p := store.Priority(strings.ToLower(s)); p {
	case store.PriorityHigh, store.PriorityMedium, store.PriorityLow, store.PriorityUnset:
		return p, nil
	}
	return "", fmt.Errorf("invalid priority %q, want high, medium or low", s)
}

func newTaskAddCmd(o *options) *cobra.Command {
	var priority, category, due, column string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Example: `  taskhub task add "Write report" --priority high --due 2024-02-01
  taskhub task add Groceries --category home`,
		Args: cobra.MinimumNArgs(1),
		RunE: o.withApp(func(cmd *cobra.Command, args []string, a *app) error {
			title := strings.TrimSpace(strings.Join(args, " "))
			if title == "" {
				return fmt.Errorf("title must not be empty")
			}
			p, err := parsePriority(priority)
			if err != nil {
				return err
			}
			if err := validDate(due); err != nil {
				return err
			}

			t, err := a.store.Tasks.Save(store.Task{
				Title:        title,
				Priority:     p,
				Category:     category,
				DueDate:      due,
				KanbanColumn: column,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added task #%d: %s\n", t.ID, t.Title)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&priority, "priority", "p", "", "high, medium or low")
	cmd.Flags().StringVarP(&category, "category", "c", "", "category name")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&column, "column", "", "kanban column")
	return cmd
}

func newTaskListCmd(o *options) *cobra.Command {
	var all, done, archived, asJSON bool
	var category, priority, column string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open tasks",
		Args:  cobra.NoArgs,
		RunE: o.withApp(func(cmd *cobra.Command, args []string, a *app) error {
			var f store.TaskFilter
			if !all {
				f.Completed = &done
				f.Archived = &archived
			}
			f.Category = category
			f.KanbanColumn = column
			if priority != "" {
				p, err := parsePriority(priority)
				if err != nil {
					return err
				}
				f.Priority = &p
			}

			tasks, err := a.store.Tasks.Find(f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if tasks == nil {
					tasks = []store.Task{}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(tasks)
			}
			if len(tasks) == 0 {
				fmt.Fprintln(out, "No tasks")
				return nil
			}

			active := a.session.Status()
			rows := make([][]string, 0, len(tasks))
			for _, t := range tasks {
				mark := " "
				if t.Completed {
					mark = "x"
				}
				if active.State == tracker.Tracking && active.TaskID == t.ID {
					mark = ">"
				}
				rows = append(rows, []string{
					mark, fmt.Sprint(t.ID), t.Title, string(t.Priority), t.Category, t.DueDate,
					stats.FormatDuration(t.TimeSpent),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"", "ID", "Title", "Priority", "Category", "Due", "Time"}, rows))
			return nil
		}),
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "include completed and archived tasks")
	cmd.Flags().BoolVar(&done, "done", false, "list completed tasks instead of open ones")
	cmd.Flags().BoolVar(&archived, "archived", false, "list archived tasks")
	cmd.Flags().StringVarP(&category, "category", "c", "", "only this category")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "only this priority")
	cmd.Flags().StringVar(&column, "column", "", "only this kanban column")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newTaskDoneCmd(o *options) *cobra.Command {
	var undo bool

	cmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task as completed",
		Args:  cobra.ExactArgs(1),
		RunE: o.withApp(func(cmd *cobra.Command, args []string, a *app) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			t, err := lookupTask(a.store.Tasks, id)
			if err != nil {
				return err
			}

			t.Completed = !undo
			if _, err := a.store.Tasks.Save(*t); err != nil {
				return err
			}
			if undo {
				fmt.Fprintf(cmd.OutOrStdout(), "Reopened task #%d: %s\n", t.ID, t.Title)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Completed task #%d: %s\n", t.ID, t.Title)
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "mark the task as open again")
	return cmd
}

func newTaskRmCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Long:    "Delete a task. Its recorded time entries are kept and show up in reports under the unknown task label.",
		Args:    cobra.ExactArgs(1),
		RunE: o.withApp(func(cmd *cobra.Command, args []string, a *app) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if st := a.session.Status(); st.State == tracker.Tracking && st.TaskID == id {
				if _, err := a.session.Stop(); err != nil {
					return err
				}
			}
			if _, err := a.store.Tasks.Delete(id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task #%d\n", id)
			return nil
		}),
	}
}

func newTaskEditCmd(o *options) *cobra.Command {
	var title, priority, category, due, column string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a task's fields",
		Long:  "Change a task's fields. Only the flags given are applied; pass an empty value to clear a field.",
		Example: `  taskhub task edit 1700000000000 --priority low --due 2024-03-01
  taskhub task edit 1700000000000 --column done`,
		Args: cobra.ExactArgs(1),
		RunE: o.withApp(func(cmd *cobra.Command, args []string, a *app) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			t, err := lookupTask(a.store.Tasks, id)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			changed := false
			if flags.Changed("title") {
				title = strings.TrimSpace(title)
				if title == "" {
					return fmt.Errorf("title must not be empty")
				}
				t.Title = title
				changed = true
			}
			if flags.Changed("priority") {
				if t.Priority, err = parsePriority(priority); err != nil {
					return err
				}
				changed = true
			}
			if flags.Changed("category") {
				t.Category = category
				changed = true
			}
			if flags.Changed("due") {
				if err := validDate(due); err != nil {
					return err
				}
				t.DueDate = due
				changed = true
			}
			if flags.Changed("column") {
				t.KanbanColumn = column
				changed = true
			}
			if !changed {
				return fmt.Errorf("nothing to change, pass at least one of --title, --priority, --category, --due, --column")
			}

			if _, err := a.store.Tasks.Save(*t); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task #%d: %s\n", t.ID, t.Title)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "high, medium or low")
	cmd.Flags().StringVarP(&category, "category", "c", "", "category name")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&column, "column", "", "kanban column")
	return cmd
}

func newTaskArchiveCmd(o *options, archive bool) *cobra.Command {
	use, short, verb := "archive <id>", "Archive a task", "Archived"
	if !archive {
		use, short, verb = "unarchive <id>", "Move an archived task back to the list", "Unarchived"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: o.withApp(func(cmd *cobra.Command, args []string, a *app) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			t, err := lookupTask(a.store.Tasks, id)
			if err != nil {
				return err
			}
			t.Archived = archive
			if _, err := a.store.Tasks.Save(*t); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s task #%d: %s\n", verb, t.ID, t.Title)
			return nil
		}),
	}
}

var headerStyle = lipgloss.NewStyle().Bold(true)

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}
