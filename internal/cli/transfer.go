package cli

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/sadopc/taskhub/internal/export"
)

func newExportCmd(o *options) *cobra.Command {
	var format, what, out, from, to string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export time entries or tasks to CSV or JSON",
		Example: `  taskhub export --format csv
  taskhub export --what tasks --format json --out backup.json`,
		Args: cobra.NoArgs,
		RunE: o.withApp(func(cmd *cobra.Command, args []string, a *app) error {
			if format != "csv" && format != "json" {
				return fmt.Errorf("invalid format %q, want csv or json", format)
			}
			stamp := o.now().Format("20060102-150405")

			var path string
			switch what {
			case "entries":
				start, end, err := dateRange(o.now(), from, to)
				if err != nil {
					return err
				}
				entries, err := a.store.Entries.GetByDateRange(start, end)
				if err != nil {
					return err
				}
				titles, err := titleMap(a)
				if err != nil {
					return err
				}
				path = exportPath(a, out, fmt.Sprintf("taskhub-entries-%s.%s", stamp, format))
				if format == "csv" {
					err = export.EntriesCSV(entries, titles, path)
				} else {
					err = export.EntriesJSON(entries, titles, path)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d entries to %s\n", len(entries), path)

			case "tasks":
				tasks, err := a.store.Tasks.GetAll()
				if err != nil {
					return err
				}
				path = exportPath(a, out, fmt.Sprintf("taskhub-tasks-%s.%s", stamp, format))
				if format == "csv" {
					err = export.TasksCSV(tasks, path)
				} else {
					err = export.TasksJSON(tasks, path)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d tasks to %s\n", len(tasks), path)

			default:
				return fmt.Errorf("invalid --what %q, want entries or tasks", what)
			}
			return nil
		}),
	}

	cmd.Flags().StringVarP(&format, "format", "f", "csv", "csv or json")
	cmd.Flags().StringVarP(&what, "what", "w", "entries", "entries or tasks")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: a timestamped file in export.dir)")
	cmd.Flags().StringVar(&from, "from", "", "first day of entries (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day of entries (YYYY-MM-DD)")
	return cmd
}

func newImportCmd(o *options) *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import tasks from a JSON array",
		Long: `Import tasks from a JSON array such as one written by "export --what tasks".
Records without a title or id are skipped. By default only tasks whose id is
not stored yet are added; --replace swaps the whole task list in one step.`,
		Args: cobra.ExactArgs(1),
		RunE: o.withApp(func(cmd *cobra.Command, args []string, a *app) error {
			res, err := export.ReadTasksJSON(args[0])
			if err != nil {
				return err
			}
			if res.Skipped > 0 {
				log.Printf("warning: skipped %d invalid records in %s", res.Skipped, args[0])
			}

			out := cmd.OutOrStdout()
			if replace {
				if _, err := a.store.Tasks.ReplaceAll(res.Tasks); err != nil {
					return err
				}
				fmt.Fprintf(out, "Replaced task list with %d tasks\n", len(res.Tasks))
			} else {
				n, err := a.store.Tasks.Merge(res.Tasks)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Imported %d of %d tasks (%d already present)\n", n, len(res.Tasks), len(res.Tasks)-n)
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "replace all existing tasks")
	return cmd
}
