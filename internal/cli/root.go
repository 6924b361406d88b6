// Package cli is the taskhub command line. Without a subcommand it opens the TUI.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/taskhub/internal/config"
	"github.com/sadopc/taskhub/internal/stats"
	"github.com/sadopc/taskhub/internal/store"
	"github.com/sadopc/taskhub/internal/tracker"
	"github.com/sadopc/taskhub/internal/tui"
)

// options are the global flags plus the clock, which tests replace.
type options struct {
	configPath string
	dbPath     string
	now        func() time.Time
}

// app is everything a command needs once the database is open.
type app struct {
	cfg     *config.Config
	store   *store.Store
	session *tracker.Session
	stats   *stats.Engine
}

func (a *app) Close() {
	a.session.Close()
	a.store.Close()
}

func (o *options) resolveConfigPath() (string, error) {
	if o.configPath != "" {
		return o.configPath, nil
	}
	return config.DefaultPath()
}

func (o *options) loadConfig() (*config.Config, error) {
	path, err := o.resolveConfigPath()
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

func (o *options) open() (*app, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	dbPath := o.dbPath
	if dbPath == "" {
		dbPath = cfg.DBPath
	}
	if dbPath == "" {
		if dbPath, err = store.DefaultDBPath(); err != nil {
			return nil, err
		}
	}

	storeOpts := []store.Option{store.WithClock(o.now)}
	if cfg.LegacyFile != "" {
		storeOpts = append(storeOpts, store.WithLegacySource(store.FileLegacySource{Path: cfg.LegacyFile}))
	}
	s, err := store.New(dbPath, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	session, err := tracker.New(s.Tasks, s.Entries, s.KV,
		tracker.WithClock(o.now),
		tracker.WithMinDuration(cfg.Tracking.MinDuration),
	)
	if err != nil {
		s.Close()
		return nil, err
	}

	return &app{
		cfg:     cfg,
		store:   s,
		session: session,
		stats:   stats.New(s.Entries, s.Tasks, cfg.Stats.UnknownTaskLabel),
	}, nil
}

// withApp opens the database for the duration of one command.
func (o *options) withApp(fn func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := o.open()
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, args, a)
	}
}

func newRootCmd(o *options, version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "taskhub",
		Short: "Task board and time tracker",
		Long: `taskhub keeps a local task list and tracks the time you spend on each task.

Run without a subcommand to open the interactive board.`,
		RunE: o.withApp(func(cmd *cobra.Command, args []string, a *app) error {
			return tui.Run(a.store, a.session, a.stats, a.cfg)
		}),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&o.configPath, "config", "", "config file (default ~/.config/taskhub/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&o.dbPath, "db", "", "database file (overrides db_path)")

	rootCmd.AddCommand(newTaskCmd(o))
	rootCmd.AddCommand(newStartCmd(o))
	rootCmd.AddCommand(newStopCmd(o))
	rootCmd.AddCommand(newStatusCmd(o))
	rootCmd.AddCommand(newReportCmd(o))
	rootCmd.AddCommand(newEntriesCmd(o))
	rootCmd.AddCommand(newExportCmd(o))
	rootCmd.AddCommand(newImportCmd(o))
	rootCmd.AddCommand(newConfigCmd(o))
	rootCmd.AddCommand(newVersionCmd(version))
	return rootCmd
}

// Execute runs the root command
func Execute(version string) error {
	rootCmd := newRootCmd(&options{now: time.Now}, version)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "taskhub %s\n", version)
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func validDate(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return nil
}

// dateRange resolves --from/--to, defaulting to the current month.
func dateRange(now time.Time, from, to string) (string, string, error) {
	start, end := stats.MonthRange(now.UTC())
	if from != "" {
		start = from
	}
	if to != "" {
		end = to
	}
	if err := validDate(start); err != nil {
		return "", "", err
	}
	if err := validDate(end); err != nil {
		return "", "", err
	}
	if start > end {
		return "", "", fmt.Errorf("--from %s is after --to %s", start, end)
	}
	return start, end, nil
}

func titleMap(a *app) (map[int64]string, error) {
	tasks, err := a.store.Tasks.GetAll()
	if err != nil {
		return nil, err
	}
	titles := make(map[int64]string, len(tasks))
	for _, t := range tasks {
		titles[t.ID] = t.Title
	}
	return titles, nil
}

func exportPath(a *app, out, name string) string {
	if out != "" {
		return out
	}
	return filepath.Join(a.cfg.Export.Dir, name)
}
