package store

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

// Store is the record store backing every repository. It owns the SQLite
// handle; repositories share it.
type Store struct {
	db  *sql.DB
	now func() time.Time

	Tasks   *TaskRepository
	Entries *TimeEntryRepository
	KV      *KV

	legacy LegacySource
}

// Option configures a Store at open time.
type Option func(*Store)

// WithClock replaces time.Now for id and createdAt assignment.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLegacySource adds src to the legacy lists New imports once the schema is
// ready. The kv slot LegacyTasksKey is always checked first.
func WithLegacySource(src LegacySource) Option {
	return func(s *Store) { s.legacy = src }
}

// New opens (or creates) the SQLite database at dbPath, runs schema migrations
// and then the legacy import, which only writes while the tasks table is empty.
func New(dbPath string, opts ...Option) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.Tasks = &TaskRepository{db: db, now: s.now}
	s.Entries = &TimeEntryRepository{db: db}
	s.KV = &KV{db: db}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	sources := MultiLegacySource{KVLegacySource{KV: s.KV}}
	if s.legacy != nil {
		sources = append(sources, s.legacy)
	}
	res := s.MigrateLegacy(sources)
	if res.Imported > 0 || res.Skipped > 0 {
		log.Printf("legacy migration: imported %d, skipped %d", res.Imported, res.Skipped)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory(opts ...Option) (*Store, error) {
	return New(":memory:", opts...)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS tasks (
		id            INTEGER PRIMARY KEY,
		title         TEXT NOT NULL DEFAULT '',
		completed     INTEGER NOT NULL DEFAULT 0,
		priority      TEXT NOT NULL DEFAULT '',
		category      TEXT NOT NULL DEFAULT '',
		due_date      TEXT,
		created_at    TEXT NOT NULL,
		kanban_column TEXT,
		time_spent    INTEGER,
		archived      INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_completed ON tasks(completed);
	CREATE INDEX IF NOT EXISTS idx_tasks_priority  ON tasks(priority);
	CREATE INDEX IF NOT EXISTS idx_tasks_category  ON tasks(category);
	CREATE INDEX IF NOT EXISTS idx_tasks_due_date  ON tasks(due_date);
	CREATE INDEX IF NOT EXISTS idx_tasks_column    ON tasks(kanban_column);

	CREATE TABLE IF NOT EXISTS time_entries (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id     INTEGER NOT NULL,
		start_time  TEXT NOT NULL,
		end_time    TEXT NOT NULL,
		duration    INTEGER NOT NULL,
		date        TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_entries_task ON time_entries(task_id);
	CREATE INDEX IF NOT EXISTS idx_entries_date ON time_entries(date);

	CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(ddl)
	return err
}

// DefaultDBPath returns ~/.config/taskhub/taskhub.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "taskhub", "taskhub.db"), nil
}
