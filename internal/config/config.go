// Package config loads taskhub settings from a YAML file and TASKHUB_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const envPrefix = "TASKHUB"

type Config struct {
	// DBPath is the SQLite file. Empty means the default location.
	DBPath string `yaml:"db_path" mapstructure:"db_path"`

	// LegacyFile is a JSON task array imported once into an empty database.
	LegacyFile string `yaml:"legacy_file" mapstructure:"legacy_file"`

	Tracking TrackingConfig `yaml:"tracking" mapstructure:"tracking"`
	Stats    StatsConfig    `yaml:"stats" mapstructure:"stats"`
	Export   ExportConfig   `yaml:"export" mapstructure:"export"`
}

type TrackingConfig struct {
	// Intervals shorter than this are discarded on stop.
	MinDuration time.Duration `yaml:"min_duration" mapstructure:"min_duration"`
}

type StatsConfig struct {
	UnknownTaskLabel string `yaml:"unknown_task_label" mapstructure:"unknown_task_label"`
}

type ExportConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Tracking: TrackingConfig{MinDuration: 5 * time.Second},
		Stats:    StatsConfig{UnknownTaskLabel: "Unknown task"},
		Export:   ExportConfig{Dir: "."},
	}
}

// DefaultPath returns ~/.config/taskhub/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "taskhub", "config.yaml"), nil
}

// Load reads path over the defaults. A missing file is not an error. Environment
// variables such as TASKHUB_DB_PATH or TASKHUB_TRACKING_MIN_DURATION override
// both.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	setDefaults(v, cfg)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Tracking.MinDuration < 0 {
		return nil, fmt.Errorf("tracking.min_duration must not be negative, got %s", cfg.Tracking.MinDuration)
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("db_path", cfg.DBPath)
	v.SetDefault("legacy_file", cfg.LegacyFile)
	v.SetDefault("tracking.min_duration", cfg.Tracking.MinDuration)
	v.SetDefault("stats.unknown_task_label", cfg.Stats.UnknownTaskLabel)
	v.SetDefault("export.dir", cfg.Export.Dir)
}

const header = `# taskhub configuration
# Every key can be overridden with a TASKHUB_ environment variable,
# e.g. TASKHUB_DB_PATH or TASKHUB_TRACKING_MIN_DURATION.
`

// WriteDefault writes the default configuration to path, creating parent
// directories. An existing file is left alone.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config %s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, append([]byte(header), data...), 0o644)
}
