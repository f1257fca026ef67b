package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
)

// ErrInvalidConfig is returned when a loaded value is out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// StoreConfig selects the timestamp store.
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"` // Empty means the backend default
}

// ExcludeConfig lists glob patterns pruned from every scan.
type ExcludeConfig struct {
	Dirs  []string `mapstructure:"dirs"`
	Files []string `mapstructure:"files"`
}

// HistoryConfig configures the epoch journal.
type HistoryConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// Config is the resolved application configuration.
type Config struct {
	Store    StoreConfig   `mapstructure:"store"`
	Interval time.Duration `mapstructure:"interval"`
	Exclude  ExcludeConfig `mapstructure:"exclude"`
	Output   string        `mapstructure:"output"`
	History  HistoryConfig `mapstructure:"history"`
	Logging  LoggingConfig `mapstructure:"logging"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("store.backend", DefaultBackend)
	v.SetDefault("store.path", "")
	v.SetDefault("interval", DefaultInterval)
	v.SetDefault("exclude.dirs", []string{})
	v.SetDefault("exclude.files", []string{})
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "")
	v.SetDefault("history.retention_days", DefaultRetentionDays)
	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.rotation.max_size", DefaultLogMaxSize)
	v.SetDefault("logging.rotation.max_backups", DefaultLogMaxBackups)
}

// Load resolves configuration into v and decodes it.
//
// If file is empty the config is looked up as config.yaml in
// $XDG_CONFIG_HOME/deltafy and then ~/.config/deltafy; a missing file is not
// an error. Flags bound to v before Load take precedence over everything.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if file != "" {
		expanded, err := ExpandPath(file)
		if err != nil {
			return nil, err
		}
		v.SetConfigFile(expanded)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, dir := range searchDirs() {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive, got %s", ErrInvalidConfig, c.Interval)
	}
	if c.History.RetentionDays < 0 {
		return fmt.Errorf("%w: history.retention_days must not be negative", ErrInvalidConfig)
	}
	if _, err := c.Logging.Rotation.MaxSizeBytes(); err != nil {
		return err
	}

	var err error
	for _, p := range []*string{&c.Store.Path, &c.History.Path, &c.Logging.Path} {
		if *p, err = ExpandPath(*p); err != nil {
			return err
		}
	}
	if c.History.Path == "" {
		c.History.Path = DefaultHistoryDir()
	}
	return nil
}

// MaxSizeBytes parses MaxSize ("10MB", "512KiB"). Empty means the default.
func (r RotationConfig) MaxSizeBytes() (int64, error) {
	s := r.MaxSize
	if strings.TrimSpace(s) == "" {
		s = DefaultLogMaxSize
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("%w: logging.rotation.max_size %q: %w", ErrInvalidConfig, r.MaxSize, err)
	}
	return int64(n), nil
}

// searchDirs lists config directories in lookup order.
func searchDirs() []string {
	var dirs []string
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		dirs = append(dirs, filepath.Join(xdgConfigHome, "deltafy"))
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(homeDir, ".config", "deltafy"))
	}
	return dirs
}

// ConfigDir returns the directory WriteDefault writes to.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "deltafy"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "deltafy"), nil
}

// DefaultConfigPath returns ConfigDir()/config.yaml.
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DefaultHistoryDir returns $XDG_STATE_HOME/deltafy/history.
func DefaultHistoryDir() string {
	return filepath.Join(xdg.StateHome, "deltafy", "history")
}

// WriteDefault writes a commented default config to path, or to
// DefaultConfigPath() when path is empty. An existing file is left alone and
// reported with created=false.
func WriteDefault(path string) (written string, created bool, err error) {
	if path == "" {
		if path, err = DefaultConfigPath(); err != nil {
			return "", false, err
		}
	}

	if _, statErr := os.Stat(path); statErr == nil {
		return path, false, nil
	} else if !os.IsNotExist(statErr) {
		return "", false, fmt.Errorf("failed to check config file: %w", statErr)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create config directory: %w", err)
	}

	content := fmt.Sprintf(`# deltafy configuration

store:
  # Timestamp store backend: sqlite or badger
  backend: %s
  # Empty means $XDG_DATA_HOME/deltafy/deltas.db (or deltas.badger)
  path: ""

# Pause between scans in watch mode
interval: %s

# Glob patterns pruned from every scan. A pattern without "/" matches the
# base name, one with "/" matches the whole path.
exclude:
  dirs:
    - .git
  files: []

# Output format: plain, json, yaml or pretty
output: %s

# Journal of scans that reported changes
history:
  enabled: true
  # Empty means $XDG_STATE_HOME/deltafy/history
  path: ""
  retention_days: %d

logging:
  # debug, info, warn or error
  level: %s
  # Empty means $XDG_STATE_HOME/deltafy/deltafy.log
  path: ""
  rotation:
    max_size: %s
    max_backups: %d
`, DefaultBackend, DefaultInterval, DefaultOutput, DefaultRetentionDays,
		DefaultLogLevel, DefaultLogMaxSize, DefaultLogMaxBackups)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write default config: %w", err)
	}
	return path, true, nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, path[1:]), nil
}
