package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkspaceDir string `toml:"workspace_dir"`
	LogDir       string `toml:"log_dir"`
}

// Git contains settings for the shared content repository.
type Git struct {
	Binary             string `toml:"binary"`
	Remote             string `toml:"remote"`
	Branch             string `toml:"branch"`
	PullTimeoutSeconds int    `toml:"pull_timeout_seconds"`
	PushTimeoutSeconds int    `toml:"push_timeout_seconds"`
	CommitterName      string `toml:"committer_name"`
	CommitterEmail     string `toml:"committer_email"`
}

// Places contains configuration for the Google Places API.
type Places struct {
	APIKey                string `toml:"api_key"`
	BaseURL               string `toml:"base_url"`
	MaxResults            int    `toml:"max_results"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Recommendation contains settings for the daily restaurant pick.
type Recommendation struct {
	SectionID        string  `toml:"section_id"`
	HistoryDays      int     `toml:"history_days"`
	HistoryMax       int     `toml:"history_max_entries"`
	MinRating        float64 `toml:"min_rating"`
	RunAfter         string  `toml:"run_after"`
	DefaultLocation  string  `toml:"default_location"`
	CheckIntervalMin int     `toml:"check_interval_minutes"`
}

// Scheduler contains timing configuration for the trigger loop.
type Scheduler struct {
	TickSeconds         int `toml:"tick_seconds"`
	SyncIntervalMinutes int `toml:"sync_interval_minutes"`
}

// VersionCheck contains configuration for the periodic release check.
type VersionCheck struct {
	Enabled       bool   `toml:"enabled"`
	ReleasesURL   string `toml:"releases_url"`
	IntervalHours int    `toml:"interval_hours"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// RunLog contains configuration for the local run-outcome database.
type RunLog struct {
	RetentionDays int `toml:"retention_days"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for marquee.
//
// Configuration sections by subsystem:
//   - Paths: workspace and log directories
//   - Git: shared content repository sync settings
//   - Places: restaurant recommendation API
//   - Recommendation: daily pick filters and cadence
//   - Scheduler: trigger loop timing
//   - VersionCheck: periodic release check
//   - Notifications: ntfy push notification settings
//   - RunLog: run-outcome database retention
//   - Logging: log format, level, and retention
type Config struct {
	Paths          Paths          `toml:"paths"`
	Git            Git            `toml:"git"`
	Places         Places         `toml:"places"`
	Recommendation Recommendation `toml:"recommendation"`
	Scheduler      Scheduler      `toml:"scheduler"`
	VersionCheck   VersionCheck   `toml:"version_check"`
	Notifications  Notifications  `toml:"notifications"`
	RunLog         RunLog         `toml:"run_log"`
	Logging        Logging        `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/marquee/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("marquee.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// WorkspaceDir is created on a best-effort basis so the daemon can start
// before the content repository has been cloned.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.LogDir, err)
	}
	if strings.TrimSpace(c.Paths.WorkspaceDir) != "" {
		_ = os.MkdirAll(c.Paths.WorkspaceDir, 0o755)
	}
	return nil
}

// GitBinary returns the git executable name.
func (c *Config) GitBinary() string {
	if strings.TrimSpace(c.Git.Binary) == "" {
		return "git"
	}
	return c.Git.Binary
}

// HasPlacesKey reports whether a recommendation API key is configured.
// A missing key is a configuration condition, not an error: stale teams
// simply stay stale until a key appears.
func (c *Config) HasPlacesKey() bool {
	return strings.TrimSpace(c.Places.APIKey) != ""
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
