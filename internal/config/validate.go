package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. A missing Places API key is
// deliberately not an error here: the daemon runs without one and the daily
// recommendation simply stays stale until a key is configured.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateScheduler(); err != nil {
		return err
	}
	if err := c.validateGit(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.WorkspaceDir) == "" {
		return errors.New("paths.workspace_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateScheduler() error {
	// Slots have minute resolution; a tick slower than a minute could skip
	// a whole occurrence.
	if c.Scheduler.TickSeconds >= 60 {
		return fmt.Errorf("scheduler.tick_seconds must be below 60, got %d", c.Scheduler.TickSeconds)
	}
	for name, value := range map[string]int{
		"scheduler.tick_seconds":                c.Scheduler.TickSeconds,
		"scheduler.sync_interval_minutes":       c.Scheduler.SyncIntervalMinutes,
		"recommendation.check_interval_minutes": c.Recommendation.CheckIntervalMin,
		"recommendation.history_days":           c.Recommendation.HistoryDays,
		"recommendation.history_max_entries":    c.Recommendation.HistoryMax,
		"version_check.interval_hours":          c.VersionCheck.IntervalHours,
		"run_log.retention_days":                c.RunLog.RetentionDays,
		"notifications.request_timeout":         c.Notifications.RequestTimeout,
		"places.request_timeout_seconds":        c.Places.RequestTimeoutSeconds,
	} {
		if value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, value)
		}
	}
	return nil
}

func (c *Config) validateGit() error {
	if strings.TrimSpace(c.Git.Remote) == "" {
		return errors.New("git.remote must be set")
	}
	if strings.TrimSpace(c.Git.Branch) == "" {
		return errors.New("git.branch must be set")
	}
	if c.Git.PullTimeoutSeconds <= 0 || c.Git.PushTimeoutSeconds <= 0 {
		return errors.New("git timeouts must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
