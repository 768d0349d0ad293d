package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGit()
	c.normalizePlaces()
	c.normalizeRecommendation()
	c.normalizeScheduler()
	c.normalizeVersionCheck()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.WorkspaceDir, err = expandPath(c.Paths.WorkspaceDir); err != nil {
		return fmt.Errorf("paths.workspace_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeGit() {
	c.Git.Binary = strings.TrimSpace(c.Git.Binary)
	c.Git.Remote = strings.TrimSpace(c.Git.Remote)
	if c.Git.Remote == "" {
		c.Git.Remote = defaultGitRemote
	}
	c.Git.Branch = strings.TrimSpace(c.Git.Branch)
	if c.Git.Branch == "" {
		c.Git.Branch = defaultGitBranch
	}
	if c.Git.PullTimeoutSeconds <= 0 {
		c.Git.PullTimeoutSeconds = defaultGitPullTimeout
	}
	if c.Git.PushTimeoutSeconds <= 0 {
		c.Git.PushTimeoutSeconds = defaultGitPushTimeout
	}
	if strings.TrimSpace(c.Git.CommitterName) == "" {
		c.Git.CommitterName = defaultCommitterName
	}
	if strings.TrimSpace(c.Git.CommitterEmail) == "" {
		c.Git.CommitterEmail = defaultCommitterEmail
	}
}

func (c *Config) normalizePlaces() {
	if c.Places.APIKey == "" {
		if value, ok := os.LookupEnv("GOOGLE_PLACES_API_KEY"); ok {
			c.Places.APIKey = value
		} else if value, ok := os.LookupEnv("GOOGLE_MAPS_API_KEY"); ok {
			c.Places.APIKey = value
		}
	}
	c.Places.APIKey = strings.TrimSpace(c.Places.APIKey)
	c.Places.BaseURL = strings.TrimSpace(c.Places.BaseURL)
	if c.Places.BaseURL == "" {
		c.Places.BaseURL = defaultPlacesBaseURL
	}
	if c.Places.MaxResults <= 0 {
		c.Places.MaxResults = defaultPlacesMaxResults
	}
	if c.Places.RequestTimeoutSeconds <= 0 {
		c.Places.RequestTimeoutSeconds = defaultPlacesTimeout
	}
}

func (c *Config) normalizeRecommendation() {
	c.Recommendation.SectionID = strings.TrimSpace(c.Recommendation.SectionID)
	if c.Recommendation.SectionID == "" {
		c.Recommendation.SectionID = defaultSectionID
	}
	if c.Recommendation.HistoryDays <= 0 {
		c.Recommendation.HistoryDays = defaultHistoryDays
	}
	if c.Recommendation.HistoryMax <= 0 {
		c.Recommendation.HistoryMax = defaultHistoryMaxEntries
	}
	if c.Recommendation.MinRating <= 0 {
		c.Recommendation.MinRating = defaultMinRating
	}
	c.Recommendation.RunAfter = strings.TrimSpace(c.Recommendation.RunAfter)
	if c.Recommendation.RunAfter == "" {
		c.Recommendation.RunAfter = defaultRunAfter
	}
	if strings.TrimSpace(c.Recommendation.DefaultLocation) == "" {
		c.Recommendation.DefaultLocation = defaultLocation
	}
	if c.Recommendation.CheckIntervalMin <= 0 {
		c.Recommendation.CheckIntervalMin = defaultCheckIntervalMin
	}
}

func (c *Config) normalizeScheduler() {
	if c.Scheduler.TickSeconds <= 0 {
		c.Scheduler.TickSeconds = defaultTickSeconds
	}
	if c.Scheduler.SyncIntervalMinutes <= 0 {
		c.Scheduler.SyncIntervalMinutes = defaultSyncIntervalMinutes
	}
}

func (c *Config) normalizeVersionCheck() {
	c.VersionCheck.ReleasesURL = strings.TrimSpace(c.VersionCheck.ReleasesURL)
	if c.VersionCheck.ReleasesURL == "" {
		c.VersionCheck.ReleasesURL = defaultReleasesURL
	}
	if c.VersionCheck.IntervalHours <= 0 {
		c.VersionCheck.IntervalHours = defaultVersionCheckHours
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
	if c.RunLog.RetentionDays <= 0 {
		c.RunLog.RetentionDays = defaultRunLogRetentionDays
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays <= 0 {
		c.Logging.RetentionDays = defaultLogRetentionDays
	}
}
