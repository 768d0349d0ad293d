package config

const (
	defaultWorkspaceDir        = "~/.local/share/marquee/workspace"
	defaultLogDir              = "~/.local/share/marquee/logs"
	defaultLogRetentionDays    = 60
	defaultGitRemote           = "origin"
	defaultGitBranch           = "main"
	defaultGitPullTimeout      = 120
	defaultGitPushTimeout      = 120
	defaultCommitterName       = "marquee"
	defaultCommitterEmail      = "marquee@localhost"
	defaultPlacesBaseURL       = "https://maps.googleapis.com/maps/api/place"
	defaultPlacesMaxResults    = 20
	defaultPlacesTimeout       = 15
	defaultSectionID           = "canteen_menu"
	defaultHistoryDays         = 20
	defaultHistoryMaxEntries   = 20
	defaultMinRating           = 1.0
	defaultRunAfter            = "02:30"
	defaultLocation            = "Sibiu"
	defaultCheckIntervalMin    = 30
	defaultTickSeconds         = 30
	defaultSyncIntervalMinutes = 15
	defaultReleasesURL         = "https://api.github.com/repos/marquee-signage/marquee/releases/latest"
	defaultVersionCheckHours   = 12
	defaultNotifyTimeout       = 10
	defaultRunLogRetentionDays = 90
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkspaceDir: defaultWorkspaceDir,
			LogDir:       defaultLogDir,
		},
		Git: Git{
			Remote:             defaultGitRemote,
			Branch:             defaultGitBranch,
			PullTimeoutSeconds: defaultGitPullTimeout,
			PushTimeoutSeconds: defaultGitPushTimeout,
			CommitterName:      defaultCommitterName,
			CommitterEmail:     defaultCommitterEmail,
		},
		Places: Places{
			BaseURL:               defaultPlacesBaseURL,
			MaxResults:            defaultPlacesMaxResults,
			RequestTimeoutSeconds: defaultPlacesTimeout,
		},
		Recommendation: Recommendation{
			SectionID:        defaultSectionID,
			HistoryDays:      defaultHistoryDays,
			HistoryMax:       defaultHistoryMaxEntries,
			MinRating:        defaultMinRating,
			RunAfter:         defaultRunAfter,
			DefaultLocation:  defaultLocation,
			CheckIntervalMin: defaultCheckIntervalMin,
		},
		Scheduler: Scheduler{
			TickSeconds:         defaultTickSeconds,
			SyncIntervalMinutes: defaultSyncIntervalMinutes,
		},
		VersionCheck: VersionCheck{
			Enabled:       true,
			ReleasesURL:   defaultReleasesURL,
			IntervalHours: defaultVersionCheckHours,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		RunLog: RunLog{
			RetentionDays: defaultRunLogRetentionDays,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
