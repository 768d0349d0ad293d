package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"marquee/internal/config"
	"marquee/internal/gitsync"
	"marquee/internal/logging"
	"marquee/internal/notifications"
	"marquee/internal/recommend"
	"marquee/internal/runlog"
	"marquee/internal/schedule"
	"marquee/internal/services"
	"marquee/internal/services/places"
	"marquee/internal/version"
	"marquee/internal/workspace"
)

// Trigger names as they appear in logs and the run log.
const (
	triggerContentSync    = "content_sync"
	triggerDailyCheck     = "daily_recommendation"
	triggerMenuRefresh    = "menu_refresh"
	triggerVersionCheck   = "version_check"
	triggerMaintenance    = "maintenance"
	triggerManual         = "manual"
	defaultMenuSlotLength = 15 * time.Minute
)

// Daemon composes the kiosk's background services and enforces
// single-instance execution through a lock file.
type Daemon struct {
	cfg         *config.Config
	logger      *slog.Logger
	syncer      gitsync.Syncer
	store       *workspace.Store
	coordinator *recommend.Coordinator
	runs        *runlog.Store
	notifier    notifications.Service
	checker     *version.Checker
	scheduler   *schedule.Scheduler
	clock       func() time.Time
	searcher    places.Searcher
	searcherSet bool

	logPath  string
	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Version      string
	WorkspaceDir string
	LockFilePath string
	RunLogPath   string
	Head         string
	Teams        []string
	LastRun      *runlog.Record
	Content      workspace.Status
}

// Option customizes daemon construction, primarily for tests.
type Option func(*Daemon)

// WithSyncer replaces the git client.
func WithSyncer(syncer gitsync.Syncer) Option {
	return func(d *Daemon) {
		if syncer != nil {
			d.syncer = syncer
		}
	}
}

// WithSearcher replaces the restaurant search client used by the
// coordinator. Passing nil simulates a kiosk without an API key.
func WithSearcher(searcher places.Searcher) Option {
	return func(d *Daemon) {
		d.searcher = searcher
		d.searcherSet = true
	}
}

// WithClock overrides the wall clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(d *Daemon) {
		if clock != nil {
			d.clock = clock
		}
	}
}

// New constructs a daemon with all dependencies wired from configuration.
// The workspace must point at a git clone of the shared content repository;
// nothing touches the network until a trigger fires.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || logger == nil {
		return nil, errors.New("daemon requires config and logger")
	}
	if strings.TrimSpace(cfg.Paths.WorkspaceDir) == "" {
		return nil, errors.New("workspace directory is not configured")
	}

	syncer, err := gitsync.New(cfg.Git, cfg.Paths.WorkspaceDir, logger)
	if err != nil {
		return nil, fmt.Errorf("build git client: %w", err)
	}

	runs, err := runlog.Open(filepath.Join(cfg.Paths.LogDir, "runlog.db"))
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "marqueed.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		syncer:   syncer,
		store:    workspace.NewStore(cfg.Paths.WorkspaceDir, cfg.Recommendation.HistoryDays, cfg.Recommendation.HistoryMax, logger),
		runs:     runs,
		notifier: notifications.NewService(cfg),
		clock:    time.Now,
		logPath:  filepath.Join(cfg.Paths.LogDir, "marquee.log"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	if cfg.VersionCheck.Enabled {
		d.checker = version.NewChecker(cfg.VersionCheck.ReleasesURL)
	}

	for _, opt := range opts {
		opt(d)
	}
	if !d.searcherSet && cfg.HasPlacesKey() {
		client, err := places.New(cfg.Places.APIKey, cfg.Places.BaseURL, cfg.Places.MaxResults, cfg.Places.RequestTimeoutSeconds)
		if err != nil {
			runs.Close()
			return nil, fmt.Errorf("build places client: %w", err)
		}
		d.searcher = client
	}
	d.coordinator = recommend.NewCoordinator(cfg.Recommendation, d.syncer, d.store, d.searcher, logger,
		recommend.WithRecorder(d.runs), recommend.WithNotifier(d.notifier), recommend.WithClock(d.clock))

	d.scheduler = schedule.New(time.Duration(cfg.Scheduler.TickSeconds)*time.Second, logger, schedule.WithClock(d.clock))
	d.registerTriggers()
	return d, nil
}

func (d *Daemon) registerTriggers() {
	d.scheduler.AddIntervalTrigger(triggerContentSync,
		time.Duration(d.cfg.Scheduler.SyncIntervalMinutes)*time.Minute, true, d.syncAction)
	d.scheduler.AddIntervalTrigger(triggerDailyCheck,
		time.Duration(d.cfg.Recommendation.CheckIntervalMin)*time.Minute, true, d.recommendAction)
	d.scheduler.AddSlotTrigger(triggerMenuRefresh, d.menuSlots, d.menuRefreshAction)
	if d.checker != nil {
		d.scheduler.AddIntervalTrigger(triggerVersionCheck,
			time.Duration(d.cfg.VersionCheck.IntervalHours)*time.Hour, true, d.versionCheckAction)
	}
	d.scheduler.AddIntervalTrigger(triggerMaintenance, 24*time.Hour, false, d.maintenanceAction)
}

// Start acquires the daemon lock and launches the trigger loop.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another marquee daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		_ = d.scheduler.Run(d.ctx)
	}()

	d.running.Store(true)
	d.logger.Info("marquee daemon started",
		logging.String("lock", d.lockPath),
		logging.String("workspace", d.cfg.Paths.WorkspaceDir),
		logging.String("version", version.Version))
	return nil
}

// Stop halts the trigger loop, waits for in-flight actions, and releases
// the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("marquee daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.runs != nil {
		return d.runs.Close()
	}
	return nil
}

// SyncNow pulls the content repository immediately.
func (d *Daemon) SyncNow(ctx context.Context) (gitsync.PullResult, error) {
	ctx = services.WithTrigger(ctx, triggerManual)
	return d.syncer.Pull(ctx)
}

// RecommendNow runs the recommendation cycle immediately. With force every
// team is refreshed regardless of staleness.
func (d *Daemon) RecommendNow(ctx context.Context, force bool) recommend.Summary {
	ctx = services.WithTrigger(ctx, triggerManual)
	if force {
		return d.coordinator.RunAllTeams(ctx)
	}
	return d.coordinator.RunOncePerDay(ctx)
}

// RecentRuns returns the newest run-log records, most recent first.
func (d *Daemon) RecentRuns(ctx context.Context, limit int) ([]runlog.Record, error) {
	if d.runs == nil {
		return nil, errors.New("run log unavailable")
	}
	return d.runs.Recent(ctx, limit)
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		Version:      version.Version,
		WorkspaceDir: d.cfg.Paths.WorkspaceDir,
		LockFilePath: d.lockPath,
	}
	if d.runs != nil {
		status.RunLogPath = d.runs.Path()
		if last, err := d.runs.Last(ctx); err == nil {
			status.LastRun = last
		}
	}
	// Best effort; a workspace that is not a clone yet simply has no head.
	if head, err := d.syncer.Head(ctx); err == nil {
		status.Head = head
	}
	if teams, err := d.store.Teams(); err == nil {
		status.Teams = teams
	}
	if content, err := d.store.ReadStatus(); err == nil {
		status.Content = content
	}
	return status
}

func (d *Daemon) syncAction(ctx context.Context) {
	logger := logging.WithContext(ctx, d.logger)
	result, err := d.syncer.Pull(ctx)
	if err != nil {
		logger.Warn("content sync failed", logging.Error(err))
		return
	}
	if result.Changed {
		logger.Info("content updated",
			logging.String("old_head", result.OldHead),
			logging.String("new_head", result.NewHead),
			logging.String(logging.FieldEventType, "content_updated"))
	}
}

// recommendAction invokes the idempotent daily check. The run-after gate
// keeps kiosks that boot before the configured time from picking for a day
// the canteen has not planned yet.
func (d *Daemon) recommendAction(ctx context.Context) {
	now := d.clock()
	if gate, ok := schedule.ParseSlotTime(d.cfg.Recommendation.RunAfter); ok {
		if now.Hour()*60+now.Minute() < gate.Hour*60+gate.Minute {
			logging.WithContext(ctx, d.logger).Debug("before run-after gate",
				logging.String("run_after", d.cfg.Recommendation.RunAfter))
			return
		}
	}
	summary := d.coordinator.RunOncePerDay(ctx)
	d.logSummary(ctx, summary)
}

// menuSlots collects the slot times from every team's section document so
// displays refresh right when a freshly pushed menu should appear.
func (d *Daemon) menuSlots(ctx context.Context) []schedule.SlotEntry {
	teams, err := d.store.Teams()
	if err != nil {
		return nil
	}
	seen := make(map[string]struct{})
	var entries []schedule.SlotEntry
	for _, team := range teams {
		doc, err := d.store.ReadSection(team, d.cfg.Recommendation.SectionID)
		if err != nil || doc == nil {
			continue
		}
		for _, slot := range doc.SlotsOrDefault() {
			if _, dup := seen[slot.Time]; dup {
				continue
			}
			seen[slot.Time] = struct{}{}
			entries = append(entries, schedule.SlotEntry{
				Time:     slot.Time,
				Duration: schedule.ParseDuration(slot.Duration, defaultMenuSlotLength),
			})
		}
	}
	return entries
}

func (d *Daemon) menuRefreshAction(ctx context.Context, entry schedule.SlotEntry) {
	logging.WithContext(ctx, d.logger).Info("menu slot reached; refreshing content",
		logging.String("slot", entry.Time),
		logging.Duration("duration", entry.Duration))
	d.syncAction(ctx)
}

func (d *Daemon) versionCheckAction(ctx context.Context) {
	logger := logging.WithContext(ctx, d.logger)
	result, err := d.checker.Check(ctx)
	if err != nil {
		logger.Warn("version check failed", logging.Error(err))
		return
	}
	if !result.Newer {
		logger.Debug("running latest release",
			logging.String("version", result.Current),
			logging.String("latest", result.Latest))
		return
	}
	logger.Info("new release available",
		logging.String("version", result.Current),
		logging.String("latest", result.Latest),
		logging.String(logging.FieldEventType, "update_available"))
	if err := d.notifier.NotifyVersionAvailable(ctx, result.Current, result.Latest); err != nil {
		logger.Warn("version notification failed", logging.Error(err))
	}
}

func (d *Daemon) maintenanceAction(ctx context.Context) {
	logging.CleanupOldLogs(d.logger, d.cfg.Logging.RetentionDays, logging.RetentionTarget{
		Dir:     d.cfg.Paths.LogDir,
		Pattern: "*.log",
		Exclude: []string{d.logPath},
	})
	if d.runs != nil {
		if removed, err := d.runs.Prune(ctx, d.cfg.RunLog.RetentionDays); err != nil {
			d.logger.Warn("run log prune failed", logging.Error(err))
		} else if removed > 0 {
			d.logger.Debug("run log pruned", logging.Int64("removed", removed))
		}
	}
}

func (d *Daemon) logSummary(ctx context.Context, summary recommend.Summary) {
	logger := logging.WithContext(ctx, d.logger)
	switch summary.Outcome {
	case runlog.OutcomeOK:
		logger.Info("recommendation run updated teams",
			logging.Int("teams_updated", summary.TeamsUpdated),
			logging.String(logging.FieldRunID, summary.RunID))
	case runlog.OutcomeNoUpdateNeeded:
		logger.Debug("recommendation already current", logging.String(logging.FieldRunID, summary.RunID))
	default:
		logger.Warn("recommendation run did not update",
			logging.String("outcome", string(summary.Outcome)),
			logging.String("message", summary.Message),
			logging.String(logging.FieldRunID, summary.RunID))
	}
}
