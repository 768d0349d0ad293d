package recommend

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"marquee/internal/config"
	"marquee/internal/gitsync"
	"marquee/internal/logging"
	"marquee/internal/runlog"
	"marquee/internal/services"
	"marquee/internal/services/places"
	"marquee/internal/workspace"
)

// Team skip reasons, mirrored into status messages and logs.
const (
	reasonNoContent            = "no_content"
	reasonNoLocation           = "no_location"
	reasonNoAPIKey             = "no_api_key"
	reasonAPIError             = "api_error"
	reasonNoCandidates         = "no_candidates"
	reasonNoDeliveryCandidates = "no_delivery_candidates"
	reasonError                = "error"
)

// RunRecorder persists finished runs. *runlog.Store satisfies it.
type RunRecorder interface {
	Record(ctx context.Context, record runlog.Record) (int64, error)
}

// Notifier publishes operator notifications about run results.
// notifications.Service satisfies it.
type Notifier interface {
	NotifyRecommendationUpdated(ctx context.Context, team, name, tagline string) error
	NotifyRunFailed(ctx context.Context, message string) error
}

// TeamResult is one team's slice of a coordinator run.
type TeamResult struct {
	Team    string
	Updated bool
	Reason  string
	Name    string
	Tagline string
	Err     error
}

// Summary is the aggregate result of one coordinator run.
type Summary struct {
	RunID        string
	Outcome      runlog.Outcome
	Message      string
	TeamsUpdated int
	Results      []TeamResult
}

// Coordinator drives the once-per-day recommendation cycle. Any kiosk may
// run it at any time: the staleness check makes redundant runs cheap, and
// the git push decides which writer's result the fleet converges on.
type Coordinator struct {
	mu       sync.Mutex
	cfg      config.Recommendation
	syncer   gitsync.Syncer
	store    *workspace.Store
	searcher places.Searcher
	recorder RunRecorder
	notifier Notifier
	clock    func() time.Time
	logger   *slog.Logger
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithClock overrides the wall clock (primarily for tests).
func WithClock(clock func() time.Time) CoordinatorOption {
	return func(c *Coordinator) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithRecorder attaches a run log.
func WithRecorder(recorder RunRecorder) CoordinatorOption {
	return func(c *Coordinator) {
		c.recorder = recorder
	}
}

// WithNotifier attaches a notification sink.
func WithNotifier(notifier Notifier) CoordinatorOption {
	return func(c *Coordinator) {
		c.notifier = notifier
	}
}

// NewCoordinator constructs a coordinator. searcher may be nil when no API
// key is configured; affected teams then stay stale without erroring, in
// case another kiosk carries a key.
func NewCoordinator(cfg config.Recommendation, syncer gitsync.Syncer, store *workspace.Store, searcher places.Searcher, logger *slog.Logger, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		cfg:      cfg,
		syncer:   syncer,
		store:    store,
		searcher: searcher,
		clock:    time.Now,
		logger:   logging.NewComponentLogger(logger, "coordinator"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunOncePerDay pulls, updates every team whose recommendation is not from
// today, and pushes the result. Teams already current are untouched: no API
// calls, no writes.
func (c *Coordinator) RunOncePerDay(ctx context.Context) Summary {
	return c.run(ctx, false)
}

// RunAllTeams forces a fresh recommendation for every team regardless of
// staleness. Used by the manual CLI trigger.
func (c *Coordinator) RunAllTeams(ctx context.Context) Summary {
	return c.run(ctx, true)
}

func (c *Coordinator) run(ctx context.Context, force bool) Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, c.logger)
	started := c.clock()
	summary := Summary{RunID: runID}

	if _, err := c.syncer.Pull(ctx); err != nil {
		logger.Error("pull failed; skipping recommendation run", logging.Error(err))
		summary.Outcome = runlog.OutcomeSyncFailed
		summary.Message = err.Error()
		c.finish(ctx, &summary, started)
		return summary
	}

	today := workspace.DateKey(c.clock())
	stale, err := c.staleTeams(today, force)
	if err != nil {
		logger.Error("listing teams failed", logging.Error(err))
		summary.Outcome = runlog.OutcomeSyncFailed
		summary.Message = err.Error()
		c.finish(ctx, &summary, started)
		return summary
	}
	if len(stale) == 0 {
		logger.Debug("all teams already current", logging.String("date", today))
		summary.Outcome = runlog.OutcomeNoUpdateNeeded
		summary.Message = "all teams current"
		c.finish(ctx, &summary, started)
		return summary
	}

	var pushPaths []string
	for _, team := range stale {
		result := c.runForTeam(ctx, team, today)
		summary.Results = append(summary.Results, result)
		if result.Updated {
			pushPaths = append(pushPaths,
				workspace.RelSectionPath(team, c.cfg.SectionID),
				workspace.RelHistoryPath(team, c.cfg.SectionID),
			)
		}
	}

	var pushOutcome gitsync.PushOutcome
	var pushErr error
	if len(pushPaths) > 0 {
		var res gitsync.PushResult
		res, pushErr = c.syncer.Push(ctx, pushPaths, "Update restaurant recommendation ("+today+")")
		if pushErr != nil {
			logger.Error("push failed", logging.Error(pushErr))
		} else {
			pushOutcome = res.Outcome
		}
	}

	status := statusFromResults(summary.Results, c.clock())
	if err := c.store.WriteStatus(status); err != nil {
		logger.Warn("status file write failed", logging.Error(err))
	}

	c.summarize(&summary, pushOutcome, pushErr)
	c.finish(ctx, &summary, started)
	c.notify(ctx, summary)
	return summary
}

// staleTeams returns the teams whose recommendation is not from today. A
// team with no section document counts as stale so a freshly created team
// gets picked up, though it will be skipped again until editors add content.
func (c *Coordinator) staleTeams(today string, force bool) ([]string, error) {
	teams, err := c.store.Teams()
	if err != nil {
		return nil, err
	}
	if force {
		return teams, nil
	}
	stale := make([]string, 0, len(teams))
	for _, team := range teams {
		doc, err := c.store.ReadSection(team, c.cfg.SectionID)
		if err != nil {
			return nil, err
		}
		if doc == nil || doc.RestaurantLastUpdated != today {
			stale = append(stale, team)
		}
	}
	return stale, nil
}

func (c *Coordinator) runForTeam(ctx context.Context, team, today string) TeamResult {
	ctx = services.WithTeam(ctx, team)
	logger := logging.WithContext(ctx, c.logger)
	result := TeamResult{Team: team}

	doc, err := c.store.ReadSection(team, c.cfg.SectionID)
	if err != nil {
		logger.Error("section read failed", logging.Error(err))
		result.Reason, result.Err = reasonError, err
		return result
	}
	if doc == nil {
		result.Reason = reasonNoContent
		return result
	}

	location := doc.EffectiveLocation(c.cfg.DefaultLocation)
	if location == "" {
		result.Reason = reasonNoLocation
		return result
	}
	if c.searcher == nil {
		result.Reason = reasonNoAPIKey
		return result
	}

	history := c.store.LoadHistory(team, c.cfg.SectionID)
	used := workspace.UsedPlaceIDs(history)

	found, err := c.searcher.SearchRestaurants(ctx, location)
	if err != nil {
		logger.Warn("restaurant search failed", logging.Error(err))
		result.Reason, result.Err = reasonAPIError, err
		return result
	}

	candidates := filterCandidates(found, used, c.cfg.MinRating, doc.OnlyDelivery)
	if len(candidates) == 0 {
		if doc.OnlyDelivery {
			result.Reason = reasonNoDeliveryCandidates
		} else {
			result.Reason = reasonNoCandidates
		}
		return result
	}

	chosen, _ := pickBest(candidates)

	details, err := c.searcher.GetDetails(ctx, chosen.PlaceID)
	if err != nil {
		// Details only refine the tagline; the search result is enough.
		logger.Debug("details lookup failed", logging.Error(err))
		details = nil
	}
	if doc.OnlyDelivery && details != nil && !hasDelivery(effectiveTypes(chosen, details)) {
		result.Reason = reasonNoDeliveryCandidates
		return result
	}

	tagline := Tagline(chosen, details)
	name := DisplayName(chosen.Name)

	history = append(history, workspace.HistoryEntry{Date: today, PlaceID: chosen.PlaceID, Name: chosen.Name})
	if err := c.store.SaveHistory(team, c.cfg.SectionID, history, c.clock()); err != nil {
		logger.Error("history write failed", logging.Error(err))
		result.Reason, result.Err = reasonError, err
		return result
	}

	doc.Slots = doc.SlotsOrDefault()
	doc.RestaurantLocation = location
	doc.RestaurantLastUpdated = today
	doc.Restaurant = &workspace.Restaurant{Name: name, Tagline: tagline}
	if err := c.store.WriteSection(team, c.cfg.SectionID, doc); err != nil {
		logger.Error("section write failed", logging.Error(err))
		result.Reason, result.Err = reasonError, err
		return result
	}

	logger.Info("recommendation written",
		logging.String("name", name),
		logging.String("tagline", tagline),
		logging.String(logging.FieldEventType, "recommendation_written"),
	)
	result.Updated = true
	result.Name = name
	result.Tagline = tagline
	return result
}

// statusFromResults derives the shared status file from per-team results.
// The status reflects what this kiosk attempted even when its push loses
// the race; the file is local, never pushed.
func statusFromResults(results []TeamResult, now time.Time) workspace.Status {
	status := workspace.Status{LastRun: now.Format(time.RFC3339)}
	var firstAPIError string
	var anyUpdated, anyAPIFailure, noKey bool
	for _, result := range results {
		if result.Updated {
			anyUpdated = true
		}
		switch result.Reason {
		case reasonNoAPIKey:
			noKey = true
			anyAPIFailure = true
		case reasonAPIError:
			anyAPIFailure = true
			if firstAPIError == "" && result.Err != nil {
				firstAPIError = result.Err.Error()
			}
		}
	}
	switch {
	case anyUpdated:
		status.OK = true
		status.Message = "OK"
	case noKey:
		status.Message = "No API key"
	case anyAPIFailure:
		if firstAPIError == "" {
			firstAPIError = "API error"
		}
		status.Message = firstAPIError
	case len(results) == 0:
		status.Message = "No teams"
	default:
		status.Message = "No candidate updated"
	}
	return status
}

func (c *Coordinator) summarize(summary *Summary, pushOutcome gitsync.PushOutcome, pushErr error) {
	var updated int
	var noKey, anyAPIFailure bool
	var firstAPIError string
	for _, result := range summary.Results {
		if result.Updated {
			updated++
		}
		switch result.Reason {
		case reasonNoAPIKey:
			noKey = true
		case reasonAPIError:
			anyAPIFailure = true
			if firstAPIError == "" && result.Err != nil {
				firstAPIError = result.Err.Error()
			}
		}
	}

	switch {
	case pushErr != nil:
		summary.Outcome = runlog.OutcomeSyncFailed
		summary.Message = pushErr.Error()
	case pushOutcome == gitsync.PushRejected:
		// The local writes were discarded with the rejected commit, so the
		// fleet state is the winner's; nothing from this run survived.
		summary.Outcome = runlog.OutcomePushLostRace
		summary.Message = "another kiosk pushed first"
	case updated > 0:
		summary.Outcome = runlog.OutcomeOK
		summary.Message = "OK"
		summary.TeamsUpdated = updated
	case noKey:
		summary.Outcome = runlog.OutcomeNoAPIKey
		summary.Message = "No API key"
	case anyAPIFailure:
		if firstAPIError == "" {
			firstAPIError = "API error"
		}
		summary.Outcome = runlog.OutcomeAPIError
		summary.Message = firstAPIError
	default:
		summary.Outcome = runlog.OutcomeNoCandidate
		summary.Message = "No candidate updated"
	}
}

func (c *Coordinator) finish(ctx context.Context, summary *Summary, started time.Time) {
	if c.recorder == nil {
		return
	}
	trigger, _ := services.TriggerFromContext(ctx)
	record := runlog.Record{
		RunID:        summary.RunID,
		Trigger:      trigger,
		Outcome:      summary.Outcome,
		Message:      summary.Message,
		TeamsUpdated: summary.TeamsUpdated,
		StartedAt:    started,
		FinishedAt:   c.clock(),
	}
	if _, err := c.recorder.Record(ctx, record); err != nil {
		c.logger.Warn("run log write failed", logging.Error(err))
	}
}

func (c *Coordinator) notify(ctx context.Context, summary Summary) {
	if c.notifier == nil {
		return
	}
	switch summary.Outcome {
	case runlog.OutcomeOK:
		for _, result := range summary.Results {
			if !result.Updated {
				continue
			}
			if err := c.notifier.NotifyRecommendationUpdated(ctx, result.Team, result.Name, result.Tagline); err != nil {
				c.logger.Warn("notification failed", logging.Error(err))
			}
		}
	case runlog.OutcomeSyncFailed, runlog.OutcomeAPIError:
		if err := c.notifier.NotifyRunFailed(ctx, summary.Message); err != nil {
			c.logger.Warn("notification failed", logging.Error(err))
		}
	}
}
