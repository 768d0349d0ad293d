package schedule

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"marquee/internal/logging"
	"marquee/internal/services"
)

// Clock supplies the current time. Injectable for tests.
type Clock func() time.Time

// Action is an interval trigger callback.
type Action func(ctx context.Context)

// SlotEntry is one parsed slot occurrence handed to a slot action.
type SlotEntry struct {
	Time     string
	Duration time.Duration
}

// SlotAction is a slot trigger callback.
type SlotAction func(ctx context.Context, entry SlotEntry)

// SlotSource produces the current slot list. It is consulted on every tick
// so live edits to the content documents take effect without a restart.
type SlotSource func(ctx context.Context) []SlotEntry

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the wall clock (primarily for tests).
func WithClock(clock Clock) Option {
	return func(s *Scheduler) {
		if clock != nil {
			s.clock = clock
		}
	}
}

type slotTrigger struct {
	name   string
	source SlotSource
	action SlotAction
	fired  map[string]struct{}
}

type intervalTrigger struct {
	name       string
	every      time.Duration
	runOnStart bool
	action     Action
	lastRun    time.Time
}

// Scheduler owns the trigger registry and the tick loop. All firing state
// lives on the instance; two schedulers in one process do not interfere.
type Scheduler struct {
	tick   time.Duration
	clock  Clock
	logger *slog.Logger

	mu        sync.Mutex
	slots     []*slotTrigger
	intervals []*intervalTrigger

	wg sync.WaitGroup
}

// New constructs a scheduler ticking at the given cadence. The cadence must
// stay under a minute or slot minutes could be skipped entirely; config
// validation enforces that upstream.
func New(tick time.Duration, logger *slog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		tick:   tick,
		clock:  time.Now,
		logger: logging.NewComponentLogger(logger, "scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddSlotTrigger registers a named trigger fired at the slot times the
// source currently reports, at most once per slot per day.
func (s *Scheduler) AddSlotTrigger(name string, source SlotSource, action SlotAction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots = append(s.slots, &slotTrigger{
		name:   name,
		source: source,
		action: action,
		fired:  make(map[string]struct{}),
	})
}

// AddIntervalTrigger registers a named trigger fired whenever at least
// `every` has elapsed since its last run. With runOnStart the first tick
// fires immediately.
func (s *Scheduler) AddIntervalTrigger(name string, every time.Duration, runOnStart bool, action Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intervals = append(s.intervals, &intervalTrigger{
		name:       name,
		every:      every,
		runOnStart: runOnStart,
		action:     action,
	})
}

// Run ticks until the context is cancelled, then waits for in-flight
// actions to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	s.logger.Info("scheduler started", logging.Duration("tick", s.tick))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping; waiting for in-flight actions")
			s.wg.Wait()
			return ctx.Err()
		case <-ticker.C:
			s.evaluate(ctx, s.clock())
		}
	}
}

// evaluate runs one tick at the given instant. Actions are dispatched on
// their own goroutines; the loop never blocks on them.
func (s *Scheduler) evaluate(ctx context.Context, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, trigger := range s.slots {
		s.evaluateSlotTrigger(ctx, trigger, now)
	}
	for _, trigger := range s.intervals {
		s.evaluateIntervalTrigger(ctx, trigger, now)
	}
}

func (s *Scheduler) evaluateSlotTrigger(ctx context.Context, trigger *slotTrigger, now time.Time) {
	pruneFiredKeys(trigger.fired, now)

	for _, entry := range trigger.source(ctx) {
		slot, ok := ParseSlotTime(entry.Time)
		if !ok {
			s.logger.Debug("skipping malformed slot time",
				logging.String(logging.FieldTrigger, trigger.name),
				logging.String("time", entry.Time),
			)
			continue
		}
		if !slot.Matches(now) {
			continue
		}
		key := slot.Key(now)
		if _, done := trigger.fired[key]; done {
			continue
		}
		trigger.fired[key] = struct{}{}
		s.dispatchSlot(ctx, trigger, entry, key)
	}
}

func (s *Scheduler) dispatchSlot(ctx context.Context, trigger *slotTrigger, entry SlotEntry, key string) {
	s.logger.Info("slot trigger firing",
		logging.String(logging.FieldTrigger, trigger.name),
		logging.String("slot_key", key),
	)
	actionCtx := services.WithTrigger(ctx, trigger.name)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		trigger.action(actionCtx, entry)
	}()
}

func (s *Scheduler) evaluateIntervalTrigger(ctx context.Context, trigger *intervalTrigger, now time.Time) {
	if trigger.lastRun.IsZero() && !trigger.runOnStart {
		trigger.lastRun = now
		return
	}
	if !trigger.lastRun.IsZero() && now.Sub(trigger.lastRun) < trigger.every {
		return
	}
	trigger.lastRun = now

	s.logger.Debug("interval trigger firing", logging.String(logging.FieldTrigger, trigger.name))
	actionCtx := services.WithTrigger(ctx, trigger.name)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		trigger.action(actionCtx)
	}()
}

// pruneFiredKeys drops firing keys from previous days so the set stays
// bounded across long daemon uptimes.
func pruneFiredKeys(fired map[string]struct{}, now time.Time) {
	today := now.Format("2006-01-02")
	for key := range fired {
		if !strings.HasPrefix(key, today) {
			delete(fired, key)
		}
	}
}
