package daemon

import (
	"context"
	"sync"
	"testing"
	"time"

	"marquee/internal/gitsync"
	"marquee/internal/logging"
	"marquee/internal/runlog"
	"marquee/internal/testsupport"
	"marquee/internal/workspace"
)

type fakeSyncer struct {
	mu      sync.Mutex
	pulls   int
	pushes  int
	changed bool
}

func (f *fakeSyncer) Pull(context.Context) (gitsync.PullResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pulls++
	return gitsync.PullResult{Changed: f.changed}, nil
}

func (f *fakeSyncer) Push(context.Context, []string, string) (gitsync.PushResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes++
	return gitsync.PushResult{Outcome: gitsync.PushCompleted}, nil
}

func (f *fakeSyncer) Head(context.Context) (string, error) {
	return "fff000", nil
}

func (f *fakeSyncer) pullCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pulls
}

func newTestDaemon(t *testing.T, opts ...Option) *Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	d, err := New(cfg, logging.NewNop(), opts...)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestNewRequiresWorkspace(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.WorkspaceDir = ""
	if _, err := New(cfg, logging.NewNop()); err == nil {
		t.Fatal("expected error for missing workspace directory")
	}
}

func TestStartEnforcesSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	logger := logging.NewNop()

	first, err := New(cfg, logger, WithSyncer(&fakeSyncer{}))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer first.Close()

	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start returned error: %v", err)
	}

	second, err := New(cfg, logger, WithSyncer(&fakeSyncer{}))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer second.Close()

	if err := second.Start(context.Background()); err == nil {
		t.Fatal("expected second Start to fail while lock is held")
	}

	first.Stop()
	if err := second.Start(context.Background()); err != nil {
		t.Fatalf("Start after lock release returned error: %v", err)
	}
	second.Stop()
}

func TestRecommendNowRecordsManualRun(t *testing.T) {
	syncer := &fakeSyncer{}
	d := newTestDaemon(t, WithSyncer(syncer), WithSearcher(nil))

	summary := d.RecommendNow(context.Background(), false)
	if summary.Outcome != runlog.OutcomeNoUpdateNeeded {
		t.Fatalf("outcome = %s, want %s", summary.Outcome, runlog.OutcomeNoUpdateNeeded)
	}
	if syncer.pullCount() != 1 {
		t.Fatalf("pulls = %d, want 1", syncer.pullCount())
	}

	runs, err := d.RecentRuns(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentRuns returned error: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("run count = %d, want 1", len(runs))
	}
	if runs[0].Trigger != triggerManual {
		t.Errorf("trigger = %q, want %q", runs[0].Trigger, triggerManual)
	}

	status := d.Status(context.Background())
	if status.LastRun == nil {
		t.Fatal("status has no last run")
	}
	if status.LastRun.RunID != summary.RunID {
		t.Errorf("last run id = %q, want %q", status.LastRun.RunID, summary.RunID)
	}
}

func TestRecommendActionHonorsRunAfterGate(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.Local)
	clock := func() time.Time { return now }

	syncer := &fakeSyncer{}
	cfg := testsupport.NewConfig(t)
	cfg.Recommendation.RunAfter = "12:00"
	d, err := New(cfg, logging.NewNop(), WithClock(clock), WithSyncer(syncer), WithSearcher(nil))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer d.Close()

	d.recommendAction(context.Background())
	if syncer.pullCount() != 0 {
		t.Fatalf("pulls before gate = %d, want 0", syncer.pullCount())
	}

	now = time.Date(2026, 3, 14, 13, 0, 0, 0, time.Local)
	d.recommendAction(context.Background())
	if syncer.pullCount() != 1 {
		t.Fatalf("pulls after gate = %d, want 1", syncer.pullCount())
	}
}

func TestMenuSlotsMergesTeamsAndDedupes(t *testing.T) {
	d := newTestDaemon(t, WithSyncer(&fakeSyncer{}), WithSearcher(nil))
	sectionID := d.cfg.Recommendation.SectionID

	alpha := &workspace.SectionDocument{Slots: []workspace.Slot{
		{Time: "10:30", Duration: "15 min"},
		{Time: "12:00", Duration: "20 min"},
	}}
	if err := d.store.WriteSection("alpha", sectionID, alpha); err != nil {
		t.Fatalf("write alpha section: %v", err)
	}
	// gamma has a document without slots, so the default slots apply.
	if err := d.store.WriteSection("gamma", sectionID, &workspace.SectionDocument{}); err != nil {
		t.Fatalf("write gamma section: %v", err)
	}

	entries := d.menuSlots(context.Background())
	byTime := make(map[string]time.Duration, len(entries))
	for _, entry := range entries {
		if _, dup := byTime[entry.Time]; dup {
			t.Fatalf("duplicate slot time %q", entry.Time)
		}
		byTime[entry.Time] = entry.Duration
	}

	if len(byTime) != 3 {
		t.Fatalf("slot count = %d, want 3 (got %v)", len(byTime), byTime)
	}
	if byTime["12:00"] != 20*time.Minute {
		t.Errorf("12:00 duration = %s, want 20m", byTime["12:00"])
	}
	if byTime["11:30"] != 15*time.Minute {
		t.Errorf("default 11:30 duration = %s, want 15m", byTime["11:30"])
	}
}
