package schedule

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"marquee/internal/logging"
	"marquee/internal/services"
)

func staticSlots(entries ...SlotEntry) SlotSource {
	return func(context.Context) []SlotEntry {
		return entries
	}
}

func TestSlotTriggerFiresOncePerMinuteDespiteRepeatedTicks(t *testing.T) {
	sched := New(time.Second, logging.NewNop())
	var fired atomic.Int32
	var wg sync.WaitGroup
	wg.Add(1)
	sched.AddSlotTrigger("menu-refresh", staticSlots(SlotEntry{Time: "10:30"}), func(context.Context, SlotEntry) {
		if fired.Add(1) == 1 {
			wg.Done()
		}
	})

	base := time.Date(2026, 2, 17, 10, 30, 0, 0, time.Local)
	// Two ticks inside the slot minute; the key makes the second one a no-op.
	for sec := 0; sec < 60; sec += 30 {
		sched.evaluate(context.Background(), base.Add(time.Duration(sec)*time.Second))
	}
	sched.evaluate(context.Background(), base.Add(time.Minute))

	wg.Wait()
	sched.wg.Wait()
	if got := fired.Load(); got != 1 {
		t.Fatalf("expected exactly one firing, got %d", got)
	}
}

func TestSlotTriggerFiresAgainNextDay(t *testing.T) {
	sched := New(time.Second, logging.NewNop())
	var fired atomic.Int32
	sched.AddSlotTrigger("menu-refresh", staticSlots(SlotEntry{Time: "10:30"}), func(context.Context, SlotEntry) {
		fired.Add(1)
	})

	day1 := time.Date(2026, 2, 17, 10, 30, 0, 0, time.Local)
	day2 := day1.AddDate(0, 0, 1)
	sched.evaluate(context.Background(), day1)
	sched.evaluate(context.Background(), day2)

	sched.wg.Wait()
	if got := fired.Load(); got != 2 {
		t.Fatalf("expected one firing per day, got %d", got)
	}

	trigger := sched.slots[0]
	if len(trigger.fired) != 1 {
		t.Fatalf("previous-day keys should be pruned, have %d", len(trigger.fired))
	}
}

func TestMalformedSlotNeverFires(t *testing.T) {
	sched := New(time.Second, logging.NewNop())
	var fired atomic.Int32
	sched.AddSlotTrigger("menu-refresh", staticSlots(
		SlotEntry{Time: "lunch"},
		SlotEntry{Time: "25:99"},
	), func(context.Context, SlotEntry) {
		fired.Add(1)
	})

	for hour := 0; hour < 24; hour++ {
		sched.evaluate(context.Background(), time.Date(2026, 2, 17, hour, 0, 0, 0, time.Local))
	}

	sched.wg.Wait()
	if got := fired.Load(); got != 0 {
		t.Fatalf("malformed slots must never fire, got %d firings", got)
	}
}

func TestSlotSourceConsultedEveryTick(t *testing.T) {
	sched := New(time.Second, logging.NewNop())
	var fired atomic.Int32
	entries := []SlotEntry{}
	var mu sync.Mutex
	sched.AddSlotTrigger("menu-refresh", func(context.Context) []SlotEntry {
		mu.Lock()
		defer mu.Unlock()
		return entries
	}, func(context.Context, SlotEntry) {
		fired.Add(1)
	})

	now := time.Date(2026, 2, 17, 11, 0, 0, 0, time.Local)
	sched.evaluate(context.Background(), now)
	sched.wg.Wait()
	if fired.Load() != 0 {
		t.Fatal("no slots configured yet; nothing should fire")
	}

	// A live edit adds a slot matching the current minute.
	mu.Lock()
	entries = []SlotEntry{{Time: "11:00"}}
	mu.Unlock()
	sched.evaluate(context.Background(), now.Add(30*time.Second))
	sched.wg.Wait()
	if got := fired.Load(); got != 1 {
		t.Fatalf("live slot edit should apply without restart, got %d firings", got)
	}
}

func TestIntervalTriggerRespectsSpacing(t *testing.T) {
	sched := New(time.Second, logging.NewNop())
	var fired atomic.Int32
	sched.AddIntervalTrigger("content-sync", 15*time.Minute, false, func(context.Context) {
		fired.Add(1)
	})

	base := time.Date(2026, 2, 17, 9, 0, 0, 0, time.Local)
	sched.evaluate(context.Background(), base) // arms lastRun, no fire
	sched.evaluate(context.Background(), base.Add(5*time.Minute))
	sched.evaluate(context.Background(), base.Add(14*time.Minute))
	sched.evaluate(context.Background(), base.Add(15*time.Minute))
	sched.evaluate(context.Background(), base.Add(16*time.Minute))
	sched.evaluate(context.Background(), base.Add(31*time.Minute))

	sched.wg.Wait()
	if got := fired.Load(); got != 2 {
		t.Fatalf("expected 2 firings at the 15-minute spacing, got %d", got)
	}
}

func TestIntervalTriggerRunOnStart(t *testing.T) {
	sched := New(time.Second, logging.NewNop())
	var fired atomic.Int32
	sched.AddIntervalTrigger("recommendation-check", time.Hour, true, func(context.Context) {
		fired.Add(1)
	})

	sched.evaluate(context.Background(), time.Date(2026, 2, 17, 9, 0, 0, 0, time.Local))
	sched.wg.Wait()
	if got := fired.Load(); got != 1 {
		t.Fatalf("runOnStart trigger should fire on the first tick, got %d", got)
	}
}

func TestActionContextCarriesTriggerName(t *testing.T) {
	sched := New(time.Second, logging.NewNop())
	got := make(chan string, 1)
	sched.AddIntervalTrigger("content-sync", time.Minute, true, func(ctx context.Context) {
		name, _ := services.TriggerFromContext(ctx)
		got <- name
	})

	sched.evaluate(context.Background(), time.Now())
	sched.wg.Wait()
	if name := <-got; name != "content-sync" {
		t.Fatalf("expected trigger name in context, got %q", name)
	}
}
