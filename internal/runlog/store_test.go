package runlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "runlog.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	outcomes := []Outcome{OutcomeNoUpdateNeeded, OutcomePushLostRace, OutcomeOK}
	for i, outcome := range outcomes {
		_, err := store.Record(ctx, Record{
			RunID:        "run-" + string(outcome),
			Trigger:      "daily-recommendation",
			Outcome:      outcome,
			Message:      "test",
			TeamsUpdated: i,
			StartedAt:    now.Add(time.Duration(i) * time.Minute),
			FinishedAt:   now.Add(time.Duration(i)*time.Minute + time.Second),
		})
		if err != nil {
			t.Fatalf("record %s: %v", outcome, err)
		}
	}

	records, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Outcome != OutcomeOK || records[1].Outcome != OutcomePushLostRace {
		t.Fatalf("expected newest-first ordering, got %v then %v", records[0].Outcome, records[1].Outcome)
	}
	if records[0].TeamsUpdated != 2 {
		t.Fatalf("teams updated lost in round trip: %+v", records[0])
	}
	if records[0].StartedAt.IsZero() {
		t.Fatal("timestamps must round trip")
	}
}

func TestLastOnEmptyLogIsNil(t *testing.T) {
	store := openTestStore(t)
	record, err := store.Last(context.Background())
	if err != nil {
		t.Fatalf("last: %v", err)
	}
	if record != nil {
		t.Fatalf("expected nil on empty log, got %+v", record)
	}
}

func TestPruneRemovesOldRuns(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	old := time.Now().AddDate(0, 0, -40)
	if _, err := store.Record(ctx, Record{RunID: "old", Outcome: OutcomeOK, StartedAt: old, FinishedAt: old}); err != nil {
		t.Fatalf("record old: %v", err)
	}
	now := time.Now()
	if _, err := store.Record(ctx, Record{RunID: "fresh", Outcome: OutcomeOK, StartedAt: now, FinishedAt: now}); err != nil {
		t.Fatalf("record fresh: %v", err)
	}

	deleted, err := store.Prune(ctx, 30)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted run, got %d", deleted)
	}

	records, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(records) != 1 || records[0].RunID != "fresh" {
		t.Fatalf("unexpected surviving records: %+v", records)
	}
}

func TestPruneDisabledByZeroRetention(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	old := time.Now().AddDate(0, 0, -400)
	if _, err := store.Record(ctx, Record{RunID: "ancient", Outcome: OutcomeOK, StartedAt: old, FinishedAt: old}); err != nil {
		t.Fatalf("record: %v", err)
	}
	deleted, err := store.Prune(ctx, 0)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("zero retention must not prune, deleted %d", deleted)
	}
}

func TestReopenKeepsSchemaAndData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runlog.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	now := time.Now()
	if _, err := store.Record(context.Background(), Record{RunID: "r1", Outcome: OutcomeOK, StartedAt: now, FinishedAt: now}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	last, err := reopened.Last(context.Background())
	if err != nil {
		t.Fatalf("last: %v", err)
	}
	if last == nil || last.RunID != "r1" {
		t.Fatalf("data lost across reopen: %+v", last)
	}
}
