package gitsync

import (
	"context"
	"errors"
	"strings"
	"testing"

	"marquee/internal/config"
	"marquee/internal/logging"
	"marquee/internal/services"
)

type fakeExecutor struct {
	calls   [][]string
	respond func(call []string) (string, string, error)
}

func (f *fakeExecutor) Run(_ context.Context, _ string, _ string, args []string) (string, string, error) {
	call := append([]string(nil), args...)
	f.calls = append(f.calls, call)
	if f.respond == nil {
		return "", "", nil
	}
	return f.respond(call)
}

func (f *fakeExecutor) called(subcommand string) bool {
	for _, call := range f.calls {
		if hasSubcommand(call, subcommand) {
			return true
		}
	}
	return false
}

func hasSubcommand(call []string, subcommand string) bool {
	for i := 0; i < len(call); i++ {
		if call[i] == "-c" {
			i++
			continue
		}
		return call[i] == subcommand
	}
	return false
}

func newTestClient(t *testing.T, exec Executor) *Client {
	t.Helper()
	cfg := config.Git{Remote: "origin", Branch: "main", CommitterName: "marquee", CommitterEmail: "marquee@localhost"}
	client, err := New(cfg, t.TempDir(), logging.NewNop(), WithExecutor(exec))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestPullReportsChangeFromHeadComparison(t *testing.T) {
	heads := []string{"aaa111\n", "bbb222\n"}
	exec := &fakeExecutor{}
	exec.respond = func(call []string) (string, string, error) {
		if hasSubcommand(call, "rev-parse") {
			head := heads[0]
			if len(heads) > 1 {
				heads = heads[1:]
			}
			return head, "", nil
		}
		// The human summary is deliberately ignored by the client.
		return "Updating aaa111..bbb222\nFast-forward\n", "", nil
	}

	result, err := newTestClient(t, exec).Pull(context.Background())
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if !result.Changed {
		t.Fatal("expected change when head moved")
	}
	if result.OldHead != "aaa111" || result.NewHead != "bbb222" {
		t.Fatalf("unexpected heads: %+v", result)
	}
}

func TestPullUnchangedWhenHeadStays(t *testing.T) {
	exec := &fakeExecutor{}
	exec.respond = func(call []string) (string, string, error) {
		if hasSubcommand(call, "rev-parse") {
			return "aaa111\n", "", nil
		}
		return "Already up to date.\n", "", nil
	}

	result, err := newTestClient(t, exec).Pull(context.Background())
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if result.Changed {
		t.Fatal("head did not move; pull must report unchanged")
	}
}

func TestPullFailureWrapsSyncFailure(t *testing.T) {
	exec := &fakeExecutor{}
	exec.respond = func(call []string) (string, string, error) {
		if hasSubcommand(call, "rev-parse") {
			return "aaa111\n", "", nil
		}
		return "", "fatal: unable to access remote\n", errors.New("exit status 128")
	}

	_, err := newTestClient(t, exec).Pull(context.Background())
	if !errors.Is(err, services.ErrSyncFailure) {
		t.Fatalf("expected sync failure marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "unable to access remote") {
		t.Fatalf("expected stderr detail in error, got %v", err)
	}
}

func TestPushNoStagedChangesSkipsCommit(t *testing.T) {
	exec := &fakeExecutor{}
	exec.respond = func(call []string) (string, string, error) {
		if hasSubcommand(call, "diff") {
			return "\n", "", nil
		}
		return "", "", nil
	}

	result, err := newTestClient(t, exec).Push(context.Background(), []string{"blue/canteen_menu/content.json"}, "update")
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if result.Outcome != PushNoChanges {
		t.Fatalf("expected no_changes outcome, got %s", result.Outcome)
	}
	if exec.called("commit") || exec.called("push") {
		t.Fatal("empty staging must not commit or push")
	}
}

func TestPushStagesExactPathsAndCommits(t *testing.T) {
	exec := &fakeExecutor{}
	exec.respond = func(call []string) (string, string, error) {
		switch {
		case hasSubcommand(call, "diff"):
			return "blue/canteen_menu/content.json\n", "", nil
		case hasSubcommand(call, "rev-parse"):
			return "ccc333\n", "", nil
		default:
			return "", "", nil
		}
	}

	paths := []string{"blue/canteen_menu/content.json", "blue/canteen_menu/restaurant_history.json"}
	result, err := newTestClient(t, exec).Push(context.Background(), paths, "daily recommendation")
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if result.Outcome != PushCompleted {
		t.Fatalf("expected completed outcome, got %s", result.Outcome)
	}
	if result.Head != "ccc333" {
		t.Fatalf("unexpected head: %q", result.Head)
	}

	var addCall []string
	for _, call := range exec.calls {
		if hasSubcommand(call, "add") {
			addCall = call
		}
	}
	if addCall == nil {
		t.Fatal("expected an add call")
	}
	joined := strings.Join(addCall, " ")
	for _, path := range paths {
		if !strings.Contains(joined, path) {
			t.Fatalf("path %s missing from add call %v", path, addCall)
		}
	}

	var commitCall []string
	for _, call := range exec.calls {
		if hasSubcommand(call, "commit") {
			commitCall = call
		}
	}
	if commitCall == nil {
		t.Fatal("expected a commit call")
	}
	joined = strings.Join(commitCall, " ")
	if !strings.Contains(joined, "user.name=marquee") || !strings.Contains(joined, "daily recommendation") {
		t.Fatalf("commit call missing identity or message: %v", commitCall)
	}
}

func TestPushRejectionDiscardsLocalCommit(t *testing.T) {
	exec := &fakeExecutor{}
	exec.respond = func(call []string) (string, string, error) {
		switch {
		case hasSubcommand(call, "diff"):
			return "blue/canteen_menu/content.json\n", "", nil
		case hasSubcommand(call, "push"):
			stderr := "! [rejected] main -> main (non-fast-forward)\nhint: Updates were rejected\n"
			return "", stderr, errors.New("exit status 1")
		default:
			return "", "", nil
		}
	}

	result, err := newTestClient(t, exec).Push(context.Background(), []string{"blue/canteen_menu/content.json"}, "update")
	if err != nil {
		t.Fatalf("rejection must not surface as error: %v", err)
	}
	if result.Outcome != PushRejected {
		t.Fatalf("expected rejected outcome, got %s", result.Outcome)
	}
	if !exec.called("fetch") || !exec.called("reset") {
		t.Fatal("rejection must fetch and reset to the remote branch")
	}
}

func TestPushFailureDropsLocalCommit(t *testing.T) {
	heads := []string{"aaa111\n"}
	exec := &fakeExecutor{}
	exec.respond = func(call []string) (string, string, error) {
		switch {
		case hasSubcommand(call, "diff"):
			return "blue/canteen_menu/content.json\n", "", nil
		case hasSubcommand(call, "rev-parse"):
			head := heads[0]
			if len(heads) > 1 {
				heads = heads[1:]
			}
			return head, "", nil
		case hasSubcommand(call, "push"):
			return "", "fatal: unable to access remote\n", errors.New("exit status 128")
		default:
			return "", "", nil
		}
	}

	client := newTestClient(t, exec)
	_, err := client.Push(context.Background(), []string{"blue/canteen_menu/content.json"}, "update")
	if !errors.Is(err, services.ErrSyncFailure) {
		t.Fatalf("expected sync failure marker, got %v", err)
	}

	var resetCall []string
	for _, call := range exec.calls {
		if hasSubcommand(call, "reset") {
			resetCall = call
		}
	}
	if resetCall == nil {
		t.Fatal("failed push must drop the unpushed commit")
	}
	joined := strings.Join(resetCall, " ")
	if !strings.Contains(joined, "--hard") || !strings.Contains(joined, "aaa111") {
		t.Fatalf("reset must restore the pre-commit head: %v", resetCall)
	}

	// Another kiosk lands a commit afterwards; this tree must still
	// fast-forward to it on the next pull.
	heads = []string{"aaa111\n", "ddd444\n"}
	result, err := client.Pull(context.Background())
	if err != nil {
		t.Fatalf("pull after failed push: %v", err)
	}
	if !result.Changed || result.NewHead != "ddd444" {
		t.Fatalf("expected pull to pick up the competing commit, got %+v", result)
	}
}

func TestPushNonRejectionFailureIsError(t *testing.T) {
	exec := &fakeExecutor{}
	exec.respond = func(call []string) (string, string, error) {
		switch {
		case hasSubcommand(call, "diff"):
			return "blue/canteen_menu/content.json\n", "", nil
		case hasSubcommand(call, "push"):
			return "", "fatal: could not read from remote repository\n", errors.New("exit status 128")
		default:
			return "", "", nil
		}
	}

	_, err := newTestClient(t, exec).Push(context.Background(), []string{"blue/canteen_menu/content.json"}, "update")
	if !errors.Is(err, services.ErrSyncFailure) {
		t.Fatalf("expected sync failure marker, got %v", err)
	}
}

func TestIsRejectedPushMarkers(t *testing.T) {
	cases := map[string]bool{
		"! [rejected] main -> main (non-fast-forward)": true,
		"error: failed to push some refs; fetch first": true,
		"fatal: unable to access remote":               false,
		"": false,
	}
	for stderr, want := range cases {
		if got := isRejectedPush(stderr); got != want {
			t.Fatalf("isRejectedPush(%q) = %v, want %v", stderr, got, want)
		}
	}
}

func TestNewRequiresWorkDir(t *testing.T) {
	_, err := New(config.Git{}, "  ", logging.NewNop())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
