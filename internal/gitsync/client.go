package gitsync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"marquee/internal/config"
	"marquee/internal/logging"
	"marquee/internal/services"
)

// PushOutcome classifies the result of a push attempt.
type PushOutcome string

const (
	// PushCompleted means the commit landed on the remote branch.
	PushCompleted PushOutcome = "completed"
	// PushNoChanges means staging produced an empty diff and nothing was committed.
	PushNoChanges PushOutcome = "no_changes"
	// PushRejected means the remote refused a non-fast-forward push because
	// another writer landed first. The local commit has been discarded and the
	// working tree reset to the remote branch.
	PushRejected PushOutcome = "rejected"
)

// PullResult reports whether a pull moved the local head.
type PullResult struct {
	Changed bool
	OldHead string
	NewHead string
}

// PushResult reports the outcome of a push attempt.
type PushResult struct {
	Outcome PushOutcome
	Head    string
}

// Syncer is the surface the coordinator and daemon depend on.
type Syncer interface {
	Pull(ctx context.Context) (PullResult, error)
	Push(ctx context.Context, paths []string, message string) (PushResult, error)
	Head(ctx context.Context) (string, error)
}

// Executor abstracts git command execution for testability.
type Executor interface {
	Run(ctx context.Context, dir, binary string, args []string) (stdout, stderr string, err error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps git CLI interactions against a single working tree. All
// operations are serialized through one mutex so a pull can never interleave
// with staging for a push.
type Client struct {
	mu             sync.Mutex
	binary         string
	workDir        string
	remote         string
	branch         string
	pullTimeout    time.Duration
	pushTimeout    time.Duration
	committerName  string
	committerEmail string
	exec           Executor
	logger         *slog.Logger
}

// New constructs a git sync client for the given working tree.
func New(cfg config.Git, workDir string, logger *slog.Logger, opts ...Option) (*Client, error) {
	workDir = strings.TrimSpace(workDir)
	if workDir == "" {
		return nil, services.Wrap(services.ErrConfiguration, "gitsync", "new", "working tree path required", nil)
	}
	binary := strings.TrimSpace(cfg.Binary)
	if binary == "" {
		binary = "git"
	}
	client := &Client{
		binary:         binary,
		workDir:        workDir,
		remote:         cfg.Remote,
		branch:         cfg.Branch,
		pullTimeout:    time.Duration(cfg.PullTimeoutSeconds) * time.Second,
		pushTimeout:    time.Duration(cfg.PushTimeoutSeconds) * time.Second,
		committerName:  cfg.CommitterName,
		committerEmail: cfg.CommitterEmail,
		exec:           commandExecutor{},
		logger:         logging.NewComponentLogger(logger, "gitsync"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Head returns the current local commit hash.
func (c *Client) Head(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.head(ctx)
}

// Pull fast-forwards the working tree from the remote branch. Change
// detection compares the head commit before and after rather than parsing
// the human-readable pull summary.
func (c *Client) Pull(ctx context.Context) (PullResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	before, err := c.head(ctx)
	if err != nil {
		return PullResult{}, err
	}

	pullCtx := ctx
	if c.pullTimeout > 0 {
		var cancel context.CancelFunc
		pullCtx, cancel = context.WithTimeout(ctx, c.pullTimeout)
		defer cancel()
	}

	if _, stderr, err := c.run(pullCtx, "pull", "--ff-only", c.remote, c.branch); err != nil {
		return PullResult{}, c.wrapGitError("pull", stderr, err)
	}

	after, err := c.head(ctx)
	if err != nil {
		return PullResult{}, err
	}

	result := PullResult{Changed: before != after, OldHead: before, NewHead: after}
	if result.Changed {
		c.logger.Info("pull brought new commits",
			logging.String("old_head", shortHash(before)),
			logging.String("new_head", shortHash(after)),
			logging.String(logging.FieldEventType, "git_pull_changed"),
		)
	} else {
		c.logger.Debug("pull left head unchanged", logging.String("head", shortHash(after)))
	}
	return result, nil
}

// Push stages exactly the given paths, commits them, and pushes the branch.
// A non-fast-forward rejection is reported as PushRejected, not as an error:
// the remote deciding another writer got there first is an expected outcome.
// On rejection the local commit is discarded and the tree reset to the
// remote branch so the caller can re-read the winner's state.
//
// Any other push failure also drops the local commit, resetting to the head
// recorded before the commit. The committed content is recomputed on the
// next run; keeping an unpushed commit would leave the branch unable to
// fast-forward once another writer lands.
func (c *Client) Push(ctx context.Context, paths []string, message string) (PushResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(paths) == 0 {
		return PushResult{Outcome: PushNoChanges}, nil
	}

	addArgs := append([]string{"add", "--"}, paths...)
	if _, stderr, err := c.run(ctx, addArgs...); err != nil {
		return PushResult{}, c.wrapGitError("stage", stderr, err)
	}

	staged, stderr, err := c.run(ctx, "diff", "--cached", "--name-only")
	if err != nil {
		return PushResult{}, c.wrapGitError("diff", stderr, err)
	}
	if strings.TrimSpace(staged) == "" {
		c.logger.Debug("push skipped; staging produced no diff")
		return PushResult{Outcome: PushNoChanges}, nil
	}

	base, err := c.head(ctx)
	if err != nil {
		return PushResult{}, err
	}

	commitArgs := []string{
		"-c", "user.name=" + c.committerName,
		"-c", "user.email=" + c.committerEmail,
		"commit", "-m", message,
	}
	if _, stderr, err := c.run(ctx, commitArgs...); err != nil {
		return PushResult{}, c.wrapGitError("commit", stderr, err)
	}

	pushCtx := ctx
	if c.pushTimeout > 0 {
		var cancel context.CancelFunc
		pushCtx, cancel = context.WithTimeout(ctx, c.pushTimeout)
		defer cancel()
	}

	if _, stderr, err := c.run(pushCtx, "push", c.remote, c.branch); err != nil {
		if isRejectedPush(stderr) {
			c.logger.Info("push rejected by remote; discarding local commit",
				logging.String(logging.FieldEventType, "git_push_rejected"),
			)
			if err := c.discardLocalCommit(ctx); err != nil {
				return PushResult{}, err
			}
			return PushResult{Outcome: PushRejected}, nil
		}
		wrapped := c.wrapGitError("push", stderr, err)
		c.logger.Warn("push failed; dropping unpushed commit",
			logging.Error(wrapped),
			logging.String(logging.FieldEventType, "git_push_failed"),
		)
		if resetErr := c.resetHard(context.WithoutCancel(ctx), base); resetErr != nil {
			c.logger.Warn("could not drop unpushed commit", logging.Error(resetErr))
		}
		return PushResult{}, wrapped
	}

	head, err := c.head(ctx)
	if err != nil {
		return PushResult{}, err
	}
	c.logger.Info("push completed",
		logging.String("head", shortHash(head)),
		logging.Int("paths", len(paths)),
		logging.String(logging.FieldEventType, "git_push_completed"),
	)
	return PushResult{Outcome: PushCompleted, Head: head}, nil
}

func (c *Client) discardLocalCommit(ctx context.Context) error {
	if _, stderr, err := c.run(ctx, "fetch", c.remote, c.branch); err != nil {
		return c.wrapGitError("fetch", stderr, err)
	}
	return c.resetHard(ctx, c.remote+"/"+c.branch)
}

func (c *Client) resetHard(ctx context.Context, ref string) error {
	if _, stderr, err := c.run(ctx, "reset", "--hard", ref); err != nil {
		return c.wrapGitError("reset", stderr, err)
	}
	return nil
}

func (c *Client) head(ctx context.Context) (string, error) {
	stdout, stderr, err := c.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", c.wrapGitError("rev-parse", stderr, err)
	}
	return strings.TrimSpace(stdout), nil
}

func (c *Client) run(ctx context.Context, args ...string) (string, string, error) {
	return c.exec.Run(ctx, c.workDir, c.binary, args)
}

func (c *Client) wrapGitError(operation, stderr string, err error) error {
	marker := services.ErrSyncFailure
	if errors.Is(err, context.DeadlineExceeded) {
		marker = services.ErrTimeout
	}
	return services.Wrap(marker, "gitsync", operation, firstLine(stderr), err)
}

// isRejectedPush checks stderr for the markers git emits when the remote
// refuses a non-fast-forward update.
func isRejectedPush(stderr string) bool {
	lowered := strings.ToLower(stderr)
	for _, marker := range []string{"non-fast-forward", "fetch first", "rejected"} {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, dir, binary string, args []string) (string, string, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil && ctx.Err() != nil {
		err = fmt.Errorf("%w: %w", ctx.Err(), err)
	}
	return stdout.String(), stderr.String(), err
}
