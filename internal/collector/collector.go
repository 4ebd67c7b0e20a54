// Package collector assembles a RepoRecord per repository by issuing a
// fixed sequence of git queries and aggregating their results.
package collector

import (
	"context"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/inovacc/gitmon/internal/git"
	"github.com/inovacc/gitmon/internal/gitconfig"
	"github.com/inovacc/gitmon/internal/giturl"
	"github.com/inovacc/gitmon/internal/model"
)

// queryTimeout bounds each individual git query. Exceeding it is a hard
// failure for that query, escalated per the classification precedence.
const queryTimeout = 5 * time.Second

// Collector turns repository paths into RepoRecords. All failures are
// captured into the record; Collect never returns an error.
type Collector struct {
	runner git.Runner
	logger *slog.Logger
}

// New creates a collector backed by the given runner
func New(runner git.Runner) *Collector {
	return &Collector{
		runner: runner,
		logger: slog.Default(),
	}
}

// Collect gathers the full status of one repository. Required queries that
// fail hard (nonzero exit, missing tool, timeout) mark the record as
// StatusError with the first failure reason; optional queries degrade to
// defaults without failing the record.
func (c *Collector) Collect(ctx context.Context, repoPath string) model.RepoRecord {
	record := model.RepoRecord{
		Path: repoPath,
		Name: filepath.Base(repoPath),
	}

	// Branch and detached-HEAD detection (required)
	branchRes := c.run(ctx, repoPath, "branch", "--show-current")
	if !branchRes.Ok() {
		return c.failed(record, branchRes)
	}

	record.Branch = branchRes.Out()
	if record.Branch == "" {
		record.Detached = true
		record.Branch = "detached"

		if headRes := c.run(ctx, repoPath, "rev-parse", "--short", "HEAD"); headRes.Ok() {
			record.Branch = "detached@" + headRes.Out()
		}
	}

	// Remote URL for owner extraction. A repo without a remote is fine;
	// only a hard invocation failure (timeout, missing tool) is fatal.
	remoteRes := c.run(ctx, repoPath, "remote", "get-url", "origin")
	switch {
	case remoteRes.Ok():
		record.RemoteOwner = giturl.Owner(remoteRes.Out())
	case remoteRes.Err != nil:
		return c.failed(record, remoteRes)
	default:
		// The subcommand can fail on older git; .git/config still has the URL
		if cfg, err := gitconfig.Load(repoPath); err == nil {
			record.RemoteOwner = giturl.Owner(cfg.RemoteURL("origin"))
		}
	}

	// Working tree dirtiness (required)
	statusRes := c.run(ctx, repoPath, "status", "--porcelain")
	if !statusRes.Ok() {
		return c.failed(record, statusRes)
	}

	dirty := statusRes.Out() != ""

	// Stash count (required for classification)
	stashRes := c.run(ctx, repoPath, "stash", "list")
	if !stashRes.Ok() {
		return c.failed(record, stashRes)
	}

	record.StashCount = countLines(stashRes.Out())

	switch {
	case dirty:
		record.Status = model.StatusChanges
	case record.StashCount > 0:
		record.Status = model.StatusStashed
	default:
		record.Status = model.StatusClean
	}

	// Tracking counts run independently of dirtiness so a dirty repo still
	// reports correct ahead/behind numbers. Missing or malformed output
	// means "no upstream", a degraded state rather than a failure; a
	// detached HEAD never has one, so the query is skipped outright.
	if !record.Detached {
		trackRes := c.run(ctx, repoPath, "rev-list", "--left-right", "--count", "HEAD...@{upstream}")
		switch {
		case trackRes.Ok():
			record.Ahead, record.Behind, record.HasUpstream = parseTracking(trackRes.Out())
		case trackRes.Err != nil:
			return c.failed(record, trackRes)
		case git.IsNoUpstream(trackRes):
			// the expected exit for branches without a tracking ref
		default:
			return c.failed(record, trackRes)
		}
	}

	// Upstream ref straight from .git/config, best effort
	if cfg, err := gitconfig.Load(repoPath); err == nil && !record.Detached {
		record.UpstreamRef = cfg.UpstreamRef(record.Branch)
	}

	// Remote HEAD commit subject, opportunistic; absence is not an error
	if logRes := c.run(ctx, repoPath, "log", "origin/HEAD", "-1", "--pretty=format:%s"); logRes.Ok() {
		record.LastRemoteCommit = logRes.Out()
	}

	return record
}

func (c *Collector) run(ctx context.Context, dir string, args ...string) git.Result {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return c.runner.Run(ctx, dir, args...)
}

// failed finalizes a record after a hard query failure. Fields collected so
// far are kept as best-effort partial data.
func (c *Collector) failed(record model.RepoRecord, res git.Result) model.RepoRecord {
	record.Status = model.StatusError
	record.Err = res.FailureReason()

	// A repository deleted between scan and collect produces git's long
	// not-a-repo message on every query; normalize it.
	if git.IsNotRepository(res) {
		record.Err = "not a git repository"
	}

	c.logger.Warn("git query failed",
		slog.String("path", record.Path),
		slog.String("reason", record.Err),
	)

	return record
}

// parseTracking parses "ahead<TAB>behind" rev-list output. Empty or
// malformed output yields no upstream rather than an error.
func parseTracking(out string) (ahead, behind int, hasUpstream bool) {
	if out == "" {
		return 0, 0, false
	}

	fields := strings.Fields(out)
	if len(fields) != 2 {
		return 0, 0, false
	}

	ahead, errA := strconv.Atoi(fields[0])
	behind, errB := strconv.Atoi(fields[1])

	if errA != nil || errB != nil || ahead < 0 || behind < 0 {
		return 0, 0, false
	}

	return ahead, behind, true
}

func countLines(out string) int {
	if out == "" {
		return 0
	}

	return len(strings.Split(out, "\n"))
}
