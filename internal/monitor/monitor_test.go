package monitor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/inovacc/gitmon/internal/git"
	"github.com/inovacc/gitmon/internal/model"
	"github.com/inovacc/gitmon/internal/snapshot"
)

// scriptedRunner answers every repository with the same canned git outputs
type scriptedRunner struct {
	mu      sync.Mutex
	fetches int
}

func (r *scriptedRunner) Run(_ context.Context, dir string, args ...string) git.Result {
	cmd := strings.Join(args, " ")

	switch cmd {
	case "branch --show-current":
		return git.Result{Stdout: "main\n"}
	case "remote get-url origin":
		return git.Result{Stdout: "git@github.com:acme/" + filepath.Base(dir) + ".git\n"}
	case "status --porcelain":
		return git.Result{}
	case "stash list":
		return git.Result{}
	case "rev-list --left-right --count HEAD...@{upstream}":
		return git.Result{Stdout: "1\t2\n"}
	case "fetch --all":
		r.mu.Lock()
		r.fetches++
		r.mu.Unlock()

		return git.Result{}
	default:
		return git.Result{ExitCode: 1, Stderr: "fatal: unexpected command"}
	}
}

func (r *scriptedRunner) fetchCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.fetches
}

func testConfig(t *testing.T, repos ...string) model.Config {
	t.Helper()

	root := t.TempDir()
	for _, name := range repos {
		require.NoError(t, os.MkdirAll(filepath.Join(root, name, ".git"), 0o755))
	}

	cfg := model.DefaultConfig()
	cfg.WatchDirectories = []string{root}
	cfg.MaxDepth = 2
	cfg.RefreshInterval = 3600
	cfg.AutoFetchEnabled = false
	cfg.FetchParallel = 2

	return cfg
}

func TestStartPerformsInitialScan(t *testing.T) {
	cfg := testConfig(t, "alpha", "beta")

	mon := New(cfg, &scriptedRunner{})
	mon.Start(context.Background())

	defer mon.Close()

	records, state := mon.Snapshot()

	require.Len(t, records, 2)
	require.Equal(t, snapshot.PhaseNever, state.Phase)

	// Sorted by owner then name
	require.Equal(t, "alpha", records[0].Name)
	require.Equal(t, "beta", records[1].Name)

	for _, record := range records {
		require.Equal(t, model.StatusClean, record.Status)
		require.Equal(t, "acme", record.RemoteOwner)
		require.Equal(t, 1, record.Ahead)
		require.Equal(t, 2, record.Behind)
	}
}

func TestTriggerScanPicksUpNewRepos(t *testing.T) {
	cfg := testConfig(t, "alpha")

	mon := New(cfg, &scriptedRunner{})
	mon.Start(context.Background())

	defer mon.Close()

	records, _ := mon.Snapshot()
	require.Len(t, records, 1)

	root := cfg.WatchDirectories[0]
	require.NoError(t, os.MkdirAll(filepath.Join(root, "gamma", ".git"), 0o755))

	mon.TriggerScan()

	require.Eventually(t, func() bool {
		records, _ := mon.Snapshot()

		return len(records) == 2
	}, 5*time.Second, 10*time.Millisecond)
}

func TestTriggerFetchCycle(t *testing.T) {
	cfg := testConfig(t, "alpha", "beta")
	runner := &scriptedRunner{}

	mon := New(cfg, runner)
	mon.Start(context.Background())

	defer mon.Close()

	require.True(t, mon.TriggerFetchCycle())

	require.Eventually(t, func() bool {
		records, state := mon.Snapshot()
		if state.Phase != snapshot.PhaseIdle {
			return false
		}

		for _, record := range records {
			if record.FetchOutcome == nil || !record.FetchOutcome.Succeeded {
				return false
			}
		}

		return true
	}, 5*time.Second, 10*time.Millisecond)

	require.Equal(t, 2, runner.fetchCount())
}

func TestTriggerFetchCycleWithNoRepos(t *testing.T) {
	cfg := testConfig(t)

	mon := New(cfg, &scriptedRunner{})
	mon.Start(context.Background())

	defer mon.Close()

	require.False(t, mon.TriggerFetchCycle())
}

func TestSetAutoFetch(t *testing.T) {
	cfg := testConfig(t)

	mon := New(cfg, &scriptedRunner{})
	mon.Start(context.Background())

	defer mon.Close()

	require.False(t, mon.AutoFetchEnabled())

	mon.SetAutoFetch(true)
	require.True(t, mon.AutoFetchEnabled())

	mon.SetAutoFetch(false)
	require.False(t, mon.AutoFetchEnabled())
}

func TestCloseIsIdempotentWithRunningCycle(t *testing.T) {
	cfg := testConfig(t, "alpha")

	mon := New(cfg, &scriptedRunner{})
	mon.Start(context.Background())

	mon.TriggerFetchCycle()
	mon.Close()
}

func TestFetchOutcomeSurvivesRescan(t *testing.T) {
	cfg := testConfig(t, "alpha")
	runner := &scriptedRunner{}

	mon := New(cfg, runner)
	mon.Start(context.Background())

	defer mon.Close()

	require.True(t, mon.TriggerFetchCycle())

	require.Eventually(t, func() bool {
		records, _ := mon.Snapshot()

		return len(records) == 1 && records[0].FetchOutcome != nil
	}, 5*time.Second, 10*time.Millisecond)

	mon.TriggerScan()

	// The rescan republishes records; the outcome must be carried over
	require.Never(t, func() bool {
		records, _ := mon.Snapshot()

		return len(records) != 1 || records[0].FetchOutcome == nil
	}, 500*time.Millisecond, 50*time.Millisecond)
}
