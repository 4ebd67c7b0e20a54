// Package fetch refreshes remote-tracking data for every known repository
// with a bounded worker pool, publishing per-repo outcomes and progress as
// each fetch completes.
package fetch

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/inovacc/gitmon/internal/git"
	"github.com/inovacc/gitmon/internal/model"
	"github.com/inovacc/gitmon/internal/snapshot"
)

// fetchTimeout bounds each repository's fetch subprocess. A cycle
// cancellation does not abort in-flight fetches; this deadline does.
const fetchTimeout = 30 * time.Second

// eventBuffer is sized so a full cycle over a large tree never blocks
// workers on a slow consumer.
const eventBuffer = 256

// Event is one progress or terminal notification from a fetch cycle.
// Progress events arrive in completion order, which is not scan order.
type Event struct {
	CycleID   uuid.UUID
	Path      string
	Name      string
	Completed int
	Total     int
	Outcome   model.FetchOutcome

	// Done marks the terminal event of a cycle; Succeeded/Failed/Cancelled
	// are only meaningful on it.
	Done      bool
	Succeeded int
	Failed    int
	Cancelled bool
}

// Scheduler runs fetch cycles. At most one cycle is in flight at any time;
// attempts to start another are rejected, never queued.
type Scheduler struct {
	runner   git.Runner
	store    *snapshot.Store
	parallel int
	logger   *slog.Logger

	events chan Event

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

// NewScheduler creates a scheduler with the given worker-pool ceiling
func NewScheduler(runner git.Runner, store *snapshot.Store, parallel int) *Scheduler {
	if parallel < 1 {
		parallel = 1
	}

	return &Scheduler{
		runner:   runner,
		store:    store,
		parallel: parallel,
		logger:   slog.Default(),
		events:   make(chan Event, eventBuffer),
	}
}

// Events is the stream of progress and terminal events across all cycles
func (s *Scheduler) Events() <-chan Event {
	return s.events
}

// Running reports whether a cycle is currently in flight
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// TryStart begins a cycle over the given repositories. It returns false
// without side effects when a cycle is already running (overlapping
// triggers are dropped) or when there is nothing to fetch.
func (s *Scheduler) TryStart(parent context.Context, repos []string) bool {
	if len(repos) == 0 {
		return false
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()

		return false
	}

	ctx, cancel := context.WithCancel(parent)
	s.running = true
	s.cancel = cancel
	s.mu.Unlock()

	go s.runCycle(ctx, repos)

	return true
}

// Cancel stops the running cycle, if any. Dispatch of new work stops
// immediately; fetches already in flight run to their own deadline.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Scheduler) runCycle(ctx context.Context, repos []string) {
	cycleID := uuid.New()
	total := len(repos)
	start := time.Now()

	s.logger.Info("fetch cycle starting",
		slog.String("cycle", cycleID.String()),
		slog.Int("repos", total),
		slog.Int("parallel", s.parallel),
	)

	s.store.SetFetchState(snapshot.FetchRunState{
		Phase: snapshot.PhaseRunning,
		Total: total,
	})

	workQueue := make(chan string, total)
	for _, repo := range repos {
		workQueue <- repo
	}
	close(workQueue)

	var (
		completed atomic.Int32
		succeeded atomic.Int32
		failed    atomic.Int32
		wg        sync.WaitGroup
	)

	for range s.parallel {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for repo := range workQueue {
				// Cancellation stops workers from picking up new repos;
				// the queue is drained without fetching.
				if ctx.Err() != nil {
					return
				}

				outcome := s.fetchRepo(ctx, repo)

				// The outcome is written whole under the store lock, so a
				// reader sees either the previous value or this one.
				s.store.SetFetchOutcome(repo, outcome)

				done := int(completed.Add(1))
				if outcome.Succeeded {
					succeeded.Add(1)
				} else {
					failed.Add(1)
				}

				s.store.SetFetchState(snapshot.FetchRunState{
					Phase:     snapshot.PhaseRunning,
					Completed: done,
					Total:     total,
				})

				s.emit(Event{
					CycleID:   cycleID,
					Path:      repo,
					Name:      filepath.Base(repo),
					Completed: done,
					Total:     total,
					Outcome:   outcome,
				})
			}
		}()
	}

	wg.Wait()

	cancelled := ctx.Err() != nil

	s.store.SetFetchState(snapshot.FetchRunState{
		Phase:     snapshot.PhaseIdle,
		Completed: int(completed.Load()),
		Total:     total,
	})

	s.mu.Lock()
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	s.logger.Info("fetch cycle finished",
		slog.String("cycle", cycleID.String()),
		slog.Int("succeeded", int(succeeded.Load())),
		slog.Int("failed", int(failed.Load())),
		slog.Bool("cancelled", cancelled),
		slog.Duration("elapsed", time.Since(start).Round(time.Millisecond)),
	)

	s.emitFinal(ctx, Event{
		CycleID:   cycleID,
		Total:     total,
		Completed: int(completed.Load()),
		Done:      true,
		Succeeded: int(succeeded.Load()),
		Failed:    int(failed.Load()),
		Cancelled: cancelled,
	})
}

// fetchRepo runs one repository's fetch. Cycle cancellation is deliberately
// not propagated to a fetch already dispatched; only its own deadline
// bounds it.
func (s *Scheduler) fetchRepo(ctx context.Context, repo string) model.FetchOutcome {
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
	defer cancel()

	res := s.runner.Run(fctx, repo, "fetch", "--all")

	outcome := model.FetchOutcome{
		Succeeded:   res.Ok(),
		CompletedAt: time.Now(),
	}

	if !outcome.Succeeded {
		outcome.Reason = res.FailureReason()

		// Repos without credentials fail every cycle; collapse git's noisy
		// stderr into one stable reason and keep it off the warning level.
		level := slog.LevelWarn
		if git.IsAuthFailure(res) {
			outcome.Reason = "authentication failed"
			level = slog.LevelInfo
		}

		s.logger.Log(context.Background(), level, "fetch failed",
			slog.String("path", repo),
			slog.String("reason", outcome.Reason),
		)
	}

	return outcome
}

// emit delivers a progress event without ever blocking a worker. Events
// may be dropped under backpressure.
func (s *Scheduler) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
	}
}

// emitFinal delivers a cycle's terminal event. It waits for buffer room
// while the cycle context is live, but a cancelled cycle whose consumer
// is gone must not pin the goroutine; the event is dropped instead.
func (s *Scheduler) emitFinal(ctx context.Context, ev Event) {
	select {
	case s.events <- ev:
	default:
		select {
		case s.events <- ev:
		case <-ctx.Done():
		}
	}
}
