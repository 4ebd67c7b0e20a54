// Package monitor is the long-running engine behind every surface. It owns
// the scan loop, the fetch scheduler, and the snapshot store, and exposes a
// small trigger-and-read API to the TUI and CLI.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/inovacc/gitmon/internal/collector"
	"github.com/inovacc/gitmon/internal/fetch"
	"github.com/inovacc/gitmon/internal/git"
	"github.com/inovacc/gitmon/internal/model"
	"github.com/inovacc/gitmon/internal/scanner"
	"github.com/inovacc/gitmon/internal/snapshot"
)

// Monitor runs periodic scans and on-demand fetch cycles over the configured
// watch directories. One scan runs at a time; triggers arriving while a scan
// is in progress are dropped, not queued.
type Monitor struct {
	cfg       model.Config
	store     *snapshot.Store
	scanner   *scanner.Scanner
	collector *collector.Collector
	scheduler *fetch.Scheduler
	logger    *slog.Logger

	events       chan fetch.Event
	scanRequests chan struct{}

	autoFetch atomic.Bool
	scanning  atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New wires a monitor from validated configuration. Call Start to begin the
// loops and Close to stop them.
func New(cfg model.Config, runner git.Runner) *Monitor {
	store := snapshot.NewStore()

	m := &Monitor{
		cfg:          cfg,
		store:        store,
		scanner:      scanner.New(cfg.MaxDepth),
		collector:    collector.New(runner),
		scheduler:    fetch.NewScheduler(runner, store, cfg.FetchParallel),
		logger:       slog.Default(),
		events:       make(chan fetch.Event, 256),
		scanRequests: make(chan struct{}, 1),
	}

	m.autoFetch.Store(cfg.AutoFetchEnabled)

	return m
}

// Start launches the scan loop and the fetch event pump, then performs the
// initial scan synchronously so the first Snapshot is never empty by accident.
func (m *Monitor) Start(ctx context.Context) {
	m.ctx, m.cancel = context.WithCancel(ctx)

	m.scan(m.ctx)

	m.wg.Add(2)
	go m.runLoop()
	go m.pumpEvents()
}

// Close stops the loops and cancels any running fetch cycle
func (m *Monitor) Close() {
	if m.cancel != nil {
		m.cancel()
	}

	m.scheduler.Cancel()
	m.wg.Wait()
}

// Snapshot returns the current repository records and fetch progress
func (m *Monitor) Snapshot() ([]model.RepoRecord, snapshot.FetchRunState) {
	return m.store.Snapshot()
}

// Events streams fetch progress and terminal summaries. Progress events may
// be dropped when no one is reading.
func (m *Monitor) Events() <-chan fetch.Event {
	return m.events
}

// Config returns the configuration the monitor was started with
func (m *Monitor) Config() model.Config {
	return m.cfg
}

// TriggerScan requests an immediate rescan. A request made while a scan is
// already pending or running coalesces into it.
func (m *Monitor) TriggerScan() {
	select {
	case m.scanRequests <- struct{}{}:
	default:
	}
}

// TriggerFetchCycle starts a fetch cycle over every known repository. It
// reports false when a cycle is already running or no repositories are known.
func (m *Monitor) TriggerFetchCycle() bool {
	records, _ := m.store.Snapshot()

	paths := make([]string, 0, len(records))
	for _, record := range records {
		paths = append(paths, record.Path)
	}

	return m.scheduler.TryStart(m.ctx, paths)
}

// CancelFetchCycle cooperatively stops the running cycle, if any
func (m *Monitor) CancelFetchCycle() {
	m.scheduler.Cancel()
}

// FetchRunning reports whether a fetch cycle is in flight
func (m *Monitor) FetchRunning() bool {
	return m.scheduler.Running()
}

// SetAutoFetch toggles the periodic background fetch at runtime
func (m *Monitor) SetAutoFetch(enabled bool) {
	m.autoFetch.Store(enabled)

	m.logger.Info("auto-fetch toggled", slog.Bool("enabled", enabled))
}

// AutoFetchEnabled reports the current auto-fetch setting
func (m *Monitor) AutoFetchEnabled() bool {
	return m.autoFetch.Load()
}

// runLoop drives periodic rescans and the auto-fetch timer. Ticks that land
// while the previous scan or cycle is still running are dropped.
func (m *Monitor) runLoop() {
	defer m.wg.Done()

	refresh := time.NewTicker(time.Duration(m.cfg.RefreshInterval) * time.Second)
	defer refresh.Stop()

	autoFetch := time.NewTicker(time.Duration(m.cfg.AutoFetchInterval) * time.Second)
	defer autoFetch.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-m.scanRequests:
			m.scan(m.ctx)
		case <-refresh.C:
			m.scan(m.ctx)
		case <-autoFetch.C:
			if m.autoFetch.Load() {
				m.TriggerFetchCycle()
			}
		}
	}
}

// pumpEvents forwards scheduler events to subscribers and rescans after a
// cycle completes, so ahead/behind counts reflect the fresh remote data.
// A cancelled cycle does not trigger the rescan.
func (m *Monitor) pumpEvents() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		case ev := <-m.scheduler.Events():
			select {
			case m.events <- ev:
			default:
			}

			if ev.Done && !ev.Cancelled {
				m.TriggerScan()
			}
		}
	}
}

// scan walks the watch directories, collects every repository's status
// concurrently, and publishes the sorted result as one atomic snapshot.
func (m *Monitor) scan(ctx context.Context) {
	if !m.scanning.CompareAndSwap(false, true) {
		return
	}
	defer m.scanning.Store(false)

	start := time.Now()

	roots := m.cfg.ExpandedDirectories()
	paths := m.scanner.Scan(roots)

	records := m.collectAll(ctx, paths)
	model.SortRecords(records)

	m.store.Publish(records)

	m.logger.Debug("scan complete",
		slog.Int("repos", len(records)),
		slog.Duration("elapsed", time.Since(start).Round(time.Millisecond)),
	)
}

// collectAll gathers statuses with the same worker ceiling used for fetches.
// A failing repository yields an error record and never affects its siblings.
func (m *Monitor) collectAll(ctx context.Context, paths []string) []model.RepoRecord {
	if len(paths) == 0 {
		return nil
	}

	workQueue := make(chan string, len(paths))
	for _, path := range paths {
		workQueue <- path
	}
	close(workQueue)

	var (
		mu      sync.Mutex
		records []model.RepoRecord
		wg      sync.WaitGroup
	)

	workers := m.cfg.FetchParallel
	if workers > len(paths) {
		workers = len(paths)
	}

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for path := range workQueue {
				if ctx.Err() != nil {
					return
				}

				record := m.collector.Collect(ctx, path)

				mu.Lock()
				records = append(records, record)
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	return records
}
