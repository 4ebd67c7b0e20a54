// Package snapshot holds the process-wide view of repository state. It is
// the single piece of shared mutable state: scans publish whole record
// lists, the fetch scheduler patches per-repo outcomes, and readers always
// observe a complete, internally consistent snapshot.
package snapshot

import (
	"sync"

	"github.com/inovacc/gitmon/internal/model"
)

// FetchPhase describes what the fetch scheduler is doing right now
type FetchPhase int

const (
	// PhaseNever means no fetch cycle has run yet
	PhaseNever FetchPhase = iota

	// PhaseIdle means the last cycle finished and nothing is running
	PhaseIdle

	// PhaseRunning means a cycle is in flight
	PhaseRunning
)

func (p FetchPhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	default:
		return "never"
	}
}

// FetchRunState is the scheduler's externally visible progress
type FetchRunState struct {
	Phase     FetchPhase
	Completed int
	Total     int
}

// Store is the atomically published holder of the current repository list
// and fetch run state. All mutation goes through its lock; readers get
// copies and can never observe a partially applied update.
type Store struct {
	mu      sync.RWMutex
	records []model.RepoRecord
	state   FetchRunState
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{}
}

// Publish replaces the record list wholesale. Fetch outcomes already known
// for a path are carried into the new list, since scans never produce them;
// a record that arrives with its own outcome (newer fetch) keeps it.
func (s *Store) Publish(records []model.RepoRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := make(map[string]*model.FetchOutcome, len(s.records))
	for i := range s.records {
		if s.records[i].FetchOutcome != nil {
			previous[s.records[i].Path] = s.records[i].FetchOutcome
		}
	}

	published := make([]model.RepoRecord, len(records))
	for i, record := range records {
		published[i] = record.Clone()

		if published[i].FetchOutcome == nil {
			if outcome, ok := previous[published[i].Path]; ok {
				carried := *outcome
				published[i].FetchOutcome = &carried
			}
		}
	}

	s.records = published
}

// SetFetchOutcome records the result of one repository's fetch. The outcome
// is applied whole under the lock; last write per path wins regardless of
// whether it came from a fetch or a concurrent publish merge.
func (s *Store) SetFetchOutcome(path string, outcome model.FetchOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].Path == path {
			o := outcome
			s.records[i].FetchOutcome = &o

			return
		}
	}
}

// SetFetchState updates the scheduler progress shown to readers
func (s *Store) SetFetchState(state FetchRunState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = state
}

// Snapshot returns a copy of the current records and fetch state. It never
// blocks on in-progress scans and never returns partial results.
func (s *Store) Snapshot() ([]model.RepoRecord, FetchRunState) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]model.RepoRecord, len(s.records))
	for i := range s.records {
		records[i] = s.records[i].Clone()
	}

	return records, s.state
}
