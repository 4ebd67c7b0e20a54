// Package stats gathers commit history statistics for a single repository
// using git-nerds. Statistics are computed on demand and never cached.
package stats

import (
	"fmt"
	"log/slog"
	"time"

	gitnerds "github.com/inovacc/git-nerds"
)

// RepoStats is the commit history summary of one repository
type RepoStats struct {
	Path         string    `json:"path"`
	GatheredAt   time.Time `json:"gathered_at"`
	TotalCommits int       `json:"total_commits"`
	TotalAuthors int       `json:"total_authors"`
	LinesAdded   int       `json:"lines_added"`
	LinesDeleted int       `json:"lines_deleted"`
	LinesChanged int       `json:"lines_changed"`

	FirstCommitAt time.Time `json:"first_commit_at,omitzero"`
	LastCommitAt  time.Time `json:"last_commit_at,omitzero"`

	Contributors []Contributor `json:"contributors,omitempty"`

	CommitsByWeekday map[string]int `json:"commits_by_weekday,omitempty"`
	CommitsByHour    map[int]int    `json:"commits_by_hour,omitempty"`
	CommitsByMonth   map[string]int `json:"commits_by_month,omitempty"`
}

// Contributor is one author's commit count
type Contributor struct {
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Commits int       `json:"commits"`
	Since   time.Time `json:"since"`
}

// Options configures what Gather computes
type Options struct {
	// IncludeTemporal adds commits-by-weekday/hour/month breakdowns
	IncludeTemporal bool

	// Since and Until bound the analyzed history when non-zero
	Since time.Time
	Until time.Time
}

// Summary is the one-line form used by list views
func (s *RepoStats) Summary() string {
	return fmt.Sprintf("%d commits by %d authors | +%d -%d lines",
		s.TotalCommits, s.TotalAuthors, s.LinesAdded, s.LinesDeleted)
}

// Gather computes statistics for the repository at path. Partial results are
// returned when individual analyses fail; only failing to open the
// repository at all is an error.
func Gather(path string, opts Options) (*RepoStats, error) {
	gnOpts := gitnerds.DefaultOptions()
	if !opts.Since.IsZero() {
		gnOpts.Since = opts.Since
	}

	if !opts.Until.IsZero() {
		gnOpts.Until = opts.Until
	}

	repo, err := gitnerds.Open(path, gnOpts)
	if err != nil {
		return nil, fmt.Errorf("opening repository %s: %w", path, err)
	}

	out := &RepoStats{
		Path:       path,
		GatheredAt: time.Now(),
	}

	detailed, err := repo.DetailedStats()
	if err != nil {
		slog.Warn("detailed stats unavailable",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	} else {
		out.TotalCommits = detailed.TotalCommits
		out.TotalAuthors = detailed.TotalAuthors
		out.LinesAdded = detailed.LinesAdded
		out.LinesDeleted = detailed.LinesDeleted
		out.LinesChanged = detailed.LinesChanged
		out.FirstCommitAt = detailed.FirstCommitAt
		out.LastCommitAt = detailed.LastCommitAt
	}

	if contributors, err := repo.Contributors(); err == nil {
		out.Contributors = make([]Contributor, len(contributors))
		for i, c := range contributors {
			out.Contributors[i] = Contributor{
				Name:    c.Name,
				Email:   c.Email,
				Commits: c.Commits,
				Since:   c.Since,
			}
		}
	}

	if opts.IncludeTemporal {
		if data, err := repo.CommitsByWeekday(); err == nil {
			out.CommitsByWeekday = data
		}

		if data, err := repo.CommitsByHour(); err == nil {
			out.CommitsByHour = data
		}

		if data, err := repo.CommitsByMonth(); err == nil {
			out.CommitsByMonth = data
		}
	}

	return out, nil
}
