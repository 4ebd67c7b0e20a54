package model

import (
	"sort"
	"strings"
	"time"
)

// RepoStatus classifies the working tree of a repository.
type RepoStatus string

const (
	// StatusClean means no uncommitted changes and no stash entries.
	StatusClean RepoStatus = "clean"

	// StatusStashed means a clean working tree with at least one stash entry.
	StatusStashed RepoStatus = "stashed"

	// StatusChanges means uncommitted changes are present, stashed or not.
	StatusChanges RepoStatus = "changes"

	// StatusError means a required git query failed for this repository.
	StatusError RepoStatus = "error"
)

// FetchOutcome records the result of the most recent fetch for a repository.
// It is absent until the first fetch cycle touches the repository.
type FetchOutcome struct {
	// Succeeded indicates whether the fetch completed without error
	Succeeded bool `json:"succeeded"`

	// CompletedAt is when the fetch finished, success or failure
	CompletedAt time.Time `json:"completed_at"`

	// Reason holds the failure description; empty on success
	Reason string `json:"reason,omitempty"`
}

// RepoRecord is the observed state of one repository at scan time. Records
// are replaced wholesale on every scan; only FetchOutcome is carried forward
// between scans until a newer fetch overwrites it.
type RepoRecord struct {
	// Path is the absolute repository root and the record's identity
	Path string `json:"path"`

	// Name is the last path segment, display only
	Name string `json:"name"`

	// RemoteOwner is the org/user segment of the origin URL, or empty
	RemoteOwner string `json:"remote_owner,omitempty"`

	// Branch is the current branch, or "detached@<hash>" when HEAD is detached
	Branch string `json:"branch"`

	// Detached indicates HEAD is not on a named branch
	Detached bool `json:"detached,omitempty"`

	// Status is the working tree classification
	Status RepoStatus `json:"status"`

	// Ahead and Behind count commits relative to the upstream branch.
	// Both are zero and meaningless when HasUpstream is false.
	Ahead  int `json:"ahead"`
	Behind int `json:"behind"`

	// HasUpstream indicates a tracking branch is configured
	HasUpstream bool `json:"has_upstream"`

	// StashCount is the number of stash entries
	StashCount int `json:"stash_count"`

	// UpstreamRef is the configured upstream, e.g. "origin/main", best effort
	UpstreamRef string `json:"upstream_ref,omitempty"`

	// LastRemoteCommit is the most recent remote HEAD commit subject, best effort
	LastRemoteCommit string `json:"last_remote_commit,omitempty"`

	// Err describes the failure when Status is StatusError
	Err string `json:"error,omitempty"`

	// FetchOutcome is set by the fetch scheduler, never by a scan
	FetchOutcome *FetchOutcome `json:"fetch_outcome,omitempty"`
}

// Clone returns a deep copy so published snapshots cannot alias store state.
func (r RepoRecord) Clone() RepoRecord {
	out := r
	if r.FetchOutcome != nil {
		outcome := *r.FetchOutcome
		out.FetchOutcome = &outcome
	}

	return out
}

// SortRecords orders records by remote owner, then name, case-insensitive.
// This is the display order used by every presentation surface.
func SortRecords(records []RepoRecord) {
	sort.Slice(records, func(i, j int) bool {
		oi := strings.ToLower(records[i].RemoteOwner)
		oj := strings.ToLower(records[j].RemoteOwner)

		if oi != oj {
			return oi < oj
		}

		return strings.ToLower(records[i].Name) < strings.ToLower(records[j].Name)
	})
}
