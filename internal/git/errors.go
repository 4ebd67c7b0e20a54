package git

import "strings"

// Common error messages from git
const (
	errMsgNotRepository    = "not a git repository"
	errMsgNoUpstream       = "no upstream"
	errMsgAuthFailed       = "Authentication failed"
	errMsgPermissionDenied = "Permission denied"
	errMsgUnknownRevision  = "unknown revision"
	errMsgNotABranch       = "does not point to a branch"
)

// IsNotRepository checks if the result indicates the directory is not a repo
func IsNotRepository(r Result) bool {
	return containsMessage(r, errMsgNotRepository)
}

// IsAuthFailure checks if the result indicates authentication was refused.
// Fetch failures of this shape are the expected steady state for repos
// without credentials and must not abort a cycle.
func IsAuthFailure(r Result) bool {
	return containsMessage(r, errMsgAuthFailed) || containsMessage(r, errMsgPermissionDenied)
}

// IsNoUpstream checks if the result indicates no tracking branch is configured
func IsNoUpstream(r Result) bool {
	return containsMessage(r, errMsgNoUpstream) ||
		containsMessage(r, errMsgUnknownRevision) ||
		containsMessage(r, errMsgNotABranch)
}

func containsMessage(r Result, msg string) bool {
	return strings.Contains(strings.ToLower(r.Stderr), strings.ToLower(msg))
}
