// Package giturl normalizes git remote URLs and extracts their owner and
// repository segments.
package giturl

import (
	"net/url"
	"strings"
)

func isSupportedProtocol(u string) bool {
	return strings.HasPrefix(u, "ssh:") ||
		strings.HasPrefix(u, "git+ssh:") ||
		strings.HasPrefix(u, "git:") ||
		strings.HasPrefix(u, "http:") ||
		strings.HasPrefix(u, "git+https:") ||
		strings.HasPrefix(u, "https:")
}

func isPossibleProtocol(u string) bool {
	return isSupportedProtocol(u) ||
		strings.HasPrefix(u, "ftp:") ||
		strings.HasPrefix(u, "ftps:") ||
		strings.HasPrefix(u, "file:")
}

// Parse normalizes git remote urls, including scp-like syntax (git@github.com:owner/repo)
func Parse(rawURL string) (*url.URL, error) {
	if !isPossibleProtocol(rawURL) &&
		strings.ContainsRune(rawURL, ':') &&
		// not a Windows path
		!strings.ContainsRune(rawURL, '\\') {
		// support scp-like syntax for ssh protocol
		rawURL = "ssh://" + strings.Replace(rawURL, ":", "/", 1)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	switch u.Scheme {
	case "git+https":
		u.Scheme = "https"
	case "git+ssh":
		u.Scheme = "ssh"
	}

	if u.Scheme != "ssh" {
		return u, nil
	}

	if strings.HasPrefix(u.Path, "//") {
		u.Path = strings.TrimPrefix(u.Path, "/")
	}

	u.Host = strings.TrimSuffix(u.Host, ":"+u.Port())

	return u, nil
}

// ExtractOwnerRepo extracts owner and repo name from a parsed URL
func ExtractOwnerRepo(u *url.URL) (owner, repo string, err error) {
	parts := strings.SplitN(strings.Trim(u.Path, "/"), "/", 3)
	if len(parts) < 2 {
		return "", "", &url.Error{Op: "parse", URL: u.String(), Err: errInvalidPath}
	}

	owner = parts[0]
	repo = strings.TrimSuffix(parts[1], ".git")

	return owner, repo, nil
}

// Owner returns the owner/organization segment of a raw remote URL.
// It never fails: unparseable or ownerless URLs yield the empty string.
func Owner(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}

	u, err := Parse(rawURL)
	if err != nil {
		return ""
	}

	owner, _, err := ExtractOwnerRepo(u)
	if err != nil {
		return ""
	}

	return owner
}

var errInvalidPath = &invalidPathError{}

type invalidPathError struct{}

func (e *invalidPathError) Error() string {
	return "invalid path: expected owner/repo"
}
