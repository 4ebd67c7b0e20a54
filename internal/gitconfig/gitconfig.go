// Package gitconfig reads repository metadata straight from .git/config
// without spawning a subprocess. Everything here is best effort; callers
// treat a missing or unreadable config as "no information".
package gitconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

// Remote is one [remote "name"] section
type Remote struct {
	URL   string `ini:"url"`
	Fetch string `ini:"fetch"`
}

// Branch is one [branch "name"] section
type Branch struct {
	Remote string `ini:"remote"`
	Merge  string `ini:"merge"`
}

// Config is the parsed repository configuration
type Config struct {
	Remotes  map[string]Remote
	Branches map[string]Branch
}

// Load parses the config of the repository rooted at repoPath. Worktree
// checkouts (where .git is a file pointing at the real git dir) are
// followed through gitdir and commondir indirections.
func Load(repoPath string) (*Config, error) {
	gitDir, err := resolveGitDir(repoPath)
	if err != nil {
		return nil, err
	}

	return parse(filepath.Join(gitDir, "config"))
}

// RemoteURL returns the URL of the named remote, or empty if not configured.
func (c *Config) RemoteURL(name string) string {
	return c.Remotes[name].URL
}

// UpstreamRef returns the tracking ref for a branch, e.g. "origin/main".
// Empty when the branch has no upstream configured.
func (c *Config) UpstreamRef(branch string) string {
	b, ok := c.Branches[branch]
	if !ok || b.Remote == "" || b.Merge == "" {
		return ""
	}

	return b.Remote + "/" + strings.TrimPrefix(b.Merge, "refs/heads/")
}

func parse(path string) (*Config, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading git config %s: %w", path, err)
	}

	cfg := &Config{
		Remotes:  make(map[string]Remote),
		Branches: make(map[string]Branch),
	}

	for _, sec := range file.Sections() {
		name := sec.Name()

		switch {
		case strings.HasPrefix(name, `remote "`):
			var remote Remote
			if err := sec.MapTo(&remote); err != nil {
				continue
			}

			cfg.Remotes[sectionSubName(name)] = remote

		case strings.HasPrefix(name, `branch "`):
			var branch Branch
			if err := sec.MapTo(&branch); err != nil {
				continue
			}

			cfg.Branches[sectionSubName(name)] = branch
		}
	}

	return cfg, nil
}

// sectionSubName extracts "origin" from `remote "origin"`
func sectionSubName(section string) string {
	open := strings.Index(section, `"`)
	close := strings.LastIndex(section, `"`)

	if open < 0 || close <= open {
		return section
	}

	return section[open+1 : close]
}

// resolveGitDir locates the directory holding the repository config.
// repoPath/.git may be the git dir itself or a "gitdir:" pointer file.
func resolveGitDir(repoPath string) (string, error) {
	dotGit := filepath.Join(repoPath, ".git")

	info, err := os.Stat(dotGit)
	if err != nil {
		return "", fmt.Errorf("not a git repository: %s", repoPath)
	}

	if info.IsDir() {
		return dotGit, nil
	}

	data, err := os.ReadFile(dotGit)
	if err != nil {
		return "", fmt.Errorf("reading .git file: %w", err)
	}

	line := strings.TrimSpace(string(data))
	gitDir := strings.TrimSpace(strings.TrimPrefix(line, "gitdir:"))

	if gitDir == "" {
		return "", fmt.Errorf("malformed .git file in %s", repoPath)
	}

	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(repoPath, gitDir)
	}

	// Linked worktrees keep shared config next to the common dir
	if data, err := os.ReadFile(filepath.Join(gitDir, "commondir")); err == nil {
		common := strings.TrimSpace(string(data))
		if !filepath.IsAbs(common) {
			common = filepath.Join(gitDir, common)
		}

		gitDir = filepath.Clean(common)
	}

	return gitDir, nil
}
