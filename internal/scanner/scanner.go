// Package scanner discovers git working copies under configured roots.
package scanner

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Scanner walks watch directories to a bounded depth looking for
// directories containing a .git entry. It holds no mutable state between
// scans; every Scan re-walks the filesystem from scratch.
type Scanner struct {
	// MaxDepth bounds how far below each root the walk descends.
	// Roots are depth 0.
	MaxDepth int

	logger *slog.Logger
}

// New creates a scanner with the given depth bound
func New(maxDepth int) *Scanner {
	return &Scanner{
		MaxDepth: maxDepth,
		logger:   slog.Default(),
	}
}

// Scan walks every root and returns the absolute paths of discovered
// repository roots. Roots share no state, so they are walked concurrently.
// Output order is unspecified; duplicates (overlapping roots) are removed.
func (s *Scanner) Scan(roots []string) []string {
	var (
		mu    sync.Mutex
		found []string
		wg    sync.WaitGroup
	)

	seen := make(map[string]bool)

	for _, root := range roots {
		wg.Add(1)

		go func(root string) {
			defer wg.Done()

			repos := s.scanRoot(root)

			mu.Lock()
			defer mu.Unlock()

			for _, repo := range repos {
				if !seen[repo] {
					seen[repo] = true
					found = append(found, repo)
				}
			}
		}(root)
	}

	wg.Wait()

	return found
}

// scanRoot walks one root. Unreadable directories are skipped silently;
// a discovered repository is never descended into.
func (s *Scanner) scanRoot(root string) []string {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil
	}

	if info, err := os.Stat(absRoot); err != nil || !info.IsDir() {
		return nil
	}

	rootDepth := strings.Count(absRoot, string(os.PathSeparator))

	var repos []string

	_ = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Permission denied and friends: skip, not an error for the scan
			s.logger.Debug("skipping unreadable path", slog.String("path", path))

			return nil
		}

		if !d.IsDir() {
			return nil
		}

		// Hidden directories are never entered, except the root itself
		if path != absRoot && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}

		// A .git entry, directory or file (worktrees), marks a repository
		// root. Emit it and stop descending.
		if isRepoRoot(path) {
			repos = append(repos, path)

			return fs.SkipDir
		}

		if strings.Count(path, string(os.PathSeparator))-rootDepth >= s.MaxDepth {
			return fs.SkipDir
		}

		return nil
	})

	return repos
}

func isRepoRoot(dir string) bool {
	_, err := os.Lstat(filepath.Join(dir, ".git"))

	return err == nil
}
