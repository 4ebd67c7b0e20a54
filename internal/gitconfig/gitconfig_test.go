package gitconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleConfig = `[core]
	repositoryformatversion = 0
	filemode = true
	bare = false
[remote "origin"]
	url = git@github.com:acme/widget.git
	fetch = +refs/heads/*:refs/remotes/origin/*
[remote "upstream"]
	url = https://github.com/acme-upstream/widget.git
	fetch = +refs/heads/*:refs/remotes/upstream/*
[branch "main"]
	remote = origin
	merge = refs/heads/main
[branch "feature/x"]
	remote = upstream
	merge = refs/heads/feature/x
`

func writeRepo(t *testing.T, config string) string {
	t.Helper()

	repo := t.TempDir()
	gitDir := filepath.Join(repo, ".git")

	require.NoError(t, os.Mkdir(gitDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "config"), []byte(config), 0o644))

	return repo
}

func TestLoad(t *testing.T) {
	repo := writeRepo(t, sampleConfig)

	cfg, err := Load(repo)
	require.NoError(t, err)

	require.Equal(t, "git@github.com:acme/widget.git", cfg.RemoteURL("origin"))
	require.Equal(t, "https://github.com/acme-upstream/widget.git", cfg.RemoteURL("upstream"))
	require.Empty(t, cfg.RemoteURL("nonexistent"))
}

func TestUpstreamRef(t *testing.T) {
	repo := writeRepo(t, sampleConfig)

	cfg, err := Load(repo)
	require.NoError(t, err)

	require.Equal(t, "origin/main", cfg.UpstreamRef("main"))
	require.Equal(t, "upstream/feature/x", cfg.UpstreamRef("feature/x"))
	require.Empty(t, cfg.UpstreamRef("no-such-branch"))
}

func TestUpstreamRefIncompleteSection(t *testing.T) {
	repo := writeRepo(t, `[branch "main"]
	remote = origin
`)

	cfg, err := Load(repo)
	require.NoError(t, err)

	require.Empty(t, cfg.UpstreamRef("main"))
}

func TestLoadNotARepository(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
}

func TestLoadWorktreePointerFile(t *testing.T) {
	// Layout of a linked worktree: .git is a file pointing at a private
	// git dir whose commondir file points back at the shared one.
	main := writeRepo(t, sampleConfig)

	worktrees := filepath.Join(main, ".git", "worktrees", "wt1")
	require.NoError(t, os.MkdirAll(worktrees, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(worktrees, "commondir"), []byte("../..\n"), 0o644))

	linked := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(linked, ".git"),
		[]byte("gitdir: "+worktrees+"\n"),
		0o644,
	))

	cfg, err := Load(linked)
	require.NoError(t, err)
	require.Equal(t, "git@github.com:acme/widget.git", cfg.RemoteURL("origin"))
}

func TestLoadMalformedPointerFile(t *testing.T) {
	repo := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(repo, ".git"), []byte("gitdir:\n"), 0o644))

	_, err := Load(repo)
	require.Error(t, err)
}

func TestSectionSubName(t *testing.T) {
	require.Equal(t, "origin", sectionSubName(`remote "origin"`))
	require.Equal(t, "feature/x", sectionSubName(`branch "feature/x"`))
	require.Equal(t, "core", sectionSubName("core"))
}
