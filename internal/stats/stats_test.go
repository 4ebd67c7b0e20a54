package stats

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSummary(t *testing.T) {
	s := &RepoStats{
		TotalCommits: 120,
		TotalAuthors: 4,
		LinesAdded:   900,
		LinesDeleted: 150,
	}

	require.Equal(t, "120 commits by 4 authors | +900 -150 lines", s.Summary())
}

func TestSummaryZeroValue(t *testing.T) {
	s := &RepoStats{}
	require.Equal(t, "0 commits by 0 authors | +0 -0 lines", s.Summary())
}

func TestGatherNotARepository(t *testing.T) {
	_, err := Gather(t.TempDir(), Options{})
	require.Error(t, err)
}
