package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSortRecords(t *testing.T) {
	records := []RepoRecord{
		{RemoteOwner: "zeta", Name: "tool"},
		{RemoteOwner: "Acme", Name: "Widget"},
		{RemoteOwner: "acme", Name: "api"},
		{RemoteOwner: "", Name: "local-only"},
		{RemoteOwner: "acme", Name: "Zebra"},
	}

	SortRecords(records)

	got := make([][2]string, len(records))
	for i, record := range records {
		got[i] = [2]string{record.RemoteOwner, record.Name}
	}

	want := [][2]string{
		{"", "local-only"},
		{"acme", "api"},
		{"Acme", "Widget"},
		{"acme", "Zebra"},
		{"zeta", "tool"},
	}

	require.Equal(t, want, got)
}

func TestSortRecordsStableForSameKey(t *testing.T) {
	records := []RepoRecord{
		{RemoteOwner: "acme", Name: "api", Path: "/a/api"},
		{RemoteOwner: "ACME", Name: "API", Path: "/b/api"},
	}

	SortRecords(records)

	require.Len(t, records, 2)
	require.Equal(t, "acme", records[0].RemoteOwner)
}

func TestRecordCloneIsDeep(t *testing.T) {
	original := RepoRecord{
		Path: "/code/repo",
		FetchOutcome: &FetchOutcome{
			Succeeded:   true,
			CompletedAt: time.Now(),
		},
	}

	clone := original.Clone()
	clone.FetchOutcome.Succeeded = false
	clone.FetchOutcome.Reason = "boom"

	require.True(t, original.FetchOutcome.Succeeded)
	require.Empty(t, original.FetchOutcome.Reason)
}

func TestRecordCloneNilOutcome(t *testing.T) {
	original := RepoRecord{Path: "/code/repo"}

	clone := original.Clone()

	require.Nil(t, clone.FetchOutcome)
}
