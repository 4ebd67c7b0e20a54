package git

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResultOk(t *testing.T) {
	tests := []struct {
		name string
		res  Result
		want bool
	}{
		{name: "clean run", res: Result{}, want: true},
		{name: "nonzero exit", res: Result{ExitCode: 1}, want: false},
		{name: "launch failure", res: Result{ExitCode: -1, Err: errors.New("no git")}, want: false},
		{name: "timeout", res: Result{ExitCode: -1, Err: context.DeadlineExceeded}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.res.Ok())
		})
	}
}

func TestResultFailureReason(t *testing.T) {
	tests := []struct {
		name string
		res  Result
		want string
	}{
		{
			name: "ok has no reason",
			res:  Result{},
			want: "",
		},
		{
			name: "timeout",
			res:  Result{ExitCode: -1, Err: context.DeadlineExceeded},
			want: "command timed out",
		},
		{
			name: "cancelled",
			res:  Result{ExitCode: -1, Err: context.Canceled},
			want: "command cancelled",
		},
		{
			name: "launch failure",
			res:  Result{ExitCode: -1, Err: errors.New("git executable not found in PATH")},
			want: "git executable not found in PATH",
		},
		{
			name: "stderr preferred",
			res:  Result{ExitCode: 128, Stderr: "fatal: not a git repository\n"},
			want: "fatal: not a git repository",
		},
		{
			name: "stdout fallback",
			res:  Result{ExitCode: 1, Stdout: "something odd\n"},
			want: "something odd",
		},
		{
			name: "exit code fallback",
			res:  Result{ExitCode: 3},
			want: "git exited with status 3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.res.FailureReason())
		})
	}
}

func TestResultOut(t *testing.T) {
	res := Result{Stdout: "  main\n"}
	require.Equal(t, "main", res.Out())
}

func TestClientMissingGit(t *testing.T) {
	client := &Client{GitPath: ""}

	res := client.Run(context.Background(), t.TempDir(), "status")
	require.False(t, res.Ok())
	require.Error(t, res.Err)
	require.False(t, res.TimedOut())
}

func TestClientRunAgainstRealGit(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed, skipping")
	}

	client := NewClient()
	require.NotEmpty(t, client.GitPath)

	dir := t.TempDir()

	res := client.Run(context.Background(), dir, "init")
	require.NoError(t, res.Err)
	require.Equal(t, 0, res.ExitCode)

	res = client.Run(context.Background(), dir, "status", "--porcelain")
	require.True(t, res.Ok())
	require.Empty(t, res.Out())

	// Nonzero exit is not a hard failure
	res = client.Run(context.Background(), dir, "rev-parse", "definitely-not-a-ref")
	require.NoError(t, res.Err)
	require.NotEqual(t, 0, res.ExitCode)
	require.NotEmpty(t, res.FailureReason())
}

func TestClientRunTimeout(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed, skipping")
	}

	client := NewClient()

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()

	res := client.Run(ctx, t.TempDir(), "status")
	require.True(t, res.TimedOut())
	require.Equal(t, "command timed out", res.FailureReason())
}

func TestClientRunCancelled(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed, skipping")
	}

	client := NewClient()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := client.Run(ctx, t.TempDir(), "status")
	require.ErrorIs(t, res.Err, context.Canceled)
	require.False(t, res.TimedOut())
	require.Equal(t, "command cancelled", res.FailureReason())
}
