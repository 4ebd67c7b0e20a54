// Package git runs git subcommands against working directories and reports
// their outcome as values rather than exceptions, so callers can aggregate
// partial failures deterministically.
package git

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"
)

// Result is the outcome of one git invocation. Exactly one of three shapes:
// a clean run (Err nil, ExitCode 0), a nonzero exit (Err nil, ExitCode > 0),
// or a hard failure to run at all (Err non-nil: launch failure or timeout).
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// Ok reports whether the command ran and exited zero.
func (r Result) Ok() bool {
	return r.Err == nil && r.ExitCode == 0
}

// TimedOut reports whether the invocation was killed by its deadline.
func (r Result) TimedOut() bool {
	return errors.Is(r.Err, context.DeadlineExceeded)
}

// Out returns trimmed stdout.
func (r Result) Out() string {
	return strings.TrimSpace(r.Stdout)
}

// FailureReason describes why the command failed, preferring stderr detail.
// Empty when Ok.
func (r Result) FailureReason() string {
	switch {
	case r.Ok():
		return ""
	case r.TimedOut():
		return "command timed out"
	case errors.Is(r.Err, context.Canceled):
		return "command cancelled"
	case r.Err != nil:
		return r.Err.Error()
	}

	if msg := strings.TrimSpace(r.Stderr); msg != "" {
		return msg
	}

	if msg := r.Out(); msg != "" {
		return msg
	}

	return "git exited with status " + strconv.Itoa(r.ExitCode)
}

// Runner executes one git subcommand in a working directory. The context
// carries the per-call deadline; callers own timeout policy.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) Result
}

// Client is the exec-based Runner used outside tests
type Client struct {
	// GitPath is the git executable; resolved once at construction
	GitPath string
}

// NewClient creates a git client. A missing git binary is not an error
// here; every Run reports it as a launch failure instead.
func NewClient() *Client {
	gitPath, _ := exec.LookPath("git")

	return &Client{GitPath: gitPath}
}

// Run executes git with the given arguments in dir and captures its output.
// It never panics and never blocks past the context deadline.
func (c *Client) Run(ctx context.Context, dir string, args ...string) Result {
	if c.GitPath == "" {
		return Result{ExitCode: -1, Err: errors.New("git executable not found in PATH")}
	}

	cmd := exec.CommandContext(ctx, c.GitPath, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err == nil {
		return res
	}

	// A context kill surfaces as a generic exec error; report the context
	// failure itself so timeouts and cancellations stay distinguishable.
	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = -1
		res.Err = ctxErr

		return res
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()

		return res
	}

	res.ExitCode = -1
	res.Err = err

	return res
}
