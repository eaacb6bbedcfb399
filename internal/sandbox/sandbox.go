// Package sandbox provides the Executor interface for isolated command runs.
package sandbox

import (
	"context"
	"time"
)

// Executor runs a single command in an isolated environment.
// Implementations include raw process execution and Docker containers.
type Executor interface {
	// Execute runs the command to completion and returns its result.
	// Ordinary command failure (non-zero exit) is NOT an error; only the
	// result reflects it. Infrastructure problems (inability to start,
	// timeouts) are converted into a failed Result as well, so Execute
	// never leaves the caller without a usable outcome.
	Execute(ctx context.Context, spec Spec) Result
}

// Spec contains the parameters for one sandboxed command.
type Spec struct {
	Command []string
	Dir     string
	Env     map[string]string
	Timeout time.Duration
}

// Result is the captured outcome of a sandboxed command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
}

// Combined returns stdout and stderr joined, the form the classifier scans.
func (r Result) Combined() string {
	if r.Stdout == "" {
		return r.Stderr
	}
	if r.Stderr == "" {
		return r.Stdout
	}
	return r.Stdout + "\n" + r.Stderr
}
