package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// ExecSandbox implements Executor using raw OS processes. The "sandbox" is
// only working-directory and timeout isolation; it is the development and
// in-process execution mode.
type ExecSandbox struct{}

// NewExecSandbox creates a new process-based executor.
func NewExecSandbox() *ExecSandbox {
	return &ExecSandbox{}
}

// Execute implements Executor.Execute using os/exec.
func (e *ExecSandbox) Execute(ctx context.Context, spec Spec) Result {
	if len(spec.Command) == 0 {
		return Result{ExitCode: 1, Stderr: "empty command"}
	}

	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, spec.Command[0], spec.Command[1:]...)
	cmd.Dir = spec.Dir
	cmd.Env = os.Environ()
	for k, v := range spec.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if runCtx.Err() == context.DeadlineExceeded {
		res.ExitCode = 1
		res.TimedOut = true
		res.Stderr = fmt.Sprintf("command timed out after %s", timeout)
		return res
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res
		}
		// Could not start at all (binary missing, bad dir).
		res.ExitCode = 1
		if res.Stderr == "" {
			res.Stderr = err.Error()
		}
		return res
	}

	res.ExitCode = 0
	return res
}
