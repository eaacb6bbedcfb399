// Package runner invokes the target repository's test suite and lint pass
// through a sandbox.Executor and returns the raw outcomes for classification.
package runner

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"fixplane/internal/analyze"
	"fixplane/internal/sandbox"
)

// Result bundles one test run with its accompanying lint pass.
// Passed tracks the test suite only; lint findings never flip it.
type Result struct {
	Passed     bool
	ExitCode   int
	TestOutput string
	LintOutput string
	TimedOut   bool
}

// Runner selects and executes test, lint and install commands.
type Runner struct {
	executor       sandbox.Executor
	log            *slog.Logger
	testTimeout    time.Duration
	lintTimeout    time.Duration
	installTimeout time.Duration
}

// Options configures a Runner. Zero timeouts fall back to sensible defaults.
type Options struct {
	TestTimeout    time.Duration
	LintTimeout    time.Duration
	InstallTimeout time.Duration
}

// New creates a Runner over the given executor.
func New(executor sandbox.Executor, log *slog.Logger, opts Options) *Runner {
	if opts.TestTimeout <= 0 {
		opts.TestTimeout = 120 * time.Second
	}
	if opts.LintTimeout <= 0 {
		opts.LintTimeout = 60 * time.Second
	}
	if opts.InstallTimeout <= 0 {
		opts.InstallTimeout = 180 * time.Second
	}
	return &Runner{
		executor:       executor,
		log:            log,
		testTimeout:    opts.TestTimeout,
		lintTimeout:    opts.LintTimeout,
		installTimeout: opts.InstallTimeout,
	}
}

// InstallDependencies installs the project's dependencies, best effort.
// The repair loop proceeds regardless of the outcome.
func (r *Runner) InstallDependencies(ctx context.Context, dir string, analysis *analyze.Analysis) {
	var cmd []string
	switch {
	case analysis.HasRequirements:
		cmd = []string{"pip", "install", "-r", "requirements.txt", "--quiet"}
	case analysis.HasSetupPy, analysis.HasPyproject:
		cmd = []string{"pip", "install", "-e", ".", "--quiet"}
	default:
		return
	}

	res := r.executor.Execute(ctx, sandbox.Spec{
		Command: cmd,
		Dir:     dir,
		Timeout: r.installTimeout,
		Env:     map[string]string{"PYTHONDONTWRITEBYTECODE": "1"},
	})
	if res.ExitCode != 0 {
		r.log.Warn("dependency install failed", "exit_code", res.ExitCode)
	}
}

// Run executes the test suite and the lint pass and returns both raw outputs.
// A timed-out test run is reported as a failing run, never as an error.
func (r *Runner) Run(ctx context.Context, dir string, analysis *analyze.Analysis) Result {
	testRes := r.executor.Execute(ctx, sandbox.Spec{
		Command: testCommand(analysis),
		Dir:     dir,
		Timeout: r.testTimeout,
		Env:     map[string]string{"PYTHONDONTWRITEBYTECODE": "1"},
	})

	result := Result{
		Passed:     testRes.ExitCode == 0,
		ExitCode:   testRes.ExitCode,
		TestOutput: testRes.Combined(),
		TimedOut:   testRes.TimedOut,
	}

	result.LintOutput = r.lint(ctx, dir)

	r.log.Info("test run finished",
		"exit_code", result.ExitCode,
		"passed", result.Passed,
		"timed_out", result.TimedOut,
	)
	return result
}

// lint runs ruff and falls back to flake8 when ruff produced nothing.
func (r *Runner) lint(ctx context.Context, dir string) string {
	res := r.executor.Execute(ctx, sandbox.Spec{
		Command: []string{"python", "-m", "ruff", "check", "--output-format=text", "."},
		Dir:     dir,
		Timeout: r.lintTimeout,
	})
	if res.ExitCode != 0 && strings.TrimSpace(res.Stdout) != "" {
		return res.Combined()
	}
	if res.ExitCode == 0 {
		return ""
	}

	// ruff itself is missing; try flake8.
	res = r.executor.Execute(ctx, sandbox.Spec{
		Command: []string{"python", "-m", "flake8", "--max-line-length=120", "."},
		Dir:     dir,
		Timeout: r.lintTimeout,
	})
	if res.ExitCode != 0 && strings.TrimSpace(res.Stdout) != "" {
		return res.Combined()
	}
	return ""
}

func testCommand(analysis *analyze.Analysis) []string {
	for _, fw := range analysis.TestFrameworks {
		if fw == "unittest" && !hasFramework(analysis, "pytest") {
			return []string{"python", "-m", "unittest", "discover", "-v"}
		}
	}
	return []string{"python", "-m", "pytest", "--tb=short", "-q", "--no-header"}
}

func hasFramework(analysis *analyze.Analysis, name string) bool {
	for _, fw := range analysis.TestFrameworks {
		if fw == name {
			return true
		}
	}
	return false
}
