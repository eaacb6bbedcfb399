// Package classify turns raw test and lint output into structured, tagged
// failure records. Classification is a total function: every diagnostic maps
// to exactly one bug category, defaulting to UNKNOWN.
package classify

import (
	"log/slog"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"fixplane/internal/repair"
	"fixplane/internal/runner"
)

const (
	maxMessageLen   = 500
	maxSyntheticLen = 800
)

// rule pairs a category with its diagnostic predicate. Rules are checked in
// slice order and the first match wins, which makes the priority explicit
// and testable in isolation.
type rule struct {
	category repair.BugCategory
	re       *regexp.Regexp
}

var rules = []rule{
	{repair.BugIndentation, regexp.MustCompile(`IndentationError|TabError|unexpected indent|unindent`)},
	{repair.BugSyntax, regexp.MustCompile(`SyntaxError|invalid syntax|EOF while parsing`)},
	{repair.BugImport, regexp.MustCompile(`ImportError|ModuleNotFoundError|cannot import name`)},
	{repair.BugTypeMismatch, regexp.MustCompile(`TypeError|takes \d+ positional argument`)},
	{repair.BugLogic, regexp.MustCompile(`AssertionError|NameError|AttributeError|ValueError|KeyError|IndexError`)},
	{repair.BugLintViolation, regexp.MustCompile(`flake8|ruff|\b[A-Z]\d{3}\b|undefined name|unused import`)},
}

var (
	failedLineRe = regexp.MustCompile(`^(?:FAILED|ERROR) ([^\s:]+?\.py)(?:::(\S+))?(?: - (.+))?$`)
	fileLineRe   = regexp.MustCompile(`File "(.+?)", line (\d+)`)
	lintLineRe   = regexp.MustCompile(`^(.+?):(\d+):(\d+): ([A-Z]\d{3}) (.+)$`)
	lineNoRe     = regexp.MustCompile(`line (\d+)`)
)

// Categorize maps a diagnostic string to its bug category. Matching is
// case-sensitive on the diagnostic keywords.
func Categorize(text string) repair.BugCategory {
	for _, r := range rules {
		if r.re.MatchString(text) {
			return r.category
		}
	}
	return repair.BugUnknown
}

// Engine is the failure classification engine.
type Engine struct {
	log *slog.Logger
}

// NewEngine creates an Engine.
func NewEngine(log *slog.Logger) *Engine {
	return &Engine{log: log}
}

// Classify parses the run result into failure records. When the suite failed
// but nothing structured could be parsed, exactly one synthetic failure is
// produced so the loop always has something actionable. Lint findings are
// appended regardless of the suite outcome.
func (e *Engine) Classify(res runner.Result, repoDir string) []repair.TestFailure {
	var failures []repair.TestFailure

	if !res.Passed {
		failures = e.parseTestFailures(res.TestOutput, repoDir)
		if len(failures) == 0 {
			failures = append(failures, e.synthesize(res.TestOutput, repoDir))
		}
	}

	failures = append(failures, e.parseLintFailures(res.LintOutput, repoDir)...)

	e.log.Info("classified failures", "count", len(failures))
	return failures
}

// parseTestFailures extracts pytest-style short summary entries:
// "FAILED test_app.py::test_name - AssertionError: boom".
func (e *Engine) parseTestFailures(output, repoDir string) []repair.TestFailure {
	var failures []repair.TestFailure

	for _, line := range strings.Split(output, "\n") {
		m := failedLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		msg := m[3]
		if msg == "" {
			msg = strings.TrimSpace(line)
		}

		f := repair.TestFailure{
			File:         relativize(m[1], repoDir),
			ErrorMessage: truncate(msg, maxMessageLen),
			Category:     Categorize(msg),
			RawOutput:    strings.TrimSpace(line),
		}
		if lm := lineNoRe.FindStringSubmatch(msg); lm != nil {
			if n, err := strconv.Atoi(lm[1]); err == nil {
				f.Line = &n
			}
		}
		failures = append(failures, f)
	}

	return failures
}

// synthesize builds the single fallback failure for a failing run that
// yielded no parseable records (e.g. a collection error).
func (e *Engine) synthesize(output, repoDir string) repair.TestFailure {
	raw := strings.TrimSpace(output)
	if raw == "" {
		raw = "unknown test error"
	}

	f := repair.TestFailure{
		File:         "unknown",
		ErrorMessage: truncate(raw, maxSyntheticLen),
		Category:     Categorize(raw),
		RawOutput:    truncate(raw, maxSyntheticLen),
	}

	if m := fileLineRe.FindStringSubmatch(raw); m != nil {
		f.File = relativize(m[1], repoDir)
		if n, err := strconv.Atoi(m[2]); err == nil {
			f.Line = &n
		}
	}

	return f
}

// parseLintFailures extracts "file:line:col: CODE message" findings. These
// never affect the suite's pass/fail state; they only feed the fix pipeline.
func (e *Engine) parseLintFailures(output, repoDir string) []repair.TestFailure {
	var failures []repair.TestFailure

	for _, line := range strings.Split(output, "\n") {
		m := lintLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		failures = append(failures, repair.TestFailure{
			File:         relativize(m[1], repoDir),
			Line:         &n,
			ErrorMessage: truncate(m[4]+": "+m[5], maxMessageLen),
			Category:     repair.BugLintViolation,
			RawOutput:    strings.TrimSpace(line),
		})
	}

	return failures
}

func relativize(path, repoDir string) string {
	if repoDir == "" || !filepath.IsAbs(path) {
		return strings.TrimPrefix(path, "./")
	}
	if rel, err := filepath.Rel(repoDir, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
