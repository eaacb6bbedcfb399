package classify

import (
	"strings"
	"testing"

	"fixplane/internal/logger"
	"fixplane/internal/repair"
	"fixplane/internal/runner"
)

func TestCategorize_Priority(t *testing.T) {
	tests := []struct {
		name string
		text string
		want repair.BugCategory
	}{
		{"indentation", "IndentationError: unexpected indent", repair.BugIndentation},
		{"tab error", "TabError: inconsistent use of tabs", repair.BugIndentation},
		{"syntax", "SyntaxError: invalid syntax", repair.BugSyntax},
		{"import", "ModuleNotFoundError: No module named 'requests'", repair.BugImport},
		{"cannot import", "cannot import name 'foo' from 'bar'", repair.BugImport},
		{"type", "TypeError: unsupported operand type(s)", repair.BugTypeMismatch},
		{"positional args", "f() takes 2 positional arguments but 3 were given", repair.BugTypeMismatch},
		{"assertion", "AssertionError: expected 2 got 3", repair.BugLogic},
		{"name", "NameError: name 'x' is not defined", repair.BugLogic},
		{"key", "KeyError: 'missing'", repair.BugLogic},
		{"lint code", "E501 line too long", repair.BugLintViolation},
		{"lint tool", "ruff found 3 errors", repair.BugLintViolation},
		{"unused import", "unused import of sys", repair.BugLintViolation},
		{"unknown", "something completely different", repair.BugUnknown},
		{"empty", "", repair.BugUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Categorize(tt.text); got != tt.want {
				t.Errorf("Categorize(%q) = %s, want %s", tt.text, got, tt.want)
			}
		})
	}
}

// Indentation markers must win even when later-priority markers are present
// in the same diagnostic.
func TestCategorize_IndentationBeatsLaterRules(t *testing.T) {
	text := "IndentationError: unexpected indent ... SyntaxError: invalid syntax ... E999"
	if got := Categorize(text); got != repair.BugIndentation {
		t.Errorf("expected INDENTATION, got %s", got)
	}

	text = "SyntaxError near ImportError mention"
	if got := Categorize(text); got != repair.BugSyntax {
		t.Errorf("expected SYNTAX, got %s", got)
	}
}

func TestCategorize_CaseSensitive(t *testing.T) {
	if got := Categorize("syntaxerror: lowered"); got != repair.BugUnknown {
		t.Errorf("keywords are case-sensitive, got %s", got)
	}
}

func TestClassify_PytestShortSummary(t *testing.T) {
	e := NewEngine(logger.New())
	output := strings.Join([]string{
		"======= short test summary info =======",
		"FAILED test_calc.py::test_add - AssertionError: assert 3 == 4",
		"FAILED test_calc.py::test_div - ZeroDivisionError: division by zero",
		"ERROR test_io.py - ModuleNotFoundError: No module named 'toml'",
		"2 failed, 1 error in 0.12s",
	}, "\n")

	failures := e.Classify(runner.Result{Passed: false, ExitCode: 1, TestOutput: output}, "")
	if len(failures) != 3 {
		t.Fatalf("expected 3 failures, got %d: %+v", len(failures), failures)
	}

	if failures[0].File != "test_calc.py" {
		t.Errorf("unexpected file: %s", failures[0].File)
	}
	if failures[0].Category != repair.BugLogic {
		t.Errorf("expected LOGIC, got %s", failures[0].Category)
	}
	if failures[1].Category != repair.BugUnknown {
		t.Errorf("ZeroDivisionError matches no rule, expected UNKNOWN, got %s", failures[1].Category)
	}
	if failures[2].Category != repair.BugImport {
		t.Errorf("expected IMPORT, got %s", failures[2].Category)
	}
}

func TestClassify_SyntheticFailureWhenNothingParses(t *testing.T) {
	e := NewEngine(logger.New())
	output := "Traceback (most recent call last):\n" +
		`  File "app/broken.py", line 7` + "\n" +
		"    def f(:\n" +
		"SyntaxError: invalid syntax"

	failures := e.Classify(runner.Result{Passed: false, ExitCode: 2, TestOutput: output}, "")
	if len(failures) != 1 {
		t.Fatalf("expected exactly one synthetic failure, got %d", len(failures))
	}

	f := failures[0]
	if f.File != "app/broken.py" {
		t.Errorf("expected file from traceback, got %s", f.File)
	}
	if f.Line == nil || *f.Line != 7 {
		t.Errorf("expected line 7, got %v", f.Line)
	}
	if f.Category != repair.BugSyntax {
		t.Errorf("expected SYNTAX, got %s", f.Category)
	}
}

func TestClassify_SyntheticFallsBackToUnknownSentinel(t *testing.T) {
	e := NewEngine(logger.New())

	failures := e.Classify(runner.Result{Passed: false, ExitCode: 1, TestOutput: "total gibberish"}, "")
	if len(failures) != 1 {
		t.Fatalf("expected one failure, got %d", len(failures))
	}
	if failures[0].File != "unknown" {
		t.Errorf("expected sentinel file, got %s", failures[0].File)
	}
	if failures[0].Category != repair.BugUnknown {
		t.Errorf("expected UNKNOWN, got %s", failures[0].Category)
	}
}

func TestClassify_PassingSuiteStillSurfacesLintFindings(t *testing.T) {
	e := NewEngine(logger.New())
	lint := "app.py:3:1: F401 'os' imported but unused\n" +
		"app.py:10:80: E501 line too long (92 > 79 characters)\n" +
		"not a lint line"

	failures := e.Classify(runner.Result{Passed: true, ExitCode: 0, LintOutput: lint}, "")
	if len(failures) != 2 {
		t.Fatalf("expected 2 lint failures, got %d", len(failures))
	}

	f := failures[0]
	if f.Category != repair.BugLintViolation {
		t.Errorf("expected LINTING, got %s", f.Category)
	}
	if f.File != "app.py" || f.Line == nil || *f.Line != 3 {
		t.Errorf("unexpected location: %s:%v", f.File, f.Line)
	}
	if !strings.HasPrefix(f.ErrorMessage, "F401: ") {
		t.Errorf("expected code-prefixed message, got %q", f.ErrorMessage)
	}
}

func TestClassify_PassingSuiteNoOutput(t *testing.T) {
	e := NewEngine(logger.New())

	failures := e.Classify(runner.Result{Passed: true, ExitCode: 0}, "")
	if len(failures) != 0 {
		t.Errorf("expected no failures for a clean run, got %d", len(failures))
	}
}

func TestClassify_MessageBounded(t *testing.T) {
	e := NewEngine(logger.New())
	long := strings.Repeat("x", 2000)

	failures := e.Classify(runner.Result{Passed: false, ExitCode: 1, TestOutput: long}, "")
	if len(failures) != 1 {
		t.Fatalf("expected one failure, got %d", len(failures))
	}
	if len(failures[0].ErrorMessage) > 800 {
		t.Errorf("expected bounded message, got %d chars", len(failures[0].ErrorMessage))
	}
}

func TestClassify_RelativizesAbsolutePaths(t *testing.T) {
	e := NewEngine(logger.New())
	output := "Traceback:\n" + `  File "/work/repo/pkg/mod.py", line 2` + "\n" + "SyntaxError: invalid syntax"

	failures := e.Classify(runner.Result{Passed: false, ExitCode: 2, TestOutput: output}, "/work/repo")
	if len(failures) != 1 {
		t.Fatalf("expected one failure, got %d", len(failures))
	}
	if failures[0].File != "pkg/mod.py" {
		t.Errorf("expected repo-relative path, got %s", failures[0].File)
	}
}
