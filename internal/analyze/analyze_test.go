package analyze

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestAnalyze_PythonRepo(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "requirements.txt", "flask==3.0\n# comment\npytest\n")
	writeFile(t, root, "app.py", "import flask\n")
	writeFile(t, root, "test_app.py", "import pytest\n\ndef test_ok():\n    assert True\n")
	writeFile(t, root, "__pycache__/junk.py", "ignored")

	a := New()
	res, err := a.Analyze(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Language != "python" {
		t.Errorf("expected language python, got %s", res.Language)
	}
	if res.Framework != "flask" {
		t.Errorf("expected framework flask, got %s", res.Framework)
	}
	if !res.HasRequirements {
		t.Error("expected HasRequirements true")
	}
	if len(res.SourceFiles) != 2 {
		t.Errorf("expected 2 source files (pycache skipped), got %v", res.SourceFiles)
	}
	if len(res.TestFiles) != 1 || res.TestFiles[0] != "test_app.py" {
		t.Errorf("unexpected test files: %v", res.TestFiles)
	}
	if !contains(res.TestFrameworks, "pytest") {
		t.Errorf("expected pytest detected, got %v", res.TestFrameworks)
	}
	if len(res.Dependencies) != 2 {
		t.Errorf("expected 2 dependencies, got %v", res.Dependencies)
	}
}

func TestAnalyze_NodeRepo(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "package.json", `{"dependencies": {"express": "^4.0.0"}}`)
	writeFile(t, root, "index.js", "console.log('hi')\n")

	a := New()
	res, err := a.Analyze(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Language != "node" {
		t.Errorf("expected language node, got %s", res.Language)
	}
	if !contains(res.Dependencies, "express") {
		t.Errorf("expected express dependency, got %v", res.Dependencies)
	}
}

func TestAnalyze_FallbackByFileCensus(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "lib/tool.py", "x = 1\n")
	writeFile(t, root, "lib/other.py", "y = 2\n")

	a := New()
	res, err := a.Analyze(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Language != "python" {
		t.Errorf("expected python via file census, got %s", res.Language)
	}
}

func TestAnalyze_EmptyRepo(t *testing.T) {
	a := New()
	res, err := a.Analyze(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Language != "unknown" {
		t.Errorf("expected unknown language, got %s", res.Language)
	}
	if len(res.TestFrameworks) != 0 {
		t.Errorf("expected no test frameworks, got %v", res.TestFrameworks)
	}
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
