// Package analyze inspects a cloned repository to detect its language, test
// frameworks and dependency files. The result drives the choice of test and
// lint commands; the repair loop itself never re-analyzes.
package analyze

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Analysis describes what was detected in a repository.
type Analysis struct {
	Language        string   `json:"language"`
	Framework       string   `json:"framework"`
	TestFrameworks  []string `json:"test_frameworks"`
	SourceFiles     []string `json:"source_files"`
	TestFiles       []string `json:"test_files"`
	HasRequirements bool     `json:"has_requirements"`
	HasSetupPy      bool     `json:"has_setup_py"`
	HasPyproject    bool     `json:"has_pyproject"`
	Dependencies    []string `json:"dependencies"`
}

var skipDirs = map[string]bool{
	".git":         true,
	"__pycache__":  true,
	"node_modules": true,
	"venv":         true,
	"env":          true,
}

// Analyzer detects repository structure. It is stateless.
type Analyzer struct{}

// New creates an Analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Analyze walks the repository once and returns the detected structure.
func (a *Analyzer) Analyze(root string) (*Analysis, error) {
	res := &Analysis{
		Language:  "unknown",
		Framework: "unknown",
	}

	res.HasRequirements = fileExists(filepath.Join(root, "requirements.txt"))
	res.HasSetupPy = fileExists(filepath.Join(root, "setup.py"))
	res.HasPyproject = fileExists(filepath.Join(root, "pyproject.toml"))

	var pyCount, jsCount int
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			name := d.Name()
			if skipDirs[name] || (strings.HasPrefix(name, ".") && path != root) {
				return filepath.SkipDir
			}
			return nil
		}
		switch {
		case strings.HasSuffix(path, ".py"):
			pyCount++
			rel, _ := filepath.Rel(root, path)
			res.SourceFiles = append(res.SourceFiles, rel)
			if strings.Contains(strings.ToLower(d.Name()), "test") {
				res.TestFiles = append(res.TestFiles, rel)
			}
		case strings.HasSuffix(path, ".js"), strings.HasSuffix(path, ".ts"),
			strings.HasSuffix(path, ".jsx"), strings.HasSuffix(path, ".tsx"):
			jsCount++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.HasRequirements || res.HasSetupPy || res.HasPyproject {
		res.Language = "python"
	} else if fileExists(filepath.Join(root, "package.json")) {
		res.Language = "node"
	} else if pyCount >= jsCount && pyCount > 0 {
		res.Language = "python"
	} else if jsCount > 0 {
		res.Language = "node"
	}

	a.detectFrameworks(root, res)
	a.readDependencies(root, res)

	return res, nil
}

func (a *Analyzer) detectFrameworks(root string, res *Analysis) {
	seen := map[string]bool{}
	for _, rel := range res.SourceFiles {
		content, err := os.ReadFile(filepath.Join(root, rel))
		if err != nil {
			continue
		}
		text := string(content)
		if strings.Contains(text, "import pytest") || strings.Contains(text, "from pytest") {
			seen["pytest"] = true
		}
		if strings.Contains(text, "import unittest") || strings.Contains(text, "from unittest") {
			seen["unittest"] = true
		}
		switch {
		case strings.Contains(text, "import django"):
			res.Framework = "django"
		case strings.Contains(text, "import flask"):
			res.Framework = "flask"
		case strings.Contains(text, "import fastapi"):
			res.Framework = "fastapi"
		}
	}

	if fileExists(filepath.Join(root, "pytest.ini")) || fileExists(filepath.Join(root, "setup.cfg")) || res.HasPyproject {
		seen["pytest"] = true
	}
	if len(seen) == 0 && len(res.TestFiles) > 0 {
		seen["pytest"] = true
	}

	for fw := range seen {
		res.TestFrameworks = append(res.TestFrameworks, fw)
	}
}

func (a *Analyzer) readDependencies(root string, res *Analysis) {
	switch res.Language {
	case "python":
		content, err := os.ReadFile(filepath.Join(root, "requirements.txt"))
		if err != nil {
			return
		}
		for _, line := range strings.Split(string(content), "\n") {
			line = strings.TrimSpace(line)
			if line != "" && !strings.HasPrefix(line, "#") {
				res.Dependencies = append(res.Dependencies, line)
			}
		}
	case "node":
		content, err := os.ReadFile(filepath.Join(root, "package.json"))
		if err != nil {
			return
		}
		var pkg struct {
			Dependencies map[string]string `json:"dependencies"`
		}
		if json.Unmarshal(content, &pkg) == nil {
			for dep := range pkg.Dependencies {
				res.Dependencies = append(res.Dependencies, dep)
			}
		}
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
