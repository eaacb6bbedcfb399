package fixer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"fixplane/internal/repair"
)

var missingModuleRe = regexp.MustCompile(`No module named '([^']+)'`)
var msgLineRe = regexp.MustCompile(`line (\d+)`)

// HeuristicStrategy applies deterministic category-specific transforms. It
// is the fallback when no generative service is configured or it produced
// nothing.
type HeuristicStrategy struct{}

// NewHeuristicStrategy creates the deterministic fallback strategy.
func NewHeuristicStrategy() *HeuristicStrategy {
	return &HeuristicStrategy{}
}

// Name implements Strategy.
func (s *HeuristicStrategy) Name() string { return "heuristic" }

// ProduceCandidate implements Strategy. Categories without a deterministic
// transform yield no candidate.
func (s *HeuristicStrategy) ProduceCandidate(_ context.Context, req CandidateRequest) (string, error) {
	switch req.Category {
	case repair.BugImport:
		return fixImport(req.Content, req.Message), nil
	case repair.BugIndentation:
		return fixIndentation(req.Content), nil
	case repair.BugSyntax:
		return commentOutLine(req.Content, diagnosticLine(req), "# SYNTAX FIX:", "original line had syntax error"), nil
	case repair.BugLintViolation:
		if strings.Contains(strings.ToLower(req.Message), "unused") {
			return commentOutLine(req.Content, diagnosticLine(req), "# REMOVED:", "unused symbol"), nil
		}
		return "", nil
	default:
		return "", nil
	}
}

// fixImport comments out every line importing the unresolved module.
func fixImport(content, message string) string {
	m := missingModuleRe.FindStringSubmatch(message)
	if m == nil {
		return ""
	}
	module := strings.SplitN(m[1], ".", 2)[0]

	lines := strings.Split(content, "\n")
	changed := false
	for i, line := range lines {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "#") {
			continue
		}
		if strings.Contains(stripped, "import "+module) || strings.Contains(stripped, "from "+module) {
			lines[i] = fmt.Sprintf("# FIXED: %s  # module not available", strings.TrimRight(line, " \t"))
			changed = true
		}
	}
	if !changed {
		return ""
	}
	return strings.Join(lines, "\n")
}

// fixIndentation converts tabs to four-space runs. Applying it twice is the
// same as applying it once.
func fixIndentation(content string) string {
	return strings.ReplaceAll(content, "\t", "    ")
}

// commentOutLine disables the single 1-based line, keeping the original text
// for the audit trail.
func commentOutLine(content string, lineno int, prefix, reason string) string {
	if lineno <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	idx := lineno - 1
	if idx >= len(lines) {
		return ""
	}
	lines[idx] = fmt.Sprintf("%s %s  # %s", prefix, strings.TrimRight(lines[idx], " \t"), reason)
	return strings.Join(lines, "\n")
}

// diagnosticLine prefers the failure's structured line number, falling back
// to a "line N" reference inside the message.
func diagnosticLine(req CandidateRequest) int {
	if req.Line != nil {
		return *req.Line
	}
	if m := msgLineRe.FindStringSubmatch(req.Message); m != nil {
		var n int
		fmt.Sscanf(m[1], "%d", &n)
		return n
	}
	return 0
}
