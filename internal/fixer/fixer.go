package fixer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"fixplane/internal/repair"
)

// excerptLen bounds the original/fixed content kept on proposals for audit.
const excerptLen = 500

// Pipeline runs the strategy chain over classified failures and applies
// accepted candidates to the working tree.
type Pipeline struct {
	strategies []Strategy
	log        *slog.Logger
}

// NewPipeline creates a pipeline trying the given strategies in order.
func NewPipeline(log *slog.Logger, strategies ...Strategy) *Pipeline {
	return &Pipeline{strategies: strategies, log: log}
}

// Propose produces one proposal per failure. At most one fix is attempted
// per distinct file per call; later failures in an already-fixed file are
// dropped so a pending change is never clobbered. Only Fixed proposals
// touch disk.
func (p *Pipeline) Propose(ctx context.Context, failures []repair.TestFailure, workDir string) []repair.FixProposal {
	var proposals []repair.FixProposal
	seen := map[string]bool{}

	for _, failure := range failures {
		absPath, relPath, ok := resolve(failure.File, workDir)
		if !ok {
			p.log.Warn("fix target not found", "file", failure.File)
			continue
		}
		if seen[absPath] {
			continue
		}

		original, err := os.ReadFile(absPath)
		if err != nil {
			p.log.Warn("failed to read fix target", "file", relPath, "error", err)
			continue
		}

		candidate := p.produce(ctx, CandidateRequest{
			RelPath:  relPath,
			Content:  string(original),
			Category: failure.Category,
			Message:  failure.ErrorMessage,
			Line:     failure.Line,
		})

		switch {
		case candidate == "":
			proposals = append(proposals, repair.FixProposal{
				File:          relPath,
				Line:          failure.Line,
				Category:      failure.Category,
				Description:   fmt.Sprintf("Could not fix %s in %s", failure.Category, relPath),
				CommitMessage: fmt.Sprintf("[AI-AGENT] Attempted fix for %s in %s", failure.Category, relPath),
				Status:        repair.ProposalFailed,
			})
			p.log.Warn("no fix produced", "file", relPath, "category", failure.Category)

		case strings.TrimSpace(candidate) == strings.TrimSpace(string(original)):
			proposals = append(proposals, repair.FixProposal{
				File:          relPath,
				Line:          failure.Line,
				Category:      failure.Category,
				Description:   fmt.Sprintf("No change needed for %s in %s", failure.Category, relPath),
				CommitMessage: fmt.Sprintf("[AI-AGENT] No fix for %s in %s", failure.Category, relPath),
				Status:        repair.ProposalSkipped,
			})
			p.log.Info("candidate identical to original, skipping", "file", relPath)

		default:
			if err := os.WriteFile(absPath, []byte(candidate), 0o644); err != nil {
				proposals = append(proposals, repair.FixProposal{
					File:          relPath,
					Line:          failure.Line,
					Category:      failure.Category,
					Description:   fmt.Sprintf("Could not fix %s in %s: %v", failure.Category, relPath, err),
					CommitMessage: fmt.Sprintf("[AI-AGENT] Attempted fix for %s in %s", failure.Category, relPath),
					Status:        repair.ProposalFailed,
				})
				continue
			}
			seen[absPath] = true
			proposals = append(proposals, repair.FixProposal{
				File:          relPath,
				Line:          failure.Line,
				Category:      failure.Category,
				OriginalCode:  excerpt(string(original)),
				FixedCode:     excerpt(candidate),
				Description:   fmt.Sprintf("Fixed %s in %s", failure.Category, relPath),
				CommitMessage: fmt.Sprintf("[AI-AGENT] Fix %s in %s", failure.Category, relPath),
				Status:        repair.ProposalFixed,
			})
			p.log.Info("fix applied", "file", relPath, "category", failure.Category)
		}
	}

	return proposals
}

// produce walks the strategy chain and returns the first candidate.
func (p *Pipeline) produce(ctx context.Context, req CandidateRequest) string {
	for _, s := range p.strategies {
		candidate, err := s.ProduceCandidate(ctx, req)
		if err != nil {
			p.log.Warn("strategy failed", "strategy", s.Name(), "file", req.RelPath, "error", err)
			continue
		}
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

// resolve maps a (possibly absolute) failure path onto the working tree.
func resolve(file, workDir string) (absPath, relPath string, ok bool) {
	if file == "" || file == "unknown" {
		return "", "", false
	}

	if filepath.IsAbs(file) {
		rel, err := filepath.Rel(workDir, file)
		if err != nil || strings.HasPrefix(rel, "..") {
			return "", "", false
		}
		file = rel
	}

	abs := filepath.Join(workDir, file)
	if _, err := os.Stat(abs); err != nil {
		return "", "", false
	}
	return abs, file, true
}

func excerpt(s string) string {
	if len(s) <= excerptLen {
		return s
	}
	return s[:excerptLen]
}
