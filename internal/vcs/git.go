// Package vcs wraps the git operations the repair loop needs: clone, branch,
// commit, push. Credentials are injected per call; nothing is stored.
package vcs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

const (
	authorName  = "AI Fix Agent"
	authorEmail = "ai-agent@rift.dev"
)

var sanitizeRe = regexp.MustCompile(`[^A-Z0-9]+`)

// BuildBranchName builds the canonical working branch name:
// TEAM_LEADER_AI_FIX, upper-snake sanitized.
func BuildBranchName(teamName, leaderName string) string {
	sanitize := func(s string) string {
		s = strings.ToUpper(s)
		s = sanitizeRe.ReplaceAllString(s, "_")
		return strings.Trim(s, "_")
	}
	return fmt.Sprintf("%s_%s_AI_FIX", sanitize(teamName), sanitize(leaderName))
}

// Git clones repositories and hands out workspace handles.
type Git struct {
	log *slog.Logger
}

// New creates a Git gateway.
func New(log *slog.Logger) *Git {
	return &Git{log: log}
}

// Clone clones url into dest, replacing anything already there. An empty
// token clones anonymously.
func (g *Git) Clone(ctx context.Context, url, dest, token string) (*Repo, error) {
	if err := os.RemoveAll(dest); err != nil {
		return nil, fmt.Errorf("failed to clear clone dir: %w", err)
	}

	g.log.Info("cloning repository", "url", url, "dest", dest)
	repo, err := git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
		URL:  url,
		Auth: auth(token),
	})
	if err != nil {
		return nil, fmt.Errorf("clone failed: %w", err)
	}

	return &Repo{repo: repo, dir: dest, log: g.log}, nil
}

// Repo is a handle to one cloned working tree.
type Repo struct {
	repo *git.Repository
	dir  string
	log  *slog.Logger
}

// Dir returns the working tree path.
func (r *Repo) Dir() string {
	return r.dir
}

// Branch creates and checks out the named branch. If the branch already
// exists it is checked out instead of failing.
func (r *Repo) Branch(name string) error {
	w, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}

	refName := plumbing.NewBranchReferenceName(name)
	_, refErr := r.repo.Reference(refName, true)

	if err := w.Checkout(&git.CheckoutOptions{
		Branch: refName,
		Create: refErr != nil,
	}); err != nil {
		return fmt.Errorf("failed to checkout branch %s: %w", name, err)
	}
	return nil
}

// Commit stages the given files (or everything, when files is empty) and
// commits. It returns an empty SHA with no error when there is nothing to
// commit.
func (r *Repo) Commit(files []string, message string) (string, error) {
	w, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to open worktree: %w", err)
	}

	if len(files) == 0 {
		if err := w.AddWithOptions(&git.AddOptions{All: true}); err != nil {
			return "", fmt.Errorf("failed to stage all: %w", err)
		}
	} else {
		for _, f := range files {
			if _, err := w.Add(f); err != nil {
				return "", fmt.Errorf("failed to stage %s: %w", f, err)
			}
		}
	}

	status, err := w.Status()
	if err != nil {
		return "", fmt.Errorf("failed to read status: %w", err)
	}
	if status.IsClean() {
		r.log.Info("nothing to commit", "message", message)
		return "", nil
	}

	sha, err := w.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  authorName,
			Email: authorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("commit failed: %w", err)
	}
	return sha.String(), nil
}

// Push pushes the branch to origin and reports success. A failed push is
// logged but never fails the job, whose value is the local branch state.
func (r *Repo) Push(ctx context.Context, branch, token string) bool {
	refSpec := gitconfig.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch))
	err := r.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []gitconfig.RefSpec{refSpec},
		Auth:       auth(token),
	})
	if err == git.NoErrAlreadyUpToDate {
		return true
	}
	if err != nil {
		r.log.Error("push failed", "branch", branch, "error", err)
		return false
	}
	r.log.Info("pushed branch", "branch", branch)
	return true
}

func auth(token string) *githttp.BasicAuth {
	if token == "" {
		return nil
	}
	return &githttp.BasicAuth{Username: "ai-agent", Password: token}
}
