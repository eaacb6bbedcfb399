// Package orchestrator drives one repair job end to end: clone, branch,
// analyze, then a bounded test/classify/fix/verify loop, finishing with an
// optional push and a deterministic score.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"fixplane/internal/analyze"
	"fixplane/internal/ci"
	"fixplane/internal/logger"
	"fixplane/internal/repair"
	"fixplane/internal/runner"
	"fixplane/internal/vcs"
)

// Workspace is the handle to one cloned working tree.
type Workspace interface {
	Dir() string
	Branch(name string) error
	Commit(files []string, message string) (string, error)
	Push(ctx context.Context, branch, token string) bool
}

// CloneFunc clones a repository and returns its workspace handle.
type CloneFunc func(ctx context.Context, url, dest, token string) (Workspace, error)

// Analyzer inspects a working tree and reports its structure.
type Analyzer interface {
	Analyze(root string) (*analyze.Analysis, error)
}

// TestRunner installs dependencies and runs the test and lint suites.
type TestRunner interface {
	InstallDependencies(ctx context.Context, dir string, analysis *analyze.Analysis)
	Run(ctx context.Context, dir string, analysis *analyze.Analysis) runner.Result
}

// Classifier turns raw runner output into categorized failures.
type Classifier interface {
	Classify(res runner.Result, repoDir string) []repair.TestFailure
}

// FixPipeline proposes and applies fixes for a batch of failures.
type FixPipeline interface {
	Propose(ctx context.Context, failures []repair.TestFailure, workDir string) []repair.FixProposal
}

// Params are the per-job inputs to Run.
type Params struct {
	JobID      string
	RepoURL    string
	Team       repair.TeamInfo
	Token      string
	RetryLimit int

	// ProgressSink receives every progress update. May be nil.
	ProgressSink func(progress int, step string)
}

// Orchestrator runs repair jobs. One instance is shared by all jobs; all
// per-job state lives in Run.
type Orchestrator struct {
	clone      CloneFunc
	analyzer   Analyzer
	runner     TestRunner
	classifier Classifier
	fixer      FixPipeline
	reposDir   string
	log        *slog.Logger
}

// New creates an Orchestrator.
func New(clone CloneFunc, analyzer Analyzer, r TestRunner, classifier Classifier, fixer FixPipeline, reposDir string, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		clone:      clone,
		analyzer:   analyzer,
		runner:     r,
		classifier: classifier,
		fixer:      fixer,
		reposDir:   reposDir,
		log:        log,
	}
}

// Run executes one repair job to completion and returns the final job state.
// It never returns an error: any failure is recorded on the job itself with
// Status FAILED and Progress 100.
func (o *Orchestrator) Run(ctx context.Context, p Params) (job *repair.Job) {
	start := time.Now()
	ctx = logger.WithJobID(ctx, p.JobID)
	log := logger.FromContext(ctx, o.log)

	tracer := otel.Tracer("repair-orchestrator")
	ctx, span := tracer.Start(ctx, "repair_job",
		trace.WithAttributes(
			attribute.String("job.id", p.JobID),
			attribute.String("repo.url", p.RepoURL),
			attribute.Int("retry.limit", p.RetryLimit),
		),
	)
	defer span.End()

	job = &repair.Job{
		ID:            p.JobID,
		Repository:    p.RepoURL,
		Team:          p.Team,
		BranchCreated: vcs.BuildBranchName(p.Team.Name, p.Team.Leader),
		Status:        repair.JobStatusRunning,
		CurrentStep:   "Initializing...",
		CreatedAt:     start.UTC(),
	}

	// Progress only moves forward, whatever order steps report in.
	progress := func(pct int, step string) {
		if pct > 100 {
			pct = 100
		}
		if pct > job.Progress {
			job.Progress = pct
		}
		job.CurrentStep = step
		if p.ProgressSink != nil {
			p.ProgressSink(job.Progress, step)
		}
		log.Info("job progress", "progress", job.Progress, "step", step)
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("job panicked", "panic", r)
			span.RecordError(fmt.Errorf("panic: %v", r))
			job.Status = repair.JobStatusFailed
			job.Error = fmt.Sprintf("internal error: %v", r)
			job.Progress = 100
			job.CurrentStep = "Failed"
		}
	}()

	if err := o.runJob(ctx, p, job, progress, start); err != nil {
		log.Error("job failed", "error", err)
		span.RecordError(err)
		job.Status = repair.JobStatusFailed
		job.Error = err.Error()
		job.Progress = 100
		job.CurrentStep = "Failed: " + err.Error()
		return job
	}

	span.SetAttributes(
		attribute.Int("score.final", job.Score.FinalScore),
		attribute.Int("fixes.applied", job.Summary.TotalFixes),
		attribute.String("ci.status", string(job.Summary.CIStatus)),
	)
	return job
}

func (o *Orchestrator) runJob(ctx context.Context, p Params, job *repair.Job, progress func(int, string), start time.Time) error {
	log := logger.FromContext(ctx, o.log)
	workDir := filepath.Join(o.reposDir, p.JobID)

	progress(5, "Cloning repository...")
	ws, err := o.clone(ctx, p.RepoURL, workDir, p.Token)
	if err != nil {
		return fmt.Errorf("clone failed: %w", err)
	}

	progress(10, fmt.Sprintf("Creating branch %s...", job.BranchCreated))
	if err := ws.Branch(job.BranchCreated); err != nil {
		return fmt.Errorf("branch failed: %w", err)
	}

	progress(15, "Analyzing repository structure...")
	analysis, err := o.analyzer.Analyze(ws.Dir())
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	log.Info("repository analyzed",
		"language", analysis.Language,
		"framework", analysis.Framework,
		"test_files", len(analysis.TestFiles))

	o.runner.InstallDependencies(ctx, ws.Dir(), analysis)

	monitor := ci.NewMonitor()
	var (
		initialFailures int
		fixesApplied    int
		iterationsUsed  int
		finalPassed     bool
		settled         bool
	)

	for iteration := 1; iteration <= p.RetryLimit; iteration++ {
		iterationsUsed = iteration
		base := 15 + (iteration-1)*70/p.RetryLimit

		progress(base, fmt.Sprintf("Iteration %d/%d: Running tests...", iteration, p.RetryLimit))
		res := o.runner.Run(ctx, ws.Dir(), analysis)

		if res.Passed {
			monitor.Record(iteration, ci.RunStatus{Passed: true}, nil)
			finalPassed, settled = true, true
			progress(base+5, fmt.Sprintf("All tests passed at iteration %d", iteration))
			break
		}

		progress(base+2, "Classifying failures...")
		failures := o.classifier.Classify(res, ws.Dir())
		if iteration == 1 {
			initialFailures = len(failures)
		}
		if len(failures) == 0 {
			monitor.Record(iteration, ci.RunStatus{Passed: false}, nil)
			settled = true
			log.Warn("test suite failed but produced no classifiable failures, stopping")
			break
		}

		progress(base+4, fmt.Sprintf("Generating fixes for %d failure(s)...", len(failures)))
		proposals := o.fixer.Propose(ctx, failures, ws.Dir())
		job.Fixes = append(job.Fixes, proposals...)

		var applied []repair.FixProposal
		for _, prop := range proposals {
			if prop.Status == repair.ProposalFixed {
				applied = append(applied, prop)
			}
		}
		if len(applied) == 0 {
			monitor.Record(iteration, ci.RunStatus{Passed: false, Failures: failures}, nil)
			settled = true
			log.Warn("no fixes could be applied, stopping", "iteration", iteration)
			break
		}

		progress(base+6, fmt.Sprintf("Committing %d fix(es)...", len(applied)))
		for _, prop := range applied {
			sha, err := ws.Commit([]string{prop.File}, prop.CommitMessage)
			if err != nil {
				log.Error("commit failed", "file", prop.File, "error", err)
				continue
			}
			if sha != "" {
				fixesApplied++
				log.Info("committed fix", "file", prop.File, "sha", sha)
			}
		}

		progress(base+8, "Verifying fixes...")
		postRes := o.runner.Run(ctx, ws.Dir(), analysis)
		post := ci.RunStatus{Passed: postRes.Passed}
		if !postRes.Passed {
			post.Failures = o.classifier.Classify(postRes, ws.Dir())
		}
		monitor.Record(iteration, ci.RunStatus{Passed: false, Failures: failures}, &post)

		if postRes.Passed {
			finalPassed, settled = true, true
			progress(base+10, fmt.Sprintf("All tests passed after iteration %d", iteration))
			break
		}
	}

	// Budget exhausted mid-flight: one last run settles the CI status.
	if !settled {
		progress(88, "Final verification run...")
		finalPassed = o.runner.Run(ctx, ws.Dir(), analysis).Passed
	}

	progress(90, "Pushing branch to remote...")
	if p.Token != "" {
		ws.Push(ctx, job.BranchCreated, p.Token)
	} else {
		log.Info("no token provided, skipping push", "branch", job.BranchCreated)
	}

	elapsed := time.Since(start)
	job.Score = ci.Score(initialFailures, fixesApplied, elapsed, finalPassed)
	job.CITimeline = monitor.Timeline()

	ciStatus := repair.CIStatusFailed
	if finalPassed {
		ciStatus = repair.CIStatusPassed
	}
	job.Summary = repair.Summary{
		TotalFailures:    initialFailures,
		TotalFixes:       fixesApplied,
		CIStatus:         ciStatus,
		TimeTakenSeconds: int(elapsed.Seconds()),
		IterationsUsed:   iterationsUsed,
	}

	job.Status = repair.JobStatusCompleted
	progress(100, "Completed")
	return nil
}
