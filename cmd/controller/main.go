// Package main is the entry point for the fixplane controller.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"

	"fixplane/internal/analyze"
	"fixplane/internal/classify"
	"fixplane/internal/config"
	"fixplane/internal/controller"
	"fixplane/internal/controller/handlers"
	"fixplane/internal/fixer"
	"fixplane/internal/logger"
	"fixplane/internal/observability"
	"fixplane/internal/orchestrator"
	"fixplane/internal/registry"
	"fixplane/internal/repair"
	"fixplane/internal/runner"
	"fixplane/internal/sandbox"
	"fixplane/internal/vcs"
	"fixplane/pkg/api"
)

func main() {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	slogger := logger.New()
	ctx := context.Background()

	// Tracing
	shutdownTracer, err := observability.InitTracer(ctx, "fixplane-controller", cfg.OTELEndpoint)
	if err != nil {
		log.Fatalf("Failed to init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("Failed to shutdown tracer: %v", err)
		}
	}()

	// Metrics
	metricsHandler, shutdownMetrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to init metrics: %v", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			log.Printf("Failed to shutdown metrics: %v", err)
		}
	}()

	reg := registry.New()

	// Observable gauge reading the registry only when scraped.
	meter := otel.Meter("fixplane-controller")
	_, err = meter.Int64ObservableGauge("fixplane.jobs.running",
		metric.WithDescription("Current number of running repair jobs"),
		metric.WithInt64Callback(func(ctx context.Context, obs metric.Int64Observer) error {
			obs.Observe(reg.Running())
			return nil
		}),
	)
	if err != nil {
		log.Printf("Failed to register running jobs metric: %v", err)
	}

	// Sandbox backend
	var executor sandbox.Executor
	switch cfg.Sandbox {
	case "docker":
		executor, err = sandbox.NewDockerSandbox(cfg.SandboxImage)
		if err != nil {
			log.Fatalf("Failed to init docker sandbox: %v", err)
		}
	default:
		executor = sandbox.NewExecSandbox()
	}

	testRunner := runner.New(executor, slogger, runner.Options{
		TestTimeout:    cfg.TestTimeout,
		LintTimeout:    cfg.LintTimeout,
		InstallTimeout: cfg.InstallTimeout,
	})

	// Fix strategies: the generative one needs credentials, the heuristics
	// always apply as a fallback.
	var strategies []fixer.Strategy
	if cfg.OpenAIAPIKey != "" {
		strategies = append(strategies, fixer.NewGenerativeStrategy(cfg.OpenAIAPIKey, cfg.OpenAIModel, slogger))
	} else {
		log.Println("OPENAI_API_KEY not set, using heuristic fixes only")
	}
	strategies = append(strategies, fixer.NewHeuristicStrategy())

	git := vcs.New(slogger)
	clone := func(ctx context.Context, url, dest, token string) (orchestrator.Workspace, error) {
		return git.Clone(ctx, url, dest, token)
	}

	orch := orchestrator.New(
		clone,
		analyze.New(),
		testRunner,
		classify.NewEngine(slogger),
		fixer.NewPipeline(slogger, strategies...),
		cfg.ReposDir,
		slogger,
	)

	launch := func(jobID string, req api.CreateRepairRequest) {
		job := orch.Run(context.Background(), orchestrator.Params{
			JobID:      jobID,
			RepoURL:    req.RepoURL,
			Team:       repair.TeamInfo{Name: req.TeamName, Leader: req.TeamLeader},
			Token:      req.GithubToken,
			RetryLimit: req.RetryLimit,
			ProgressSink: func(progress int, step string) {
				reg.Update(jobID, func(j *repair.Job) {
					j.Progress = progress
					j.CurrentStep = step
				})
			},
		})
		reg.Update(jobID, func(j *repair.Job) {
			*j = *job.Clone()
		})
		if path, err := repair.WriteResultFile(cfg.ReposDir, job); err != nil {
			slogger.Error("failed to write result file", "job_id", jobID, "error", err)
		} else {
			slogger.Info("result file written", "job_id", jobID, "path", path)
		}
	}

	h := handlers.New(reg, launch, cfg.DefaultRetryLimit, slogger)

	burst := int(cfg.RateLimit) * 2
	if burst < 1 && cfg.RateLimit > 0 {
		burst = 1
	}

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	srv := controller.New(addr, h, rate.Limit(cfg.RateLimit), burst, metricsHandler)

	go func() {
		log.Printf("Fixplane Controller starting on %s", addr)
		if err := srv.Run(ctx); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down controller...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited properly")
}
