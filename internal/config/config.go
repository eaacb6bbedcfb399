// Package config handles environment variable loading for ports, working
// directories, sandbox selection and external service credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all configuration values for the application.
type Config struct {
	// HTTP server port for the controller
	HTTPPort int

	// Directory where repositories are cloned and result files are written
	ReposDir string

	// Default fix-loop iteration budget when the request does not set one
	DefaultRetryLimit int

	// Sandbox selects the executor backend: "exec" or "docker"
	Sandbox string

	// Container image used by the docker sandbox
	SandboxImage string

	// Per-command timeouts for sandboxed runs
	TestTimeout    time.Duration
	LintTimeout    time.Duration
	InstallTimeout time.Duration

	// OTLP collector endpoint for tracing
	OTELEndpoint string

	// Fix generation service; empty key disables the generative strategy
	OpenAIAPIKey string
	OpenAIModel  string

	// Requests per second allowed per client on the public API (0 = unlimited)
	RateLimit float64
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:          8000,
		ReposDir:          filepath.Join(os.TempDir(), "fixplane", "repos"),
		DefaultRetryLimit: 5,
		Sandbox:           "exec",
		SandboxImage:      "python:3.11",
		TestTimeout:       120 * time.Second,
		LintTimeout:       60 * time.Second,
		InstallTimeout:    180 * time.Second,
		OTELEndpoint:      "localhost:4317",
		OpenAIModel:       "gpt-4o-mini",
		RateLimit:         10,
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %w", err)
		}
		cfg.HTTPPort = p
	}

	if dir := os.Getenv("REPOS_DIR"); dir != "" {
		cfg.ReposDir = dir
	}

	if limitStr := os.Getenv("RETRY_LIMIT"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, fmt.Errorf("invalid RETRY_LIMIT: %w", err)
		}
		if l < 1 || l > 10 {
			return nil, fmt.Errorf("RETRY_LIMIT must be between 1 and 10, got %d", l)
		}
		cfg.DefaultRetryLimit = l
	}

	if sb := os.Getenv("SANDBOX"); sb != "" {
		if sb != "exec" && sb != "docker" {
			return nil, fmt.Errorf("invalid SANDBOX %q: must be exec or docker", sb)
		}
		cfg.Sandbox = sb
	}

	if img := os.Getenv("SANDBOX_IMAGE"); img != "" {
		cfg.SandboxImage = img
	}

	var err error
	if cfg.TestTimeout, err = durationEnv("TEST_TIMEOUT", cfg.TestTimeout); err != nil {
		return nil, err
	}
	if cfg.LintTimeout, err = durationEnv("LINT_TIMEOUT", cfg.LintTimeout); err != nil {
		return nil, err
	}
	if cfg.InstallTimeout, err = durationEnv("INSTALL_TIMEOUT", cfg.InstallTimeout); err != nil {
		return nil, err
	}

	if ep := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); ep != "" {
		cfg.OTELEndpoint = ep
	}

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		cfg.OpenAIModel = model
	}

	if rlStr := os.Getenv("RATE_LIMIT"); rlStr != "" {
		rl, err := strconv.ParseFloat(rlStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid RATE_LIMIT: %w", err)
		}
		cfg.RateLimit = rl
	}

	return cfg, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
