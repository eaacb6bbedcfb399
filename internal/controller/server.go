// Package controller contains the controller-specific logic for the HTTP API.
package controller

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"fixplane/internal/controller/handlers"
	"fixplane/internal/controller/middleware"
)

// Server is the HTTP server for the controller API.
type Server struct {
	httpServer *http.Server
}

// New creates a new controller server. metricsHandler serves GET /metrics
// and may be nil to disable the endpoint.
func New(addr string, h *handlers.Handlers, limit rate.Limit, burst int, metricsHandler http.Handler) *Server {
	rateMW := middleware.RateLimitMiddleware(limit, burst)

	mux := http.NewServeMux()

	// Submitting a repair kicks off a clone and a test loop, so it is the
	// only rate-limited endpoint.
	mux.Handle("POST /repairs", rateMW(http.HandlerFunc(h.CreateRepair)))
	mux.HandleFunc("GET /repairs/{id}", h.GetRepair)
	mux.HandleFunc("GET /repairs", h.ListRepairs)

	mux.HandleFunc("GET /healthz", h.Healthz)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutDownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return s.Shutdown(shutDownCtx)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
