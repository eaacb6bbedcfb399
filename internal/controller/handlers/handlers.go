// Package handlers contains HTTP handlers for the controller API.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"fixplane/internal/registry"
	"fixplane/pkg/api"
)

// LaunchFunc starts the repair pipeline for a freshly registered job. It is
// called on its own goroutine and owns all writes to the job from then on.
type LaunchFunc func(jobID string, req api.CreateRepairRequest)

// Handlers holds all HTTP handlers and their dependencies.
type Handlers struct {
	registry     *registry.Registry
	launch       LaunchFunc
	defaultRetry int
	log          *slog.Logger
}

// New creates a new Handlers instance.
func New(reg *registry.Registry, launch LaunchFunc, defaultRetry int, log *slog.Logger) *Handlers {
	return &Handlers{
		registry:     reg,
		launch:       launch,
		defaultRetry: defaultRetry,
		log:          log,
	}
}

// A helper function to write standard JSON responses.
func (h *Handlers) respondJson(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// A helper function to return consistent error messages.
func (h *Handlers) httpError(w http.ResponseWriter, message string, code int) {
	h.respondJson(w, code, api.ErrorResponse{
		Error: message,
		Code:  strconv.Itoa(code),
	})
}
