package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"fixplane/internal/registry"
	"fixplane/internal/repair"
	"fixplane/pkg/api"
)

const maxRetryLimit = 10

// CreateRepair handles POST /repairs.
// It registers the job and starts the repair pipeline in the background.
func (h *Handlers) CreateRepair(w http.ResponseWriter, r *http.Request) {
	var req api.CreateRepairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.RepoURL = strings.TrimSpace(req.RepoURL)
	req.TeamName = strings.TrimSpace(req.TeamName)
	req.TeamLeader = strings.TrimSpace(req.TeamLeader)

	if req.RepoURL == "" || req.TeamName == "" || req.TeamLeader == "" {
		h.httpError(w, "repo_url, team_name and team_leader are required", http.StatusBadRequest)
		return
	}
	if req.RetryLimit < 0 || req.RetryLimit > maxRetryLimit {
		h.httpError(w, "retry_limit must be between 1 and 10", http.StatusBadRequest)
		return
	}
	if req.RetryLimit == 0 {
		req.RetryLimit = h.defaultRetry
	}

	jobID := uuid.New().String()

	h.registry.Put(&repair.Job{
		ID:          jobID,
		Repository:  req.RepoURL,
		Team:        repair.TeamInfo{Name: req.TeamName, Leader: req.TeamLeader},
		Status:      repair.JobStatusRunning,
		CurrentStep: "Queued",
		CreatedAt:   time.Now().UTC(),
	})

	h.log.Info("repair job accepted", "job_id", jobID, "repo", req.RepoURL, "team", req.TeamName)
	go h.launch(jobID, req)

	h.respondJson(w, http.StatusAccepted, api.CreateRepairResponse{
		JobID:   jobID,
		Status:  string(repair.JobStatusRunning),
		Message: "Repair job started",
	})
}

// GetRepair handles GET /repairs/{id}.
func (h *Handlers) GetRepair(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")

	job, err := h.registry.Get(jobID)
	if err == registry.ErrNotFound {
		h.httpError(w, "Job not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.httpError(w, "Internal error", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusOK, api.JobStatusFromJob(job))
}

// ListRepairs handles GET /repairs.
func (h *Handlers) ListRepairs(w http.ResponseWriter, r *http.Request) {
	jobs := h.registry.List()

	resp := api.ListJobsResponse{
		Jobs:  make([]api.JobSummaryResponse, 0, len(jobs)),
		Total: len(jobs),
	}
	for _, job := range jobs {
		resp.Jobs = append(resp.Jobs, api.JobSummaryResponse{
			JobID:      job.ID,
			Repository: job.Repository,
			Status:     string(job.Status),
			Progress:   job.Progress,
			FinalScore: job.Score.FinalScore,
			CreatedAt:  job.CreatedAt,
		})
	}
	h.respondJson(w, http.StatusOK, resp)
}
