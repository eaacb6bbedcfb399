// Package api contains shared JSON request/response structs.
// This package is shared between the CLI and Controller.
package api

import (
	"time"

	"fixplane/internal/repair"
)

// CreateRepairRequest is the request body for submitting a repair job.
type CreateRepairRequest struct {
	RepoURL    string `json:"repo_url"`
	TeamName   string `json:"team_name"`
	TeamLeader string `json:"team_leader"`
	// GithubToken is used for the clone and the final push. Never echoed back.
	GithubToken string `json:"github_token,omitempty"`
	// RetryLimit caps the repair iterations. Zero means the server default.
	RetryLimit int `json:"retry_limit,omitempty"`
}

// CreateRepairResponse is the response body after submitting a repair job.
type CreateRepairResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// JobStatusResponse is the response body for job status queries.
type JobStatusResponse struct {
	JobID         string                `json:"job_id"`
	Repository    string                `json:"repository"`
	Team          repair.TeamInfo       `json:"team"`
	BranchCreated string                `json:"branch_created"`
	Status        string                `json:"status"`
	Progress      int                   `json:"progress"`
	CurrentStep   string                `json:"current_step"`
	Summary       repair.Summary        `json:"summary"`
	Score         repair.ScoreBreakdown `json:"score"`
	Fixes         []repair.FixProposal  `json:"fixes"`
	CITimeline    []repair.CITimepoint  `json:"ci_timeline"`
	Error         string                `json:"error,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
}

// JobSummaryResponse is one row in the job list.
type JobSummaryResponse struct {
	JobID      string    `json:"job_id"`
	Repository string    `json:"repository"`
	Status     string    `json:"status"`
	Progress   int       `json:"progress"`
	FinalScore int       `json:"final_score"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListJobsResponse is the response body for the job list.
type ListJobsResponse struct {
	Jobs  []JobSummaryResponse `json:"jobs"`
	Total int                  `json:"total"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// JobStatusFromJob converts the internal job state to its API view.
func JobStatusFromJob(job *repair.Job) JobStatusResponse {
	return JobStatusResponse{
		JobID:         job.ID,
		Repository:    job.Repository,
		Team:          job.Team,
		BranchCreated: job.BranchCreated,
		Status:        string(job.Status),
		Progress:      job.Progress,
		CurrentStep:   job.CurrentStep,
		Summary:       job.Summary,
		Score:         job.Score,
		Fixes:         job.Fixes,
		CITimeline:    job.CITimeline,
		Error:         job.Error,
		CreatedAt:     job.CreatedAt,
	}
}
