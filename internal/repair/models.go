// Package repair contains the core domain types for the repair pipeline.
package repair

import "time"

// JobStatus represents the lifecycle state of a repair job.
type JobStatus string

const (
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusFailed    JobStatus = "FAILED"
)

// CIStatus represents the pass/fail state of a test run.
type CIStatus string

const (
	CIStatusPassed CIStatus = "PASSED"
	CIStatusFailed CIStatus = "FAILED"
)

// BugCategory is the closed classification tag attached to a failure.
// Classification is total: every failure carries exactly one category.
type BugCategory string

const (
	BugIndentation   BugCategory = "INDENTATION"
	BugSyntax        BugCategory = "SYNTAX"
	BugImport        BugCategory = "IMPORT"
	BugTypeMismatch  BugCategory = "TYPE_ERROR"
	BugLogic         BugCategory = "LOGIC"
	BugLintViolation BugCategory = "LINTING"
	BugUnknown       BugCategory = "UNKNOWN"
)

// ProposalStatus is the outcome of one fix attempt.
type ProposalStatus string

const (
	// ProposalFixed means the candidate differed from the original and was
	// written to the working tree.
	ProposalFixed ProposalStatus = "Fixed"
	// ProposalSkipped means a candidate was produced but was identical to
	// the original file. Not an error.
	ProposalSkipped ProposalStatus = "Skipped"
	// ProposalFailed means no candidate could be produced at all.
	ProposalFailed ProposalStatus = "Failed"
)

// TeamInfo carries the metadata used for branch naming.
type TeamInfo struct {
	Name   string `json:"name"`
	Leader string `json:"leader"`
}

// TestFailure is one classified failure from a test or lint run.
// Produced fresh each iteration, never mutated afterwards.
type TestFailure struct {
	File         string      `json:"file"`
	Line         *int        `json:"line,omitempty"`
	ErrorMessage string      `json:"error_message"`
	Category     BugCategory `json:"bug_type"`
	RawOutput    string      `json:"raw_output,omitempty"`
}

// FixProposal is a candidate correction plus its outcome status.
// Immutable once recorded.
type FixProposal struct {
	File          string         `json:"file"`
	Line          *int           `json:"line,omitempty"`
	Category      BugCategory    `json:"bug_type"`
	OriginalCode  string         `json:"original_code,omitempty"`
	FixedCode     string         `json:"fixed_code,omitempty"`
	Description   string         `json:"description"`
	CommitMessage string         `json:"commit_message"`
	Status        ProposalStatus `json:"status"`
}

// CITimepoint is a recorded snapshot of test status for one iteration.
// The timeline is append-only and ordered by iteration number.
type CITimepoint struct {
	Iteration    int       `json:"iteration"`
	Status       CIStatus  `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	Failures     []string  `json:"failures"`
	PostStatus   *CIStatus `json:"post_status,omitempty"`
	PostFailures []string  `json:"post_failures,omitempty"`
}

// ScoreBreakdown holds the derived score components, computed once at job
// completion.
type ScoreBreakdown struct {
	BaseScore         int `json:"base_score"`
	SpeedBonus        int `json:"speed_bonus"`
	EfficiencyPenalty int `json:"efficiency_penalty"`
	CIPenalty         int `json:"ci_penalty"`
	FinalScore        int `json:"final_score"`
}

// Summary is the aggregate view of a finished run.
type Summary struct {
	TotalFailures    int      `json:"total_failures"`
	TotalFixes       int      `json:"total_fixes"`
	CIStatus         CIStatus `json:"ci_status"`
	TimeTakenSeconds int      `json:"time_taken_seconds"`
	IterationsUsed   int      `json:"iterations_used"`
}

// Job is the full state of one repair job. The owning orchestrator goroutine
// is the single writer; it becomes immutable once Status reaches COMPLETED
// or FAILED.
type Job struct {
	ID            string         `json:"job_id"`
	Repository    string         `json:"repository"`
	Team          TeamInfo       `json:"team"`
	BranchCreated string         `json:"branch_created"`
	Summary       Summary        `json:"summary"`
	Score         ScoreBreakdown `json:"score"`
	Fixes         []FixProposal  `json:"fixes"`
	CITimeline    []CITimepoint  `json:"ci_timeline"`
	Status        JobStatus      `json:"status"`
	Progress      int            `json:"progress"`
	CurrentStep   string         `json:"current_step"`
	Error         string         `json:"error,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Clone returns a deep copy of the job so readers never share slices with
// the writing goroutine.
func (j *Job) Clone() *Job {
	cp := *j
	cp.Fixes = append([]FixProposal(nil), j.Fixes...)
	cp.CITimeline = make([]CITimepoint, len(j.CITimeline))
	for i, tp := range j.CITimeline {
		cp.CITimeline[i] = tp
		cp.CITimeline[i].Failures = append([]string(nil), tp.Failures...)
		cp.CITimeline[i].PostFailures = append([]string(nil), tp.PostFailures...)
		if tp.PostStatus != nil {
			s := *tp.PostStatus
			cp.CITimeline[i].PostStatus = &s
		}
	}
	return &cp
}
