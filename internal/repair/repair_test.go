package repair

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWriteResultFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	job := &Job{
		ID:         "abc-123",
		Repository: "https://github.com/team/broken.git",
		Status:     JobStatusCompleted,
		Progress:   100,
		Score:      ScoreBreakdown{FinalScore: 110},
		CreatedAt:  time.Now().UTC(),
	}

	path, err := WriteResultFile(dir, job)
	if err != nil {
		t.Fatalf("WriteResultFile failed: %v", err)
	}
	if filepath.Base(path) != "results_abc-123.json" {
		t.Errorf("unexpected file name: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded Job
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("result file is not valid JSON: %v", err)
	}
	if decoded.ID != job.ID || decoded.Score.FinalScore != 110 {
		t.Errorf("unexpected decoded job: %+v", decoded)
	}
}

func TestJobClone_IsDeep(t *testing.T) {
	post := CIStatusPassed
	job := &Job{
		ID:    "abc-123",
		Fixes: []FixProposal{{File: "app.py", Status: ProposalFixed}},
		CITimeline: []CITimepoint{
			{Iteration: 1, Status: CIStatusFailed, Failures: []string{"app.py: boom"}, PostStatus: &post},
		},
	}

	cp := job.Clone()
	cp.Fixes[0].File = "other.py"
	cp.CITimeline[0].Failures[0] = "mutated"
	*cp.CITimeline[0].PostStatus = CIStatusFailed

	if job.Fixes[0].File != "app.py" {
		t.Error("clone shares the fixes slice")
	}
	if job.CITimeline[0].Failures[0] != "app.py: boom" {
		t.Error("clone shares the failures slice")
	}
	if *job.CITimeline[0].PostStatus != CIStatusPassed {
		t.Error("clone shares the post status pointer")
	}
}
