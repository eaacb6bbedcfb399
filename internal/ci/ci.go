// Package ci records the per-iteration test status timeline and computes the
// final score for a repair job.
package ci

import (
	"time"

	"fixplane/internal/repair"
)

const maxSummaryLen = 200

// RunStatus is the observed outcome of one test run, as the monitor sees it.
type RunStatus struct {
	Passed   bool
	Failures []repair.TestFailure
}

// Monitor keeps the append-only CI timeline for a single job. It is not
// safe for concurrent use; the owning orchestrator goroutine is the only
// writer.
type Monitor struct {
	timeline []repair.CITimepoint
}

// NewMonitor creates an empty monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// Record appends one timepoint. post is nil when no post-fix run happened in
// the iteration. It is a pure transformation of its inputs and always
// succeeds.
func (m *Monitor) Record(iteration int, pre RunStatus, post *RunStatus) repair.CITimepoint {
	tp := repair.CITimepoint{
		Iteration: iteration,
		Status:    toCIStatus(pre.Passed),
		Timestamp: time.Now().UTC(),
		Failures:  summarize(pre.Failures),
	}

	if post != nil {
		status := toCIStatus(post.Passed)
		tp.PostStatus = &status
		tp.PostFailures = summarize(post.Failures)
	}

	m.timeline = append(m.timeline, tp)
	return tp
}

// Timeline returns a copy of the recorded timepoints in iteration order.
func (m *Monitor) Timeline() []repair.CITimepoint {
	return append([]repair.CITimepoint(nil), m.timeline...)
}

// Len returns the number of recorded timepoints.
func (m *Monitor) Len() int {
	return len(m.timeline)
}

func toCIStatus(passed bool) repair.CIStatus {
	if passed {
		return repair.CIStatusPassed
	}
	return repair.CIStatusFailed
}

func summarize(failures []repair.TestFailure) []string {
	out := make([]string, 0, len(failures))
	for _, f := range failures {
		msg := f.ErrorMessage
		if len(msg) > maxSummaryLen {
			msg = msg[:maxSummaryLen]
		}
		out = append(out, msg)
	}
	return out
}

// Score computes the final score breakdown once at job end.
//
//	base            = 100 - 10*max(0, initialFailures - fixesApplied)
//	speedBonus      = 10 if elapsed < 5 minutes
//	efficiencyPenalty = 2*max(0, fixesApplied - 20)
//	raw             = max(0, base + speedBonus - efficiencyPenalty)
//	ciPenalty       caps the score at 50 unless the suite finally passed
func Score(initialFailures, fixesApplied int, elapsed time.Duration, finalPassed bool) repair.ScoreBreakdown {
	remaining := initialFailures - fixesApplied
	if remaining < 0 {
		remaining = 0
	}
	base := 100 - 10*remaining

	speedBonus := 0
	if elapsed < 5*time.Minute {
		speedBonus = 10
	}

	efficiencyPenalty := 0
	if excess := fixesApplied - 20; excess > 0 {
		efficiencyPenalty = 2 * excess
	}

	raw := base + speedBonus - efficiencyPenalty
	if raw < 0 {
		raw = 0
	}

	ciPenalty := 0
	if !finalPassed && raw > 50 {
		ciPenalty = raw - 50
	}

	return repair.ScoreBreakdown{
		BaseScore:         base,
		SpeedBonus:        speedBonus,
		EfficiencyPenalty: efficiencyPenalty,
		CIPenalty:         ciPenalty,
		FinalScore:        raw - ciPenalty,
	}
}
