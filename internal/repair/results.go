package repair

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteResultFile persists the finished job as results_<jobid>.json under
// dir. The file is the audit trail of the run; failure to write it does not
// affect the job outcome.
func WriteResultFile(dir string, job *Job) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create results dir: %w", err)
	}

	data, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal job %s: %w", job.ID, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("results_%s.json", job.ID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write results file: %w", err)
	}
	return path, nil
}
