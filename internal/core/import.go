package core

import "time"

// Import run states.
const (
	ImportRunning   = "running"
	ImportSucceeded = "succeeded"
	ImportFailed    = "failed"
)

// ImportRun records one pass of loading quarterly reports from an external
// source.
type ImportRun struct {
	ID         string     `json:"id"`
	Source     string     `json:"source"`
	Status     string     `json:"status"`
	Rows       int        `json:"rows"`
	Skipped    int        `json:"skipped"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Finish marks the run complete. A non-nil err marks it failed.
func (r *ImportRun) Finish(at time.Time, err error) {
	r.FinishedAt = &at
	if err != nil {
		r.Status = ImportFailed
		r.Error = err.Error()
		return
	}
	r.Status = ImportSucceeded
}
