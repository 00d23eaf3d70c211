package pipeline

import (
	"fmt"
	"path/filepath"
	"time"
)

// Report is the on-disk record of a single run.
type Report struct {
	Root       string   `json:"root"`
	StartedAt  string   `json:"started_at"`
	FinishedAt string   `json:"finished_at"`
	Outcome    *Outcome `json:"outcome"`
	Version    string   `json:"lintpipe_version"`
	started    time.Time
}

// NewReport starts a report for a run rooted at root.
func NewReport(root, version string) *Report {
	now := time.Now().UTC()
	return &Report{
		Root:      root,
		StartedAt: now.Format(time.RFC3339),
		Version:   version,
		started:   now,
	}
}

// Finish attaches the outcome and stamps the finish time.
func (r *Report) Finish(o *Outcome) {
	r.Outcome = o
	r.FinishedAt = time.Now().UTC().Format(time.RFC3339)
}

// Elapsed returns the wall time since the report was started.
func (r *Report) Elapsed() time.Duration {
	return time.Since(r.started)
}

// Save writes the report to path. Relative paths resolve against the run root.
func (r *Report) Save(path string) (string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.Root, path)
	}
	if err := WriteJSON(path, r); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// LoadReport reads a report previously written by Save.
func LoadReport(path string) (*Report, error) {
	var r Report
	if err := ReadJSON(path, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
