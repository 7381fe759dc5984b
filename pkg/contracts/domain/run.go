package domain

import (
	"time"
)

// RunStatus is the outcome of one consolidation run.
type RunStatus string

const (
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// FileStatus is the outcome of one discovered file within a run.
type FileStatus string

const (
	FileStatusLoaded      FileStatus = "loaded"
	FileStatusParseFailed FileStatus = "parse_failed"
	FileStatusLoadFailed  FileStatus = "load_failed"
)

// FileOutcome records what happened to one discovered file.
type FileOutcome struct {
	Name   string     `json:"name"`
	Period Period     `json:"period,omitempty" validate:"-"`
	Status FileStatus `json:"status"`
	Rows   int        `json:"rows"`
	Error  string     `json:"error,omitempty"`
}

// RunRecord summarises one consolidation run for the history ledger.
type RunRecord struct {
	ID         string        `json:"id" validate:"required,uuid"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Status     RunStatus     `json:"status"`
	InputDir   string        `json:"input_dir"`
	MasterPath string        `json:"master_path,omitempty"`
	BackupPath string        `json:"backup_path,omitempty"`
	Rows       int           `json:"rows"`
	Columns    int           `json:"columns"`
	First      Period        `json:"first,omitempty" validate:"-"` // zero when no file loaded
	Last       Period        `json:"last,omitempty" validate:"-"`
	Error      string        `json:"error,omitempty"`
	Files      []FileOutcome `json:"files,omitempty"`
}

// Duration returns how long the run took.
func (r RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Loaded counts files that contributed rows.
func (r RunRecord) Loaded() int {
	n := 0
	for _, f := range r.Files {
		if f.Status == FileStatusLoaded {
			n++
		}
	}
	return n
}
