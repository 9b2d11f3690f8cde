// Package report provides structured persistence and retrieval of
// install run records. Records are stored as typed structs keyed by
// run ID so past installations can be re-examined.
package report

import "time"

// Status classifies how far an install run got.
type Status string

const (
	// StatusRejected means the safety gate matched a denylisted
	// pattern; nothing was written or executed.
	StatusRejected Status = "rejected"
	// StatusSetupError means the script could not be materialized to
	// disk; nothing was executed.
	StatusSetupError Status = "setup_error"
	// StatusSpawnError means the shell could not be started or the
	// wait for a run slot was cancelled.
	StatusSpawnError Status = "spawn_error"
	// StatusCompleted means the script ran to an exit status, zero or
	// not. A failing script is a completed run with a non-zero code.
	StatusCompleted Status = "completed"
)

// Store persists and retrieves install records.
type Store interface {
	Save(rec *InstallRecord) error
	Load(runID string) (*InstallRecord, error)
}

// InstallRecord holds everything known about one install invocation,
// from the verdict of the safety gate through the exit status of the
// script. Fields past Status are zero unless the run reached them.
type InstallRecord struct {
	ID     string    `json:"id"`
	Time   time.Time `json:"time"`
	Script string    `json:"script"`
	Status Status    `json:"status"`

	// Terminal detail for runs that never executed.
	RejectedPattern string `json:"rejected_pattern,omitempty"`
	Error           string `json:"error,omitempty"`

	// Execution outcome.
	ExitCode      int    `json:"exit_code"`
	Stdout        string `json:"stdout,omitempty"`
	Stderr        string `json:"stderr,omitempty"`
	Truncated     bool   `json:"truncated,omitempty"`
	TimedOut      bool   `json:"timed_out,omitempty"`
	DecodeWarning bool   `json:"decode_warning,omitempty"`
	DurationMS    int64  `json:"duration_ms,omitempty"`

	// Advisory classification of the combined output.
	Verdict string `json:"verdict,omitempty"`
}

// Executed reports whether the script actually ran to an exit status.
func (r *InstallRecord) Executed() bool {
	return r.Status == StatusCompleted
}

// Succeeded reports a completed run that exited zero.
func (r *InstallRecord) Succeeded() bool {
	return r.Status == StatusCompleted && r.ExitCode == 0
}
