package model

import "time"

// CycleReport records the outcome of one fetch-diff-store-notify cycle.
// It is written to the cycle history and rendered by the report writers.
type CycleReport struct {
	// ID uniquely identifies the cycle. It is attached to every log line
	// emitted during the cycle.
	ID string `json:"id"`

	// StartedAt is when the cycle began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the cycle ended, successfully or not.
	FinishedAt time.Time `json:"finished_at"`

	// PreviousCount is the number of listings in the stored snapshot.
	PreviousCount int `json:"previous_count"`

	// CurrentCount is the number of listings fetched in this cycle.
	CurrentCount int `json:"current_count"`

	// Diff is the identity comparison of the two snapshots.
	Diff DiffResult `json:"diff"`

	// DuplicateIDs lists IDs seen more than once in the fetched snapshot.
	DuplicateIDs []string `json:"duplicate_ids,omitempty"`

	// Replaced is true when the stored snapshot was swapped for the current one.
	Replaced bool `json:"replaced"`

	// Notified is true when the notification was delivered.
	Notified bool `json:"notified"`

	// NotifyError holds the delivery failure message, if any.
	NotifyError string `json:"notify_error,omitempty"`

	// Error holds the message of the error that aborted the cycle, if any.
	Error string `json:"error,omitempty"`
}

// NewCycleReport creates a report for a cycle starting at the given time.
func NewCycleReport(id string, startedAt time.Time) *CycleReport {
	return &CycleReport{
		ID:        id,
		StartedAt: startedAt,
	}
}

// Cycle outcomes returned by CycleReport.Status.
const (
	StatusFailed       = "failed"
	StatusNotifyFailed = "notify failed"
	StatusUnchanged    = "unchanged"
	StatusChanged      = "changed"
)

// Status returns a short human-readable outcome of the cycle.
func (r *CycleReport) Status() string {
	switch {
	case r.Error != "":
		return StatusFailed
	case r.NotifyError != "":
		return StatusNotifyFailed
	case r.Diff.Empty():
		return StatusUnchanged
	default:
		return StatusChanged
	}
}

// Duration returns how long the cycle took.
// It is zero while the cycle is still running.
func (r *CycleReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
