// Package syncjob triggers backend data-sync jobs and polls them to
// completion. A completed job invalidates the affected cache entries so the
// next read returns freshly synced data.
package syncjob

import "time"

// State is the lifecycle state of a sync job as reported by the backend.
type State string

const (
	// StatePending means the job is queued but has not started.
	StatePending State = "pending"

	// StateInProgress means the job is actively syncing data.
	StateInProgress State = "in_progress"

	// StateCompleted means the job finished successfully.
	StateCompleted State = "completed"

	// StateFailed means the job finished with an error.
	StateFailed State = "failed"
)

// Terminal reports whether the state is final. Polling stops on the first
// terminal status.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// JobStatus is one status snapshot for a sync job.
type JobStatus struct {
	// JobID identifies the job across trigger and status calls.
	JobID string `json:"job_id"`

	// State is the lifecycle state at the time of the snapshot.
	State State `json:"state"`

	// StartedAt is when the backend accepted the job.
	StartedAt time.Time `json:"started_at"`

	// CompletedAt is set once the job reaches a terminal state.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// ErrorMessage describes the failure for StateFailed jobs.
	ErrorMessage string `json:"error_message,omitempty"`
}
