package model

import "time"

const (
	RefreshReasonManual = "manual"
	RefreshReasonPoll   = "poll"

	JobStatusQueued     = "Queued"
	JobStatusProcessing = "Processing"
	JobStatusCompleted  = "Completed"
	JobStatusFailed     = "Failed"
	JobStatusSkipped    = "Skipped" // Another refresh of the same handle held the lock
)

type RefreshJob struct {
	ID         string    `json:"id"`
	Handle     string    `json:"handle"`
	Reason     string    `json:"reason"`
	Status     string    `json:"status"`
	Attempts   int       `json:"attempts"`
	LastError  *string   `json:"last_error,omitempty"`
	SnapshotID *string   `json:"snapshot_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (j *RefreshJob) Done() bool {
	switch j.Status {
	case JobStatusCompleted, JobStatusFailed, JobStatusSkipped:
		return true
	}
	return false
}
