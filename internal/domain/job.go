package domain

import "time"

// JobStatus represents the processing state of a job.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Job is a queued link check over a block of text.
type Job struct {
	ID        int64
	Text      string
	Status    JobStatus
	Attempts  int
	Error     string
	Results   []VerifiedLink
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanRetry returns true if the job can be retried.
func (j *Job) CanRetry(maxAttempts int) bool {
	return j.Attempts < maxAttempts && j.Status != StatusCompleted
}

// Broken returns the number of results that failed verification.
func (j *Job) Broken() int {
	n := 0
	for _, r := range j.Results {
		if !r.IsValid {
			n++
		}
	}
	return n
}
