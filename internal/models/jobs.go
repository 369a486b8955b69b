package models

import "time"

// Job status values. A job is terminal once it reaches completed, cancelled,
// skipped, or failed with failure_count == max_retries.
const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
	JobStatusCancelled  = "cancelled"
	JobStatusSkipped    = "skipped"
)

// Non-terminal statuses — at most one job may exist per blog_url in either.
var NonTerminalStatuses = []string{JobStatusQueued, JobStatusProcessing}

// Error-type taxonomy used for both Job.ErrorType and error-metric labels.
const (
	ErrorTypeCrawl      = "crawl"
	ErrorTypeLLM        = "llm"
	ErrorTypeDB         = "db"
	ErrorTypeValidation = "validation"
	ErrorTypeUnknown    = "unknown"
)

// DefaultMaxRetries is the default number of attempts a job gets before
// being dead-lettered.
const DefaultMaxRetries = 3

// Job represents a unit of work in the processing_jobs collection — the
// queue itself.
type Job struct {
	ID              string    `json:"job_id"`
	BlogURL         string    `json:"blog_url"` // normalized
	PublisherID     string    `json:"publisher_id"`
	Config          string    `json:"config,omitempty"` // JSON snapshot of PublisherConfig at enqueue time
	Status          string    `json:"status"`
	FailureCount    int       `json:"failure_count"`
	MaxRetries      int       `json:"max_retries"`
	LastError       string    `json:"last_error,omitempty"`
	ErrorType       string    `json:"error_type,omitempty"`
	WorkerID        string    `json:"worker_id,omitempty"` // set iff status == processing
	HeartbeatAt     time.Time `json:"heartbeat_at,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	StartedAt       time.Time `json:"started_at,omitempty"`
	CompletedAt     time.Time `json:"completed_at,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
	Result          string    `json:"result,omitempty"` // opaque summary of outcome
	ReprocessedCount int      `json:"reprocessed_count"`
}

// IsTerminal reports whether the job will never change state again.
func (j *Job) IsTerminal() bool {
	switch j.Status {
	case JobStatusCompleted, JobStatusCancelled, JobStatusSkipped:
		return true
	case JobStatusFailed:
		return j.FailureCount >= j.MaxRetries
	default:
		return false
	}
}

// JobEvent is broadcast over the job WebSocket hub when a job's state changes.
type JobEvent struct {
	Type      string    `json:"type"` // job_started, job_completed, job_requeued, job_failed, job_skipped (no event on enqueue)
	Job       *Job      `json:"job"`
	Timestamp time.Time `json:"timestamp"`
	QueueSize int       `json:"queue_size"`
}

// JobStats is the grouped-count aggregation returned by Stats().
type JobStats struct {
	Queued     int `json:"queued"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Cancelled  int `json:"cancelled"`
	Skipped    int `json:"skipped"`
}
