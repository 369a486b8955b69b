// Package interfaces defines the service and storage contracts shared
// across the API server, worker, and orchestrator.
package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/blogqa/internal/models"
)

// JobStore is the jobs-collection queue: CreateJob/ClaimNext/Heartbeat/
// Complete/Fail/Skip/Cancel/ReclaimStale/Stats, all implemented atomically
// against the document store.
type JobStore interface {
	// CreateJob finds an existing non-terminal job for blogURL, or inserts a
	// fresh queued job. Returns the job id and whether it was newly created.
	CreateJob(ctx context.Context, blogURL, publisherID, configSnapshot string) (jobID string, isNew bool, err error)

	// ClaimNext atomically selects the oldest queued job and marks it processing.
	// Returns nil, nil when the queue is empty.
	ClaimNext(ctx context.Context, workerID string) (*models.Job, error)

	// Heartbeat refreshes heartbeat_at only if workerID still owns the job.
	Heartbeat(ctx context.Context, jobID, workerID string) error

	// Complete transitions a job to completed, recording the result summary.
	Complete(ctx context.Context, jobID, result string) error

	// Fail increments failure_count; transitions to failed (terminal) once
	// failure_count reaches max_retries, otherwise re-queues.
	Fail(ctx context.Context, jobID, errorType, errorMessage string) error

	// Skip transitions a job to the terminal skipped state.
	Skip(ctx context.Context, jobID, reason string) error

	// Cancel transitions a queued job to cancelled; fails if not queued.
	Cancel(ctx context.Context, jobID string) error

	// ReclaimStale forces any processing job whose heartbeat is older than
	// staleAfter back through the failure path, as if it had failed once.
	ReclaimStale(ctx context.Context, now time.Time, staleAfter time.Duration) (int, error)

	// Stats returns grouped counts by status.
	Stats(ctx context.Context) (*models.JobStats, error)

	GetJob(ctx context.Context, jobID string) (*models.Job, error)

	// FindNonTerminalByURL returns the non-terminal job for blogURL, if any.
	FindNonTerminalByURL(ctx context.Context, blogURL string) (*models.Job, error)

	// CountCompletedSince counts jobs for publisherID completed at or after since.
	CountCompletedSince(ctx context.Context, publisherID string, since time.Time) (int, error)

	// ResetOrphaned resets processing jobs back to queued on worker startup,
	// recovering from a crash that happened mid-lease.
	ResetOrphaned(ctx context.Context) (int, error)
}

// ContentStore manages raw_blog_content.
type ContentStore interface {
	Get(ctx context.Context, normalizedURL string) (*models.BlogContent, error)
	// Create persists newly crawled content with triggered_count = 0.
	Create(ctx context.Context, content *models.BlogContent) error
	// IncrementTriggered atomically increments triggered_count and returns
	// the post-increment value — the value the threshold gate evaluates.
	IncrementTriggered(ctx context.Context, normalizedURL string) (int, error)
	GetByID(ctx context.Context, id string) (*models.BlogContent, error)
	Delete(ctx context.Context, normalizedURL string) error
}

// SummaryStore manages blog_summaries.
type SummaryStore interface {
	Upsert(ctx context.Context, summary *models.Summary) error
	Get(ctx context.Context, blogURL string) (*models.Summary, error)
	// ListByDomain returns every summary whose blog_url host equals domain —
	// the similarity search candidate pool.
	ListByDomain(ctx context.Context, domain string) ([]*models.Summary, error)
	Delete(ctx context.Context, blogURL string) error
}

// QuestionStore manages processed_questions.
type QuestionStore interface {
	BatchInsert(ctx context.Context, questions []*models.Question) error
	ListByURL(ctx context.Context, blogURL string, randomize bool) ([]*models.Question, error)
	Get(ctx context.Context, id string) (*models.Question, error)
	IncrementClickCount(ctx context.Context, id string) error
	DeleteByURL(ctx context.Context, blogURL string) (int, error)
}

// DocumentStore groups the three content-cache collections plus the job
// queue — everything backed by the shared document store.
type DocumentStore interface {
	Jobs() JobStore
	Content() ContentStore
	Summaries() SummaryStore
	Questions() QuestionStore
	Close() error
}

// PublisherStore is the relational-store account/quota registry (table
// "publishers").
type PublisherStore interface {
	GetByDomain(ctx context.Context, domain string, allowSubdomain bool) (*models.Publisher, error)
	GetByAPIKeyHash(ctx context.Context, apiKey string) (*models.Publisher, error)
	GetByID(ctx context.Context, publisherID string) (*models.Publisher, error)
	Create(ctx context.Context, p *models.Publisher) error

	// ReserveBlogSlot atomically checks max_total_blogs and, if room remains,
	// increments blog_slots_reserved — all inside one transaction with
	// row-level locking.
	ReserveBlogSlot(ctx context.Context, publisherID string) error

	// ReleaseBlogSlot atomically decrements blog_slots_reserved (clamped at
	// zero) and, if processed, increments total_blogs_processed.
	ReleaseBlogSlot(ctx context.Context, publisherID string, processed bool) error

	IncrementQuestionsGenerated(ctx context.Context, publisherID string, n int) error

	Close() error
}
