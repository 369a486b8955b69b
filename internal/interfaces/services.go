package interfaces

import (
	"context"
	"errors"
	"net/http"

	"github.com/ternarybob/blogqa/internal/models"
)

// ErrSkipped is returned by Orchestrator.ProcessBlog when the threshold gate
// decided not to process the blog this time. The job has already been
// transitioned to skipped by the orchestrator itself — callers must not
// call JobStore.Fail or JobStore.Complete for this outcome.
var ErrSkipped = errors.New("orchestrator: blog skipped, processing threshold not met")

// QueueManager owns the watcher loop, worker pool, and lease reclamation for
// processing_jobs. Submit enqueues (or finds an existing non-terminal job
// for) a blog URL; Start/Stop control the background goroutines.
type QueueManager interface {
	Submit(ctx context.Context, blogURL, publisherID string, cfg models.PublisherConfig) (jobID string, isNew bool, err error)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Stats(ctx context.Context) (*models.JobStats, error)
	JobStatus(ctx context.Context, jobID string) (*models.Job, error)
	Hub() JobEventHub
}

// JobEventHub upgrades HTTP connections to WebSocket and broadcasts job
// lifecycle events (started/completed/requeued/failed/skipped) to connected
// admin clients. Enqueueing a job broadcasts no event.
type JobEventHub interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
	ClientCount() int
}

// SlotReservation is a scoped handle returned by PublisherRegistry.Reserve:
// callers must call Release exactly once, passing whether the blog was
// successfully processed.
type SlotReservation interface {
	Release(ctx context.Context, processed bool) error
}

// PublisherRegistry resolves publishers by domain or API key and enforces
// the per-publisher max-total-blogs quota. The daily blog limit and the
// whitelist are not checked through this interface.
type PublisherRegistry interface {
	ResolveByDomain(ctx context.Context, requestHost string) (*models.Publisher, error)
	ResolveByAPIKey(ctx context.Context, apiKey string) (*models.Publisher, error)
	// Reserve checks MaxTotalBlogs and, if room remains, reserves a slot; it
	// does not check DailyBlogLimit. Callers must Release the returned handle.
	Reserve(ctx context.Context, publisherID string) (SlotReservation, error)
	RecordQuestionsGenerated(ctx context.Context, publisherID string, n int) error
}

// Orchestrator runs the six-step per-blog pipeline: fetch or reuse cached
// content, gate on the processing threshold, summarize, generate questions,
// embed, and persist.
type Orchestrator interface {
	ProcessBlog(ctx context.Context, job *models.Job, publisher *models.Publisher) (resultSummary string, err error)
}

// SimilarityIndex performs cosine-similarity search over stored summary
// embeddings, scoped to a single publisher domain. Results carry the cosine
// score plus the raw_blog_content fields (author, published date, blog id)
// joined in by blog URL.
type SimilarityIndex interface {
	SimilarBlogs(ctx context.Context, domain string, queryEmbedding []float32, topK int) ([]*models.SimilarBlog, error)
}

// Crawler fetches a blog URL and extracts plain text, dispatching on
// Content-Type to HTML tokenization or PDF extraction.
type Crawler interface {
	Fetch(ctx context.Context, url string) (*models.BlogContent, error)
}
