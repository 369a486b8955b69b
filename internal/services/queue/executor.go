package queue

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/blogqa/internal/interfaces"
	"github.com/ternarybob/blogqa/internal/models"
)

// runJob resolves the job's publisher, runs it through the orchestrator, and
// records the outcome — completing, re-queuing, or dead-lettering as
// appropriate.
func (m *Manager) runJob(ctx context.Context, job *models.Job) {
	publisher, err := m.publishers.GetByID(ctx, job.PublisherID)
	if err != nil {
		// Config resolution falling back to hardcoded defaults is logged,
		// not an error — the publisher may have been deleted after the job
		// was queued, or the job predates any publisher registration.
		m.logger.Info().Str("job_id", job.ID).Str("publisher_id", job.PublisherID).Err(err).
			Msg("Worker: publisher not found, using default config")
		publisher = &models.Publisher{ID: job.PublisherID, Config: models.DefaultPublisherConfig()}
	}

	start := time.Now()
	result, err := m.orchestrator.ProcessBlog(ctx, job, publisher)
	durationMS := time.Since(start).Milliseconds()

	if errors.Is(err, interfaces.ErrSkipped) {
		m.logger.Debug().Str("job_id", job.ID).Str("blog_url", job.BlogURL).Msg("Worker: job skipped")
		job.Status = models.JobStatusSkipped
		m.broadcast("job_skipped", job)
		return
	}

	if err != nil {
		m.logger.Warn().
			Str("job_id", job.ID).
			Str("blog_url", job.BlogURL).
			Int64("duration_ms", durationMS).
			Err(err).
			Msg("Worker: job failed")
		m.fail(ctx, job, errorTypeFor(err), err.Error())
		return
	}

	m.logger.Debug().
		Str("job_id", job.ID).
		Str("blog_url", job.BlogURL).
		Int64("duration_ms", durationMS).
		Msg("Worker: job completed")

	if err := m.jobs.Complete(ctx, job.ID, result); err != nil {
		m.logger.Warn().Str("job_id", job.ID).Err(err).Msg("Worker: failed to mark job complete")
		return
	}
	job.Status = models.JobStatusCompleted
	job.Result = result
	m.broadcast("job_completed", job)
}

func (m *Manager) fail(ctx context.Context, job *models.Job, errorType, message string) {
	if err := m.jobs.Fail(ctx, job.ID, errorType, message); err != nil {
		m.logger.Warn().Str("job_id", job.ID).Err(err).Msg("Worker: failed to record job failure")
		return
	}
	job.LastError = message
	job.ErrorType = errorType
	job.FailureCount++

	eventType := "job_failed"
	if job.FailureCount < job.MaxRetries {
		eventType = "job_requeued"
	} else if err := m.publishers.ReleaseBlogSlot(ctx, job.PublisherID, false); err != nil {
		m.logger.Warn().Str("publisher_id", job.PublisherID).Err(err).Msg("Worker: failed to release slot on terminal failure")
	}
	m.broadcast(eventType, job)
}

// classifiableError is implemented by errors that know their own job
// error-type classification (orchestrator/crawler/llm errors).
type classifiableError interface {
	ErrorType() string
}

func errorTypeFor(err error) string {
	if ce, ok := err.(classifiableError); ok {
		return ce.ErrorType()
	}
	return models.ErrorTypeUnknown
}
