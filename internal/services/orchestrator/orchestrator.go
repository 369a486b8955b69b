// Package orchestrator runs the per-blog processing pipeline: acquire
// content, gate on the repeat-view threshold, fan out to the LLM registry,
// and persist the summary and generated questions.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ternarybob/blogqa/internal/common"
	"github.com/ternarybob/blogqa/internal/interfaces"
	"github.com/ternarybob/blogqa/internal/models"
)

// Orchestrator implements interfaces.Orchestrator.
type Orchestrator struct {
	jobs       interfaces.JobStore
	content    interfaces.ContentStore
	summaries  interfaces.SummaryStore
	questions  interfaces.QuestionStore
	publishers interfaces.PublisherStore
	crawler    interfaces.Crawler
	llm        interfaces.LLMRegistry
	logger     *common.Logger

	embeddingModel string
}

// New wires an Orchestrator from the document-store collections, the
// publisher registry's relational store, a crawler, and the LLM registry.
// embeddingModel is the service-wide embedding model: embeddings of
// summaries and of questions must share one dimension to be comparable in
// §4.7's similarity search, so it is not publisher-configurable.
func New(
	documents interfaces.DocumentStore,
	publishers interfaces.PublisherStore,
	crawler interfaces.Crawler,
	llmRegistry interfaces.LLMRegistry,
	embeddingModel string,
	logger *common.Logger,
) *Orchestrator {
	return &Orchestrator{
		jobs:           documents.Jobs(),
		content:        documents.Content(),
		summaries:      documents.Summaries(),
		questions:      documents.Questions(),
		publishers:     publishers,
		crawler:        crawler,
		llm:            llmRegistry,
		embeddingModel: embeddingModel,
		logger:         logger,
	}
}

// ProcessBlog runs the six-step pipeline for a single claimed job.
func (o *Orchestrator) ProcessBlog(ctx context.Context, job *models.Job, publisher *models.Publisher) (string, error) {
	cfg := resolveConfig(job, publisher)

	content, err := o.acquireContent(ctx, job.BlogURL)
	if err != nil {
		return "", err
	}

	triggered, err := o.content.IncrementTriggered(ctx, job.BlogURL)
	if err != nil {
		return "", dbErrorf("incrementing triggered_count: %v", err)
	}

	if triggered <= cfg.ThresholdBeforeProcessingBlog {
		if err := o.jobs.Skip(ctx, job.ID, "threshold_not_met"); err != nil {
			o.logger.Warn().Str("job_id", job.ID).Err(err).Msg("Orchestrator: failed to mark job skipped")
		}
		if err := o.publishers.ReleaseBlogSlot(ctx, job.PublisherID, false); err != nil {
			o.logger.Warn().Str("publisher_id", job.PublisherID).Err(err).Msg("Orchestrator: failed to release slot on skip")
		}
		return "", interfaces.ErrSkipped
	}

	generated, err := o.generate(ctx, content, cfg)
	if err != nil {
		return "", err
	}

	if err := o.persist(ctx, job, content, generated); err != nil {
		return "", err
	}

	if err := o.publishers.ReleaseBlogSlot(ctx, job.PublisherID, true); err != nil {
		o.logger.Warn().Str("publisher_id", job.PublisherID).Err(err).Msg("Orchestrator: failed to release slot")
	}
	if err := o.publishers.IncrementQuestionsGenerated(ctx, job.PublisherID, len(generated.questions)); err != nil {
		o.logger.Warn().Str("publisher_id", job.PublisherID).Err(err).Msg("Orchestrator: failed to record questions generated")
	}

	return fmt.Sprintf("generated %d questions for %s", len(generated.questions), job.BlogURL), nil
}

func (o *Orchestrator) persist(ctx context.Context, job *models.Job, content *models.BlogContent, generated *genResult) error {
	summary := &models.Summary{
		BlogURL:   job.BlogURL,
		Title:     generated.summary.Title,
		Summary:   generated.summary.Summary,
		KeyPoints: generated.summary.KeyPoints,
		Embedding: generated.embedding,
		CreatedAt: time.Now(),
	}
	if err := o.summaries.Upsert(ctx, summary); err != nil {
		return dbErrorf("upserting summary: %v", err)
	}

	questions := make([]*models.Question, 0, len(generated.questions))
	for _, q := range generated.questions {
		questions = append(questions, &models.Question{
			BlogURL:   job.BlogURL,
			BlogID:    content.ID,
			Question:  q.item.Question,
			Answer:    q.item.Answer,
			Icon:      q.item.Icon,
			Embedding: q.embedding,
			CreatedAt: time.Now(),
		})
	}
	if err := o.questions.BatchInsert(ctx, questions); err != nil {
		return dbErrorf("inserting questions: %v", err)
	}
	return nil
}

// resolveConfig prefers the config snapshot taken at enqueue time (§4.5
// step 1's "resolve config" is really "use what was resolved then") so a
// publisher's settings changing mid-flight does not retroactively alter an
// already-queued job. Falls back to the publisher's live config, and
// finally to the hardcoded defaults, if the snapshot is missing or invalid.
func resolveConfig(job *models.Job, publisher *models.Publisher) models.PublisherConfig {
	if job.Config != "" {
		var cfg models.PublisherConfig
		if err := json.Unmarshal([]byte(job.Config), &cfg); err == nil {
			return cfg
		}
	}
	if publisher != nil {
		return publisher.Config
	}
	return models.DefaultPublisherConfig()
}

var _ interfaces.Orchestrator = (*Orchestrator)(nil)
