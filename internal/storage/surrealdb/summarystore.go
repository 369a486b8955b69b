package surrealdb

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/ternarybob/blogqa/internal/common"
	"github.com/ternarybob/blogqa/internal/interfaces"
	"github.com/ternarybob/blogqa/internal/models"
	"github.com/ternarybob/blogqa/internal/urlnorm"
)

const summarySelectFields = "blog_url, title, summary, key_points, embedding, created_at"

// SummaryStore implements interfaces.SummaryStore against table blog_summaries.
type SummaryStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewSummaryStore creates a new SummaryStore.
func NewSummaryStore(db *surrealdb.DB, logger *common.Logger) *SummaryStore {
	return &SummaryStore{db: db, logger: logger}
}

// Upsert writes a summary keyed by blog_url.
func (s *SummaryStore) Upsert(ctx context.Context, summary *models.Summary) error {
	if summary.CreatedAt.IsZero() {
		summary.CreatedAt = time.Now()
	}

	sql := `UPSERT $rid SET
		blog_url = $blog_url, title = $title, summary = $summary, key_points = $key_points,
		embedding = $embedding, created_at = $created_at`
	vars := map[string]any{
		"rid":        surrealmodels.NewRecordID("blog_summaries", recordKeyFor(summary.BlogURL)),
		"blog_url":   summary.BlogURL,
		"title":      summary.Title,
		"summary":    summary.Summary,
		"key_points": summary.KeyPoints,
		"embedding":  summary.Embedding,
		"created_at": summary.CreatedAt,
	}
	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to upsert summary: %w", err)
	}
	return nil
}

// Get fetches a summary by blog URL.
func (s *SummaryStore) Get(ctx context.Context, blogURL string) (*models.Summary, error) {
	sql := "SELECT " + summarySelectFields + " FROM blog_summaries WHERE blog_url = $blog_url LIMIT 1"
	results, err := surrealdb.Query[[]models.Summary](ctx, s.db, sql, map[string]any{"blog_url": blogURL})
	if err != nil {
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	summary := (*results)[0].Result[0]
	return &summary, nil
}

// ListByDomain returns every summary whose blog_url host equals domain — the
// similarity search candidate pool.
func (s *SummaryStore) ListByDomain(ctx context.Context, domain string) ([]*models.Summary, error) {
	sql := "SELECT " + summarySelectFields + " FROM blog_summaries"
	results, err := surrealdb.Query[[]models.Summary](ctx, s.db, sql, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}
	if results == nil || len(*results) == 0 {
		return nil, nil
	}

	var matched []*models.Summary
	for i := range (*results)[0].Result {
		summary := &(*results)[0].Result[i]
		if urlnorm.Domain(summary.BlogURL) == domain {
			matched = append(matched, summary)
		}
	}
	return matched, nil
}

// Delete removes the summary for a blog URL.
func (s *SummaryStore) Delete(ctx context.Context, blogURL string) error {
	sql := "DELETE FROM blog_summaries WHERE blog_url = $blog_url"
	if _, err := surrealdb.Query[any](ctx, s.db, sql, map[string]any{"blog_url": blogURL}); err != nil {
		return fmt.Errorf("failed to delete summary: %w", err)
	}
	return nil
}

var _ interfaces.SummaryStore = (*SummaryStore)(nil)
