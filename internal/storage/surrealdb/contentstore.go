package surrealdb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/ternarybob/blogqa/internal/common"
	"github.com/ternarybob/blogqa/internal/interfaces"
	"github.com/ternarybob/blogqa/internal/models"
)

const contentSelectFields = "content_id as id, url, title, author, published_date, word_count, " +
	"extracted_text, triggered_count, created_at"

// ContentStore implements interfaces.ContentStore against table raw_blog_content.
type ContentStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewContentStore creates a new ContentStore.
func NewContentStore(db *surrealdb.DB, logger *common.Logger) *ContentStore {
	return &ContentStore{db: db, logger: logger}
}

// Get fetches cached content by its normalized URL.
func (s *ContentStore) Get(ctx context.Context, normalizedURL string) (*models.BlogContent, error) {
	sql := "SELECT " + contentSelectFields + " FROM raw_blog_content WHERE url = $url LIMIT 1"
	results, err := surrealdb.Query[[]models.BlogContent](ctx, s.db, sql, map[string]any{"url": normalizedURL})
	if err != nil {
		return nil, fmt.Errorf("failed to get blog content: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	content := (*results)[0].Result[0]
	return &content, nil
}

// Create persists newly crawled content with triggered_count = 0.
func (s *ContentStore) Create(ctx context.Context, content *models.BlogContent) error {
	if content.ID == "" {
		content.ID = uuid.New().String()
	}
	if content.CreatedAt.IsZero() {
		content.CreatedAt = time.Now()
	}

	sql := `UPSERT $rid SET
		content_id = $content_id, url = $url, title = $title, author = $author,
		published_date = $published_date, word_count = $word_count, extracted_text = $extracted_text,
		triggered_count = $triggered_count, created_at = $created_at`
	vars := map[string]any{
		"rid":             surrealmodels.NewRecordID("raw_blog_content", content.ID),
		"content_id":      content.ID,
		"url":             content.URL,
		"title":           content.Title,
		"author":          content.Author,
		"published_date":  content.PublishedDate,
		"word_count":      content.WordCount,
		"extracted_text":  content.ExtractedText,
		"triggered_count": content.TriggeredCount,
		"created_at":      content.CreatedAt,
	}
	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to create blog content: %w", err)
	}
	return nil
}

// IncrementTriggered atomically increments triggered_count and returns the
// post-increment value.
func (s *ContentStore) IncrementTriggered(ctx context.Context, normalizedURL string) (int, error) {
	sql := "UPDATE raw_blog_content SET triggered_count += 1 WHERE url = $url RETURN AFTER"
	type row struct {
		TriggeredCount int `json:"triggered_count"`
	}
	results, err := surrealdb.Query[[]row](ctx, s.db, sql, map[string]any{"url": normalizedURL})
	if err != nil {
		return 0, fmt.Errorf("failed to increment triggered_count: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return 0, fmt.Errorf("blog content not found for url %s", normalizedURL)
	}
	return (*results)[0].Result[0].TriggeredCount, nil
}

// GetByID fetches content by its content_id.
func (s *ContentStore) GetByID(ctx context.Context, id string) (*models.BlogContent, error) {
	sql := "SELECT " + contentSelectFields + " FROM $rid"
	results, err := surrealdb.Query[[]models.BlogContent](ctx, s.db, sql, map[string]any{
		"rid": surrealmodels.NewRecordID("raw_blog_content", id),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get blog content by id: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	content := (*results)[0].Result[0]
	return &content, nil
}

// Delete removes cached content for a URL.
func (s *ContentStore) Delete(ctx context.Context, normalizedURL string) error {
	sql := "DELETE FROM raw_blog_content WHERE url = $url"
	if _, err := surrealdb.Query[any](ctx, s.db, sql, map[string]any{"url": normalizedURL}); err != nil {
		return fmt.Errorf("failed to delete blog content: %w", err)
	}
	return nil
}

var _ interfaces.ContentStore = (*ContentStore)(nil)
