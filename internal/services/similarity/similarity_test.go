package similarity

import (
	"context"
	"testing"

	"github.com/ternarybob/blogqa/internal/models"
)

type fakeSummaryStore struct {
	byDomain map[string][]*models.Summary
}

func (f *fakeSummaryStore) Upsert(ctx context.Context, summary *models.Summary) error { return nil }
func (f *fakeSummaryStore) Get(ctx context.Context, blogURL string) (*models.Summary, error) {
	return nil, nil
}
func (f *fakeSummaryStore) ListByDomain(ctx context.Context, domain string) ([]*models.Summary, error) {
	return f.byDomain[domain], nil
}
func (f *fakeSummaryStore) Delete(ctx context.Context, blogURL string) error { return nil }

type fakeContentStore struct{}

func (f *fakeContentStore) Get(ctx context.Context, normalizedURL string) (*models.BlogContent, error) {
	return nil, nil
}
func (f *fakeContentStore) Create(ctx context.Context, content *models.BlogContent) error { return nil }
func (f *fakeContentStore) IncrementTriggered(ctx context.Context, normalizedURL string) (int, error) {
	return 0, nil
}
func (f *fakeContentStore) GetByID(ctx context.Context, id string) (*models.BlogContent, error) {
	return nil, nil
}
func (f *fakeContentStore) Delete(ctx context.Context, normalizedURL string) error { return nil }

func TestSimilarBlogs_RanksByCosineSimilarity(t *testing.T) {
	store := &fakeSummaryStore{byDomain: map[string][]*models.Summary{
		"example.com": {
			{BlogURL: "https://example.com/a", Embedding: []float32{1, 0, 0}},
			{BlogURL: "https://example.com/b", Embedding: []float32{0, 1, 0}},
			{BlogURL: "https://example.com/c", Embedding: []float32{0.9, 0.1, 0}},
		},
	}}
	idx := NewIndex(store, &fakeContentStore{})

	results, err := idx.SimilarBlogs(context.Background(), "example.com", []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("SimilarBlogs: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].BlogURL != "https://example.com/a" {
		t.Fatalf("expected exact match first, got %s", results[0].BlogURL)
	}
	if results[1].BlogURL != "https://example.com/c" {
		t.Fatalf("expected near match second, got %s", results[1].BlogURL)
	}
}

func TestSimilarBlogs_SkipsEmptyEmbeddings(t *testing.T) {
	store := &fakeSummaryStore{byDomain: map[string][]*models.Summary{
		"example.com": {
			{BlogURL: "https://example.com/a", Embedding: nil},
			{BlogURL: "https://example.com/b", Embedding: []float32{1, 0}},
		},
	}}
	idx := NewIndex(store, &fakeContentStore{})

	results, err := idx.SimilarBlogs(context.Background(), "example.com", []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("SimilarBlogs: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result (empty embedding skipped), got %d", len(results))
	}
}

func TestSimilarBlogs_EmptyDomain(t *testing.T) {
	store := &fakeSummaryStore{byDomain: map[string][]*models.Summary{}}
	idx := NewIndex(store, &fakeContentStore{})

	results, err := idx.SimilarBlogs(context.Background(), "nope.com", []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("SimilarBlogs: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected 0 results, got %d", len(results))
	}
}
