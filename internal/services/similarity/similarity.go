// Package similarity performs cosine-similarity search over stored summary
// embeddings, scoped to a single publisher domain. Expected corpus size per
// domain is small enough that a linear scan meets the recall bar without a
// vector index library — no repo in the pack ships one.
package similarity

import (
	"context"
	"math"
	"sort"

	"github.com/ternarybob/blogqa/internal/interfaces"
	"github.com/ternarybob/blogqa/internal/models"
)

// Index implements interfaces.SimilarityIndex via a linear scan over
// domain-filtered summaries.
type Index struct {
	summaries interfaces.SummaryStore
	content   interfaces.ContentStore
}

// NewIndex wires the index against the summary store and the content store
// used to resolve each hit's author/published_date/blog_id.
func NewIndex(summaries interfaces.SummaryStore, content interfaces.ContentStore) *Index {
	return &Index{summaries: summaries, content: content}
}

// SimilarBlogs returns the topK summaries in domain whose embeddings are
// closest to queryEmbedding by cosine similarity, descending, each joined
// against its raw_blog_content row for author/published_date/blog_id.
func (idx *Index) SimilarBlogs(ctx context.Context, domain string, queryEmbedding []float32, topK int) ([]*models.SimilarBlog, error) {
	candidates, err := idx.summaries.ListByDomain(ctx, domain)
	if err != nil {
		return nil, err
	}

	type scored struct {
		summary *models.Summary
		score   float64
	}

	scoredList := make([]scored, 0, len(candidates))
	for _, s := range candidates {
		if len(s.Embedding) == 0 {
			continue
		}
		scoredList = append(scoredList, scored{summary: s, score: cosineSimilarity(queryEmbedding, s.Embedding)})
	}

	sort.Slice(scoredList, func(i, j int) bool { return scoredList[i].score > scoredList[j].score })

	if topK > 0 && len(scoredList) > topK {
		scoredList = scoredList[:topK]
	}

	results := make([]*models.SimilarBlog, len(scoredList))
	for i, s := range scoredList {
		hit := &models.SimilarBlog{
			BlogURL:   s.summary.BlogURL,
			Title:     s.summary.Title,
			Summary:   s.summary.Summary,
			KeyPoints: s.summary.KeyPoints,
			Score:     s.score,
		}
		if content, err := idx.content.Get(ctx, s.summary.BlogURL); err == nil && content != nil {
			hit.BlogID = content.ID
			hit.Author = content.Author
			hit.PublishedDate = content.PublishedDate
		}
		results[i] = hit
	}
	return results, nil
}

// cosineSimilarity returns the cosine of the angle between a and b, or 0 if
// either vector is zero-length or the dimensions don't match.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var _ interfaces.SimilarityIndex = (*Index)(nil)
