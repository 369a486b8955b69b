package models

import "time"

// BlogContent is the crawled-text cache entry (collection "raw_blog_content").
type BlogContent struct {
	ID             string    `json:"id"`
	URL            string    `json:"url"` // normalized, unique
	Title          string    `json:"title"`
	Author         string    `json:"author"`
	PublishedDate  time.Time `json:"published_date,omitempty"`
	WordCount      int       `json:"word_count"`
	ExtractedText  string    `json:"extracted_text"`
	TriggeredCount int       `json:"triggered_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// IsUsable reports whether the cached content satisfies §4.5 ContentRetrieval's
// cache-hit condition: non-empty text and at least 50 words.
func (b *BlogContent) IsUsable() bool {
	return b != nil && b.ExtractedText != "" && b.WordCount >= 50
}

// Summary is the per-blog LLM summary (collection "blog_summaries").
type Summary struct {
	BlogURL   string    `json:"blog_url"` // unique
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	KeyPoints []string  `json:"key_points"`
	Embedding []float32 `json:"embedding"`
	CreatedAt time.Time `json:"created_at"`
}

// SimilarBlog is one ranked similarity-search hit: a stored summary joined
// against its raw_blog_content row, carrying the cosine score that produced
// the rank.
type SimilarBlog struct {
	BlogURL       string    `json:"blog_url"`
	BlogID        string    `json:"blog_id"`
	Title         string    `json:"title"`
	Summary       string    `json:"summary"`
	KeyPoints     []string  `json:"key_points"`
	Author        string    `json:"author"`
	PublishedDate time.Time `json:"published_date,omitempty"`
	Score         float64   `json:"score"`
}

// Question is a generated Q&A pair (collection "processed_questions").
type Question struct {
	ID         string    `json:"id"`
	BlogURL    string    `json:"blog_url"`
	BlogID     string    `json:"blog_id"` // BlogContent.ID — shared by all questions of the same blog_url
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Icon       string    `json:"icon"`
	Embedding  []float32 `json:"embedding"`
	ClickCount int       `json:"click_count"`
	CreatedAt  time.Time `json:"created_at"`
}
