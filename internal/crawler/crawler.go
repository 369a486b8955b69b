// Package crawler fetches a blog URL and extracts its main text, dispatching
// on Content-Type to HTML tokenization or PDF extraction.
package crawler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ternarybob/blogqa/internal/common"
	"github.com/ternarybob/blogqa/internal/interfaces"
	"github.com/ternarybob/blogqa/internal/models"
)

// MinWordCount is the minimum extracted word count for usable content.
const MinWordCount = 50

// CrawlError classifies a crawl failure for Job.error_type.
type CrawlError struct {
	msg string
}

func (e *CrawlError) Error() string  { return e.msg }
func (e *CrawlError) ErrorType() string { return models.ErrorTypeCrawl }

func crawlErrorf(format string, args ...interface{}) error {
	return &CrawlError{msg: fmt.Sprintf(format, args...)}
}

// Client implements interfaces.Crawler over net/http.
type Client struct {
	httpClient      *http.Client
	logger          *common.Logger
	limiter         *rate.Limiter
	maxContentBytes int64
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithRateLimit bounds fetches per second against target hosts.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond) }
}

// WithMaxContentBytes bounds the body size read from any single fetch.
func WithMaxContentBytes(n int64) ClientOption {
	return func(c *Client) { c.maxContentBytes = n }
}

// NewClient creates a crawler client with the given per-fetch timeout.
func NewClient(timeout time.Duration, opts ...ClientOption) *Client {
	c := &Client{
		httpClient:      &http.Client{Timeout: timeout},
		logger:          common.NewSilentLogger(),
		limiter:         rate.NewLimiter(rate.Limit(2), 2),
		maxContentBytes: 10 * 1024 * 1024,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch retrieves url, extracts plain text, and returns it as BlogContent
// with TriggeredCount left at zero.
func (c *Client) Fetch(ctx context.Context, url string) (*models.BlogContent, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, crawlErrorf("rate limit wait: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, crawlErrorf("building request: %v", err)
	}
	req.Header.Set("User-Agent", "blogqa-crawler/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, crawlErrorf("fetching %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, crawlErrorf("fetching %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxContentBytes+1))
	if err != nil {
		return nil, crawlErrorf("reading body of %s: %v", url, err)
	}
	if int64(len(body)) > c.maxContentBytes {
		return nil, crawlErrorf("content of %s exceeds max size of %d bytes", url, c.maxContentBytes)
	}
	if len(body) == 0 {
		return nil, crawlErrorf("empty body from %s", url)
	}

	contentType := resp.Header.Get("Content-Type")

	var text, title string
	if strings.Contains(contentType, "application/pdf") {
		text, title, err = extractPDF(bytes.NewReader(body), int64(len(body)))
	} else {
		text, title, err = extractHTML(bytes.NewReader(body))
	}
	if err != nil {
		return nil, crawlErrorf("extracting text from %s: %v", url, err)
	}

	words := wordCount(text)
	if words < MinWordCount {
		return nil, crawlErrorf("extracted only %d words from %s, need at least %d", words, url, MinWordCount)
	}

	return &models.BlogContent{
		URL:           url,
		Title:         title,
		ExtractedText: text,
		WordCount:     words,
		CreatedAt:     time.Now(),
	}, nil
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}

var _ interfaces.Crawler = (*Client)(nil)
