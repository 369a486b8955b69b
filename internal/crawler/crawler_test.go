package crawler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func longParagraph(words int) string {
	return strings.Repeat("word ", words)
}

func TestFetch_HTML_ExtractsTextAndTitle(t *testing.T) {
	body := `<html><head><title>My Post</title></head><body>` +
		`<nav>skip this nav text</nav>` +
		`<article><p>` + longParagraph(60) + `</p></article>` +
		`<footer>skip this footer text</footer>` +
		`</body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(body))
	}))
	defer srv.Close()

	client := NewClient(5*time.Second, WithRateLimit(100))
	content, err := client.Fetch(t.Context(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if content.Title != "My Post" {
		t.Fatalf("expected title %q, got %q", "My Post", content.Title)
	}
	if strings.Contains(content.ExtractedText, "skip this") {
		t.Fatalf("expected nav/footer text to be excluded, got: %q", content.ExtractedText)
	}
	if content.WordCount < MinWordCount {
		t.Fatalf("expected at least %d words, got %d", MinWordCount, content.WordCount)
	}
}

func TestFetch_TooFewWords_Fails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><p>too short</p></body></html>`))
	}))
	defer srv.Close()

	client := NewClient(5*time.Second, WithRateLimit(100))
	_, err := client.Fetch(t.Context(), srv.URL)
	if err == nil {
		t.Fatal("expected an error for content under the minimum word count")
	}
	if ce, ok := err.(*CrawlError); !ok || ce.ErrorType() != "crawl" {
		t.Fatalf("expected a *CrawlError, got %T: %v", err, err)
	}
}

func TestFetch_NonSuccessStatus_Fails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(5*time.Second, WithRateLimit(100))
	_, err := client.Fetch(t.Context(), srv.URL)
	if err == nil {
		t.Fatal("expected an error for a 404 response")
	}
}

func TestFetch_ExceedsMaxContentBytes_Fails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(longParagraph(10000)))
	}))
	defer srv.Close()

	client := NewClient(5*time.Second, WithRateLimit(100), WithMaxContentBytes(100))
	_, err := client.Fetch(t.Context(), srv.URL)
	if err == nil {
		t.Fatal("expected an error for content exceeding max_content_bytes")
	}
}
