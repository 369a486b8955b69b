package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ternarybob/blogqa/internal/common"
	"github.com/ternarybob/blogqa/internal/interfaces"
	"github.com/ternarybob/blogqa/internal/models"
)

// --- in-memory fakes ---

type fakeJobStore struct {
	skipped map[string]string
}

func (f *fakeJobStore) CreateJob(ctx context.Context, blogURL, publisherID, configSnapshot string) (string, bool, error) {
	return "", false, nil
}
func (f *fakeJobStore) ClaimNext(ctx context.Context, workerID string) (*models.Job, error) {
	return nil, nil
}
func (f *fakeJobStore) Heartbeat(ctx context.Context, jobID, workerID string) error { return nil }
func (f *fakeJobStore) Complete(ctx context.Context, jobID, result string) error    { return nil }
func (f *fakeJobStore) Fail(ctx context.Context, jobID, errorType, errorMessage string) error {
	return nil
}
func (f *fakeJobStore) Skip(ctx context.Context, jobID, reason string) error {
	if f.skipped == nil {
		f.skipped = make(map[string]string)
	}
	f.skipped[jobID] = reason
	return nil
}
func (f *fakeJobStore) Cancel(ctx context.Context, jobID string) error { return nil }
func (f *fakeJobStore) ReclaimStale(ctx context.Context, now time.Time, staleAfter time.Duration) (int, error) {
	return 0, nil
}
func (f *fakeJobStore) Stats(ctx context.Context) (*models.JobStats, error) { return nil, nil }
func (f *fakeJobStore) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	return nil, nil
}
func (f *fakeJobStore) FindNonTerminalByURL(ctx context.Context, blogURL string) (*models.Job, error) {
	return nil, nil
}
func (f *fakeJobStore) CountCompletedSince(ctx context.Context, publisherID string, since time.Time) (int, error) {
	return 0, nil
}
func (f *fakeJobStore) ResetOrphaned(ctx context.Context) (int, error) { return 0, nil }

type fakeContentStore struct {
	stored map[string]*models.BlogContent
	get    func(ctx context.Context, url string) (*models.BlogContent, error)
}

func (f *fakeContentStore) Get(ctx context.Context, normalizedURL string) (*models.BlogContent, error) {
	if f.get != nil {
		return f.get(ctx, normalizedURL)
	}
	return f.stored[normalizedURL], nil
}
func (f *fakeContentStore) Create(ctx context.Context, content *models.BlogContent) error {
	if f.stored == nil {
		f.stored = make(map[string]*models.BlogContent)
	}
	content.ID = "content-1"
	f.stored[content.URL] = content
	return nil
}
func (f *fakeContentStore) IncrementTriggered(ctx context.Context, normalizedURL string) (int, error) {
	c := f.stored[normalizedURL]
	c.TriggeredCount++
	return c.TriggeredCount, nil
}
func (f *fakeContentStore) GetByID(ctx context.Context, id string) (*models.BlogContent, error) {
	return nil, nil
}
func (f *fakeContentStore) Delete(ctx context.Context, normalizedURL string) error { return nil }

type fakeSummaryStore struct {
	upserted *models.Summary
}

func (f *fakeSummaryStore) Upsert(ctx context.Context, summary *models.Summary) error {
	f.upserted = summary
	return nil
}
func (f *fakeSummaryStore) Get(ctx context.Context, blogURL string) (*models.Summary, error) {
	return nil, nil
}
func (f *fakeSummaryStore) ListByDomain(ctx context.Context, domain string) ([]*models.Summary, error) {
	return nil, nil
}
func (f *fakeSummaryStore) Delete(ctx context.Context, blogURL string) error { return nil }

type fakeQuestionStore struct {
	inserted []*models.Question
}

func (f *fakeQuestionStore) BatchInsert(ctx context.Context, questions []*models.Question) error {
	f.inserted = questions
	return nil
}
func (f *fakeQuestionStore) ListByURL(ctx context.Context, blogURL string, randomize bool) ([]*models.Question, error) {
	return nil, nil
}
func (f *fakeQuestionStore) Get(ctx context.Context, id string) (*models.Question, error) {
	return nil, nil
}
func (f *fakeQuestionStore) IncrementClickCount(ctx context.Context, id string) error { return nil }
func (f *fakeQuestionStore) DeleteByURL(ctx context.Context, blogURL string) (int, error) {
	return 0, nil
}

type fakeDocumentStore struct {
	jobs      *fakeJobStore
	content   *fakeContentStore
	summaries *fakeSummaryStore
	questions *fakeQuestionStore
}

func (f *fakeDocumentStore) Jobs() interfaces.JobStore           { return f.jobs }
func (f *fakeDocumentStore) Content() interfaces.ContentStore    { return f.content }
func (f *fakeDocumentStore) Summaries() interfaces.SummaryStore  { return f.summaries }
func (f *fakeDocumentStore) Questions() interfaces.QuestionStore { return f.questions }
func (f *fakeDocumentStore) Close() error                        { return nil }

type fakePublisherStore struct {
	released  bool
	processed bool
	qGenerated int
}

func (f *fakePublisherStore) GetByDomain(ctx context.Context, domain string, allowSubdomain bool) (*models.Publisher, error) {
	return nil, nil
}
func (f *fakePublisherStore) GetByAPIKeyHash(ctx context.Context, apiKeyHash string) (*models.Publisher, error) {
	return nil, nil
}
func (f *fakePublisherStore) GetByID(ctx context.Context, publisherID string) (*models.Publisher, error) {
	return nil, nil
}
func (f *fakePublisherStore) Create(ctx context.Context, p *models.Publisher) error { return nil }
func (f *fakePublisherStore) ReserveBlogSlot(ctx context.Context, publisherID string) error {
	return nil
}
func (f *fakePublisherStore) ReleaseBlogSlot(ctx context.Context, publisherID string, processed bool) error {
	f.released = true
	f.processed = processed
	return nil
}
func (f *fakePublisherStore) IncrementQuestionsGenerated(ctx context.Context, publisherID string, n int) error {
	f.qGenerated = n
	return nil
}
func (f *fakePublisherStore) Close() error { return nil }

type fakeCrawler struct {
	content *models.BlogContent
	err     error
}

func (f *fakeCrawler) Fetch(ctx context.Context, url string) (*models.BlogContent, error) {
	return f.content, f.err
}

type fakeLLMProvider struct {
	jsonResponses map[string]string
	embedding     []float32
	err           error
}

func (f *fakeLLMProvider) Name() string               { return "fake" }
func (f *fakeLLMProvider) SupportsGrounding() bool     { return false }
func (f *fakeLLMProvider) GenerateText(ctx context.Context, p interfaces.GenerateTextParams) (string, error) {
	return "", nil
}
func (f *fakeLLMProvider) GenerateJSON(ctx context.Context, p interfaces.GenerateJSONParams) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if resp, ok := f.jsonResponses[p.Model]; ok {
		return resp, nil
	}
	return `{}`, nil
}
func (f *fakeLLMProvider) GenerateEmbedding(ctx context.Context, model, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.embedding, nil
}

type fakeRegistry struct {
	provider *fakeLLMProvider
}

func (f *fakeRegistry) ProviderFor(model string) (interfaces.LLMProvider, error) {
	return f.provider, nil
}

func testOrchestrator(content *fakeContentStore, summaries *fakeSummaryStore, questions *fakeQuestionStore,
	publishers *fakePublisherStore, crawler *fakeCrawler, provider *fakeLLMProvider) (*Orchestrator, *fakeJobStore) {
	jobs := &fakeJobStore{}
	docs := &fakeDocumentStore{jobs: jobs, content: content, summaries: summaries, questions: questions}
	orch := New(docs, publishers, crawler, &fakeRegistry{provider: provider}, "text-embedding-3-small", common.NewSilentLogger())
	return orch, jobs
}

func defaultCfg() models.PublisherConfig {
	cfg := models.DefaultPublisherConfig()
	cfg.ThresholdBeforeProcessingBlog = 0
	return cfg
}

func TestProcessBlog_CacheHitSkipsCrawl(t *testing.T) {
	cfg := defaultCfg()
	cfgJSON := `{"questions_per_blog":1,"summary_model":"gpt-4o-mini","questions_model":"gpt-4o-mini","threshold_before_processing_blog":0}`

	content := &fakeContentStore{stored: map[string]*models.BlogContent{
		"https://example.com/a": {URL: "https://example.com/a", ID: "content-1", ExtractedText: "enough words here to pass the fifty word minimum threshold check over and over and over and over and over and over and over and over and over again for good measure truly", WordCount: 60},
	}}
	summaries := &fakeSummaryStore{}
	questions := &fakeQuestionStore{}
	publishers := &fakePublisherStore{}
	crawler := &fakeCrawler{err: errors.New("must not be called")}
	provider := &fakeLLMProvider{
		jsonResponses: map[string]string{
			"gpt-4o-mini": `{"title":"t","summary":"s","key_points":["a"],"questions":[{"question":"q1","answer":"a1","icon":"i1"}]}`,
		},
		embedding: []float32{0.1, 0.2},
	}

	orch, jobs := testOrchestrator(content, summaries, questions, publishers, crawler, provider)
	_ = jobs

	job := &models.Job{ID: "job-1", BlogURL: "https://example.com/a", PublisherID: "pub-1", Config: cfgJSON}
	publisher := &models.Publisher{ID: "pub-1", Config: cfg}

	result, err := orch.ProcessBlog(context.Background(), job, publisher)
	if err != nil {
		t.Fatalf("ProcessBlog: %v", err)
	}
	if result == "" {
		t.Fatal("expected a non-empty result summary")
	}
	if summaries.upserted == nil {
		t.Fatal("expected a summary to be upserted")
	}
	if len(questions.inserted) != 1 {
		t.Fatalf("expected 1 question inserted, got %d", len(questions.inserted))
	}
	if !publishers.released || !publishers.processed {
		t.Fatal("expected the blog slot to be released as processed")
	}
}

func TestProcessBlog_BelowThresholdSkips(t *testing.T) {
	cfgJSON := `{"threshold_before_processing_blog":2}`

	content := &fakeContentStore{stored: map[string]*models.BlogContent{
		"https://example.com/b": {URL: "https://example.com/b", ID: "content-1", ExtractedText: "x", WordCount: 60},
	}}
	publishers := &fakePublisherStore{}
	orch, jobs := testOrchestrator(content, &fakeSummaryStore{}, &fakeQuestionStore{}, publishers,
		&fakeCrawler{}, &fakeLLMProvider{})

	job := &models.Job{ID: "job-2", BlogURL: "https://example.com/b", PublisherID: "pub-1", Config: cfgJSON}
	_, err := orch.ProcessBlog(context.Background(), job, &models.Publisher{ID: "pub-1"})

	if !errors.Is(err, interfaces.ErrSkipped) {
		t.Fatalf("expected ErrSkipped, got %v", err)
	}
	if jobs.skipped["job-2"] != "threshold_not_met" {
		t.Fatalf("expected job to be recorded as skipped, got %v", jobs.skipped)
	}
	if !publishers.released || publishers.processed {
		t.Fatal("expected the slot to be released unprocessed")
	}
}

func TestProcessBlog_CrawlFailureIsClassified(t *testing.T) {
	content := &fakeContentStore{}
	crawler := &fakeCrawler{err: &testCrawlError{}}
	orch, _ := testOrchestrator(content, &fakeSummaryStore{}, &fakeQuestionStore{}, &fakePublisherStore{}, crawler, &fakeLLMProvider{})

	job := &models.Job{ID: "job-3", BlogURL: "https://example.com/c", PublisherID: "pub-1"}
	_, err := orch.ProcessBlog(context.Background(), job, &models.Publisher{ID: "pub-1"})
	if err == nil {
		t.Fatal("expected a crawl error")
	}
	type classifiable interface{ ErrorType() string }
	ce, ok := err.(classifiable)
	if !ok || ce.ErrorType() != models.ErrorTypeCrawl {
		t.Fatalf("expected a crawl-classified error, got %T: %v", err, err)
	}
}

type testCrawlError struct{}

func (e *testCrawlError) Error() string     { return "fetch failed" }
func (e *testCrawlError) ErrorType() string { return models.ErrorTypeCrawl }
