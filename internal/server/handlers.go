package server

import (
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/ternarybob/blogqa/internal/interfaces"
	"github.com/ternarybob/blogqa/internal/models"
	"github.com/ternarybob/blogqa/internal/services/registry"
	"github.com/ternarybob/blogqa/internal/storage/postgres"
	"github.com/ternarybob/blogqa/internal/urlnorm"
)

// --- system ---

type healthComponent struct {
	Status string `json:"status"`
}

// handleHealth reports component statuses; unauthenticated.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := map[string]healthComponent{
		"documents": {Status: "ok"},
		"queue":     {Status: "ok"},
	}

	if _, err := s.app.Documents.Jobs().Stats(r.Context()); err != nil {
		components["documents"] = healthComponent{Status: "unavailable"}
	}

	overall := "ok"
	for _, c := range components {
		if c.Status != "ok" {
			overall = "degraded"
		}
	}

	WriteResult(w, r, http.StatusOK, "", map[string]interface{}{
		"status":     overall,
		"components": components,
		"uptime":     time.Since(s.app.StartupTime).String(),
		"goroutines": runtime.NumGoroutine(),
	})
}

// --- questions ---

type blogInfo struct {
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	PublishedDate time.Time `json:"published_date,omitempty"`
}

func contentToBlogInfo(content *models.BlogContent) blogInfo {
	if content == nil {
		return blogInfo{}
	}
	return blogInfo{Title: content.Title, Author: content.Author, PublishedDate: content.PublishedDate}
}

// handleCheckAndLoad implements the widget's fast path: return cached
// questions immediately, report in-flight status, or kick off a new job.
func (s *Server) handleCheckAndLoad(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	publisherID, ok := RequirePublisher(w, r)
	if !ok {
		return
	}

	blogURL, publisher, ok := s.resolveAndAuthorizeBlogURL(w, r, publisherID)
	if !ok {
		return
	}

	ctx := r.Context()

	if questions, err := s.app.Documents.Questions().ListByURL(ctx, blogURL, false); err == nil && len(questions) > 0 {
		content, _ := s.app.Documents.Content().Get(ctx, blogURL)
		WriteResult(w, r, http.StatusOK, "", map[string]interface{}{
			"status":    "ready",
			"questions": questions,
			"blog_info": contentToBlogInfo(content),
		})
		return
	}

	if job, err := s.app.Documents.Jobs().FindNonTerminalByURL(ctx, blogURL); err == nil && job != nil {
		WriteResult(w, r, http.StatusOK, "", map[string]interface{}{"status": "processing", "job_id": job.ID})
		return
	}

	if !s.checkDailyLimit(w, r, publisher) {
		return
	}

	jobID, ok := s.reserveAndEnqueue(w, r, blogURL, publisher)
	if !ok {
		return
	}
	WriteResult(w, r, http.StatusOK, "", map[string]interface{}{"status": "not_started", "job_id": jobID})
}

// handleQuestionsByURL returns the questions generated for an already
// processed blog, optionally shuffled for the widget's display order.
func (s *Server) handleQuestionsByURL(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	publisherID, ok := RequirePublisher(w, r)
	if !ok {
		return
	}

	blogURL, _, ok := s.resolveAndAuthorizeBlogURL(w, r, publisherID)
	if !ok {
		return
	}

	randomize := r.URL.Query().Get("randomize") == "true"
	questions, err := s.app.Documents.Questions().ListByURL(r.Context(), blogURL, randomize)
	if err != nil {
		WriteAPIError(w, r, http.StatusInternalServerError, "internal", "failed to load questions")
		return
	}
	if len(questions) == 0 {
		WriteAPIError(w, r, http.StatusNotFound, "not_found", "no questions found for this blog")
		return
	}
	WriteResult(w, r, http.StatusOK, "", questions)
}

// handleQuestionGet returns a single question by id; admin-only.
func (s *Server) handleQuestionGet(w http.ResponseWriter, r *http.Request) {
	if !RequireAdmin(w, r) {
		return
	}
	questionID := PathParam(r, "/api/v1/questions/", "")
	if questionID == "" {
		WriteAPIError(w, r, http.StatusBadRequest, "validation_error", "question_id is required")
		return
	}
	question, err := s.app.Documents.Questions().Get(r.Context(), questionID)
	if err != nil || question == nil {
		WriteAPIError(w, r, http.StatusNotFound, "not_found", "question not found")
		return
	}
	WriteResult(w, r, http.StatusOK, "", question)
}

// handleBlogDelete removes a blog's content, summary, and questions; admin-only.
func (s *Server) handleBlogDelete(w http.ResponseWriter, r *http.Request) {
	if !RequireAdmin(w, r) {
		return
	}
	blogID := PathParam(r, "/api/v1/questions/", "")
	if blogID == "" {
		WriteAPIError(w, r, http.StatusBadRequest, "validation_error", "blog_id is required")
		return
	}

	ctx := r.Context()
	content, err := s.app.Documents.Content().GetByID(ctx, blogID)
	if err != nil || content == nil {
		WriteAPIError(w, r, http.StatusNotFound, "not_found", "blog not found")
		return
	}

	deleted, _ := s.app.Documents.Questions().DeleteByURL(ctx, content.URL)
	s.app.Documents.Summaries().Delete(ctx, content.URL)
	s.app.Documents.Content().Delete(ctx, content.URL)

	WriteResult(w, r, http.StatusOK, "", map[string]interface{}{"deleted_questions": deleted})
}

// --- jobs ---

type jobProcessRequest struct {
	BlogURL string `json:"blog_url"`
}

// handleJobProcess is the publisher-facing submission path: it never returns
// questions, only the job's queue state.
func (s *Server) handleJobProcess(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	publisherID, ok := RequirePublisher(w, r)
	if !ok {
		return
	}

	var req jobProcessRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	blogURL, publisher, ok := s.authorizeBlogURL(w, r, publisherID, req.BlogURL)
	if !ok {
		return
	}

	ctx := r.Context()
	if job, err := s.app.Documents.Jobs().FindNonTerminalByURL(ctx, blogURL); err == nil && job != nil {
		WriteResult(w, r, http.StatusAccepted, "", map[string]interface{}{"status": job.Status, "job_id": job.ID})
		return
	}

	if !s.checkDailyLimit(w, r, publisher) {
		return
	}

	jobID, ok := s.reserveAndEnqueue(w, r, blogURL, publisher)
	if !ok {
		return
	}
	WriteResult(w, r, http.StatusAccepted, "", map[string]interface{}{"status": models.JobStatusQueued, "job_id": jobID})
}

// handleJobStatus returns a job's current state; admin-only.
func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) || !RequireAdmin(w, r) {
		return
	}
	jobID := PathParam(r, "/api/v1/jobs/status/", "")
	job, err := s.app.Documents.Jobs().GetJob(r.Context(), jobID)
	if err != nil || job == nil {
		WriteAPIError(w, r, http.StatusNotFound, "not_found", "job not found")
		return
	}
	WriteResult(w, r, http.StatusOK, "", job)
}

// handleJobStats returns grouped job counts by status; admin-only.
func (s *Server) handleJobStats(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) || !RequireAdmin(w, r) {
		return
	}
	stats, err := s.app.Documents.Jobs().Stats(r.Context())
	if err != nil {
		WriteAPIError(w, r, http.StatusInternalServerError, "internal", "failed to load stats")
		return
	}
	WriteResult(w, r, http.StatusOK, "", stats)
}

// handleJobCancel cancels a queued job; admin-only.
func (s *Server) handleJobCancel(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) || !RequireAdmin(w, r) {
		return
	}
	jobID := PathParam(r, "/api/v1/jobs/cancel/", "")
	if err := s.app.Documents.Jobs().Cancel(r.Context(), jobID); err != nil {
		WriteAPIError(w, r, http.StatusBadRequest, "validation_error", "job could not be cancelled: "+err.Error())
		return
	}
	WriteResult(w, r, http.StatusOK, "job cancelled", nil)
}

// handleJobStream upgrades to a WebSocket connection broadcasting job
// lifecycle events, for the admin live job view.
func (s *Server) handleJobStream(w http.ResponseWriter, r *http.Request) {
	if !RequireAdmin(w, r) {
		return
	}
	s.app.Queue.Hub().ServeWS(w, r)
}

// --- similarity & chat ---

type searchSimilarRequest struct {
	QuestionID string `json:"question_id"`
	Limit      int    `json:"limit"`
}

// handleSearchSimilar finds the most similar blogs to a given question's
// embedding, scoped to the publisher's own domain.
func (s *Server) handleSearchSimilar(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	publisherID, ok := RequirePublisher(w, r)
	if !ok {
		return
	}

	var req searchSimilarRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Limit <= 0 {
		req.Limit = 5
	}

	ctx := r.Context()
	question, err := s.app.Documents.Questions().Get(ctx, req.QuestionID)
	if err != nil || question == nil {
		WriteAPIError(w, r, http.StatusNotFound, "not_found", "question not found")
		return
	}

	publisher, err := s.app.Publishers.GetByID(ctx, publisherID)
	if err != nil || publisher == nil {
		WriteAPIError(w, r, http.StatusInternalServerError, "internal", "failed to resolve publisher")
		return
	}
	if !urlnorm.MatchesDomain(urlnorm.Domain(question.BlogURL), publisher.Domain, false) {
		WriteAPIError(w, r, http.StatusForbidden, "domain_mismatch", "question does not belong to this publisher's domain")
		return
	}

	if len(question.Embedding) == 0 {
		WriteAPIError(w, r, http.StatusBadRequest, "embedding_missing", "question has no embedding")
		return
	}

	s.app.Documents.Questions().IncrementClickCount(ctx, req.QuestionID)

	results, err := s.app.Similarity.SimilarBlogs(ctx, publisher.Domain, question.Embedding, req.Limit)
	if err != nil {
		WriteAPIError(w, r, http.StatusInternalServerError, "internal", "similarity search failed")
		return
	}
	WriteResult(w, r, http.StatusOK, "", results)
}

type askQuestionRequest struct {
	Question string `json:"question"`
}

// handleAskQuestion runs an ad-hoc, uncached chat completion against the
// publisher's configured chat model.
func (s *Server) handleAskQuestion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	publisherID, ok := RequirePublisher(w, r)
	if !ok {
		return
	}

	var req askQuestionRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Question == "" {
		WriteAPIError(w, r, http.StatusBadRequest, "validation_error", "question is required")
		return
	}

	ctx := r.Context()
	publisher, err := s.app.Publishers.GetByID(ctx, publisherID)
	if err != nil || publisher == nil {
		WriteAPIError(w, r, http.StatusInternalServerError, "internal", "failed to resolve publisher")
		return
	}

	provider, err := s.app.LLM.ProviderFor(publisher.Config.ChatModel)
	if err != nil {
		WriteAPIError(w, r, http.StatusInternalServerError, "internal", "no chat provider available")
		return
	}

	answer, err := provider.GenerateText(ctx, interfaces.GenerateTextParams{
		Model:       publisher.Config.ChatModel,
		System:      "You are a helpful assistant answering reader questions about a publisher's blog content.",
		User:        req.Question,
		MaxTokens:   publisher.Config.ChatMaxTokens,
		Temperature: publisher.Config.ChatTemperature,
	})
	if err != nil {
		WriteAPIError(w, r, http.StatusInternalServerError, "internal", "chat generation failed")
		return
	}
	WriteResult(w, r, http.StatusOK, "", map[string]string{"answer": answer})
}

// --- publishers ---

type publisherOnboardRequest struct {
	Domain string `json:"domain"`
	Email  string `json:"email"`
	APIKey string `json:"api_key"`
}

// handlePublisherOnboard creates a new publisher account; admin-only.
func (s *Server) handlePublisherOnboard(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) || !RequireAdmin(w, r) {
		return
	}

	var req publisherOnboardRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Domain == "" || req.APIKey == "" {
		WriteAPIError(w, r, http.StatusBadRequest, "validation_error", "domain and api_key are required")
		return
	}

	publisher := &models.Publisher{
		Domain:     urlnorm.Domain("https://" + req.Domain),
		Email:      req.Email,
		Status:     models.PublisherStatusActive,
		APIKeyHash: registry.HashAPIKey(req.APIKey),
		Config:     models.DefaultPublisherConfig(),
	}

	if err := s.app.Publishers.Create(r.Context(), publisher); err != nil {
		WriteAPIError(w, r, http.StatusInternalServerError, "internal", "failed to create publisher")
		return
	}
	WriteResult(w, r, http.StatusCreated, "publisher onboarded", publisher)
}

// handlePublisherMetadata returns the widget-safe publisher projection;
// unauthenticated so the widget can bootstrap before any key is issued.
func (s *Server) handlePublisherMetadata(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	blogURL := r.URL.Query().Get("blog_url")
	if blogURL == "" {
		WriteAPIError(w, r, http.StatusBadRequest, "validation_error", "blog_url is required")
		return
	}

	domain := urlnorm.Domain(blogURL)
	publisher, err := s.app.Registry.ResolveByDomain(r.Context(), domain)
	if err != nil || publisher == nil || !publisher.IsActive() {
		WriteAPIError(w, r, http.StatusNotFound, "not_found", "publisher not found")
		return
	}

	WriteResult(w, r, http.StatusOK, "", models.PublisherMetadata{
		Domain:           publisher.Domain,
		SubscriptionTier: publisher.SubscriptionTier,
		WidgetConfig:     publisher.WidgetConfig,
	})
}

// --- shared helpers ---

// resolveAndAuthorizeBlogURL reads blog_url from the query string, normalizes
// it, and enforces the exact-domain-match + whitelist checks shared by the
// GET endpoints.
func (s *Server) resolveAndAuthorizeBlogURL(w http.ResponseWriter, r *http.Request, publisherID string) (string, *models.Publisher, bool) {
	raw := r.URL.Query().Get("blog_url")
	if raw == "" {
		WriteAPIError(w, r, http.StatusBadRequest, "validation_error", "blog_url is required")
		return "", nil, false
	}
	return s.authorizeBlogURL(w, r, publisherID, raw)
}

// authorizeBlogURL normalizes raw, resolves the calling publisher, and
// enforces that the URL's domain matches the publisher's registered domain
// exactly and passes the whitelist check.
func (s *Server) authorizeBlogURL(w http.ResponseWriter, r *http.Request, publisherID, raw string) (string, *models.Publisher, bool) {
	blogURL, err := urlnorm.Normalize(raw)
	if err != nil {
		WriteAPIError(w, r, http.StatusBadRequest, "validation_error", "invalid blog_url")
		return "", nil, false
	}

	publisher, err := s.app.Publishers.GetByID(r.Context(), publisherID)
	if err != nil || publisher == nil {
		WriteAPIError(w, r, http.StatusInternalServerError, "internal", "failed to resolve publisher")
		return "", nil, false
	}

	if !urlnorm.MatchesDomain(urlnorm.Domain(blogURL), publisher.Domain, false) {
		WriteAPIError(w, r, http.StatusForbidden, "domain_mismatch", "blog_url does not belong to this publisher")
		return "", nil, false
	}
	if !registry.CheckWhitelist(blogURL, publisher) {
		WriteAPIError(w, r, http.StatusForbidden, "not_whitelisted", "blog_url is not on the publisher's whitelist")
		return "", nil, false
	}
	return blogURL, publisher, true
}

// checkDailyLimit enforces the publisher's daily_blog_limit, counted against
// jobs completed since the start of the current UTC day.
func (s *Server) checkDailyLimit(w http.ResponseWriter, r *http.Request, publisher *models.Publisher) bool {
	if publisher.Config.DailyBlogLimit == nil {
		return true
	}
	startOfDay := time.Now().UTC().Truncate(24 * time.Hour)
	count, err := s.app.Documents.Jobs().CountCompletedSince(r.Context(), publisher.ID, startOfDay)
	if err != nil {
		WriteAPIError(w, r, http.StatusInternalServerError, "internal", "failed to check daily limit")
		return false
	}
	if count >= *publisher.Config.DailyBlogLimit {
		WriteAPIError(w, r, http.StatusTooManyRequests, "daily_limit_exceeded", "daily blog processing limit reached")
		return false
	}
	return true
}

// reserveAndEnqueue reserves a blog slot and submits the job, releasing the
// slot again if enqueueing fails after a successful reservation.
func (s *Server) reserveAndEnqueue(w http.ResponseWriter, r *http.Request, blogURL string, publisher *models.Publisher) (string, bool) {
	ctx := r.Context()

	reservation, err := s.app.Registry.Reserve(ctx, publisher.ID)
	if err != nil {
		if errors.Is(err, postgres.ErrQuotaExceeded) {
			WriteAPIError(w, r, http.StatusTooManyRequests, "quota_exceeded", "blog slot quota exceeded")
			return "", false
		}
		WriteAPIError(w, r, http.StatusInternalServerError, "internal", "failed to reserve blog slot")
		return "", false
	}

	jobID, isNew, err := s.app.Queue.Submit(ctx, blogURL, publisher.ID, publisher.Config)
	if err != nil {
		reservation.Release(ctx, false)
		WriteAPIError(w, r, http.StatusInternalServerError, "internal", "failed to enqueue job")
		return "", false
	}
	if !isNew {
		// Submit joined an already-queued job for this URL instead of
		// creating one — the slot reserved above is surplus to that job's
		// own reservation and must be given back.
		reservation.Release(ctx, false)
	}
	return jobID, true
}
