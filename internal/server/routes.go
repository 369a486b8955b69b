package server

import (
	"net/http"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.handleHealth)

	mux.HandleFunc("/api/v1/questions/check-and-load", s.handleCheckAndLoad)
	mux.HandleFunc("/api/v1/questions/by-url", s.handleQuestionsByURL)
	mux.HandleFunc("/api/v1/questions/", s.routeQuestionByID)

	mux.HandleFunc("/api/v1/jobs/process", s.handleJobProcess)
	mux.HandleFunc("/api/v1/jobs/status/", s.handleJobStatus)
	mux.HandleFunc("/api/v1/jobs/stats", s.handleJobStats)
	mux.HandleFunc("/api/v1/jobs/cancel/", s.handleJobCancel)
	mux.HandleFunc("/api/v1/jobs/stream", s.handleJobStream)

	mux.HandleFunc("/api/v1/search/similar", s.handleSearchSimilar)
	mux.HandleFunc("/api/v1/qa/ask", s.handleAskQuestion)

	mux.HandleFunc("/api/v1/publishers/onboard", s.handlePublisherOnboard)
	mux.HandleFunc("/api/v1/publishers/metadata", s.handlePublisherMetadata)
}

// routeQuestionByID dispatches /api/v1/questions/{question_id} (GET, admin)
// and /api/v1/questions/{blog_id} (DELETE, admin) onto the same prefix,
// since the two operations key on different id spaces but share a path shape.
func (s *Server) routeQuestionByID(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleQuestionGet(w, r)
	case http.MethodDelete:
		s.handleBlogDelete(w, r)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodDelete)
	}
}
