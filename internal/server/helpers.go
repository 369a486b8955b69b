package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/blogqa/internal/common"
)

// Envelope is the response shape every endpoint returns: {status,
// status_code, message, result|error, request_id, timestamp}.
type Envelope struct {
	Status     string      `json:"status"`
	StatusCode int         `json:"status_code"`
	Message    string      `json:"message,omitempty"`
	Result     interface{} `json:"result,omitempty"`
	Error      *ErrorBody  `json:"error,omitempty"`
	RequestID  string      `json:"request_id"`
	Timestamp  string      `json:"timestamp"`
}

// ErrorBody carries the stable error.code symbol referenced by the envelope.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteResult writes a success envelope.
func WriteResult(w http.ResponseWriter, r *http.Request, statusCode int, message string, result interface{}) {
	writeEnvelope(w, r, Envelope{
		Status:     "success",
		StatusCode: statusCode,
		Message:    message,
		Result:     result,
	})
}

// WriteAPIError writes an error envelope with a stable error.code symbol
// (one of the §7 codes: unauthorized, forbidden, domain_mismatch,
// not_whitelisted, not_found, quota_exceeded, daily_limit_exceeded,
// duplicate, validation_error, embedding_missing, rate_limited, internal).
func WriteAPIError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	writeEnvelope(w, r, Envelope{
		Status:     "error",
		StatusCode: statusCode,
		Message:    message,
		Error:      &ErrorBody{Code: code, Message: message},
	})
}

func writeEnvelope(w http.ResponseWriter, r *http.Request, env Envelope) {
	env.RequestID = common.ResolveRequestID(r.Context())
	env.Timestamp = time.Now().UTC().Format(time.RFC3339)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.StatusCode)
	json.NewEncoder(w).Encode(env)
}

// RequireMethod validates the HTTP method, writing a 405 envelope and
// returning false when it doesn't match.
func RequireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	WriteAPIError(w, r, http.StatusMethodNotAllowed, "validation_error", "method not allowed")
	return false
}

// DecodeJSON reads and decodes JSON from the request body into v, writing a
// validation_error envelope and returning false on failure.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil {
		WriteAPIError(w, r, http.StatusBadRequest, "validation_error", "request body is required")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteAPIError(w, r, http.StatusBadRequest, "validation_error", "invalid JSON: "+err.Error())
		return false
	}
	return true
}

// PathParam extracts a path parameter from the URL path. For a pattern like
// /api/v1/jobs/status/{job_id}, PathParam(r, "/api/v1/jobs/status/", "") extracts {job_id}.
func PathParam(r *http.Request, prefix, suffix string) string {
	path := r.URL.Path
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	rest := path[len(prefix):]
	if suffix != "" {
		idx := strings.Index(rest, suffix)
		if idx < 0 {
			return rest
		}
		return rest[:idx]
	}
	if idx := strings.Index(rest, "/"); idx >= 0 {
		return rest[:idx]
	}
	return rest
}
