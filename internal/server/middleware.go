package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ternarybob/blogqa/internal/common"
	"github.com/ternarybob/blogqa/internal/interfaces"
)

// responseWriter wraps http.ResponseWriter to capture status code and bytes written.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// recoveryMiddleware catches panics and returns 500.
func recoveryMiddleware(logger *common.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error().
						Str("panic", fmt.Sprintf("%v", rec)).
						Str("path", r.URL.Path).
						Msg("Panic recovered in HTTP handler")
					WriteAPIError(w, r, http.StatusInternalServerError, "internal", "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// corsMiddleware adds CORS headers so the widget can be embedded cross-origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key, X-Admin-Key, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// correlationIDMiddleware extracts or generates the request id propagated to
// logs and returned in every response envelope.
func correlationIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)

		rc := common.RequestContextFrom(r.Context())
		if rc == nil {
			rc = &common.RequestContext{}
		}
		rc.RequestID = requestID
		r = r.WithContext(common.WithRequestContext(r.Context(), rc))

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests with their outcome and duration.
func loggingMiddleware(logger *common.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			dur := time.Since(start)
			event := logger.Debug()
			if rw.statusCode >= 500 {
				event = logger.Error()
			} else if rw.statusCode >= 400 {
				event = logger.Info()
			}

			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rw.statusCode).
				Int("bytes", rw.bytesWritten).
				Dur("duration", dur).
				Str("request_id", common.ResolveRequestID(r.Context())).
				Msg("HTTP request")
		})
	}
}

// authMiddleware resolves the caller's identity from X-Admin-Key or
// X-API-Key into the request's RequestContext. It never rejects a request
// itself — routes that require a given identity call RequireAdmin or
// RequirePublisher and reject if the resolved context doesn't qualify. This
// lets /health and /publishers/metadata stay reachable without either header.
func authMiddleware(registry interfaces.PublisherRegistry, adminAPIKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc := common.RequestContextFrom(r.Context())
			if rc == nil {
				rc = &common.RequestContext{}
			}

			if adminKey := r.Header.Get("X-Admin-Key"); adminKey != "" && adminKey == adminAPIKey {
				rc.IsAdmin = true
			} else if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
				publisher, err := registry.ResolveByAPIKey(r.Context(), apiKey)
				if err == nil && publisher != nil && publisher.IsActive() {
					rc.PublisherID = publisher.ID
				}
			}

			r = r.WithContext(common.WithRequestContext(r.Context(), rc))
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin rejects the request with 401 unless it authenticated via
// X-Admin-Key.
func RequireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if common.ResolveIsAdmin(r.Context()) {
		return true
	}
	WriteAPIError(w, r, http.StatusUnauthorized, "unauthorized", "admin key required")
	return false
}

// RequirePublisher rejects the request with 401 unless it authenticated via
// a valid X-API-Key, returning the resolved publisher id.
func RequirePublisher(w http.ResponseWriter, r *http.Request) (string, bool) {
	publisherID := common.ResolvePublisherID(r.Context())
	if publisherID == "" {
		WriteAPIError(w, r, http.StatusUnauthorized, "unauthorized", "API key required")
		return "", false
	}
	return publisherID, true
}

// applyMiddleware wraps a handler with the middleware stack.
func applyMiddleware(handler http.Handler, logger *common.Logger, registry interfaces.PublisherRegistry, adminAPIKey string) http.Handler {
	// Applied in reverse order: last wrapped runs first.
	handler = loggingMiddleware(logger)(handler)
	handler = authMiddleware(registry, adminAPIKey)(handler)
	handler = correlationIDMiddleware(handler)
	handler = corsMiddleware(handler)
	handler = recoveryMiddleware(logger)(handler)
	return handler
}
