package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ternarybob/blogqa/internal/interfaces"
	"github.com/ternarybob/blogqa/internal/models"
)

type fakeRegistry struct {
	byKey map[string]*models.Publisher
}

func (f *fakeRegistry) ResolveByDomain(ctx context.Context, requestHost string) (*models.Publisher, error) {
	return nil, nil
}
func (f *fakeRegistry) ResolveByAPIKey(ctx context.Context, apiKey string) (*models.Publisher, error) {
	if p, ok := f.byKey[apiKey]; ok {
		return p, nil
	}
	return nil, nil
}
func (f *fakeRegistry) Reserve(ctx context.Context, publisherID string) (interfaces.SlotReservation, error) {
	return nil, nil
}
func (f *fakeRegistry) RecordQuestionsGenerated(ctx context.Context, publisherID string, n int) error {
	return nil
}

func TestAuthMiddleware_AdminKeyGrantsAdmin(t *testing.T) {
	mw := authMiddleware(&fakeRegistry{}, "secret-admin-key")
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !RequireAdmin(w, r) {
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/stats", nil)
	r.Header.Set("X-Admin-Key", "secret-admin-key")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestAuthMiddleware_WrongAdminKeyRejected(t *testing.T) {
	mw := authMiddleware(&fakeRegistry{}, "secret-admin-key")
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !RequireAdmin(w, r) {
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/stats", nil)
	r.Header.Set("X-Admin-Key", "wrong-key")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAuthMiddleware_PublisherKeyResolvesPublisher(t *testing.T) {
	registry := &fakeRegistry{byKey: map[string]*models.Publisher{
		"pub_abc": {ID: "pub-1", Status: models.PublisherStatusActive},
	}}
	mw := authMiddleware(registry, "secret-admin-key")
	var resolved string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := RequirePublisher(w, r)
		if !ok {
			return
		}
		resolved = id
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/v1/questions/by-url", nil)
	r.Header.Set("X-API-Key", "pub_abc")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if resolved != "pub-1" {
		t.Fatalf("expected publisher id pub-1, got %q", resolved)
	}
}

func TestAuthMiddleware_NoKeyRejectedForPublisherRoute(t *testing.T) {
	mw := authMiddleware(&fakeRegistry{}, "secret-admin-key")
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := RequirePublisher(w, r); !ok {
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/v1/questions/by-url", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
