package common

import (
	"context"
	"testing"
)

func TestRequestContext_RoundTrip(t *testing.T) {
	ctx := context.Background()

	if rc := RequestContextFrom(ctx); rc != nil {
		t.Error("expected nil RequestContext from empty context")
	}

	rc := &RequestContext{PublisherID: "pub-123", IsAdmin: false, RequestID: "req-1"}
	ctx = WithRequestContext(ctx, rc)

	got := RequestContextFrom(ctx)
	if got == nil {
		t.Fatal("expected non-nil RequestContext")
	}
	if got.PublisherID != "pub-123" {
		t.Errorf("PublisherID = %q, want %q", got.PublisherID, "pub-123")
	}
	if got.RequestID != "req-1" {
		t.Errorf("RequestID = %q, want %q", got.RequestID, "req-1")
	}
}

func TestResolvePublisherID(t *testing.T) {
	ctx := context.Background()
	if id := ResolvePublisherID(ctx); id != "" {
		t.Errorf("expected empty publisher id, got %q", id)
	}

	ctx = WithRequestContext(ctx, &RequestContext{PublisherID: "pub-9"})
	if id := ResolvePublisherID(ctx); id != "pub-9" {
		t.Errorf("ResolvePublisherID() = %q, want %q", id, "pub-9")
	}
}

func TestResolveIsAdmin(t *testing.T) {
	ctx := context.Background()
	if ResolveIsAdmin(ctx) {
		t.Error("expected false with no request context")
	}

	ctx = WithRequestContext(ctx, &RequestContext{IsAdmin: true})
	if !ResolveIsAdmin(ctx) {
		t.Error("expected true when IsAdmin set")
	}
}

func TestResolveRequestID(t *testing.T) {
	ctx := context.Background()
	if id := ResolveRequestID(ctx); id != "" {
		t.Errorf("expected empty request id, got %q", id)
	}

	ctx = WithRequestContext(ctx, &RequestContext{RequestID: "abc"})
	if id := ResolveRequestID(ctx); id != "abc" {
		t.Errorf("ResolveRequestID() = %q, want %q", id, "abc")
	}
}
