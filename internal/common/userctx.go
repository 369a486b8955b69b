package common

import "context"

// RequestContext holds the per-request identity resolved by the auth
// middleware: the publisher the request is scoped to (widget or admin key
// auth), whether the caller authenticated as the service admin, and the
// correlation id assigned to the request.
type RequestContext struct {
	PublisherID string
	IsAdmin     bool
	RequestID   string
}

type contextKey int

const requestContextKey contextKey = iota

// WithRequestContext stores a RequestContext in the request context.
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey, rc)
}

// RequestContextFrom retrieves the RequestContext from context, or nil if absent.
func RequestContextFrom(ctx context.Context) *RequestContext {
	rc, _ := ctx.Value(requestContextKey).(*RequestContext)
	return rc
}

// ResolvePublisherID returns the PublisherID from context, or "" when no
// request context is present.
func ResolvePublisherID(ctx context.Context) string {
	if rc := RequestContextFrom(ctx); rc != nil {
		return rc.PublisherID
	}
	return ""
}

// ResolveIsAdmin reports whether the current request authenticated with the
// service admin key.
func ResolveIsAdmin(ctx context.Context) bool {
	if rc := RequestContextFrom(ctx); rc != nil {
		return rc.IsAdmin
	}
	return false
}

// ResolveRequestID returns the correlation id from context, or "" if absent.
func ResolveRequestID(ctx context.Context) string {
	if rc := RequestContextFrom(ctx); rc != nil {
		return rc.RequestID
	}
	return ""
}
