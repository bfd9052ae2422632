// Package requestcontext carries request-scoped values that outlive a single
// function call: the correlation ID shared by logs, spans and outgoing
// requests.
//
// Usage:
//
//	ctx = requestcontext.EnsureRequestID(ctx)
//	req.Header.Set(requestcontext.HeaderRequestID, requestcontext.RequestID(ctx))
package requestcontext

import (
	"context"

	"github.com/google/uuid"
)

// HeaderRequestID is the HTTP header that propagates the request ID.
const HeaderRequestID = "X-Request-ID"

type requestIDKey struct{}

// ContextKeyRequestID is exported for tests that need context.WithValue.
var ContextKeyRequestID = requestIDKey{}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// EnsureRequestID returns ctx unchanged when it already has a request ID and
// otherwise attaches a fresh random one.
func EnsureRequestID(ctx context.Context) context.Context {
	if RequestID(ctx) != "" {
		return ctx
	}
	return WithRequestID(ctx, uuid.NewString())
}
