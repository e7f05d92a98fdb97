// Package requestcontext provides transport-independent context accessors for
// request-scoped values.
//
// Values are typically set by whatever drives the registry (a worker, a CLI,
// a test) and consumed by services. Keeping this package free of transport
// dependencies lets services import only what they need.
//
// Usage in services (read values):
//
//	now := requestcontext.Now(ctx)
//	requestID := requestcontext.RequestID(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithSourceSystem(ctx, "provisioner")
package requestcontext

import (
	"context"
	"time"
)

// Context key types (unexported for encapsulation).
type (
	requestIDKey    struct{}
	sourceSystemKey struct{}
	requestTimeKey  struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeyRequestID    = requestIDKey{}
	ContextKeySourceSystem = sourceSystemKey{}
	ContextKeyRequestTime  = requestTimeKey{}
)

// RequestID retrieves the correlation id from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a correlation id into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// SourceSystem retrieves the identifier of the system that initiated the
// operation. Carried into emitted lifecycle events for audit trails.
func SourceSystem(ctx context.Context) string {
	if src, ok := ctx.Value(ContextKeySourceSystem).(string); ok {
		return src
	}
	return ""
}

// WithSourceSystem injects the initiating system's identifier.
func WithSourceSystem(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, ContextKeySourceSystem, source)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (workers, CLI, production paths).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for unit tests
// that need a pinned clock and for batch operations that want a consistent
// timestamp across records.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
