// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Values are typically set by middleware and consumed by services. Keeping
// this package free of net/http dependencies lets services import only what
// they need.
//
// Usage in services (read values):
//
//	actorID := requestcontext.ActorID(ctx)
//	role := requestcontext.Role(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithActor(ctx, actorID, role)
//	ctx = requestcontext.WithRequestID(ctx, requestID)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	"bloodline/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	actorIDKey     struct{}
	roleKey        struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeyActorID     = actorIDKey{}
	ContextKeyRole        = roleKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// ActorID retrieves the authenticated actor ID from the context.
// Returns the zero value (nil UUID) if not set.
func ActorID(ctx context.Context) domain.ActorID {
	if actorID, ok := ctx.Value(ContextKeyActorID).(domain.ActorID); ok {
		return actorID
	}
	return domain.ActorID{}
}

// Role retrieves the acting role from the context. Returns the empty role if
// not set; callers must treat an empty role as unauthorized.
func Role(ctx context.Context) domain.Role {
	if role, ok := ctx.Value(ContextKeyRole).(domain.Role); ok {
		return role
	}
	return ""
}

// WithActor injects the authenticated actor and role into the context.
func WithActor(ctx context.Context, actorID domain.ActorID, role domain.Role) context.Context {
	ctx = context.WithValue(ctx, ContextKeyActorID, actorID)
	return context.WithValue(ctx, ContextKeyRole, role)
}

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

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() for non-HTTP contexts (workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for service unit
// tests that don't run the full HTTP middleware chain, and for workers that
// need consistent time within a batch.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
