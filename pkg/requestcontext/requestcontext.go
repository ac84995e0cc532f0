// Package requestcontext carries per-request values (request id, client
// metadata, request time) through context without leaking transport types
// into services.
package requestcontext

import (
	"context"
	"time"
)

type requestIDKey struct{}
type clientMetaKey struct{}
type nowKey struct{}

// ClientMeta captures coarse client information parsed at the transport edge.
// Recorded on invitation creation for abuse review; never used for auth.
type ClientMeta struct {
	IP      string
	Browser string
	OS      string
}

// WithRequestID attaches a request id to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the request id or empty string if unset.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithClientMeta attaches parsed client metadata to the context.
func WithClientMeta(ctx context.Context, meta ClientMeta) context.Context {
	return context.WithValue(ctx, clientMetaKey{}, meta)
}

// GetClientMeta returns client metadata or the zero value if unset.
func GetClientMeta(ctx context.Context) ClientMeta {
	if v, ok := ctx.Value(clientMetaKey{}).(ClientMeta); ok {
		return v
	}
	return ClientMeta{}
}

// WithNow pins the request time. Tests use this to make expiry checks and
// timestamps deterministic.
func WithNow(ctx context.Context, now time.Time) context.Context {
	return context.WithValue(ctx, nowKey{}, now)
}

// Now returns the pinned request time, falling back to the wall clock.
func Now(ctx context.Context) time.Time {
	if v, ok := ctx.Value(nowKey{}).(time.Time); ok {
		return v
	}
	return time.Now().UTC()
}
