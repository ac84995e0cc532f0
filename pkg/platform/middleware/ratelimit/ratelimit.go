// Package ratelimit bounds invitation creation per caller. Invitations are
// the one surface an authenticated identity can use to spam arbitrary
// emails, so the limiter keys on the authenticated identity.
package ratelimit

import (
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"creditnet/pkg/platform/middleware/auth"
	request "creditnet/pkg/platform/middleware/request"
)

// Limiter tracks a token bucket per identity.
type Limiter struct {
	mu       sync.Mutex
	buckets  map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
	logger   *slog.Logger
	disabled bool
}

// New builds a per-identity limiter allowing perMinute requests with the
// given burst. A perMinute of 0 disables limiting (tests, demos).
func New(perMinute float64, burst int, logger *slog.Logger) *Limiter {
	return &Limiter{
		buckets:  make(map[string]*rate.Limiter),
		rate:     rate.Limit(perMinute / 60.0),
		burst:    burst,
		logger:   logger,
		disabled: perMinute == 0,
	}
}

func (l *Limiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.buckets[key]; ok {
		return b
	}
	b := rate.NewLimiter(l.rate, l.burst)
	l.buckets[key] = b
	return b
}

// Middleware rejects requests over the limit with 429.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.disabled {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		key := auth.GetIdentityID(ctx).String()
		if !l.bucket(key).Allow() {
			l.logger.WarnContext(ctx, "rate limit exceeded",
				"identity_id", key,
				"request_id", request.GetRequestID(ctx),
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate_limited","error_description":"too many invitations, slow down"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
