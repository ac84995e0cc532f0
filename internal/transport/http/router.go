// Package http assembles the engine's HTTP surface: middleware stack,
// public reads, authenticated writes, and the admin/demo routes.
package http

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"creditnet/internal/admin"
	credithandler "creditnet/internal/credit/handler"
	identityhandler "creditnet/internal/identity/handler"
	"creditnet/internal/platform/health"
	referralhandler "creditnet/internal/referral/handler"
	scorehandler "creditnet/internal/score/handler"
	statshandler "creditnet/internal/stats/handler"
	adminmw "creditnet/pkg/platform/middleware/admin"
	"creditnet/pkg/platform/middleware/auth"
	"creditnet/pkg/platform/middleware/metadata"
	"creditnet/pkg/platform/middleware/ratelimit"
	request "creditnet/pkg/platform/middleware/request"
)

const requestTimeout = 30 * time.Second

// Handlers collects the per-area handlers mounted by the router.
// Admin is nil outside demo mode, which keeps the reset surface out of the
// production routing table entirely.
type Handlers struct {
	Identity *identityhandler.Handler
	Score    *scorehandler.Handler
	Referral *referralhandler.Handler
	Credit   *credithandler.Handler
	Stats    *statshandler.Handler
	Health   *health.Handler
	Admin    *admin.Handler
}

// Options carries the cross-cutting routing dependencies.
type Options struct {
	Logger         *slog.Logger
	JWTSigningKey  []byte
	AdminTokenHash string
	// InviteLimiter throttles invitation creation per identity. Optional.
	InviteLimiter *ratelimit.Limiter
}

// New builds the router.
func New(h Handlers, opts Options) chi.Router {
	r := chi.NewRouter()

	r.Use(request.Recovery(opts.Logger))
	r.Use(request.RequestID)
	r.Use(metadata.Capture)
	r.Use(request.Logger(opts.Logger))
	r.Use(request.Timeout(requestTimeout))

	h.Health.Register(r)
	r.Handle("/metrics", promhttp.Handler())

	// Public surface: registration, reads, and token-credential invitation
	// resolution.
	r.Group(func(r chi.Router) {
		h.Identity.Register(r)
		h.Score.Register(r)
		h.Referral.Register(r)
		h.Credit.Register(r)
		h.Stats.Register(r)
	})

	// Writes acting as the authenticated identity.
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireBearer(opts.JWTSigningKey, opts.Logger))
		h.Identity.RegisterAuthenticated(r)
		h.Score.RegisterAuthenticated(r)

		r.Group(func(r chi.Router) {
			if opts.InviteLimiter != nil {
				r.Use(opts.InviteLimiter.Middleware)
			}
			h.Referral.RegisterAuthenticated(r)
		})
	})

	// Administrative surface: lifecycle transitions, event ingestion, and
	// the demo-only reset.
	r.Group(func(r chi.Router) {
		r.Use(adminmw.RequireAdminToken(opts.AdminTokenHash, opts.Logger))
		h.Identity.RegisterAdmin(r)
		h.Credit.RegisterAdmin(r)
		if h.Admin != nil {
			h.Admin.Register(r)
		}
	})

	return r
}
