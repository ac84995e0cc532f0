// Package admin hosts the demo-only reset surface. The router mounts it
// only when demo mode is enabled; production wiring never registers these
// routes.
package admin

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"creditnet/pkg/platform/httputil"
	request "creditnet/pkg/platform/middleware/request"
)

// Resettable is any store that can wipe its state for a fresh demo run.
type Resettable interface {
	Clear(ctx context.Context)
}

type Handler struct {
	stores []Resettable
	logger *slog.Logger
}

func New(logger *slog.Logger, stores ...Resettable) *Handler {
	return &Handler{stores: stores, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/reset", h.HandleResetAllState)
}

// HandleResetAllState clears every registered store.
func (h *Handler) HandleResetAllState(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	for _, store := range h.stores {
		store.Clear(ctx)
	}
	h.logger.WarnContext(ctx, "all engine state reset", "request_id", request.GetRequestID(ctx))
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
