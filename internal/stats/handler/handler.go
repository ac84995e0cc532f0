package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"creditnet/internal/stats/service"
	dErrors "creditnet/pkg/domain-errors"
	"creditnet/pkg/platform/httputil"
	request "creditnet/pkg/platform/middleware/request"
)

const defaultLeaderboardLimit = 25

// Service defines the interface for network statistics reads.
type Service interface {
	GetNetworkStats(ctx context.Context) (*service.NetworkStats, error)
	GetLeaderboard(ctx context.Context, lbType service.LeaderboardType, limit int) ([]service.LeaderboardEntry, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/stats", h.HandleGetNetworkStats)
	r.Get("/leaderboard", h.HandleGetLeaderboard)
}

// HandleGetNetworkStats returns totals and averages over the network.
func (h *Handler) HandleGetNetworkStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	stats, err := h.service.GetNetworkStats(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "get network stats failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, stats)
}

// HandleGetLeaderboard returns the ranked identities. type selects the
// dimension (score or referrals); limit caps the rows returned.
func (h *Handler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	lbType, err := service.ParseLeaderboardType(r.URL.Query().Get("type"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	limit := defaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	entries, err := h.service.GetLeaderboard(ctx, lbType, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "get leaderboard failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"type":    string(lbType),
		"entries": entries,
	})
}
