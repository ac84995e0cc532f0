package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"creditnet/internal/score/models"
	id "creditnet/pkg/domain"
	dErrors "creditnet/pkg/domain-errors"
	"creditnet/pkg/platform/httputil"
	request "creditnet/pkg/platform/middleware/request"
)

// Service defines the interface for score operations.
type Service interface {
	GetComposite(ctx context.Context, identityID id.IdentityID) (*models.Record, error)
	UpdateOffChainScore(ctx context.Context, identityID id.IdentityID, score int, proofID string, attestedAt time.Time) (*models.Record, error)
}

// UpdateOffChainScoreRequest carries an externally attested score. The proof
// reference is opaque to the engine.
type UpdateOffChainScoreRequest struct {
	Score      int       `json:"score"`
	ProofID    string    `json:"proof_id"`
	AttestedAt time.Time `json:"attested_at"`
}

func (r *UpdateOffChainScoreRequest) Normalize() {
	if r == nil {
		return
	}
	r.ProofID = strings.TrimSpace(r.ProofID)
}

func (r *UpdateOffChainScoreRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.ProofID == "" {
		return dErrors.New(dErrors.CodeValidation, "proof_id is required")
	}
	return nil
}

// ScoreResponse is the published score record.
type ScoreResponse struct {
	IdentityID      string    `json:"identity_id"`
	OnChainScore    int       `json:"on_chain_score"`
	OffChainScore   int       `json:"off_chain_score"`
	ReferralScore   float64   `json:"referral_score"`
	CompositeScore  int       `json:"composite_score"`
	OffChainProofID string    `json:"off_chain_proof_id,omitempty"`
	LastUpdated     time.Time `json:"last_updated"`
}

func toScoreResponse(record *models.Record) *ScoreResponse {
	return &ScoreResponse{
		IdentityID:      record.IdentityID.String(),
		OnChainScore:    record.OnChainScore,
		OffChainScore:   record.OffChainScore,
		ReferralScore:   record.ReferralScore,
		CompositeScore:  record.CompositeScore,
		OffChainProofID: record.OffChainProofID,
		LastUpdated:     record.LastUpdated,
	}
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public score read route.
func (h *Handler) Register(r chi.Router) {
	r.Get("/identities/{id}/score", h.HandleGetCompositeScore)
}

// RegisterAuthenticated mounts the off-chain adapter route for the
// authenticated identity.
func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Put("/scores/off-chain", h.HandleUpdateOffChainScore)
}

// HandleGetCompositeScore returns the identity's full score record.
func (h *Handler) HandleGetCompositeScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	identityID, err := id.ParseIdentityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid identity id"))
		return
	}

	record, err := h.service.GetComposite(ctx, identityID)
	if err != nil {
		h.logger.ErrorContext(ctx, "get composite score failed", "error", err, "request_id", requestID, "identity_id", identityID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toScoreResponse(record))
}

// HandleUpdateOffChainScore stores an attested off-chain score for the
// authenticated identity.
func (h *Handler) HandleUpdateOffChainScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	identityID, err := httputil.RequireIdentityID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateOffChainScoreRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.service.UpdateOffChainScore(ctx, identityID, req.Score, req.ProofID, req.AttestedAt)
	if err != nil {
		h.logger.ErrorContext(ctx, "update off-chain score failed", "error", err, "request_id", requestID, "identity_id", identityID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toScoreResponse(record))
}
