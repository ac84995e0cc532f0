package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"creditnet/internal/credit/models"
	id "creditnet/pkg/domain"
	dErrors "creditnet/pkg/domain-errors"
	"creditnet/pkg/platform/httputil"
	request "creditnet/pkg/platform/middleware/request"
)

// Service defines the interface for credit event operations.
type Service interface {
	ApplyCreditEvent(ctx context.Context, identityID id.IdentityID, eventType models.EventType, scoreChange int, description string) (*models.CreditEvent, error)
	ListCreditEvents(ctx context.Context, identityID id.IdentityID) ([]*models.CreditEvent, error)
}

// ApplyCreditEventRequest records an audited score change for an identity.
type ApplyCreditEventRequest struct {
	IdentityID  string `json:"identity_id"`
	EventType   string `json:"event_type"`
	ScoreChange int    `json:"score_change"`
	Description string `json:"description"`
}

func (r *ApplyCreditEventRequest) Normalize() {
	if r == nil {
		return
	}
	r.IdentityID = strings.TrimSpace(r.IdentityID)
	r.EventType = strings.TrimSpace(r.EventType)
	r.Description = strings.TrimSpace(r.Description)
}

func (r *ApplyCreditEventRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.IdentityID == "" {
		return dErrors.New(dErrors.CodeValidation, "identity_id is required")
	}
	if r.EventType == "" {
		return dErrors.New(dErrors.CodeValidation, "event_type is required")
	}
	return nil
}

// CreditEventResponse is one audit trail entry.
type CreditEventResponse struct {
	ID          string    `json:"id"`
	IdentityID  string    `json:"identity_id"`
	EventType   string    `json:"event_type"`
	ScoreChange int       `json:"score_change"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreditEventListResponse struct {
	Events []*CreditEventResponse `json:"events"`
}

func toCreditEventResponse(event *models.CreditEvent) *CreditEventResponse {
	return &CreditEventResponse{
		ID:          event.ID.String(),
		IdentityID:  event.IdentityID.String(),
		EventType:   string(event.EventType),
		ScoreChange: event.ScoreChange,
		Description: event.Description,
		CreatedAt:   event.CreatedAt,
	}
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public audit trail read route.
func (h *Handler) Register(r chi.Router) {
	r.Get("/identities/{id}/credit-events", h.HandleListCreditEvents)
}

// RegisterAdmin mounts event ingestion. Credit events arrive from trusted
// collaborators, not end users.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/credit-events", h.HandleApplyCreditEvent)
}

// HandleApplyCreditEvent records a credit event and runs reward propagation.
func (h *Handler) HandleApplyCreditEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ApplyCreditEventRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	identityID, err := id.ParseIdentityID(req.IdentityID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid identity id"))
		return
	}

	event, err := h.service.ApplyCreditEvent(ctx, identityID, models.EventType(req.EventType), req.ScoreChange, req.Description)
	if err != nil {
		h.logger.ErrorContext(ctx, "apply credit event failed", "error", err, "request_id", requestID, "identity_id", identityID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toCreditEventResponse(event))
}

// HandleListCreditEvents returns the identity's audit trail, newest first.
func (h *Handler) HandleListCreditEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	identityID, err := id.ParseIdentityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid identity id"))
		return
	}

	events, err := h.service.ListCreditEvents(ctx, identityID)
	if err != nil {
		h.logger.ErrorContext(ctx, "list credit events failed", "error", err, "request_id", requestID, "identity_id", identityID)
		httputil.WriteError(w, err)
		return
	}

	out := &CreditEventListResponse{Events: make([]*CreditEventResponse, 0, len(events))}
	for _, event := range events {
		out.Events = append(out.Events, toCreditEventResponse(event))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}
