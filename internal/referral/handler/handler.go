package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	identitymodels "creditnet/internal/identity/models"
	"creditnet/internal/referral/models"
	"creditnet/internal/referral/service"
	id "creditnet/pkg/domain"
	dErrors "creditnet/pkg/domain-errors"
	"creditnet/pkg/platform/httputil"
	request "creditnet/pkg/platform/middleware/request"
)

// Service defines the interface for referral operations.
// Returns domain objects, not HTTP response DTOs.
type Service interface {
	CreateInvitation(ctx context.Context, inviterID id.IdentityID, inviteeEmail, message string) (*models.Invitation, error)
	GetInvitation(ctx context.Context, token id.InvitationToken) (*models.Invitation, error)
	AcceptInvitation(ctx context.Context, token id.InvitationToken, verificationEmail string) (*identitymodels.Identity, error)
	RejectInvitation(ctx context.Context, token id.InvitationToken) error
	ListInvitations(ctx context.Context, email string) (*service.InvitationsView, error)
	GetReferralPath(ctx context.Context, identityID id.IdentityID) ([]id.IdentityID, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public referral routes. The invitation token is the
// invitee's sole credential; acceptance needs no account.
func (h *Handler) Register(r chi.Router) {
	r.Get("/invitations", h.HandleListInvitations)
	r.Get("/invitations/{token}", h.HandleGetInvitation)
	r.Post("/invitations/{token}/accept", h.HandleAcceptInvitation)
	r.Post("/invitations/{token}/reject", h.HandleRejectInvitation)
	r.Get("/identities/{id}/referral-path", h.HandleGetReferralPath)
}

// RegisterAuthenticated mounts invitation creation for the authenticated
// identity.
func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Post("/invitations", h.HandleCreateInvitation)
}

// HandleCreateInvitation issues an invitation from the authenticated
// identity.
func (h *Handler) HandleCreateInvitation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	inviterID, err := httputil.RequireIdentityID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[CreateInvitationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	invitation, err := h.service.CreateInvitation(ctx, inviterID, req.InviteeEmail, req.Message)
	if err != nil {
		h.logger.ErrorContext(ctx, "create invitation failed", "error", err, "request_id", requestID, "inviter_id", inviterID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toInvitationResponse(invitation))
}

// HandleGetInvitation returns an invitation by token, lazily expiring it.
func (h *Handler) HandleGetInvitation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	token, err := id.ParseInvitationToken(chi.URLParam(r, "token"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	invitation, err := h.service.GetInvitation(ctx, token)
	if err != nil {
		h.logger.ErrorContext(ctx, "get invitation failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toInvitationResponse(invitation))
}

// HandleAcceptInvitation resolves an invitation as accepted and returns the
// inviter for referral attribution during onboarding.
func (h *Handler) HandleAcceptInvitation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	token, err := id.ParseInvitationToken(chi.URLParam(r, "token"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[AcceptInvitationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	inviter, err := h.service.AcceptInvitation(ctx, token, req.Email)
	if err != nil {
		h.logger.ErrorContext(ctx, "accept invitation failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &AcceptInvitationResponse{
		InviterID:    inviter.ID.String(),
		InviterEmail: inviter.Email,
	})
}

// HandleRejectInvitation resolves an invitation as rejected.
func (h *Handler) HandleRejectInvitation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	token, err := id.ParseInvitationToken(chi.URLParam(r, "token"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.RejectInvitation(ctx, token); err != nil {
		h.logger.ErrorContext(ctx, "reject invitation failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleListInvitations returns the sent and received invitations for an
// email.
func (h *Handler) HandleListInvitations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	email := r.URL.Query().Get("email")
	if email == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "email query parameter is required"))
		return
	}

	view, err := h.service.ListInvitations(ctx, email)
	if err != nil {
		h.logger.ErrorContext(ctx, "list invitations failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toInvitationListResponse(view))
}

// HandleGetReferralPath returns the root-first ancestor chain for an
// identity.
func (h *Handler) HandleGetReferralPath(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	identityID, err := id.ParseIdentityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid identity id"))
		return
	}

	path, err := h.service.GetReferralPath(ctx, identityID)
	if err != nil {
		h.logger.ErrorContext(ctx, "get referral path failed", "error", err, "request_id", requestID, "identity_id", identityID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toReferralPathResponse(path))
}
