package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"creditnet/internal/identity/models"
	id "creditnet/pkg/domain"
	dErrors "creditnet/pkg/domain-errors"
	"creditnet/pkg/platform/httputil"
	request "creditnet/pkg/platform/middleware/request"
)

// Service defines the interface for registry operations.
// Returns domain objects, not HTTP response DTOs.
type Service interface {
	RegisterIdentity(ctx context.Context, email, firstName, lastName string) (*models.Identity, error)
	GetIdentity(ctx context.Context, identityID id.IdentityID) (*models.Identity, error)
	DeactivateIdentity(ctx context.Context, identityID id.IdentityID) (*models.Identity, error)
	ReactivateIdentity(ctx context.Context, identityID id.IdentityID) (*models.Identity, error)
	LinkWallet(ctx context.Context, identityID id.IdentityID, address string, verified bool) (*models.Wallet, error)
	UnlinkWallet(ctx context.Context, identityID id.IdentityID, address string) error
	ListWallets(ctx context.Context, identityID id.IdentityID) ([]*models.Wallet, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public registry routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/identities", h.HandleRegisterIdentity)
	r.Get("/identities/{id}", h.HandleGetIdentity)
	r.Get("/identities/{id}/wallets", h.HandleListWallets)
}

// RegisterAuthenticated mounts wallet routes that act on the authenticated
// identity.
func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Post("/wallets", h.HandleLinkWallet)
	r.Delete("/wallets/{address}", h.HandleUnlinkWallet)
}

// RegisterAdmin mounts the administrative lifecycle routes.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/identities/{id}/deactivate", h.HandleDeactivateIdentity)
	r.Post("/admin/identities/{id}/reactivate", h.HandleReactivateIdentity)
}

// HandleRegisterIdentity registers a new identity.
func (h *Handler) HandleRegisterIdentity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterIdentityRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	identity, err := h.service.RegisterIdentity(ctx, req.Email, req.FirstName, req.LastName)
	if err != nil {
		h.logger.ErrorContext(ctx, "register identity failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toIdentityResponse(identity))
}

// HandleGetIdentity returns identity metadata.
func (h *Handler) HandleGetIdentity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	identityID, err := id.ParseIdentityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid identity id"))
		return
	}

	identity, err := h.service.GetIdentity(ctx, identityID)
	if err != nil {
		h.logger.ErrorContext(ctx, "get identity failed", "error", err, "request_id", requestID, "identity_id", identityID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toIdentityResponse(identity))
}

// HandleListWallets returns the identity's linked wallets.
func (h *Handler) HandleListWallets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	identityID, err := id.ParseIdentityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid identity id"))
		return
	}

	wallets, err := h.service.ListWallets(ctx, identityID)
	if err != nil {
		h.logger.ErrorContext(ctx, "list wallets failed", "error", err, "request_id", requestID, "identity_id", identityID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toWalletListResponse(wallets))
}

// HandleLinkWallet links a wallet to the authenticated identity.
func (h *Handler) HandleLinkWallet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	identityID, err := httputil.RequireIdentityID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[LinkWalletRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	wallet, err := h.service.LinkWallet(ctx, identityID, req.Address, req.ProofVerified)
	if err != nil {
		h.logger.ErrorContext(ctx, "link wallet failed", "error", err, "request_id", requestID, "identity_id", identityID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toWalletResponse(wallet))
}

// HandleUnlinkWallet detaches a wallet from the authenticated identity.
func (h *Handler) HandleUnlinkWallet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	identityID, err := httputil.RequireIdentityID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.UnlinkWallet(ctx, identityID, chi.URLParam(r, "address")); err != nil {
		h.logger.ErrorContext(ctx, "unlink wallet failed", "error", err, "request_id", requestID, "identity_id", identityID)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleDeactivateIdentity deactivates an identity. Administrative action;
// the identity is never hard-deleted.
func (h *Handler) HandleDeactivateIdentity(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.DeactivateIdentity, "deactivate identity failed")
}

// HandleReactivateIdentity reactivates an identity.
func (h *Handler) HandleReactivateIdentity(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.ReactivateIdentity, "reactivate identity failed")
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, id.IdentityID) (*models.Identity, error), errMsg string) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	identityID, err := id.ParseIdentityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid identity id"))
		return
	}

	identity, err := fn(ctx, identityID)
	if err != nil {
		h.logger.ErrorContext(ctx, errMsg, "error", err, "request_id", requestID, "identity_id", identityID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toIdentityResponse(identity))
}
