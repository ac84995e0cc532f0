package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	identitymetrics "creditnet/internal/identity/metrics"
	"creditnet/internal/identity/models"
	"creditnet/internal/identity/store"
	id "creditnet/pkg/domain"
	dErrors "creditnet/pkg/domain-errors"
	"creditnet/pkg/platform/sentinel"
	"creditnet/pkg/requestcontext"
)

// PortfolioRecomputer re-derives an identity's on-chain score after its
// wallet set changes. Implemented by the score service; optional so registry
// tests run without the scoring stack.
type PortfolioRecomputer interface {
	RecomputePortfolio(ctx context.Context, identityID id.IdentityID) error
}

// Service orchestrates identity and wallet lifecycle.
type Service struct {
	identities store.IdentityStore
	wallets    store.WalletStore
	salt       string
	walletCap  int

	recomputer PortfolioRecomputer
	metrics    *identitymetrics.Metrics
	logger     *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithRecomputer wires the scoring stack for wallet link/unlink recompute.
func WithRecomputer(r PortfolioRecomputer) Option {
	return func(s *Service) { s.recomputer = r }
}

// WithMetrics wires prometheus counters.
func WithMetrics(m *identitymetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger overrides the default discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New constructs the registry service. salt feeds deterministic id
// derivation; walletCap bounds per-identity wallet growth.
func New(identities store.IdentityStore, wallets store.WalletStore, salt string, walletCap int, opts ...Option) *Service {
	s := &Service{
		identities: identities,
		wallets:    wallets,
		salt:       salt,
		walletCap:  walletCap,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterIdentity creates an identity with a deterministic id derived from
// the email, so external verifiers can re-derive it without a lookup.
// Fails with a conflict if the email is already registered (case-insensitive).
func (s *Service) RegisterIdentity(ctx context.Context, email, firstName, lastName string) (*models.Identity, error) {
	email = id.NormalizeEmail(email)
	identityID := id.DeriveIdentityID(s.salt, email)

	identity, err := models.NewIdentity(identityID, email, strings.TrimSpace(firstName), strings.TrimSpace(lastName), requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.identities.Create(ctx, identity); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return nil, dErrors.New(dErrors.CodeConflict, "email is already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register identity")
	}

	if s.metrics != nil {
		s.metrics.IdentitiesRegistered.Inc()
	}
	s.logger.InfoContext(ctx, "identity registered", "identity_id", identity.ID)
	return identity, nil
}

// GetIdentity returns an identity by id.
func (s *Service) GetIdentity(ctx context.Context, identityID id.IdentityID) (*models.Identity, error) {
	if identityID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "identity ID is required")
	}
	identity, err := s.identities.FindByID(ctx, identityID)
	if err != nil {
		return nil, wrapIdentityErr(err)
	}
	return identity, nil
}

// GetIdentityByEmail returns an identity by email (case-insensitive).
func (s *Service) GetIdentityByEmail(ctx context.Context, email string) (*models.Identity, error) {
	if strings.TrimSpace(email) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "email is required")
	}
	identity, err := s.identities.FindByEmail(ctx, email)
	if err != nil {
		return nil, wrapIdentityErr(err)
	}
	return identity, nil
}

// DeactivateIdentity transitions an identity to inactive. Administrative
// action; the identity and its history remain resolvable.
func (s *Service) DeactivateIdentity(ctx context.Context, identityID id.IdentityID) (*models.Identity, error) {
	return s.transition(ctx, identityID, (*models.Identity).Deactivate, "identity is already inactive")
}

// ReactivateIdentity transitions an identity back to active.
func (s *Service) ReactivateIdentity(ctx context.Context, identityID id.IdentityID) (*models.Identity, error) {
	return s.transition(ctx, identityID, (*models.Identity).Reactivate, "identity is already active")
}

func (s *Service) transition(ctx context.Context, identityID id.IdentityID, fn func(*models.Identity, time.Time) error, conflictMsg string) (*models.Identity, error) {
	identity, err := s.GetIdentity(ctx, identityID)
	if err != nil {
		return nil, err
	}
	if err := fn(identity, requestcontext.Now(ctx)); err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeConflict, conflictMsg)
		}
		return nil, err
	}
	if err := s.identities.Update(ctx, identity); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update identity")
	}
	return identity, nil
}

// LinkWallet attaches a wallet address to an identity.
// The signature proof is validated by an external collaborator; this
// component trusts the verified flag it passes in.
func (s *Service) LinkWallet(ctx context.Context, identityID id.IdentityID, address string, verified bool) (*models.Wallet, error) {
	if !verified {
		return nil, dErrors.New(dErrors.CodeValidation, "wallet ownership proof not verified")
	}
	if !common.IsHexAddress(address) {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid wallet address")
	}
	checksummed := common.HexToAddress(address).Hex()

	identity, err := s.GetIdentity(ctx, identityID)
	if err != nil {
		return nil, err
	}
	if !identity.Active {
		return nil, dErrors.New(dErrors.CodeConflict, "identity is inactive")
	}

	// One owner per wallet for its lifetime. Same-owner relink is a no-op;
	// an address held by an inactive identity is claimable after unlink only.
	if existing, err := s.wallets.FindByAddress(ctx, checksummed); err == nil {
		if existing.IdentityID == identityID {
			return existing, nil
		}
		return nil, dErrors.New(dErrors.CodeConflict, "wallet is already linked to another identity")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check wallet ownership")
	}

	linked, err := s.wallets.ListByIdentity(ctx, identityID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list wallets")
	}
	if len(linked) >= s.walletCap {
		return nil, dErrors.New(dErrors.CodeLimitExceeded, "wallet limit exceeded for identity")
	}

	wallet := &models.Wallet{
		Address:    checksummed,
		IdentityID: identityID,
		LinkedAt:   requestcontext.Now(ctx),
	}
	if err := s.wallets.Link(ctx, wallet); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return nil, dErrors.New(dErrors.CodeConflict, "wallet is already linked to another identity")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to link wallet")
	}

	if s.metrics != nil {
		s.metrics.WalletsLinked.Inc()
	}
	s.recompute(ctx, identityID)
	return wallet, nil
}

// UnlinkWallet detaches a wallet. Unlinking an address that is not linked is
// a no-op success; unlinking someone else's wallet is forbidden.
func (s *Service) UnlinkWallet(ctx context.Context, identityID id.IdentityID, address string) error {
	if !common.IsHexAddress(address) {
		return dErrors.New(dErrors.CodeValidation, "invalid wallet address")
	}
	checksummed := common.HexToAddress(address).Hex()

	if _, err := s.GetIdentity(ctx, identityID); err != nil {
		return err
	}

	wallet, err := s.wallets.FindByAddress(ctx, checksummed)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil // idempotent
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up wallet")
	}
	if wallet.IdentityID != identityID {
		return dErrors.New(dErrors.CodeForbidden, "wallet belongs to a different identity")
	}

	if err := s.wallets.Unlink(ctx, checksummed); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to unlink wallet")
	}

	if s.metrics != nil {
		s.metrics.WalletsUnlinked.Inc()
	}
	s.recompute(ctx, identityID)
	return nil
}

// ListWallets returns the identity's linked wallets.
func (s *Service) ListWallets(ctx context.Context, identityID id.IdentityID) ([]*models.Wallet, error) {
	if _, err := s.GetIdentity(ctx, identityID); err != nil {
		return nil, err
	}
	wallets, err := s.wallets.ListByIdentity(ctx, identityID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list wallets")
	}
	return wallets, nil
}

// recompute refreshes the on-chain portfolio score after a wallet change.
// Failures are logged, not surfaced: the link/unlink itself has committed.
func (s *Service) recompute(ctx context.Context, identityID id.IdentityID) {
	if s.recomputer == nil {
		return
	}
	if err := s.recomputer.RecomputePortfolio(ctx, identityID); err != nil {
		s.logger.ErrorContext(ctx, "portfolio recompute failed",
			"error", err,
			"identity_id", identityID,
		)
	}
}

func wrapIdentityErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "identity not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "identity lookup failed")
}
