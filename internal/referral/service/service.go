package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	identitymodels "creditnet/internal/identity/models"
	referralmetrics "creditnet/internal/referral/metrics"
	"creditnet/internal/referral/models"
	"creditnet/internal/referral/store"
	id "creditnet/pkg/domain"
	dErrors "creditnet/pkg/domain-errors"
	"creditnet/pkg/platform/sentinel"
	"creditnet/pkg/platform/txn"
	"creditnet/pkg/requestcontext"
	"creditnet/pkg/secrets"
)

// maxPathDepth bounds ancestor-chain walks. The single-inbound-edge
// constraint plus the cycle check at acceptance keep the forest acyclic, so
// the cap only guards against store corruption.
const maxPathDepth = 10_000

// IdentitySource resolves identities for invitation checks.
// Satisfied by the identity store.
type IdentitySource interface {
	FindByID(ctx context.Context, identityID id.IdentityID) (*identitymodels.Identity, error)
	FindByEmail(ctx context.Context, email string) (*identitymodels.Identity, error)
}

// Service owns the invitation state machine and the referral forest.
type Service struct {
	invitations store.InvitationStore
	edges       store.EdgeStore
	identities  IdentitySource
	salt        string
	ttl         time.Duration
	tx          txn.Tx

	metrics *referralmetrics.Metrics
	logger  *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithMetrics wires prometheus counters.
func WithMetrics(m *referralmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger overrides the default discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New constructs the referral service. The salt must match the registry's so
// the referee id derived from the invitee email agrees with the id the
// registry assigns at registration. tx serializes invitation transitions with
// credit-event propagation.
func New(invitations store.InvitationStore, edges store.EdgeStore, identities IdentitySource, salt string, ttl time.Duration, tx txn.Tx, opts ...Option) *Service {
	s := &Service{
		invitations: invitations,
		edges:       edges,
		identities:  identities,
		salt:        salt,
		ttl:         ttl,
		tx:          tx,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInvitation issues a pending invitation from an identity to an email.
// At most one pending invitation may exist per invitee email system-wide;
// the check and the insert run inside the transaction boundary so two
// inviters racing for the same email cannot both succeed.
func (s *Service) CreateInvitation(ctx context.Context, inviterID id.IdentityID, inviteeEmail, message string) (*models.Invitation, error) {
	if inviterID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "identity ID is required")
	}
	inviter, err := s.identities.FindByID(ctx, inviterID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "identity not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "identity lookup failed")
	}
	if !inviter.Active {
		return nil, dErrors.New(dErrors.CodeConflict, "identity is inactive")
	}

	inviteeEmail = id.NormalizeEmail(inviteeEmail)
	if inviteeEmail == id.NormalizeEmail(inviter.Email) {
		return nil, dErrors.New(dErrors.CodeConflict, "cannot invite yourself")
	}
	if invitee, err := s.identities.FindByEmail(ctx, inviteeEmail); err == nil && invitee.Active {
		return nil, dErrors.New(dErrors.CodeConflict, "email is already registered")
	} else if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "identity lookup failed")
	}

	token, err := secrets.Generate()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate invitation token")
	}
	now := requestcontext.Now(ctx)
	invitation, err := models.NewInvitation(id.InvitationToken(token), inviterID, inviter.Email, inviteeEmail, message, s.ttl, now)
	if err != nil {
		return nil, err
	}
	invitation.Client = requestcontext.GetClientMeta(ctx)

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		pending, err := s.invitations.FindPendingByInviteeEmail(ctx, inviteeEmail)
		switch {
		case err == nil:
			if !pending.ExpiredAt(now) {
				return dErrors.New(dErrors.CodeConflict, "a pending invitation already exists for this email")
			}
			s.expire(ctx, pending, now)
		case !errors.Is(err, sentinel.ErrNotFound):
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check pending invitations")
		}
		if err := s.invitations.Create(ctx, invitation); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create invitation")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.InvitationsCreated.Inc()
	}
	s.logger.InfoContext(ctx, "invitation created",
		"inviter_id", inviterID,
		"invitee_email", inviteeEmail,
	)
	return invitation, nil
}

// GetInvitation returns an invitation by token, lazily expiring it if its
// TTL elapsed while pending.
func (s *Service) GetInvitation(ctx context.Context, token id.InvitationToken) (*models.Invitation, error) {
	if token.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invitation token cannot be empty")
	}
	invitation, err := s.invitations.FindByToken(ctx, token)
	if err != nil {
		return nil, wrapInvitationErr(err)
	}
	now := requestcontext.Now(ctx)
	if invitation.ExpiredAt(now) {
		s.expire(ctx, invitation, now)
	}
	return invitation, nil
}

// AcceptInvitation resolves a pending invitation as accepted and inserts the
// referral edge. Returns the inviter so the caller can complete onboarding
// with referral attribution attached. The verification email is optional;
// when supplied it must match the invitation's recorded invitee email.
func (s *Service) AcceptInvitation(ctx context.Context, token id.InvitationToken, verificationEmail string) (*identitymodels.Identity, error) {
	if token.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invitation token cannot be empty")
	}

	var invitation *models.Invitation
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		invitation, err = s.invitations.FindByToken(ctx, token)
		if err != nil {
			return wrapInvitationErr(err)
		}
		now := requestcontext.Now(ctx)
		if invitation.ExpiredAt(now) {
			s.expire(ctx, invitation, now)
			return dErrors.New(dErrors.CodeExpired, "invitation has expired")
		}
		// Transition on a copy: if the edge insert is rejected the stored
		// invitation must remain pending.
		accepted := *invitation
		if err := accepted.Accept(verificationEmail, now); err != nil {
			return err
		}

		// The invitee email may already belong to a registered identity,
		// including a deactivated ancestor of the inviter. An edge pointing
		// back into the inviter's own chain would close a cycle, so the
		// chain is checked inside the same critical section that inserts
		// the edge.
		refereeID := id.DeriveIdentityID(s.salt, invitation.InviteeEmail)
		onChain, err := s.onAncestorChain(ctx, invitation.InviterID, refereeID)
		if err != nil {
			return err
		}
		if onChain {
			return dErrors.New(dErrors.CodeConflict, "invitee is an ancestor of the inviter")
		}

		edge := &models.Edge{
			ReferrerID: invitation.InviterID,
			RefereeID:  refereeID,
			CreatedAt:  now,
		}
		if err := s.edges.Create(ctx, edge); err != nil {
			if errors.Is(err, sentinel.ErrDuplicate) {
				return dErrors.New(dErrors.CodeConflict, "identity already has a referrer")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create referral edge")
		}
		if err := s.invitations.Update(ctx, &accepted); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update invitation")
		}
		invitation = &accepted
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.InvitationsAccepted.Inc()
	}
	s.logger.InfoContext(ctx, "invitation accepted",
		"inviter_id", invitation.InviterID,
		"invitee_email", invitation.InviteeEmail,
	)

	inviter, err := s.identities.FindByID(ctx, invitation.InviterID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "inviter lookup failed")
	}
	return inviter, nil
}

// RejectInvitation resolves a pending invitation as rejected. No graph
// mutation.
func (s *Service) RejectInvitation(ctx context.Context, token id.InvitationToken) error {
	if token.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "invitation token cannot be empty")
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		invitation, err := s.invitations.FindByToken(ctx, token)
		if err != nil {
			return wrapInvitationErr(err)
		}
		now := requestcontext.Now(ctx)
		if invitation.ExpiredAt(now) {
			s.expire(ctx, invitation, now)
			return dErrors.New(dErrors.CodeExpired, "invitation has expired")
		}
		if err := invitation.Reject(now); err != nil {
			return err
		}
		if err := s.invitations.Update(ctx, invitation); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update invitation")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.InvitationsRejected.Inc()
	}
	return nil
}

// InvitationsView is the sent/received split returned by ListInvitations.
type InvitationsView struct {
	Sent     []*models.Invitation `json:"sent"`
	Received []*models.Invitation `json:"received"`
}

// ListInvitations returns invitations sent by the identity registered under
// the email and invitations addressed to it. Pending entries past their TTL
// are lazily expired in the returned view.
func (s *Service) ListInvitations(ctx context.Context, email string) (*InvitationsView, error) {
	email = id.NormalizeEmail(email)
	if email == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "email is required")
	}

	view := &InvitationsView{Sent: []*models.Invitation{}, Received: []*models.Invitation{}}
	now := requestcontext.Now(ctx)

	identity, err := s.identities.FindByEmail(ctx, email)
	switch {
	case err == nil:
		sent, err := s.invitations.ListByInviter(ctx, identity.ID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list sent invitations")
		}
		view.Sent = s.expireStale(ctx, sent, now)
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "identity lookup failed")
	}

	received, err := s.invitations.ListByInviteeEmail(ctx, email)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list received invitations")
	}
	view.Received = s.expireStale(ctx, received, now)
	return view, nil
}

// GetReferralPath returns the chain of identities from the root of the
// referee's tree down to the referee itself. The walk follows inbound edges
// and always terminates: every identity has at most one referrer.
func (s *Service) GetReferralPath(ctx context.Context, identityID id.IdentityID) ([]id.IdentityID, error) {
	if identityID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "identity ID is required")
	}
	if _, err := s.identities.FindByID(ctx, identityID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "identity not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "identity lookup failed")
	}

	path := []id.IdentityID{identityID}
	current := identityID
	for range maxPathDepth {
		edge, err := s.edges.FindByReferee(ctx, current)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				break // reached the root
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to walk referral path")
		}
		path = append(path, edge.ReferrerID)
		current = edge.ReferrerID
	}

	// Reverse to root-first order.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// onAncestorChain reports whether candidate is identityID itself or one of
// its referrers, transitively.
func (s *Service) onAncestorChain(ctx context.Context, identityID, candidate id.IdentityID) (bool, error) {
	current := identityID
	for range maxPathDepth {
		if current == candidate {
			return true, nil
		}
		edge, err := s.edges.FindByReferee(ctx, current)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return false, nil // reached the root
			}
			return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to walk referral path")
		}
		current = edge.ReferrerID
	}
	return false, nil
}

// expireStale lazily expires any pending invitations past their TTL.
func (s *Service) expireStale(ctx context.Context, invitations []*models.Invitation, now time.Time) []*models.Invitation {
	for _, invitation := range invitations {
		if invitation.ExpiredAt(now) {
			s.expire(ctx, invitation, now)
		}
	}
	return invitations
}

// expire persists the lazy pending -> expired transition. Persistence
// failures are logged, not surfaced: the caller's read still reports the
// invitation as expired.
func (s *Service) expire(ctx context.Context, invitation *models.Invitation, now time.Time) {
	invitation.Expire(now)
	if err := s.invitations.Update(ctx, invitation); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist invitation expiry",
			"error", err,
			"invitee_email", invitation.InviteeEmail,
		)
		return
	}
	if s.metrics != nil {
		s.metrics.InvitationsExpired.Inc()
	}
}

func wrapInvitationErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "invitation not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "invitation lookup failed")
}
