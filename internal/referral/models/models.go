package models

import (
	"strings"
	"time"

	id "creditnet/pkg/domain"
	dErrors "creditnet/pkg/domain-errors"
	"creditnet/pkg/requestcontext"
)

// Status is the invitation lifecycle state. Pending is the only non-terminal
// state; terminal states are immutable.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

const maxMessageLength = 500

// Invitation is a referral offer addressed to an email. The token is the
// invitee's sole credential; no account is required to resolve it.
type Invitation struct {
	Token        id.InvitationToken        `json:"token"`
	InviterID    id.IdentityID             `json:"inviter_id"`
	InviterEmail string                    `json:"inviter_email"`
	InviteeEmail string                    `json:"invitee_email"`
	Message      string                    `json:"message,omitempty"`
	Status       Status                    `json:"status"`
	CreatedAt    time.Time                 `json:"created_at"`
	ExpiresAt    time.Time                 `json:"expires_at"`
	ResolvedAt   *time.Time                `json:"resolved_at,omitempty"`
	Client       requestcontext.ClientMeta `json:"-"`
}

// NewInvitation validates inputs and builds a pending invitation.
func NewInvitation(token id.InvitationToken, inviterID id.IdentityID, inviterEmail, inviteeEmail, message string, ttl time.Duration, now time.Time) (*Invitation, error) {
	inviterEmail = id.NormalizeEmail(inviterEmail)
	inviteeEmail = id.NormalizeEmail(inviteeEmail)
	if inviteeEmail == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "invitee email is required")
	}
	if !strings.Contains(inviteeEmail, "@") {
		return nil, dErrors.New(dErrors.CodeValidation, "invitee email is malformed")
	}
	if len(message) > maxMessageLength {
		return nil, dErrors.New(dErrors.CodeValidation, "message exceeds maximum length")
	}
	return &Invitation{
		Token:        token,
		InviterID:    inviterID,
		InviterEmail: inviterEmail,
		InviteeEmail: inviteeEmail,
		Message:      strings.TrimSpace(message),
		Status:       StatusPending,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}, nil
}

// ExpiredAt reports whether a still-pending invitation has outlived its TTL.
// Expiry is evaluated at read time; there is no background sweep.
func (i *Invitation) ExpiredAt(now time.Time) bool {
	return i.Status == StatusPending && now.After(i.ExpiresAt)
}

// Expire lazily moves a pending invitation past its TTL into the expired
// terminal state.
func (i *Invitation) Expire(now time.Time) {
	i.Status = StatusExpired
	i.ResolvedAt = &now
}

// Accept transitions pending -> accepted. The expiry check runs before the
// resolved check so a stale token reports Expired, not AlreadyResolved.
func (i *Invitation) Accept(verificationEmail string, now time.Time) error {
	if err := i.resolvable(now); err != nil {
		return err
	}
	if verificationEmail != "" && id.NormalizeEmail(verificationEmail) != i.InviteeEmail {
		return dErrors.New(dErrors.CodeEmailMismatch, "verification email does not match the invitation")
	}
	i.Status = StatusAccepted
	i.ResolvedAt = &now
	return nil
}

// Reject transitions pending -> rejected with no graph mutation.
func (i *Invitation) Reject(now time.Time) error {
	if err := i.resolvable(now); err != nil {
		return err
	}
	i.Status = StatusRejected
	i.ResolvedAt = &now
	return nil
}

func (i *Invitation) resolvable(now time.Time) error {
	if i.ExpiredAt(now) {
		return dErrors.New(dErrors.CodeExpired, "invitation has expired")
	}
	if i.Status != StatusPending {
		return dErrors.New(dErrors.CodeAlreadyResolved, "invitation has already been resolved")
	}
	return nil
}

// Edge is a directed referrer -> referee link, created only by invitation
// acceptance. At most one inbound edge per referee keeps the graph a forest.
type Edge struct {
	ReferrerID id.IdentityID `json:"referrer_id"`
	RefereeID  id.IdentityID `json:"referee_id"`
	CreatedAt  time.Time     `json:"created_at"`
}
