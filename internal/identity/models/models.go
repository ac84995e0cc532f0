package models

import (
	"time"

	id "creditnet/pkg/domain"
	dErrors "creditnet/pkg/domain-errors"
)

// Identity is a registered network participant, independent of any wallet.
// Identities are deactivated, never hard-deleted, so referral edges and the
// credit event audit trail stay resolvable forever.
type Identity struct {
	ID        id.IdentityID `json:"id"`
	Email     string        `json:"email"`
	FirstName string        `json:"first_name"`
	LastName  string        `json:"last_name"`
	Active    bool          `json:"active"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NewIdentity validates registration inputs and builds an active identity.
// The id must already be derived from the normalized email (see domain.DeriveIdentityID).
func NewIdentity(identityID id.IdentityID, email, firstName, lastName string, now time.Time) (*Identity, error) {
	if email == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if len(email) > 254 {
		return nil, dErrors.New(dErrors.CodeValidation, "email must be 254 characters or less")
	}
	if len(firstName) > 128 || len(lastName) > 128 {
		return nil, dErrors.New(dErrors.CodeValidation, "name parts must be 128 characters or less")
	}
	return &Identity{
		ID:        identityID,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Deactivate transitions the identity to inactive.
// Returns an error if the identity is already inactive.
func (i *Identity) Deactivate(now time.Time) error {
	if !i.Active {
		return dErrors.New(dErrors.CodeInvariantViolation, "identity is already inactive")
	}
	i.Active = false
	i.UpdatedAt = now
	return nil
}

// Reactivate transitions the identity back to active.
// Returns an error if the identity is already active.
func (i *Identity) Reactivate(now time.Time) error {
	if i.Active {
		return dErrors.New(dErrors.CodeInvariantViolation, "identity is already active")
	}
	i.Active = true
	i.UpdatedAt = now
	return nil
}

// Wallet links a blockchain address to exactly one identity.
// Address is stored in EIP-55 checksum form; lookups are case-insensitive.
type Wallet struct {
	Address      string        `json:"address"`
	IdentityID   id.IdentityID `json:"identity_id"`
	LinkedAt     time.Time     `json:"linked_at"`
	OnChainScore int           `json:"on_chain_score"` // per-wallet snapshot, bureau range
}
