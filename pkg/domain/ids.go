// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "creditnet/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing an IdentityID where an EventID is expected.
type (
	IdentityID uuid.UUID
	EventID    uuid.UUID
)

// InvitationToken is the unguessable external handle of an invitation.
// It is the sole credential required to accept or reject.
type InvitationToken string

// DeriveIdentityID computes the deterministic identity id for an email.
// The id is a SHA-1 name-based UUID over a salt-derived namespace, so any
// external verifier holding the salt can re-derive it without a lookup.
// The email is normalized (trimmed, lowercased) before hashing.
func DeriveIdentityID(salt, email string) IdentityID {
	ns := uuid.NewSHA1(uuid.NameSpaceOID, []byte(salt))
	return IdentityID(uuid.NewSHA1(ns, []byte(NormalizeEmail(email))))
}

// NormalizeEmail canonicalizes an email for comparisons and id derivation.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseIdentityID(s string) (IdentityID, error) {
	id, err := parseUUID(s, "identity ID")
	return IdentityID(id), err
}

func ParseEventID(s string) (EventID, error) {
	id, err := parseUUID(s, "event ID")
	return EventID(id), err
}

func ParseInvitationToken(s string) (InvitationToken, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invitation token cannot be empty")
	}
	return InvitationToken(s), nil
}

// String methods - for logging and debugging.

func (id IdentityID) String() string     { return uuid.UUID(id).String() }
func (id EventID) String() string        { return uuid.UUID(id).String() }
func (t InvitationToken) String() string { return string(t) }

// Text marshalling - IDs render as canonical UUID strings in JSON payloads.

func (id IdentityID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id EventID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }

func (id *IdentityID) UnmarshalText(b []byte) error {
	parsed, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = IdentityID(parsed)
	return nil
}

func (id *EventID) UnmarshalText(b []byte) error {
	parsed, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = EventID(parsed)
	return nil
}

// IsNil checks - used for service-layer validation.

func (id IdentityID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (t InvitationToken) IsNil() bool { return t == "" }

// parseUUID is the shared validation logic.
// Nil UUIDs are allowed here; use IsNil() at the service layer for business
// validation so store lookups can return proper "not found" errors.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	return parsed, nil
}
