// Package store defines persistence contracts for invitations and referral
// edges.
package store

import (
	"context"

	"creditnet/internal/referral/models"
	id "creditnet/pkg/domain"
)

// InvitationStore persists invitations keyed by token, with a secondary
// pending-by-invitee-email index for the duplicate-pending check.
type InvitationStore interface {
	Create(ctx context.Context, invitation *models.Invitation) error
	FindByToken(ctx context.Context, token id.InvitationToken) (*models.Invitation, error)
	FindPendingByInviteeEmail(ctx context.Context, email string) (*models.Invitation, error)
	Update(ctx context.Context, invitation *models.Invitation) error
	ListByInviter(ctx context.Context, inviterID id.IdentityID) ([]*models.Invitation, error)
	ListByInviteeEmail(ctx context.Context, email string) ([]*models.Invitation, error)
	Clear(ctx context.Context)
}

// EdgeStore persists referral edges keyed by referee. The at-most-one-inbound
// constraint is enforced here, making cycles structurally impossible.
type EdgeStore interface {
	Create(ctx context.Context, edge *models.Edge) error
	FindByReferee(ctx context.Context, refereeID id.IdentityID) (*models.Edge, error)
	CountByReferrer(ctx context.Context, referrerID id.IdentityID) (int, error)
	CountAll(ctx context.Context) (int, error)
	Clear(ctx context.Context)
}
