// Package store defines persistence contracts for the credit event audit
// trail.
package store

import (
	"context"

	"creditnet/internal/credit/models"
	id "creditnet/pkg/domain"
)

// EventStore is the append-only audit trail. Events are never updated or
// deleted outside the demo reset affordance.
type EventStore interface {
	Append(ctx context.Context, event *models.CreditEvent) error
	ListByIdentity(ctx context.Context, identityID id.IdentityID) ([]*models.CreditEvent, error)
	CountAll(ctx context.Context) (int, error)
	Clear(ctx context.Context)
}
