package store

import (
	"context"

	"creditnet/internal/identity/models"
	id "creditnet/pkg/domain"
)

// IdentityStore persists identities keyed by id with a unique index on email.
type IdentityStore interface {
	Create(ctx context.Context, identity *models.Identity) error
	FindByID(ctx context.Context, identityID id.IdentityID) (*models.Identity, error)
	FindByEmail(ctx context.Context, email string) (*models.Identity, error)
	Update(ctx context.Context, identity *models.Identity) error
	ListAll(ctx context.Context) ([]*models.Identity, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context)
}

// WalletStore persists wallets keyed by address with a secondary index by identity.
type WalletStore interface {
	Link(ctx context.Context, wallet *models.Wallet) error
	Unlink(ctx context.Context, address string) error
	FindByAddress(ctx context.Context, address string) (*models.Wallet, error)
	ListByIdentity(ctx context.Context, identityID id.IdentityID) ([]*models.Wallet, error)
	UpdateScore(ctx context.Context, address string, score int) error
	Clear(ctx context.Context)
}
