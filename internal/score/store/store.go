package store

import (
	"context"

	"creditnet/internal/score/models"
	id "creditnet/pkg/domain"
)

// ScoreStore persists per-identity score records.
type ScoreStore interface {
	// GetOrCreate returns the identity's record, initializing a zeroed one
	// on first access. "No signal" is a valid low state, not an error.
	GetOrCreate(ctx context.Context, identityID id.IdentityID) (*models.Record, error)
	Find(ctx context.Context, identityID id.IdentityID) (*models.Record, error)
	Save(ctx context.Context, record *models.Record) error
	Clear(ctx context.Context)
}
