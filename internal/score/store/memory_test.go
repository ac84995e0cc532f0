package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"creditnet/internal/score/models"
	id "creditnet/pkg/domain"
	"creditnet/pkg/platform/sentinel"
)

type InMemoryScoreStoreSuite struct {
	suite.Suite
	store *InMemoryScoreStore
}

func (s *InMemoryScoreStoreSuite) SetupTest() {
	s.store = NewInMemoryScoreStore()
}

func (s *InMemoryScoreStoreSuite) TestGetOrCreateInitializesZeroed() {
	ctx := context.Background()
	identityID := id.DeriveIdentityID("salt", "alice@example.com")

	record, err := s.store.GetOrCreate(ctx, identityID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), &models.Record{IdentityID: identityID}, record)

	// The zeroed record is persisted, not just synthesized for the caller.
	found, err := s.store.Find(ctx, identityID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), record, found)
}

func (s *InMemoryScoreStoreSuite) TestFindNotFound() {
	_, err := s.store.Find(context.Background(), id.DeriveIdentityID("salt", "ghost@example.com"))
	assert.ErrorIs(s.T(), err, sentinel.ErrNotFound)
}

func (s *InMemoryScoreStoreSuite) TestSaveRoundTrip() {
	ctx := context.Background()
	record := &models.Record{
		IdentityID:     id.DeriveIdentityID("salt", "alice@example.com"),
		OnChainScore:   400,
		OffChainScore:  300,
		ReferralScore:  12.5,
		CompositeScore: 353,
	}
	require.NoError(s.T(), s.store.Save(ctx, record))

	found, err := s.store.Find(ctx, record.IdentityID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), record, found)
}

func (s *InMemoryScoreStoreSuite) TestReadsAndWritesAreDetached() {
	ctx := context.Background()
	record := &models.Record{
		IdentityID:     id.DeriveIdentityID("salt", "alice@example.com"),
		OnChainScore:   400,
		CompositeScore: 160,
	}
	require.NoError(s.T(), s.store.Save(ctx, record))

	// Mutating the caller's record after Save must not leak into the store.
	record.OnChainScore = 0
	found, err := s.store.Find(ctx, record.IdentityID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 400, found.OnChainScore)

	// Nor must mutating a read result.
	found.OnChainScore = 9999
	again, err := s.store.Find(ctx, record.IdentityID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 400, again.OnChainScore)
}

func TestInMemoryScoreStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryScoreStoreSuite))
}
