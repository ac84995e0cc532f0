package store

import (
	"context"
	"fmt"
	"sync"

	"creditnet/internal/score/models"
	id "creditnet/pkg/domain"
	"creditnet/pkg/platform/sentinel"
)

// Error Contract:
// All store methods follow this error pattern:
// - Return ErrNotFound when the requested entity does not exist
// - Return nil for successful operations
// - Return wrapped errors with context for infrastructure failures
//
// Reads hand out detached copies and Save stores one, so callers never
// alias a record the store still owns.

// InMemoryScoreStore keeps score records in memory behind an RWMutex.
type InMemoryScoreStore struct {
	mu      sync.RWMutex
	records map[id.IdentityID]*models.Record
}

// NewInMemoryScoreStore constructs an empty in-memory score store.
func NewInMemoryScoreStore() *InMemoryScoreStore {
	return &InMemoryScoreStore{records: make(map[id.IdentityID]*models.Record)}
}

func (s *InMemoryScoreStore) GetOrCreate(_ context.Context, identityID id.IdentityID) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[identityID]
	if !ok {
		record = &models.Record{IdentityID: identityID}
		s.records[identityID] = record
	}
	cp := *record
	return &cp, nil
}

func (s *InMemoryScoreStore) Find(_ context.Context, identityID id.IdentityID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.records[identityID]; ok {
		cp := *record
		return &cp, nil
	}
	return nil, fmt.Errorf("score record not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryScoreStore) Save(_ context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *record
	s.records[record.IdentityID] = &cp
	return nil
}

// Clear wipes all state. Demo affordance; never reached in production wiring.
func (s *InMemoryScoreStore) Clear(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[id.IdentityID]*models.Record)
}
