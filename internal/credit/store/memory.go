package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"creditnet/internal/credit/models"
	id "creditnet/pkg/domain"
	"creditnet/pkg/platform/sentinel"
)

// Error Contract:
// All store methods follow this error pattern:
// - Return ErrNotFound when the requested entity does not exist
// - Return ErrDuplicate when a uniqueness constraint would be violated
// - Return nil for successful operations
// - Return wrapped errors with context for infrastructure failures

// InMemoryEventStore stores credit events in memory behind an RWMutex.
type InMemoryEventStore struct {
	mu     sync.RWMutex
	events []*models.CreditEvent
	byID   map[id.EventID]struct{}
}

// NewInMemoryEventStore constructs an empty in-memory event store.
func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{byID: make(map[id.EventID]struct{})}
}

func (s *InMemoryEventStore) Append(_ context.Context, event *models.CreditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[event.ID]; exists {
		return fmt.Errorf("credit event already recorded: %w", sentinel.ErrDuplicate)
	}
	cp := *event
	s.events = append(s.events, &cp)
	s.byID[event.ID] = struct{}{}
	return nil
}

// ListByIdentity returns the identity's audit trail, newest first.
func (s *InMemoryEventStore) ListByIdentity(_ context.Context, identityID id.IdentityID) ([]*models.CreditEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.CreditEvent
	for _, event := range s.events {
		if event.IdentityID == identityID {
			cp := *event
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryEventStore) CountAll(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events), nil
}

// Clear wipes all state. Demo affordance; never reached in production wiring.
func (s *InMemoryEventStore) Clear(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
	s.byID = make(map[id.EventID]struct{})
}
