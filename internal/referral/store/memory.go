package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"creditnet/internal/referral/models"
	id "creditnet/pkg/domain"
	"creditnet/pkg/platform/sentinel"
)

// Error Contract:
// All store methods follow this error pattern:
// - Return ErrNotFound when the requested entity does not exist
// - Return ErrDuplicate when a uniqueness constraint would be violated
// - Return nil for successful operations
// - Return wrapped errors with context for infrastructure failures
//
// Reads hand out detached copies and writes store one, so callers never
// alias an entity the store still owns.

// InMemoryInvitationStore stores invitations in memory behind an RWMutex.
type InMemoryInvitationStore struct {
	mu          sync.RWMutex
	invitations map[id.InvitationToken]*models.Invitation
}

// NewInMemoryInvitationStore constructs an empty in-memory invitation store.
func NewInMemoryInvitationStore() *InMemoryInvitationStore {
	return &InMemoryInvitationStore{invitations: make(map[id.InvitationToken]*models.Invitation)}
}

func (s *InMemoryInvitationStore) Create(_ context.Context, invitation *models.Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.invitations[invitation.Token]; exists {
		return fmt.Errorf("invitation token already exists: %w", sentinel.ErrDuplicate)
	}
	cp := *invitation
	s.invitations[invitation.Token] = &cp
	return nil
}

func (s *InMemoryInvitationStore) FindByToken(_ context.Context, token id.InvitationToken) (*models.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if invitation, ok := s.invitations[token]; ok {
		cp := *invitation
		return &cp, nil
	}
	return nil, fmt.Errorf("invitation not found: %w", sentinel.ErrNotFound)
}

// FindPendingByInviteeEmail returns the pending invitation addressed to the
// email, if any. System-wide: the inviter is irrelevant to the lookup.
func (s *InMemoryInvitationStore) FindPendingByInviteeEmail(_ context.Context, email string) (*models.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := strings.ToLower(strings.TrimSpace(email))
	for _, invitation := range s.invitations {
		if invitation.Status == models.StatusPending && invitation.InviteeEmail == key {
			cp := *invitation
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("pending invitation not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryInvitationStore) Update(_ context.Context, invitation *models.Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invitations[invitation.Token]; !ok {
		return fmt.Errorf("invitation not found: %w", sentinel.ErrNotFound)
	}
	cp := *invitation
	s.invitations[invitation.Token] = &cp
	return nil
}

// ListByInviter returns invitations sent by the identity, newest first.
func (s *InMemoryInvitationStore) ListByInviter(_ context.Context, inviterID id.IdentityID) ([]*models.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Invitation
	for _, invitation := range s.invitations {
		if invitation.InviterID == inviterID {
			cp := *invitation
			out = append(out, &cp)
		}
	}
	sortInvitations(out)
	return out, nil
}

// ListByInviteeEmail returns invitations addressed to the email, newest first.
func (s *InMemoryInvitationStore) ListByInviteeEmail(_ context.Context, email string) ([]*models.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := strings.ToLower(strings.TrimSpace(email))
	var out []*models.Invitation
	for _, invitation := range s.invitations {
		if invitation.InviteeEmail == key {
			cp := *invitation
			out = append(out, &cp)
		}
	}
	sortInvitations(out)
	return out, nil
}

// Clear wipes all state. Demo affordance; never reached in production wiring.
func (s *InMemoryInvitationStore) Clear(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invitations = make(map[id.InvitationToken]*models.Invitation)
}

func sortInvitations(invitations []*models.Invitation) {
	sort.Slice(invitations, func(i, j int) bool {
		if !invitations[i].CreatedAt.Equal(invitations[j].CreatedAt) {
			return invitations[i].CreatedAt.After(invitations[j].CreatedAt)
		}
		return invitations[i].Token < invitations[j].Token
	})
}

// InMemoryEdgeStore stores referral edges in memory keyed by referee.
type InMemoryEdgeStore struct {
	mu    sync.RWMutex
	edges map[id.IdentityID]*models.Edge
}

// NewInMemoryEdgeStore constructs an empty in-memory edge store.
func NewInMemoryEdgeStore() *InMemoryEdgeStore {
	return &InMemoryEdgeStore{edges: make(map[id.IdentityID]*models.Edge)}
}

func (s *InMemoryEdgeStore) Create(_ context.Context, edge *models.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.edges[edge.RefereeID]; ok {
		return fmt.Errorf("identity %s already has referrer %s: %w",
			edge.RefereeID, existing.ReferrerID, sentinel.ErrDuplicate)
	}
	cp := *edge
	s.edges[edge.RefereeID] = &cp
	return nil
}

func (s *InMemoryEdgeStore) FindByReferee(_ context.Context, refereeID id.IdentityID) (*models.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if edge, ok := s.edges[refereeID]; ok {
		cp := *edge
		return &cp, nil
	}
	return nil, fmt.Errorf("referral edge not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryEdgeStore) CountByReferrer(_ context.Context, referrerID id.IdentityID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, edge := range s.edges {
		if edge.ReferrerID == referrerID {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryEdgeStore) CountAll(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.edges), nil
}

// Clear wipes all state. Demo affordance; never reached in production wiring.
func (s *InMemoryEdgeStore) Clear(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges = make(map[id.IdentityID]*models.Edge)
}
