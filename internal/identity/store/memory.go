package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"creditnet/internal/identity/models"
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

// InMemoryIdentityStore stores identities in memory behind an RWMutex.
type InMemoryIdentityStore struct {
	mu         sync.RWMutex
	identities map[id.IdentityID]*models.Identity
	byEmail    map[string]id.IdentityID
}

// NewInMemoryIdentityStore constructs an empty in-memory identity store.
func NewInMemoryIdentityStore() *InMemoryIdentityStore {
	return &InMemoryIdentityStore{
		identities: make(map[id.IdentityID]*models.Identity),
		byEmail:    make(map[string]id.IdentityID),
	}
}

func (s *InMemoryIdentityStore) Create(_ context.Context, identity *models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := emailKey(identity.Email)
	if _, exists := s.byEmail[key]; exists {
		return fmt.Errorf("email already registered: %w", sentinel.ErrDuplicate)
	}
	if _, exists := s.identities[identity.ID]; exists {
		return fmt.Errorf("identity already exists: %w", sentinel.ErrDuplicate)
	}
	cp := *identity
	s.identities[identity.ID] = &cp
	s.byEmail[key] = identity.ID
	return nil
}

func (s *InMemoryIdentityStore) FindByID(_ context.Context, identityID id.IdentityID) (*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if identity, ok := s.identities[identityID]; ok {
		cp := *identity
		return &cp, nil
	}
	return nil, fmt.Errorf("identity not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryIdentityStore) FindByEmail(_ context.Context, email string) (*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if identityID, ok := s.byEmail[emailKey(email)]; ok {
		cp := *s.identities[identityID]
		return &cp, nil
	}
	return nil, fmt.Errorf("identity not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryIdentityStore) Update(_ context.Context, identity *models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.identities[identity.ID]; !ok {
		return fmt.Errorf("identity not found: %w", sentinel.ErrNotFound)
	}
	cp := *identity
	s.identities[identity.ID] = &cp
	return nil
}

// ListAll returns identities ordered by registration time, then id.
// Deterministic ordering keeps leaderboard tie-breaks reproducible.
func (s *InMemoryIdentityStore) ListAll(_ context.Context) ([]*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Identity, 0, len(s.identities))
	for _, identity := range s.identities {
		cp := *identity
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *InMemoryIdentityStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.identities), nil
}

// Clear wipes all state. Demo affordance; never reached in production wiring.
func (s *InMemoryIdentityStore) Clear(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities = make(map[id.IdentityID]*models.Identity)
	s.byEmail = make(map[string]id.IdentityID)
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// InMemoryWalletStore stores wallets in memory keyed by lowercased address.
type InMemoryWalletStore struct {
	mu      sync.RWMutex
	wallets map[string]*models.Wallet
}

// NewInMemoryWalletStore constructs an empty in-memory wallet store.
func NewInMemoryWalletStore() *InMemoryWalletStore {
	return &InMemoryWalletStore{wallets: make(map[string]*models.Wallet)}
}

func (s *InMemoryWalletStore) Link(_ context.Context, wallet *models.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := addressKey(wallet.Address)
	if existing, ok := s.wallets[key]; ok {
		return fmt.Errorf("wallet %s already linked to identity %s: %w",
			existing.Address, existing.IdentityID, sentinel.ErrDuplicate)
	}
	cp := *wallet
	s.wallets[key] = &cp
	return nil
}

func (s *InMemoryWalletStore) Unlink(_ context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := addressKey(address)
	if _, ok := s.wallets[key]; !ok {
		return fmt.Errorf("wallet not found: %w", sentinel.ErrNotFound)
	}
	delete(s.wallets, key)
	return nil
}

func (s *InMemoryWalletStore) FindByAddress(_ context.Context, address string) (*models.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if wallet, ok := s.wallets[addressKey(address)]; ok {
		cp := *wallet
		return &cp, nil
	}
	return nil, fmt.Errorf("wallet not found: %w", sentinel.ErrNotFound)
}

// ListByIdentity returns the identity's wallets ordered by link time, then address.
func (s *InMemoryWalletStore) ListByIdentity(_ context.Context, identityID id.IdentityID) ([]*models.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Wallet
	for _, wallet := range s.wallets {
		if wallet.IdentityID == identityID {
			cp := *wallet
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LinkedAt.Equal(out[j].LinkedAt) {
			return out[i].LinkedAt.Before(out[j].LinkedAt)
		}
		return out[i].Address < out[j].Address
	})
	return out, nil
}

func (s *InMemoryWalletStore) UpdateScore(_ context.Context, address string, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	wallet, ok := s.wallets[addressKey(address)]
	if !ok {
		return fmt.Errorf("wallet not found: %w", sentinel.ErrNotFound)
	}
	wallet.OnChainScore = score
	return nil
}

// Clear wipes all state. Demo affordance; never reached in production wiring.
func (s *InMemoryWalletStore) Clear(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallets = make(map[string]*models.Wallet)
}

func addressKey(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
