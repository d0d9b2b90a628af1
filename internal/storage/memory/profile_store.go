package memory

import (
	"context"
	"sync"
	"time"

	"survive-arena/internal/domain"
	"survive-arena/internal/storage"
)

// ProfileStore is an in-memory implementation of storage.ProfileStore.
type ProfileStore struct {
	mu        sync.RWMutex
	nextID    int64
	byID      map[int64]*domain.Profile
	byTwitter map[string]int64
	now       func() time.Time
}

// NewProfileStore creates a new in-memory profile store.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		nextID:    1,
		byID:      make(map[int64]*domain.Profile),
		byTwitter: make(map[string]int64),
		now:       time.Now,
	}
}

var _ storage.ProfileStore = (*ProfileStore)(nil)

// GetByID retrieves a profile by id.
func (s *ProfileStore) GetByID(_ context.Context, id int64) (*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// GetByTwitterID retrieves a profile by identity-provider id.
func (s *ProfileStore) GetByTwitterID(_ context.Context, twitterID string) (*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byTwitter[twitterID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *s.byID[id]
	return &cp, nil
}

// GetByWalletAddress retrieves the most recently active profile for address.
func (s *ProfileStore) GetByWalletAddress(_ context.Context, address string) (*domain.Profile, error) {
	addr := domain.NormalizeAddress(address)
	if addr == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *domain.Profile
	for _, p := range s.byID {
		if p.WalletAddress != addr {
			continue
		}
		if found == nil || p.LastLogin.After(found.LastLogin) {
			found = p
		}
	}
	if found == nil {
		return nil, storage.ErrNotFound
	}
	cp := *found
	return &cp, nil
}

// Upsert inserts or updates the profile keyed by twitter id.
func (s *ProfileStore) Upsert(_ context.Context, p *domain.Profile) (*domain.Profile, error) {
	if p == nil || p.TwitterID == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	if id, ok := s.byTwitter[p.TwitterID]; ok {
		existing := s.byID[id]
		existing.WalletAddress = domain.NormalizeAddress(p.WalletAddress)
		if p.TwitterUsername != "" {
			existing.TwitterUsername = p.TwitterUsername
		}
		if p.ProfileImage != "" {
			existing.ProfileImage = p.ProfileImage
		}
		existing.LastLogin = now
		cp := *existing
		return &cp, nil
	}

	stored := &domain.Profile{
		ID:              s.nextID,
		TwitterID:       p.TwitterID,
		TwitterUsername: p.TwitterUsername,
		WalletAddress:   domain.NormalizeAddress(p.WalletAddress),
		ProfileImage:    p.ProfileImage,
		CreatedAt:       now,
		LastLogin:       now,
		IsActive:        true,
	}
	s.nextID++
	s.byID[stored.ID] = stored
	s.byTwitter[stored.TwitterID] = stored.ID

	cp := *stored
	return &cp, nil
}
