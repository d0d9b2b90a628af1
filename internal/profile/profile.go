// Package profile decorates on-chain addresses with off-chain identities.
package profile

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"survive-arena/internal/domain"
	"survive-arena/internal/storage"
)

// Store is the subset of storage.ProfileStore the merge step reads.
type Store interface {
	GetByWalletAddress(ctx context.Context, address string) (*domain.Profile, error)
}

// Service looks up profiles by wallet address.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService creates a lookup service over store.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// Lookup returns the profile linked to address. Absence and store failures
// both report false: callers fall back to the raw address.
func (s *Service) Lookup(ctx context.Context, address string) (domain.Profile, bool) {
	if s == nil || s.store == nil {
		return domain.Profile{}, false
	}
	addr := domain.NormalizeAddress(address)
	if addr == "" {
		return domain.Profile{}, false
	}

	p, err := s.store.GetByWalletAddress(ctx, addr)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("profile lookup failed", zap.String("address", addr), zap.Error(err))
		}
		return domain.Profile{}, false
	}
	if p == nil {
		return domain.Profile{}, false
	}
	return *p, true
}

// Merge copies the display fields of p onto record.
func Merge(record *domain.PlayerRecord, p domain.Profile) {
	if record == nil {
		return
	}
	record.TwitterUsername = p.TwitterUsername
	record.ProfileImage = p.ProfileImage
}
