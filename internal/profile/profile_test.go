package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survive-arena/internal/domain"
	"survive-arena/internal/storage/memory"
)

type failingStore struct{}

func (failingStore) GetByWalletAddress(context.Context, string) (*domain.Profile, error) {
	return nil, errors.New("connection refused")
}

func TestService_Lookup(t *testing.T) {
	store := memory.NewProfileStore()
	_, err := store.Upsert(context.Background(), &domain.Profile{
		TwitterID:       "1",
		TwitterUsername: "alice",
		WalletAddress:   "0xAbC0000000000000000000000000000000000001",
		ProfileImage:    "img",
	})
	require.NoError(t, err)

	svc := NewService(store, nil)

	p, ok := svc.Lookup(context.Background(), "0xABC0000000000000000000000000000000000001")
	require.True(t, ok)
	assert.Equal(t, "alice", p.TwitterUsername)

	_, ok = svc.Lookup(context.Background(), "0x0000000000000000000000000000000000000009")
	assert.False(t, ok)
}

func TestService_LookupStoreFailureIsAbsence(t *testing.T) {
	svc := NewService(failingStore{}, nil)
	_, ok := svc.Lookup(context.Background(), "0x0000000000000000000000000000000000000001")
	assert.False(t, ok)

	var nilSvc *Service
	_, ok = nilSvc.Lookup(context.Background(), "0x01")
	assert.False(t, ok)
}

func TestMerge(t *testing.T) {
	rec := &domain.PlayerRecord{Address: "0x01"}
	Merge(rec, domain.Profile{TwitterUsername: "bob", ProfileImage: "pic"})
	assert.Equal(t, "bob", rec.TwitterUsername)
	assert.Equal(t, "pic", rec.ProfileImage)

	Merge(nil, domain.Profile{})
}
