package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"survive-arena/internal/domain"
	"survive-arena/internal/storage"
)

func TestProfileStore_UpsertInsertsThenUpdates(t *testing.T) {
	store := NewProfileStore()
	ctx := context.Background()

	first, err := store.Upsert(ctx, &domain.Profile{
		TwitterID:       "42",
		TwitterUsername: "alice",
		WalletAddress:   "0xABCDEF0000000000000000000000000000000001",
		ProfileImage:    "https://img/alice.png",
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if !first.IsActive {
		t.Error("new profile should be active")
	}
	if first.WalletAddress != "0xabcdef0000000000000000000000000000000001" {
		t.Errorf("wallet not lowercased: %s", first.WalletAddress)
	}

	store.now = func() time.Time { return first.LastLogin.Add(time.Hour) }
	second, err := store.Upsert(ctx, &domain.Profile{
		TwitterID:     "42",
		WalletAddress: "0x0000000000000000000000000000000000000002",
	})
	if err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected same row, got ids %d and %d", first.ID, second.ID)
	}
	if second.TwitterUsername != "alice" {
		t.Errorf("username should be kept, got %q", second.TwitterUsername)
	}
	if !second.LastLogin.After(first.LastLogin) {
		t.Error("last_login should advance")
	}

	if _, err := store.GetByWalletAddress(ctx, "0xabcdef0000000000000000000000000000000001"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("old wallet should no longer resolve, got %v", err)
	}
	got, err := store.GetByWalletAddress(ctx, "0x0000000000000000000000000000000000000002")
	if err != nil {
		t.Fatalf("GetByWalletAddress failed: %v", err)
	}
	if got.TwitterID != "42" {
		t.Errorf("unexpected profile %+v", got)
	}
}

func TestProfileStore_GetByIDAndTwitterID(t *testing.T) {
	store := NewProfileStore()
	ctx := context.Background()

	p, err := store.Upsert(ctx, &domain.Profile{TwitterID: "7", TwitterUsername: "bob"})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	byID, err := store.GetByID(ctx, p.ID)
	if err != nil || byID.TwitterUsername != "bob" {
		t.Fatalf("GetByID: %v %+v", err, byID)
	}
	byTwitter, err := store.GetByTwitterID(ctx, "7")
	if err != nil || byTwitter.ID != p.ID {
		t.Fatalf("GetByTwitterID: %v %+v", err, byTwitter)
	}

	if _, err := store.GetByID(ctx, 999); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestProfileStore_InvalidInput(t *testing.T) {
	store := NewProfileStore()
	if _, err := store.Upsert(context.Background(), &domain.Profile{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
