package memory

import (
	"context"
	"errors"
	"testing"

	"survive-arena/internal/domain"
	"survive-arena/internal/storage"
)

func TestLedgerEventStore_InsertBulkSkipsDuplicates(t *testing.T) {
	store := NewLedgerEventStore()
	ctx := context.Background()

	events := []*domain.LedgerEvent{
		{ID: "b", BlockNumber: 11, LogIndex: 0, TxHash: "0xBB", PoolID: 1, EventName: domain.LedgerEventVoteCast},
		{ID: "a", BlockNumber: 10, LogIndex: 2, TxHash: "0xaa", PoolID: 1, EventName: domain.LedgerEventPlayerJoined},
		{ID: "c", BlockNumber: 10, LogIndex: 1, TxHash: "0xaa", PoolID: 2, EventName: domain.LedgerEventPoolCreated},
	}

	n, err := store.InsertBulk(ctx, events)
	if err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 inserted, got %d", n)
	}

	n, err = store.InsertBulk(ctx, events[:1])
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if n != 0 {
		t.Errorf("replay should insert nothing, got %d", n)
	}

	pool1, err := store.GetByPool(ctx, 1)
	if err != nil {
		t.Fatalf("GetByPool failed: %v", err)
	}
	if len(pool1) != 2 || pool1[0].ID != "a" || pool1[1].ID != "b" {
		t.Errorf("unexpected order: %+v", pool1)
	}

	tx, err := store.GetByTx(ctx, "0xAA")
	if err != nil {
		t.Fatalf("GetByTx failed: %v", err)
	}
	if len(tx) != 2 || tx[0].ID != "c" {
		t.Errorf("unexpected tx events: %+v", tx)
	}
}

func TestLedgerEventStore_InvalidInput(t *testing.T) {
	store := NewLedgerEventStore()
	_, err := store.InsertBulk(context.Background(), []*domain.LedgerEvent{{}})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestIngestProgressStore(t *testing.T) {
	store := NewIngestProgressStore()
	ctx := context.Background()

	if _, err := store.GetLastBlock(ctx, "0xpool"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.SetLastBlock(ctx, "0xpool", 1234); err != nil {
		t.Fatalf("SetLastBlock failed: %v", err)
	}
	block, err := store.GetLastBlock(ctx, "0xpool")
	if err != nil || block != 1234 {
		t.Fatalf("GetLastBlock = %d, %v", block, err)
	}
	if err := store.SetLastBlock(ctx, "", 1); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
