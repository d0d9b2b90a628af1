package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survive-arena/internal/domain"
	"survive-arena/internal/idhash"
	"survive-arena/internal/storage"
)

func ledgerEvent(tx string, logIndex uint, block, poolID uint64, name string) *domain.LedgerEvent {
	return &domain.LedgerEvent{
		ID:          idhash.ComputeLedgerEventID(tx, logIndex),
		BlockNumber: block,
		BlockHash:   "0xBLOCK",
		TxHash:      tx,
		LogIndex:    logIndex,
		EventName:   name,
		PoolID:      poolID,
		Actor:       "0xAAaa000000000000000000000000000000000001",
		Amount:      "0.1",
		Timestamp:   int64(block) * 1000,
	}
}

func TestLedgerEventStore_InsertBulkSkipsExisting(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewLedgerEventStore(conn)
	ctx := context.Background()

	first := []*domain.LedgerEvent{
		ledgerEvent("0xT1", 0, 10, 1, domain.LedgerEventPlayerJoined),
		ledgerEvent("0xT1", 1, 10, 1, domain.LedgerEventVoteCast),
	}
	n, err := store.InsertBulk(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	replay := []*domain.LedgerEvent{
		ledgerEvent("0xT1", 1, 10, 1, domain.LedgerEventVoteCast),
		ledgerEvent("0xT2", 0, 9, 1, domain.LedgerEventBetPlaced),
		ledgerEvent("0xT2", 0, 9, 1, domain.LedgerEventBetPlaced),
	}
	n, err = store.InsertBulk(ctx, replay)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	events, err := store.GetByPool(ctx, 1)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, domain.LedgerEventBetPlaced, events[0].EventName)
	assert.Equal(t, uint64(9), events[0].BlockNumber)
	assert.Equal(t, uint(0), events[1].LogIndex)
	assert.Equal(t, uint(1), events[2].LogIndex)
	assert.Equal(t, "0xaaaa000000000000000000000000000000000001", events[1].Actor)
	assert.Equal(t, int64(10000), events[1].Timestamp)
}

func TestLedgerEventStore_GetByTx(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewLedgerEventStore(conn)
	ctx := context.Background()

	_, err := store.InsertBulk(ctx, []*domain.LedgerEvent{
		ledgerEvent("0xABC", 3, 20, 2, domain.LedgerEventChampionDeclared),
		ledgerEvent("0xABC", 1, 20, 2, domain.LedgerEventPoolCompleted),
		ledgerEvent("0xDEF", 0, 21, 2, domain.LedgerEventRewardClaimed),
	})
	require.NoError(t, err)

	events, err := store.GetByTx(ctx, "0xabc")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.LedgerEventPoolCompleted, events[0].EventName)
	assert.Equal(t, domain.LedgerEventChampionDeclared, events[1].EventName)

	empty, err := store.GetByPool(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestLedgerEventStore_RejectsEventWithoutID(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewLedgerEventStore(conn)
	_, err := store.InsertBulk(context.Background(), []*domain.LedgerEvent{{TxHash: "0x1"}})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
