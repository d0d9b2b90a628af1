package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"survive-arena/internal/domain"
	"survive-arena/internal/storage"
)

// LedgerEventStore is an in-memory implementation of storage.LedgerEventStore.
type LedgerEventStore struct {
	mu     sync.RWMutex
	events map[string]*domain.LedgerEvent // keyed by ID
}

// NewLedgerEventStore creates a new in-memory ledger event store.
func NewLedgerEventStore() *LedgerEventStore {
	return &LedgerEventStore{
		events: make(map[string]*domain.LedgerEvent),
	}
}

var _ storage.LedgerEventStore = (*LedgerEventStore)(nil)

// InsertBulk appends events, skipping IDs already stored.
func (s *LedgerEventStore) InsertBulk(_ context.Context, events []*domain.LedgerEvent) (int, error) {
	for _, e := range events {
		if e == nil || e.ID == "" {
			return 0, storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, e := range events {
		if _, exists := s.events[e.ID]; exists {
			continue
		}
		cp := *e
		s.events[e.ID] = &cp
		inserted++
	}
	return inserted, nil
}

// GetByPool retrieves events of a pool ordered by (block, log index).
func (s *LedgerEventStore) GetByPool(_ context.Context, poolID uint64) ([]*domain.LedgerEvent, error) {
	return s.filter(func(e *domain.LedgerEvent) bool { return e.PoolID == poolID }), nil
}

// GetByTx retrieves events of a transaction ordered by log index.
func (s *LedgerEventStore) GetByTx(_ context.Context, txHash string) ([]*domain.LedgerEvent, error) {
	hash := strings.ToLower(txHash)
	return s.filter(func(e *domain.LedgerEvent) bool { return strings.ToLower(e.TxHash) == hash }), nil
}

func (s *LedgerEventStore) filter(match func(*domain.LedgerEvent) bool) []*domain.LedgerEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.LedgerEvent
	for _, e := range s.events {
		if match(e) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BlockNumber != out[j].BlockNumber {
			return out[i].BlockNumber < out[j].BlockNumber
		}
		return out[i].LogIndex < out[j].LogIndex
	})
	return out
}
