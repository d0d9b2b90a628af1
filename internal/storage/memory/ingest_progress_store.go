package memory

import (
	"context"
	"sync"

	"survive-arena/internal/storage"
)

// IngestProgressStore is an in-memory implementation of storage.IngestProgressStore.
type IngestProgressStore struct {
	mu     sync.RWMutex
	blocks map[string]uint64
}

// NewIngestProgressStore creates a new in-memory ingest progress store.
func NewIngestProgressStore() *IngestProgressStore {
	return &IngestProgressStore{
		blocks: make(map[string]uint64),
	}
}

var _ storage.IngestProgressStore = (*IngestProgressStore)(nil)

// GetLastBlock returns the last processed block of stream.
func (s *IngestProgressStore) GetLastBlock(_ context.Context, stream string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	block, ok := s.blocks[stream]
	if !ok {
		return 0, storage.ErrNotFound
	}
	return block, nil
}

// SetLastBlock saves the last processed block of stream.
func (s *IngestProgressStore) SetLastBlock(_ context.Context, stream string, block uint64) error {
	if stream == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.blocks[stream] = block
	return nil
}
