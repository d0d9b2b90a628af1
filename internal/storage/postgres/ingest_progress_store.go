package postgres

import (
	"context"
	"fmt"

	"survive-arena/internal/storage"
)

// IngestProgressStore implements storage.IngestProgressStore using PostgreSQL.
type IngestProgressStore struct {
	pool *Pool
}

// NewIngestProgressStore creates a new IngestProgressStore.
func NewIngestProgressStore(pool *Pool) *IngestProgressStore {
	return &IngestProgressStore{pool: pool}
}

var _ storage.IngestProgressStore = (*IngestProgressStore)(nil)

// GetLastBlock returns the last processed block of stream.
// Returns ErrNotFound if no progress has been saved yet.
func (s *IngestProgressStore) GetLastBlock(ctx context.Context, stream string) (uint64, error) {
	var block int64
	err := s.pool.QueryRow(ctx, `SELECT last_block FROM ingest_progress WHERE stream = $1`, stream).Scan(&block)
	if err != nil {
		if isNotFoundError(err) {
			return 0, storage.ErrNotFound
		}
		return 0, fmt.Errorf("get ingest progress: %w", err)
	}
	return uint64(block), nil
}

// SetLastBlock saves the last processed block of stream (upsert).
func (s *IngestProgressStore) SetLastBlock(ctx context.Context, stream string, block uint64) error {
	if stream == "" {
		return storage.ErrInvalidInput
	}
	query := `
		INSERT INTO ingest_progress (stream, last_block, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (stream) DO UPDATE SET
			last_block = EXCLUDED.last_block,
			updated_at = NOW()
	`
	if _, err := s.pool.Exec(ctx, query, stream, int64(block)); err != nil {
		return fmt.Errorf("set ingest progress: %w", err)
	}
	return nil
}
