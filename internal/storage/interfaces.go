package storage

import (
	"context"

	"survive-arena/internal/domain"
)

// ProfileStore provides access to the players table: off-chain profiles
// linking a social identity to a wallet address.
type ProfileStore interface {
	// GetByID retrieves a profile by its row id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id int64) (*domain.Profile, error)

	// GetByTwitterID retrieves a profile by identity-provider id. Returns ErrNotFound if not exists.
	GetByTwitterID(ctx context.Context, twitterID string) (*domain.Profile, error)

	// GetByWalletAddress retrieves a profile by wallet address (case-insensitive).
	// Returns ErrNotFound if not exists.
	GetByWalletAddress(ctx context.Context, address string) (*domain.Profile, error)

	// Upsert links a wallet to an identity. An existing row with the same
	// twitter id gets its wallet_address, username, image and last_login
	// updated; otherwise a new active row is inserted. Returns the stored row.
	Upsert(ctx context.Context, p *domain.Profile) (*domain.Profile, error)
}

// LedgerEventStore provides access to the ledger_events archive.
type LedgerEventStore interface {
	// InsertBulk appends events. Events whose ID already exists are skipped,
	// so replaying a block range is harmless. Returns the number inserted.
	InsertBulk(ctx context.Context, events []*domain.LedgerEvent) (int, error)

	// GetByPool retrieves all events of a pool ordered by (block, log index).
	GetByPool(ctx context.Context, poolID uint64) ([]*domain.LedgerEvent, error)

	// GetByTx retrieves all events of a transaction ordered by log index.
	GetByTx(ctx context.Context, txHash string) ([]*domain.LedgerEvent, error)
}

// IngestProgressStore persists the last fully processed block per log stream
// (one stream per contract address), so ingestion resumes after restarts.
type IngestProgressStore interface {
	// GetLastBlock returns the last processed block.
	// Returns ErrNotFound if no progress has been saved yet.
	GetLastBlock(ctx context.Context, stream string) (uint64, error)

	// SetLastBlock saves the last processed block.
	SetLastBlock(ctx context.Context, stream string, block uint64) error
}
