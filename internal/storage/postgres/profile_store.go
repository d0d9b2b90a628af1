package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"survive-arena/internal/domain"
	"survive-arena/internal/observability"
	"survive-arena/internal/storage"
)

// ProfileStore implements storage.ProfileStore using PostgreSQL.
type ProfileStore struct {
	pool *Pool
}

// NewProfileStore creates a new ProfileStore.
func NewProfileStore(pool *Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ProfileStore = (*ProfileStore)(nil)

const profileColumns = `id, twitter_id, twitter_username, wallet_address, profile_image, created_at, last_login, is_active`

// GetByID retrieves a profile by row id. Returns ErrNotFound if not exists.
func (s *ProfileStore) GetByID(ctx context.Context, id int64) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM players WHERE id = $1`
	return s.getOne(ctx, "get_profile_by_id", query, id)
}

// GetByTwitterID retrieves a profile by identity-provider id.
func (s *ProfileStore) GetByTwitterID(ctx context.Context, twitterID string) (*domain.Profile, error) {
	if twitterID == "" {
		return nil, storage.ErrInvalidInput
	}
	query := `SELECT ` + profileColumns + ` FROM players WHERE twitter_id = $1`
	return s.getOne(ctx, "get_profile_by_twitter_id", query, twitterID)
}

// GetByWalletAddress retrieves the most recently active profile for address.
func (s *ProfileStore) GetByWalletAddress(ctx context.Context, address string) (*domain.Profile, error) {
	addr := domain.NormalizeAddress(address)
	if addr == "" {
		return nil, storage.ErrInvalidInput
	}
	query := `
		SELECT ` + profileColumns + `
		FROM players
		WHERE wallet_address = $1
		ORDER BY last_login DESC
		LIMIT 1
	`
	return s.getOne(ctx, "get_profile_by_wallet", query, addr)
}

func (s *ProfileStore) getOne(ctx context.Context, op, query string, arg any) (*domain.Profile, error) {
	start := time.Now()
	p, err := scanProfile(s.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if isNotFoundError(err) {
			observability.RecordDBQuery("postgres", op, time.Since(start).Seconds(), nil)
			return nil, storage.ErrNotFound
		}
		observability.RecordDBQuery("postgres", op, time.Since(start).Seconds(), err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	observability.RecordDBQuery("postgres", op, time.Since(start).Seconds(), nil)
	return p, nil
}

// Upsert inserts a new active profile or, when the twitter id exists,
// updates its wallet address, last login and non-empty display fields.
func (s *ProfileStore) Upsert(ctx context.Context, p *domain.Profile) (*domain.Profile, error) {
	if p == nil || p.TwitterID == "" {
		return nil, storage.ErrInvalidInput
	}

	query := `
		INSERT INTO players (twitter_id, twitter_username, wallet_address, profile_image, last_login, is_active)
		VALUES ($1, $2, $3, $4, NOW(), TRUE)
		ON CONFLICT (twitter_id) DO UPDATE SET
			wallet_address   = EXCLUDED.wallet_address,
			twitter_username = COALESCE(NULLIF(EXCLUDED.twitter_username, ''), players.twitter_username),
			profile_image    = COALESCE(NULLIF(EXCLUDED.profile_image, ''), players.profile_image),
			last_login       = NOW()
		RETURNING ` + profileColumns

	start := time.Now()
	stored, err := scanProfile(s.pool.QueryRow(ctx, query,
		p.TwitterID,
		p.TwitterUsername,
		domain.NormalizeAddress(p.WalletAddress),
		p.ProfileImage,
	))
	observability.RecordDBQuery("postgres", "upsert_profile", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	return stored, nil
}

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var p domain.Profile
	err := row.Scan(
		&p.ID,
		&p.TwitterID,
		&p.TwitterUsername,
		&p.WalletAddress,
		&p.ProfileImage,
		&p.CreatedAt,
		&p.LastLogin,
		&p.IsActive,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
