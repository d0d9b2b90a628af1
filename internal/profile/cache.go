package profile

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"survive-arena/internal/domain"
	"survive-arena/internal/observability"
)

// DefaultCacheTTL keeps profiles briefly so a roster render does not hit the
// store once per player on every refresh.
const DefaultCacheTTL = 30 * time.Second

const cacheKeyPrefix = "profile:wallet:"

// CachedStore is a read-through Redis cache in front of a Store.
// Only hits are cached; cache failures fall through to the store.
type CachedStore struct {
	next   Store
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedStore wraps next with a Redis cache.
func NewCachedStore(next Store, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedStore{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

var _ Store = (*CachedStore)(nil)

// GetByWalletAddress returns the cached profile or loads it from the store.
func (c *CachedStore) GetByWalletAddress(ctx context.Context, address string) (*domain.Profile, error) {
	addr := domain.NormalizeAddress(address)
	key := cacheKeyPrefix + addr

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p domain.Profile
		if jerr := json.Unmarshal(raw, &p); jerr == nil {
			observability.RecordProfileCache("hit")
			return &p, nil
		}
		observability.RecordProfileCache("error")
	case errors.Is(err, redis.Nil):
		observability.RecordProfileCache("miss")
	default:
		observability.RecordProfileCache("error")
		c.logger.Debug("profile cache read failed", zap.String("key", key), zap.Error(err))
	}

	p, err := c.next.GetByWalletAddress(ctx, addr)
	if err != nil {
		return nil, err
	}

	if data, jerr := json.Marshal(p); jerr == nil {
		if serr := c.rdb.Set(ctx, key, data, c.ttl).Err(); serr != nil {
			c.logger.Debug("profile cache write failed", zap.String("key", key), zap.Error(serr))
		}
	}
	return p, nil
}

// Invalidate drops the cached entry of address, after an upsert.
func (c *CachedStore) Invalidate(ctx context.Context, address string) error {
	return c.rdb.Del(ctx, cacheKeyPrefix+domain.NormalizeAddress(address)).Err()
}
