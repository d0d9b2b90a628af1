package profile

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"survive-arena/internal/domain"
)

type countingStore struct {
	calls atomic.Int32
	p     *domain.Profile
}

func (s *countingStore) GetByWalletAddress(context.Context, string) (*domain.Profile, error) {
	s.calls.Add(1)
	cp := *s.p
	return &cp, nil
}

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestCachedStore_ReadThrough(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()

	next := &countingStore{p: &domain.Profile{ID: 3, TwitterUsername: "carol", WalletAddress: "0x01"}}
	cache := NewCachedStore(next, rdb, time.Minute, nil)

	for i := 0; i < 3; i++ {
		p, err := cache.GetByWalletAddress(ctx, "0x01")
		require.NoError(t, err)
		assert.Equal(t, "carol", p.TwitterUsername)
	}
	assert.Equal(t, int32(1), next.calls.Load())

	require.NoError(t, cache.Invalidate(ctx, "0x01"))
	_, err := cache.GetByWalletAddress(ctx, "0x01")
	require.NoError(t, err)
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestCachedStore_RedisDownFallsThrough(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()

	next := &countingStore{p: &domain.Profile{TwitterUsername: "dave"}}
	cache := NewCachedStore(next, rdb, time.Minute, nil)

	p, err := cache.GetByWalletAddress(context.Background(), "0x02")
	require.NoError(t, err)
	assert.Equal(t, "dave", p.TwitterUsername)
}
