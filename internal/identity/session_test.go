package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"survive-arena/internal/domain"
)

var alice = domain.Identity{ID: "42", Username: "alice", ProfileImageURL: "https://img/alice.png"}

func TestMemoryStore_Lifecycle(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	sess, err := store.Create(ctx, alice)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, now.Add(time.Hour), sess.ExpiresAt)

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, alice, got.User)

	now = now.Add(2 * time.Hour)
	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	other, err := store.Create(ctx, alice)
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, other.ID))
	_, err = store.Get(ctx, other.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStore_Lifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	defer func() { _ = container.Terminate(ctx) }()

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: endpoint})
	defer rdb.Close()

	store := NewRedisStore(rdb, time.Minute)

	sess, err := store.Create(ctx, alice)
	require.NoError(t, err)

	ttl, err := rdb.TTL(ctx, sessionKeyPrefix+sess.ID).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, alice, got.User)

	require.NoError(t, store.Delete(ctx, sess.ID))
	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCookies_SessionAndLogin(t *testing.T) {
	c := Cookies{Secure: true}

	rec := httptest.NewRecorder()
	c.SetSession(rec, &Session{ID: "sid-1", ExpiresAt: time.Now().Add(time.Hour)})
	c.SetLogin(rec, "state-1", "verifier-1")

	req := httptest.NewRequest(http.MethodGet, "/api/auth/callback", nil)
	for _, ck := range rec.Result().Cookies() {
		assert.True(t, ck.HttpOnly)
		assert.True(t, ck.Secure)
		req.AddCookie(ck)
	}

	assert.Equal(t, "sid-1", c.SessionID(req))

	out := httptest.NewRecorder()
	state, verifier, ok := c.Login(out, req)
	require.True(t, ok)
	assert.Equal(t, "state-1", state)
	assert.Equal(t, "verifier-1", verifier)

	cleared := out.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, LoginCookieName, cleared[0].Name)
	assert.Equal(t, -1, cleared[0].MaxAge)

	_, _, ok = c.Login(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
}
