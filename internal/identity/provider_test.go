package identity

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"survive-arena/internal/domain"
)

func newTestProvider(t *testing.T, srv *httptest.Server) *Provider {
	t.Helper()
	p, err := NewProvider(ProviderConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8080/api/auth/callback",
		AuthURL:      srv.URL + "/authorize",
		TokenURL:     srv.URL + "/token",
		UserInfoURL:  srv.URL + "/me",
		HTTPClient:   srv.Client(),
	})
	require.NoError(t, err)
	return p
}

func TestProvider_AuthCodeURLCarriesChallenge(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	p := newTestProvider(t, srv)
	raw := p.AuthCodeURL("state-1", NewVerifier())

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "/authorize", u.Path)
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "client", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.NotEmpty(t, q.Get("code_challenge"))
	assert.Equal(t, "tweet.read users.read", q.Get("scope"))
}

func TestProvider_ExchangeAndFetchUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") != "good-code" || r.PostForm.Get("code_verifier") != "verifier-1" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"bad code"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","token_type":"bearer","expires_in":7200}`))
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]string{
				"id":                "42",
				"name":              "Alice",
				"username":          "alice",
				"profile_image_url": "https://img/alice.png",
			},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := newTestProvider(t, srv)

	tok, err := p.Exchange(t.Context(), "good-code", "verifier-1")
	require.NoError(t, err)
	assert.Equal(t, "at-1", tok.AccessToken)

	user, err := p.FetchUser(t.Context(), tok)
	require.NoError(t, err)
	assert.Equal(t, domain.Identity{ID: "42", Name: "Alice", Username: "alice", ProfileImageURL: "https://img/alice.png"}, *user)

	_, err = p.Exchange(t.Context(), "bad-code", "verifier-1")
	assert.ErrorIs(t, err, ErrExchange)
	assert.Contains(t, err.Error(), "invalid_grant")

	_, err = p.FetchUser(t.Context(), &oauth2.Token{AccessToken: "wrong"})
	assert.Error(t, err)
}

func TestNewProvider_RequiresClientAndRedirect(t *testing.T) {
	_, err := NewProvider(ProviderConfig{RedirectURL: "http://x"})
	assert.Error(t, err)
	_, err = NewProvider(ProviderConfig{ClientID: "c"})
	assert.Error(t, err)
}
