// Package identity signs players in with the social identity provider
// (OAuth 2.0 authorization code + PKCE) and keeps their server-side sessions.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"survive-arena/internal/domain"
)

// Default provider endpoints (X / Twitter OAuth 2.0).
const (
	DefaultAuthURL     = "https://twitter.com/i/oauth2/authorize"
	DefaultTokenURL    = "https://api.twitter.com/2/oauth2/token"
	DefaultUserInfoURL = "https://api.twitter.com/2/users/me?user.fields=profile_image_url"
)

// DefaultScopes are requested when ProviderConfig.Scopes is empty.
var DefaultScopes = []string{"tweet.read", "users.read"}

// ErrExchange is returned when the provider rejects an authorization code.
var ErrExchange = errors.New("authorization code exchange failed")

// ProviderConfig configures a Provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	Scopes       []string
	HTTPClient   *http.Client
}

// Provider is the OAuth client of the identity provider.
type Provider struct {
	oauth       *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

// NewProvider creates a provider client, filling unset endpoints with the defaults.
func NewProvider(cfg ProviderConfig) (*Provider, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("identity: client id is required")
	}
	if cfg.RedirectURL == "" {
		return nil, errors.New("identity: redirect url is required")
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = DefaultUserInfoURL
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &Provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		userInfoURL: cfg.UserInfoURL,
		httpClient:  cfg.HTTPClient,
	}, nil
}

// NewVerifier returns a fresh PKCE code verifier.
func NewVerifier() string {
	return oauth2.GenerateVerifier()
}

// AuthCodeURL returns the provider consent URL for state, carrying the
// S256 challenge of verifier.
func (p *Provider) AuthCodeURL(state, verifier string) string {
	return p.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

// Exchange trades an authorization code for an access token.
func (p *Provider) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: empty code", ErrExchange)
	}
	tok, err := p.oauth.Exchange(p.clientContext(ctx), code, oauth2.VerifierOption(verifier))
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return nil, fmt.Errorf("%w: %s %s", ErrExchange, re.ErrorCode, re.ErrorDescription)
		}
		return nil, fmt.Errorf("%w: %v", ErrExchange, err)
	}
	return tok, nil
}

// FetchUser reads the authenticated user's profile.
func (p *Provider) FetchUser(ctx context.Context, tok *oauth2.Token) (*domain.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create user request: %w", err)
	}

	resp, err := p.oauth.Client(p.clientContext(ctx), tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read user response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch user: status %d: %s", resp.StatusCode, string(body))
	}

	var envelope struct {
		Data struct {
			ID              string `json:"id"`
			Name            string `json:"name"`
			Username        string `json:"username"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("parse user response: %w", err)
	}
	if envelope.Data.ID == "" {
		return nil, errors.New("fetch user: response carries no id")
	}

	return &domain.Identity{
		ID:              envelope.Data.ID,
		Name:            envelope.Data.Name,
		Username:        envelope.Data.Username,
		ProfileImageURL: envelope.Data.ProfileImageURL,
	}, nil
}

func (p *Provider) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}
