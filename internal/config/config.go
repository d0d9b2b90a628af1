// Package config loads process settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/joho/godotenv"

	"survive-arena/internal/session"
)

// Config holds settings shared by the binaries. Flags in cmd/* default from it.
type Config struct {
	// Ledger
	RPCURL          string
	WSURL           string
	ChainID         int64
	ContractAddress string

	// WalletPrivateKey connects the operator wallet at startup. Empty keeps
	// the server read-only.
	WalletPrivateKey string

	// Storage
	PostgresDSN   string
	ClickHouseDSN string
	RedisURL      string
	UseMemory     bool

	// HTTP
	HTTPAddr     string
	CookieSecure bool
	CookieDomain string
	AfterLogin   string
	SessionTTL   time.Duration

	// Identity provider
	OAuthClientID     string
	OAuthClientSecret string
	OAuthRedirectURL  string

	// Aggregation
	ActivityPolicy  string
	ProfileCacheTTL time.Duration
	VoteRefresh     time.Duration
	Concurrency     int

	// Ingestion
	StartBlock    uint64
	ChunkSize     uint64
	Confirmations uint64
	PollInterval  time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads .env (when present, without overriding the environment) and
// then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	p := parser{getenv: getenv}
	cfg := &Config{
		RPCURL:           p.str("RPC_URL", session.DefaultRPCURL),
		WSURL:            p.str("WS_URL", ""),
		ChainID:          p.int64("CHAIN_ID", session.DefaultChainID),
		ContractAddress:  p.str("CONTRACT_ADDRESS", session.DefaultContractAddress),
		WalletPrivateKey: p.str("WALLET_PRIVATE_KEY", ""),

		PostgresDSN:   p.str("POSTGRES_DSN", ""),
		ClickHouseDSN: p.str("CLICKHOUSE_DSN", ""),
		RedisURL:      p.str("REDIS_URL", ""),
		UseMemory:     p.bool("USE_MEMORY", false),

		HTTPAddr:     p.str("HTTP_ADDR", ":8080"),
		CookieSecure: p.bool("COOKIE_SECURE", false),
		CookieDomain: p.str("COOKIE_DOMAIN", ""),
		AfterLogin:   p.str("AFTER_LOGIN_URL", "/"),
		SessionTTL:   p.duration("SESSION_TTL", 30*24*time.Hour),

		OAuthClientID:     p.str("TWITTER_CLIENT_ID", ""),
		OAuthClientSecret: p.str("TWITTER_CLIENT_SECRET", ""),
		OAuthRedirectURL:  p.str("TWITTER_REDIRECT_URL", ""),

		ActivityPolicy:  p.str("ACTIVITY_TIMESTAMPS", "estimate"),
		ProfileCacheTTL: p.duration("PROFILE_CACHE_TTL", 30*time.Second),
		VoteRefresh:     p.duration("VOTE_REFRESH_INTERVAL", 15*time.Second),
		Concurrency:     int(p.int64("READ_CONCURRENCY", 8)),

		StartBlock:    uint64(p.int64("INGEST_START_BLOCK", 0)),
		ChunkSize:     uint64(p.int64("INGEST_CHUNK_SIZE", 2000)),
		Confirmations: uint64(p.int64("INGEST_CONFIRMATIONS", 2)),
		PollInterval:  p.duration("INGEST_POLL_INTERVAL", 5*time.Second),

		LogLevel:  p.str("LOG_LEVEL", "info"),
		LogFormat: p.str("LOG_FORMAT", "json"),
	}
	if len(p.errs) > 0 {
		return nil, errors.Join(p.errs...)
	}
	return cfg, cfg.Validate()
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return errors.New("RPC_URL is required")
	}
	if !common.IsHexAddress(c.ContractAddress) {
		return fmt.Errorf("CONTRACT_ADDRESS %q is not a hex address", c.ContractAddress)
	}
	if c.ChainID <= 0 {
		return fmt.Errorf("CHAIN_ID must be positive, got %d", c.ChainID)
	}
	if (c.OAuthClientID == "") != (c.OAuthRedirectURL == "") {
		return errors.New("TWITTER_CLIENT_ID and TWITTER_REDIRECT_URL must be set together")
	}
	if c.WalletPrivateKey != "" {
		// The key itself never goes into the error.
		if _, err := crypto.HexToECDSA(strings.TrimPrefix(c.WalletPrivateKey, "0x")); err != nil {
			return errors.New("WALLET_PRIVATE_KEY is not a valid hex secp256k1 key")
		}
	}
	return nil
}

// WritesEnabled reports whether an operator wallet is configured.
func (c *Config) WritesEnabled() bool {
	return c.WalletPrivateKey != ""
}

// IdentityEnabled reports whether sign-in is configured.
func (c *Config) IdentityEnabled() bool {
	return c.OAuthClientID != ""
}

type parser struct {
	getenv func(string) string
	errs   []error
}

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(p.getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) int64(key string, def int64) int64 {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return def
	}
	return n
}

func (p *parser) bool(key string, def bool) bool {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid boolean %q", key, v))
		return def
	}
	return b
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return def
	}
	return d
}
