// Package main runs the arena service: HTTP API, vote refresher and, unless
// disabled, contract log ingestion in one process.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"survive-arena/internal/activity"
	"survive-arena/internal/api"
	"survive-arena/internal/config"
	"survive-arena/internal/identity"
	"survive-arena/internal/ingestion"
	"survive-arena/internal/ledger"
	"survive-arena/internal/logging"
	"survive-arena/internal/pool"
	"survive-arena/internal/profile"
	"survive-arena/internal/session"
)

// Server holds all components of the unified service.
type Server struct {
	addr string

	stores    *allStores
	session   *session.Session
	refresher *pool.VoteRefresher
	runner    *ingestion.Runner // nil when ingestion is disabled
	handler   http.Handler
	logger    *zap.Logger

	mu               sync.Mutex
	ingestionStarted time.Time
	ingestionErr     error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// Parse flags (config as defaults)
	httpAddr := flag.String("http-addr", cfg.HTTPAddr, "HTTP listen address")
	rpcURL := flag.String("rpc-url", cfg.RPCURL, "JSON-RPC HTTP endpoint")
	wsURL := flag.String("ws-url", cfg.WSURL, "JSON-RPC WebSocket endpoint (empty selects polling)")
	contractAddr := flag.String("contract", cfg.ContractAddress, "Game contract address")
	chainID := flag.Int64("chain-id", cfg.ChainID, "Expected chain id")
	postgresDSN := flag.String("postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.ClickHouseDSN, "ClickHouse connection string")
	redisURL := flag.String("redis-url", cfg.RedisURL, "Redis URL for sessions and the profile cache (optional)")
	useMemory := flag.Bool("use-memory", cfg.UseMemory, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	ingest := flag.Bool("ingest", true, "Run contract log ingestion in this process")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level")
	logFormat := flag.String("log-format", cfg.LogFormat, "Log format: json or console")
	flag.Parse()

	logger := logging.Must(*logLevel, *logFormat)
	defer func() { _ = logger.Sync() }()

	if !common.IsHexAddress(*contractAddr) {
		logger.Fatal("invalid --contract", zap.String("contract", *contractAddr))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *redisURL, *useMemory, logger)
	if err != nil {
		logger.Fatal("failed to create stores", zap.Error(err))
	}
	defer cleanup()

	rpc := ledger.NewHTTPClient(*rpcURL)
	sess, err := session.New(rpc, session.Config{
		ContractAddress: common.HexToAddress(*contractAddr),
		ChainID:         big.NewInt(*chainID),
		Logger:          logger,
	})
	if err != nil {
		logger.Fatal("failed to create ledger session", zap.Error(err))
	}
	if cfg.WritesEnabled() {
		if err := sess.Connect(ctx, cfg.WalletPrivateKey); err != nil {
			logger.Fatal("failed to connect operator wallet", zap.Error(err))
		}
		logger.Info("operator wallet connected", zap.String("account", sess.Account()))
	} else {
		logger.Info("no WALLET_PRIVATE_KEY, write routes disabled")
	}

	// Profiles: store, optional read-through cache, merge lookup
	var (
		profileStore profile.Store = stores.profiles
		profileCache api.ProfileInvalidator
	)
	if stores.redis != nil {
		cached := profile.NewCachedStore(stores.profiles, stores.redis, cfg.ProfileCacheTTL, logger)
		profileStore, profileCache = cached, cached
	}
	builder := pool.NewBuilder(pool.Options{
		Session:     sess,
		Profiles:    profile.NewService(profileStore, logger),
		Logger:      logger,
		Concurrency: cfg.Concurrency,
	})
	refresher := pool.NewVoteRefresher(sess,
		pool.WithRefreshInterval(cfg.VoteRefresh),
		pool.WithRefresherLogger(logger))
	feed := activity.New(sess,
		activity.WithArchive(stores.events),
		activity.WithPolicy(activity.ParsePolicy(cfg.ActivityPolicy)),
		activity.WithConcurrency(cfg.Concurrency),
		activity.WithLogger(logger))

	// Identity
	var sessions identity.SessionStore = identity.NewMemoryStore(cfg.SessionTTL)
	if stores.redis != nil {
		sessions = identity.NewRedisStore(stores.redis, cfg.SessionTTL)
	}
	var provider *identity.Provider
	if cfg.IdentityEnabled() {
		provider, err = identity.NewProvider(identity.ProviderConfig{
			ClientID:     cfg.OAuthClientID,
			ClientSecret: cfg.OAuthClientSecret,
			RedirectURL:  cfg.OAuthRedirectURL,
		})
		if err != nil {
			logger.Fatal("failed to create identity provider", zap.Error(err))
		}
	} else {
		logger.Warn("identity provider not configured, sign-in disabled")
	}

	server := &Server{
		addr:      *httpAddr,
		stores:    stores,
		session:   sess,
		refresher: refresher,
		logger:    logger,
	}

	if *ingest {
		var ws ledger.WSClient
		if *wsURL != "" {
			wsCfg := ledger.DefaultWSConfig()
			wsCfg.Logger = logger
			client, err := ledger.NewWSClient(ctx, *wsURL, &wsCfg)
			if err != nil {
				logger.Fatal("failed to connect websocket", zap.Error(err))
			}
			defer client.Close()
			ws = client
		}
		server.runner, err = ingestion.NewRunner(ingestion.RunnerOptions{
			RPC:           rpc,
			WS:            ws,
			Contract:      common.HexToAddress(*contractAddr),
			Store:         stores.events,
			Progress:      stores.progress,
			Listeners:     []ingestion.Listener{refresher},
			StartBlock:    cfg.StartBlock,
			ChunkSize:     cfg.ChunkSize,
			Confirmations: cfg.Confirmations,
			PollInterval:  cfg.PollInterval,
			Logger:        logger,
		})
		if err != nil {
			logger.Fatal("failed to create ingestion runner", zap.Error(err))
		}
	}

	handler := api.NewHandler(api.Deps{
		Pools:        builder,
		Activity:     feed,
		Profiles:     stores.profiles,
		Sessions:     sessions,
		Provider:     provider,
		Cookies:      identity.Cookies{Secure: cfg.CookieSecure, Domain: cfg.CookieDomain},
		Votes:        refresher,
		ProfileCache: profileCache,
		Actions:      builder,
		Reinitialize: sess.Reinitialize,
		Status:       server.status,
		AfterLogin:   cfg.AfterLogin,
		Logger:       logger,
	})
	server.handler = handler.NewRouter()

	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

// Run starts every component and blocks until ctx is cancelled or one fails.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	s.refresher.Start(ctx)
	defer s.refresher.Stop()

	g.Go(func() error {
		return api.NewServer(s.addr, s.handler, s.logger).Run(ctx)
	})

	if s.runner != nil {
		g.Go(func() error {
			s.mu.Lock()
			s.ingestionStarted = time.Now()
			s.mu.Unlock()

			err := s.runner.Run(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				s.mu.Lock()
				s.ingestionErr = err
				s.mu.Unlock()
				return fmt.Errorf("ingestion: %w", err)
			}
			return nil
		})
	}

	return g.Wait()
}

type ingestionStatus struct {
	Enabled      bool   `json:"enabled"`
	StartedAt    string `json:"started_at,omitempty"`
	LogsStored   int64  `json:"logs_stored"`
	DecodeErrors int64  `json:"decode_errors"`
	LastBlock    uint64 `json:"last_block"`
	Error        string `json:"error,omitempty"`
}

type serverStatus struct {
	Account   string          `json:"account,omitempty"`
	Connected bool            `json:"connected"`
	ChainID   string          `json:"chain_id"`
	Ingestion ingestionStatus `json:"ingestion"`
}

// status is the component section of /status.
func (s *Server) status() any {
	st := serverStatus{
		Account:   s.session.Account(),
		Connected: s.session.Connected(),
		ChainID:   s.session.ChainID().String(),
	}
	if s.runner == nil {
		return st
	}

	stats := s.runner.Stats()
	st.Ingestion = ingestionStatus{
		Enabled:      true,
		LogsStored:   stats.LogsStored,
		DecodeErrors: stats.DecodeErrors,
		LastBlock:    stats.LastBlock,
	}
	s.mu.Lock()
	if !s.ingestionStarted.IsZero() {
		st.Ingestion.StartedAt = s.ingestionStarted.UTC().Format(time.RFC3339)
	}
	if s.ingestionErr != nil {
		st.Ingestion.Error = s.ingestionErr.Error()
	}
	s.mu.Unlock()
	return st
}
