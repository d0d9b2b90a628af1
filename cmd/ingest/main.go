// Package main runs contract log ingestion on its own: live (backfill then
// follow) or a one-off block range backfill.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"survive-arena/internal/config"
	"survive-arena/internal/ingestion"
	"survive-arena/internal/ledger"
	"survive-arena/internal/logging"
	"survive-arena/internal/observability"
	"survive-arena/internal/storage"
	chstore "survive-arena/internal/storage/clickhouse"
	"survive-arena/internal/storage/memory"
	"survive-arena/internal/storage/migrations"
	pgstore "survive-arena/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// Parse flags
	mode := flag.String("mode", "live", "Ingestion mode: live or backfill")
	rpcURL := flag.String("rpc-url", cfg.RPCURL, "JSON-RPC HTTP endpoint")
	wsURL := flag.String("ws-url", cfg.WSURL, "JSON-RPC WebSocket endpoint (empty selects polling)")
	contractAddr := flag.String("contract", cfg.ContractAddress, "Game contract address")
	postgresDSN := flag.String("postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string (ingest progress)")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.ClickHouseDSN, "ClickHouse connection string (ledger archive)")
	fromBlock := flag.Uint64("from-block", cfg.StartBlock, "First block (backfill mode; live mode when no progress is saved)")
	toBlock := flag.Uint64("to-block", 0, "Last block for backfill (0 = head minus confirmations)")
	useMemory := flag.Bool("use-memory", cfg.UseMemory, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level")
	flag.Parse()

	logger := logging.Must(*logLevel, cfg.LogFormat)
	defer func() { _ = logger.Sync() }()

	if !common.IsHexAddress(*contractAddr) {
		logger.Fatal("invalid --contract", zap.String("contract", *contractAddr))
	}

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("ok"))
			})
			logger.Info("starting metrics server", zap.String("addr", *metricsAddr))
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server error", zap.Error(err))
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events, progress, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatal("failed to create stores", zap.Error(err))
	}
	defer cleanup()

	rpc := ledger.NewHTTPClient(*rpcURL)
	opts := ingestion.RunnerOptions{
		RPC:           rpc,
		Contract:      common.HexToAddress(*contractAddr),
		Store:         events,
		Progress:      progress,
		StartBlock:    *fromBlock,
		ChunkSize:     cfg.ChunkSize,
		Confirmations: cfg.Confirmations,
		PollInterval:  cfg.PollInterval,
		Logger:        logger,
	}

	switch *mode {
	case "live":
		err = runLive(ctx, logger, opts, *wsURL)
	case "backfill":
		err = runBackfill(ctx, logger, opts, *fromBlock, *toBlock, cfg.Confirmations)
	default:
		logger.Fatal("unknown mode", zap.String("mode", *mode))
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("ingestion failed", zap.Error(err))
	}
	logger.Info("ingestion stopped")
}

// runLive backfills from the saved progress and then follows new blocks.
func runLive(ctx context.Context, logger *zap.Logger, opts ingestion.RunnerOptions, wsURL string) error {
	if wsURL != "" {
		wsCfg := ledger.DefaultWSConfig()
		wsCfg.Logger = logger
		ws, err := ledger.NewWSClient(ctx, wsURL, &wsCfg)
		if err != nil {
			return fmt.Errorf("connect websocket: %w", err)
		}
		defer ws.Close()
		opts.WS = ws
	} else {
		logger.Info("no websocket endpoint, polling eth_getLogs", zap.Duration("interval", opts.PollInterval))
	}

	runner, err := ingestion.NewRunner(opts)
	if err != nil {
		return err
	}

	start := time.Now()
	err = runner.Run(ctx)
	stats := runner.Stats()
	logger.Info("live ingestion finished",
		zap.Duration("uptime", time.Since(start)),
		zap.Int64("logs_stored", stats.LogsStored),
		zap.Int64("decode_errors", stats.DecodeErrors),
		zap.Uint64("last_block", stats.LastBlock))
	return err
}

// runBackfill archives one block range. Replayed logs are skipped by id.
func runBackfill(ctx context.Context, logger *zap.Logger, opts ingestion.RunnerOptions, from, to, confirmations uint64) error {
	runner, err := ingestion.NewRunner(opts)
	if err != nil {
		return err
	}

	if to == 0 {
		head, err := opts.RPC.BlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("read head: %w", err)
		}
		if head < confirmations {
			return nil
		}
		to = head - confirmations
	}
	if from > to {
		return fmt.Errorf("--from-block %d is after --to-block %d", from, to)
	}

	if err := runner.Backfill(ctx, from, to); err != nil {
		return err
	}
	stats := runner.Stats()
	logger.Info("backfill complete",
		zap.Int64("logs_stored", stats.LogsStored),
		zap.Int64("decode_errors", stats.DecodeErrors))
	return nil
}

func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (storage.LedgerEventStore, storage.IngestProgressStore, func(), error) {
	if useMemory {
		return memory.NewLedgerEventStore(), memory.NewIngestProgressStore(), func() {}, nil
	}
	if postgresDSN == "" || clickhouseDSN == "" {
		return nil, nil, nil, errors.New("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}
	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	cleanup := func() {
		_ = chConn.Close()
		pool.Close()
	}
	return chstore.NewLedgerEventStore(chConn), pgstore.NewIngestProgressStore(pool), cleanup, nil
}
