// Package main writes markdown and CSV reports of pools read from the
// contract, enriched with profiles and the ledger archive when configured.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"

	"survive-arena/internal/config"
	"survive-arena/internal/ledger"
	"survive-arena/internal/logging"
	"survive-arena/internal/pool"
	"survive-arena/internal/profile"
	"survive-arena/internal/reporting"
	"survive-arena/internal/session"
	"survive-arena/internal/storage"
	chstore "survive-arena/internal/storage/clickhouse"
	pgstore "survive-arena/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// Parse flags
	outputDir := flag.String("output-dir", "reports", "Output directory for generated files")
	poolID := flag.Uint64("pool", 0, "Pool id to report (0 = every pool matching --filter)")
	filter := flag.String("filter", "all", "Pool filter when --pool is 0: all or active")
	rpcURL := flag.String("rpc-url", cfg.RPCURL, "JSON-RPC HTTP endpoint")
	contractAddr := flag.String("contract", cfg.ContractAddress, "Game contract address")
	postgresDSN := flag.String("postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string for profiles (optional)")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.ClickHouseDSN, "ClickHouse connection string for the ledger archive (optional)")
	flag.Parse()

	ctx := context.Background()
	logger := logging.Must("warn", "console")
	defer func() { _ = logger.Sync() }()

	if !common.IsHexAddress(*contractAddr) {
		fmt.Fprintf(os.Stderr, "Error: invalid --contract %q\n", *contractAddr)
		os.Exit(1)
	}

	sess, err := session.New(ledger.NewHTTPClient(*rpcURL), session.Config{
		ContractAddress: common.HexToAddress(*contractAddr),
		ChainID:         big.NewInt(cfg.ChainID),
		Logger:          logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating ledger session: %v\n", err)
		os.Exit(1)
	}

	opts := pool.Options{Session: sess, Logger: logger, Concurrency: cfg.Concurrency}
	if *postgresDSN != "" {
		pgPool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error connecting to postgres: %v\n", err)
			os.Exit(1)
		}
		defer pgPool.Close()
		opts.Profiles = profile.NewService(pgstore.NewProfileStore(pgPool), logger)
	}

	var archive storage.LedgerEventStore
	if *clickhouseDSN != "" {
		chConn, err := chstore.NewConn(ctx, *clickhouseDSN)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error connecting to clickhouse: %v\n", err)
			os.Exit(1)
		}
		defer chConn.Close()
		archive = chstore.NewLedgerEventStore(chConn)
	}

	gen := reporting.NewGenerator(pool.NewBuilder(opts), archive)

	var reports []*reporting.PoolReport
	if *poolID != 0 {
		r, err := gen.GeneratePoolReport(ctx, *poolID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating report: %v\n", err)
			os.Exit(1)
		}
		reports = append(reports, r)
	} else {
		reports, err = gen.GenerateAll(ctx, pool.ParseFilter(*filter))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating reports: %v\n", err)
			os.Exit(1)
		}
	}

	if err := writeReports(*outputDir, reports); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing reports: %v\n", err)
		os.Exit(1)
	}
}

func writeReports(dir string, reports []*reporting.PoolReport) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	fmt.Println("Pool reports generated successfully:")
	for _, r := range reports {
		path := filepath.Join(dir, fmt.Sprintf("POOL_%d.md", r.Pool.ID))
		if err := os.WriteFile(path, []byte(reporting.RenderMarkdown(r)), 0o644); err != nil {
			return err
		}
		fmt.Printf("  - %s\n", path)
	}

	csv, err := reporting.RenderCSV(reports)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, "POOLS.csv")
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		return err
	}
	fmt.Printf("  - %s\n", path)
	return nil
}
