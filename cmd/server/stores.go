package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"survive-arena/internal/storage"
	chstore "survive-arena/internal/storage/clickhouse"
	"survive-arena/internal/storage/memory"
	"survive-arena/internal/storage/migrations"
	pgstore "survive-arena/internal/storage/postgres"
)

// allStores holds all storage implementations.
type allStores struct {
	profiles storage.ProfileStore
	events   storage.LedgerEventStore
	progress storage.IngestProgressStore
	redis    *redis.Client // nil without REDIS_URL
}

// createStores connects and migrates the databases, or builds in-memory
// stores. The returned cleanup closes every connection.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN, redisURL string, useMemory bool, logger *zap.Logger) (*allStores, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	stores := &allStores{}
	if useMemory {
		logger.Info("using in-memory storage")
		stores.profiles = memory.NewProfileStore()
		stores.events = memory.NewLedgerEventStore()
		stores.progress = memory.NewIngestProgressStore()
	} else {
		if postgresDSN == "" || clickhouseDSN == "" {
			return nil, nil, errors.New("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
		}

		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}

		chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		closers = append(closers, func() { _ = chConn.Close() })

		stores.profiles = pgstore.NewProfileStore(pool)
		stores.progress = pgstore.NewIngestProgressStore(pool)
		stores.events = chstore.NewLedgerEventStore(chConn)
		logger.Info("connected to postgres and clickhouse")
	}

	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			cleanup()
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		closers = append(closers, func() { _ = rdb.Close() })
		stores.redis = rdb
		logger.Info("connected to redis")
	}

	return stores, cleanup, nil
}
