package ingestion

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"survive-arena/internal/domain"
	"survive-arena/internal/observability"
)

// Backfill stores the contract logs of blocks [from, to] in ChunkSize
// ranges, saving progress after each range. Re-running a range is harmless:
// the store skips known ids.
func (r *Runner) Backfill(ctx context.Context, from, to uint64) error {
	if from > to {
		return nil
	}
	r.logger.Info("backfilling contract logs", zap.Uint64("from", from), zap.Uint64("to", to))

	for start := from; start <= to; {
		end := start + r.chunkSize - 1
		if end > to || end < start {
			end = to
		}

		logs, err := r.rpc.GetLogs(ctx, ethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(start),
			ToBlock:   new(big.Int).SetUint64(end),
			Addresses: []common.Address{r.contract},
		})
		if err != nil {
			return fmt.Errorf("get logs %d-%d: %w", start, end, err)
		}
		if err := r.process(ctx, logs, end); err != nil {
			return err
		}

		if end == to {
			break
		}
		start = end + 1
	}
	return nil
}

// process decodes, stamps and stores logs, then records lastBlock as done
// and hands the stored batch to listeners.
func (r *Runner) process(ctx context.Context, logs []types.Log, lastBlock uint64) error {
	start := time.Now()
	SortLogs(logs)

	events := make([]*domain.LedgerEvent, 0, len(logs))
	var decodeErrors int64
	for _, l := range logs {
		if l.Removed {
			continue
		}
		e, err := r.decoder.Decode(l)
		if err != nil {
			if !errors.Is(err, ErrUnknownEvent) {
				decodeErrors++
				observability.RecordDecodeError()
				r.logger.Warn("decode log failed",
					zap.Uint64("block", l.BlockNumber),
					zap.String("tx", l.TxHash.Hex()),
					zap.Uint("index", l.Index),
					zap.Error(err))
			}
			continue
		}
		events = append(events, e)
	}

	r.stampTimestamps(ctx, events)

	stored := 0
	if len(events) > 0 {
		n, err := r.store.InsertBulk(ctx, events)
		if err != nil {
			return fmt.Errorf("store ledger events: %w", err)
		}
		stored = n
		for _, e := range events {
			observability.RecordLogIngested(e.EventName)
		}
	}

	if r.progress != nil {
		if err := r.progress.SetLastBlock(ctx, r.stream(), lastBlock); err != nil {
			return fmt.Errorf("save progress: %w", err)
		}
	}

	r.mu.Lock()
	if lastBlock+1 > r.next {
		r.next = lastBlock + 1
	}
	r.stats.LogsStored += int64(stored)
	r.stats.DecodeErrors += decodeErrors
	r.stats.LastBlock = lastBlock
	r.mu.Unlock()

	observability.RecordIngestBatch(time.Since(start).Seconds(), lastBlock, r.now().Unix())

	if len(events) > 0 {
		for _, l := range r.listeners {
			l.OnEvents(events)
		}
	}
	return nil
}

// stampTimestamps fills Timestamp from block headers, one read per block.
// A failed read leaves the timestamp unknown.
func (r *Runner) stampTimestamps(ctx context.Context, events []*domain.LedgerEvent) {
	cache := make(map[uint64]int64)
	for _, e := range events {
		ts, ok := cache[e.BlockNumber]
		if !ok {
			sec, err := r.rpc.BlockTimestamp(ctx, e.BlockNumber)
			if err != nil {
				r.logger.Warn("read block timestamp failed", zap.Uint64("block", e.BlockNumber), zap.Error(err))
			} else {
				ts = int64(sec) * 1000
			}
			cache[e.BlockNumber] = ts
		}
		e.Timestamp = ts
	}
}
