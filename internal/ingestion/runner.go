// Package ingestion archives decoded contract logs: a chunked eth_getLogs
// backfill from the saved progress block, then a live WebSocket
// subscription (or eth_getLogs polling when no WebSocket endpoint is set).
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"survive-arena/internal/domain"
	"survive-arena/internal/ledger"
	"survive-arena/internal/storage"
)

// Listener receives every stored batch, in chain order.
type Listener interface {
	OnEvents(events []*domain.LedgerEvent)
}

// Runner defaults.
const (
	DefaultChunkSize     = 2000
	DefaultConfirmations = 2
	DefaultPollInterval  = 5 * time.Second
	DefaultFlushInterval = 2 * time.Second
)

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	RPC       ledger.RPCClient
	WS        ledger.WSClient // nil selects polling
	Contract  common.Address
	Store     storage.LedgerEventStore
	Progress  storage.IngestProgressStore
	Listeners []Listener

	// StartBlock is used when no progress has been saved.
	StartBlock uint64
	// ChunkSize is the block span of one eth_getLogs request.
	ChunkSize uint64
	// Confirmations is how many blocks a log waits before it is stored.
	Confirmations uint64
	PollInterval  time.Duration
	FlushInterval time.Duration
	Logger        *zap.Logger
}

// RunnerStats contains counters since start.
type RunnerStats struct {
	LogsStored   int64
	DecodeErrors int64
	LastBlock    uint64
}

// Runner archives contract logs and notifies listeners.
type Runner struct {
	rpc       ledger.RPCClient
	ws        ledger.WSClient
	contract  common.Address
	decoder   *Decoder
	store     storage.LedgerEventStore
	progress  storage.IngestProgressStore
	listeners []Listener

	startBlock    uint64
	chunkSize     uint64
	confirmations uint64
	pollInterval  time.Duration
	flushInterval time.Duration
	logger        *zap.Logger
	now           func() time.Time

	// Block-keyed buffer of live logs awaiting confirmations.
	buffer  map[uint64][]types.Log
	highest uint64

	mu    sync.Mutex
	next  uint64 // first block not yet stored
	stats RunnerStats
}

// NewRunner creates a new ingestion runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.RPC == nil || opts.Store == nil {
		return nil, errors.New("ingestion: rpc client and store are required")
	}
	decoder, err := NewDecoder(opts.Contract)
	if err != nil {
		return nil, err
	}

	r := &Runner{
		rpc:           opts.RPC,
		ws:            opts.WS,
		contract:      opts.Contract,
		decoder:       decoder,
		store:         opts.Store,
		progress:      opts.Progress,
		listeners:     opts.Listeners,
		startBlock:    opts.StartBlock,
		chunkSize:     opts.ChunkSize,
		confirmations: opts.Confirmations,
		pollInterval:  opts.PollInterval,
		flushInterval: opts.FlushInterval,
		logger:        opts.Logger,
		now:           time.Now,
		buffer:        make(map[uint64][]types.Log),
	}
	if r.chunkSize == 0 {
		r.chunkSize = DefaultChunkSize
	}
	if r.confirmations == 0 {
		r.confirmations = DefaultConfirmations
	}
	if r.pollInterval == 0 {
		r.pollInterval = DefaultPollInterval
	}
	if r.flushInterval == 0 {
		r.flushInterval = DefaultFlushInterval
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r, nil
}

// AddListener registers l for batches stored after the call. It must not
// be called concurrently with Run.
func (r *Runner) AddListener(l Listener) {
	r.listeners = append(r.listeners, l)
}

// Stats returns a copy of the runner counters.
func (r *Runner) Stats() RunnerStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Run backfills up to the confirmed head and then follows new logs until
// ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	from, err := r.resumeBlock(ctx)
	if err != nil {
		return err
	}
	r.setNext(from)

	// Subscribe before backfilling so no block falls between the two.
	var live <-chan types.Log
	if r.ws != nil {
		live, err = r.ws.SubscribeLogs(ctx, ledger.LogsFilter{Addresses: []common.Address{r.contract}})
		if err != nil {
			return fmt.Errorf("subscribe logs: %w", err)
		}
		r.logger.Info("subscribed to contract logs", zap.String("contract", r.contract.Hex()))
	}

	head, err := r.rpc.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("read head: %w", err)
	}
	if head >= r.confirmations {
		if err := r.Backfill(ctx, from, head-r.confirmations); err != nil {
			return err
		}
	}
	r.highest = head

	if live == nil {
		return r.poll(ctx)
	}
	return r.follow(ctx, live)
}

func (r *Runner) resumeBlock(ctx context.Context) (uint64, error) {
	if r.progress == nil {
		return r.startBlock, nil
	}
	last, err := r.progress.GetLastBlock(ctx, r.stream())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return r.startBlock, nil
		}
		return 0, fmt.Errorf("load progress: %w", err)
	}
	if last+1 < r.startBlock {
		return r.startBlock, nil
	}
	return last + 1, nil
}

// poll fetches confirmed blocks with eth_getLogs every poll interval.
func (r *Runner) poll(ctx context.Context) error {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	r.logger.Info("polling contract logs", zap.Duration("interval", r.pollInterval))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			head, err := r.rpc.BlockNumber(ctx)
			if err != nil {
				r.logger.Warn("read head failed", zap.Error(err))
				continue
			}
			if head < r.confirmations {
				continue
			}
			safe := head - r.confirmations
			if next := r.nextBlock(); safe >= next {
				if err := r.Backfill(ctx, next, safe); err != nil && ctx.Err() == nil {
					r.logger.Warn("poll backfill failed", zap.Error(err))
				}
			}
		}
	}
}

// follow buffers subscription logs per block and stores a block once it is
// Confirmations behind the highest block seen.
func (r *Runner) follow(ctx context.Context, live <-chan types.Log) error {
	flush := time.NewTicker(r.flushInterval)
	defer flush.Stop()

	for {
		select {
		case <-ctx.Done():
			// Shutdown drains the buffer; ordering inside it still holds.
			r.flushBlocks(context.WithoutCancel(ctx), ^uint64(0))
			return ctx.Err()

		case l, ok := <-live:
			if !ok {
				return errors.New("log subscription closed")
			}
			r.bufferLog(ctx, l)

		case <-flush.C:
			// Quiet contracts emit no logs; advance the head from the node.
			if head, err := r.rpc.BlockNumber(ctx); err == nil && head > r.highest {
				r.highest = head
			}
			r.flushConfirmed(ctx)
		}
	}
}

func (r *Runner) bufferLog(ctx context.Context, l types.Log) {
	if l.Removed {
		r.dropReorged(l)
		return
	}
	if l.BlockNumber < r.nextBlock() {
		// Already stored by the backfill.
		return
	}

	r.buffer[l.BlockNumber] = append(r.buffer[l.BlockNumber], l)
	if l.BlockNumber > r.highest {
		r.highest = l.BlockNumber
	}
	r.flushConfirmed(ctx)
}

func (r *Runner) dropReorged(l types.Log) {
	logs := r.buffer[l.BlockNumber]
	kept := logs[:0]
	for _, b := range logs {
		if b.TxHash == l.TxHash && b.Index == l.Index {
			continue
		}
		kept = append(kept, b)
	}
	if len(kept) == len(logs) {
		r.logger.Warn("removed log was already stored",
			zap.Uint64("block", l.BlockNumber), zap.String("tx", l.TxHash.Hex()))
	}
	if len(kept) == 0 {
		delete(r.buffer, l.BlockNumber)
		return
	}
	r.buffer[l.BlockNumber] = kept
}

func (r *Runner) flushConfirmed(ctx context.Context) {
	if r.highest < r.confirmations {
		return
	}
	r.flushBlocks(ctx, r.highest-r.confirmations)
}

// flushBlocks stores buffered blocks up to and including upTo, oldest first.
func (r *Runner) flushBlocks(ctx context.Context, upTo uint64) {
	var blocks []uint64
	for b := range r.buffer {
		if b <= upTo {
			blocks = append(blocks, b)
		}
	}
	if len(blocks) == 0 {
		return
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i] < blocks[j] })

	var logs []types.Log
	for _, b := range blocks {
		logs = append(logs, r.buffer[b]...)
	}

	// Failed blocks stay buffered and are retried by the next flush.
	last := blocks[len(blocks)-1]
	if err := r.process(ctx, logs, last); err != nil {
		r.logger.Error("store live logs failed", zap.Uint64("last_block", last), zap.Error(err))
		return
	}
	for _, b := range blocks {
		delete(r.buffer, b)
	}
}

func (r *Runner) stream() string {
	return domain.NormalizeAddress(r.contract.Hex())
}

func (r *Runner) nextBlock() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.next
}

func (r *Runner) setNext(block uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next = block
}
