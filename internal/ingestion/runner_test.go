package ingestion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survive-arena/internal/domain"
	ingeststub "survive-arena/internal/ingestion/stub"
	ledgerstub "survive-arena/internal/ledger/stub"
	"survive-arena/internal/storage/memory"
)

type fixture struct {
	rpc      *ledgerstub.RPCClient
	store    *memory.LedgerEventStore
	progress *memory.IngestProgressStore
	listener *ingeststub.Listener
}

func newFixture() *fixture {
	return &fixture{
		rpc:      ledgerstub.NewRPCClient(10143),
		store:    memory.NewLedgerEventStore(),
		progress: memory.NewIngestProgressStore(),
		listener: &ingeststub.Listener{},
	}
}

func (f *fixture) runner(t *testing.T, opts RunnerOptions) *Runner {
	t.Helper()
	opts.RPC = f.rpc
	opts.Contract = contractAddr
	opts.Store = f.store
	opts.Progress = f.progress
	opts.Listeners = []Listener{f.listener}
	r, err := NewRunner(opts)
	require.NoError(t, err)
	return r
}

func (f *fixture) stored(t *testing.T) []*domain.LedgerEvent {
	t.Helper()
	events, err := f.store.GetByPool(context.Background(), 1)
	require.NoError(t, err)
	return events
}

func TestBackfill_ChunksStampsAndOrders(t *testing.T) {
	f := newFixture()
	f.rpc.AddLogs(voteLog(t, 12, 4), voteLog(t, 5, 0), voteLog(t, 12, 1))
	f.rpc.Timestamps[5] = 1_700_000_000
	// block 12 has no header: its events keep an unknown timestamp.

	r := f.runner(t, RunnerOptions{ChunkSize: 5})
	require.NoError(t, r.Backfill(context.Background(), 0, 20))

	events := f.stored(t)
	require.Len(t, events, 3)
	require.NoError(t, ValidateOrdering(events))
	assert.Equal(t, int64(1_700_000_000_000), events[0].Timestamp)
	assert.Zero(t, events[1].Timestamp)

	last, err := f.progress.GetLastBlock(context.Background(), domain.NormalizeAddress(contractAddr.Hex()))
	require.NoError(t, err)
	assert.Equal(t, uint64(20), last)

	// Chunks [0,4] [5,9] [10,14] [15,19] [20,20]: only two carried logs.
	assert.Len(t, f.listener.Batches(), 2)
	assert.Equal(t, int64(3), r.Stats().LogsStored)
}

func TestBackfill_ReplayIsHarmless(t *testing.T) {
	f := newFixture()
	f.rpc.AddLogs(voteLog(t, 3, 0))
	r := f.runner(t, RunnerOptions{})

	require.NoError(t, r.Backfill(context.Background(), 0, 10))
	require.NoError(t, r.Backfill(context.Background(), 0, 10))

	assert.Len(t, f.stored(t), 1)
	assert.Equal(t, int64(1), r.Stats().LogsStored)
}

func TestBackfill_GetLogsFailure(t *testing.T) {
	f := newFixture()
	f.rpc.LogsErr = errors.New("range too large")
	r := f.runner(t, RunnerOptions{})

	err := r.Backfill(context.Background(), 0, 10)
	require.Error(t, err)

	_, perr := f.progress.GetLastBlock(context.Background(), domain.NormalizeAddress(contractAddr.Hex()))
	assert.Error(t, perr)
}

func TestRun_PollingResumesFromProgress(t *testing.T) {
	f := newFixture()
	f.rpc.Head = 30
	f.rpc.AddLogs(voteLog(t, 4, 0), voteLog(t, 15, 0), voteLog(t, 29, 0))
	require.NoError(t, f.progress.SetLastBlock(context.Background(), domain.NormalizeAddress(contractAddr.Hex()), 10))

	r := f.runner(t, RunnerOptions{PollInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return r.Stats().LastBlock == 28 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	// Block 4 precedes the saved progress; block 29 is not yet confirmed.
	events := f.stored(t)
	require.Len(t, events, 1)
	assert.Equal(t, uint64(15), events[0].BlockNumber)
}

func TestRun_FollowsSubscriptionAfterConfirmations(t *testing.T) {
	f := newFixture()
	f.rpc.Head = 10
	ws := ledgerstub.NewWSClient(8)

	r := f.runner(t, RunnerOptions{FlushInterval: time.Hour})
	r.ws = ws

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return r.nextBlock() == 9 }, 2*time.Second, 10*time.Millisecond)

	stale := voteLog(t, 3, 0)
	reorged := voteLog(t, 12, 0)
	removed := reorged
	removed.Removed = true
	ws.Push(stale, voteLog(t, 11, 0), reorged, removed, voteLog(t, 14, 0))

	// 14 - 2 confirmations flushes block 11 only.
	require.Eventually(t, func() bool { return len(f.stored(t)) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, uint64(11), f.stored(t)[0].BlockNumber)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	// Shutdown drains the still-buffered block 14; the removed log is gone.
	events := f.stored(t)
	require.Len(t, events, 2)
	assert.Equal(t, uint64(14), events[1].BlockNumber)
	require.Len(t, ws.Filters, 1)
	assert.Equal(t, []common.Address{contractAddr}, ws.Filters[0].Addresses)
}

// flakyStore fails the first failures InsertBulk calls.
type flakyStore struct {
	*memory.LedgerEventStore
	failures int
}

func (s *flakyStore) InsertBulk(ctx context.Context, events []*domain.LedgerEvent) (int, error) {
	if s.failures > 0 {
		s.failures--
		return 0, errors.New("clickhouse: connection reset")
	}
	return s.LedgerEventStore.InsertBulk(ctx, events)
}

func TestFlush_KeepsBlocksAfterStoreFailure(t *testing.T) {
	f := newFixture()
	r, err := NewRunner(RunnerOptions{
		RPC:       f.rpc,
		Contract:  contractAddr,
		Store:     &flakyStore{LedgerEventStore: f.store, failures: 1},
		Progress:  f.progress,
		Listeners: []Listener{f.listener},
	})
	require.NoError(t, err)
	ctx := context.Background()
	r.setNext(10)

	r.bufferLog(ctx, voteLog(t, 11, 0))
	r.bufferLog(ctx, voteLog(t, 13, 0)) // flushes 11; the store fails
	assert.Empty(t, f.stored(t))
	assert.Equal(t, uint64(10), r.nextBlock())

	r.bufferLog(ctx, voteLog(t, 16, 0)) // flushes 11 and 13
	events := f.stored(t)
	require.Len(t, events, 2)
	assert.Equal(t, uint64(11), events[0].BlockNumber)
	assert.Equal(t, uint64(13), events[1].BlockNumber)

	last, err := f.progress.GetLastBlock(ctx, domain.NormalizeAddress(contractAddr.Hex()))
	require.NoError(t, err)
	assert.Equal(t, uint64(14), last)
	require.Len(t, f.listener.Batches(), 1)
	assert.Len(t, f.listener.Batches()[0], 2)
}

func TestNewRunner_RequiresDependencies(t *testing.T) {
	_, err := NewRunner(RunnerOptions{})
	assert.Error(t, err)
}
