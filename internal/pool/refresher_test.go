package pool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survive-arena/internal/contract"
	"survive-arena/internal/contract/stub"
	"survive-arena/internal/domain"
)

// hookGateway runs a hook before every candidateVotes read.
type hookGateway struct {
	*stub.Gateway
	before func()
	reads  atomic.Int64
}

func (h *hookGateway) CandidateVotes(ctx context.Context, poolID uint64, c common.Address) (uint64, error) {
	h.reads.Add(1)
	if h.before != nil {
		h.before()
	}
	return h.Gateway.CandidateVotes(ctx, poolID, c)
}

var _ contract.Gateway = (*hookGateway)(nil)

func TestVoteRefresher_Refresh(t *testing.T) {
	_, g := newFixture(t)
	r := NewVoteRefresher(fixedSession{gw: g, st: g})

	r.Watch(1, map[string]int64{alice.Hex(): 0, bob.Hex(): 0, "not-an-address": 1})
	r.Refresh(context.Background(), 1, "tick")

	tally, ok := r.Tally(1)
	require.True(t, ok)
	assert.Equal(t, map[string]int64{
		domain.NormalizeAddress(alice.Hex()): 4,
		domain.NormalizeAddress(bob.Hex()):   7,
	}, tally.Votes)
	assert.False(t, tally.UpdatedAt.IsZero())

	g.FailFor("candidateVotes", bob, contract.ErrUnavailable)
	g.SetVotes(1, alice, 5)
	r.Refresh(context.Background(), 1, "tick")

	tally, _ = r.Tally(1)
	assert.Equal(t, int64(5), tally.Votes[domain.NormalizeAddress(alice.Hex())])
	assert.Equal(t, int64(7), tally.Votes[domain.NormalizeAddress(bob.Hex())])

	r.Unwatch(1)
	_, ok = r.Tally(1)
	assert.False(t, ok)
}

func TestVoteRefresher_DiscardsSupersededGeneration(t *testing.T) {
	_, g := newFixture(t)
	hg := &hookGateway{Gateway: g}
	r := NewVoteRefresher(fixedSession{gw: hg, st: g})

	r.Watch(1, map[string]int64{alice.Hex(): 1})
	fired := false
	hg.before = func() {
		if !fired {
			fired = true
			r.Watch(1, map[string]int64{bob.Hex(): 2})
		}
	}
	r.Refresh(context.Background(), 1, "tick")

	tally, ok := r.Tally(1)
	require.True(t, ok)
	assert.Equal(t, map[string]int64{domain.NormalizeAddress(bob.Hex()): 2}, tally.Votes)
}

func TestVoteRefresher_WatchSeedsCounts(t *testing.T) {
	_, g := newFixture(t)
	r := NewVoteRefresher(fixedSession{gw: g, st: g})

	r.Watch(1, map[string]int64{alice.Hex(): 3, bob.Hex(): 6})

	tally, ok := r.Tally(1)
	require.True(t, ok)
	assert.Equal(t, int64(3), tally.Votes[domain.NormalizeAddress(alice.Hex())])
	assert.Equal(t, int64(6), tally.Votes[domain.NormalizeAddress(bob.Hex())])
	assert.False(t, tally.UpdatedAt.IsZero())
}

func TestVoteRefresher_IdleWatchExpires(t *testing.T) {
	_, g := newFixture(t)
	hg := &hookGateway{Gateway: g}
	r := NewVoteRefresher(fixedSession{gw: hg, st: g}, WithRefreshInterval(time.Minute))

	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return clock }

	r.Watch(1, map[string]int64{alice.Hex(): 0})
	r.Watch(2, map[string]int64{bob.Hex(): 0})

	clock = clock.Add(90 * time.Second)
	_, ok := r.Tally(2)
	require.True(t, ok)

	clock = clock.Add(90 * time.Second)
	r.RefreshAll(context.Background(), "tick")

	_, ok = r.Tally(1)
	assert.False(t, ok, "pool 1 idle for 3m with a 2m timeout")
	tally, ok := r.Tally(2)
	require.True(t, ok)
	assert.Equal(t, int64(7), tally.Votes[domain.NormalizeAddress(bob.Hex())])
	assert.Equal(t, int64(1), hg.reads.Load())

	clock = clock.Add(10 * time.Minute)
	r.RefreshAll(context.Background(), "tick")
	_, ok = r.Tally(2)
	assert.False(t, ok)
	assert.Equal(t, int64(1), hg.reads.Load())
}

func TestVoteRefresher_EventTriggersRefresh(t *testing.T) {
	_, g := newFixture(t)
	r := NewVoteRefresher(fixedSession{gw: g, st: g}, WithRefreshInterval(time.Hour))
	r.Watch(1, map[string]int64{bob.Hex(): 0})

	r.Start(context.Background())
	defer r.Stop()

	r.OnEvents([]*domain.LedgerEvent{
		{EventName: domain.LedgerEventBetPlaced, PoolID: 1},
		{EventName: domain.LedgerEventVoteCast, PoolID: 1},
	})

	require.Eventually(t, func() bool {
		tally, _ := r.Tally(1)
		return tally.Votes[domain.NormalizeAddress(bob.Hex())] == 7
	}, 2*time.Second, 10*time.Millisecond)
}

func TestVoteRefresher_StopIsIdempotent(t *testing.T) {
	_, g := newFixture(t)
	r := NewVoteRefresher(fixedSession{gw: g, st: g}, WithRefreshInterval(10*time.Millisecond))
	r.Watch(1, map[string]int64{alice.Hex(): 0})

	r.Start(context.Background())
	r.Start(context.Background())
	r.Stop()
	r.Stop()
}
