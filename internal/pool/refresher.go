package pool

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"survive-arena/internal/domain"
	"survive-arena/internal/observability"
)

// DefaultRefreshInterval is the vote re-poll period.
const DefaultRefreshInterval = 15 * time.Second

// VoteTally is the latest known vote count per watched address of a pool.
type VoteTally struct {
	PoolID    uint64           `json:"poolId"`
	Votes     map[string]int64 `json:"votes"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

type watch struct {
	addrs     []common.Address
	gen       uint64
	votes     map[string]int64
	updatedAt time.Time
	lastSeen  time.Time
}

// VoteRefresher keeps vote counts of displayed players current. It polls on
// an interval and refreshes a pool immediately when ingestion reports a vote
// in it. Results of a refresh started before the latest Watch of that pool
// are discarded. A pool nobody has watched or read for the idle timeout is
// dropped on the next tick.
type VoteRefresher struct {
	session     Session
	interval    time.Duration
	idle        time.Duration
	concurrency int
	logger      *zap.Logger
	now         func() time.Time

	mu      sync.Mutex
	watches map[uint64]*watch
	nextGen uint64

	kick   chan uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// RefresherOption configures a VoteRefresher.
type RefresherOption func(*VoteRefresher)

// WithRefreshInterval overrides DefaultRefreshInterval.
func WithRefreshInterval(d time.Duration) RefresherOption {
	return func(r *VoteRefresher) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithIdleTimeout sets how long a watch survives without Watch or Tally
// calls. The default is twice the refresh interval.
func WithIdleTimeout(d time.Duration) RefresherOption {
	return func(r *VoteRefresher) {
		if d > 0 {
			r.idle = d
		}
	}
}

// WithRefresherLogger sets the logger.
func WithRefresherLogger(l *zap.Logger) RefresherOption {
	return func(r *VoteRefresher) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewVoteRefresher creates a stopped refresher.
func NewVoteRefresher(s Session, opts ...RefresherOption) *VoteRefresher {
	r := &VoteRefresher{
		session:     s,
		interval:    DefaultRefreshInterval,
		concurrency: DefaultConcurrency,
		logger:      zap.NewNop(),
		now:         time.Now,
		watches:     make(map[uint64]*watch),
		kick:        make(chan uint64, 64),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.idle == 0 {
		r.idle = 2 * r.interval
	}
	return r
}

// Watch sets the displayed addresses of a pool with the counts the caller
// just read, superseding any in-flight refresh of it.
func (r *VoteRefresher) Watch(poolID uint64, counts map[string]int64) {
	addrs := make([]common.Address, 0, len(counts))
	votes := make(map[string]int64, len(counts))
	for a, v := range counts {
		if !common.IsHexAddress(a) {
			continue
		}
		addr := common.HexToAddress(a)
		addrs = append(addrs, addr)
		votes[domain.NormalizeAddress(addr.Hex())] = v
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextGen++
	now := r.now()
	r.watches[poolID] = &watch{addrs: addrs, gen: r.nextGen, votes: votes, updatedAt: now, lastSeen: now}
}

// Unwatch stops refreshing a pool.
func (r *VoteRefresher) Unwatch(poolID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.watches, poolID)
}

// Tally returns a copy of the latest counts of a pool and keeps its watch
// alive.
func (r *VoteRefresher) Tally(poolID uint64) (VoteTally, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.watches[poolID]
	if !ok {
		return VoteTally{}, false
	}
	w.lastSeen = r.now()
	t := VoteTally{PoolID: poolID, Votes: make(map[string]int64, len(w.votes)), UpdatedAt: w.updatedAt}
	for k, v := range w.votes {
		t.Votes[k] = v
	}
	return t, true
}

// OnEvents triggers an immediate refresh of watched pools that received a
// vote or a ticket purchase.
func (r *VoteRefresher) OnEvents(events []*domain.LedgerEvent) {
	for _, ev := range events {
		if ev.EventName != domain.LedgerEventVoteCast && ev.EventName != domain.LedgerEventVotingTicketPurchased {
			continue
		}
		r.mu.Lock()
		_, watched := r.watches[ev.PoolID]
		r.mu.Unlock()
		if !watched {
			continue
		}
		select {
		case r.kick <- ev.PoolID:
		default:
		}
	}
}

// Start runs the refresh loop until ctx is cancelled or Stop is called.
func (r *VoteRefresher) Start(ctx context.Context) {
	r.mu.Lock()
	if r.done != nil {
		r.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	done := r.done
	r.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.RefreshAll(ctx, "tick")
			case id := <-r.kick:
				r.Refresh(ctx, id, "event")
			}
		}
	}()
}

// Stop cancels the loop and waits for it to exit.
func (r *VoteRefresher) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// RefreshAll drops idle watches and refreshes the rest.
func (r *VoteRefresher) RefreshAll(ctx context.Context, trigger string) {
	r.mu.Lock()
	now := r.now()
	ids := make([]uint64, 0, len(r.watches))
	for id, w := range r.watches {
		if now.Sub(w.lastSeen) > r.idle {
			delete(r.watches, id)
			r.logger.Debug("vote watch expired", zap.Uint64("pool_id", id))
			continue
		}
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		r.Refresh(ctx, id, trigger)
	}
}

// Refresh re-reads the vote counts of one watched pool. Addresses whose read
// fails keep their previous count.
func (r *VoteRefresher) Refresh(ctx context.Context, poolID uint64, trigger string) {
	r.mu.Lock()
	w, ok := r.watches[poolID]
	if !ok {
		r.mu.Unlock()
		return
	}
	gen := w.gen
	addrs := append([]common.Address(nil), w.addrs...)
	r.mu.Unlock()

	gw := r.session.Gateway()
	fresh := make([]int64, len(addrs))
	okAt := make([]bool, len(addrs))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, a := range addrs {
		g.Go(func() error {
			v, err := gw.CandidateVotes(ctx, poolID, a)
			if err != nil {
				r.logger.Debug("vote refresh read failed",
					zap.Uint64("pool_id", poolID), zap.String("address", a.Hex()), zap.Error(err))
				return nil
			}
			fresh[i], okAt[i] = int64(v), true
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		observability.RecordVoteRefresh(trigger, "cancelled")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.watches[poolID]
	if !ok || cur.gen != gen {
		observability.RecordVoteRefresh(trigger, "stale")
		return
	}
	for i, a := range addrs {
		if okAt[i] {
			cur.votes[domain.NormalizeAddress(a.Hex())] = fresh[i]
		}
	}
	cur.updatedAt = r.now()
	observability.RecordVoteRefresh(trigger, "ok")
}
