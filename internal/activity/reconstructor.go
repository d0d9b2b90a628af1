// Package activity reconstructs a human-readable event feed from contract
// reads. The contract records join and creation times only; other events
// get exact timestamps from archived logs when available, otherwise an
// estimate or no timestamp depending on the Policy.
package activity

import (
	"context"
	"fmt"
	"math/big"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"survive-arena/internal/contract"
	"survive-arena/internal/domain"
	"survive-arena/internal/idhash"
	"survive-arena/internal/observability"
	"survive-arena/internal/storage"
)

// Policy decides what to do with timestamps the contract does not record.
type Policy string

const (
	// PolicyEstimate assigns randomized estimates flagged TimestampEstimated.
	PolicyEstimate Policy = "estimate"
	// PolicyOmit leaves them at 0 flagged TimestampUnknown.
	PolicyOmit Policy = "omit"
)

// ParsePolicy maps a config value to a Policy, defaulting to PolicyEstimate.
func ParsePolicy(s string) Policy {
	if Policy(s) == PolicyOmit {
		return PolicyOmit
	}
	return PolicyEstimate
}

const (
	day = int64(24 * time.Hour / time.Millisecond)

	eliminationWindow = 2 * day
	championWindow    = 7 * day
)

// randomOffset returns a uniform value in [0, n). Tests replace it.
var randomOffset = func(n int64) int64 {
	if n <= 0 {
		return 0
	}
	return rand.Int64N(n)
}

// GatewaySource exposes the shared gateway. *session.Session satisfies it.
type GatewaySource interface {
	Gateway() contract.Gateway
}

// Reconstructor builds the activity feed.
type Reconstructor struct {
	source      GatewaySource
	archive     storage.LedgerEventStore
	policy      Policy
	random      func(n int64) int64
	now         func() time.Time
	logger      *zap.Logger
	concurrency int
}

// Option configures a Reconstructor.
type Option func(*Reconstructor)

// WithArchive sets the decoded log archive used for exact timestamps.
func WithArchive(s storage.LedgerEventStore) Option {
	return func(r *Reconstructor) { r.archive = s }
}

func WithPolicy(p Policy) Option {
	return func(r *Reconstructor) { r.policy = p }
}

// WithRandom overrides the uniform [0, n) source used for estimates.
func WithRandom(f func(n int64) int64) Option {
	return func(r *Reconstructor) { r.random = f }
}

func WithClock(now func() time.Time) Option {
	return func(r *Reconstructor) { r.now = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Reconstructor) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithConcurrency bounds parallel per-pool and per-player reads.
func WithConcurrency(n int) Option {
	return func(r *Reconstructor) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// New creates a Reconstructor.
func New(source GatewaySource, opts ...Option) *Reconstructor {
	r := &Reconstructor{
		source:      source,
		policy:      PolicyEstimate,
		now:         time.Now,
		logger:      zap.NewNop(),
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.random == nil {
		r.random = randomOffset
	}
	return r
}

// Build returns the feed of every pool, newest first. Events without a
// timestamp sort last. Only a failed pool count read fails the build.
func (r *Reconstructor) Build(ctx context.Context) ([]domain.ActivityEvent, error) {
	gw := r.source.Gateway()
	next, err := gw.NextPoolID(ctx)
	if err != nil {
		return nil, fmt.Errorf("read next pool id: %w", err)
	}
	observability.RecordActivityBuild()

	n := 0
	if next > 1 {
		n = int(next - 1)
	}
	perPool := make([][]domain.ActivityEvent, n)

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i := range perPool {
		poolID := uint64(i + 1)
		g.Go(func() error {
			events, err := r.buildPool(ctx, gw, poolID)
			if err != nil {
				observability.RecordActivitySkip("pool")
				r.logger.Warn("activity pool skipped", zap.Uint64("pool_id", poolID), zap.Error(err))
			}
			perPool[i] = events
			return nil
		})
	}
	_ = g.Wait()

	var out []domain.ActivityEvent
	for _, events := range perPool {
		out = append(out, events...)
	}
	SortNewestFirst(out)
	return out, ctx.Err()
}

// BuildPool returns the feed of one pool, newest first.
func (r *Reconstructor) BuildPool(ctx context.Context, poolID uint64) ([]domain.ActivityEvent, error) {
	events, err := r.buildPool(ctx, r.source.Gateway(), poolID)
	if err != nil && len(events) == 0 {
		return nil, err
	}
	SortNewestFirst(events)
	return events, nil
}

// SortNewestFirst orders events by timestamp descending. The sort is stable
// and events with an unknown timestamp go last.
func SortNewestFirst(events []domain.ActivityEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		au, bu := a.TimestampKind == domain.TimestampUnknown, b.TimestampKind == domain.TimestampUnknown
		if au != bu {
			return bu
		}
		return a.Timestamp > b.Timestamp
	})
}

// buildPool returns whatever events it could assemble. A failed pool read
// yields no events; a failed player list read keeps the creation and
// champion events.
func (r *Reconstructor) buildPool(ctx context.Context, gw contract.Gateway, poolID uint64) ([]domain.ActivityEvent, error) {
	raw, err := gw.Pool(ctx, poolID)
	if err != nil {
		return nil, fmt.Errorf("read pool: %w", err)
	}
	start := toMillis(raw.StartTime)
	exact := r.loadArchive(ctx, poolID)
	now := r.now().UnixMilli()

	var events []domain.ActivityEvent
	events = append(events, domain.ActivityEvent{
		ID:            idhash.PoolCreatedID(poolID),
		PoolID:        poolID,
		Type:          domain.EventPoolCreated,
		Description:   fmt.Sprintf("Pool #%d was created", poolID),
		Timestamp:     start,
		TimestampKind: knownKind(start),
	})

	if raw.IsCompleted && raw.Champion != (common.Address{}) {
		champ := domain.NormalizeAddress(raw.Champion.Hex())
		ts, kind := r.stamp(exact.champion, func() int64 { return start + r.random(championWindow) })
		events = append(events, domain.ActivityEvent{
			ID:            idhash.ChampionDeclaredID(poolID),
			PoolID:        poolID,
			Type:          domain.EventChampionDeclared,
			Description:   fmt.Sprintf("%s declared champion for Pool #%d", domain.ShortAddress(champ), poolID),
			Timestamp:     ts,
			TimestampKind: kind,
			Address:       champ,
		})
	}

	ap, err := gw.AllPlayers(ctx, poolID)
	if err != nil {
		return events, fmt.Errorf("read players: %w", err)
	}

	type player struct {
		addr     common.Address
		hex      string
		active   bool
		joinTime int64
	}
	players := make([]player, 0, len(ap.ActivePlayers)+len(ap.EliminatedPlayers))
	for i, a := range ap.ActivePlayers {
		players = append(players, player{a, domain.NormalizeAddress(a.Hex()), true, joinTime(ap.JoinTimes, i)})
	}
	for i, a := range ap.EliminatedPlayers {
		players = append(players, player{a, domain.NormalizeAddress(a.Hex()), false, joinTime(ap.JoinTimes, len(ap.ActivePlayers)+i)})
	}

	perPlayer := make([][]domain.ActivityEvent, len(players))
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, p := range players {
		g.Go(func() error {
			var evs []domain.ActivityEvent
			if p.active {
				evs = append(evs, r.joined(poolID, p.hex, p.joinTime))
			} else {
				evs = append(evs, r.eliminated(poolID, p.hex, p.joinTime, exact))
			}
			evs = append(evs, r.playerRecords(ctx, gw, poolID, p.addr, p.hex, start, now, exact)...)
			perPlayer[i] = evs
			return nil
		})
	}
	_ = g.Wait()

	for _, evs := range perPlayer {
		events = append(events, evs...)
	}
	return events, nil
}

func (r *Reconstructor) joined(poolID uint64, addr string, joinTime int64) domain.ActivityEvent {
	return domain.ActivityEvent{
		ID:            idhash.PlayerJoinedID(poolID, addr),
		PoolID:        poolID,
		Type:          domain.EventPlayerJoined,
		Description:   fmt.Sprintf("Player %s joined Pool #%d", domain.ShortAddress(addr), poolID),
		Timestamp:     joinTime,
		TimestampKind: knownKind(joinTime),
		Address:       addr,
	}
}

func (r *Reconstructor) eliminated(poolID uint64, addr string, joinTime int64, exact *archiveIndex) domain.ActivityEvent {
	ts, kind := r.stamp(exact.eliminated[addr], func() int64 { return joinTime + r.random(eliminationWindow) })
	return domain.ActivityEvent{
		ID:            idhash.PlayerEliminatedID(poolID, addr),
		PoolID:        poolID,
		Type:          domain.EventPlayerEliminated,
		Description:   fmt.Sprintf("Player %s was eliminated from Pool #%d", domain.ShortAddress(addr), poolID),
		Timestamp:     ts,
		TimestampKind: kind,
		Address:       addr,
	}
}

// playerRecords reads bets, voting tickets and ballots of one player. Each
// failed read is logged and skipped on its own.
func (r *Reconstructor) playerRecords(ctx context.Context, gw contract.Gateway, poolID uint64, addr common.Address, hex string, start, now int64, exact *archiveIndex) []domain.ActivityEvent {
	var events []domain.ActivityEvent
	sinceStart := func() int64 { return start + r.random(now-start) }
	skip := func(what string, err error) {
		observability.RecordActivitySkip("address")
		r.logger.Warn("activity read skipped",
			zap.String("read", what),
			zap.Uint64("pool_id", poolID),
			zap.String("address", hex),
			zap.Error(err))
	}

	if bets, err := gw.UserBets(ctx, poolID, addr); err != nil {
		skip("bets", err)
	} else {
		n := min(len(bets.TargetPlayers), len(bets.Amounts), len(bets.BetTypes))
		for j := 0; j < n; j++ {
			target := domain.NormalizeAddress(bets.TargetPlayers[j].Hex())
			amount := contract.FormatEther(bets.Amounts[j])
			label := domain.BetType(bets.BetTypes[j]).Label()
			ts, kind := r.stamp(exact.bet(hex, j), sinceStart)
			events = append(events, domain.ActivityEvent{
				ID:     idhash.BetPlacedID(poolID, hex, j),
				PoolID: poolID,
				Type:   domain.EventBetPlaced,
				Description: fmt.Sprintf("%s placed a %s ETH bet (%s) on %s in Pool #%d",
					domain.ShortAddress(hex), amount, label, domain.ShortAddress(target), poolID),
				Timestamp:     ts,
				TimestampKind: kind,
				Address:       hex,
				Target:        target,
				BetType:       label,
				Amount:        amount,
			})
		}
	}

	if extra, err := gw.AdditionalVotes(ctx, poolID, addr); err != nil {
		skip("additional votes", err)
	} else if extra > 0 {
		ts, kind := r.stamp(exact.tickets[hex], sinceStart)
		events = append(events, domain.ActivityEvent{
			ID:     idhash.VotingTicketPurchasedID(poolID, hex),
			PoolID: poolID,
			Type:   domain.EventVotingTicketPurchased,
			Description: fmt.Sprintf("%s purchased voting tickets for %d additional votes in Pool #%d",
				domain.ShortAddress(hex), extra/domain.VotesPerTicket, poolID),
			Timestamp:     ts,
			TimestampKind: kind,
			Address:       hex,
		})
	}

	if votes, err := gw.UserVotes(ctx, poolID, addr); err != nil {
		skip("votes", err)
	} else if len(votes.VotedFor) > 0 {
		// One estimate per voter: ballots are cast in a single transaction.
		var shared int64 = -1
		estimate := func() int64 {
			if shared < 0 {
				shared = sinceStart()
			}
			return shared
		}
		for _, c := range votes.VotedFor {
			target := domain.NormalizeAddress(c.Hex())
			ts, kind := r.stamp(exact.votes[hex+"|"+target], estimate)
			events = append(events, domain.ActivityEvent{
				ID:     idhash.VoteCastID(poolID, hex, target),
				PoolID: poolID,
				Type:   domain.EventVoteCast,
				Description: fmt.Sprintf("%s voted for %s in Pool #%d",
					domain.ShortAddress(hex), domain.ShortAddress(target), poolID),
				Timestamp:     ts,
				TimestampKind: kind,
				Address:       hex,
				Target:        target,
			})
		}
	}
	return events
}

// stamp prefers an archived timestamp, then applies the policy.
func (r *Reconstructor) stamp(exact int64, estimate func() int64) (int64, domain.TimestampKind) {
	if exact > 0 {
		return exact, domain.TimestampExact
	}
	if r.policy == PolicyOmit {
		return 0, domain.TimestampUnknown
	}
	return estimate(), domain.TimestampEstimated
}

func knownKind(ts int64) domain.TimestampKind {
	if ts > 0 {
		return domain.TimestampExact
	}
	return domain.TimestampUnknown
}

func joinTime(joinTimes []*big.Int, idx int) int64 {
	if idx < len(joinTimes) {
		return toMillis(joinTimes[idx])
	}
	if len(joinTimes) > 0 {
		return toMillis(joinTimes[0])
	}
	return 0
}

func toMillis(seconds *big.Int) int64 {
	if seconds == nil || !seconds.IsInt64() {
		return 0
	}
	return seconds.Int64() * 1000
}
