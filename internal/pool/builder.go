// Package pool builds pool view models from many independent contract reads.
//
// Reads fan out through errgroup and are merged into snapshots and rosters.
// A failed read of one address degrades that entry and never shrinks the
// collection it belongs to.
package pool

import (
	"context"
	"fmt"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"survive-arena/internal/contract"
	"survive-arena/internal/domain"
	"survive-arena/internal/observability"
	"survive-arena/internal/profile"
)

// DefaultConcurrency bounds per-address reads of one roster build.
const DefaultConcurrency = 8

// Session exposes the shared gateway and connected account.
// *session.Session satisfies it.
type Session interface {
	Gateway() contract.Gateway
	Account() string
}

// ProfileLookup decorates addresses with off-chain identities.
// *profile.Service satisfies it.
type ProfileLookup interface {
	Lookup(ctx context.Context, address string) (domain.Profile, bool)
}

// Options for creating Builder.
type Options struct {
	Session     Session
	Profiles    ProfileLookup // optional
	Logger      *zap.Logger
	Concurrency int
}

// Builder produces snapshots, rosters and per-account views.
type Builder struct {
	session     Session
	profiles    ProfileLookup
	logger      *zap.Logger
	concurrency int
}

// NewBuilder creates a new Builder.
func NewBuilder(opts Options) *Builder {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Builder{
		session:     opts.Session,
		profiles:    opts.Profiles,
		logger:      opts.Logger,
		concurrency: opts.Concurrency,
	}
}

func (b *Builder) gateway() contract.Gateway {
	return b.session.Gateway()
}

// BuildSnapshot reads the raw pool, its phase name and its player counts in
// parallel. Only a failed raw pool read fails the snapshot.
func (b *Builder) BuildSnapshot(ctx context.Context, poolID uint64) (*domain.PoolSnapshot, error) {
	gw := b.gateway()

	var (
		raw       *contract.RawPool
		stateName string
		stateErr  error
		counts    *contract.PlayerCounts
		countsErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		raw, err = gw.Pool(gctx, poolID)
		return err
	})
	g.Go(func() error {
		stateName, stateErr = gw.PoolStateAsString(gctx, poolID)
		return nil
	})
	g.Go(func() error {
		counts, countsErr = gw.PlayerCounts(gctx, poolID)
		return nil
	})
	if err := g.Wait(); err != nil {
		observability.RecordSnapshotError()
		return nil, fmt.Errorf("read pool %d: %w", poolID, err)
	}

	phase := domain.PhaseUnknown
	if stateErr == nil {
		phase = domain.ParsePhase(stateName)
	} else {
		b.logger.Debug("phase name unavailable, using numeric state",
			zap.Uint64("pool_id", poolID), zap.Error(stateErr))
	}
	if phase == domain.PhaseUnknown {
		phase = domain.PhaseFromState(raw.State)
	}

	var pc domain.PlayerCounts
	if countsErr == nil {
		pc = domain.PlayerCounts{
			Active:     toInt(counts.ActivePlayers),
			Eliminated: toInt(counts.EliminatedPlayers),
			Total:      toInt(counts.TotalPlayers),
		}
	} else {
		b.logger.Debug("player counts unavailable, counting lists",
			zap.Uint64("pool_id", poolID), zap.Error(countsErr))
		if ap, err := gw.AllPlayers(ctx, poolID); err == nil {
			pc.Active = len(ap.ActivePlayers)
			pc.Eliminated = len(ap.EliminatedPlayers)
			pc.Total = pc.Active + pc.Eliminated
		}
	}
	if pc.Total < pc.Active {
		pc.Total = pc.Active + pc.Eliminated
	}

	return toSnapshot(poolID, raw, phase, pc), nil
}

func toSnapshot(poolID uint64, raw *contract.RawPool, phase domain.Phase, pc domain.PlayerCounts) *domain.PoolSnapshot {
	s := &domain.PoolSnapshot{
		ID:                  poolID,
		State:               phase,
		StateCode:           raw.State,
		EntranceFee:         contract.FormatEther(raw.PoolEntranceFee),
		TicketPrice:         contract.FormatEther(raw.PoolTicketPrice),
		MinBetAmount:        contract.FormatEther(raw.PoolMinBetAmount),
		MaxBetAmount:        contract.FormatEther(raw.PoolMaxBetAmount),
		ActivePlayers:       pc.Active,
		EliminatedPlayers:   pc.Eliminated,
		TotalPlayers:        pc.Total,
		IsActive:            raw.IsActive,
		IsPaused:            raw.IsPaused,
		IsCompleted:         raw.IsCompleted,
		IsEliminationActive: raw.IsEliminationActive,
		TotalEntranceFees:   contract.FormatEther(raw.TotalEntranceFees),
		TotalBetFees:        contract.FormatEther(raw.TotalBetFees),
		TotalTicketFees:     contract.FormatEther(raw.TotalTicketFees),
		CandidatesToSelect:  toInt(raw.CandidatesToSelect),
		StartTime:           toMillis(raw.StartTime),
		BettingEndTime:      toMillis(raw.BettingEndTime),
		EliminationInterval: toInt64(raw.PoolEliminationInterval),
	}
	if raw.Champion != (common.Address{}) {
		s.Champion = domain.NormalizeAddress(raw.Champion.Hex())
	}
	return s
}

// BuildRoster reads the player lists of a pool, then fetches each player's
// vote tally and profile with bounded concurrency. Order is active players
// then eliminated players, as listed by the contract. A failed vote read
// yields a zero-vote, profile-less record flagged Degraded.
func (b *Builder) BuildRoster(ctx context.Context, poolID uint64, connected string) ([]domain.PlayerRecord, error) {
	gw := b.gateway()

	ap, err := gw.AllPlayers(ctx, poolID)
	if err != nil {
		return nil, fmt.Errorf("read players of pool %d: %w", poolID, err)
	}

	records, addrs := rosterSkeleton(ap, connected)

	var degraded atomic.Int32
	var g errgroup.Group
	g.SetLimit(b.concurrency)
	for i := range records {
		g.Go(func() error {
			votes, err := gw.CandidateVotes(ctx, poolID, addrs[i])
			if err != nil {
				records[i].Degraded = true
				degraded.Add(1)
				b.logger.Debug("vote tally unavailable",
					zap.Uint64("pool_id", poolID),
					zap.String("address", records[i].Address),
					zap.Error(err))
				return nil
			}
			records[i].Votes = int64(votes)
			if b.profiles != nil {
				if p, ok := b.profiles.Lookup(ctx, records[i].Address); ok {
					profile.Merge(&records[i], p)
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	observability.RecordRoster(int(degraded.Load()))
	if err := ctx.Err(); err != nil {
		return records, err
	}
	return records, nil
}

// rosterSkeleton lays out roster records in upstream order with join times
// and the current-user flag, before any per-address read.
func rosterSkeleton(ap *contract.AllPlayers, connected string) ([]domain.PlayerRecord, []common.Address) {
	n := len(ap.ActivePlayers) + len(ap.EliminatedPlayers)
	records := make([]domain.PlayerRecord, 0, n)
	addrs := make([]common.Address, 0, n)

	add := func(a common.Address, active bool, idx int) {
		addr := domain.NormalizeAddress(a.Hex())
		records = append(records, domain.PlayerRecord{
			Address:       addr,
			IsActive:      active,
			JoinTime:      joinTime(ap.JoinTimes, idx),
			IsCurrentUser: domain.SameAddress(addr, connected),
		})
		addrs = append(addrs, a)
	}
	for i, a := range ap.ActivePlayers {
		add(a, true, i)
	}
	for i, a := range ap.EliminatedPlayers {
		add(a, false, len(ap.ActivePlayers)+i)
	}
	return records, addrs
}

// joinTime returns joinTimes[idx] in ms, falling back to the first entry.
func joinTime(joinTimes []*big.Int, idx int) int64 {
	if idx < len(joinTimes) {
		return toMillis(joinTimes[idx])
	}
	if len(joinTimes) > 0 {
		return toMillis(joinTimes[0])
	}
	return 0
}

func toInt(v *big.Int) int {
	return int(toInt64(v))
}

func toInt64(v *big.Int) int64 {
	if v == nil || !v.IsInt64() {
		return 0
	}
	return v.Int64()
}

func toMillis(seconds *big.Int) int64 {
	return toInt64(seconds) * 1000
}
