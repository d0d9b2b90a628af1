package pool

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"survive-arena/internal/contract"
	"survive-arena/internal/domain"
)

// Filter selects pools in ListPools.
type Filter string

const (
	FilterAll    Filter = "all"
	FilterActive Filter = "active"
)

// ParseFilter maps a query value to a Filter, defaulting to FilterAll.
func ParseFilter(s string) Filter {
	if Filter(s) == FilterActive {
		return FilterActive
	}
	return FilterAll
}

// PopularLimit is the number of entries returned by PopularPlayers.
const PopularLimit = 5

// DefaultVotingRights is assumed when the rights accessors are unavailable.
const DefaultVotingRights = 3

// ErrInvalidAddress is returned for account arguments that are not hex addresses.
var ErrInvalidAddress = errors.New("invalid address")

func parseAccount(account string) (common.Address, error) {
	if !common.IsHexAddress(account) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, account)
	}
	return common.HexToAddress(account), nil
}

// isOpen is the "active" pool filter: running and not completed.
func isOpen(s *domain.PoolSnapshot) bool {
	return s.IsActive && !s.IsCompleted
}

// forEachPool runs fn for pool ids 1..nextPoolId-1 with bounded concurrency.
// Per-pool errors are logged and skipped.
func (b *Builder) forEachPool(ctx context.Context, scope string, fn func(ctx context.Context, poolID uint64) error) (uint64, error) {
	next, err := b.gateway().NextPoolID(ctx)
	if err != nil {
		return 0, fmt.Errorf("read next pool id: %w", err)
	}

	var g errgroup.Group
	g.SetLimit(b.concurrency)
	for id := uint64(1); id < next; id++ {
		g.Go(func() error {
			if err := fn(ctx, id); err != nil {
				b.logger.Debug("pool skipped",
					zap.String("scope", scope),
					zap.Uint64("pool_id", id),
					zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
	return next, ctx.Err()
}

// ListPools returns snapshots of every pool in id order. Pools whose raw
// read fails are skipped.
func (b *Builder) ListPools(ctx context.Context, filter Filter) ([]domain.PoolSnapshot, error) {
	var mu sync.Mutex
	found := make(map[uint64]*domain.PoolSnapshot)

	next, err := b.forEachPool(ctx, "list", func(ctx context.Context, id uint64) error {
		s, err := b.BuildSnapshot(ctx, id)
		if err != nil {
			return err
		}
		mu.Lock()
		found[id] = s
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.PoolSnapshot, 0, len(found))
	for id := uint64(1); id < next; id++ {
		s, ok := found[id]
		if !ok {
			continue
		}
		if filter == FilterActive && !isOpen(s) {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

// UserPools returns the pools account has joined, in id order.
func (b *Builder) UserPools(ctx context.Context, account string) ([]domain.UserPool, error) {
	addr, err := parseAccount(account)
	if err != nil {
		return nil, err
	}
	gw := b.gateway()

	var mu sync.Mutex
	found := make(map[uint64]domain.UserPool)

	next, err := b.forEachPool(ctx, "user_pools", func(ctx context.Context, id uint64) error {
		in, err := gw.IsPlayerInPool(ctx, id, addr)
		if err != nil || !in {
			return err
		}
		s, err := b.BuildSnapshot(ctx, id)
		if err != nil {
			return err
		}

		up := domain.UserPool{PoolID: id, Status: s.State, IsActive: true, Reward: "0"}
		if eliminated, err := gw.IsPlayerEliminated(ctx, id, addr); err == nil {
			up.IsActive = !eliminated
		}
		up.IsCompleted = isCompleted(s)
		if up.IsCompleted {
			if r, err := gw.CalculatePoolReward(ctx, id, addr); err == nil {
				up.Reward = contract.FormatEther(r)
			}
		}
		if claimed, err := gw.HasClaimedReward(ctx, id, addr); err == nil {
			up.HasClaimed = claimed
		}

		mu.Lock()
		found[id] = up
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.UserPool, 0, len(found))
	for id := uint64(1); id < next; id++ {
		if up, ok := found[id]; ok {
			out = append(out, up)
		}
	}
	return out, nil
}

func isCompleted(s *domain.PoolSnapshot) bool {
	return s.IsCompleted || s.State == domain.PhaseCompleted
}

// UserBets returns the bets account placed in one pool. Outcomes stay
// unknown until the pool completes or when completion cannot be read.
func (b *Builder) UserBets(ctx context.Context, poolID uint64, account string) ([]domain.BetRecord, error) {
	addr, err := parseAccount(account)
	if err != nil {
		return nil, err
	}
	return b.userBets(ctx, poolID, addr)
}

func (b *Builder) userBets(ctx context.Context, poolID uint64, addr common.Address) ([]domain.BetRecord, error) {
	gw := b.gateway()
	ub, err := gw.UserBets(ctx, poolID, addr)
	if err != nil {
		return nil, fmt.Errorf("read bets of %s in pool %d: %w", addr.Hex(), poolID, err)
	}

	completed := false
	if raw, err := gw.Pool(ctx, poolID); err == nil {
		completed = raw.IsCompleted || domain.PhaseFromState(raw.State) == domain.PhaseCompleted
	}

	out := make([]domain.BetRecord, 0, ub.Len())
	for i := 0; i < ub.Len(); i++ {
		rec := domain.BetRecord{
			PoolID:  poolID,
			Target:  domain.NormalizeAddress(ub.TargetPlayers[i].Hex()),
			Outcome: domain.BetOutcomeUnknown,
		}
		if i < len(ub.Amounts) {
			rec.Amount = contract.FormatEther(ub.Amounts[i])
		}
		if i < len(ub.BetTypes) {
			rec.BetType = domain.BetType(ub.BetTypes[i])
		}
		if i < len(ub.IsClaimed) {
			rec.IsClaimed = ub.IsClaimed[i]
		}
		if completed && i < len(ub.IsCorrect) {
			rec.Outcome = domain.BetOutcomeLost
			if ub.IsCorrect[i] {
				rec.Outcome = domain.BetOutcomeWon
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// AllUserBets returns account's bets across every pool, in pool order.
func (b *Builder) AllUserBets(ctx context.Context, account string) ([]domain.BetRecord, error) {
	addr, err := parseAccount(account)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	byPool := make(map[uint64][]domain.BetRecord)
	next, err := b.forEachPool(ctx, "user_bets", func(ctx context.Context, id uint64) error {
		bets, err := b.userBets(ctx, id, addr)
		if err != nil {
			return err
		}
		mu.Lock()
		byPool[id] = bets
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	var out []domain.BetRecord
	for id := uint64(1); id < next; id++ {
		out = append(out, byPool[id]...)
	}
	return out, nil
}

// UserTickets returns pools where account holds additional votes.
func (b *Builder) UserTickets(ctx context.Context, account string) ([]domain.TicketRecord, error) {
	addr, err := parseAccount(account)
	if err != nil {
		return nil, err
	}
	gw := b.gateway()

	var mu sync.Mutex
	byPool := make(map[uint64]int64)
	next, err := b.forEachPool(ctx, "user_tickets", func(ctx context.Context, id uint64) error {
		n, err := gw.AdditionalVotes(ctx, id, addr)
		if err != nil || n == 0 {
			return err
		}
		mu.Lock()
		byPool[id] = int64(n)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	var out []domain.TicketRecord
	for id := uint64(1); id < next; id++ {
		if n, ok := byPool[id]; ok {
			out = append(out, domain.TicketRecord{PoolID: id, AdditionalVotes: n})
		}
	}
	return out, nil
}

// UserVotes returns the candidates account voted for in one pool.
func (b *Builder) UserVotes(ctx context.Context, poolID uint64, account string) (*domain.VoteSummary, error) {
	addr, err := parseAccount(account)
	if err != nil {
		return nil, err
	}
	uv, err := b.gateway().UserVotes(ctx, poolID, addr)
	if err != nil {
		return nil, fmt.Errorf("read votes of %s in pool %d: %w", addr.Hex(), poolID, err)
	}
	vs := &domain.VoteSummary{
		VotedFor:   make([]string, 0, len(uv.VotedFor)),
		TotalVotes: toInt64(uv.TotalVotesCast),
	}
	for _, a := range uv.VotedFor {
		vs.VotedFor = append(vs.VotedFor, domain.NormalizeAddress(a.Hex()))
	}
	return vs, nil
}

// VotingRights reads remaining and total votes of account. Each value falls
// back to DefaultVotingRights when its read fails.
func (b *Builder) VotingRights(ctx context.Context, poolID uint64, account string) domain.VotingRights {
	rights := domain.VotingRights{Remaining: DefaultVotingRights, Total: DefaultVotingRights}
	addr, err := parseAccount(account)
	if err != nil {
		return rights
	}
	gw := b.gateway()

	var g errgroup.Group
	g.Go(func() error {
		if n, err := gw.RemainingVotes(ctx, poolID, addr); err == nil {
			rights.Remaining = int64(n)
		}
		return nil
	})
	g.Go(func() error {
		if n, err := gw.TotalVotingRights(ctx, poolID, addr); err == nil {
			rights.Total = int64(n)
		}
		return nil
	})
	_ = g.Wait()
	return rights
}

// UserStats summarizes account across pools. TotalEarnings is what remains
// to be claimed: pool rewards of completed pools plus won bets times their
// multiplier.
func (b *Builder) UserStats(ctx context.Context, account string) (*domain.UserStats, error) {
	addr, err := parseAccount(account)
	if err != nil {
		return nil, err
	}
	gw := b.gateway()

	var (
		mu       sync.Mutex
		earnings = decimal.Zero
		stats    domain.UserStats
	)
	_, err = b.forEachPool(ctx, "user_stats", func(ctx context.Context, id uint64) error {
		var poolEarned decimal.Decimal
		joined := false

		if in, err := gw.IsPlayerInPool(ctx, id, addr); err == nil && in {
			joined = true
			if s, err := b.BuildSnapshot(ctx, id); err == nil && isCompleted(s) {
				claimed, cerr := gw.HasClaimedReward(ctx, id, addr)
				if cerr == nil && !claimed {
					if r, err := gw.CalculatePoolReward(ctx, id, addr); err == nil {
						poolEarned = poolEarned.Add(contract.EtherDecimal(r))
					}
				}
			}
		}

		bets, err := b.userBets(ctx, id, addr)
		if err != nil {
			bets = nil
		}
		for _, bet := range bets {
			if !bet.IsWon() || bet.IsClaimed {
				continue
			}
			amount, perr := decimal.NewFromString(bet.Amount)
			if perr != nil {
				continue
			}
			poolEarned = poolEarned.Add(amount.Mul(decimal.NewFromInt(bet.BetType.Multiplier())))
		}

		mu.Lock()
		defer mu.Unlock()
		if joined {
			stats.PoolsJoined++
		}
		stats.BetsPlaced += len(bets)
		earnings = earnings.Add(poolEarned)
		return nil
	})
	if err != nil {
		return nil, err
	}

	stats.TotalEarnings = earnings.StringFixed(2)
	return &stats, nil
}

// PopularPlayers sums candidate votes across open pools and returns the top
// PopularLimit addresses with at least one vote.
func (b *Builder) PopularPlayers(ctx context.Context) ([]domain.PopularPlayer, error) {
	gw := b.gateway()

	var mu sync.Mutex
	totals := make(map[string]int64)

	_, err := b.forEachPool(ctx, "popular", func(ctx context.Context, id uint64) error {
		raw, err := gw.Pool(ctx, id)
		if err != nil {
			return err
		}
		if !raw.IsActive || raw.IsCompleted {
			return nil
		}
		ap, err := gw.AllPlayers(ctx, id)
		if err != nil {
			return err
		}
		for _, a := range ap.ActivePlayers {
			votes, err := gw.CandidateVotes(ctx, id, a)
			if err != nil || votes == 0 {
				continue
			}
			mu.Lock()
			totals[domain.NormalizeAddress(a.Hex())] += int64(votes)
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.PopularPlayer, 0, len(totals))
	for addr, v := range totals {
		out = append(out, domain.PopularPlayer{Address: addr, Votes: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Votes != out[j].Votes {
			return out[i].Votes > out[j].Votes
		}
		return out[i].Address < out[j].Address
	})
	if len(out) > PopularLimit {
		out = out[:PopularLimit]
	}
	return out, nil
}
