package pool

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"survive-arena/internal/contract"
	"survive-arena/internal/domain"
)

var (
	// ErrNotAllowed is returned when an action is not open in the pool's phase.
	ErrNotAllowed = errors.New("action not allowed")
	// ErrAlreadyJoined is returned when joining a pool twice.
	ErrAlreadyJoined = errors.New("already joined this pool")
	// ErrEmptySelection is returned when voting with no candidates.
	ErrEmptySelection = errors.New("no candidates selected")
	// ErrBetAmount is returned for bet amounts outside the pool's bounds.
	ErrBetAmount = errors.New("bet amount out of range")
)

// Account returns the connected wallet, or "" when the session is read-only.
func (b *Builder) Account() string {
	return b.session.Account()
}

// account returns the connected address, or NotConnectedError.
func (b *Builder) account(action string) (common.Address, error) {
	acc := b.session.Account()
	if acc == "" {
		return common.Address{}, &contract.NotConnectedError{Reason: contract.ErrNotConnected, Detail: action}
	}
	return common.HexToAddress(acc), nil
}

func notAllowed(action string, s *domain.PoolSnapshot) error {
	return fmt.Errorf("%w: %s in pool %d during %s", ErrNotAllowed, action, s.ID, s.State)
}

// Join joins a pool paying its on-chain entrance fee.
func (b *Builder) Join(ctx context.Context, poolID uint64) (*domain.Receipt, error) {
	acc, err := b.account("join")
	if err != nil {
		return nil, err
	}
	gw := b.gateway()

	s, err := b.BuildSnapshot(ctx, poolID)
	if err != nil {
		return nil, err
	}
	in, err := gw.IsPlayerInPool(ctx, poolID, acc)
	if err != nil {
		return nil, fmt.Errorf("check membership: %w", err)
	}
	if in {
		return nil, ErrAlreadyJoined
	}
	if !CanJoin(s, in) {
		return nil, notAllowed("join", s)
	}

	fee, err := contract.ParseEther(s.EntranceFee)
	if err != nil {
		return nil, fmt.Errorf("entrance fee %q: %w", s.EntranceFee, err)
	}
	b.logger.Info("joining pool",
		zap.Uint64("pool_id", poolID),
		zap.String("account", domain.NormalizeAddress(acc.Hex())),
		zap.String("fee", s.EntranceFee))
	return gw.JoinPool(ctx, poolID, fee)
}

// Vote casts one vote for each distinct candidate. Self-votes are rejected
// in every phase before any read.
func (b *Builder) Vote(ctx context.Context, poolID uint64, candidates []string) (*domain.Receipt, error) {
	acc, err := b.account("vote")
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, ErrEmptySelection
	}

	connected := acc.Hex()
	for _, c := range candidates {
		if IsSelfVote(c, connected) {
			return nil, ErrSelfVote
		}
		if _, err := parseAccount(c); err != nil {
			return nil, err
		}
	}

	s, err := b.BuildSnapshot(ctx, poolID)
	if err != nil {
		return nil, err
	}
	rights := b.VotingRights(ctx, poolID, connected)
	if !CanVote(s, rights.Remaining) {
		return nil, notAllowed("vote", s)
	}

	sel := NewVoteSelection(connected, int(rights.Remaining))
	for _, c := range candidates {
		if err := sel.Add(c); err != nil {
			return nil, fmt.Errorf("%w: %d selected, %d remaining", err, len(candidates), rights.Remaining)
		}
	}
	targets := make([]common.Address, 0, sel.Len())
	for _, a := range sel.Addresses() {
		targets = append(targets, common.HexToAddress(a))
	}

	return b.gateway().VoteForCandidates(ctx, poolID, targets)
}

// PlaceBet bets amount (native units) on target.
func (b *Builder) PlaceBet(ctx context.Context, poolID uint64, target string, betType domain.BetType, amount string) (*domain.Receipt, error) {
	if _, err := b.account("bet"); err != nil {
		return nil, err
	}
	if !betType.IsValid() {
		return nil, fmt.Errorf("unknown bet type %d", betType)
	}
	t, err := parseAccount(target)
	if err != nil {
		return nil, err
	}
	wei, err := contract.ParseEther(amount)
	if err != nil {
		return nil, fmt.Errorf("bet amount %q: %w", amount, err)
	}

	s, err := b.BuildSnapshot(ctx, poolID)
	if err != nil {
		return nil, err
	}
	if !CanBet(s) {
		return nil, notAllowed("bet", s)
	}
	if err := checkBetBounds(wei, s); err != nil {
		return nil, err
	}

	return b.gateway().PlaceBet(ctx, poolID, t, betType, wei)
}

// checkBetBounds enforces min/max bet amounts; a zero bound is unset.
func checkBetBounds(wei *big.Int, s *domain.PoolSnapshot) error {
	if wei.Sign() <= 0 {
		return fmt.Errorf("%w: must be positive", ErrBetAmount)
	}
	if minWei, err := contract.ParseEther(s.MinBetAmount); err == nil && minWei.Sign() > 0 && wei.Cmp(minWei) < 0 {
		return fmt.Errorf("%w: minimum is %s", ErrBetAmount, s.MinBetAmount)
	}
	if maxWei, err := contract.ParseEther(s.MaxBetAmount); err == nil && maxWei.Sign() > 0 && wei.Cmp(maxWei) > 0 {
		return fmt.Errorf("%w: maximum is %s", ErrBetAmount, s.MaxBetAmount)
	}
	return nil
}

// BuyVotingTicket buys 3 additional votes at the pool's ticket price.
func (b *Builder) BuyVotingTicket(ctx context.Context, poolID uint64) (*domain.Receipt, error) {
	if _, err := b.account("buy ticket"); err != nil {
		return nil, err
	}
	s, err := b.BuildSnapshot(ctx, poolID)
	if err != nil {
		return nil, err
	}
	if !CanBuyVotingTicket(s) {
		return nil, notAllowed("buy ticket", s)
	}
	price, err := contract.ParseEther(s.TicketPrice)
	if err != nil {
		return nil, fmt.Errorf("ticket price %q: %w", s.TicketPrice, err)
	}
	return b.gateway().PurchaseVotingTicket(ctx, poolID, price)
}

func (b *Builder) ClaimPoolReward(ctx context.Context, poolID uint64) (*domain.Receipt, error) {
	if _, err := b.account("claim pool reward"); err != nil {
		return nil, err
	}
	return b.gateway().ClaimPoolReward(ctx, poolID)
}

func (b *Builder) ClaimBetReward(ctx context.Context, poolID uint64) (*domain.Receipt, error) {
	if _, err := b.account("claim bet reward"); err != nil {
		return nil, err
	}
	return b.gateway().ClaimBetReward(ctx, poolID)
}
