package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"survive-arena/internal/domain"
)

// Writer is the state-changing contract surface. Every call requires a
// signer and returns the mined receipt.
type Writer interface {
	JoinPool(ctx context.Context, poolID uint64, entranceFee *big.Int) (*domain.Receipt, error)
	VoteForCandidates(ctx context.Context, poolID uint64, candidates []common.Address) (*domain.Receipt, error)
	PlaceBet(ctx context.Context, poolID uint64, target common.Address, betType domain.BetType, amount *big.Int) (*domain.Receipt, error)
	PurchaseVotingTicket(ctx context.Context, poolID uint64, ticketPrice *big.Int) (*domain.Receipt, error)
	ClaimPoolReward(ctx context.Context, poolID uint64) (*domain.Receipt, error)
	ClaimBetReward(ctx context.Context, poolID uint64) (*domain.Receipt, error)

	// Owner-only administration.
	CreatePool(ctx context.Context) (*domain.Receipt, error)
	CreateCustomPool(ctx context.Context, p PoolParams) (*domain.Receipt, error)
	StartBettingPeriod(ctx context.Context, poolID uint64, durationSeconds uint64) (*domain.Receipt, error)
	EndBettingPeriod(ctx context.Context, poolID uint64) (*domain.Receipt, error)
	EndRegistrationAndSelectCandidates(ctx context.Context, poolID uint64) (*domain.Receipt, error)
	CompleteEliminationRandomly(ctx context.Context, poolID uint64) (*domain.Receipt, error)
	FinalizePool(ctx context.Context, poolID uint64) (*domain.Receipt, error)
	PausePool(ctx context.Context, poolID uint64) (*domain.Receipt, error)
	ResumePool(ctx context.Context, poolID uint64) (*domain.Receipt, error)
	EmergencyCompletePool(ctx context.Context, poolID uint64) (*domain.Receipt, error)
	UpdatePoolParameters(ctx context.Context, poolID uint64, p PoolParams) (*domain.Receipt, error)
	UpdateParameters(ctx context.Context, p GlobalParams) (*domain.Receipt, error)
	WithdrawPlatformFees(ctx context.Context, recipient common.Address) (*domain.Receipt, error)
	WithdrawPlatformFeesToOwner(ctx context.Context) (*domain.Receipt, error)
}

func (c *Client) JoinPool(ctx context.Context, poolID uint64, entranceFee *big.Int) (*domain.Receipt, error) {
	return c.send(ctx, "joinPool", sendOpts{value: entranceFee}, bigID(poolID))
}

func (c *Client) VoteForCandidates(ctx context.Context, poolID uint64, candidates []common.Address) (*domain.Receipt, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("voteForCandidates: no candidates")
	}
	return c.send(ctx, "voteForCandidates", sendOpts{}, bigID(poolID), candidates)
}

func (c *Client) PlaceBet(ctx context.Context, poolID uint64, target common.Address, betType domain.BetType, amount *big.Int) (*domain.Receipt, error) {
	if !betType.IsValid() {
		return nil, fmt.Errorf("placeBet: invalid bet type %d", betType)
	}
	return c.send(ctx, "placeBet", sendOpts{value: amount}, bigID(poolID), target, big.NewInt(int64(betType)))
}

func (c *Client) PurchaseVotingTicket(ctx context.Context, poolID uint64, ticketPrice *big.Int) (*domain.Receipt, error) {
	return c.send(ctx, "purchaseVotingTicket", sendOpts{value: ticketPrice}, bigID(poolID))
}

func (c *Client) ClaimPoolReward(ctx context.Context, poolID uint64) (*domain.Receipt, error) {
	return c.send(ctx, "claimPoolReward", sendOpts{}, bigID(poolID))
}

func (c *Client) ClaimBetReward(ctx context.Context, poolID uint64) (*domain.Receipt, error) {
	return c.send(ctx, "claimBetReward", sendOpts{}, bigID(poolID))
}

func (c *Client) CreatePool(ctx context.Context) (*domain.Receipt, error) {
	return c.send(ctx, "createPool", sendOpts{})
}

func (c *Client) CreateCustomPool(ctx context.Context, p PoolParams) (*domain.Receipt, error) {
	return c.send(ctx, "createCustomPool", sendOpts{},
		nz(p.EntranceFee), nz(p.TicketPrice), nz(p.MinBetAmount), nz(p.MaxBetAmount),
		new(big.Int).SetUint64(p.EliminationInterval), new(big.Int).SetUint64(p.CandidatesToSelect))
}

func (c *Client) StartBettingPeriod(ctx context.Context, poolID uint64, durationSeconds uint64) (*domain.Receipt, error) {
	return c.send(ctx, "startBettingPeriod", sendOpts{}, bigID(poolID), new(big.Int).SetUint64(durationSeconds))
}

func (c *Client) EndBettingPeriod(ctx context.Context, poolID uint64) (*domain.Receipt, error) {
	return c.send(ctx, "endBettingPeriod", sendOpts{}, bigID(poolID))
}

func (c *Client) EndRegistrationAndSelectCandidates(ctx context.Context, poolID uint64) (*domain.Receipt, error) {
	return c.send(ctx, "endRegistrationAndSelectCandidates", sendOpts{}, bigID(poolID))
}

// CompleteEliminationRandomly uses a fixed high gas limit; the random
// elimination loop is too costly to estimate reliably.
func (c *Client) CompleteEliminationRandomly(ctx context.Context, poolID uint64) (*domain.Receipt, error) {
	return c.send(ctx, "completeEliminationRandomly", sendOpts{gasLimit: EliminationGasLimit}, bigID(poolID))
}

func (c *Client) FinalizePool(ctx context.Context, poolID uint64) (*domain.Receipt, error) {
	return c.send(ctx, "finalizePool", sendOpts{}, bigID(poolID))
}

func (c *Client) PausePool(ctx context.Context, poolID uint64) (*domain.Receipt, error) {
	return c.send(ctx, "pausePool", sendOpts{}, bigID(poolID))
}

func (c *Client) ResumePool(ctx context.Context, poolID uint64) (*domain.Receipt, error) {
	return c.send(ctx, "resumePool", sendOpts{}, bigID(poolID))
}

func (c *Client) EmergencyCompletePool(ctx context.Context, poolID uint64) (*domain.Receipt, error) {
	return c.send(ctx, "emergencyCompletePool", sendOpts{}, bigID(poolID))
}

func (c *Client) UpdatePoolParameters(ctx context.Context, poolID uint64, p PoolParams) (*domain.Receipt, error) {
	return c.send(ctx, "updatePoolParameters", sendOpts{}, bigID(poolID),
		nz(p.EntranceFee), nz(p.TicketPrice), nz(p.MinBetAmount), nz(p.MaxBetAmount),
		new(big.Int).SetUint64(p.EliminationInterval), new(big.Int).SetUint64(p.CandidatesToSelect))
}

func (c *Client) UpdateParameters(ctx context.Context, p GlobalParams) (*domain.Receipt, error) {
	return c.send(ctx, "updateParameters", sendOpts{},
		nz(p.EntranceFee), nz(p.TicketPrice), nz(p.MinBetAmount), nz(p.MaxBetAmount),
		new(big.Int).SetUint64(p.EliminationInterval))
}

func (c *Client) WithdrawPlatformFees(ctx context.Context, recipient common.Address) (*domain.Receipt, error) {
	return c.send(ctx, "withdrawPlatformFees", sendOpts{}, recipient)
}

func (c *Client) WithdrawPlatformFeesToOwner(ctx context.Context) (*domain.Receipt, error) {
	return c.send(ctx, "withdrawPlatformFeesToOwner", sendOpts{})
}

func nz(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
