// Package stub provides an in-memory contract gateway for tests.
package stub

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"survive-arena/internal/contract"
	"survive-arena/internal/domain"
)

// ErrPoolNotFound is returned for reads of unknown pools.
var ErrPoolNotFound = errors.New("pool does not exist")

type key struct {
	pool uint64
	addr common.Address
}

// SentCall records one state-changing call.
type SentCall struct {
	Method string
	PoolID uint64
	Value  *big.Int
	Args   []interface{}
}

// Gateway implements contract.Gateway over maps. Writes mutate the maps
// roughly the way the contract would, enough for flow tests.
type Gateway struct {
	mu sync.Mutex

	// Account is the connected wallet; zero means writes fail NotConnected.
	Account common.Address
	Now     func() time.Time

	NextID      uint64
	Pools       map[uint64]*contract.RawPool
	States      map[uint64]string
	Players     map[uint64]*contract.AllPlayers
	Counts      map[uint64]*contract.PlayerCounts
	Votes       map[key]uint64
	Additional  map[key]uint64
	Remaining   map[key]uint64
	TotalRights map[key]uint64
	Bets        map[key]*contract.UserBets
	VotesCast   map[key]*contract.UserVotes
	PoolRewards map[key]*big.Int
	BetRewards  map[key]*big.Int
	Claimed     map[key]bool
	Tickets     map[key]bool
	TopTen      map[uint64]*contract.TopTen
	OwnerAddr   common.Address
	Fees        *big.Int
	FeePercent  uint64

	methodErrs  map[string]error
	addressErrs map[string]map[common.Address]error
	sent        []SentCall
	txCount     uint64
}

// NewGateway creates an empty stub gateway.
func NewGateway() *Gateway {
	return &Gateway{
		Now:         time.Now,
		NextID:      1,
		Pools:       make(map[uint64]*contract.RawPool),
		States:      make(map[uint64]string),
		Players:     make(map[uint64]*contract.AllPlayers),
		Counts:      make(map[uint64]*contract.PlayerCounts),
		Votes:       make(map[key]uint64),
		Additional:  make(map[key]uint64),
		Remaining:   make(map[key]uint64),
		TotalRights: make(map[key]uint64),
		Bets:        make(map[key]*contract.UserBets),
		VotesCast:   make(map[key]*contract.UserVotes),
		PoolRewards: make(map[key]*big.Int),
		BetRewards:  make(map[key]*big.Int),
		Claimed:     make(map[key]bool),
		Tickets:     make(map[key]bool),
		TopTen:      make(map[uint64]*contract.TopTen),
		Fees:        new(big.Int),
		methodErrs:  make(map[string]error),
		addressErrs: make(map[string]map[common.Address]error),
	}
}

var _ contract.Gateway = (*Gateway)(nil)

// Fail makes every call of method return err.
func (g *Gateway) Fail(method string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.methodErrs[method] = err
}

// FailFor makes calls of method for addr return err.
func (g *Gateway) FailFor(method string, addr common.Address, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.addressErrs[method] == nil {
		g.addressErrs[method] = make(map[common.Address]error)
	}
	g.addressErrs[method][addr] = err
}

// Sent returns a copy of the recorded writes.
func (g *Gateway) Sent() []SentCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]SentCall, len(g.sent))
	copy(out, g.sent)
	return out
}

// AddPool registers a pool with its display state string.
func (g *Gateway) AddPool(poolID uint64, p *contract.RawPool, state string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Pools[poolID] = p
	g.States[poolID] = state
	if _, ok := g.Players[poolID]; !ok {
		g.Players[poolID] = &contract.AllPlayers{}
	}
	if poolID >= g.NextID {
		g.NextID = poolID + 1
	}
}

// SetPlayers sets a pool's roster; joinTimes are seconds, active first.
func (g *Gateway) SetPlayers(poolID uint64, active, eliminated []common.Address, joinTimes []int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ap := &contract.AllPlayers{ActivePlayers: active, EliminatedPlayers: eliminated}
	for range active {
		ap.Statuses = append(ap.Statuses, true)
	}
	for range eliminated {
		ap.Statuses = append(ap.Statuses, false)
	}
	for _, t := range joinTimes {
		ap.JoinTimes = append(ap.JoinTimes, big.NewInt(t))
	}
	g.Players[poolID] = ap
}

// SetVotes sets the candidate vote tally of addr.
func (g *Gateway) SetVotes(poolID uint64, addr common.Address, votes uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Votes[key{poolID, addr}] = votes
}

// SetVotingRights sets remaining and total voting rights of addr.
func (g *Gateway) SetVotingRights(poolID uint64, addr common.Address, remaining, total uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Remaining[key{poolID, addr}] = remaining
	g.TotalRights[key{poolID, addr}] = total
}

// AddBet appends a bet record for bettor.
func (g *Gateway) AddBet(poolID uint64, bettor, target common.Address, amount *big.Int, betType domain.BetType, correct, claimed bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addBetLocked(poolID, bettor, target, amount, betType, correct, claimed)
}

func (g *Gateway) addBetLocked(poolID uint64, bettor, target common.Address, amount *big.Int, betType domain.BetType, correct, claimed bool) {
	k := key{poolID, bettor}
	b := g.Bets[k]
	if b == nil {
		b = &contract.UserBets{}
		g.Bets[k] = b
	}
	b.TargetPlayers = append(b.TargetPlayers, target)
	b.Amounts = append(b.Amounts, new(big.Int).Set(amount))
	b.BetTypes = append(b.BetTypes, uint8(betType))
	b.IsCorrect = append(b.IsCorrect, correct)
	b.IsClaimed = append(b.IsClaimed, claimed)
}

// SetUserVotes sets the candidates voter voted for.
func (g *Gateway) SetUserVotes(poolID uint64, voter common.Address, votedFor []common.Address) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.VotesCast[key{poolID, voter}] = &contract.UserVotes{
		VotedFor:       votedFor,
		TotalVotesCast: big.NewInt(int64(len(votedFor))),
	}
}

// SetPoolReward sets the pool reward of player.
func (g *Gateway) SetPoolReward(poolID uint64, player common.Address, reward *big.Int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.PoolRewards[key{poolID, player}] = reward
}

func (g *Gateway) check(method string, addr common.Address) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err, ok := g.methodErrs[method]; ok {
		return err
	}
	if errs, ok := g.addressErrs[method]; ok {
		if err, ok := errs[addr]; ok {
			return err
		}
	}
	return nil
}

func (g *Gateway) NextPoolID(_ context.Context) (uint64, error) {
	if err := g.check("nextPoolId", common.Address{}); err != nil {
		return 0, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.NextID, nil
}

func (g *Gateway) Pool(_ context.Context, poolID uint64) (*contract.RawPool, error) {
	if err := g.check("pools", common.Address{}); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.Pools[poolID]
	if !ok {
		return nil, ErrPoolNotFound
	}
	cp := *p
	return &cp, nil
}

func (g *Gateway) PoolStateAsString(_ context.Context, poolID uint64) (string, error) {
	if err := g.check("getPoolStateAsString", common.Address{}); err != nil {
		return "", err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.States[poolID]
	if !ok {
		return "", ErrPoolNotFound
	}
	return s, nil
}

func (g *Gateway) PoolState(_ context.Context, poolID uint64) (uint8, error) {
	if err := g.check("getPoolState", common.Address{}); err != nil {
		return 0, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.Pools[poolID]
	if !ok {
		return 0, ErrPoolNotFound
	}
	return p.State, nil
}

func (g *Gateway) PlayerCounts(_ context.Context, poolID uint64) (*contract.PlayerCounts, error) {
	if err := g.check("getPlayerCounts", common.Address{}); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.Counts[poolID]; ok {
		return c, nil
	}
	ap := g.Players[poolID]
	if ap == nil {
		ap = &contract.AllPlayers{}
	}
	active, elim := len(ap.ActivePlayers), len(ap.EliminatedPlayers)
	return &contract.PlayerCounts{
		ActivePlayers:     big.NewInt(int64(active)),
		EliminatedPlayers: big.NewInt(int64(elim)),
		TotalPlayers:      big.NewInt(int64(active + elim)),
	}, nil
}

func (g *Gateway) AllPlayers(_ context.Context, poolID uint64) (*contract.AllPlayers, error) {
	if err := g.check("getAllPlayers", common.Address{}); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	ap, ok := g.Players[poolID]
	if !ok {
		return nil, ErrPoolNotFound
	}
	cp := &contract.AllPlayers{
		ActivePlayers:     append([]common.Address(nil), ap.ActivePlayers...),
		EliminatedPlayers: append([]common.Address(nil), ap.EliminatedPlayers...),
		Statuses:          append([]bool(nil), ap.Statuses...),
		JoinTimes:         append([]*big.Int(nil), ap.JoinTimes...),
	}
	return cp, nil
}

func (g *Gateway) EliminatedPlayers(ctx context.Context, poolID uint64) ([]common.Address, error) {
	if err := g.check("getEliminatedPlayers", common.Address{}); err != nil {
		return nil, err
	}
	ap, err := g.AllPlayers(ctx, poolID)
	if err != nil {
		return nil, err
	}
	return ap.EliminatedPlayers, nil
}

func (g *Gateway) ActivePlayerCount(ctx context.Context, poolID uint64) (uint64, error) {
	if err := g.check("getActivePlayerCount", common.Address{}); err != nil {
		return 0, err
	}
	ap, err := g.AllPlayers(ctx, poolID)
	if err != nil {
		return 0, err
	}
	return uint64(len(ap.ActivePlayers)), nil
}

func (g *Gateway) readKey(method string, m map[key]uint64, poolID uint64, addr common.Address) (uint64, error) {
	if err := g.check(method, addr); err != nil {
		return 0, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return m[key{poolID, addr}], nil
}

func (g *Gateway) CandidateVotes(_ context.Context, poolID uint64, candidate common.Address) (uint64, error) {
	return g.readKey("candidateVotes", g.Votes, poolID, candidate)
}

func (g *Gateway) AdditionalVotes(_ context.Context, poolID uint64, account common.Address) (uint64, error) {
	return g.readKey("additionalVotes", g.Additional, poolID, account)
}

func (g *Gateway) UserBets(_ context.Context, poolID uint64, bettor common.Address) (*contract.UserBets, error) {
	if err := g.check("getUserBets", bettor); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	b := g.Bets[key{poolID, bettor}]
	if b == nil {
		return &contract.UserBets{}, nil
	}
	cp := *b
	return &cp, nil
}

func (g *Gateway) UserBetCount(ctx context.Context, poolID uint64, bettor common.Address) (uint64, error) {
	if err := g.check("getUserBetCount", bettor); err != nil {
		return 0, err
	}
	b, err := g.UserBets(ctx, poolID, bettor)
	if err != nil {
		return 0, err
	}
	return uint64(b.Len()), nil
}

func (g *Gateway) UserVotes(_ context.Context, poolID uint64, voter common.Address) (*contract.UserVotes, error) {
	if err := g.check("getUserVotes", voter); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	v := g.VotesCast[key{poolID, voter}]
	if v == nil {
		return &contract.UserVotes{TotalVotesCast: new(big.Int)}, nil
	}
	cp := *v
	return &cp, nil
}

func (g *Gateway) RemainingVotes(_ context.Context, poolID uint64, account common.Address) (uint64, error) {
	return g.readKey("getRemainingVotes", g.Remaining, poolID, account)
}

func (g *Gateway) TotalVotingRights(_ context.Context, poolID uint64, account common.Address) (uint64, error) {
	return g.readKey("getTotalVotingRights", g.TotalRights, poolID, account)
}

func (g *Gateway) TopTenPlayers(ctx context.Context, poolID uint64) ([]common.Address, error) {
	if err := g.check("getTopTenPlayers", common.Address{}); err != nil {
		return nil, err
	}
	t, err := g.TopTenPlayersWithRanks(ctx, poolID)
	if err != nil {
		return nil, err
	}
	return t.Players, nil
}

func (g *Gateway) TopTenPlayersWithRanks(_ context.Context, poolID uint64) (*contract.TopTen, error) {
	if err := g.check("getTopTenPlayersWithRanks", common.Address{}); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if t, ok := g.TopTen[poolID]; ok {
		return t, nil
	}
	return &contract.TopTen{}, nil
}

func (g *Gateway) readBig(method string, m map[key]*big.Int, poolID uint64, addr common.Address) (*big.Int, error) {
	if err := g.check(method, addr); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if v, ok := m[key{poolID, addr}]; ok {
		return new(big.Int).Set(v), nil
	}
	return new(big.Int), nil
}

func (g *Gateway) CalculatePoolReward(_ context.Context, poolID uint64, player common.Address) (*big.Int, error) {
	return g.readBig("calculatePoolReward", g.PoolRewards, poolID, player)
}

func (g *Gateway) CalculateBetReward(_ context.Context, poolID uint64, bettor common.Address) (*big.Int, error) {
	return g.readBig("calculateBetReward", g.BetRewards, poolID, bettor)
}

func (g *Gateway) readFlag(method string, m map[key]bool, poolID uint64, addr common.Address) (bool, error) {
	if err := g.check(method, addr); err != nil {
		return false, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return m[key{poolID, addr}], nil
}

func (g *Gateway) HasClaimedReward(_ context.Context, poolID uint64, account common.Address) (bool, error) {
	return g.readFlag("hasClaimedReward", g.Claimed, poolID, account)
}

func (g *Gateway) HasTicket(_ context.Context, poolID uint64, account common.Address) (bool, error) {
	return g.readFlag("hasTicket", g.Tickets, poolID, account)
}

func (g *Gateway) HasVotedForCandidate(_ context.Context, poolID uint64, voter, candidate common.Address) (bool, error) {
	if err := g.check("hasVotedForCandidate", voter); err != nil {
		return false, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	v := g.VotesCast[key{poolID, voter}]
	if v == nil {
		return false, nil
	}
	for _, a := range v.VotedFor {
		if a == candidate {
			return true, nil
		}
	}
	return false, nil
}

func (g *Gateway) IsBetWinner(_ context.Context, poolID uint64, bettor common.Address) (bool, error) {
	if err := g.check("isBetWinner", bettor); err != nil {
		return false, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	b := g.Bets[key{poolID, bettor}]
	if b == nil {
		return false, nil
	}
	for _, c := range b.IsCorrect {
		if c {
			return true, nil
		}
	}
	return false, nil
}

func (g *Gateway) IsPlayerInPool(_ context.Context, poolID uint64, player common.Address) (bool, error) {
	if err := g.check("isPlayerInPool", player); err != nil {
		return false, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	ap := g.Players[poolID]
	if ap == nil {
		return false, nil
	}
	return contains(ap.ActivePlayers, player) || contains(ap.EliminatedPlayers, player), nil
}

func (g *Gateway) IsPlayerEliminated(_ context.Context, poolID uint64, player common.Address) (bool, error) {
	if err := g.check("isPlayerEliminated", player); err != nil {
		return false, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	ap := g.Players[poolID]
	if ap == nil {
		return false, nil
	}
	return contains(ap.EliminatedPlayers, player), nil
}

func (g *Gateway) Owner(_ context.Context) (common.Address, error) {
	if err := g.check("owner", common.Address{}); err != nil {
		return common.Address{}, err
	}
	return g.OwnerAddr, nil
}

func (g *Gateway) PlatformFees(_ context.Context) (*big.Int, error) {
	if err := g.check("platformFees", common.Address{}); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return new(big.Int).Set(g.Fees), nil
}

func (g *Gateway) PlatformFeePercentage(_ context.Context) (uint64, error) {
	if err := g.check("platformFeePercentage", common.Address{}); err != nil {
		return 0, err
	}
	return g.FeePercent, nil
}

// write performs the common checks of a state-changing call and records it.
// apply runs under the lock.
func (g *Gateway) write(method string, poolID uint64, value *big.Int, args []interface{}, apply func() error) (*domain.Receipt, error) {
	if g.Account == (common.Address{}) {
		return nil, &contract.NotConnectedError{Reason: contract.ErrNotConnected, Detail: method}
	}
	if err := g.check(method, g.Account); err != nil {
		return nil, &contract.TransactionError{Method: method, Reason: err.Error(), Err: err}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if apply != nil {
		if err := apply(); err != nil {
			return nil, &contract.TransactionError{Method: method, Reason: err.Error(), Err: err}
		}
	}

	g.txCount++
	g.sent = append(g.sent, SentCall{Method: method, PoolID: poolID, Value: value, Args: args})
	return &domain.Receipt{
		TxHash:      fmt.Sprintf("0x%064x", g.txCount),
		BlockNumber: g.txCount,
		Status:      1,
	}, nil
}

func (g *Gateway) pool(poolID uint64) (*contract.RawPool, error) {
	p, ok := g.Pools[poolID]
	if !ok {
		return nil, ErrPoolNotFound
	}
	return p, nil
}

func (g *Gateway) JoinPool(_ context.Context, poolID uint64, entranceFee *big.Int) (*domain.Receipt, error) {
	return g.write("joinPool", poolID, entranceFee, nil, func() error {
		p, err := g.pool(poolID)
		if err != nil {
			return err
		}
		if entranceFee == nil || entranceFee.Cmp(orZero(p.PoolEntranceFee)) != 0 {
			return errors.New("incorrect entrance fee")
		}
		ap := g.Players[poolID]
		if contains(ap.ActivePlayers, g.Account) || contains(ap.EliminatedPlayers, g.Account) {
			return errors.New("already joined")
		}
		n := len(ap.ActivePlayers)
		ap.ActivePlayers = append(ap.ActivePlayers, g.Account)
		ap.Statuses = insertAt(ap.Statuses, n, true)
		ap.JoinTimes = insertAt(ap.JoinTimes, n, big.NewInt(g.Now().Unix()))
		if p.TotalEntranceFees == nil {
			p.TotalEntranceFees = new(big.Int)
		}
		p.TotalEntranceFees = new(big.Int).Add(p.TotalEntranceFees, entranceFee)
		delete(g.Counts, poolID)
		return nil
	})
}

func (g *Gateway) VoteForCandidates(_ context.Context, poolID uint64, candidates []common.Address) (*domain.Receipt, error) {
	return g.write("voteForCandidates", poolID, nil, []interface{}{candidates}, func() error {
		k := key{poolID, g.Account}
		if uint64(len(candidates)) > g.Remaining[k] {
			return errors.New("not enough votes")
		}
		for _, c := range candidates {
			if c == g.Account {
				return errors.New("cannot vote for yourself")
			}
		}
		g.Remaining[k] -= uint64(len(candidates))
		uv := g.VotesCast[k]
		if uv == nil {
			uv = &contract.UserVotes{TotalVotesCast: new(big.Int)}
			g.VotesCast[k] = uv
		}
		for _, c := range candidates {
			g.Votes[key{poolID, c}]++
			uv.VotedFor = append(uv.VotedFor, c)
		}
		uv.TotalVotesCast = big.NewInt(int64(len(uv.VotedFor)))
		return nil
	})
}

func (g *Gateway) PlaceBet(_ context.Context, poolID uint64, target common.Address, betType domain.BetType, amount *big.Int) (*domain.Receipt, error) {
	return g.write("placeBet", poolID, amount, []interface{}{target, betType}, func() error {
		if _, err := g.pool(poolID); err != nil {
			return err
		}
		g.addBetLocked(poolID, g.Account, target, amount, betType, false, false)
		return nil
	})
}

func (g *Gateway) PurchaseVotingTicket(_ context.Context, poolID uint64, ticketPrice *big.Int) (*domain.Receipt, error) {
	return g.write("purchaseVotingTicket", poolID, ticketPrice, nil, func() error {
		p, err := g.pool(poolID)
		if err != nil {
			return err
		}
		if ticketPrice == nil || ticketPrice.Cmp(orZero(p.PoolTicketPrice)) != 0 {
			return errors.New("incorrect ticket price")
		}
		k := key{poolID, g.Account}
		g.Additional[k] += domain.VotesPerTicket
		g.Remaining[k] += domain.VotesPerTicket
		g.TotalRights[k] += domain.VotesPerTicket
		return nil
	})
}

func (g *Gateway) ClaimPoolReward(_ context.Context, poolID uint64) (*domain.Receipt, error) {
	return g.write("claimPoolReward", poolID, nil, nil, func() error {
		k := key{poolID, g.Account}
		if g.Claimed[k] {
			return errors.New("reward already claimed")
		}
		g.Claimed[k] = true
		return nil
	})
}

func (g *Gateway) ClaimBetReward(_ context.Context, poolID uint64) (*domain.Receipt, error) {
	return g.write("claimBetReward", poolID, nil, nil, func() error {
		b := g.Bets[key{poolID, g.Account}]
		if b == nil {
			return errors.New("no bets")
		}
		for i := range b.IsClaimed {
			if b.IsCorrect[i] {
				b.IsClaimed[i] = true
			}
		}
		return nil
	})
}

func (g *Gateway) CreatePool(_ context.Context) (*domain.Receipt, error) {
	return g.write("createPool", 0, nil, nil, func() error {
		g.createLocked(contract.PoolParams{})
		return nil
	})
}

func (g *Gateway) CreateCustomPool(_ context.Context, p contract.PoolParams) (*domain.Receipt, error) {
	return g.write("createCustomPool", 0, nil, []interface{}{p}, func() error {
		g.createLocked(p)
		return nil
	})
}

func (g *Gateway) createLocked(p contract.PoolParams) {
	poolID := g.NextID
	g.NextID++
	g.Pools[poolID] = &contract.RawPool{
		IsActive:                true,
		StartTime:               big.NewInt(g.Now().Unix()),
		PoolEntranceFee:         orZero(p.EntranceFee),
		PoolTicketPrice:         orZero(p.TicketPrice),
		PoolMinBetAmount:        orZero(p.MinBetAmount),
		PoolMaxBetAmount:        orZero(p.MaxBetAmount),
		PoolEliminationInterval: new(big.Int).SetUint64(p.EliminationInterval),
		CandidatesToSelect:      new(big.Int).SetUint64(p.CandidatesToSelect),
	}
	g.States[poolID] = string(domain.PhaseRegistrationVoting)
	g.Players[poolID] = &contract.AllPlayers{}
}

func (g *Gateway) setState(method string, poolID uint64, args []interface{}, mutate func(p *contract.RawPool)) (*domain.Receipt, error) {
	return g.write(method, poolID, nil, args, func() error {
		p, err := g.pool(poolID)
		if err != nil {
			return err
		}
		mutate(p)
		return nil
	})
}

func (g *Gateway) StartBettingPeriod(_ context.Context, poolID uint64, durationSeconds uint64) (*domain.Receipt, error) {
	return g.setState("startBettingPeriod", poolID, []interface{}{durationSeconds}, func(p *contract.RawPool) {
		p.State = 1
		p.BettingEndTime = big.NewInt(g.Now().Unix() + int64(durationSeconds))
		g.States[poolID] = string(domain.PhaseBetting)
	})
}

func (g *Gateway) EndBettingPeriod(_ context.Context, poolID uint64) (*domain.Receipt, error) {
	return g.setState("endBettingPeriod", poolID, nil, func(p *contract.RawPool) {
		p.State = 2
		g.States[poolID] = string(domain.PhaseElimination)
	})
}

func (g *Gateway) EndRegistrationAndSelectCandidates(_ context.Context, poolID uint64) (*domain.Receipt, error) {
	return g.setState("endRegistrationAndSelectCandidates", poolID, nil, func(p *contract.RawPool) {
		p.State = 1
		g.States[poolID] = string(domain.PhaseBetting)
	})
}

func (g *Gateway) CompleteEliminationRandomly(_ context.Context, poolID uint64) (*domain.Receipt, error) {
	return g.setState("completeEliminationRandomly", poolID, nil, func(p *contract.RawPool) {
		p.State = 3
		p.IsCompleted = true
		g.States[poolID] = string(domain.PhaseCompleted)
	})
}

func (g *Gateway) FinalizePool(_ context.Context, poolID uint64) (*domain.Receipt, error) {
	return g.setState("finalizePool", poolID, nil, func(p *contract.RawPool) {
		p.IsActive = false
	})
}

func (g *Gateway) PausePool(_ context.Context, poolID uint64) (*domain.Receipt, error) {
	return g.setState("pausePool", poolID, nil, func(p *contract.RawPool) { p.IsPaused = true })
}

func (g *Gateway) ResumePool(_ context.Context, poolID uint64) (*domain.Receipt, error) {
	return g.setState("resumePool", poolID, nil, func(p *contract.RawPool) { p.IsPaused = false })
}

func (g *Gateway) EmergencyCompletePool(_ context.Context, poolID uint64) (*domain.Receipt, error) {
	return g.setState("emergencyCompletePool", poolID, nil, func(p *contract.RawPool) {
		p.State = 3
		p.IsCompleted = true
		g.States[poolID] = string(domain.PhaseCompleted)
	})
}

func (g *Gateway) UpdatePoolParameters(_ context.Context, poolID uint64, pp contract.PoolParams) (*domain.Receipt, error) {
	return g.setState("updatePoolParameters", poolID, []interface{}{pp}, func(p *contract.RawPool) {
		p.PoolEntranceFee = orZero(pp.EntranceFee)
		p.PoolTicketPrice = orZero(pp.TicketPrice)
		p.PoolMinBetAmount = orZero(pp.MinBetAmount)
		p.PoolMaxBetAmount = orZero(pp.MaxBetAmount)
		p.PoolEliminationInterval = new(big.Int).SetUint64(pp.EliminationInterval)
		p.CandidatesToSelect = new(big.Int).SetUint64(pp.CandidatesToSelect)
	})
}

func (g *Gateway) UpdateParameters(_ context.Context, p contract.GlobalParams) (*domain.Receipt, error) {
	return g.write("updateParameters", 0, nil, []interface{}{p}, nil)
}

func (g *Gateway) WithdrawPlatformFees(_ context.Context, recipient common.Address) (*domain.Receipt, error) {
	return g.write("withdrawPlatformFees", 0, nil, []interface{}{recipient}, func() error {
		g.Fees = new(big.Int)
		return nil
	})
}

func (g *Gateway) WithdrawPlatformFeesToOwner(_ context.Context) (*domain.Receipt, error) {
	return g.write("withdrawPlatformFeesToOwner", 0, nil, nil, func() error {
		g.Fees = new(big.Int)
		return nil
	})
}

func contains(list []common.Address, a common.Address) bool {
	for _, x := range list {
		if x == a {
			return true
		}
	}
	return false
}

func insertAt[T any](s []T, i int, v T) []T {
	if i >= len(s) {
		return append(s, v)
	}
	s = append(s, v)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
