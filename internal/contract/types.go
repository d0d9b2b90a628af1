package contract

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// RawPool mirrors the pools(uint256) accessor. Field names follow the ABI
// output names so it can be unpacked directly.
type RawPool struct {
	IsActive                bool
	IsCompleted             bool
	IsPaused                bool
	State                   uint8
	StartTime               *big.Int // seconds
	EliminationStartTime    *big.Int
	BettingEndTime          *big.Int
	TotalEntranceFees       *big.Int // wei
	TotalBetFees            *big.Int
	TotalTicketFees         *big.Int
	Champion                common.Address
	PoolEntranceFee         *big.Int
	PoolTicketPrice         *big.Int
	PoolMinBetAmount        *big.Int
	PoolMaxBetAmount        *big.Int
	PoolEliminationInterval *big.Int
	IsEliminationActive     bool
	CandidatesToSelect      *big.Int
}

// PlayerCounts mirrors getPlayerCounts.
type PlayerCounts struct {
	ActivePlayers     *big.Int
	EliminatedPlayers *big.Int
	TotalPlayers      *big.Int
}

// AllPlayers mirrors getAllPlayers. JoinTimes is indexed over active players
// first, then eliminated players.
type AllPlayers struct {
	ActivePlayers     []common.Address
	EliminatedPlayers []common.Address
	Statuses          []bool
	JoinTimes         []*big.Int // seconds
}

// UserBets mirrors getUserBets: parallel arrays, one entry per bet.
type UserBets struct {
	TargetPlayers []common.Address
	Amounts       []*big.Int
	BetTypes      []uint8
	IsCorrect     []bool
	IsClaimed     []bool
}

// Len returns the number of bets.
func (b *UserBets) Len() int {
	if b == nil {
		return 0
	}
	return len(b.TargetPlayers)
}

// UserVotes mirrors getUserVotes.
type UserVotes struct {
	VotedFor       []common.Address
	TotalVotesCast *big.Int
}

// TopTen mirrors getTopTenPlayersWithRanks.
type TopTen struct {
	Players []common.Address
	Ranks   []uint8
}

// PoolParams are the per-pool parameters of createCustomPool and
// updatePoolParameters. Amounts are wei.
type PoolParams struct {
	EntranceFee         *big.Int
	TicketPrice         *big.Int
	MinBetAmount        *big.Int
	MaxBetAmount        *big.Int
	EliminationInterval uint64 // seconds
	CandidatesToSelect  uint64
}

// GlobalParams are the defaults applied to new pools by updateParameters.
type GlobalParams struct {
	EntranceFee         *big.Int
	TicketPrice         *big.Int
	MinBetAmount        *big.Int
	MaxBetAmount        *big.Int
	EliminationInterval uint64
}
