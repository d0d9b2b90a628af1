package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Reader is the read-only contract surface, one method per view function.
type Reader interface {
	NextPoolID(ctx context.Context) (uint64, error)
	Pool(ctx context.Context, poolID uint64) (*RawPool, error)
	PoolStateAsString(ctx context.Context, poolID uint64) (string, error)
	PoolState(ctx context.Context, poolID uint64) (uint8, error)
	PlayerCounts(ctx context.Context, poolID uint64) (*PlayerCounts, error)
	AllPlayers(ctx context.Context, poolID uint64) (*AllPlayers, error)
	EliminatedPlayers(ctx context.Context, poolID uint64) ([]common.Address, error)
	ActivePlayerCount(ctx context.Context, poolID uint64) (uint64, error)
	CandidateVotes(ctx context.Context, poolID uint64, candidate common.Address) (uint64, error)
	AdditionalVotes(ctx context.Context, poolID uint64, account common.Address) (uint64, error)
	UserBets(ctx context.Context, poolID uint64, bettor common.Address) (*UserBets, error)
	UserBetCount(ctx context.Context, poolID uint64, bettor common.Address) (uint64, error)
	UserVotes(ctx context.Context, poolID uint64, voter common.Address) (*UserVotes, error)
	RemainingVotes(ctx context.Context, poolID uint64, account common.Address) (uint64, error)
	TotalVotingRights(ctx context.Context, poolID uint64, account common.Address) (uint64, error)
	TopTenPlayers(ctx context.Context, poolID uint64) ([]common.Address, error)
	TopTenPlayersWithRanks(ctx context.Context, poolID uint64) (*TopTen, error)
	CalculatePoolReward(ctx context.Context, poolID uint64, player common.Address) (*big.Int, error)
	CalculateBetReward(ctx context.Context, poolID uint64, bettor common.Address) (*big.Int, error)
	HasClaimedReward(ctx context.Context, poolID uint64, account common.Address) (bool, error)
	HasTicket(ctx context.Context, poolID uint64, account common.Address) (bool, error)
	HasVotedForCandidate(ctx context.Context, poolID uint64, voter, candidate common.Address) (bool, error)
	IsBetWinner(ctx context.Context, poolID uint64, bettor common.Address) (bool, error)
	IsPlayerInPool(ctx context.Context, poolID uint64, player common.Address) (bool, error)
	IsPlayerEliminated(ctx context.Context, poolID uint64, player common.Address) (bool, error)
	Owner(ctx context.Context) (common.Address, error)
	PlatformFees(ctx context.Context) (*big.Int, error)
	PlatformFeePercentage(ctx context.Context) (uint64, error)
}

func bigID(poolID uint64) *big.Int {
	return new(big.Int).SetUint64(poolID)
}

// single unpacks the only output of a method into T.
func single[T any](values []interface{}, method string) (T, error) {
	var zero T
	if len(values) != 1 {
		return zero, fmt.Errorf("unpack %s: expected 1 output, got %d", method, len(values))
	}
	converted, ok := abi.ConvertType(values[0], new(T)).(*T)
	if !ok {
		return zero, fmt.Errorf("unpack %s: unexpected type %T", method, values[0])
	}
	return *converted, nil
}

func (c *Client) readBig(ctx context.Context, method string, args ...interface{}) (*big.Int, error) {
	values, err := c.call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	return single[*big.Int](values, method)
}

func (c *Client) readUint(ctx context.Context, method string, args ...interface{}) (uint64, error) {
	v, err := c.readBig(ctx, method, args...)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("%s: value %s overflows uint64", method, v)
	}
	return v.Uint64(), nil
}

func (c *Client) readBool(ctx context.Context, method string, args ...interface{}) (bool, error) {
	values, err := c.call(ctx, method, args...)
	if err != nil {
		return false, err
	}
	return single[bool](values, method)
}

func (c *Client) readAddresses(ctx context.Context, method string, args ...interface{}) ([]common.Address, error) {
	values, err := c.call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	return single[[]common.Address](values, method)
}

func (c *Client) NextPoolID(ctx context.Context) (uint64, error) {
	return c.readUint(ctx, "nextPoolId")
}

func (c *Client) Pool(ctx context.Context, poolID uint64) (*RawPool, error) {
	var out RawPool
	if err := c.callInto(ctx, &out, "pools", bigID(poolID)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PoolStateAsString(ctx context.Context, poolID uint64) (string, error) {
	values, err := c.call(ctx, "getPoolStateAsString", bigID(poolID))
	if err != nil {
		return "", err
	}
	return single[string](values, "getPoolStateAsString")
}

func (c *Client) PoolState(ctx context.Context, poolID uint64) (uint8, error) {
	values, err := c.call(ctx, "getPoolState", bigID(poolID))
	if err != nil {
		return 0, err
	}
	return single[uint8](values, "getPoolState")
}

func (c *Client) PlayerCounts(ctx context.Context, poolID uint64) (*PlayerCounts, error) {
	var out PlayerCounts
	if err := c.callInto(ctx, &out, "getPlayerCounts", bigID(poolID)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AllPlayers(ctx context.Context, poolID uint64) (*AllPlayers, error) {
	var out AllPlayers
	if err := c.callInto(ctx, &out, "getAllPlayers", bigID(poolID)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) EliminatedPlayers(ctx context.Context, poolID uint64) ([]common.Address, error) {
	return c.readAddresses(ctx, "getEliminatedPlayers", bigID(poolID))
}

func (c *Client) ActivePlayerCount(ctx context.Context, poolID uint64) (uint64, error) {
	return c.readUint(ctx, "getActivePlayerCount", bigID(poolID))
}

func (c *Client) CandidateVotes(ctx context.Context, poolID uint64, candidate common.Address) (uint64, error) {
	return c.readUint(ctx, "candidateVotes", bigID(poolID), candidate)
}

func (c *Client) AdditionalVotes(ctx context.Context, poolID uint64, account common.Address) (uint64, error) {
	return c.readUint(ctx, "additionalVotes", bigID(poolID), account)
}

func (c *Client) UserBets(ctx context.Context, poolID uint64, bettor common.Address) (*UserBets, error) {
	var out UserBets
	if err := c.callInto(ctx, &out, "getUserBets", bigID(poolID), bettor); err != nil {
		return nil, err
	}
	n := len(out.TargetPlayers)
	if len(out.Amounts) != n || len(out.BetTypes) != n || len(out.IsCorrect) != n || len(out.IsClaimed) != n {
		return nil, fmt.Errorf("getUserBets: mismatched array lengths")
	}
	return &out, nil
}

func (c *Client) UserBetCount(ctx context.Context, poolID uint64, bettor common.Address) (uint64, error) {
	return c.readUint(ctx, "getUserBetCount", bigID(poolID), bettor)
}

func (c *Client) UserVotes(ctx context.Context, poolID uint64, voter common.Address) (*UserVotes, error) {
	var out UserVotes
	if err := c.callInto(ctx, &out, "getUserVotes", bigID(poolID), voter); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemainingVotes(ctx context.Context, poolID uint64, account common.Address) (uint64, error) {
	return c.readUint(ctx, "getRemainingVotes", bigID(poolID), account)
}

func (c *Client) TotalVotingRights(ctx context.Context, poolID uint64, account common.Address) (uint64, error) {
	return c.readUint(ctx, "getTotalVotingRights", bigID(poolID), account)
}

func (c *Client) TopTenPlayers(ctx context.Context, poolID uint64) ([]common.Address, error) {
	return c.readAddresses(ctx, "getTopTenPlayers", bigID(poolID))
}

func (c *Client) TopTenPlayersWithRanks(ctx context.Context, poolID uint64) (*TopTen, error) {
	var out TopTen
	if err := c.callInto(ctx, &out, "getTopTenPlayersWithRanks", bigID(poolID)); err != nil {
		return nil, err
	}
	if len(out.Ranks) != len(out.Players) {
		return nil, fmt.Errorf("getTopTenPlayersWithRanks: mismatched array lengths")
	}
	return &out, nil
}

func (c *Client) CalculatePoolReward(ctx context.Context, poolID uint64, player common.Address) (*big.Int, error) {
	return c.readBig(ctx, "calculatePoolReward", bigID(poolID), player)
}

func (c *Client) CalculateBetReward(ctx context.Context, poolID uint64, bettor common.Address) (*big.Int, error) {
	return c.readBig(ctx, "calculateBetReward", bigID(poolID), bettor)
}

func (c *Client) HasClaimedReward(ctx context.Context, poolID uint64, account common.Address) (bool, error) {
	return c.readBool(ctx, "hasClaimedReward", bigID(poolID), account)
}

func (c *Client) HasTicket(ctx context.Context, poolID uint64, account common.Address) (bool, error) {
	return c.readBool(ctx, "hasTicket", bigID(poolID), account)
}

func (c *Client) HasVotedForCandidate(ctx context.Context, poolID uint64, voter, candidate common.Address) (bool, error) {
	return c.readBool(ctx, "hasVotedForCandidate", bigID(poolID), voter, candidate)
}

func (c *Client) IsBetWinner(ctx context.Context, poolID uint64, bettor common.Address) (bool, error) {
	return c.readBool(ctx, "isBetWinner", bigID(poolID), bettor)
}

func (c *Client) IsPlayerInPool(ctx context.Context, poolID uint64, player common.Address) (bool, error) {
	return c.readBool(ctx, "isPlayerInPool", bigID(poolID), player)
}

func (c *Client) IsPlayerEliminated(ctx context.Context, poolID uint64, player common.Address) (bool, error) {
	return c.readBool(ctx, "isPlayerEliminated", bigID(poolID), player)
}

func (c *Client) Owner(ctx context.Context) (common.Address, error) {
	values, err := c.call(ctx, "owner")
	if err != nil {
		return common.Address{}, err
	}
	return single[common.Address](values, "owner")
}

func (c *Client) PlatformFees(ctx context.Context) (*big.Int, error) {
	return c.readBig(ctx, "platformFees")
}

func (c *Client) PlatformFeePercentage(ctx context.Context) (uint64, error) {
	return c.readUint(ctx, "platformFeePercentage")
}
