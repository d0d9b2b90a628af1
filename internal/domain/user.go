package domain

// UserPool is a pool the connected account has joined.
type UserPool struct {
	PoolID      uint64 `json:"id"`
	Status      Phase  `json:"status"`
	IsActive    bool   `json:"isActive"` // not eliminated
	Reward      string `json:"reward"`   // native units, "0" until completed
	IsCompleted bool   `json:"isCompleted"`
	HasClaimed  bool   `json:"hasClaimed"`
}

// UserStats summarizes an account across all pools.
type UserStats struct {
	TotalEarnings string `json:"totalEarnings"` // unclaimed, 2 decimals
	PoolsJoined   int    `json:"poolsJoined"`
	BetsPlaced    int    `json:"betsPlaced"`
}

// Receipt is the confirmed result of a state-changing contract call.
type Receipt struct {
	TxHash      string `json:"txHash"`
	BlockNumber uint64 `json:"blockNumber"`
	GasUsed     uint64 `json:"gasUsed"`
	Status      uint64 `json:"status"` // 1 success, 0 reverted
}
