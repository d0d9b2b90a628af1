package domain

// PoolSnapshot is a denormalized view of a single pool.
// Monetary fields are decimal strings in native units (1e18 wei = 1).
// IsActive, IsPaused and IsCompleted are raw contract flags and are independent.
type PoolSnapshot struct {
	ID                  uint64 `json:"id"`
	State               Phase  `json:"state"`
	StateCode           uint8  `json:"stateCode"`
	EntranceFee         string `json:"entranceFee"`
	TicketPrice         string `json:"ticketPrice"`
	MinBetAmount        string `json:"minBetAmount"`
	MaxBetAmount        string `json:"maxBetAmount"`
	ActivePlayers       int    `json:"activePlayers"`
	EliminatedPlayers   int    `json:"eliminatedPlayers"`
	TotalPlayers        int    `json:"totalPlayers"`
	IsActive            bool   `json:"isActive"`
	IsPaused            bool   `json:"isPaused"`
	IsCompleted         bool   `json:"isCompleted"`
	IsEliminationActive bool   `json:"isEliminationActive"`
	Champion            string `json:"champion,omitempty"` // empty when unset
	TotalEntranceFees   string `json:"totalEntranceFees"`
	TotalBetFees        string `json:"totalBetFees"`
	TotalTicketFees     string `json:"totalTicketFees"`
	CandidatesToSelect  int    `json:"candidatesToSelect"`
	StartTime           int64  `json:"startTime"`      // epoch ms
	BettingEndTime      int64  `json:"bettingEndTime"` // epoch ms, 0 when not started
	EliminationInterval int64  `json:"eliminationInterval"`
}

// PlayerCounts holds the contract's aggregate player counters for a pool.
type PlayerCounts struct {
	Active     int `json:"activePlayers"`
	Eliminated int `json:"eliminatedPlayers"`
	Total      int `json:"totalPlayers"`
}

// DefaultCandidatesToSelect is used for ranking when a pool reports zero.
const DefaultCandidatesToSelect = 10
