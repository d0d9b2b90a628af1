package domain

// LedgerEvent is a decoded contract log.
// Corresponds to ledger_events table in ClickHouse.
type LedgerEvent struct {
	ID          string // deterministic hash of (tx_hash, log_index)
	BlockNumber uint64
	BlockHash   string
	TxHash      string
	LogIndex    uint
	EventName   string // ABI event name, e.g. "VoteCast"
	PoolID      uint64
	Actor       string // player, voter, bettor or buyer; lowercase
	Target      string // candidate or bet target; lowercase
	Amount      string // native units, empty when the event carries none
	Value       uint64 // bet type, additional votes, new state
	Timestamp   int64  // block timestamp, epoch ms; 0 when unknown
}

// Ledger event names emitted by the contract that feed the activity archive.
const (
	LedgerEventPoolCreated           = "PoolCreated"
	LedgerEventPlayerJoined          = "PlayerJoined"
	LedgerEventPlayerEliminated      = "PlayerEliminated"
	LedgerEventCandidateEliminated   = "CandidateEliminated"
	LedgerEventChampionDeclared      = "ChampionDeclared"
	LedgerEventBetPlaced             = "BetPlaced"
	LedgerEventVoteCast              = "VoteCast"
	LedgerEventVotingTicketPurchased = "VotingTicketPurchased"
	LedgerEventPoolStateChanged      = "PoolStateChanged"
	LedgerEventPoolCompleted         = "PoolCompleted"
	LedgerEventRewardClaimed         = "RewardClaimed"
)
