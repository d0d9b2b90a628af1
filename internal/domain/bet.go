package domain

import "fmt"

// BetType is the contract's bet category.
type BetType uint8

const (
	BetTypeChampion BetType = 0
	BetTypeTop3     BetType = 1
	BetTypeTop5     BetType = 2
	BetTypeTop10    BetType = 3
)

// IsValid checks if the bet type is known.
func (t BetType) IsValid() bool {
	return t <= BetTypeTop10
}

// Label returns the human-readable label used in activity descriptions.
func (t BetType) Label() string {
	switch t {
	case BetTypeChampion:
		return "Champion"
	case BetTypeTop3:
		return "Top 3"
	case BetTypeTop5:
		return "Top 5"
	case BetTypeTop10:
		return "Top 10"
	default:
		return "Unknown"
	}
}

// Multiplier returns the reward multiplier for a won bet of this type.
// Unknown types return 0.
func (t BetType) Multiplier() int64 {
	switch t {
	case BetTypeChampion:
		return 10
	case BetTypeTop3:
		return 5
	case BetTypeTop5:
		return 3
	case BetTypeTop10:
		return 2
	default:
		return 0
	}
}

// ParseBetType converts a raw numeric value into a BetType.
func ParseBetType(v uint64) (BetType, error) {
	t := BetType(v)
	if v > uint64(BetTypeTop10) {
		return 0, fmt.Errorf("unknown bet type %d", v)
	}
	return t, nil
}

// BetOutcome is tri-state: unknown until the pool completes.
type BetOutcome string

const (
	BetOutcomeUnknown BetOutcome = "unknown"
	BetOutcomeWon     BetOutcome = "won"
	BetOutcomeLost    BetOutcome = "lost"
)

// BetRecord is one bet placed by a bettor in a pool.
type BetRecord struct {
	PoolID    uint64     `json:"poolId"`
	Target    string     `json:"target"`
	Amount    string     `json:"amount"` // native units
	BetType   BetType    `json:"betType"`
	Outcome   BetOutcome `json:"outcome"`
	IsClaimed bool       `json:"isClaimed"`
}

// IsWon reports whether the bet is known to have won.
func (b BetRecord) IsWon() bool {
	return b.Outcome == BetOutcomeWon
}

// TicketRecord holds additional votes bought through voting tickets.
type TicketRecord struct {
	PoolID          uint64 `json:"poolId"`
	AdditionalVotes int64  `json:"additionalVotes"` // 3 per ticket
}

// VotesPerTicket is the number of additional votes granted by one voting ticket.
const VotesPerTicket = 3
