package reporting

import (
	"time"

	"survive-arena/internal/domain"
)

// PoolReport is the rendered state of one pool plus its archived history.
type PoolReport struct {
	GeneratedAt time.Time
	Pool        domain.PoolSnapshot

	// Roster
	Ranked     []domain.RankedPlayer // active players by votes
	Eliminated []domain.PlayerRecord // in roster order
	TotalVotes int64

	// Archive summary; empty when no archive is configured.
	Events     []EventCountRow // sorted by event name
	Bets       []BetSummaryRow // sorted by bet type
	FirstBlock uint64
	LastBlock  uint64

	// Integrity errors found while reading the archive.
	IntegrityErrors []string
}

// EventCountRow counts archived events of one name.
type EventCountRow struct {
	EventName string
	Count     int
}

// BetSummaryRow aggregates archived bets of one type.
type BetSummaryRow struct {
	BetType     domain.BetType
	Count       int
	TotalAmount string // native units
}
