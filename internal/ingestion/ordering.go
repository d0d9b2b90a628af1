package ingestion

import (
	"errors"
	"sort"

	"github.com/ethereum/go-ethereum/core/types"

	"survive-arena/internal/domain"
)

// ErrInvalidOrdering is returned when events are not in chain order.
var ErrInvalidOrdering = errors.New("events are not in deterministic order")

// SortLogs orders logs by (block ASC, log index ASC).
func SortLogs(logs []types.Log) {
	sort.SliceStable(logs, func(i, j int) bool {
		return compare(logs[i].BlockNumber, logs[i].Index, logs[j].BlockNumber, logs[j].Index) < 0
	})
}

// SortEvents orders ledger events by (block ASC, log index ASC).
func SortEvents(events []*domain.LedgerEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return compareEvents(events[i], events[j]) < 0
	})
}

// ValidateOrdering checks that events are strictly increasing in chain order.
func ValidateOrdering(events []*domain.LedgerEvent) error {
	for i := 1; i < len(events); i++ {
		if compareEvents(events[i-1], events[i]) >= 0 {
			return ErrInvalidOrdering
		}
	}
	return nil
}

func compareEvents(a, b *domain.LedgerEvent) int {
	return compare(a.BlockNumber, a.LogIndex, b.BlockNumber, b.LogIndex)
}

// compare returns negative, zero or positive as (blockA, indexA) is before,
// equal to or after (blockB, indexB).
func compare(blockA uint64, indexA uint, blockB uint64, indexB uint) int {
	if blockA != blockB {
		if blockA < blockB {
			return -1
		}
		return 1
	}
	if indexA != indexB {
		if indexA < indexB {
			return -1
		}
		return 1
	}
	return 0
}
