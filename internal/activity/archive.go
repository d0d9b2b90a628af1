package activity

import (
	"context"

	"go.uber.org/zap"

	"survive-arena/internal/domain"
)

// archiveIndex holds block timestamps of archived logs of one pool, keyed
// the way the feed looks them up. Zero means not archived.
type archiveIndex struct {
	champion   int64
	eliminated map[string]int64
	bets       map[string][]int64 // bettor -> timestamps in log order
	tickets    map[string]int64   // latest purchase
	votes      map[string]int64   // "voter|candidate"
}

func (a *archiveIndex) bet(bettor string, index int) int64 {
	list := a.bets[bettor]
	if index < len(list) {
		return list[index]
	}
	return 0
}

func newArchiveIndex() *archiveIndex {
	return &archiveIndex{
		eliminated: make(map[string]int64),
		bets:       make(map[string][]int64),
		tickets:    make(map[string]int64),
		votes:      make(map[string]int64),
	}
}

// loadArchive indexes the archived logs of a pool. A missing or failing
// archive yields an empty index.
func (r *Reconstructor) loadArchive(ctx context.Context, poolID uint64) *archiveIndex {
	idx := newArchiveIndex()
	if r.archive == nil {
		return idx
	}
	events, err := r.archive.GetByPool(ctx, poolID)
	if err != nil {
		r.logger.Warn("ledger archive unavailable", zap.Uint64("pool_id", poolID), zap.Error(err))
		return idx
	}

	for _, e := range events {
		if e.Timestamp <= 0 {
			continue
		}
		switch e.EventName {
		case domain.LedgerEventChampionDeclared:
			idx.champion = e.Timestamp
		case domain.LedgerEventPlayerEliminated, domain.LedgerEventCandidateEliminated:
			idx.eliminated[e.Actor] = e.Timestamp
		case domain.LedgerEventBetPlaced:
			idx.bets[e.Actor] = append(idx.bets[e.Actor], e.Timestamp)
		case domain.LedgerEventVotingTicketPurchased:
			idx.tickets[e.Actor] = e.Timestamp
		case domain.LedgerEventVoteCast:
			idx.votes[e.Actor+"|"+e.Target] = e.Timestamp
		}
	}
	return idx
}
