package pool

import (
	"context"
	"fmt"
	"sort"

	"survive-arena/internal/domain"
)

// RankTopCandidates returns the n active players with the most votes.
// The sort is stable: ties keep roster order. n <= 0 uses
// DefaultCandidatesToSelect.
func RankTopCandidates(roster []domain.PlayerRecord, n int) []domain.RankedPlayer {
	if n <= 0 {
		n = domain.DefaultCandidatesToSelect
	}

	candidates := make([]domain.PlayerRecord, 0, len(roster))
	for _, r := range roster {
		if r.IsActive {
			candidates = append(candidates, r)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Votes > candidates[j].Votes
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	out := make([]domain.RankedPlayer, len(candidates))
	for i, c := range candidates {
		out[i] = domain.RankedPlayer{PlayerRecord: c, Rank: i + 1}
	}
	return out
}

// TopTenWithRanks reads the contract's own top-ten ranking. Entries carry
// the rank reported by the contract and, when found, the roster record.
func (b *Builder) TopTenWithRanks(ctx context.Context, poolID uint64, roster []domain.PlayerRecord) ([]domain.RankedPlayer, error) {
	top, err := b.gateway().TopTenPlayersWithRanks(ctx, poolID)
	if err != nil {
		return nil, fmt.Errorf("read top ten of pool %d: %w", poolID, err)
	}

	byAddr := make(map[string]domain.PlayerRecord, len(roster))
	for _, r := range roster {
		byAddr[r.Address] = r
	}

	out := make([]domain.RankedPlayer, 0, len(top.Players))
	for i, p := range top.Players {
		addr := domain.NormalizeAddress(p.Hex())
		if domain.IsZeroAddress(addr) {
			continue
		}
		rec, ok := byAddr[addr]
		if !ok {
			rec = domain.PlayerRecord{Address: addr}
		}
		rank := i + 1
		if i < len(top.Ranks) && top.Ranks[i] > 0 {
			rank = int(top.Ranks[i])
		}
		out = append(out, domain.RankedPlayer{PlayerRecord: rec, Rank: rank})
	}
	return out, nil
}
