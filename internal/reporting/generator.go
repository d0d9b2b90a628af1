package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"survive-arena/internal/domain"
	"survive-arena/internal/ingestion"
	"survive-arena/internal/pool"
	"survive-arena/internal/storage"
)

// PoolSource provides current pool views. *pool.Builder satisfies it.
type PoolSource interface {
	ListPools(ctx context.Context, filter pool.Filter) ([]domain.PoolSnapshot, error)
	BuildSnapshot(ctx context.Context, poolID uint64) (*domain.PoolSnapshot, error)
	BuildRoster(ctx context.Context, poolID uint64, connected string) ([]domain.PlayerRecord, error)
}

// Generator produces pool reports.
type Generator struct {
	pools   PoolSource
	archive storage.LedgerEventStore // optional
	now     func() time.Time         // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. archive may be nil.
func NewGenerator(pools PoolSource, archive storage.LedgerEventStore) *Generator {
	return &Generator{
		pools:   pools,
		archive: archive,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// GeneratePoolReport builds the report of one pool.
func (g *Generator) GeneratePoolReport(ctx context.Context, poolID uint64) (*PoolReport, error) {
	snap, err := g.pools.BuildSnapshot(ctx, poolID)
	if err != nil {
		return nil, fmt.Errorf("snapshot of pool %d: %w", poolID, err)
	}
	roster, err := g.pools.BuildRoster(ctx, poolID, "")
	if err != nil {
		return nil, fmt.Errorf("roster of pool %d: %w", poolID, err)
	}

	r := &PoolReport{
		GeneratedAt: g.now(),
		Pool:        *snap,
		Ranked:      pool.RankTopCandidates(roster, len(roster)),
	}
	for _, p := range roster {
		r.TotalVotes += p.Votes
		if !p.IsActive {
			r.Eliminated = append(r.Eliminated, p)
		}
	}

	if g.archive != nil {
		events, err := g.archive.GetByPool(ctx, poolID)
		if err != nil {
			return nil, fmt.Errorf("archive of pool %d: %w", poolID, err)
		}
		summarizeArchive(r, events)
	}
	return r, nil
}

// GenerateAll builds reports for every pool matching filter, in pool order.
func (g *Generator) GenerateAll(ctx context.Context, filter pool.Filter) ([]*PoolReport, error) {
	pools, err := g.pools.ListPools(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]*PoolReport, 0, len(pools))
	for _, p := range pools {
		r, err := g.GeneratePoolReport(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func summarizeArchive(r *PoolReport, events []*domain.LedgerEvent) {
	if len(events) == 0 {
		return
	}
	if err := ingestion.ValidateOrdering(events); err != nil {
		r.IntegrityErrors = append(r.IntegrityErrors, err.Error())
	}

	counts := make(map[string]int)
	type betAgg struct {
		count int
		total decimal.Decimal
	}
	bets := make(map[domain.BetType]*betAgg)

	r.FirstBlock = events[0].BlockNumber
	for _, e := range events {
		counts[e.EventName]++
		r.FirstBlock = min(r.FirstBlock, e.BlockNumber)
		r.LastBlock = max(r.LastBlock, e.BlockNumber)

		if e.EventName != domain.LedgerEventBetPlaced {
			continue
		}
		bt, err := domain.ParseBetType(e.Value)
		if err != nil {
			r.IntegrityErrors = append(r.IntegrityErrors, fmt.Sprintf("event %s: %v", e.ID, err))
			continue
		}
		amount, err := decimal.NewFromString(e.Amount)
		if err != nil {
			r.IntegrityErrors = append(r.IntegrityErrors,
				fmt.Sprintf("event %s: invalid amount %q", e.ID, e.Amount))
			amount = decimal.Zero
		}
		agg, ok := bets[bt]
		if !ok {
			agg = &betAgg{total: decimal.Zero}
			bets[bt] = agg
		}
		agg.count++
		agg.total = agg.total.Add(amount)
	}

	for name, n := range counts {
		r.Events = append(r.Events, EventCountRow{EventName: name, Count: n})
	}
	sort.Slice(r.Events, func(i, j int) bool { return r.Events[i].EventName < r.Events[j].EventName })

	for bt, agg := range bets {
		r.Bets = append(r.Bets, BetSummaryRow{BetType: bt, Count: agg.count, TotalAmount: agg.total.String()})
	}
	sort.Slice(r.Bets, func(i, j int) bool { return r.Bets[i].BetType < r.Bets[j].BetType })
}
