package activity

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survive-arena/internal/contract"
	"survive-arena/internal/contract/stub"
	"survive-arena/internal/domain"
	"survive-arena/internal/storage/memory"
)

type gatewaySource struct{ gw contract.Gateway }

func (s gatewaySource) Gateway() contract.Gateway { return s.gw }

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	carol = common.HexToAddress("0x00000000000000000000000000000000000ca401")
)

const (
	startSec = 1_700_000_000
	startMs  = startSec * 1000
	dayMs    = 24 * 3600 * 1000
)

func lower(a common.Address) string { return domain.NormalizeAddress(a.Hex()) }

// newGateway builds a completed pool: alice (champion) and bob active,
// carol eliminated; bob and carol bet, bob voted twice, alice bought a
// voting ticket.
func newGateway(t *testing.T) *stub.Gateway {
	t.Helper()
	g := stub.NewGateway()
	price := big.NewInt(5e16)
	g.AddPool(1, &contract.RawPool{
		IsActive:        true,
		IsCompleted:     true,
		StartTime:       big.NewInt(startSec),
		Champion:        alice,
		PoolTicketPrice: price,
	}, string(domain.PhaseCompleted))
	g.SetPlayers(1, []common.Address{alice, bob}, []common.Address{carol},
		[]int64{startSec + 10, startSec + 20, startSec + 30})

	g.AddBet(1, bob, alice, big.NewInt(5e17), domain.BetTypeChampion, true, false)
	g.AddBet(1, carol, bob, big.NewInt(1e18), domain.BetTypeTop10, false, false)
	g.SetUserVotes(1, bob, []common.Address{carol, alice})

	g.Account = alice
	_, err := g.PurchaseVotingTicket(context.Background(), 1, price)
	require.NoError(t, err)
	g.Account = common.Address{}
	return g
}

func fixedClock() time.Time {
	return time.UnixMilli(startMs + 10*dayMs)
}

func halfway(n int64) int64 { return n / 2 }

func byID(events []domain.ActivityEvent) map[string]domain.ActivityEvent {
	m := make(map[string]domain.ActivityEvent, len(events))
	for _, e := range events {
		m[e.ID] = e
	}
	return m
}

func TestBuild_Events(t *testing.T) {
	g := newGateway(t)
	r := New(gatewaySource{g}, WithRandom(halfway), WithClock(fixedClock))

	events, err := r.Build(context.Background())
	require.NoError(t, err)
	m := byID(events)

	created := m["pool-created-1"]
	assert.Equal(t, domain.EventPoolCreated, created.Type)
	assert.Equal(t, "Pool #1 was created", created.Description)
	assert.Equal(t, int64(startMs), created.Timestamp)
	assert.Equal(t, domain.TimestampExact, created.TimestampKind)

	joined := m["player-joined-1-"+lower(bob)]
	assert.Equal(t, "Player 0x0000...0b0b joined Pool #1", joined.Description)
	assert.Equal(t, int64(startMs+20_000), joined.Timestamp)

	elim := m["player-eliminated-1-"+lower(carol)]
	assert.Equal(t, "Player 0x0000...a401 was eliminated from Pool #1", elim.Description)
	assert.Equal(t, int64(startMs+30_000+dayMs), elim.Timestamp)
	assert.Equal(t, domain.TimestampEstimated, elim.TimestampKind)

	champ := m["champion-declared-1"]
	assert.Equal(t, "0x0000...11ce declared champion for Pool #1", champ.Description)
	assert.Equal(t, int64(startMs+7*dayMs/2), champ.Timestamp)

	bet := m["bet-placed-1-"+lower(bob)+"-0"]
	assert.Equal(t, "0x0000...0b0b placed a 0.5 ETH bet (Champion) on 0x0000...11ce in Pool #1", bet.Description)
	assert.Equal(t, "Champion", bet.BetType)
	assert.Equal(t, "0.5", bet.Amount)
	assert.Equal(t, int64(startMs+5*dayMs), bet.Timestamp)

	ticket := m["voting-ticket-purchased-1-"+lower(alice)]
	assert.Equal(t, "0x0000...11ce purchased voting tickets for 1 additional votes in Pool #1", ticket.Description)

	v1 := m["vote-cast-1-"+lower(bob)+"-"+lower(carol)]
	v2 := m["vote-cast-1-"+lower(bob)+"-"+lower(alice)]
	assert.Equal(t, "0x0000...0b0b voted for 0x0000...a401 in Pool #1", v1.Description)
	assert.Equal(t, v1.Timestamp, v2.Timestamp)

	// created, champion, 2 joins, 1 elimination, 2 bets, 1 ticket, 2 votes
	assert.Len(t, events, 10)
	for i := 1; i < len(events); i++ {
		assert.GreaterOrEqual(t, events[i-1].Timestamp, events[i].Timestamp)
	}
}

func TestBuild_BetReadFailureDegrades(t *testing.T) {
	g := newGateway(t)
	g.FailFor("getUserBets", bob, errors.New("rpc down"))
	r := New(gatewaySource{g}, WithRandom(halfway), WithClock(fixedClock))

	events, err := r.Build(context.Background())
	require.NoError(t, err)
	m := byID(events)

	assert.Contains(t, m, "player-joined-1-"+lower(bob))
	assert.NotContains(t, m, "bet-placed-1-"+lower(bob)+"-0")
	assert.Contains(t, m, "vote-cast-1-"+lower(bob)+"-"+lower(alice))
	assert.Contains(t, m, "bet-placed-1-"+lower(carol)+"-0")
	assert.Contains(t, m, "player-joined-1-"+lower(alice))
}

func TestBuild_PlayerListFailureKeepsPoolEvents(t *testing.T) {
	g := newGateway(t)
	g.AddPool(2, &contract.RawPool{IsActive: true, StartTime: big.NewInt(startSec + 100)}, string(domain.PhaseRegistrationVoting))
	g.Fail("getAllPlayers", errors.New("boom"))
	r := New(gatewaySource{g}, WithRandom(halfway), WithClock(fixedClock))

	events, err := r.Build(context.Background())
	require.NoError(t, err)
	m := byID(events)
	assert.Contains(t, m, "pool-created-1")
	assert.Contains(t, m, "pool-created-2")
	assert.Contains(t, m, "champion-declared-1")
	assert.NotContains(t, m, "player-joined-1-"+lower(alice))
}

func TestBuild_OmitPolicy(t *testing.T) {
	g := newGateway(t)
	r := New(gatewaySource{g}, WithPolicy(ParsePolicy("omit")), WithClock(fixedClock))

	events, err := r.Build(context.Background())
	require.NoError(t, err)

	seenUnknown := false
	for _, e := range events {
		switch e.Type {
		case domain.EventPoolCreated, domain.EventPlayerJoined:
			assert.Equal(t, domain.TimestampExact, e.TimestampKind, e.ID)
			assert.False(t, seenUnknown, "known timestamps sort before unknown ones")
		default:
			assert.Equal(t, domain.TimestampUnknown, e.TimestampKind, e.ID)
			assert.Zero(t, e.Timestamp)
			seenUnknown = true
		}
	}
	assert.True(t, seenUnknown)
}

func TestBuild_ArchivedTimestampsAreExact(t *testing.T) {
	g := newGateway(t)
	archive := memory.NewLedgerEventStore()
	_, err := archive.InsertBulk(context.Background(), []*domain.LedgerEvent{
		{ID: "e1", BlockNumber: 10, PoolID: 1, EventName: domain.LedgerEventPlayerEliminated, Actor: lower(carol), Timestamp: startMs + 42},
		{ID: "e2", BlockNumber: 11, PoolID: 1, EventName: domain.LedgerEventVoteCast, Actor: lower(bob), Target: lower(alice), Timestamp: startMs + 43},
	})
	require.NoError(t, err)

	r := New(gatewaySource{g}, WithArchive(archive), WithRandom(halfway), WithClock(fixedClock))
	events, err := r.BuildPool(context.Background(), 1)
	require.NoError(t, err)
	m := byID(events)

	elim := m["player-eliminated-1-"+lower(carol)]
	assert.Equal(t, int64(startMs+42), elim.Timestamp)
	assert.Equal(t, domain.TimestampExact, elim.TimestampKind)

	vote := m["vote-cast-1-"+lower(bob)+"-"+lower(alice)]
	assert.Equal(t, domain.TimestampExact, vote.TimestampKind)
	other := m["vote-cast-1-"+lower(bob)+"-"+lower(carol)]
	assert.Equal(t, domain.TimestampEstimated, other.TimestampKind)
}

func TestBuild_NextPoolIDFailure(t *testing.T) {
	g := newGateway(t)
	g.Fail("nextPoolId", contract.ErrUnavailable)

	_, err := New(gatewaySource{g}).Build(context.Background())
	assert.ErrorIs(t, err, contract.ErrUnavailable)
}

func TestSortNewestFirst(t *testing.T) {
	events := []domain.ActivityEvent{
		{ID: "u", TimestampKind: domain.TimestampUnknown},
		{ID: "a", Timestamp: 1, TimestampKind: domain.TimestampExact},
		{ID: "b", Timestamp: 3, TimestampKind: domain.TimestampEstimated},
		{ID: "c", Timestamp: 3, TimestampKind: domain.TimestampExact},
	}
	SortNewestFirst(events)
	ids := []string{events[0].ID, events[1].ID, events[2].ID, events[3].ID}
	assert.Equal(t, []string{"b", "c", "a", "u"}, ids)
}

func TestRandomOffsetBounds(t *testing.T) {
	assert.Zero(t, randomOffset(0))
	assert.Zero(t, randomOffset(-5))
	for i := 0; i < 100; i++ {
		v := randomOffset(10)
		assert.True(t, v >= 0 && v < 10)
	}
}
