package ingestion

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survive-arena/internal/domain"
	"survive-arena/internal/idhash"
)

func TestDecoder_VoteCast(t *testing.T) {
	d, err := NewDecoder(contractAddr)
	require.NoError(t, err)

	l := voteLog(t, 7, 3)
	e, err := d.Decode(l)
	require.NoError(t, err)

	assert.Equal(t, domain.LedgerEventVoteCast, e.EventName)
	assert.Equal(t, uint64(1), e.PoolID)
	assert.Equal(t, domain.NormalizeAddress(voter.Hex()), e.Actor)
	assert.Equal(t, domain.NormalizeAddress(candidate.Hex()), e.Target)
	assert.Equal(t, uint64(7), e.BlockNumber)
	assert.Equal(t, uint(3), e.LogIndex)
	assert.Equal(t, idhash.ComputeLedgerEventID(l.TxHash.Hex(), 3), e.ID)
	assert.Zero(t, e.Timestamp)
}

func TestDecoder_ArgumentMapping(t *testing.T) {
	d, err := NewDecoder(contractAddr)
	require.NoError(t, err)

	bet, err := d.Decode(contractLog(t, "BetPlaced", 1, 0,
		[]common.Hash{poolTopic(2), addrTopic(voter), addrTopic(candidate)},
		ether(0.5), big.NewInt(1)))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), bet.PoolID)
	assert.Equal(t, "0.5", bet.Amount)
	assert.Equal(t, uint64(1), bet.Value)
	assert.Equal(t, domain.NormalizeAddress(candidate.Hex()), bet.Target)

	ticket, err := d.Decode(contractLog(t, "VotingTicketPurchased", 1, 1,
		[]common.Hash{poolTopic(2), addrTopic(voter)}, big.NewInt(3)))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), ticket.Value)
	assert.Equal(t, domain.NormalizeAddress(voter.Hex()), ticket.Actor)
	assert.Empty(t, ticket.Target)

	state, err := d.Decode(contractLog(t, "PoolStateChanged", 1, 2,
		[]common.Hash{poolTopic(2)}, uint8(2)))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), state.Value)

	champion, err := d.Decode(contractLog(t, "ChampionDeclared", 1, 3,
		[]common.Hash{poolTopic(2), addrTopic(candidate)}))
	require.NoError(t, err)
	assert.Equal(t, domain.NormalizeAddress(candidate.Hex()), champion.Actor)
}

func TestDecoder_RejectsForeignLogs(t *testing.T) {
	d, err := NewDecoder(contractAddr)
	require.NoError(t, err)

	l := voteLog(t, 1, 0)
	l.Address = common.HexToAddress("0x01")
	_, err = d.Decode(l)
	assert.ErrorIs(t, err, ErrUnknownEvent)

	l = voteLog(t, 1, 0)
	l.Topics[0] = common.HexToHash("0xdeadbeef")
	_, err = d.Decode(l)
	assert.ErrorIs(t, err, ErrUnknownEvent)

	assert.NotEmpty(t, d.Topics())
}

func TestSortEventsAndValidate(t *testing.T) {
	events := []*domain.LedgerEvent{
		{BlockNumber: 2, LogIndex: 0},
		{BlockNumber: 1, LogIndex: 5},
		{BlockNumber: 1, LogIndex: 1},
	}
	assert.ErrorIs(t, ValidateOrdering(events), ErrInvalidOrdering)

	SortEvents(events)
	require.NoError(t, ValidateOrdering(events))
	assert.Equal(t, uint(1), events[0].LogIndex)
	assert.Equal(t, uint64(2), events[2].BlockNumber)
}
