package ingestion

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"survive-arena/internal/contract"
)

var (
	contractAddr = common.HexToAddress("0x6797fb3F6B09dd2306e0D5Fb26999823417Fdb11")
	voter        = common.HexToAddress("0xA11CE00000000000000000000000000000000001")
	candidate    = common.HexToAddress("0xB0B0000000000000000000000000000000000002")
)

func ether(v float64) *big.Int {
	wei, _ := new(big.Float).Mul(big.NewFloat(v), big.NewFloat(1e18)).Int(nil)
	return wei
}

// contractLog builds a log of event name; indexed args go to topics in
// order, the rest are ABI-packed into data.
func contractLog(t *testing.T, name string, block uint64, index uint, indexed []common.Hash, data ...interface{}) types.Log {
	t.Helper()
	parsed, err := contract.ABI()
	require.NoError(t, err)
	ev, ok := parsed.Events[name]
	require.True(t, ok, "event %s", name)

	packed, err := ev.Inputs.NonIndexed().Pack(data...)
	require.NoError(t, err)

	return types.Log{
		Address:     contractAddr,
		Topics:      append([]common.Hash{ev.ID}, indexed...),
		Data:        packed,
		BlockNumber: block,
		BlockHash:   common.BigToHash(new(big.Int).SetUint64(block)),
		TxHash:      common.BigToHash(big.NewInt(int64(block*1000) + int64(index))),
		Index:       index,
	}
}

func poolTopic(id int64) common.Hash { return common.BigToHash(big.NewInt(id)) }

func addrTopic(a common.Address) common.Hash { return common.BytesToHash(a.Bytes()) }

func voteLog(t *testing.T, block uint64, index uint) types.Log {
	return contractLog(t, "VoteCast", block, index, []common.Hash{poolTopic(1), addrTopic(voter), addrTopic(candidate)})
}
