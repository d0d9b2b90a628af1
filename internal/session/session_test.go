package session

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survive-arena/internal/contract"
	ledgerstub "survive-arena/internal/ledger/stub"
)

const testKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestSession_ConnectDisconnect(t *testing.T) {
	rpc := ledgerstub.NewRPCClient(DefaultChainID)
	s, err := New(rpc, Config{})
	require.NoError(t, err)

	assert.Equal(t, "", s.Account())
	readOnly := s.Gateway()
	require.NotNil(t, readOnly)

	require.NoError(t, s.Connect(context.Background(), testKey))
	signer, err := contract.NewSigner(testKey)
	require.NoError(t, err)
	assert.Equal(t, strings.ToLower(signer.Address().Hex()), s.Account())
	assert.True(t, s.Connected())
	assert.NotSame(t, readOnly, s.Gateway())

	require.NoError(t, s.Disconnect())
	assert.Equal(t, "", s.Account())

	_, err = s.Gateway().ClaimPoolReward(context.Background(), 1)
	assert.True(t, errors.Is(err, contract.ErrNotConnected))
}

func TestSession_WrongNetwork(t *testing.T) {
	rpc := ledgerstub.NewRPCClient(1)
	s, err := New(rpc, Config{})
	require.NoError(t, err)

	err = s.Connect(context.Background(), testKey)
	require.Error(t, err)
	assert.True(t, errors.Is(err, contract.ErrWrongNetwork))
	assert.False(t, s.Connected())
}

func TestSession_ReinitializeDropsSignerOnNetworkChange(t *testing.T) {
	rpc := ledgerstub.NewRPCClient(DefaultChainID)
	builds := 0
	s, err := New(rpc, Config{Factory: func(signer *contract.Signer) (contract.Gateway, error) {
		builds++
		return contract.NewClient(rpc, [20]byte{1}, rpc.ChainIDValue)
	}})
	require.NoError(t, err)
	require.NoError(t, s.Connect(context.Background(), testKey))
	assert.Equal(t, 2, builds)

	require.NoError(t, s.Reinitialize(context.Background()))
	assert.Equal(t, 3, builds)
	assert.True(t, s.Connected())

	rpc.ChainIDValue.SetInt64(1)
	err = s.Reinitialize(context.Background())
	assert.True(t, errors.Is(err, contract.ErrWrongNetwork))
	assert.False(t, s.Connected())
}
