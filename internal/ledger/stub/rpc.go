package stub

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"survive-arena/internal/ledger"
)

// ErrNoCallResult is returned when no result was registered for a calldata.
var ErrNoCallResult = errors.New("no call result registered")

// RPCClient implements ledger.RPCClient for testing.
// Call results are keyed by hex-encoded calldata.
type RPCClient struct {
	mu sync.Mutex

	ChainIDValue *big.Int
	Head         uint64
	Timestamps   map[uint64]uint64
	CallResults  map[string][]byte
	CallErrors   map[string]error
	GasEstimate  uint64
	EstimateErr  error
	GasPriceWei  *big.Int
	GasPriceErr  error
	Nonces       map[common.Address]uint64
	Receipts     map[common.Hash]*ledger.Receipt
	Logs         []types.Log
	LogsErr      error
	SendErr      error

	// RevertSends makes receipts of sent transactions report failure.
	RevertSends bool

	// Err, when set, fails every call.
	Err error

	// Sent records every transaction passed to SendRawTransaction.
	Sent []*types.Transaction
	// Calls records every calldata passed to Call.
	Calls []string
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient(chainID int64) *RPCClient {
	return &RPCClient{
		ChainIDValue: big.NewInt(chainID),
		Timestamps:   make(map[uint64]uint64),
		CallResults:  make(map[string][]byte),
		CallErrors:   make(map[string]error),
		GasEstimate:  100000,
		GasPriceWei:  big.NewInt(1_000_000_000),
		Nonces:       make(map[common.Address]uint64),
		Receipts:     make(map[common.Hash]*ledger.Receipt),
	}
}

var _ ledger.RPCClient = (*RPCClient)(nil)

// SetCallResult registers the raw return data for a calldata.
func (c *RPCClient) SetCallResult(data []byte, result []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CallResults[hexutil.Encode(data)] = result
}

// SetCallError registers an error for a calldata.
func (c *RPCClient) SetCallError(data []byte, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CallErrors[hexutil.Encode(data)] = err
}

// AddLogs appends logs returned by GetLogs.
func (c *RPCClient) AddLogs(logs ...types.Log) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Logs = append(c.Logs, logs...)
}

// SentTransactions returns a copy of the submitted transactions.
func (c *RPCClient) SentTransactions() []*types.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*types.Transaction, len(c.Sent))
	copy(out, c.Sent)
	return out
}

func (c *RPCClient) ChainID(_ context.Context) (*big.Int, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	return new(big.Int).Set(c.ChainIDValue), nil
}

func (c *RPCClient) BlockNumber(_ context.Context) (uint64, error) {
	if c.Err != nil {
		return 0, c.Err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Head, nil
}

func (c *RPCClient) BlockTimestamp(_ context.Context, number uint64) (uint64, error) {
	if c.Err != nil {
		return 0, c.Err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	ts, ok := c.Timestamps[number]
	if !ok {
		return 0, errors.New("block not found")
	}
	return ts, nil
}

func (c *RPCClient) Call(_ context.Context, msg ethereum.CallMsg) ([]byte, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	key := hexutil.Encode(msg.Data)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = append(c.Calls, key)
	if err, ok := c.CallErrors[key]; ok {
		return nil, err
	}
	res, ok := c.CallResults[key]
	if !ok {
		return nil, ErrNoCallResult
	}
	return res, nil
}

func (c *RPCClient) EstimateGas(_ context.Context, _ ethereum.CallMsg) (uint64, error) {
	if c.Err != nil {
		return 0, c.Err
	}
	if c.EstimateErr != nil {
		return 0, c.EstimateErr
	}
	return c.GasEstimate, nil
}

func (c *RPCClient) GasPrice(_ context.Context) (*big.Int, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	if c.GasPriceErr != nil {
		return nil, c.GasPriceErr
	}
	return new(big.Int).Set(c.GasPriceWei), nil
}

func (c *RPCClient) PendingNonceAt(_ context.Context, account common.Address) (uint64, error) {
	if c.Err != nil {
		return 0, c.Err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Nonces[account], nil
}

// SendRawTransaction records tx and, unless a receipt was preset, stores a
// successful receipt for it at the current head.
func (c *RPCClient) SendRawTransaction(_ context.Context, tx *types.Transaction) (common.Hash, error) {
	if c.Err != nil {
		return common.Hash{}, c.Err
	}
	if c.SendErr != nil {
		return common.Hash{}, c.SendErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Sent = append(c.Sent, tx)
	hash := tx.Hash()
	if _, ok := c.Receipts[hash]; !ok {
		status := types.ReceiptStatusSuccessful
		if c.RevertSends {
			status = types.ReceiptStatusFailed
		}
		c.Receipts[hash] = &ledger.Receipt{
			TxHash:      hash,
			BlockNumber: c.Head,
			GasUsed:     tx.Gas(),
			Status:      status,
		}
	}
	return hash, nil
}

func (c *RPCClient) TransactionReceipt(_ context.Context, hash common.Hash) (*ledger.Receipt, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Receipts[hash], nil
}

// GetLogs filters stored logs by block range and address.
func (c *RPCClient) GetLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	if c.LogsErr != nil {
		return nil, c.LogsErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []types.Log
	for _, l := range c.Logs {
		if q.FromBlock != nil && l.BlockNumber < q.FromBlock.Uint64() {
			continue
		}
		if q.ToBlock != nil && l.BlockNumber > q.ToBlock.Uint64() {
			continue
		}
		if len(q.Addresses) > 0 && !containsAddress(q.Addresses, l.Address) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func containsAddress(list []common.Address, a common.Address) bool {
	for _, x := range list {
		if x == a {
			return true
		}
	}
	return false
}
