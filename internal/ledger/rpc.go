package ledger

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// RPCClient defines the EVM JSON-RPC HTTP interface used by the contract gateway
// and the log ingestion runner.
type RPCClient interface {
	// ChainID returns the chain id reported by the node.
	ChainID(ctx context.Context) (*big.Int, error)

	// BlockNumber returns the latest block number.
	BlockNumber(ctx context.Context) (uint64, error)

	// BlockTimestamp returns the timestamp (seconds) of a block.
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)

	// Call executes a read-only message call against the latest block.
	Call(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)

	// EstimateGas estimates the gas needed to execute msg.
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)

	// GasPrice returns the node's suggested legacy gas price.
	GasPrice(ctx context.Context) (*big.Int, error)

	// PendingNonceAt returns the next nonce for account.
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)

	// SendRawTransaction submits a signed transaction. Never retried.
	SendRawTransaction(ctx context.Context, tx *types.Transaction) (common.Hash, error)

	// TransactionReceipt returns the receipt of a mined transaction.
	// Returns nil, nil while the transaction is pending.
	TransactionReceipt(ctx context.Context, hash common.Hash) (*Receipt, error)

	// GetLogs returns logs matching the filter query.
	GetLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// Receipt is the subset of a transaction receipt the gateway needs.
type Receipt struct {
	TxHash      common.Hash
	BlockNumber uint64
	GasUsed     uint64
	Status      uint64 // 1 success, 0 reverted
	Logs        []types.Log
}

// Succeeded reports whether the transaction executed without reverting.
func (r *Receipt) Succeeded() bool {
	return r != nil && r.Status == types.ReceiptStatusSuccessful
}
