package ledger

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// WSClient defines the EVM WebSocket subscription interface.
type WSClient interface {
	// SubscribeLogs subscribes to contract logs matching the filter.
	SubscribeLogs(ctx context.Context, filter LogsFilter) (<-chan types.Log, error)

	// Close closes the WebSocket connection.
	Close() error
}

// LogsFilter defines the subscription filter for logs.
type LogsFilter struct {
	// Addresses restricts logs to these emitting contracts.
	Addresses []common.Address
	// Topics is a positional topic filter; nil entries match anything.
	Topics [][]common.Hash
}

func (f LogsFilter) params() map[string]interface{} {
	p := make(map[string]interface{})
	if len(f.Addresses) > 0 {
		p["address"] = f.Addresses
	}
	if len(f.Topics) > 0 {
		p["topics"] = f.Topics
	}
	return p
}
