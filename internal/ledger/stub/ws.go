package stub

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/core/types"

	"survive-arena/internal/ledger"
)

// WSClient implements ledger.WSClient over a test-fed channel.
type WSClient struct {
	mu     sync.Mutex
	logs   chan types.Log
	closed bool

	Filters      []ledger.LogsFilter
	SubscribeErr error
}

// NewWSClient creates a stub whose subscription buffers up to size logs.
func NewWSClient(size int) *WSClient {
	return &WSClient{logs: make(chan types.Log, size)}
}

var _ ledger.WSClient = (*WSClient)(nil)

// SubscribeLogs records the filter and returns the shared log channel.
func (c *WSClient) SubscribeLogs(_ context.Context, filter ledger.LogsFilter) (<-chan types.Log, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SubscribeErr != nil {
		return nil, c.SubscribeErr
	}
	if c.closed {
		return nil, errors.New("client closed")
	}
	c.Filters = append(c.Filters, filter)
	return c.logs, nil
}

// Push delivers logs to the subscriber.
func (c *WSClient) Push(logs ...types.Log) {
	for _, l := range logs {
		c.logs <- l
	}
}

// Close closes the subscription channel.
func (c *WSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.logs)
	}
	return nil
}
