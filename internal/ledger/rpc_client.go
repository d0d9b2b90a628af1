package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"survive-arena/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = 1 * time.Second
	DefaultMaxDelay   = 10 * time.Second
)

// HTTPClient implements RPCClient using HTTP JSON-RPC 2.0.
// Transient failures are retried with linear backoff (retryDelay × attempt).
type HTTPClient struct {
	endpoint   string
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
	maxDelay   time.Duration
	requestID  atomic.Uint64
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets the base retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithMaxDelay caps a single retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a new EVM JSON-RPC HTTP client.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:   endpoint,
		client:     &http.Client{Timeout: DefaultTimeout},
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		maxDelay:   DefaultMaxDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile-time interface check.
var _ RPCClient = (*HTTPClient)(nil)

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// call performs a JSON-RPC call with the configured retry budget.
func (c *HTTPClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	return c.do(ctx, method, params, result, c.maxRetries)
}

// do performs a JSON-RPC call, retrying transient failures up to maxRetries times.
func (c *HTTPClient) do(ctx context.Context, method string, params []interface{}, result interface{}, maxRetries int) (err error) {
	start := time.Now()
	defer func() {
		observability.RecordRPCCall(method, time.Since(start).Seconds(), err)
	}()

	if params == nil {
		params = []interface{}{}
	}
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	attempts := 0

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(attempt)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
			observability.RecordRPCRetry(method)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		attempts++

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
			continue
		}

		var rpcResp rpcResponse
		if err := json.Unmarshal(respBody, &rpcResp); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		if rpcResp.Error != nil {
			return rpcResp.Error
		}

		if result != nil && len(rpcResp.Result) > 0 {
			if err := json.Unmarshal(rpcResp.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}

		return nil
	}

	if maxRetries == 0 {
		return lastErr
	}
	return &RetryError{Method: method, Attempts: attempts, Err: lastErr}
}

// ChainID returns the chain id reported by the node.
func (c *HTTPClient) ChainID(ctx context.Context) (*big.Int, error) {
	var result hexutil.Big
	if err := c.call(ctx, "eth_chainId", nil, &result); err != nil {
		return nil, err
	}
	return (*big.Int)(&result), nil
}

// BlockNumber returns the latest block number.
func (c *HTTPClient) BlockNumber(ctx context.Context) (uint64, error) {
	var result hexutil.Uint64
	if err := c.call(ctx, "eth_blockNumber", nil, &result); err != nil {
		return 0, err
	}
	return uint64(result), nil
}

// BlockTimestamp returns the timestamp (seconds) of a block.
func (c *HTTPClient) BlockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	var result *struct {
		Timestamp hexutil.Uint64 `json:"timestamp"`
	}
	params := []interface{}{hexutil.EncodeUint64(number), false}
	if err := c.call(ctx, "eth_getBlockByNumber", params, &result); err != nil {
		return 0, err
	}
	if result == nil {
		return 0, fmt.Errorf("block %d not found", number)
	}
	return uint64(result.Timestamp), nil
}

// Call executes a read-only message call against the latest block.
func (c *HTTPClient) Call(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	var result hexutil.Bytes
	if err := c.call(ctx, "eth_call", []interface{}{toCallArg(msg), "latest"}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// EstimateGas estimates the gas needed to execute msg.
func (c *HTTPClient) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	var result hexutil.Uint64
	if err := c.call(ctx, "eth_estimateGas", []interface{}{toCallArg(msg)}, &result); err != nil {
		return 0, err
	}
	return uint64(result), nil
}

// GasPrice returns the node's suggested legacy gas price.
func (c *HTTPClient) GasPrice(ctx context.Context) (*big.Int, error) {
	var result hexutil.Big
	if err := c.call(ctx, "eth_gasPrice", nil, &result); err != nil {
		return nil, err
	}
	return (*big.Int)(&result), nil
}

// PendingNonceAt returns the next nonce for account.
func (c *HTTPClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	var result hexutil.Uint64
	if err := c.call(ctx, "eth_getTransactionCount", []interface{}{account, "pending"}, &result); err != nil {
		return 0, err
	}
	return uint64(result), nil
}

// SendRawTransaction submits a signed transaction exactly once.
func (c *HTTPClient) SendRawTransaction(ctx context.Context, tx *types.Transaction) (common.Hash, error) {
	data, err := tx.MarshalBinary()
	if err != nil {
		return common.Hash{}, fmt.Errorf("encode transaction: %w", err)
	}
	var result common.Hash
	if err := c.do(ctx, "eth_sendRawTransaction", []interface{}{hexutil.Encode(data)}, &result, 0); err != nil {
		return common.Hash{}, err
	}
	return result, nil
}

// TransactionReceipt returns the receipt of a mined transaction, or nil while pending.
func (c *HTTPClient) TransactionReceipt(ctx context.Context, hash common.Hash) (*Receipt, error) {
	var result *rpcReceipt
	if err := c.call(ctx, "eth_getTransactionReceipt", []interface{}{hash}, &result); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	receipt := &Receipt{
		TxHash:      result.TxHash,
		BlockNumber: uint64(result.BlockNumber),
		GasUsed:     uint64(result.GasUsed),
		Status:      uint64(result.Status),
	}
	for _, l := range result.Logs {
		receipt.Logs = append(receipt.Logs, l.toLog())
	}
	return receipt, nil
}

// GetLogs returns logs matching the filter query.
func (c *HTTPClient) GetLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	arg, err := toFilterArg(q)
	if err != nil {
		return nil, err
	}

	var result []rpcLog
	if err := c.call(ctx, "eth_getLogs", []interface{}{arg}, &result); err != nil {
		return nil, err
	}

	logs := make([]types.Log, len(result))
	for i, l := range result {
		logs[i] = l.toLog()
	}
	return logs, nil
}

// rpcReceipt is the raw RPC response for eth_getTransactionReceipt.
type rpcReceipt struct {
	TxHash      common.Hash    `json:"transactionHash"`
	BlockNumber hexutil.Uint64 `json:"blockNumber"`
	GasUsed     hexutil.Uint64 `json:"gasUsed"`
	Status      hexutil.Uint64 `json:"status"`
	Logs        []rpcLog       `json:"logs"`
}

// rpcLog is the raw RPC representation of a log entry.
type rpcLog struct {
	Address     common.Address `json:"address"`
	Topics      []common.Hash  `json:"topics"`
	Data        hexutil.Bytes  `json:"data"`
	BlockNumber hexutil.Uint64 `json:"blockNumber"`
	TxHash      common.Hash    `json:"transactionHash"`
	TxIndex     hexutil.Uint   `json:"transactionIndex"`
	BlockHash   common.Hash    `json:"blockHash"`
	Index       hexutil.Uint   `json:"logIndex"`
	Removed     bool           `json:"removed"`
}

func (l rpcLog) toLog() types.Log {
	return types.Log{
		Address:     l.Address,
		Topics:      l.Topics,
		Data:        l.Data,
		BlockNumber: uint64(l.BlockNumber),
		TxHash:      l.TxHash,
		TxIndex:     uint(l.TxIndex),
		BlockHash:   l.BlockHash,
		Index:       uint(l.Index),
		Removed:     l.Removed,
	}
}

func toCallArg(msg ethereum.CallMsg) map[string]interface{} {
	arg := map[string]interface{}{
		"from": msg.From,
	}
	if msg.To != nil {
		arg["to"] = msg.To
	}
	if len(msg.Data) > 0 {
		arg["data"] = hexutil.Bytes(msg.Data)
	}
	if msg.Value != nil {
		arg["value"] = (*hexutil.Big)(msg.Value)
	}
	if msg.Gas != 0 {
		arg["gas"] = hexutil.Uint64(msg.Gas)
	}
	if msg.GasPrice != nil {
		arg["gasPrice"] = (*hexutil.Big)(msg.GasPrice)
	}
	return arg
}

func toFilterArg(q ethereum.FilterQuery) (map[string]interface{}, error) {
	arg := map[string]interface{}{
		"address": q.Addresses,
		"topics":  q.Topics,
	}
	if q.BlockHash != nil {
		if q.FromBlock != nil || q.ToBlock != nil {
			return nil, errors.New("cannot specify both BlockHash and FromBlock/ToBlock")
		}
		arg["blockHash"] = *q.BlockHash
		return arg, nil
	}
	arg["fromBlock"] = toBlockNumArg(q.FromBlock, "earliest")
	arg["toBlock"] = toBlockNumArg(q.ToBlock, "latest")
	return arg, nil
}

func toBlockNumArg(number *big.Int, fallback string) string {
	if number == nil {
		return fallback
	}
	return hexutil.EncodeBig(number)
}
