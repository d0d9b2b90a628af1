// Package contract is the typed gateway to the elimination-game contract.
// Reads go through eth_call with transport-level retry; writes are signed
// locally, submitted once and awaited until mined.
package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"survive-arena/internal/domain"
	"survive-arena/internal/ledger"
	"survive-arena/internal/observability"
)

// Defaults for contract calls.
const (
	DefaultGasLimit       uint64 = 300000
	EliminationGasLimit   uint64 = 3000000
	DefaultReceiptPoll           = 1 * time.Second
	DefaultReceiptTimeout        = 2 * time.Minute
)

// MinimumGasPrice is the gas price floor (0.05 gwei).
var MinimumGasPrice = big.NewInt(50_000_000)

// Gateway is the full typed contract surface.
type Gateway interface {
	Reader
	Writer
}

// Client implements Gateway over a ledger RPC client.
type Client struct {
	rpc      ledger.RPCClient
	address  common.Address
	abi      abi.ABI
	chainID  *big.Int
	signer   *Signer
	logger   *zap.Logger
	poll     time.Duration
	deadline time.Duration
}

// Option configures Client.
type Option func(*Client)

// WithSigner enables writes from the signer's account.
func WithSigner(s *Signer) Option {
	return func(c *Client) {
		c.signer = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithReceiptPolling sets the receipt poll interval and the overall wait.
func WithReceiptPolling(interval, timeout time.Duration) Option {
	return func(c *Client) {
		c.poll = interval
		c.deadline = timeout
	}
}

// NewClient creates a gateway bound to the contract at address on chainID.
func NewClient(rpc ledger.RPCClient, address common.Address, chainID *big.Int, opts ...Option) (*Client, error) {
	parsed, err := ABI()
	if err != nil {
		return nil, err
	}
	c := &Client{
		rpc:      rpc,
		address:  address,
		abi:      parsed,
		chainID:  chainID,
		logger:   zap.NewNop(),
		poll:     DefaultReceiptPoll,
		deadline: DefaultReceiptTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

var _ Gateway = (*Client)(nil)

// Address returns the contract address.
func (c *Client) Address() common.Address {
	return c.address
}

// Account returns the signer's address, or the zero address without a signer.
func (c *Client) Account() common.Address {
	if c.signer == nil {
		return common.Address{}
	}
	return c.signer.Address()
}

// call packs and executes a read-only method and returns the raw return data.
func (c *Client) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	out, err := c.rpc.Call(ctx, ethereum.CallMsg{From: c.Account(), To: &c.address, Data: data})
	if err != nil {
		return nil, c.readError(method, err)
	}

	values, err := c.abi.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

// callInto is call for methods with several named outputs, unpacked into out.
func (c *Client) callInto(ctx context.Context, out interface{}, method string, args ...interface{}) error {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return fmt.Errorf("pack %s: %w", method, err)
	}

	raw, err := c.rpc.Call(ctx, ethereum.CallMsg{From: c.Account(), To: &c.address, Data: data})
	if err != nil {
		return c.readError(method, err)
	}

	if err := c.abi.UnpackIntoInterface(out, method, raw); err != nil {
		return fmt.Errorf("unpack %s: %w", method, err)
	}
	return nil
}

func (c *Client) readError(method string, err error) error {
	if errors.Is(err, ledger.ErrRetriesExhausted) || errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Method: method, Err: err}
	}
	var rpcErr *ledger.RPCError
	if errors.As(err, &rpcErr) {
		if reason, ok := c.revertReason(rpcErr); ok {
			return fmt.Errorf("%s: execution reverted: %s: %w", method, reason, err)
		}
	}
	return fmt.Errorf("%s: %w", method, err)
}

// sendOpts carries the optional parts of a write.
type sendOpts struct {
	value    *big.Int
	gasLimit uint64 // fixed limit, skips estimation
}

// send signs, submits and awaits a state-changing call. It is never retried.
func (c *Client) send(ctx context.Context, method string, opts sendOpts, args ...interface{}) (*domain.Receipt, error) {
	if c.signer == nil {
		return nil, &NotConnectedError{Reason: ErrNotConnected, Detail: method}
	}

	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	from := c.signer.Address()
	msg := ethereum.CallMsg{From: from, To: &c.address, Value: opts.value, Data: data}

	gasLimit := opts.gasLimit
	if gasLimit == 0 {
		gasLimit = c.estimateGas(ctx, method, msg)
	}
	gasPrice := c.gasPrice(ctx)

	nonce, err := c.rpc.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("%s: read nonce: %w", method, err)
	}

	value := opts.value
	if value == nil {
		value = new(big.Int)
	}
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       &c.address,
		Value:    value,
		Data:     data,
	})
	signed, err := c.signer.SignTx(tx, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("%s: sign: %w", method, err)
	}

	hash, err := c.rpc.SendRawTransaction(ctx, signed)
	if err != nil {
		txErr := &TransactionError{Method: method, Err: err}
		var rpcErr *ledger.RPCError
		if errors.As(err, &rpcErr) {
			if reason, ok := c.revertReason(rpcErr); ok {
				txErr.Reason = reason
			} else {
				txErr.Reason = rpcErr.Message
			}
		}
		observability.RecordTransaction(method, true)
		return nil, txErr
	}

	c.logger.Info("transaction submitted",
		zap.String("method", method),
		zap.String("tx_hash", hash.Hex()),
		zap.Uint64("gas_limit", gasLimit),
		zap.String("gas_price", gasPrice.String()))

	receipt, err := c.waitReceipt(ctx, method, hash)
	if err != nil {
		return nil, err
	}

	result := &domain.Receipt{
		TxHash:      receipt.TxHash.Hex(),
		BlockNumber: receipt.BlockNumber,
		GasUsed:     receipt.GasUsed,
		Status:      receipt.Status,
	}

	if !receipt.Succeeded() {
		observability.RecordTransaction(method, true)
		reason := c.replayRevert(ctx, msg)
		c.logger.Warn("transaction reverted",
			zap.String("method", method),
			zap.String("tx_hash", result.TxHash),
			zap.String("reason", reason))
		return result, &TransactionError{Method: method, TxHash: result.TxHash, Reason: reason}
	}

	observability.RecordTransaction(method, false)
	return result, nil
}

// estimateGas returns the estimate with a 20% margin, or DefaultGasLimit.
func (c *Client) estimateGas(ctx context.Context, method string, msg ethereum.CallMsg) uint64 {
	gas, err := c.rpc.EstimateGas(ctx, msg)
	if err != nil {
		c.logger.Warn("gas estimation failed, using default limit",
			zap.String("method", method), zap.Uint64("gas_limit", DefaultGasLimit), zap.Error(err))
		return DefaultGasLimit
	}
	return gas * 12 / 10
}

// gasPrice returns the node's price, never below MinimumGasPrice.
func (c *Client) gasPrice(ctx context.Context) *big.Int {
	price, err := c.rpc.GasPrice(ctx)
	if err != nil || price == nil || price.Cmp(MinimumGasPrice) < 0 {
		return new(big.Int).Set(MinimumGasPrice)
	}
	return price
}

func (c *Client) waitReceipt(ctx context.Context, method string, hash common.Hash) (*ledger.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.deadline)
	defer cancel()

	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()

	for {
		receipt, err := c.rpc.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil {
			c.logger.Debug("receipt poll failed", zap.String("tx_hash", hash.Hex()), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil, &TimeoutError{Method: method, TxHash: hash.Hex(), Err: ctx.Err()}
		case <-ticker.C:
		}
	}
}

// replayRevert re-executes a failed write as eth_call to recover the reason.
func (c *Client) replayRevert(ctx context.Context, msg ethereum.CallMsg) string {
	_, err := c.rpc.Call(ctx, msg)
	if err == nil {
		return ""
	}
	var rpcErr *ledger.RPCError
	if errors.As(err, &rpcErr) {
		if reason, ok := c.revertReason(rpcErr); ok {
			return reason
		}
		return rpcErr.Message
	}
	return ""
}

func (c *Client) revertReason(rpcErr *ledger.RPCError) (string, bool) {
	data := rpcErr.RevertData()
	if len(data) < 4 {
		return "", false
	}
	if reason, err := abi.UnpackRevert(data); err == nil {
		return reason, true
	}
	for name, e := range c.abi.Errors {
		if string(data[:4]) == string(e.ID[:4]) {
			return name, true
		}
	}
	return "", false
}
