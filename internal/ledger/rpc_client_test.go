package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rpcServer(t *testing.T, handle func(req rpcRequest) map[string]interface{}) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		resp := handle(req)
		resp["jsonrpc"] = "2.0"
		resp["id"] = req.ID
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestHTTPClient_ChainID(t *testing.T) {
	server := rpcServer(t, func(req rpcRequest) map[string]interface{} {
		assert.Equal(t, "eth_chainId", req.Method)
		return map[string]interface{}{"result": "0x279f"}
	})

	client := NewHTTPClient(server.URL)
	id, err := client.ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(10143), id.Int64())
}

func TestHTTPClient_Call(t *testing.T) {
	to := common.HexToAddress("0x6797fb3F6B09dd2306e0D5Fb26999823417Fdb11")
	server := rpcServer(t, func(req rpcRequest) map[string]interface{} {
		assert.Equal(t, "eth_call", req.Method)
		assert.Len(t, req.Params, 2)
		arg := req.Params[0].(map[string]interface{})
		assert.Equal(t, "0x12345678", arg["data"])
		assert.Equal(t, "latest", req.Params[1])
		return map[string]interface{}{"result": "0x000000000000000000000000000000000000000000000000000000000000002a"}
	})

	client := NewHTTPClient(server.URL)
	out, err := client.Call(context.Background(), ethereum.CallMsg{To: &to, Data: []byte{0x12, 0x34, 0x56, 0x78}})
	require.NoError(t, err)
	require.Len(t, out, 32)
	assert.Equal(t, byte(42), out[31])
}

func TestHTTPClient_TransactionReceipt_Pending(t *testing.T) {
	server := rpcServer(t, func(req rpcRequest) map[string]interface{} {
		return map[string]interface{}{"result": nil}
	})

	client := NewHTTPClient(server.URL)
	receipt, err := client.TransactionReceipt(context.Background(), common.HexToHash("0x01"))
	require.NoError(t, err)
	assert.Nil(t, receipt)
}

func TestHTTPClient_TransactionReceipt(t *testing.T) {
	server := rpcServer(t, func(req rpcRequest) map[string]interface{} {
		return map[string]interface{}{"result": map[string]interface{}{
			"transactionHash": "0x00000000000000000000000000000000000000000000000000000000000000aa",
			"blockNumber":     "0x10",
			"gasUsed":         "0x5208",
			"status":          "0x1",
			"logs": []map[string]interface{}{{
				"address":          "0x6797fb3f6b09dd2306e0d5fb26999823417fdb11",
				"topics":           []string{"0x00000000000000000000000000000000000000000000000000000000000000bb"},
				"data":             "0x",
				"blockNumber":      "0x10",
				"transactionHash":  "0x00000000000000000000000000000000000000000000000000000000000000aa",
				"transactionIndex": "0x0",
				"blockHash":        "0x00000000000000000000000000000000000000000000000000000000000000cc",
				"logIndex":         "0x3",
				"removed":          false,
			}},
		}}
	})

	client := NewHTTPClient(server.URL)
	receipt, err := client.TransactionReceipt(context.Background(), common.HexToHash("0xaa"))
	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.True(t, receipt.Succeeded())
	assert.Equal(t, uint64(16), receipt.BlockNumber)
	assert.Equal(t, uint64(21000), receipt.GasUsed)
	require.Len(t, receipt.Logs, 1)
	assert.Equal(t, uint(3), receipt.Logs[0].Index)
}

func TestHTTPClient_GetLogs_Range(t *testing.T) {
	server := rpcServer(t, func(req rpcRequest) map[string]interface{} {
		assert.Equal(t, "eth_getLogs", req.Method)
		arg := req.Params[0].(map[string]interface{})
		assert.Equal(t, "0x64", arg["fromBlock"])
		assert.Equal(t, "latest", arg["toBlock"])
		return map[string]interface{}{"result": []interface{}{}}
	})

	client := NewHTTPClient(server.URL)
	logs, err := client.GetLogs(context.Background(), ethereum.FilterQuery{FromBlock: big.NewInt(100)})
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestHTTPClient_Retry(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": "0x3e7"})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithMaxRetries(3), WithRetryDelay(10*time.Millisecond))
	head, err := client.BlockNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(999), head)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestHTTPClient_RetriesExhausted(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithMaxRetries(2), WithRetryDelay(time.Millisecond))
	_, err := client.BlockNumber(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRetriesExhausted))

	var retryErr *RetryError
	require.True(t, errors.As(err, &retryErr))
	assert.Equal(t, 3, retryErr.Attempts)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestHTTPClient_RPCErrorNotRetried(t *testing.T) {
	var attempts atomic.Int32
	server := rpcServer(t, func(req rpcRequest) map[string]interface{} {
		attempts.Add(1)
		return map[string]interface{}{"error": map[string]interface{}{
			"code":    3,
			"message": "execution reverted",
			"data":    "0x08c379a0",
		}}
	})

	client := NewHTTPClient(server.URL, WithRetryDelay(time.Millisecond))
	_, err := client.GasPrice(context.Background())
	require.Error(t, err)

	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, 3, rpcErr.Code)
	assert.Equal(t, []byte{0x08, 0xc3, 0x79, 0xa0}, rpcErr.RevertData())
	assert.Equal(t, int32(1), attempts.Load())
}

func TestHTTPClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.BlockNumber(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
