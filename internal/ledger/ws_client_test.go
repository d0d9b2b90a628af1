package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func TestWSClient_Connect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	client, err := NewWSClient(context.Background(), wsURL, nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	if client.closed.Load() {
		t.Error("client should not be closed")
	}
}

func TestWSClient_SubscribeLogs(t *testing.T) {
	contract := common.HexToAddress("0x6797fb3F6B09dd2306e0D5Fb26999823417Fdb11")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer c.Close()

		_, msg, err := c.ReadMessage()
		if err != nil {
			return
		}

		var req rpcRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			t.Errorf("unmarshal request: %v", err)
			return
		}
		if req.Method != "eth_subscribe" {
			t.Errorf("expected eth_subscribe, got %s", req.Method)
		}
		if len(req.Params) != 2 || req.Params[0] != "logs" {
			t.Errorf("unexpected params: %v", req.Params)
		}

		c.WriteJSON(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": "0xsub1"})

		time.Sleep(50 * time.Millisecond)
		c.WriteJSON(map[string]interface{}{
			"jsonrpc": "2.0",
			"method":  "eth_subscription",
			"params": map[string]interface{}{
				"subscription": "0xsub1",
				"result": map[string]interface{}{
					"address":          strings.ToLower(contract.Hex()),
					"topics":           []string{"0x00000000000000000000000000000000000000000000000000000000000000bb"},
					"data":             "0x",
					"blockNumber":      "0x64",
					"transactionHash":  "0x00000000000000000000000000000000000000000000000000000000000000aa",
					"transactionIndex": "0x0",
					"blockHash":        "0x00000000000000000000000000000000000000000000000000000000000000cc",
					"logIndex":         "0x1",
					"removed":          false,
				},
			},
		})

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	ctx := context.Background()
	client, err := NewWSClient(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	ch, err := client.SubscribeLogs(ctx, LogsFilter{Addresses: []common.Address{contract}})
	if err != nil {
		t.Fatalf("SubscribeLogs: %v", err)
	}

	select {
	case l := <-ch:
		if l.Address != contract {
			t.Errorf("expected address %s, got %s", contract.Hex(), l.Address.Hex())
		}
		if l.BlockNumber != 100 {
			t.Errorf("expected block 100, got %d", l.BlockNumber)
		}
		if l.Index != 1 {
			t.Errorf("expected log index 1, got %d", l.Index)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for log")
	}
}

func TestWSClient_NotificationRightAfterConfirmation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer c.Close()

		_, msg, err := c.ReadMessage()
		if err != nil {
			return
		}
		var req rpcRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			t.Errorf("unmarshal request: %v", err)
			return
		}

		// No gap between the confirmation and the first notification.
		c.WriteJSON(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": "0xsub2"})
		c.WriteJSON(map[string]interface{}{
			"jsonrpc": "2.0",
			"method":  "eth_subscription",
			"params": map[string]interface{}{
				"subscription": "0xsub2",
				"result": map[string]interface{}{
					"address":          "0x6797fb3f6b09dd2306e0d5fb26999823417fdb11",
					"topics":           []string{},
					"data":             "0x",
					"blockNumber":      "0x2a",
					"transactionHash":  "0x00000000000000000000000000000000000000000000000000000000000000aa",
					"transactionIndex": "0x0",
					"blockHash":        "0x00000000000000000000000000000000000000000000000000000000000000cc",
					"logIndex":         "0x0",
					"removed":          false,
				},
			},
		})

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	ctx := context.Background()
	client, err := NewWSClient(ctx, "ws"+strings.TrimPrefix(server.URL, "http"), nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	ch, err := client.SubscribeLogs(ctx, LogsFilter{})
	if err != nil {
		t.Fatalf("SubscribeLogs: %v", err)
	}

	select {
	case l := <-ch:
		if l.BlockNumber != 42 {
			t.Errorf("expected block 42, got %d", l.BlockNumber)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("log sent right after the confirmation was dropped")
	}
}

func TestWSClient_SubscribeRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		_, msg, err := c.ReadMessage()
		if err != nil {
			return
		}
		var req rpcRequest
		json.Unmarshal(msg, &req)
		c.WriteJSON(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   map[string]interface{}{"code": -32601, "message": "method not found"},
		})
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	client, err := NewWSClient(context.Background(), wsURL, nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	if _, err := client.SubscribeLogs(context.Background(), LogsFilter{}); err == nil {
		t.Fatal("expected subscription error")
	}
}

func TestWSClient_Close(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	client, err := NewWSClient(context.Background(), wsURL, nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := client.SubscribeLogs(context.Background(), LogsFilter{}); err == nil {
		t.Error("expected error subscribing on closed client")
	}
}
