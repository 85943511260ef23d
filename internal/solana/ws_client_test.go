package solana

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestBuildSubscribeParams(t *testing.T) {
	filter := ProgramFilter{
		ProgramID: "program-id",
		Filters: []AccountFilter{
			{DataSize: 752},
			{Memcmp: &MemcmpFilter{Offset: 432, Bytes: "quote-mint"}},
		},
	}

	params := buildSubscribeParams(filter)
	if len(params) != 2 {
		t.Fatalf("params length = %d, want 2", len(params))
	}
	if params[0] != "program-id" {
		t.Errorf("params[0] = %v", params[0])
	}

	opts, ok := params[1].(map[string]interface{})
	if !ok {
		t.Fatalf("params[1] is %T, want map", params[1])
	}
	if opts["encoding"] != "base64" {
		t.Errorf("encoding = %v, want base64", opts["encoding"])
	}
	if opts["commitment"] != DefaultCommitment {
		t.Errorf("commitment = %v, want default", opts["commitment"])
	}

	filters, ok := opts["filters"].([]interface{})
	if !ok || len(filters) != 2 {
		t.Fatalf("filters = %v, want 2 entries", opts["filters"])
	}
	if _, ok := filters[0].(map[string]interface{})["dataSize"]; !ok {
		t.Error("first filter should carry dataSize")
	}
	memcmp, ok := filters[1].(map[string]interface{})["memcmp"].(map[string]interface{})
	if !ok {
		t.Fatal("second filter should carry memcmp")
	}
	if memcmp["offset"] != uint64(432) || memcmp["bytes"] != "quote-mint" {
		t.Errorf("memcmp = %v", memcmp)
	}
}

func TestBuildSubscribeParamsCommitmentOverride(t *testing.T) {
	params := buildSubscribeParams(ProgramFilter{ProgramID: "p", Commitment: "finalized"})
	opts := params[1].(map[string]interface{})
	if opts["commitment"] != "finalized" {
		t.Errorf("commitment = %v, want finalized", opts["commitment"])
	}
	if _, ok := opts["filters"]; ok {
		t.Error("filters should be omitted when empty")
	}
}

// wsTestServer upgrades connections, confirms subscriptions, and pushes one
// notification per subscribe request.
func wsTestServer(t *testing.T, accountData []byte) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			var req wsRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			if req.Method != "programSubscribe" {
				continue
			}

			subID := int64(7)
			conn.WriteJSON(map[string]interface{}{
				"jsonrpc": "2.0",
				"id":      req.ID,
				"result":  subID,
			})

			conn.WriteJSON(map[string]interface{}{
				"jsonrpc": "2.0",
				"method":  "programNotification",
				"params": map[string]interface{}{
					"subscription": subID,
					"result": map[string]interface{}{
						"context": map[string]interface{}{"slot": 12345},
						"value": map[string]interface{}{
							"pubkey": "pool-account",
							"account": map[string]interface{}{
								"lamports": 2039280,
								"owner":    "program-id",
								"data":     []string{base64.StdEncoding.EncodeToString(accountData), "base64"},
							},
						},
					},
				},
			})
		}
	}))
}

func TestWSClientSubscribeAndReceive(t *testing.T) {
	accountData := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	server := wsTestServer(t, accountData)
	defer server.Close()

	endpoint := "ws" + strings.TrimPrefix(server.URL, "http")
	client, err := NewWSClient(context.Background(), endpoint, nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	ch, err := client.SubscribeProgram(context.Background(), ProgramFilter{ProgramID: "program-id"})
	if err != nil {
		t.Fatalf("SubscribeProgram: %v", err)
	}

	select {
	case n := <-ch:
		if n.Pubkey != "pool-account" {
			t.Errorf("Pubkey = %s", n.Pubkey)
		}
		if n.Slot != 12345 {
			t.Errorf("Slot = %d, want 12345", n.Slot)
		}
		if n.Owner != "program-id" {
			t.Errorf("Owner = %s", n.Owner)
		}
		if string(n.Data) != string(accountData) {
			t.Errorf("Data = %v, want %v", n.Data, accountData)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for notification")
	}
}

func TestWSClientCloseIdempotent(t *testing.T) {
	server := wsTestServer(t, nil)
	defer server.Close()

	endpoint := "ws" + strings.TrimPrefix(server.URL, "http")
	client, err := NewWSClient(context.Background(), endpoint, nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestHandleMessageIgnoresGarbage(t *testing.T) {
	c := &WSClientImpl{
		subs:        make(map[int64]chan AccountNotification),
		pendingSubs: make(map[uint64]chan int64),
		done:        make(chan struct{}),
	}

	// No panics is the assertion.
	c.handleMessage([]byte("not json"))
	c.handleMessage([]byte(`{"jsonrpc":"2.0","method":"unknownNotification"}`))
	c.handleMessage([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"boom"}}`))
}
