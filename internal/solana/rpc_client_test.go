package solana

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// rpcHandler answers JSON-RPC requests with canned results per method.
func rpcHandler(t *testing.T, results map[string]string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		result, ok := results[req.Method]
		if !ok {
			t.Errorf("unexpected method %s", req.Method)
			http.Error(w, "unknown method", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  json.RawMessage(result),
		}
		json.NewEncoder(w).Encode(resp)
	}
}

func TestGetAccountInfo(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	encoded := base64.StdEncoding.EncodeToString(data)

	server := httptest.NewServer(rpcHandler(t, map[string]string{
		"getAccountInfo": `{"value":{"lamports":2039280,"owner":"` + TokenProgramID + `","data":["` + encoded + `","base64"],"executable":false,"rentEpoch":361}}`,
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	info, err := client.GetAccountInfo(context.Background(), "some-account")
	if err != nil {
		t.Fatalf("GetAccountInfo: %v", err)
	}

	if info == nil {
		t.Fatal("expected account info")
	}
	if info.Lamports != 2039280 {
		t.Errorf("Lamports = %d, want 2039280", info.Lamports)
	}
	if info.Owner != TokenProgramID {
		t.Errorf("Owner = %s", info.Owner)
	}
	if string(info.Data) != string(data) {
		t.Errorf("Data = %v, want %v", info.Data, data)
	}
}

func TestGetAccountInfoMissing(t *testing.T) {
	server := httptest.NewServer(rpcHandler(t, map[string]string{
		"getAccountInfo": `{"value":null}`,
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	info, err := client.GetAccountInfo(context.Background(), "absent")
	if err != nil {
		t.Fatalf("GetAccountInfo: %v", err)
	}
	if info != nil {
		t.Error("missing account should return nil without error")
	}
}

func TestGetTokenAccountBalance(t *testing.T) {
	server := httptest.NewServer(rpcHandler(t, map[string]string{
		"getTokenAccountBalance": `{"value":{"amount":"123456789","decimals":9}}`,
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	amount, err := client.GetTokenAccountBalance(context.Background(), "vault")
	if err != nil {
		t.Fatalf("GetTokenAccountBalance: %v", err)
	}
	if amount != 123456789 {
		t.Errorf("amount = %d, want 123456789", amount)
	}
}

func TestGetTokenAccountsByOwner(t *testing.T) {
	server := httptest.NewServer(rpcHandler(t, map[string]string{
		"getTokenAccountsByOwner": `{"value":[{"pubkey":"acct-1","account":{"data":{"parsed":{"info":{"mint":"mint-1","tokenAmount":{"amount":"500"}}}}}}]}`,
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	accounts, err := client.GetTokenAccountsByOwner(context.Background(), "owner", "mint-1")
	if err != nil {
		t.Fatalf("GetTokenAccountsByOwner: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("got %d accounts, want 1", len(accounts))
	}
	if accounts[0].Address != "acct-1" || accounts[0].Mint != "mint-1" || accounts[0].Amount != 500 {
		t.Errorf("account = %+v", accounts[0])
	}
}

func TestGetLatestBlockhash(t *testing.T) {
	server := httptest.NewServer(rpcHandler(t, map[string]string{
		"getLatestBlockhash": `{"value":{"blockhash":"EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N","lastValidBlockHeight":3090}}`,
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	blockhash, err := client.GetLatestBlockhash(context.Background())
	if err != nil {
		t.Fatalf("GetLatestBlockhash: %v", err)
	}
	if blockhash != "EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N" {
		t.Errorf("blockhash = %s", blockhash)
	}
}

func TestSendTransaction(t *testing.T) {
	server := httptest.NewServer(rpcHandler(t, map[string]string{
		"sendTransaction": `"2id3YC2jK9G5Wo2phDx4gJVAew8DcY5NAojnVuao8rkxwPYPe8cSwE5GzhEgJA2y8fVjDEo6iR6ykBvDxrTQrtpb"`,
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	sig, err := client.SendTransaction(context.Background(), []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("SendTransaction: %v", err)
	}
	if sig == "" {
		t.Error("empty signature")
	}
}

func TestGetSignatureStatuses(t *testing.T) {
	server := httptest.NewServer(rpcHandler(t, map[string]string{
		"getSignatureStatuses": `{"value":[{"slot":48,"confirmations":null,"err":null,"confirmationStatus":"finalized"},null]}`,
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	statuses, err := client.GetSignatureStatuses(context.Background(), []string{"sig-1", "sig-2"})
	if err != nil {
		t.Fatalf("GetSignatureStatuses: %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("got %d statuses, want 2", len(statuses))
	}
	if statuses[0] == nil || statuses[0].ConfirmationStatus != "finalized" {
		t.Errorf("status 0 = %+v", statuses[0])
	}
	if !statuses[0].Confirmed("confirmed") {
		t.Error("finalized status should satisfy confirmed commitment")
	}
	if statuses[1] != nil {
		t.Error("unknown signature should be nil")
	}
}

func TestCallRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		rpcHandler(t, map[string]string{
			"getLatestBlockhash": `{"value":{"blockhash":"EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N","lastValidBlockHeight":1}}`,
		})(w, r)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRetryDelay(time.Millisecond))
	if _, err := client.GetLatestBlockhash(context.Background()); err != nil {
		t.Fatalf("GetLatestBlockhash: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestCallDoesNotRetryRPCError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"invalid params"}}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRetryDelay(time.Millisecond))
	if _, err := client.GetLatestBlockhash(context.Background()); err == nil {
		t.Fatal("expected RPC error")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (RPC errors are terminal)", calls.Load())
	}
}

func TestSignatureStatusConfirmed(t *testing.T) {
	tests := []struct {
		name       string
		status     *SignatureStatus
		commitment string
		want       bool
	}{
		{"nil status", nil, "confirmed", false},
		{"execution error", &SignatureStatus{Err: "failed", ConfirmationStatus: "finalized"}, "confirmed", false},
		{"finalized meets finalized", &SignatureStatus{ConfirmationStatus: "finalized"}, "finalized", true},
		{"confirmed meets confirmed", &SignatureStatus{ConfirmationStatus: "confirmed"}, "confirmed", true},
		{"confirmed below finalized", &SignatureStatus{ConfirmationStatus: "confirmed"}, "finalized", false},
		{"processed meets processed", &SignatureStatus{ConfirmationStatus: "processed"}, "processed", true},
		{"processed below confirmed", &SignatureStatus{ConfirmationStatus: "processed"}, "confirmed", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Confirmed(tt.commitment); got != tt.want {
				t.Errorf("Confirmed(%s) = %v, want %v", tt.commitment, got, tt.want)
			}
		})
	}
}
