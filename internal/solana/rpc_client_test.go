package solana

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"token-metadata-cli/internal/observability"
)

// rpcServer answers every request with handler(req).
func rpcServer(t *testing.T, handler func(req rpcRequest) map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		resp := handler(req)
		resp["jsonrpc"] = "2.0"
		resp["id"] = req.ID
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestHTTPClient_GetAccountInfo(t *testing.T) {
	payload := []byte{4, 1, 2, 3}

	server := rpcServer(t, func(req rpcRequest) map[string]interface{} {
		if req.Method != "getAccountInfo" {
			t.Errorf("expected method getAccountInfo, got %s", req.Method)
		}
		cfg, _ := req.Params[1].(map[string]interface{})
		if cfg["encoding"] != "base64" {
			t.Errorf("expected base64 encoding, got %v", cfg["encoding"])
		}
		if cfg["commitment"] != "confirmed" {
			t.Errorf("expected confirmed commitment, got %v", cfg["commitment"])
		}
		return map[string]interface{}{
			"result": map[string]interface{}{
				"context": map[string]interface{}{"slot": 10},
				"value": map[string]interface{}{
					"lamports":   5616720,
					"owner":      "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s",
					"data":       []string{base64.StdEncoding.EncodeToString(payload), "base64"},
					"executable": false,
					"rentEpoch":  361,
				},
			},
		}
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	info, err := client.GetAccountInfo(context.Background(), "addr", CommitmentConfirmed)
	if err != nil {
		t.Fatalf("GetAccountInfo: %v", err)
	}
	if info == nil {
		t.Fatal("expected account info, got nil")
	}
	if info.Owner != "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s" {
		t.Errorf("unexpected owner %s", info.Owner)
	}
	if string(info.Data) != string(payload) {
		t.Errorf("expected data %v, got %v", payload, info.Data)
	}
	if info.Lamports != 5616720 {
		t.Errorf("expected lamports 5616720, got %d", info.Lamports)
	}
}

func TestHTTPClient_GetAccountInfo_NotFound(t *testing.T) {
	server := rpcServer(t, func(req rpcRequest) map[string]interface{} {
		return map[string]interface{}{
			"result": map[string]interface{}{
				"context": map[string]interface{}{"slot": 10},
				"value":   nil,
			},
		}
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	info, err := client.GetAccountInfo(context.Background(), "missing", "")
	if err != nil {
		t.Fatalf("GetAccountInfo: %v", err)
	}
	if info != nil {
		t.Errorf("expected nil for not found, got %+v", info)
	}
}

func TestHTTPClient_GetLatestBlockhash(t *testing.T) {
	server := rpcServer(t, func(req rpcRequest) map[string]interface{} {
		if req.Method != "getLatestBlockhash" {
			t.Errorf("expected method getLatestBlockhash, got %s", req.Method)
		}
		return map[string]interface{}{
			"result": map[string]interface{}{
				"context": map[string]interface{}{"slot": 2792},
				"value": map[string]interface{}{
					"blockhash":            "EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N",
					"lastValidBlockHeight": 3090,
				},
			},
		}
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	bh, err := client.GetLatestBlockhash(context.Background(), CommitmentFinalized)
	if err != nil {
		t.Fatalf("GetLatestBlockhash: %v", err)
	}
	if bh.Blockhash != "EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N" {
		t.Errorf("unexpected blockhash %s", bh.Blockhash)
	}
	if bh.LastValidBlockHeight != 3090 {
		t.Errorf("expected lastValidBlockHeight 3090, got %d", bh.LastValidBlockHeight)
	}
	if bh.Slot != 2792 {
		t.Errorf("expected slot 2792, got %d", bh.Slot)
	}
}

func TestHTTPClient_SendTransaction(t *testing.T) {
	raw := []byte{1, 2, 3, 4, 5}

	server := rpcServer(t, func(req rpcRequest) map[string]interface{} {
		if req.Method != "sendTransaction" {
			t.Errorf("expected method sendTransaction, got %s", req.Method)
		}
		if req.Params[0] != base64.StdEncoding.EncodeToString(raw) {
			t.Errorf("unexpected payload %v", req.Params[0])
		}
		cfg, _ := req.Params[1].(map[string]interface{})
		if cfg["encoding"] != "base64" {
			t.Errorf("expected base64 encoding, got %v", cfg["encoding"])
		}
		if cfg["preflightCommitment"] != "confirmed" {
			t.Errorf("expected preflightCommitment confirmed, got %v", cfg["preflightCommitment"])
		}
		return map[string]interface{}{"result": "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW"}
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	sig, err := client.SendTransaction(context.Background(), raw, SendOptions{PreflightCommitment: CommitmentConfirmed})
	if err != nil {
		t.Fatalf("SendTransaction: %v", err)
	}
	if sig != "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW" {
		t.Errorf("unexpected signature %s", sig)
	}
}

func TestHTTPClient_SendTransaction_PreflightFailure(t *testing.T) {
	server := rpcServer(t, func(req rpcRequest) map[string]interface{} {
		return map[string]interface{}{
			"error": map[string]interface{}{
				"code":    -32002,
				"message": "Transaction simulation failed: Error processing Instruction 0: custom program error: 0x39",
				"data": map[string]interface{}{
					"err":  map[string]interface{}{"InstructionError": []interface{}{0, map[string]interface{}{"Custom": 57}}},
					"logs": []string{"Program metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s invoke [1]", "Program log: Incorrect account owner"},
				},
			},
		}
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	_, err := client.SendTransaction(context.Background(), []byte{1}, SendOptions{})
	if err == nil {
		t.Fatal("expected error")
	}

	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected *RPCError, got %T", err)
	}
	if rpcErr.Code != -32002 {
		t.Errorf("expected code -32002, got %d", rpcErr.Code)
	}
	if rpcErr.IsBlockhashNotFound() {
		t.Error("program error must not be classified as blockhash not found")
	}
	if len(rpcErr.Logs()) != 2 {
		t.Errorf("expected 2 preflight logs, got %d", len(rpcErr.Logs()))
	}
}

func TestRPCError_IsBlockhashNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  RPCError
		want bool
	}{
		{
			name: "message",
			err:  RPCError{Code: -32002, Message: "Transaction simulation failed: Blockhash not found"},
			want: true,
		},
		{
			name: "data",
			err:  RPCError{Code: -32002, Message: "Transaction simulation failed", Data: json.RawMessage(`{"err":"BlockhashNotFound","logs":[]}`)},
			want: true,
		},
		{
			name: "other",
			err:  RPCError{Code: -32002, Message: "Transaction simulation failed", Data: json.RawMessage(`{"err":"InsufficientFundsForFee"}`)},
			want: false,
		},
		{
			name: "no data",
			err:  RPCError{Code: -32600, Message: "Invalid request"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.IsBlockhashNotFound(); got != tt.want {
				t.Errorf("IsBlockhashNotFound() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHTTPClient_GetSignatureStatuses(t *testing.T) {
	server := rpcServer(t, func(req rpcRequest) map[string]interface{} {
		if req.Method != "getSignatureStatuses" {
			t.Errorf("expected method getSignatureStatuses, got %s", req.Method)
		}
		return map[string]interface{}{
			"result": map[string]interface{}{
				"context": map[string]interface{}{"slot": 82},
				"value": []interface{}{
					map[string]interface{}{
						"slot":               72,
						"confirmations":      10,
						"err":                nil,
						"confirmationStatus": "confirmed",
					},
					nil,
					map[string]interface{}{
						"slot":               48,
						"confirmations":      nil,
						"err":                map[string]interface{}{"InstructionError": []interface{}{0, "InvalidAccountData"}},
						"confirmationStatus": "finalized",
					},
				},
			},
		}
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	statuses, err := client.GetSignatureStatuses(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("GetSignatureStatuses: %v", err)
	}
	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	if statuses[0] == nil || statuses[0].ConfirmationStatus != CommitmentConfirmed || statuses[0].Err != nil {
		t.Errorf("unexpected first status %+v", statuses[0])
	}
	if statuses[0].Confirmations == nil || *statuses[0].Confirmations != 10 {
		t.Errorf("expected 10 confirmations, got %v", statuses[0].Confirmations)
	}
	if statuses[1] != nil {
		t.Errorf("expected nil for unknown signature, got %+v", statuses[1])
	}
	if statuses[2] == nil || statuses[2].Err == nil {
		t.Errorf("expected failed status, got %+v", statuses[2])
	}
}

func TestHTTPClient_GetBlockHeight(t *testing.T) {
	server := rpcServer(t, func(req rpcRequest) map[string]interface{} {
		if req.Method != "getBlockHeight" {
			t.Errorf("expected method getBlockHeight, got %s", req.Method)
		}
		return map[string]interface{}{"result": 1233}
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	height, err := client.GetBlockHeight(context.Background(), CommitmentConfirmed)
	if err != nil {
		t.Fatalf("GetBlockHeight: %v", err)
	}
	if height != 1233 {
		t.Errorf("expected height 1233, got %d", height)
	}
}

func TestHTTPClient_RetryOn429(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  77,
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithRetryDelay(10*time.Millisecond),
		WithMaxDelay(50*time.Millisecond),
	)

	height, err := client.GetBlockHeight(context.Background(), "")
	if err != nil {
		t.Fatalf("GetBlockHeight: %v", err)
	}
	if height != 77 {
		t.Errorf("expected 77, got %d", height)
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestHTTPClient_MaxRetriesExceeded(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(2),
		WithRetryDelay(5*time.Millisecond),
	)

	_, err := client.GetBlockHeight(context.Background(), "")
	if err == nil {
		t.Fatal("expected error after retries")
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts (1 + 2 retries), got %d", attempts.Load())
	}
}

func TestHTTPClient_RPCErrorNotRetried(t *testing.T) {
	var attempts atomic.Int32

	server := rpcServer(t, func(req rpcRequest) map[string]interface{} {
		attempts.Add(1)
		return map[string]interface{}{
			"error": map[string]interface{}{"code": -32602, "message": "Invalid params"},
		}
	})
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRetryDelay(5*time.Millisecond))
	_, err := client.GetBlockHeight(context.Background(), "")
	if err == nil {
		t.Fatal("expected RPC error")
	}
	if attempts.Load() != 1 {
		t.Errorf("expected exactly 1 attempt, got %d", attempts.Load())
	}
}

func TestHTTPClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRetryDelay(time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.GetBlockHeight(ctx, "")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestHTTPClient_Metrics(t *testing.T) {
	server := rpcServer(t, func(req rpcRequest) map[string]interface{} {
		if req.Method == "getBlockHeight" {
			return map[string]interface{}{"result": 1}
		}
		return map[string]interface{}{
			"error": map[string]interface{}{"code": -32601, "message": "Method not found"},
		}
	})
	defer server.Close()

	m := observability.NewMetrics("")
	client := NewHTTPClient(server.URL, WithMetrics(m))

	if _, err := client.GetBlockHeight(context.Background(), ""); err != nil {
		t.Fatalf("GetBlockHeight: %v", err)
	}
	if _, err := client.GetLatestBlockhash(context.Background(), ""); err == nil {
		t.Fatal("expected error")
	}

	if got := testutil.ToFloat64(m.RPCCallErrors.WithLabelValues("getLatestBlockhash")); got != 1 {
		t.Errorf("expected 1 getLatestBlockhash error, got %v", got)
	}
	if got := testutil.ToFloat64(m.RPCCallErrors.WithLabelValues("getBlockHeight")); got != 0 {
		t.Errorf("expected 0 getBlockHeight errors, got %v", got)
	}
}

func TestCommitment_Reaches(t *testing.T) {
	tests := []struct {
		status Commitment
		target Commitment
		want   bool
	}{
		{CommitmentProcessed, CommitmentConfirmed, false},
		{CommitmentConfirmed, CommitmentConfirmed, true},
		{CommitmentFinalized, CommitmentConfirmed, true},
		{CommitmentConfirmed, CommitmentFinalized, false},
		{"", CommitmentProcessed, false},
	}
	for _, tt := range tests {
		if got := tt.status.Reaches(tt.target); got != tt.want {
			t.Errorf("%q.Reaches(%q) = %v, want %v", tt.status, tt.target, got, tt.want)
		}
	}
}

func TestWSEndpointFromHTTP(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://api.devnet.solana.com", "wss://api.devnet.solana.com"},
		{"http://localhost:8899", "ws://localhost:8900"},
		{"http://127.0.0.1:8899/rpc", "ws://127.0.0.1:8900/rpc"},
	}
	for _, tt := range tests {
		got, err := WSEndpointFromHTTP(tt.in)
		if err != nil {
			t.Fatalf("WSEndpointFromHTTP(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("WSEndpointFromHTTP(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHTTPClient_Endpoint(t *testing.T) {
	const url = "https://api.devnet.solana.com"
	c := NewHTTPClient(url)
	if got := c.Endpoint(); got != url {
		t.Errorf("Endpoint() = %q, want %q", got, url)
	}
}
