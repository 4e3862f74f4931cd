package rpc

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"horizon/core"
	"horizon/storage"
)

func mustAddr(t *testing.T, s string) [20]byte {
	t.Helper()
	addr, err := core.ParseAddress(s)
	if err != nil {
		t.Fatalf("parse address %q: %v", s, err)
	}
	return addr
}

func newTestServer(t *testing.T, authToken string) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	node, err := core.NewNode(storage.NewMemDB(), core.NodeConfig{
		BaseCurrency: "USDH",
		NativeDenom:  "ETH",
		GovDenom:     "HZN",
		Admin:        mustAddr(t, "0x00000000000000000000000000000000000000ad"),
		Treasury:     mustAddr(t, "0x00000000000000000000000000000000000000fe"),
		OracleMaxAge: time.Hour,
	}, logger)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	genesis := &core.Genesis{
		Accounts: []core.GenesisAccount{{
			Address:  "0x0000000000000000000000000000000000000001",
			Balances: map[string]string{"USDH": "12345"},
		}},
	}
	if err := node.ApplyGenesis(genesis); err != nil {
		t.Fatalf("apply genesis: %v", err)
	}
	return NewServer(node, authToken)
}

type envelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

func post(t *testing.T, server *Server, body, bearer string) (envelope, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	var resp envelope
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", recorder.Body.String(), err)
	}
	return resp, recorder
}

func TestRejectsNonPost(t *testing.T) {
	server := newTestServer(t, "")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status: %d", recorder.Code)
	}
}

func TestParseError(t *testing.T) {
	server := newTestServer(t, "")
	resp, _ := post(t, server, "{not json", "")
	if resp.Error == nil || resp.Error.Code != codeParseError {
		t.Fatalf("expected parse error, got %+v", resp.Error)
	}
}

func TestInvalidRequestVersion(t *testing.T) {
	server := newTestServer(t, "")
	resp, _ := post(t, server, `{"jsonrpc":"1.0","method":"bank_balance","id":1}`, "")
	if resp.Error == nil || resp.Error.Code != codeInvalidRequest {
		t.Fatalf("expected invalid request, got %+v", resp.Error)
	}
}

func TestMethodNotFound(t *testing.T) {
	server := newTestServer(t, "")
	resp, _ := post(t, server, `{"jsonrpc":"2.0","method":"bank_nope","id":1}`, "")
	if resp.Error == nil || resp.Error.Code != codeMethodNotFound {
		t.Fatalf("expected method not found, got %+v", resp.Error)
	}
}

func TestMutatingMethodsRequireToken(t *testing.T) {
	server := newTestServer(t, "secret")
	body := `{"jsonrpc":"2.0","method":"iro_withdraw","params":{"id":0},"id":1}`

	resp, _ := post(t, server, body, "")
	if resp.Error == nil || resp.Error.Code != codeUnauthorized {
		t.Fatalf("missing token accepted: %+v", resp.Error)
	}
	resp, _ = post(t, server, body, "wrong")
	if resp.Error == nil || resp.Error.Code != codeUnauthorized {
		t.Fatalf("wrong token accepted: %+v", resp.Error)
	}
	// The right token clears auth; the call then fails in the engine because
	// offering 0 does not exist, which proves it got through.
	resp, _ = post(t, server, body, "secret")
	if resp.Error == nil || resp.Error.Code != codeServerError {
		t.Fatalf("expected engine error, got %+v", resp.Error)
	}
}

func TestQueryMethodsSkipAuth(t *testing.T) {
	server := newTestServer(t, "secret")
	body := `{"jsonrpc":"2.0","method":"bank_balance","params":{"address":"0x0000000000000000000000000000000000000001","denom":"USDH"},"id":7}`
	resp, _ := post(t, server, body, "")
	if resp.Error != nil {
		t.Fatalf("query rejected: %+v", resp.Error)
	}
	var result struct {
		Balance string `json:"balance"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Balance != "12345" {
		t.Fatalf("balance: %q", result.Balance)
	}
}

func TestCreateIROEndToEnd(t *testing.T) {
	server := newTestServer(t, "secret")
	body := `{"jsonrpc":"2.0","method":"iro_create","params":{
		"caller":"0x00000000000000000000000000000000000000ad",
		"listingOwner":"0x0000000000000000000000000000000000000099",
		"currency":"USDH",
		"treasuryFeeBps":300,
		"listingOwnerFeeBps":500,
		"listingOwnerShareBps":1000,
		"startOffset":100,
		"duration":1000,
		"softCap":"100",
		"hardCap":"1000",
		"unitPrice":"1"
	},"id":2}`
	resp, _ := post(t, server, body, "secret")
	if resp.Error != nil {
		t.Fatalf("create: %+v", resp.Error)
	}
	var result struct {
		IRO struct {
			ID       uint64 `json:"id"`
			Currency string `json:"currency"`
		} `json:"iro"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.IRO.ID != 0 || result.IRO.Currency != "USDH" {
		t.Fatalf("created offering: %+v", result.IRO)
	}

	statusBody := `{"jsonrpc":"2.0","method":"iro_getStatus","params":{"id":0},"id":3}`
	resp, _ = post(t, server, statusBody, "")
	if resp.Error != nil {
		t.Fatalf("status: %+v", resp.Error)
	}
	var status struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(resp.Result, &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Status != "pending" {
		t.Fatalf("status: %q", status.Status)
	}
}

func TestInvalidParamsAddress(t *testing.T) {
	server := newTestServer(t, "")
	body := `{"jsonrpc":"2.0","method":"bank_balance","params":{"address":"nope","denom":"USDH"},"id":1}`
	resp, _ := post(t, server, body, "")
	if resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Fatalf("expected invalid params, got %+v", resp.Error)
	}
}
