package rpc

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"horizon/core"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB

	requestsPerMinute = 60
	requestBurst      = 20
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeRateLimited    = -32020
)

// Server exposes the protocol entry points over JSON-RPC 2.0. Mutating
// methods require the configured bearer token; per-source rate limiting
// protects the commit path from floods.
type Server struct {
	node      *core.Node
	authToken string

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewServer creates an RPC server over the node. An empty token disables
// authentication (local development only).
func NewServer(node *core.Node, authToken string) *Server {
	return &Server{
		node:      node,
		authToken: strings.TrimSpace(authToken),
		limiters:  make(map[string]*rate.Limiter),
	}
}

// Start blocks serving the RPC endpoint on addr.
func (s *Server) Start(addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server.ListenAndServe()
}

// RPCRequest is a JSON-RPC 2.0 request with a single object parameter.
type RPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      interface{}     `json:"id"`
}

// RPCResponse is a JSON-RPC 2.0 response.
type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

// RPCError carries a JSON-RPC error code and reason.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func errorResponse(id interface{}, code int, format string, args ...interface{}) RPCResponse {
	return RPCResponse{
		JSONRPC: jsonRPCVersion,
		ID:      id,
		Error:   &RPCError{Code: code, Message: fmt.Sprintf(format, args...)},
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	if !s.allow(r) {
		writeJSON(w, errorResponse(nil, codeRateLimited, "rate limit exceeded"))
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeJSON(w, errorResponse(nil, codeParseError, "read body: %v", err))
		return
	}
	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, errorResponse(nil, codeParseError, "parse request: %v", err))
		return
	}
	if req.JSONRPC != jsonRPCVersion || strings.TrimSpace(req.Method) == "" {
		writeJSON(w, errorResponse(req.ID, codeInvalidRequest, "invalid request"))
		return
	}
	handler, ok := s.route(req.Method)
	if !ok {
		writeJSON(w, errorResponse(req.ID, codeMethodNotFound, "unknown method %s", req.Method))
		return
	}
	if handler.mutating && !s.authorized(r) {
		writeJSON(w, errorResponse(req.ID, codeUnauthorized, "unauthorized"))
		return
	}
	result, rpcErr := handler.fn(req.Params)
	if rpcErr != nil {
		writeJSON(w, RPCResponse{JSONRPC: jsonRPCVersion, ID: req.ID, Error: rpcErr})
		return
	}
	writeJSON(w, RPCResponse{JSONRPC: jsonRPCVersion, ID: req.ID, Result: result})
}

type handler struct {
	fn       func(json.RawMessage) (interface{}, *RPCError)
	mutating bool
}

func (s *Server) route(method string) (handler, bool) {
	switch method {
	case "iro_create":
		return handler{s.handleIROCreate, true}, true
	case "iro_commit":
		return handler{s.handleIROCommit, true}, true
	case "iro_claim":
		return handler{s.handleIROClaim, true}, true
	case "iro_listingOwnerClaim":
		return handler{s.handleListingOwnerClaim, true}, true
	case "iro_withdraw":
		return handler{s.handleIROWithdraw, true}, true
	case "iro_get":
		return handler{s.handleIROGet, false}, true
	case "iro_getStatus":
		return handler{s.handleIROStatus, false}, true
	case "iro_commitment":
		return handler{s.handleIROCommitment, false}, true
	case "vesting_createPosition":
		return handler{s.handleVestingCreate, true}, true
	case "vesting_claim":
		return handler{s.handleVestingClaim, true}, true
	case "vesting_position":
		return handler{s.handleVestingPosition, false}, true
	case "vesting_amountDue":
		return handler{s.handleVestingAmountDue, false}, true
	case "sale_setRoot":
		return handler{s.handleSaleSetRoot, true}, true
	case "sale_claim":
		return handler{s.handleSaleClaim, true}, true
	case "sale_purchase":
		return handler{s.handleSalePurchase, true}, true
	case "token_mintEpoch":
		return handler{s.handleTokenMintEpoch, true}, true
	case "bank_balance":
		return handler{s.handleBankBalance, false}, true
	case "renft_balanceOf":
		return handler{s.handleRENFTBalance, false}, true
	default:
		return handler{}, false
	}
}

func (s *Server) authorized(r *http.Request) bool {
	if s.authToken == "" {
		return true
	}
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return false
	}
	supplied := strings.TrimSpace(strings.TrimPrefix(auth, prefix))
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(s.authToken)) == 1
}

func (s *Server) allow(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	s.mu.Lock()
	limiter, ok := s.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(time.Minute/requestsPerMinute), requestBurst)
		s.limiters[host] = limiter
	}
	s.mu.Unlock()
	return limiter.Allow()
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
