package rpc

import "encoding/json"

type setRootParams struct {
	Caller   string `json:"caller"`
	Category string `json:"category"`
	Root     string `json:"root"`
}

func (s *Server) handleSaleSetRoot(raw json.RawMessage) (interface{}, *RPCError) {
	var params setRootParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, invalidParams("parse params: %v", err)
	}
	caller, rpcErr := parseAddress("caller", params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	root, rpcErr := parseHash("root", params.Root)
	if rpcErr != nil {
		return nil, rpcErr
	}
	evts, err := s.node.SetSaleRoot(caller, params.Category, root)
	if err != nil {
		return nil, serverError(err)
	}
	return struct {
		Events []eventView `json:"events"`
	}{eventViews(evts)}, nil
}

type saleClaimParams struct {
	Caller   string   `json:"caller"`
	Category string   `json:"category"`
	Amount   uint64   `json:"amount"`
	Proof    []string `json:"proof"`
}

func (s *Server) handleSaleClaim(raw json.RawMessage) (interface{}, *RPCError) {
	var params saleClaimParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, invalidParams("parse params: %v", err)
	}
	caller, rpcErr := parseAddress("caller", params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	proof, rpcErr := parseProof("proof", params.Proof)
	if rpcErr != nil {
		return nil, rpcErr
	}
	evts, err := s.node.SaleClaim(caller, params.Category, params.Amount, proof)
	if err != nil {
		return nil, serverError(err)
	}
	return struct {
		Events []eventView `json:"events"`
	}{eventViews(evts)}, nil
}

type salePurchaseParams struct {
	Caller string `json:"caller"`
	Amount uint64 `json:"amount"`
}

func (s *Server) handleSalePurchase(raw json.RawMessage) (interface{}, *RPCError) {
	var params salePurchaseParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, invalidParams("parse params: %v", err)
	}
	caller, rpcErr := parseAddress("caller", params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	evts, err := s.node.SalePurchase(caller, params.Amount)
	if err != nil {
		return nil, serverError(err)
	}
	return struct {
		Events []eventView `json:"events"`
	}{eventViews(evts)}, nil
}
