package rpc

import "encoding/json"

type mintEpochParams struct {
	Caller string `json:"caller"`
}

func (s *Server) handleTokenMintEpoch(raw json.RawMessage) (interface{}, *RPCError) {
	var params mintEpochParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, invalidParams("parse params: %v", err)
	}
	caller, rpcErr := parseAddress("caller", params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	minted, evts, err := s.node.MintTokenEpoch(caller)
	if err != nil {
		return nil, serverError(err)
	}
	return struct {
		Minted string      `json:"minted"`
		Events []eventView `json:"events"`
	}{bigString(minted), eventViews(evts)}, nil
}

type balanceParams struct {
	Address string `json:"address"`
	Denom   string `json:"denom"`
}

func (s *Server) handleBankBalance(raw json.RawMessage) (interface{}, *RPCError) {
	var params balanceParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, invalidParams("parse params: %v", err)
	}
	addr, rpcErr := parseAddress("address", params.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}
	balance, err := s.node.Balance(addr, params.Denom)
	if err != nil {
		return nil, serverError(err)
	}
	return struct {
		Balance string `json:"balance"`
	}{bigString(balance)}, nil
}

type renftBalanceParams struct {
	Address    string `json:"address"`
	Collection uint64 `json:"collection"`
}

func (s *Server) handleRENFTBalance(raw json.RawMessage) (interface{}, *RPCError) {
	var params renftBalanceParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, invalidParams("parse params: %v", err)
	}
	addr, rpcErr := parseAddress("address", params.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}
	balance, err := s.node.RENFTBalance(addr, params.Collection)
	if err != nil {
		return nil, serverError(err)
	}
	return struct {
		Balance string `json:"balance"`
	}{bigString(balance)}, nil
}
