package rpc

import "encoding/json"

type createPositionParams struct {
	Caller      string `json:"caller"`
	Beneficiary string `json:"beneficiary"`
	Amount      string `json:"amount"`
	Cliff       uint64 `json:"cliff"`
	Duration    uint64 `json:"duration"`
	LockVested  bool   `json:"lockVested"`
}

func (s *Server) handleVestingCreate(raw json.RawMessage) (interface{}, *RPCError) {
	var params createPositionParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, invalidParams("parse params: %v", err)
	}
	caller, rpcErr := parseAddress("caller", params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	beneficiary, rpcErr := parseAddress("beneficiary", params.Beneficiary)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, rpcErr := parseBig("amount", params.Amount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	position, evts, err := s.node.CreateVestingPosition(caller, beneficiary, amount, params.Cliff, params.Duration, params.LockVested)
	if err != nil {
		return nil, serverError(err)
	}
	return struct {
		Position positionView `json:"position"`
		Events   []eventView  `json:"events"`
	}{newPositionView(position), eventViews(evts)}, nil
}

type vestingClaimParams struct {
	Caller string `json:"caller"`
	ID     uint64 `json:"id"`
}

func (s *Server) handleVestingClaim(raw json.RawMessage) (interface{}, *RPCError) {
	var params vestingClaimParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, invalidParams("parse params: %v", err)
	}
	caller, rpcErr := parseAddress("caller", params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	paid, evts, err := s.node.ClaimVesting(caller, params.ID)
	if err != nil {
		return nil, serverError(err)
	}
	return struct {
		Paid   string      `json:"paid"`
		Events []eventView `json:"events"`
	}{bigString(paid), eventViews(evts)}, nil
}

type vestingQueryParams struct {
	ID uint64 `json:"id"`
}

func (s *Server) handleVestingPosition(raw json.RawMessage) (interface{}, *RPCError) {
	var params vestingQueryParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, invalidParams("parse params: %v", err)
	}
	position, err := s.node.VestingPosition(params.ID)
	if err != nil {
		return nil, serverError(err)
	}
	return newPositionView(position), nil
}

func (s *Server) handleVestingAmountDue(raw json.RawMessage) (interface{}, *RPCError) {
	var params vestingQueryParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, invalidParams("parse params: %v", err)
	}
	due, err := s.node.VestingAmountDue(params.ID)
	if err != nil {
		return nil, serverError(err)
	}
	return struct {
		Due string `json:"due"`
	}{bigString(due)}, nil
}
