package rpc

import (
	"encoding/json"

	"horizon/native/iro"
)

type createIROParams struct {
	Caller               string `json:"caller"`
	ListingOwner         string `json:"listingOwner"`
	Currency             string `json:"currency"`
	TreasuryFeeBps       uint32 `json:"treasuryFeeBps"`
	ListingOwnerFeeBps   uint32 `json:"listingOwnerFeeBps"`
	ListingOwnerShareBps uint32 `json:"listingOwnerShareBps"`
	StartOffset          uint64 `json:"startOffset"`
	Duration             uint64 `json:"duration"`
	SoftCap              string `json:"softCap"`
	HardCap              string `json:"hardCap"`
	UnitPrice            string `json:"unitPrice"`
}

func (s *Server) handleIROCreate(raw json.RawMessage) (interface{}, *RPCError) {
	var params createIROParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, invalidParams("parse params: %v", err)
	}
	caller, rpcErr := parseAddress("caller", params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	listingOwner, rpcErr := parseAddress("listingOwner", params.ListingOwner)
	if rpcErr != nil {
		return nil, rpcErr
	}
	softCap, rpcErr := parseBig("softCap", params.SoftCap)
	if rpcErr != nil {
		return nil, rpcErr
	}
	hardCap, rpcErr := parseBig("hardCap", params.HardCap)
	if rpcErr != nil {
		return nil, rpcErr
	}
	unitPrice, rpcErr := parseBig("unitPrice", params.UnitPrice)
	if rpcErr != nil {
		return nil, rpcErr
	}
	record, evts, err := s.node.CreateIRO(caller, iro.Params{
		ListingOwner:         listingOwner,
		Currency:             params.Currency,
		TreasuryFeeBps:       params.TreasuryFeeBps,
		ListingOwnerFeeBps:   params.ListingOwnerFeeBps,
		ListingOwnerShareBps: params.ListingOwnerShareBps,
		StartOffset:          params.StartOffset,
		Duration:             params.Duration,
		SoftCap:              softCap,
		HardCap:              hardCap,
		UnitPrice:            unitPrice,
	})
	if err != nil {
		return nil, serverError(err)
	}
	return struct {
		IRO    iroView     `json:"iro"`
		Events []eventView `json:"events"`
	}{newIROView(record), eventViews(evts)}, nil
}

type commitIROParams struct {
	Caller      string   `json:"caller"`
	ID          uint64   `json:"id"`
	Units       uint64   `json:"units"`
	Denom       string   `json:"denom"`
	SlippageBps uint32   `json:"slippageBps"`
	Route       []string `json:"route,omitempty"`
}

func (s *Server) handleIROCommit(raw json.RawMessage) (interface{}, *RPCError) {
	var params commitIROParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, invalidParams("parse params: %v", err)
	}
	caller, rpcErr := parseAddress("caller", params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	evts, err := s.node.CommitIRO(caller, params.ID, params.Units, params.Denom, params.SlippageBps, params.Route)
	if err != nil {
		return nil, serverError(err)
	}
	return struct {
		Events []eventView `json:"events"`
	}{eventViews(evts)}, nil
}

type claimIROParams struct {
	Caller string `json:"caller"`
	ID     uint64 `json:"id"`
	To     string `json:"to,omitempty"`
}

func (s *Server) handleIROClaim(raw json.RawMessage) (interface{}, *RPCError) {
	var params claimIROParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, invalidParams("parse params: %v", err)
	}
	caller, rpcErr := parseAddress("caller", params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	to := caller
	if params.To != "" {
		if to, rpcErr = parseAddress("to", params.To); rpcErr != nil {
			return nil, rpcErr
		}
	}
	evts, err := s.node.ClaimIRO(caller, params.ID, to)
	if err != nil {
		return nil, serverError(err)
	}
	return struct {
		Events []eventView `json:"events"`
	}{eventViews(evts)}, nil
}

type listingOwnerClaimParams struct {
	Caller string `json:"caller"`
	ID     uint64 `json:"id"`
}

func (s *Server) handleListingOwnerClaim(raw json.RawMessage) (interface{}, *RPCError) {
	var params listingOwnerClaimParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, invalidParams("parse params: %v", err)
	}
	caller, rpcErr := parseAddress("caller", params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	evts, err := s.node.ListingOwnerClaim(caller, params.ID)
	if err != nil {
		return nil, serverError(err)
	}
	return struct {
		Events []eventView `json:"events"`
	}{eventViews(evts)}, nil
}

type withdrawIROParams struct {
	ID uint64 `json:"id"`
}

func (s *Server) handleIROWithdraw(raw json.RawMessage) (interface{}, *RPCError) {
	var params withdrawIROParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, invalidParams("parse params: %v", err)
	}
	evts, err := s.node.WithdrawIRO(params.ID)
	if err != nil {
		return nil, serverError(err)
	}
	return struct {
		Events []eventView `json:"events"`
	}{eventViews(evts)}, nil
}

type iroQueryParams struct {
	ID uint64 `json:"id"`
}

func (s *Server) handleIROGet(raw json.RawMessage) (interface{}, *RPCError) {
	var params iroQueryParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, invalidParams("parse params: %v", err)
	}
	record, err := s.node.GetIRO(params.ID)
	if err != nil {
		return nil, serverError(err)
	}
	return newIROView(record), nil
}

func (s *Server) handleIROStatus(raw json.RawMessage) (interface{}, *RPCError) {
	var params iroQueryParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, invalidParams("parse params: %v", err)
	}
	status, err := s.node.IROStatus(params.ID)
	if err != nil {
		return nil, serverError(err)
	}
	return struct {
		Status string `json:"status"`
	}{status.String()}, nil
}

type commitmentParams struct {
	ID      uint64 `json:"id"`
	Address string `json:"address"`
}

func (s *Server) handleIROCommitment(raw json.RawMessage) (interface{}, *RPCError) {
	var params commitmentParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, invalidParams("parse params: %v", err)
	}
	addr, rpcErr := parseAddress("address", params.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}
	committed, err := s.node.IROCommitment(params.ID, addr)
	if err != nil {
		return nil, serverError(err)
	}
	return struct {
		Committed string `json:"committed"`
	}{bigString(committed)}, nil
}
