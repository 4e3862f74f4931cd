package rpc

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"horizon/core"
	"horizon/core/types"
	"horizon/native/iro"
	"horizon/native/vesting"
)

func invalidParams(format string, args ...interface{}) *RPCError {
	return &RPCError{Code: codeInvalidParams, Message: fmt.Sprintf(format, args...)}
}

func serverError(err error) *RPCError {
	return &RPCError{Code: codeServerError, Message: err.Error()}
}

func parseAddress(field, value string) ([20]byte, *RPCError) {
	addr, err := core.ParseAddress(value)
	if err != nil {
		return [20]byte{}, invalidParams("%s: %v", field, err)
	}
	return addr, nil
}

func parseBig(field, value string) (*big.Int, *RPCError) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, invalidParams("%s: required", field)
	}
	parsed, ok := new(big.Int).SetString(trimmed, 10)
	if !ok || parsed.Sign() < 0 {
		return nil, invalidParams("%s: invalid amount %q", field, value)
	}
	return parsed, nil
}

func parseHash(field, value string) ([32]byte, *RPCError) {
	var out [32]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil || len(raw) != 32 {
		return out, invalidParams("%s: expected 32-byte hex value", field)
	}
	copy(out[:], raw)
	return out, nil
}

func parseProof(field string, values []string) ([][32]byte, *RPCError) {
	proof := make([][32]byte, 0, len(values))
	for i, value := range values {
		node, rpcErr := parseHash(fmt.Sprintf("%s[%d]", field, i), value)
		if rpcErr != nil {
			return nil, rpcErr
		}
		proof = append(proof, node)
	}
	return proof, nil
}

func hexAddress(addr [20]byte) string { return "0x" + hex.EncodeToString(addr[:]) }

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

type eventView struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

func eventViews(evts []*types.Event) []eventView {
	out := make([]eventView, 0, len(evts))
	for _, evt := range evts {
		if evt == nil {
			continue
		}
		out = append(out, eventView{Type: evt.Type, Attributes: evt.Attributes})
	}
	return out
}

type iroView struct {
	ID                   uint64 `json:"id"`
	ListingOwner         string `json:"listingOwner"`
	Currency             string `json:"currency"`
	Start                uint64 `json:"start"`
	End                  uint64 `json:"end"`
	TreasuryFeeBps       uint32 `json:"treasuryFeeBps"`
	ListingOwnerFeeBps   uint32 `json:"listingOwnerFeeBps"`
	ListingOwnerShareBps uint32 `json:"listingOwnerShareBps"`
	SoftCap              string `json:"softCap"`
	HardCap              string `json:"hardCap"`
	UnitPrice            string `json:"unitPrice"`
	TotalFunding         string `json:"totalFunding"`
	RealEstateID         uint64 `json:"realEstateId,omitempty"`
	RealEstateAssigned   bool   `json:"realEstateAssigned"`
}

func newIROView(record *iro.IRO) iroView {
	return iroView{
		ID:                   record.ID,
		ListingOwner:         hexAddress(record.ListingOwner),
		Currency:             record.Currency,
		Start:                record.Start,
		End:                  record.End,
		TreasuryFeeBps:       record.TreasuryFeeBps,
		ListingOwnerFeeBps:   record.ListingOwnerFeeBps,
		ListingOwnerShareBps: record.ListingOwnerShareBps,
		SoftCap:              bigString(record.SoftCap),
		HardCap:              bigString(record.HardCap),
		UnitPrice:            bigString(record.UnitPrice),
		TotalFunding:         bigString(record.TotalFunding),
		RealEstateID:         record.RealEstateID,
		RealEstateAssigned:   record.RealEstateAssigned,
	}
}

type positionView struct {
	ID           uint64 `json:"id"`
	Beneficiary  string `json:"beneficiary"`
	Amount       string `json:"amount"`
	AmountPaid   string `json:"amountPaid"`
	VestingStart uint64 `json:"vestingStart"`
	VestingEnd   uint64 `json:"vestingEnd"`
	LockVested   bool   `json:"lockVested"`
}

func newPositionView(position *vesting.Position) positionView {
	return positionView{
		ID:           position.ID,
		Beneficiary:  hexAddress(position.Beneficiary),
		Amount:       bigString(position.Amount),
		AmountPaid:   bigString(position.AmountPaid),
		VestingStart: position.VestingStart,
		VestingEnd:   position.VestingEnd,
		LockVested:   position.LockVested,
	}
}
