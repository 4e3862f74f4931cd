package vesting

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"horizon/core/types"
)

const (
	EventTypePositionCreated = "vesting.position_created"
	EventTypeClaimed         = "vesting.claimed"
)

// NewPositionCreatedEvent returns the canonical payload for a new schedule.
func NewPositionCreatedEvent(p *Position) *types.Event {
	attrs := positionAttributes(p)
	attrs["amount"] = bigString(p.Amount)
	attrs["vestingStart"] = strconv.FormatUint(p.VestingStart, 10)
	attrs["vestingEnd"] = strconv.FormatUint(p.VestingEnd, 10)
	attrs["lockVested"] = strconv.FormatBool(p.LockVested)
	return &types.Event{Type: EventTypePositionCreated, Attributes: attrs}
}

// NewClaimEvent returns the payload emitted for a vesting claim.
func NewClaimEvent(p *Position, paid *big.Int) *types.Event {
	attrs := positionAttributes(p)
	attrs["paid"] = bigString(paid)
	attrs["amountPaid"] = bigString(p.AmountPaid)
	return &types.Event{Type: EventTypeClaimed, Attributes: attrs}
}

func positionAttributes(p *Position) map[string]string {
	attrs := make(map[string]string)
	if p == nil {
		return attrs
	}
	attrs["id"] = strconv.FormatUint(p.ID, 10)
	attrs["beneficiary"] = hex.EncodeToString(p.Beneficiary[:])
	return attrs
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
