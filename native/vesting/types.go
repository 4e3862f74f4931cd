package vesting

import (
	"fmt"
	"math/big"
)

// BaseMultiplier scales the intermediate vesting interpolation so the
// multiply happens before the divide, avoiding truncation bias beyond the
// final integer floor.
var BaseMultiplier = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// StartGuard selects how Claim gates on the vesting start time.
//
// GuardIntended implements the evident intent: claims are rejected until
// vesting has started. GuardLegacy reproduces the reviewed source behaviour,
// whose comparison is inverted and therefore blocks claims once vesting has
// started. The legacy mode exists so the discrepancy stays observable; the
// default is GuardIntended.
type StartGuard uint8

const (
	GuardIntended StartGuard = iota
	GuardLegacy
)

// Position is one beneficiary's vesting schedule. Positions are permanent
// audit records: fully vested positions are kept, never deleted.
type Position struct {
	ID           uint64   `json:"id"`
	Beneficiary  [20]byte `json:"beneficiary"`
	Amount       *big.Int `json:"amount"`
	AmountPaid   *big.Int `json:"amountPaid"`
	VestingStart uint64   `json:"vestingStart"`
	VestingEnd   uint64   `json:"vestingEnd"`
	LockVested   bool     `json:"lockVested"`
}

// Clone returns a deep copy of the position.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Amount = cloneBigInt(p.Amount)
	clone.AmountPaid = cloneBigInt(p.AmountPaid)
	return &clone
}

// VestedAt computes the cumulative vested amount at the given timestamp via
// linear interpolation across the vesting window:
// amount * elapsed * BaseMultiplier / duration / BaseMultiplier.
func (p *Position) VestedAt(now uint64) *big.Int {
	if p.Amount == nil || now <= p.VestingStart {
		return big.NewInt(0)
	}
	if now >= p.VestingEnd {
		return cloneBigInt(p.Amount)
	}
	elapsed := new(big.Int).SetUint64(now - p.VestingStart)
	duration := new(big.Int).SetUint64(p.VestingEnd - p.VestingStart)
	vested := new(big.Int).Mul(p.Amount, elapsed)
	vested.Mul(vested, BaseMultiplier)
	vested.Quo(vested, duration)
	vested.Quo(vested, BaseMultiplier)
	return vested
}

// AmountDueAt returns the claimable amount at the given timestamp. The result
// is never negative: AmountPaid only grows by amounts this function reported.
func (p *Position) AmountDueAt(now uint64) *big.Int {
	due := p.VestedAt(now)
	due.Sub(due, cloneBigInt(p.AmountPaid))
	if due.Sign() < 0 {
		return big.NewInt(0)
	}
	return due
}

// Sanitize validates a position definition and returns a normalised copy.
func Sanitize(p *Position) (*Position, error) {
	if p == nil {
		return nil, fmt.Errorf("vesting: nil position")
	}
	clone := p.Clone()
	if clone.Amount == nil || clone.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("vesting: amount must be positive")
	}
	if clone.AmountPaid == nil {
		clone.AmountPaid = big.NewInt(0)
	}
	if clone.AmountPaid.Sign() < 0 || clone.AmountPaid.Cmp(clone.Amount) > 0 {
		return nil, fmt.Errorf("vesting: amount paid out of range")
	}
	if clone.VestingEnd <= clone.VestingStart {
		return nil, fmt.Errorf("vesting: empty vesting window")
	}
	return clone, nil
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
