package iro

import (
	"fmt"
	"math/big"
	"strings"
)

// FeeDenominator is the basis-point denominator shared by every fee and share
// fraction in the offering machinery.
const FeeDenominator = 10_000

// Status is the derived lifecycle state of an offering. It is never stored:
// every read recomputes it from the record and the current time, so callers
// must treat it as a view computed at call time.
type Status uint8

const (
	StatusPending Status = iota
	StatusOngoing
	StatusSuccess
	StatusFail
)

// Valid reports whether the status value is within the supported range.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusOngoing, StatusSuccess, StatusFail:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusOngoing:
		return "ongoing"
	case StatusSuccess:
		return "success"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Finished reports whether the offering can no longer accept commits.
func (s Status) Finished() bool { return s == StatusSuccess || s == StatusFail }

// IRO is one offering record. Everything except TotalFunding and the lazily
// assigned RealEstateID is frozen at creation; records are append-only and
// never deleted.
type IRO struct {
	ID                   uint64   `json:"id"`
	ListingOwner         [20]byte `json:"listingOwner"`
	Currency             string   `json:"currency"`
	Start                uint64   `json:"start"`
	End                  uint64   `json:"end"`
	TreasuryFeeBps       uint32   `json:"treasuryFeeBps"`
	ListingOwnerFeeBps   uint32   `json:"listingOwnerFeeBps"`
	ListingOwnerShareBps uint32   `json:"listingOwnerShareBps"`
	SoftCap              *big.Int `json:"softCap"`
	HardCap              *big.Int `json:"hardCap"`
	UnitPrice            *big.Int `json:"unitPrice"`
	TotalFunding         *big.Int `json:"totalFunding"`
	RealEstateID         uint64   `json:"realEstateId"`
	RealEstateAssigned   bool     `json:"realEstateAssigned"`
}

// Clone returns a deep copy of the offering record.
func (i *IRO) Clone() *IRO {
	if i == nil {
		return nil
	}
	clone := *i
	clone.SoftCap = cloneBigInt(i.SoftCap)
	clone.HardCap = cloneBigInt(i.HardCap)
	clone.UnitPrice = cloneBigInt(i.UnitPrice)
	clone.TotalFunding = cloneBigInt(i.TotalFunding)
	return &clone
}

// StatusAt derives the offering status at the provided unix timestamp.
// Reaching the hard cap promotes the offering to success immediately, without
// waiting for the end time; otherwise success requires the soft cap to be met
// once the window closes.
func (i *IRO) StatusAt(now uint64) Status {
	if i.TotalFunding != nil && i.HardCap != nil && i.TotalFunding.Cmp(i.HardCap) >= 0 {
		return StatusSuccess
	}
	if now <= i.Start {
		return StatusPending
	}
	if now < i.End {
		return StatusOngoing
	}
	if i.TotalFunding != nil && i.SoftCap != nil && i.TotalFunding.Cmp(i.SoftCap) >= 0 {
		return StatusSuccess
	}
	return StatusFail
}

// Params carries the caller-supplied configuration for CreateIRO.
type Params struct {
	ListingOwner         [20]byte
	Currency             string
	TreasuryFeeBps       uint32
	ListingOwnerFeeBps   uint32
	ListingOwnerShareBps uint32
	StartOffset          uint64
	Duration             uint64
	SoftCap              *big.Int
	HardCap              *big.Int
	UnitPrice            *big.Int
}

// SanitizeParams validates the creation parameters and returns a normalised
// copy. The cap spread must be an exact multiple of the unit price so unit
// accounting stays exact for the whole offering lifetime.
func SanitizeParams(p Params) (Params, error) {
	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))
	if p.Currency == "" {
		return p, fmt.Errorf("iro: currency required")
	}
	if p.ListingOwnerShareBps > FeeDenominator {
		return p, fmt.Errorf("iro: listing owner share bps out of range: %d", p.ListingOwnerShareBps)
	}
	if uint64(p.TreasuryFeeBps)+uint64(p.ListingOwnerFeeBps) > FeeDenominator {
		return p, fmt.Errorf("iro: combined fees exceed denominator: %d", uint64(p.TreasuryFeeBps)+uint64(p.ListingOwnerFeeBps))
	}
	if p.Duration == 0 {
		return p, fmt.Errorf("iro: duration must be positive")
	}
	if p.UnitPrice == nil || p.UnitPrice.Sign() <= 0 {
		return p, fmt.Errorf("iro: unit price must be positive")
	}
	if p.SoftCap == nil || p.SoftCap.Sign() < 0 {
		return p, fmt.Errorf("iro: soft cap must be non-negative")
	}
	if p.HardCap == nil || p.HardCap.Cmp(p.SoftCap) < 0 {
		return p, fmt.Errorf("iro: hard cap below soft cap")
	}
	spread := new(big.Int).Sub(p.HardCap, p.SoftCap)
	if new(big.Int).Rem(spread, p.UnitPrice).Sign() != 0 {
		return p, fmt.Errorf("iro: cap spread not a multiple of unit price")
	}
	p.SoftCap = cloneBigInt(p.SoftCap)
	p.HardCap = cloneBigInt(p.HardCap)
	p.UnitPrice = cloneBigInt(p.UnitPrice)
	return p, nil
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
