package renft

import (
	"fmt"
	"math/big"
)

// FeeDenominator is the basis-point denominator used for royalty fractions.
const FeeDenominator = 10_000

// Royalty captures the royalty configuration of one collection.
type Royalty struct {
	Receiver [20]byte `json:"receiver"`
	FeeBps   uint32   `json:"feeBps"`
}

// Clone returns a copy of the royalty record.
func (r *Royalty) Clone() *Royalty {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}

// Allowance is the single-spender approval tracked per (owner, collection).
// Approving a new spender replaces the previous allowance entirely.
type Allowance struct {
	Spender [20]byte `json:"spender"`
	Amount  *big.Int `json:"amount"`
}

// Clone returns a deep copy of the allowance.
func (a *Allowance) Clone() *Allowance {
	if a == nil {
		return nil
	}
	clone := &Allowance{Spender: a.Spender, Amount: big.NewInt(0)}
	if a.Amount != nil {
		clone.Amount = new(big.Int).Set(a.Amount)
	}
	return clone
}

// SanitizeRoyalty validates the royalty configuration.
func SanitizeRoyalty(r *Royalty) (*Royalty, error) {
	if r == nil {
		return nil, fmt.Errorf("renft: nil royalty")
	}
	if r.FeeBps > FeeDenominator {
		return nil, fmt.Errorf("renft: royalty fee bps out of range: %d", r.FeeBps)
	}
	return r.Clone(), nil
}
